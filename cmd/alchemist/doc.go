// Command alchemist runs conversion batches without the desktop window.
//
//	alchemist convert --mode 4 clip.mov intro.mov
//	alchemist modes
//	alchemist tools
//	alchemist prefs show
package main
