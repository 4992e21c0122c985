package config

import (
	"os"
	"path/filepath"

	"alchemist/internal/domain"
)

// Default tool directories for a Homebrew/MacPorts install.
const (
	DefaultQTExportDir = "/opt/local/bin/"
	DefaultFFmpegDir   = "/opt/homebrew/bin/"
	DefaultTheoraDir   = "/opt/homebrew/bin/"
)

// DefaultPrefs returns the first-launch preference map.
func DefaultPrefs() map[string]any {
	return map[string]any{
		domain.PrefType:          0,
		domain.PrefLocation:      DefaultQTExportDir,
		domain.PrefLocation2:     DefaultFFmpegDir,
		domain.PrefLocation3:     DefaultTheoraDir,
		domain.PrefSpacer:        "_",
		domain.PrefDateSpacer:    "-",
		domain.PrefPrefix:        "prefix",
		domain.PrefPrefixEnabled: false,
		domain.PrefSuffix:        "suffix",
		domain.PrefSuffixEnabled: false,
		domain.PrefDateEnabled:   false,
		domain.PrefDateReverse:   true,
	}
}

// DefaultPrefsPath returns ~/.alchemist/prefs.json.
func DefaultPrefsPath() string {
	return filepath.Join(homeDir(), ".alchemist", "prefs.json")
}

// DefaultRuntimePath returns ~/.config/alchemist/config.toml.
func DefaultRuntimePath() string {
	return filepath.Join(homeDir(), ".config", "alchemist", "config.toml")
}

func defaultPassLogDir() string {
	return filepath.Join(os.TempDir(), "alchemist-passlogs")
}

func defaultPresetDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "presets"
	}
	return filepath.Join(filepath.Dir(exe), "presets")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
