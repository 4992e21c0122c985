package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	return newRootCommandWith(&commandContext{})
}

func newRootCommandWith(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "alchemist",
		Short:         "Batch media conversion through ffmpeg, ffmpeg2theora and qt_export",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureRuntime(cmd.ErrOrStderr())
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Runtime configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.prefsFlag, "prefs", "", "Preferences file path")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevelFlag, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newModesCommand())
	rootCmd.AddCommand(newToolsCommand(ctx))
	rootCmd.AddCommand(newPrefsCommand(ctx))

	return rootCmd
}
