package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newToolsCommand(ctx *commandContext) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Check encoders and working directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, prefs := ctx.preferences()
			report := ctx.checker().Run(prefs, ctx.paths())

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(report.Items))
			for _, item := range report.Items {
				rows = append(rows, []string{
					item.Name,
					statusLabel(item.Status, colorize),
					item.Message,
					item.Hint,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail", "Hint"}, rows, nil))

			if strict && report.HasFailures {
				return fmt.Errorf("required tools are missing")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when a required check fails")
	return cmd
}
