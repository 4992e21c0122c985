package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"alchemist/internal/catalog"
)

func newModesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List conversion modes and their outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, catalog.Len())
			for _, mode := range catalog.Modes() {
				suffixes := make([]string, 0, len(mode.Outputs))
				for _, out := range mode.Outputs {
					suffixes = append(suffixes, out.Suffix)
				}
				kinds := make([]string, 0, 2)
				for _, kind := range catalog.RequiredKinds(mode) {
					kinds = append(kinds, kind.ToolName())
				}
				rows = append(rows, []string{
					strconv.Itoa(mode.Index),
					mode.Label,
					strings.Join(suffixes, "\n"),
					strings.Join(dedupe(kinds), ", "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Mode", "Label", "Outputs", "Tools"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
