package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"alchemist/internal/config"
)

func newPrefsCommand(ctx *commandContext) *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change saved preferences",
	}

	prefsCmd.AddCommand(newPrefsShowCommand(ctx))
	prefsCmd.AddCommand(newPrefsSetCommand(ctx))
	prefsCmd.AddCommand(newPrefsEraseCommand(ctx))
	return prefsCmd
}

func newPrefsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print preferences merged over defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := ctx.preferences()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(raw)
			}

			keys := make([]string, 0, len(raw))
			for k := range raw {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, []string{k, fmt.Sprint(raw[k])})
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows, nil))
			fmt.Fprintf(out, "File: %s\n", ctx.store().Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newPrefsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if key == "" {
				return fmt.Errorf("preference key is required")
			}

			raw, _ := ctx.preferences()
			raw[key] = parseValue(args[1])
			if _, err := config.ParsePreferences(raw); err != nil {
				return err
			}
			if err := ctx.store().Save(raw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, raw[key])
			return nil
		},
	}
}

func newPrefsEraseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "erase",
		Short: "Delete saved preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := ctx.store()
			if err := store.Erase(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Erased %s\n", store.Path())
			return nil
		},
	}
}

// parseValue keeps the JSON types the desktop front end stores: booleans
// and integers stay typed, everything else is a string.
func parseValue(s string) any {
	if s == "true" || s == "false" {
		return s == "true"
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
