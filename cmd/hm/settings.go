package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pwolcott/huntmaster/internal/settings"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect the settings registry",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List the setting keys for each scope",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, scope := range []struct {
				name string
				keys []string
			}{
				{"guild", settings.GuildKeys()},
				{"hunt", settings.HuntKeys()},
				{"round", settings.RoundKeys()},
			} {
				fmt.Fprintf(out, "%s:\n", scope.name)
				for _, k := range scope.keys {
					fmt.Fprintf(out, "  %s\n", k)
				}
			}
		},
	})
	return cmd
}
