package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hardsub/internal/language"
	"hardsub/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external binaries and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := isTerminal(out)
				source := ctx.configPath
				if !ctx.configSeen {
					source += " (not found; using defaults)"
				}
				fmt.Fprintf(out, "Config: %s\n", source)
				fmt.Fprintf(out, "Engine: %s (%s), language %s\n",
					cfg.Recognition.Engine, cfg.Recognition.Command, language.DisplayName(cfg.Recognition.Language))
				for _, r := range results {
					fmt.Fprintln(out, renderCheckLine(r.Name, r.Passed, r.Detail, colorize))
				}
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
}
