package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hardsub/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		job    int
		level  string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "logs [file]",
		Short: "Show the newest run log, or the given log file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			filter := logs.Filter{MinLevel: slog.LevelDebug, Job: job}
			if strings.TrimSpace(level) != "" {
				if err := filter.MinLevel.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
					return fmt.Errorf("invalid --level %q", level)
				}
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				path, err = logs.Latest(cfg.Paths.LogDir)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			verbatim := raw || ctx.jsonOutput()
			emit := func(line string) {
				entry, ok := logs.ParseEntry(line)
				if !ok {
					if filter.Job < 0 {
						fmt.Fprintln(out, line)
					}
					return
				}
				if !filter.Match(entry) {
					return
				}
				if verbatim {
					fmt.Fprintln(out, line)
					return
				}
				fmt.Fprintln(out, entry.Format())
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return logs.Tail(runCtx, path, logs.TailOptions{Lines: lines, Follow: follow}, emit)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to read")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are appended")
	cmd.Flags().IntVar(&job, "job", -1, "Only show lines for this batch job index")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show (debug, info, warn, error)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print matching JSON lines unchanged")
	return cmd
}
