package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hardsub/internal/history"
	"hardsub/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent extraction runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, ctx, func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded yet")
					return nil
				}
				fmt.Fprintln(out, renderRunList(runs, time.Now()))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-video results of a run (a unique id prefix is enough)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, ctx, func(store *history.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, run)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderRunDetail(run, isTerminal(cmd.OutOrStdout())))
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than the given age",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			return withHistory(cmd, ctx, func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age threshold (e.g. 720h)")
	return cmd
}

func withHistory(cmd *cobra.Command, ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.New("history is disabled (set [history] enabled = true)")
	}
	store, err := history.Open(cmd.Context(), cfg.HistoryPath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func renderRunList(runs []history.RunSummary, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		outcome := fmt.Sprintf("%d/%d ok", run.Counts[history.StatusSucceeded], run.Jobs)
		if failed := run.Counts[history.StatusFailed]; failed > 0 {
			outcome += fmt.Sprintf(", %d failed", failed)
		}
		if run.Cancelled {
			outcome += ", cancelled"
		}
		rows = append(rows, []string{
			shortID(run.ID),
			humanize.RelTime(run.Started, now, "ago", "from now"),
			formatElapsed(run.Elapsed()),
			outcome,
			humanize.Comma(int64(run.Cues)),
			strconv.Itoa(run.Progress) + "%",
		})
	}
	return renderTable(tableSpec{
		Headers: []string{"Run", "Started", "Elapsed", "Videos", "Cues", "Progress"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight},
	})
}

func renderRunDetail(run *history.Run, colorize bool) string {
	rows := make([][]string, 0, len(run.Jobs))
	cues := 0
	for _, job := range run.Jobs {
		detail := shortPath(job.Output)
		if job.Error != "" {
			detail = job.Error
		}
		if job.Status == history.StatusSucceeded {
			cues += job.Cues
		}
		rows = append(rows, []string{
			strconv.Itoa(job.Index),
			shortPath(job.Video),
			colorStatus(services.Status(job.Status), colorize),
			strconv.Itoa(job.Cues),
			humanize.Comma(int64(job.Frames)),
			formatElapsed(job.Duration),
			detail,
		})
	}
	title := fmt.Sprintf("Run %s, %s", run.ID, run.Started.Local().Format("2006-01-02 15:04:05"))
	if run.Cancelled {
		title += " (cancelled)"
	}
	return renderTable(tableSpec{
		Title:   title,
		Headers: []string{"#", "Video", "Status", "Cues", "Frames", "Elapsed", "Output"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		Footer: []string{
			"", fmt.Sprintf("%d video(s)", len(run.Jobs)), fmt.Sprintf("%d%%", run.Progress),
			strconv.Itoa(cues), "", formatElapsed(run.Finished.Sub(run.Started)), "",
		},
		MaxWidths: []int{0, 40, 0, 0, 0, 0, 60},
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
