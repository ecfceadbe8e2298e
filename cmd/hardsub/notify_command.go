package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"hardsub/internal/batch"
	"hardsub/internal/config"
	"hardsub/internal/logging"
	"hardsub/internal/notifications"
	"hardsub/internal/services"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications disabled; set notifications.ntfy_topic")
				return nil
			}
			if err := notifications.NewNotifier(cfg.Notifications).Test(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}

func notifyRun(ctx context.Context, cfg *config.Config, report batch.Report, logger *slog.Logger) {
	if cfg.Notifications.NtfyTopic == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Notifications.RequestTimeout()+time.Second)
	defer cancel()
	if err := notifications.NewNotifier(cfg.Notifications).RunCompleted(ctx, runSummary(report)); err != nil {
		logging.WarnWithContext(logger, "run notification not sent", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func runSummary(report batch.Report) notifications.RunSummary {
	counts := report.Counts()
	return notifications.RunSummary{
		RunID:       report.RunID,
		Videos:      len(report.Jobs),
		Succeeded:   counts[services.StatusSucceeded],
		Empty:       counts[services.StatusEmpty],
		Failed:      counts[services.StatusFailed],
		Interrupted: counts[services.StatusInterrupted],
		Skipped:     counts[services.StatusSkipped],
		Cues:        report.Cues(),
		Elapsed:     report.Finished.Sub(report.Started),
		Cancelled:   report.Cancelled,
	}
}
