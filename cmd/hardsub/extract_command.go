package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hardsub/internal/batch"
	"hardsub/internal/config"
	"hardsub/internal/cues"
	"hardsub/internal/extract"
	"hardsub/internal/history"
	"hardsub/internal/logging"
	"hardsub/internal/media/frames"
	"hardsub/internal/metrics"
	"hardsub/internal/preflight"
	"hardsub/internal/recognition"
	"hardsub/internal/services"
)

type extractOptions struct {
	region        string
	regionsFile   string
	groupSize     int
	cadence       float64
	threshold     float64
	engine        string
	metricsAddr   string
	outputDirName string
	noHistory     bool
	noProgress    bool
	skipPreflight bool
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract <video>...",
		Short: "Extract hard subtitles from one or more videos",
		Long: `Extract burned-in subtitles from each video into <video dir>/output/<name>.srt.

Videos run in groups of --group-size; the next group starts only after the
current one has finished. Ctrl-C stops cooperatively: running videos end as
interrupted and later groups are skipped. Press Ctrl-C again to exit at once.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, ctx, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.region, "region", "", "Subtitle band as bottom,top fractions of frame height (e.g. 0.8,0.95)")
	flags.StringVar(&opts.regionsFile, "regions", "", "TOML file mapping videos to regions")
	flags.IntVar(&opts.groupSize, "group-size", 0, "Videos processed concurrently per group (overrides batch.group_size)")
	flags.Float64Var(&opts.cadence, "cadence", 0, "Frames inspected per second of video (overrides sampling.cadence)")
	flags.Float64Var(&opts.threshold, "threshold", -1, "Minimum recognition confidence (overrides recognition.confidence_threshold)")
	flags.StringVar(&opts.engine, "engine", "", "Recognition engine: command or tesseract")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	flags.StringVar(&opts.outputDirName, "output-dir", "", "Output directory name next to each video (overrides batch.output_dir_name)")
	flags.BoolVar(&opts.noHistory, "no-history", false, "Do not record this run in the history database")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable the interactive progress bar")
	flags.BoolVar(&opts.skipPreflight, "skip-preflight", false, "Skip binary and directory checks")
	return cmd
}

// applyOverrides copies explicit flags onto a copy of cfg and revalidates.
func applyOverrides(cmd *cobra.Command, base *config.Config, opts extractOptions) (*config.Config, error) {
	cfg := *base
	flags := cmd.Flags()
	if flags.Changed("group-size") {
		cfg.Batch.GroupSize = opts.groupSize
	}
	if flags.Changed("cadence") {
		cfg.Sampling.Cadence = opts.cadence
	}
	if flags.Changed("threshold") {
		cfg.Recognition.ConfidenceThreshold = opts.threshold
	}
	if flags.Changed("engine") {
		engine := strings.ToLower(strings.TrimSpace(opts.engine))
		if cfg.Recognition.Engine != engine {
			cfg.Recognition.Command = config.CommandForEngine(engine)
		}
		cfg.Recognition.Engine = engine
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Listen = strings.TrimSpace(opts.metricsAddr)
	}
	if flags.Changed("output-dir") {
		cfg.Batch.OutputDirName = strings.TrimSpace(opts.outputDirName)
	}
	if opts.noHistory {
		cfg.History.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "apply flags", "invalid option", err)
	}
	return &cfg, nil
}

func runExtract(cmd *cobra.Command, cmdCtx *commandContext, opts extractOptions, args []string) error {
	baseCfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	cfg, err := applyOverrides(cmd, baseCfg, opts)
	if err != nil {
		return err
	}

	regions, err := loadRegions(opts.region, opts.regionsFile)
	if err != nil {
		return err
	}
	jobs, err := buildJobs(args, regions)
	if err != nil {
		return err
	}

	if !opts.skipPreflight {
		if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
			return fmt.Errorf("preflight failed: %s (run `hardsub doctor` for details)", preflight.Summary(failed))
		}
	}

	stderr := cmd.ErrOrStderr()
	showBar := !opts.noProgress && !cmdCtx.jsonOutput() && isTerminal(stderr)
	consoleOut := stderr
	if showBar {
		// Run events are rendered above the bar; full detail stays in the log file.
		consoleOut = io.Discard
	}
	logger, closer, err := logging.NewFromConfig(cfg, consoleOut)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays)
	cliLogger := logging.NewComponentLogger(logger, "cli")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// Restore default signal handling so a second Ctrl-C terminates.
		stop()
	}()

	extractor, err := newExtractor(cfg, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	if cfg.Metrics.Listen != "" {
		srv, err := metrics.Serve(ctx, cfg.Metrics.Listen, m, cliLogger)
		if err != nil {
			return err
		}
		defer srv.Shutdown(context.WithoutCancel(ctx))
	}

	observers := batch.Observers{m}
	var view *progressView
	if showBar {
		view = newProgressView(stderr, len(jobs))
		observers = append(observers, view.observer())
		view.start()
	}

	scheduler := batch.New(extractor, batch.Options{
		GroupSize: cfg.Batch.GroupSize,
		Observer:  observers,
		Logger:    logger,
	})
	report := scheduler.Run(ctx, jobs)
	if view != nil {
		view.finish(report.Progress)
	}
	m.RecordRun(report)

	if cfg.History.Enabled {
		recordHistory(cmd.Context(), cfg, report, cliLogger)
	}
	notifyRun(cmd.Context(), cfg, report, cliLogger)

	if cmdCtx.jsonOutput() {
		if err := writeJSON(cmd, newRunJSON(report)); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), renderRunSummary(report, isTerminal(cmd.OutOrStdout())))
	}

	if report.Cancelled {
		return context.Canceled
	}
	if failed := report.Counts()[services.StatusFailed]; failed > 0 {
		return fmt.Errorf("%d of %d videos failed; see the log in %s", failed, len(report.Jobs), cfg.Paths.LogDir)
	}
	return nil
}

func newExtractor(cfg *config.Config, logger *slog.Logger) (*extract.Extractor, error) {
	recognizer, err := recognition.NewFromConfig(cfg.Recognition)
	if err != nil {
		return nil, err
	}
	opener := frames.FFmpegOpener{
		FFmpegBinary:  cfg.FFmpeg.FFmpegBinary,
		FFprobeBinary: cfg.FFmpeg.FFprobeBinary,
	}
	return extract.New(opener, recognizer, extract.Options{
		Cadence:       cfg.Sampling.Cadence,
		Filter:        recognition.FilterFromConfig(cfg.Recognition),
		Segmentation:  segmentationConfig(cfg.Segmentation),
		OutputDirName: cfg.Batch.OutputDirName,
	}, logger), nil
}

func segmentationConfig(s config.Segmentation) cues.Config {
	return cues.Config{
		MinDuration:    cues.SecondsToDuration(s.MinDurationSeconds),
		MaxDuration:    cues.SecondsToDuration(s.MaxDurationSeconds),
		EmptyThreshold: s.EmptyThreshold,
	}
}

// buildJobs resolves video arguments to absolute paths in order, dropping
// duplicates so two workers never race for the same output file.
func buildJobs(args []string, regions *regionSet) ([]extract.Job, error) {
	seen := make(map[string]bool, len(args))
	jobs := make([]extract.Job, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		path, err := config.ExpandPath(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", arg, err)
		}
		path = filepath.Clean(path)
		if seen[path] {
			continue
		}
		seen[path] = true
		jobs = append(jobs, extract.Job{Video: path, Region: regions.For(path)})
	}
	if len(jobs) == 0 {
		return nil, errors.New("no videos given")
	}
	return jobs, nil
}

func recordHistory(ctx context.Context, cfg *config.Config, report batch.Report, logger *slog.Logger) {
	store, err := history.Open(ctx, cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable; run not recorded", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the history database if its schema is outdated"),
		)
		return
	}
	defer store.Close()
	if err := store.RecordRun(ctx, historyRun(report, cfg.Batch.GroupSize)); err != nil {
		logging.WarnWithContext(logger, "failed to record run history", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
		)
	}
}

func historyRun(report batch.Report, groupSize int) history.Run {
	run := history.Run{
		ID:        report.RunID,
		Started:   report.Started,
		Finished:  report.Finished,
		Cancelled: report.Cancelled,
		Progress:  report.Progress,
		GroupSize: groupSize,
		Jobs:      make([]history.JobRecord, 0, len(report.Jobs)),
	}
	for _, jr := range report.Jobs {
		rec := history.JobRecord{
			Index:    jr.Index,
			Video:    jr.Job.Video,
			Status:   string(jr.Status),
			Cues:     jr.Result.Cues,
			Frames:   jr.Result.Stats.FramesInspected,
			Duration: jr.Duration(),
		}
		if jr.Status == services.StatusSucceeded {
			rec.Output = jr.Result.OutputPath
		}
		if jr.Err != nil && jr.Status != services.StatusEmpty {
			rec.Error = jr.Err.Error()
		}
		run.Jobs = append(run.Jobs, rec)
	}
	return run
}
