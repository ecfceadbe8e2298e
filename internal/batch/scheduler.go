package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"hardsub/internal/extract"
	"hardsub/internal/logging"
	"hardsub/internal/services"
)

// DefaultGroupSize is the number of jobs run concurrently per group.
const DefaultGroupSize = 5

// Runner processes one job. extract.Extractor implements it.
type Runner interface {
	Run(ctx context.Context, job extract.Job, progress func(int)) (extract.Result, error)
}

// Options configures a Scheduler.
type Options struct {
	GroupSize int
	Observer  Observer
	Logger    *slog.Logger
	// NewRunID overrides run ID generation (uuid by default).
	NewRunID func() string
}

// Scheduler runs batches of jobs. Each Run is independent; nothing carries
// over between runs.
type Scheduler struct {
	runner    Runner
	groupSize int
	observer  Observer
	logger    *slog.Logger
	newRunID  func() string
}

// New constructs a Scheduler.
func New(runner Runner, opts Options) *Scheduler {
	size := opts.GroupSize
	if size <= 0 {
		size = DefaultGroupSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}
	return &Scheduler{
		runner:    runner,
		groupSize: size,
		observer:  opts.Observer,
		logger:    logger,
		newRunID:  newRunID,
	}
}

// Run executes jobs group by group and returns when every started job has
// finished. Cancelling ctx stops further groups; jobs that never started are
// reported as skipped.
func (s *Scheduler) Run(ctx context.Context, jobs []extract.Job) Report {
	runID := s.newRunID()
	ctx = services.WithRunID(ctx, runID)

	report := Report{
		RunID:   runID,
		Started: time.Now(),
		Jobs:    make([]JobResult, len(jobs)),
	}
	for i, job := range jobs {
		report.Jobs[i] = JobResult{Index: i + 1, Job: job, Status: services.StatusSkipped}
	}

	b := newBus(runID, len(jobs), s.observer)
	go b.loop()

	logger := logging.NewComponentLogger(logging.TeeLogger(s.logger, b.handler(slog.LevelInfo)), "batch").
		With(logging.String(logging.FieldRunID, runID))

	groups := Groups(len(jobs), s.groupSize)
	report.Groups = len(groups)
	logger.Info("run started",
		logging.Int("jobs", len(jobs)),
		logging.Int("groups", len(groups)),
		logging.Int("group_size", s.groupSize),
	)

	for gi, group := range groups {
		if err := ctx.Err(); err != nil {
			logging.WarnWithContext(logger, "run cancelled; remaining jobs skipped", "run_cancelled",
				logging.Int("skipped", len(jobs)-group.Start),
				logging.String(logging.FieldImpact, "skipped videos have no subtitles"),
				logging.String(logging.FieldErrorHint, "rerun the skipped videos"),
			)
			break
		}
		logger.Debug("group started",
			logging.Int("group", gi+1),
			logging.Int("of", len(groups)),
			logging.Int("jobs", group.Size()),
		)

		var wg sync.WaitGroup
		wg.Add(group.Size())
		for i := group.Start; i < group.End; i++ {
			go func(jr *JobResult) {
				defer wg.Done()
				s.runJob(ctx, logger, b, jr)
			}(&report.Jobs[i])
		}
		wg.Wait()

		succeeded := 0
		for _, jr := range report.Jobs[group.Start:group.End] {
			if jr.Status == services.StatusSucceeded {
				succeeded++
			}
		}
		logger.Info(fmt.Sprintf("group %d/%d done", gi+1, len(groups)),
			logging.Int("succeeded", succeeded),
			logging.Int("jobs", group.Size()),
		)
	}

	report.Cancelled = ctx.Err() != nil
	report.Finished = time.Now()
	counts := report.Counts()
	logger.Info("run finished",
		logging.Int("succeeded", counts[services.StatusSucceeded]),
		logging.Int("empty", counts[services.StatusEmpty]),
		logging.Int("failed", counts[services.StatusFailed]),
		logging.Int("interrupted", counts[services.StatusInterrupted]),
		logging.Int("skipped", counts[services.StatusSkipped]),
		logging.Duration("elapsed", report.Finished.Sub(report.Started)),
	)

	b.close()
	report.Progress = b.overall()
	return report
}

func (s *Scheduler) runJob(ctx context.Context, logger *slog.Logger, b *bus, jr *JobResult) {
	ctx = services.WithJobIndex(ctx, jr.Index)
	ctx = services.WithVideo(ctx, jr.Job.Video)
	jobLogger := logger.With(
		logging.Int(logging.FieldJobIndex, jr.Index),
		logging.String(logging.FieldVideo, jr.Job.Video),
	)
	sampler := logging.NewProgressSampler(10)

	jr.Started = time.Now()
	jobLogger.Debug("job started")

	defer func() {
		if r := recover(); r != nil {
			jr.Err = fmt.Errorf("worker panic: %v", r)
		}
		jr.Finished = time.Now()
		jr.Status = services.JobStatus(jr.Err)
		logTerminal(jobLogger, jr)
		result := *jr
		b.send(message{kind: EventJobFinished, job: jr.Index, result: &result})
	}()

	jr.Result, jr.Err = s.runner.Run(ctx, jr.Job, func(pct int) {
		b.send(message{kind: EventProgress, job: jr.Index, pct: pct})
		if sampler.Crossed(pct) {
			jobLogger.Debug("job progress", logging.Int(logging.FieldProgressPercent, pct))
		}
	})
}

// logTerminal writes the single terminal line for a started job.
func logTerminal(logger *slog.Logger, jr *JobResult) {
	elapsed := logging.Duration("elapsed", jr.Duration())
	switch jr.Status {
	case services.StatusSucceeded:
		logger.Info("job succeeded",
			logging.String("output", jr.Result.OutputPath),
			logging.Int("cues", jr.Result.Cues),
			elapsed,
			logging.String(logging.FieldEventType, "job_succeeded"),
		)
	case services.StatusEmpty:
		logger.Info("job produced no subtitles; nothing written",
			logging.Int("frames_inspected", jr.Result.Stats.FramesInspected),
			elapsed,
			logging.String(logging.FieldEventType, "job_empty"),
		)
	case services.StatusInterrupted:
		logging.WarnWithContext(logger, "job interrupted", "job_interrupted",
			elapsed,
			logging.String(logging.FieldImpact, "no subtitle file written for this video"),
			logging.String(logging.FieldErrorHint, "rerun the video to extract subtitles"),
		)
	default:
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.Error(jr.Err),
			elapsed,
			logging.String(logging.FieldErrorHint, failureHint(jr.Err)),
		)
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrSourceUnavailable):
		return "check the video path and that ffprobe can read it"
	case errors.Is(err, services.ErrInvalidRegion):
		return "region bounds must satisfy 0 <= bottom < top <= 1"
	case errors.Is(err, services.ErrConfiguration):
		return "run hardsub config validate"
	case errors.Is(err, services.ErrValidation):
		return "check output directory permissions"
	default:
		return "check logs for details"
	}
}
