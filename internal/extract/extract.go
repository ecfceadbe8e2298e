package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"hardsub/internal/cues"
	"hardsub/internal/logging"
	"hardsub/internal/media/frames"
	"hardsub/internal/recognition"
	"hardsub/internal/services"
	"hardsub/internal/subtitles"
)

// Job is one unit of batch work.
type Job struct {
	Video string
	// Region crops frames before recognition; nil means the whole frame.
	Region *frames.Region
	// OutputPath overrides the default <videoDir>/output/<base>.srt.
	OutputPath string
}

// Stats counts what happened while processing one video.
type Stats struct {
	FramesDecoded       int
	FramesInspected     int
	RecognitionFailures int
	EmptyObservations   int
}

// Result describes a finished job.
type Result struct {
	OutputPath string
	Cues       int
	Stats      Stats
	Info       frames.VideoInfo
	Elapsed    time.Duration
	// Issues lists validation problems found in the written file.
	Issues []string
}

// Options configures an Extractor.
type Options struct {
	Cadence       float64
	Filter        recognition.Filter
	Segmentation  cues.Config
	OutputDirName string
}

// Extractor processes single videos. It is safe for concurrent use when the
// recognizer is.
type Extractor struct {
	opener     frames.Opener
	recognizer recognition.Recognizer
	writer     *subtitles.Writer
	opts       Options
	logger     *slog.Logger
}

// New constructs an Extractor.
func New(opener frames.Opener, recognizer recognition.Recognizer, opts Options, logger *slog.Logger) *Extractor {
	logger = logging.NewComponentLogger(logger, "extract")
	return &Extractor{
		opener:     opener,
		recognizer: recognizer,
		writer:     subtitles.NewWriter(logger),
		opts:       opts,
		logger:     logger,
	}
}

// OutputPathFor returns where job's subtitles go before collision suffixes.
func (e *Extractor) OutputPathFor(job Job) string {
	if job.OutputPath != "" {
		return job.OutputPath
	}
	return subtitles.DefaultOutputPath(job.Video, e.opts.OutputDirName)
}

// Run processes one video. progress receives the job's completion percentage
// (0-99) as frames are decoded; the caller owns the terminal 100. A
// cancelled ctx ends the job with services.ErrInterrupted and nothing is
// written. An empty cue sequence returns services.ErrEmptyResult.
func (e *Extractor) Run(ctx context.Context, job Job, progress func(int)) (result Result, err error) {
	started := time.Now()
	defer func() { result.Elapsed = time.Since(started) }()
	logger := logging.WithContext(ctx, e.logger)

	if job.Region != nil {
		if err := job.Region.Validate(); err != nil {
			return result, err
		}
	}
	if err := ctx.Err(); err != nil {
		return result, services.Interrupted("extract", err)
	}

	src, err := e.opener.Open(ctx, job.Video)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, services.Interrupted("decode", ctxErr)
		}
		if !errors.Is(err, services.ErrSourceUnavailable) {
			err = services.Wrap(services.ErrSourceUnavailable, "decode", "open video", job.Video, err)
		}
		return result, err
	}
	defer src.Close()

	info := src.Info()
	result.Info = info
	sampler := frames.NewSampler(src, job.Region, e.opts.Cadence)
	adapter := recognition.NewAdapter(e.recognizer, e.opts.Filter, e.logger)
	segmenter := cues.NewSegmenter(e.opts.Segmentation)

	logger.Debug("video opened",
		logging.Float64("fps", info.FPS),
		logging.Int("frames", info.FrameCount),
		logging.Int("width", info.Width),
		logging.Int("height", info.Height),
		logging.Int("stride", sampler.Stride()),
	)

	lastPct := -1
	onDecode := func(decoded int) {
		if progress == nil || info.FrameCount <= 0 {
			return
		}
		pct := min(decoded*100/info.FrameCount, 99)
		if pct > lastPct {
			lastPct = pct
			progress(pct)
		}
	}

	for {
		sample, err := sampler.Next(ctx, onDecode)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Stats.FramesDecoded = sampler.Decoded()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, services.Interrupted("decode", ctxErr)
			}
			return result, err
		}
		result.Stats.FramesInspected++

		obs, err := adapter.Observe(ctx, sample.Timestamp, sample.Image)
		if err != nil {
			result.Stats.FramesDecoded = sampler.Decoded()
			return result, err
		}
		if obs.Failed {
			result.Stats.RecognitionFailures++
		}
		if obs.Text == "" {
			result.Stats.EmptyObservations++
		}
		if cue, ok := segmenter.Feed(obs); ok {
			logCue(logger, cue)
		}
	}
	result.Stats.FramesDecoded = sampler.Decoded()

	if err := ctx.Err(); err != nil {
		return result, services.Interrupted("extract", err)
	}
	if cue, ok := segmenter.Flush(); ok {
		logCue(logger, cue)
	}
	list := segmenter.Cues()
	result.Cues = len(list)

	written, err := e.writer.Write(ctx, e.OutputPathFor(job), list)
	if err != nil {
		return result, err
	}
	result.OutputPath = written

	if issues := subtitles.ValidateSRTContent(written, info.Duration); len(issues) > 0 {
		result.Issues = issues
		logging.WarnWithContext(logger, "subtitle validation found issues", "subtitle_validation_issues",
			logging.String("path", written),
			logging.String("issues", fmt.Sprint(issues)),
			logging.String(logging.FieldErrorHint, "review the region and recognition settings"),
			logging.String(logging.FieldImpact, "subtitle file may contain timing errors"),
		)
	}
	return result, nil
}

func logCue(logger *slog.Logger, cue cues.Cue) {
	logger.Debug("cue emitted",
		logging.Int("index", cue.Index),
		logging.String("start", cues.FormatTimestamp(cue.Start)),
		logging.String("end", cues.FormatTimestamp(cue.End)),
		logging.String("text", cue.Text),
	)
}
