package recognition

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"time"

	"hardsub/internal/logging"
	"hardsub/internal/services"
)

// Observation is the filtered text recognised in one inspected frame. Empty
// Text means nothing usable was found.
type Observation struct {
	Timestamp  time.Duration
	Text       string
	Confidence float64
	// Failed is set when the recognizer returned an error for this frame.
	Failed bool
}

// Filter holds the acceptance rules applied to raw detections.
type Filter struct {
	// Threshold drops detections whose confidence is at or below it.
	Threshold float64
	// MinLength drops detections shorter than this many characters.
	MinLength int
	// MaxLength empties the whole frame when the joined text is longer.
	MaxLength int
}

// DefaultFilter returns threshold 0.8, min length 2, max length 50.
func DefaultFilter() Filter {
	return Filter{Threshold: 0.8, MinLength: 2, MaxLength: 50}
}

// Apply joins the accepted detections in order and returns the frame text and
// the mean confidence of the accepted detections.
func (f Filter) Apply(detections []Detection) (string, float64) {
	parts := make([]string, 0, len(detections))
	var confSum float64
	for _, det := range detections {
		if det.Confidence <= f.Threshold {
			continue
		}
		text := NormalizeText(det.Text)
		if text == "" || TextLength(text) < f.MinLength {
			continue
		}
		parts = append(parts, text)
		confSum += det.Confidence
	}
	if len(parts) == 0 {
		return "", 0
	}
	joined := strings.Join(parts, " ")
	if f.MaxLength > 0 && TextLength(joined) > f.MaxLength {
		return "", 0
	}
	return joined, confSum / float64(len(parts))
}

// Adapter wraps a Recognizer with the per-frame filtering contract.
type Adapter struct {
	recognizer Recognizer
	filter     Filter
	logger     *slog.Logger
}

// NewAdapter constructs an Adapter.
func NewAdapter(recognizer Recognizer, filter Filter, logger *slog.Logger) *Adapter {
	return &Adapter{
		recognizer: recognizer,
		filter:     filter,
		logger:     logging.NewComponentLogger(logger, "recognition"),
	}
}

// Observe performs one recognition call for the frame at timestamp. A
// recognizer failure yields an empty observation with Failed set; the only
// error returned is an interruption when ctx is done.
func (a *Adapter) Observe(ctx context.Context, timestamp time.Duration, img image.Image) (Observation, error) {
	obs := Observation{Timestamp: timestamp}
	detections, err := a.recognizer.Recognize(ctx, img)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return obs, services.Interrupted("recognition", ctxErr)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return obs, services.Interrupted("recognition", err)
		}
		obs.Failed = true
		logging.WithContext(ctx, a.logger).Debug("frame recognition failed; treating as empty",
			logging.String(logging.FieldEventType, "recognition_frame_failed"),
			logging.Duration("timestamp", timestamp),
			logging.Error(err),
		)
		return obs, nil
	}
	obs.Text, obs.Confidence = a.filter.Apply(detections)
	return obs, nil
}
