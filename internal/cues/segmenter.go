package cues

import (
	"time"

	"hardsub/internal/recognition"
)

// Config holds the segmentation thresholds.
type Config struct {
	// MinDuration discards candidates shorter than this at a boundary or
	// empty-run close. Zero keeps every candidate; negative means default.
	MinDuration time.Duration
	// MaxDuration caps a cue's length when its text never changes.
	MaxDuration time.Duration
	// EmptyThreshold is the number of consecutive empty observations that
	// closes an open candidate.
	EmptyThreshold int
}

// DefaultConfig returns the standard thresholds: 0.5s, 3.0s, 6 empties.
func DefaultConfig() Config {
	return Config{
		MinDuration:    500 * time.Millisecond,
		MaxDuration:    3 * time.Second,
		EmptyThreshold: 6,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MinDuration < 0 {
		c.MinDuration = def.MinDuration
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = def.MaxDuration
	}
	if c.MaxDuration < c.MinDuration {
		c.MaxDuration = c.MinDuration
	}
	if c.EmptyThreshold <= 0 {
		c.EmptyThreshold = def.EmptyThreshold
	}
	return c
}

// State is the segmenter's machine state.
type State int

const (
	Idle State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "idle"
}

type candidate struct {
	text     string
	start    time.Duration
	lastSeen time.Duration
	empties  int
}

// Segmenter consumes one video's observations in timestamp order. It is not
// safe for concurrent use; each video owns its own Segmenter.
type Segmenter struct {
	cfg     Config
	open    *candidate
	last    time.Duration
	fed     bool
	emitted []Cue
}

// NewSegmenter builds a Segmenter. Zero-valued thresholds fall back to
// DefaultConfig.
func NewSegmenter(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg.normalized()}
}

// State reports whether a candidate is currently open.
func (s *Segmenter) State() State {
	if s.open != nil {
		return Open
	}
	return Idle
}

// Cues returns the cues emitted so far.
func (s *Segmenter) Cues() []Cue {
	out := make([]Cue, len(s.emitted))
	copy(out, s.emitted)
	return out
}

// Feed advances the machine by one observation. The observation text must
// already be filtered; empty text means nothing was recognised. When the
// observation closes a candidate that qualifies as a cue, the cue is returned
// with ok set.
func (s *Segmenter) Feed(obs recognition.Observation) (Cue, bool) {
	t := obs.Timestamp
	if s.fed && t < s.last {
		t = s.last
	}
	s.last = t
	s.fed = true

	if obs.Text == "" {
		return s.feedEmpty(t)
	}
	return s.feedText(t, obs.Text)
}

func (s *Segmenter) feedText(t time.Duration, text string) (Cue, bool) {
	if s.open == nil {
		s.open = &candidate{text: text, start: t, lastSeen: t}
		return Cue{}, false
	}
	if text == s.open.text {
		s.open.lastSeen = t
		s.open.empties = 0
		return Cue{}, false
	}

	prev := s.open
	s.open = &candidate{text: text, start: t, lastSeen: t}

	duration := t - prev.start
	if duration < s.cfg.MinDuration {
		return Cue{}, false
	}
	end := t
	if duration > s.cfg.MaxDuration {
		end = prev.start + s.cfg.MaxDuration
	}
	return s.emit(prev.start, end, prev.text), true
}

func (s *Segmenter) feedEmpty(t time.Duration) (Cue, bool) {
	if s.open == nil {
		return Cue{}, false
	}
	s.open.empties++
	if s.open.empties < s.cfg.EmptyThreshold {
		return Cue{}, false
	}

	prev := s.open
	s.open = nil
	if t-prev.start < s.cfg.MinDuration {
		return Cue{}, false
	}
	return s.emit(prev.start, min(t, prev.start+s.cfg.MaxDuration), prev.text), true
}

// Flush closes the stream. An open candidate is always emitted, ending at
// the last observed timestamp (capped at MaxDuration); the minimum duration
// does not apply.
func (s *Segmenter) Flush() (Cue, bool) {
	if s.open == nil {
		return Cue{}, false
	}
	prev := s.open
	s.open = nil
	return s.emit(prev.start, min(s.last, prev.start+s.cfg.MaxDuration), prev.text), true
}

func (s *Segmenter) emit(start, end time.Duration, text string) Cue {
	start = start.Truncate(time.Millisecond)
	end = end.Truncate(time.Millisecond)
	if n := len(s.emitted); n > 0 && start < s.emitted[n-1].End {
		start = s.emitted[n-1].End
	}
	if end <= start {
		end = start + time.Millisecond
	}
	cue := Cue{Index: len(s.emitted) + 1, Start: start, End: end, Text: text}
	s.emitted = append(s.emitted, cue)
	return cue
}
