package logging

// ProgressSampler thins per-job progress logging to one line per step
// crossed. It is not safe for concurrent use; keep one per job.
type ProgressSampler struct {
	step int
	last int
}

// NewProgressSampler reports every step percent; non-positive steps mean 10.
func NewProgressSampler(step int) *ProgressSampler {
	if step <= 0 {
		step = 10
	}
	return &ProgressSampler{step: step, last: -1}
}

// Crossed reports whether pct reached a step boundary not seen before.
// Values regress silently and 100 always counts as its own step.
func (s *ProgressSampler) Crossed(pct int) bool {
	if s == nil {
		return true
	}
	if pct < 0 {
		return false
	}
	bucket := min(pct, 100) / s.step
	if pct >= 100 {
		bucket = 100/s.step + 1
	}
	if bucket <= s.last {
		return false
	}
	s.last = bucket
	return true
}
