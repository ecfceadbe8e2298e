package history

import "time"

// Status values mirror services.Status so the ledger stays readable without
// importing the batch layer.
const (
	StatusSucceeded   = "succeeded"
	StatusEmpty       = "empty"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
	StatusSkipped     = "skipped"
)

// Run is one recorded batch invocation.
type Run struct {
	ID        string
	Started   time.Time
	Finished  time.Time
	Cancelled bool
	// Progress is the overall percentage the run ended at.
	Progress  int
	GroupSize int
	Jobs      []JobRecord
}

// JobRecord is the terminal state of one video in a run.
type JobRecord struct {
	Index    int
	Video    string
	Status   string
	Output   string
	Cues     int
	Frames   int
	Duration time.Duration
	Error    string
}

// RunSummary is a run with per-status job counts instead of job rows.
type RunSummary struct {
	ID        string
	Started   time.Time
	Finished  time.Time
	Cancelled bool
	Progress  int
	Jobs      int
	Cues      int
	Counts    map[string]int
}

// Elapsed returns the run wall time.
func (r RunSummary) Elapsed() time.Duration {
	if r.Started.IsZero() || r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
