package batch

import (
	"time"

	"hardsub/internal/extract"
	"hardsub/internal/services"
)

// JobResult is the terminal record of one job.
type JobResult struct {
	// Index is the 1-based position of the job in the run.
	Index    int
	Job      extract.Job
	Status   services.Status
	Result   extract.Result
	Err      error
	Started  time.Time
	Finished time.Time
}

// Duration is the wall time the job ran; zero for skipped jobs.
func (r JobResult) Duration() time.Duration {
	if r.Started.IsZero() || r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Report summarises a run.
type Report struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Jobs      []JobResult
	Groups    int
	Progress  int
	Cancelled bool
}

// Counts tallies job statuses.
func (r Report) Counts() map[services.Status]int {
	counts := make(map[services.Status]int, 5)
	for _, job := range r.Jobs {
		counts[job.Status]++
	}
	return counts
}

// Cues returns the total number of cues written.
func (r Report) Cues() int {
	total := 0
	for _, job := range r.Jobs {
		if job.Status == services.StatusSucceeded {
			total += job.Result.Cues
		}
	}
	return total
}
