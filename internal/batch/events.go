package batch

import (
	"log/slog"
	"time"
)

// EventKind distinguishes the event streams a run produces.
type EventKind int

const (
	// EventLog carries a human-readable status line.
	EventLog EventKind = iota
	// EventProgress carries the overall percentage after a job update.
	EventProgress
	// EventJobFinished carries a job's terminal result.
	EventJobFinished
)

func (k EventKind) String() string {
	switch k {
	case EventLog:
		return "log"
	case EventProgress:
		return "progress"
	case EventJobFinished:
		return "job_finished"
	default:
		return "unknown"
	}
}

// Event is an immutable notification about a run.
type Event struct {
	Kind  EventKind
	Time  time.Time
	RunID string
	// Job is the 1-based job position, 0 for run-level events.
	Job int

	Level   slog.Level
	Message string

	// Overall is the truncated mean of all job percentages.
	Overall int
	// JobProgress is the job's own percentage for EventProgress.
	JobProgress int

	Result *JobResult
}

// Observer receives run events. Observe is always called from a single
// goroutine per run and must not block for long. Records an observer logs
// into the run come back as EventLog events, so it must not log on every
// EventLog.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) Observe(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(e)
		}
	}
}

// ChannelObserver forwards events to a buffered channel without blocking.
// Events that do not fit are dropped and counted.
type ChannelObserver struct {
	ch      chan Event
	dropped int
}

// NewChannelObserver creates a ChannelObserver with the given buffer size.
func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{ch: make(chan Event, max(buffer, 1))}
}

// Events returns the receive side of the channel.
func (c *ChannelObserver) Events() <-chan Event {
	return c.ch
}

// Observe implements Observer.
func (c *ChannelObserver) Observe(e Event) {
	select {
	case c.ch <- e:
	default:
		c.dropped++
	}
}

// Dropped reports how many events did not fit. Only meaningful once the run
// that feeds this observer has returned.
func (c *ChannelObserver) Dropped() int {
	return c.dropped
}

// Close closes the channel. Call it after the run has returned.
func (c *ChannelObserver) Close() {
	close(c.ch)
}
