package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"hardsub/internal/logging"
	"hardsub/internal/services"
)

type message struct {
	kind   EventKind
	job    int
	pct    int
	level  slog.Level
	text   string
	result *JobResult
}

// bus is the single-writer aggregator. Workers send; loop owns progress and
// is the only goroutine that calls the observer. send never blocks, so an
// observer that logs back into the run cannot stall the loop.
type bus struct {
	runID    string
	observer Observer
	wake     chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	pending []message
	closed  bool

	progress []int
}

func newBus(runID string, jobs int, observer Observer) *bus {
	if observer == nil {
		observer = Observers(nil)
	}
	return &bus{
		runID:    runID,
		observer: observer,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		progress: make([]int, jobs),
	}
}

func (b *bus) send(m message) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.pending = append(b.pending, m)
	b.mu.Unlock()
	b.signal()
}

func (b *bus) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// close stops accepting messages and waits for the loop to drain.
func (b *bus) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.signal()
	<-b.done
}

func (b *bus) loop() {
	defer close(b.done)
	for {
		b.mu.Lock()
		batch := b.pending
		b.pending = nil
		closed := b.closed
		b.mu.Unlock()

		if len(batch) == 0 {
			if closed {
				return
			}
			<-b.wake
			continue
		}
		for _, m := range batch {
			b.handle(m)
		}
	}
}

func (b *bus) handle(m message) {
	switch m.kind {
	case EventProgress:
		b.update(m.job, m.pct)
	case EventJobFinished:
		switch m.result.Status {
		case services.StatusSucceeded, services.StatusEmpty, services.StatusFailed:
			b.update(m.job, 100)
		}
		b.emit(Event{Kind: EventJobFinished, Job: m.job, Overall: b.overall(), Result: m.result})
	case EventLog:
		b.emit(Event{Kind: EventLog, Job: m.job, Level: m.level, Message: m.text, Overall: b.overall()})
	}
}

func (b *bus) update(job, pct int) {
	idx := job - 1
	if idx < 0 || idx >= len(b.progress) {
		return
	}
	pct = min(max(pct, 0), 100)
	if pct < b.progress[idx] {
		return
	}
	b.progress[idx] = pct
	b.emit(Event{Kind: EventProgress, Job: job, JobProgress: pct, Overall: b.overall()})
}

// overall must only be called from loop or after close.
func (b *bus) overall() int {
	if len(b.progress) == 0 {
		return 0
	}
	sum := 0
	for _, p := range b.progress {
		sum += p
	}
	return sum / len(b.progress)
}

func (b *bus) emit(e Event) {
	e.RunID = b.runID
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.observer.Observe(e)
}

// handler returns an slog.Handler that turns log records at or above level
// into EventLog messages.
func (b *bus) handler(level slog.Level) slog.Handler {
	return &busHandler{bus: b, level: level}
}

type busHandler struct {
	bus    *bus
	level  slog.Level
	attrs  []slog.Attr
	prefix string
}

func (h *busHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *busHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Message)
	job := 0
	write := func(prefix string, a slog.Attr) {
		a.Value = a.Value.Resolve()
		switch a.Key {
		case logging.FieldJobIndex:
			if a.Value.Kind() == slog.KindInt64 {
				job = int(a.Value.Int64())
			}
			return
		case logging.FieldComponent, logging.FieldRunID, logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact:
			return
		}
		fmt.Fprintf(&sb, " %s%s=%v", prefix, a.Key, a.Value.Any())
	}
	for _, a := range h.attrs {
		write("", a)
	}
	record.Attrs(func(a slog.Attr) bool {
		write(h.prefix, a)
		return true
	})
	h.bus.send(message{kind: EventLog, job: job, level: record.Level, text: sb.String()})
	return nil
}

func (h *busHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *busHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}
