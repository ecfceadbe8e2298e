package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"hardsub/internal/batch"
)

// progressView draws the overall bar and prints run events above it. It
// consumes events on its own goroutine; the scheduler never waits on it.
type progressView struct {
	out    io.Writer
	bar    *progressbar.ProgressBar
	events *batch.ChannelObserver
	done   chan struct{}
}

func newProgressView(out io.Writer, jobs int) *progressView {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(fmt.Sprintf("extracting %d video(s)", jobs)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
	)
	return &progressView{
		out:    out,
		bar:    bar,
		events: batch.NewChannelObserver(512),
		done:   make(chan struct{}),
	}
}

func (v *progressView) observer() batch.Observer {
	return v.events
}

func (v *progressView) start() {
	go func() {
		defer close(v.done)
		current := 0
		for e := range v.events.Events() {
			switch e.Kind {
			case batch.EventProgress, batch.EventJobFinished:
				current = e.Overall
				_ = v.bar.Set(current)
			case batch.EventLog:
				if e.Level < slog.LevelInfo {
					continue
				}
				_ = v.bar.Clear()
				fmt.Fprintln(v.out, formatEventLine(e))
				_ = v.bar.Set(current)
			}
		}
	}()
}

// finish drains outstanding events and settles the bar on the run's final
// progress. Call it after the scheduler has returned.
func (v *progressView) finish(final int) {
	v.events.Close()
	<-v.done
	_ = v.bar.Set(final)
	if final >= 100 {
		_ = v.bar.Finish()
		return
	}
	fmt.Fprintln(v.out)
}

func formatEventLine(e batch.Event) string {
	level := ""
	switch {
	case e.Level >= slog.LevelError:
		level = "ERROR "
	case e.Level >= slog.LevelWarn:
		level = "WARN "
	}
	prefix := ""
	if e.Job > 0 {
		prefix = fmt.Sprintf("[job %d] ", e.Job)
	}
	return fmt.Sprintf("%s %s%s%s", e.Time.Format("15:04:05"), level, prefix, e.Message)
}
