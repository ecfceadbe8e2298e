package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hardsub/internal/cues"
	"hardsub/internal/extract"
	"hardsub/internal/logging"
	"hardsub/internal/recognition"
	"hardsub/internal/services"
	"hardsub/internal/testsupport"
)

type runnerFunc func(ctx context.Context, job extract.Job, progress func(int)) (extract.Result, error)

func (f runnerFunc) Run(ctx context.Context, job extract.Job, progress func(int)) (extract.Result, error) {
	return f(ctx, job, progress)
}

type recorder struct {
	events []Event
}

func (r *recorder) Observe(e Event) { r.events = append(r.events, e) }

func (r *recorder) ofKind(kind EventKind) []Event {
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func makeJobs(n int) []extract.Job {
	jobs := make([]extract.Job, n)
	for i := range jobs {
		jobs[i] = extract.Job{Video: fmt.Sprintf("/videos/%02d.mp4", i+1)}
	}
	return jobs
}

func jobNumber(job extract.Job) int {
	var n int
	_, _ = fmt.Sscanf(job.Video, "/videos/%02d.mp4", &n)
	return n
}

func TestGroups(t *testing.T) {
	for n := 0; n <= 12; n++ {
		groups := Groups(n, 5)
		if want := (n + 4) / 5; len(groups) != want {
			t.Fatalf("n=%d: %d groups, want %d", n, len(groups), want)
		}
		next := 0
		for _, g := range groups {
			if g.Start != next || g.Size() < 1 || g.Size() > 5 {
				t.Fatalf("n=%d: bad group %+v", n, g)
			}
			next = g.End
		}
		if next != n {
			t.Fatalf("n=%d: groups cover %d jobs", n, next)
		}
	}
	if got := Groups(3, 0); len(got) != 3 {
		t.Fatalf("size 0 should behave as 1, got %+v", got)
	}
}

func TestRunAggregatesProgressToHundred(t *testing.T) {
	rec := &recorder{}
	runner := runnerFunc(func(_ context.Context, _ extract.Job, progress func(int)) (extract.Result, error) {
		progress(25)
		progress(75)
		return extract.Result{Cues: 3}, nil
	})
	report := New(runner, Options{GroupSize: 5, Observer: rec}).Run(context.Background(), makeJobs(7))

	if report.Groups != 2 {
		t.Fatalf("groups = %d, want 2", report.Groups)
	}
	if report.Progress != 100 {
		t.Fatalf("final progress = %d, want 100", report.Progress)
	}
	progress := rec.ofKind(EventProgress)
	if len(progress) == 0 || progress[len(progress)-1].Overall != 100 {
		t.Fatalf("last progress event = %+v", progress[len(progress)-1])
	}
	for i := 1; i < len(progress); i++ {
		if progress[i].Overall < progress[i-1].Overall {
			t.Fatalf("overall progress went backwards: %d -> %d", progress[i-1].Overall, progress[i].Overall)
		}
	}
	if got := report.Counts()[services.StatusSucceeded]; got != 7 {
		t.Fatalf("succeeded = %d", got)
	}
	if report.Cues() != 21 {
		t.Fatalf("cues = %d", report.Cues())
	}
	if report.RunID == "" {
		t.Fatal("missing run id")
	}
	for _, e := range rec.events {
		if e.RunID != report.RunID {
			t.Fatalf("event %+v has foreign run id", e)
		}
	}
}

func TestRunGroupsAreBarriers(t *testing.T) {
	var active, peak atomic.Int32
	var mu sync.Mutex
	started := map[int]time.Time{}
	finished := map[int]time.Time{}

	runner := runnerFunc(func(_ context.Context, job extract.Job, _ func(int)) (extract.Result, error) {
		n := jobNumber(job)
		cur := active.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		mu.Lock()
		started[n] = time.Now()
		mu.Unlock()
		time.Sleep(time.Duration(5*n) * time.Millisecond)
		mu.Lock()
		finished[n] = time.Now()
		mu.Unlock()
		active.Add(-1)
		return extract.Result{}, nil
	})
	New(runner, Options{GroupSize: 2}).Run(context.Background(), makeJobs(5))

	if peak.Load() != 2 {
		t.Fatalf("peak concurrency = %d, want 2", peak.Load())
	}
	for _, pair := range [][3]int{{3, 1, 2}, {5, 3, 4}} {
		next, a, b := pair[0], pair[1], pair[2]
		if started[next].Before(finished[a]) || started[next].Before(finished[b]) {
			t.Fatalf("job %d started before group of %d and %d finished", next, a, b)
		}
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	runner := runnerFunc(func(_ context.Context, job extract.Job, progress func(int)) (extract.Result, error) {
		switch jobNumber(job) {
		case 2:
			progress(40)
			return extract.Result{}, services.Wrap(services.ErrSourceUnavailable, "decode", "open video", job.Video, nil)
		case 3:
			panic("decoder exploded")
		case 4:
			return extract.Result{}, services.Wrap(services.ErrEmptyResult, "write", "", "no cues", nil)
		}
		return extract.Result{Cues: 1}, nil
	})
	rec := &recorder{}
	report := New(runner, Options{GroupSize: 2, Observer: rec}).Run(context.Background(), makeJobs(6))

	want := []services.Status{
		services.StatusSucceeded, services.StatusFailed, services.StatusFailed,
		services.StatusEmpty, services.StatusSucceeded, services.StatusSucceeded,
	}
	for i, jr := range report.Jobs {
		if jr.Status != want[i] {
			t.Errorf("job %d status = %s, want %s (err %v)", i+1, jr.Status, want[i], jr.Err)
		}
	}
	if !strings.Contains(report.Jobs[2].Err.Error(), "panic") {
		t.Fatalf("panic not captured: %v", report.Jobs[2].Err)
	}
	if report.Progress != 100 {
		t.Fatalf("terminal failures count as complete; progress = %d", report.Progress)
	}
	if n := len(rec.ofKind(EventJobFinished)); n != 6 {
		t.Fatalf("job finished events = %d, want 6", n)
	}
}

func TestRunCancellationStopsNewGroups(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := runnerFunc(func(ctx context.Context, job extract.Job, progress func(int)) (extract.Result, error) {
		switch jobNumber(job) {
		case 1:
			progress(30)
			<-ctx.Done()
			return extract.Result{}, services.Interrupted("extract", ctx.Err())
		case 2:
			cancel()
			return extract.Result{}, services.Interrupted("extract", context.Canceled)
		default:
			return extract.Result{Cues: 2}, nil
		}
	})
	rec := &recorder{}
	report := New(runner, Options{GroupSize: 3, Observer: rec}).Run(ctx, makeJobs(8))

	want := []services.Status{
		services.StatusInterrupted, services.StatusInterrupted, services.StatusSucceeded,
		services.StatusSkipped, services.StatusSkipped, services.StatusSkipped,
		services.StatusSkipped, services.StatusSkipped,
	}
	for i, jr := range report.Jobs {
		if jr.Status != want[i] {
			t.Errorf("job %d status = %s, want %s", i+1, jr.Status, want[i])
		}
	}
	if !report.Cancelled {
		t.Fatal("report should be marked cancelled")
	}
	// 30 (interrupted keeps its value) + 0 + 100, over 8 jobs.
	if report.Progress != 16 {
		t.Fatalf("progress = %d, want 16", report.Progress)
	}
	if n := len(rec.ofKind(EventJobFinished)); n != 3 {
		t.Fatalf("job finished events = %d, want 3", n)
	}
}

func TestRunPerJobProgressIsMonotonic(t *testing.T) {
	runner := runnerFunc(func(_ context.Context, _ extract.Job, progress func(int)) (extract.Result, error) {
		progress(10)
		progress(5)
		progress(30)
		return extract.Result{}, services.Interrupted("extract", nil)
	})
	rec := &recorder{}
	report := New(runner, Options{Observer: rec}).Run(context.Background(), makeJobs(1))

	var seen []int
	for _, e := range rec.ofKind(EventProgress) {
		seen = append(seen, e.JobProgress)
	}
	if fmt.Sprint(seen) != "[10 30]" {
		t.Fatalf("job progress events = %v, want [10 30]", seen)
	}
	if report.Progress != 30 {
		t.Fatalf("interrupted job should keep its progress, got %d", report.Progress)
	}
}

func TestRunEmitsOneTerminalLinePerStartedJob(t *testing.T) {
	runner := runnerFunc(func(_ context.Context, job extract.Job, _ func(int)) (extract.Result, error) {
		if jobNumber(job)%2 == 0 {
			return extract.Result{}, errors.New("boom")
		}
		return extract.Result{}, nil
	})
	rec := &recorder{}
	New(runner, Options{GroupSize: 2, Observer: rec, Logger: logging.NewNop()}).Run(context.Background(), makeJobs(5))

	terminal := map[int]int{}
	for _, e := range rec.ofKind(EventLog) {
		if strings.HasPrefix(e.Message, "job succeeded") || strings.HasPrefix(e.Message, "job failed") {
			terminal[e.Job]++
		}
	}
	for job := 1; job <= 5; job++ {
		if terminal[job] != 1 {
			t.Fatalf("job %d has %d terminal lines (%v)", job, terminal[job], terminal)
		}
	}
	var groupLines int
	for _, e := range rec.ofKind(EventLog) {
		if strings.HasPrefix(e.Message, "group ") {
			groupLines++
		}
	}
	if groupLines != 3 {
		t.Fatalf("group summary lines = %d, want 3", groupLines)
	}
}

func TestRunStateDoesNotCarryOver(t *testing.T) {
	ids := []string{"run-a", "run-b"}
	calls := 0
	runner := runnerFunc(func(_ context.Context, job extract.Job, progress func(int)) (extract.Result, error) {
		progress(50)
		if calls++; calls > 2 {
			return extract.Result{}, services.Interrupted("extract", nil)
		}
		return extract.Result{}, nil
	})
	s := New(runner, Options{GroupSize: 1, NewRunID: func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}})
	first := s.Run(context.Background(), makeJobs(2))
	second := s.Run(context.Background(), makeJobs(2))
	if first.RunID != "run-a" || second.RunID != "run-b" {
		t.Fatalf("run ids = %q %q", first.RunID, second.RunID)
	}
	if first.Progress != 100 || second.Progress != 50 {
		t.Fatalf("progress = %d then %d, want 100 then 50", first.Progress, second.Progress)
	}
}

func TestChannelObserverDropsWhenFull(t *testing.T) {
	obs := NewChannelObserver(2)
	for i := range 5 {
		obs.Observe(Event{Kind: EventProgress, Overall: i})
	}
	obs.Close()
	var got []int
	for e := range obs.Events() {
		got = append(got, e.Overall)
	}
	if fmt.Sprint(got) != "[0 1]" || obs.Dropped() != 3 {
		t.Fatalf("got %v dropped %d", got, obs.Dropped())
	}
}

func TestRunWithExtractor(t *testing.T) {
	dir := t.TempDir()
	media := testsupport.NewFakeMedia()
	var jobs []extract.Job
	for i := range 6 {
		video := testsupport.WriteVideo(t, dir, fmt.Sprintf("ep%d.mp4", i+1))
		if i == 4 {
			video = dir + "/missing.mp4"
		} else {
			media.Add(video, testsupport.Script{
				FPS:    20,
				Frames: 60,
				TextAt: testsupport.Timeline(20, testsupport.Span{From: 0.5, To: 2.5, Text: fmt.Sprintf("line %d", i+1)}),
			})
		}
		jobs = append(jobs, extract.Job{Video: video})
	}
	ex := extract.New(media, recognition.Serialized(media), extract.Options{
		Cadence:      10,
		Filter:       recognition.DefaultFilter(),
		Segmentation: cues.DefaultConfig(),
	}, logging.NewNop())

	events := NewChannelObserver(4096)
	report := New(ex, Options{GroupSize: 5, Observer: events}).Run(context.Background(), jobs)
	events.Close()

	counts := report.Counts()
	if counts[services.StatusSucceeded] != 5 || counts[services.StatusFailed] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	if report.Progress != 100 {
		t.Fatalf("progress = %d", report.Progress)
	}
	for _, jr := range report.Jobs {
		if jr.Status != services.StatusSucceeded {
			continue
		}
		if _, err := os.Stat(jr.Result.OutputPath); err != nil {
			t.Fatalf("missing output for %s: %v", jr.Job.Video, err)
		}
	}
	var last Event
	for e := range events.Events() {
		if e.Kind == EventProgress {
			last = e
		}
	}
	if last.Overall != 100 {
		t.Fatalf("last progress event = %+v", last)
	}
}

func TestBusObserverMayLogIntoRun(t *testing.T) {
	b := newBus("run-1", 1, nil)
	logger := slog.New(b.handler(slog.LevelInfo))
	var logged atomic.Int32
	b.observer = ObserverFunc(func(e Event) {
		switch e.Kind {
		case EventProgress:
			logger.Info("progress seen", slog.Int("pct", e.JobProgress))
		case EventLog:
			logged.Add(1)
		}
	})
	go b.loop()

	for pct := 1; pct <= 100; pct++ {
		b.send(message{kind: EventProgress, job: 1, pct: pct})
	}
	deadline := time.Now().Add(5 * time.Second)
	for logged.Load() < 100 {
		if time.Now().After(deadline) {
			t.Fatalf("observer saw %d of 100 log events", logged.Load())
		}
		time.Sleep(time.Millisecond)
	}
	b.close()
	if got := b.overall(); got != 100 {
		t.Fatalf("overall = %d, want 100", got)
	}
}
