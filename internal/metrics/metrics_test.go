package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"hardsub/internal/batch"
	"hardsub/internal/extract"
	"hardsub/internal/services"
)

func finished(status services.Status, cues, inspected, failures int) batch.Event {
	start := time.Now().Add(-3 * time.Second)
	return batch.Event{
		Kind:    batch.EventJobFinished,
		Overall: 50,
		Result: &batch.JobResult{
			Status:   status,
			Started:  start,
			Finished: start.Add(2 * time.Second),
			Result: extract.Result{
				Cues: cues,
				Stats: extract.Stats{
					FramesInspected:     inspected,
					RecognitionFailures: failures,
				},
			},
		},
	}
}

func TestObserveCountsFinishedJobs(t *testing.T) {
	m := New()
	m.Observe(batch.Event{Kind: batch.EventProgress, Overall: 20})
	if got := testutil.ToFloat64(m.BatchProgress); got != 20 {
		t.Fatalf("progress gauge = %v", got)
	}

	m.Observe(finished(services.StatusSucceeded, 7, 100, 2))
	m.Observe(finished(services.StatusSucceeded, 3, 50, 0))
	m.Observe(finished(services.StatusFailed, 9, 10, 1))
	m.Observe(batch.Event{Kind: batch.EventLog, Message: "ignored"})

	if got := testutil.ToFloat64(m.JobsTotal.WithLabelValues("succeeded")); got != 2 {
		t.Fatalf("succeeded jobs = %v", got)
	}
	if got := testutil.ToFloat64(m.JobsTotal.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed jobs = %v", got)
	}
	if got := testutil.ToFloat64(m.CuesTotal); got != 10 {
		t.Fatalf("cues = %v, failed jobs must not count", got)
	}
	if got := testutil.ToFloat64(m.FramesInspected); got != 160 {
		t.Fatalf("frames inspected = %v", got)
	}
	if got := testutil.ToFloat64(m.RecognitionFailures); got != 3 {
		t.Fatalf("recognition failures = %v", got)
	}
	if got := testutil.CollectAndCount(m.JobDuration); got != 2 {
		t.Fatalf("duration series = %d, want 2", got)
	}
}

func TestRecordRun(t *testing.T) {
	m := New()
	m.RecordRun(batch.Report{Progress: 100})
	m.RecordRun(batch.Report{Progress: 40, Cancelled: true})

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("completed")); got != 1 {
		t.Fatalf("completed runs = %v", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("cancelled")); got != 1 {
		t.Fatalf("cancelled runs = %v", got)
	}
	if got := testutil.ToFloat64(m.BatchProgress); got != 40 {
		t.Fatalf("progress gauge = %v", got)
	}
}

func TestServeExposesRegistry(t *testing.T) {
	m := New()
	m.CuesTotal.Add(4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv, err := Serve(ctx, "127.0.0.1:0", m, nil)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(body), "hardsub_cues_total 4") {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}

	resp, err = http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := http.Get("http://" + srv.Addr() + "/healthz"); err == nil {
		t.Fatal("expected server to be stopped")
	}
}

func TestServeReportsBindErrors(t *testing.T) {
	m := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first, err := Serve(ctx, "127.0.0.1:0", m, nil)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	defer first.Shutdown(context.Background())

	if _, err := Serve(ctx, first.Addr(), m, nil); err == nil {
		t.Fatal("expected bind error for address in use")
	} else if errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected error: %v", err)
	}
}
