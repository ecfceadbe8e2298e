package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hardsub/internal/config"
	"hardsub/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func captureServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		got.body = string(body)
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte("topic closed"))
		}
	}))
	t.Cleanup(server.Close)
	return server, got
}

func TestNewNotifierReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	notifier := notifications.NewNotifier(cfg.Notifications)
	if err := notifier.RunCompleted(context.Background(), notifications.RunSummary{Videos: 1}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestRunCompletedFormatsMessages(t *testing.T) {
	tests := []struct {
		name           string
		summary        notifications.RunSummary
		expectTitle    string
		expectBody     string
		expectTags     string
		expectPriority string
	}{
		{
			name: "clean run",
			summary: notifications.RunSummary{
				RunID: "0b1c", Videos: 3, Succeeded: 3, Cues: 42, Elapsed: 95*time.Second + 400*time.Millisecond,
			},
			expectTitle: "hardsub - Run Complete",
			expectBody:  "3 of 3 videos subtitled, 42 cues in 1m35s\nrun 0b1c",
			expectTags:  "hardsub,run,completed",
		},
		{
			name: "failures",
			summary: notifications.RunSummary{
				Videos: 4, Succeeded: 2, Empty: 1, Failed: 1, Cues: 7, Elapsed: 3 * time.Second,
			},
			expectTitle:    "hardsub - Run Complete (with errors)",
			expectBody:     "2 of 4 videos subtitled, 7 cues in 3s\nempty: 1\nfailed: 1",
			expectTags:     "hardsub,run,failed",
			expectPriority: "high",
		},
		{
			name: "cancelled",
			summary: notifications.RunSummary{
				Videos: 5, Succeeded: 1, Interrupted: 2, Skipped: 2, Cancelled: true,
			},
			expectTitle: "hardsub - Run Cancelled",
			expectBody:  "1 of 5 videos subtitled, 0 cues in 0s\ninterrupted: 2\nskipped: 2",
			expectTags:  "hardsub,run,cancelled",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := captureServer(t, http.StatusOK)
			notifier := notifications.NewNotifier(config.Notifications{NtfyTopic: server.URL, RequestTimeoutSeconds: 5})
			if err := notifier.RunCompleted(context.Background(), tc.summary); err != nil {
				t.Fatalf("RunCompleted returned error: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectBody {
				t.Fatalf("expected body %q, got %q", tc.expectBody, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNotifierReportsHTTPErrors(t *testing.T) {
	server, _ := captureServer(t, http.StatusForbidden)
	notifier := notifications.NewNotifier(config.Notifications{NtfyTopic: server.URL})
	err := notifier.Test(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic closed") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestNotifierTestMessage(t *testing.T) {
	server, got := captureServer(t, http.StatusOK)
	notifier := notifications.NewNotifier(config.Notifications{NtfyTopic: server.URL})
	if err := notifier.Test(context.Background()); err != nil {
		t.Fatalf("Test returned error: %v", err)
	}
	if got.title != "hardsub - Test" || got.priority != "low" {
		t.Fatalf("unexpected test message %+v", got)
	}
}
