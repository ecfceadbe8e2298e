package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hardsub/internal/config"
)

const userAgent = "hardsub/0.1"

// RunSummary is the outcome of one extraction run.
type RunSummary struct {
	RunID       string
	Videos      int
	Succeeded   int
	Empty       int
	Failed      int
	Interrupted int
	Skipped     int
	Cues        int
	Elapsed     time.Duration
	Cancelled   bool
}

// Notifier sends user-facing notices.
type Notifier interface {
	RunCompleted(ctx context.Context, summary RunSummary) error
	Test(ctx context.Context) error
}

// NewNotifier builds an ntfy notifier, or a no-op one when the topic is empty.
func NewNotifier(cfg config.Notifications) Notifier {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopNotifier{}
	}
	return &ntfyNotifier{
		endpoint: topic,
		client:   &http.Client{Timeout: cfg.RequestTimeout()},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyNotifier struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyNotifier) RunCompleted(ctx context.Context, summary RunSummary) error {
	return n.send(ctx, runMessage(summary))
}

func (n *ntfyNotifier) Test(ctx context.Context) error {
	return n.send(ctx, message{
		title:    "hardsub - Test",
		body:     "Notification system test",
		tags:     []string{"hardsub", "test"},
		priority: "low",
	})
}

func runMessage(s RunSummary) message {
	elapsed := s.Elapsed.Round(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d videos subtitled, %d cues in %s", s.Succeeded, s.Videos, s.Cues, elapsed)
	for _, part := range []struct {
		label string
		count int
	}{
		{"empty", s.Empty},
		{"failed", s.Failed},
		{"interrupted", s.Interrupted},
		{"skipped", s.Skipped},
	} {
		if part.count > 0 {
			fmt.Fprintf(&b, "\n%s: %d", part.label, part.count)
		}
	}
	if s.RunID != "" {
		fmt.Fprintf(&b, "\nrun %s", s.RunID)
	}

	msg := message{
		title: "hardsub - Run Complete",
		body:  b.String(),
		tags:  []string{"hardsub", "run", "completed"},
	}
	switch {
	case s.Cancelled:
		msg.title = "hardsub - Run Cancelled"
		msg.tags = []string{"hardsub", "run", "cancelled"}
	case s.Failed > 0:
		msg.title = "hardsub - Run Complete (with errors)"
		msg.tags = []string{"hardsub", "run", "failed"}
		msg.priority = "high"
	}
	return msg
}

func (n *ntfyNotifier) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", msg.title)
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopNotifier struct{}

func (noopNotifier) RunCompleted(context.Context, RunSummary) error { return nil }
func (noopNotifier) Test(context.Context) error                     { return nil }
