// Package notifications publishes run summaries to ntfy.
//
// NewNotifier returns a no-op implementation when no topic is configured, so
// callers notify unconditionally. Messages carry the run id, per-status video
// counts and elapsed time; runs with failures are sent at high priority.
package notifications
