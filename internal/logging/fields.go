package logging

// Structured keys shared by every hardsub log line. The logs package reads
// the same keys back when filtering run logs.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	// FieldJobIndex is the 1-based position of a video in its run.
	FieldJobIndex = "job_index"
	FieldVideo    = "video"
	FieldStage    = "stage"
	// FieldEventType names the condition behind a warning or error, such as
	// job_failed or history_open_failed.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact states what the user loses because of a warning.
	FieldImpact          = "impact"
	FieldProgressPercent = "progress_percent"
)
