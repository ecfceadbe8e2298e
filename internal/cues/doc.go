// Package cues turns an ordered stream of per-frame text observations into a
// sequence of timed, non-overlapping subtitle cues.
//
// The Segmenter is a two-state machine (Idle, Open). Brief recognition
// dropouts are absorbed by an empty-run debounce, single-frame misreads are
// dropped by a minimum duration, and cues whose text never changes are capped
// at a maximum duration. Flush must be called at end of stream; it always
// emits a still-open candidate.
package cues
