// Package services defines shared utilities consumed by the extraction
// pipeline, the batch scheduler and the recognition engines.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, job indexes, and video paths for
//     logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent job statuses (failed, interrupted, empty).
//
// Use these helpers when wiring new pipeline steps so operational behaviour
// (error classification, observability) stays uniform across the batch.
package services
