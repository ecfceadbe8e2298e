// Package extract runs the per-video pipeline: decode and sample frames,
// recognise the subtitle band, segment observations into cues and write the
// SRT file.
package extract
