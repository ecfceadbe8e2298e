// Package subtitles serializes cues to SRT files and reads them back.
//
// Format and Parse are exact inverses for cues produced by the segmenter.
// Writer places one file per video under the output directory next to the
// video, never overwriting an existing file: a numeric suffix is appended
// while an advisory lock on the directory is held, so concurrent workers
// writing videos with the same base name cannot pick the same path.
package subtitles
