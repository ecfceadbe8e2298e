// Package logs reads the per-invocation JSON log files written by the
// logging package.
//
// Latest finds the newest run log in a directory, Tail returns its final
// lines and optionally follows it while another process appends, and
// ParseEntry turns a JSON line into an Entry suitable for filtering by level
// or batch job and rendering as a compact console line.
package logs
