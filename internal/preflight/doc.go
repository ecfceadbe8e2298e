// Package preflight provides readiness checks for the directories and
// binaries hardsub needs before a batch starts.
//
// The extract command runs RunAll and refuses to start when a check fails,
// so a missing decoder surfaces once instead of as one failure per video.
// The doctor command prints the same results alongside dependency versions.
package preflight
