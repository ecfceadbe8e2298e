// Package batch runs extraction jobs in fixed-size groups.
//
// Jobs are split into contiguous groups that run one after another; every
// job in a group runs on its own goroutine and the next group starts only
// after the whole group has finished. Workers never touch shared state:
// progress updates and log lines travel over one channel to an aggregator
// goroutine that owns the per-job progress table and is the only caller of
// the Observer. Cancellation of the run context stops new groups from
// starting; running workers notice it after their next decode or
// recognition call and finish as interrupted.
package batch
