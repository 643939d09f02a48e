// Package lock implements the lease-based distributed lock (spec §4.1) that
// serializes compaction and vacuum across arbitrary concurrent processes using
// only the blob store's conditional-write primitives: no coordinator, no
// heartbeat, no background renewal — a lease that simply expires.
//
// Adapted from the teacher's redis/locker.go CAS-retry-once-then-fail shape,
// re-expressed against blobstore.Store.PutIfNoneMatch/PutIfMatch instead of
// Redis SETNX.
package lock
