// Package compactor implements compaction and vacuum (spec §4.2-§4.4): merging
// pending mutation blobs into a collection's snapshot, rewriting that snapshot to
// drop dead and duplicate records, and rebuilding the optional byte-offset index
// and bloom filter. Both operations run under the lease lock (package lock).
package compactor
