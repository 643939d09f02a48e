package blobstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Keys names the at-most-six blobs a collection C can own (spec §2).
type Keys struct {
	Collection string
}

// NewKeys returns the key helper for the given collection name.
func NewKeys(collection string) Keys {
	return Keys{Collection: collection}
}

// Snapshot is the compacted NDJSON blob key: C.jsonl.
func (k Keys) Snapshot() string { return k.Collection + ".jsonl" }

// SnapshotTmp is vacuum's scratch file key: C.jsonl.tmp.
func (k Keys) SnapshotTmp() string { return k.Collection + ".jsonl.tmp" }

// Lock is the distributed lease lock key: C.lock.
func (k Keys) Lock() string { return k.Collection + ".lock" }

// Index is the byte-offset index key: C.idx.
func (k Keys) Index() string { return k.Collection + ".idx" }

// Bloom is the bloom filter key: C.bloom.
func (k Keys) Bloom() string { return k.Collection + ".bloom" }

// MutationPrefix is the common prefix shared by all pending mutation blobs of C,
// i.e. "C.mutation.". list(prefix=MutationPrefix()) must return exactly C's mutations.
func (k Keys) MutationPrefix() string { return k.Collection + ".mutation." }

// Mutation formats a single mutation blob key: C.mutation.<ts>-<uuid>.
func (k Keys) Mutation(ts int64, id string) string {
	return fmt.Sprintf("%s%d-%s", k.MutationPrefix(), ts, id)
}

// ParseMutationTS extracts the millisecond timestamp embedded in a mutation key,
// used by the read path to apply the time-travel bound `at` without fetching the
// blob body (spec §4.6 step 3).
func ParseMutationTS(key, prefix string) (int64, bool) {
	rest := strings.TrimPrefix(key, prefix)
	if rest == key {
		return 0, false
	}
	dash := strings.IndexByte(rest, '-')
	if dash < 0 {
		return 0, false
	}
	ts, err := strconv.ParseInt(rest[:dash], 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
