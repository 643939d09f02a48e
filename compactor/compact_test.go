package compactor

import (
	"context"
	"errors"
	"testing"

	"github.com/yosbelms/coldbase"
	"github.com/yosbelms/coldbase/blobstore"
	"github.com/yosbelms/coldbase/blobstore/memstore"
	"github.com/yosbelms/coldbase/lock"
	"github.com/yosbelms/coldbase/stream"
)

func putMutation(t *testing.T, store blobstore.Store, keys blobstore.Keys, ts int64, records ...coldbase.Record) {
	t.Helper()
	body, err := stream.EncodeBatch(records)
	if err != nil {
		t.Fatalf("encode batch: %v", err)
	}
	key := keys.Mutation(ts, records[0].ID)
	if err := store.Put(context.Background(), key, body); err != nil {
		t.Fatalf("put mutation: %v", err)
	}
}

func readSnapshotRecords(t *testing.T, store blobstore.Store, keys blobstore.Keys) []coldbase.Record {
	t.Helper()
	body, _, err := store.Get(context.Background(), keys.Snapshot())
	if err == blobstore.ErrNotFound {
		return nil
	}
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	var out []coldbase.Record
	for _, line := range stream.SplitLines(body) {
		r, err := stream.DecodeRecord(line.Bytes)
		if err != nil {
			t.Fatalf("decode snapshot line: %v", err)
		}
		out = append(out, r)
	}
	return out
}

func TestCompactMergesMutationsIntoSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	keys := blobstore.NewKeys("widgets")
	cfg := DefaultConfig()

	putMutation(t, store, keys, 100, coldbase.Record{ID: "a", Data: map[string]any{"v": 1}, TS: 100})
	putMutation(t, store, keys, 101, coldbase.Record{ID: "b", Data: map[string]any{"v": 2}, TS: 101})

	result, err := Compact(ctx, store, "widgets", "session-1", cfg)
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if result.MutationsProcessed != 2 {
		t.Fatalf("expected 2 mutations processed, got %d", result.MutationsProcessed)
	}

	remaining, err := blobstore.ListAll(ctx, store, keys.MutationPrefix())
	if err != nil {
		t.Fatalf("list remaining mutations: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected all mutations deleted, got %v", remaining)
	}

	records := readSnapshotRecords(t, store, keys)
	if len(records) != 2 {
		t.Fatalf("expected 2 snapshot records, got %d", len(records))
	}

	if !result.IndexBuilt || !result.BloomBuilt {
		t.Fatalf("expected index and bloom to be built, got %+v", result)
	}
	if _, _, err := store.Get(ctx, keys.Index()); err != nil {
		t.Fatalf("expected C.idx to exist: %v", err)
	}
	if _, _, err := store.Get(ctx, keys.Bloom()); err != nil {
		t.Fatalf("expected C.bloom to exist: %v", err)
	}
}

func TestCompactFailsWithLockActiveWhileHeld(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	keys := blobstore.NewKeys("widgets")
	cfg := DefaultConfig()
	cfg.Lock.AdaptiveLease = false
	cfg.Lock.LeaseDurationMs = 60_000

	putMutation(t, store, keys, 1, coldbase.Record{ID: "a", Data: map[string]any{"v": 1}, TS: 1})

	held, err := lock.Acquire(ctx, store, keys.Lock(), "other-session", cfg.Lock, 0, 0)
	if err != nil {
		t.Fatalf("seed lock acquire: %v", err)
	}

	if _, err := Compact(ctx, store, "widgets", "session-1", cfg); err == nil {
		t.Fatalf("expected compact to fail while another session holds the lock")
	} else {
		var lockErr coldbase.LockActiveError
		if !errors.As(err, &lockErr) {
			t.Fatalf("expected LockActiveError, got %v", err)
		}
	}

	lock.Release(ctx, store, held)

	if _, err := Compact(ctx, store, "widgets", "session-2", cfg); err != nil {
		t.Fatalf("expected compact to succeed after release, got %v", err)
	}
}

func TestCompactSkipsMalformedMutationBlob(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	keys := blobstore.NewKeys("widgets")
	cfg := DefaultConfig()

	if err := store.Put(ctx, keys.Mutation(1, "bad"), []byte("not json")); err != nil {
		t.Fatalf("put malformed: %v", err)
	}
	putMutation(t, store, keys, 2, coldbase.Record{ID: "good", Data: map[string]any{"v": 1}, TS: 2})

	result, err := Compact(ctx, store, "widgets", "session-1", cfg)
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if result.MutationsProcessed != 1 {
		t.Fatalf("expected 1 record processed (malformed blob skipped), got %d", result.MutationsProcessed)
	}

	remaining, err := blobstore.ListAll(ctx, store, keys.MutationPrefix())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected malformed mutation key deleted alongside the rest, got %v", remaining)
	}
}

func TestVacuumDedupesSnapshotKeepingLatestOccurrence(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	keys := blobstore.NewKeys("widgets")
	cfg := DefaultConfig()

	lines := [][]byte{}
	for _, r := range []coldbase.Record{
		{ID: "a", Data: map[string]any{"v": 1}, TS: 1},
		{ID: "b", Data: map[string]any{"v": 1}, TS: 2},
		{ID: "a", Data: map[string]any{"v": 2}, TS: 3},
	} {
		line, err := stream.EncodeRecord(r)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		lines = append(lines, line)
	}
	body := joinLines(lines)
	if err := store.Put(ctx, keys.Snapshot(), body); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	result, err := Vacuum(ctx, store, "widgets", "session-1", cfg)
	if err != nil {
		t.Fatalf("vacuum: %v", err)
	}
	if result.RecordsRemoved != 1 {
		t.Fatalf("expected 1 stale occurrence removed, got %d", result.RecordsRemoved)
	}

	records := readSnapshotRecords(t, store, keys)
	if len(records) != 2 {
		t.Fatalf("expected 2 live records after vacuum, got %d: %+v", len(records), records)
	}
	byID := map[string]coldbase.Record{}
	for _, r := range records {
		byID[r.ID] = r
	}
	if byID["a"].Data["v"].(float64) != 2 {
		t.Fatalf("expected a's latest value to survive, got %+v", byID["a"])
	}

	if _, _, err := store.Get(ctx, keys.SnapshotTmp()); err != blobstore.ErrNotFound {
		t.Fatalf("expected scratch file to be deleted after swap, err=%v", err)
	}
}

func TestVacuumDropsTombstonedRecords(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	keys := blobstore.NewKeys("widgets")
	cfg := DefaultConfig()

	lines := [][]byte{}
	for _, r := range []coldbase.Record{
		{ID: "a", Data: map[string]any{"v": 1}, TS: 1},
		{ID: "a", Data: nil, TS: 2},
	} {
		line, err := stream.EncodeRecord(r)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		lines = append(lines, line)
	}
	if err := store.Put(ctx, keys.Snapshot(), joinLines(lines)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := Vacuum(ctx, store, "widgets", "session-1", cfg)
	if err != nil {
		t.Fatalf("vacuum: %v", err)
	}
	if result.RecordsRemoved != 2 {
		t.Fatalf("expected both lines removed (stale live + tombstone), got %d", result.RecordsRemoved)
	}
	records := readSnapshotRecords(t, store, keys)
	if len(records) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", records)
	}
}

// TestVacuumOverflowKeepsAllDistinctLiveIDs exercises the boundary case where
// vacuumCacheSize is smaller than the number of distinct live ids: every id that
// overflows the LRU must still survive vacuum (invariant I8), even though its
// line may not be deduplicated against an equally-overflowed duplicate.
func TestVacuumOverflowKeepsAllDistinctLiveIDs(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	keys := blobstore.NewKeys("widgets")
	cfg := DefaultConfig()
	cfg.VacuumCacheSize = 1

	lines := [][]byte{}
	for _, r := range []coldbase.Record{
		{ID: "a", Data: map[string]any{"v": 1}, TS: 1},
		{ID: "b", Data: map[string]any{"v": 1}, TS: 2},
		{ID: "c", Data: map[string]any{"v": 1}, TS: 3},
	} {
		line, err := stream.EncodeRecord(r)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		lines = append(lines, line)
	}
	if err := store.Put(ctx, keys.Snapshot(), joinLines(lines)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := Vacuum(ctx, store, "widgets", "session-1", cfg); err != nil {
		t.Fatalf("vacuum: %v", err)
	}

	records := readSnapshotRecords(t, store, keys)
	seen := map[string]bool{}
	for _, r := range records {
		seen[r.ID] = true
	}
	for _, id := range []string{"a", "b", "c"} {
		if !seen[id] {
			t.Fatalf("expected live id %q to survive vacuum despite cache overflow, records=%+v", id, records)
		}
	}
}

func joinLines(lines [][]byte) []byte {
	var out []byte
	for i, l := range lines {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, l...)
	}
	return out
}
