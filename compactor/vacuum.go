package compactor

import (
	"context"
	log "log/slog"

	"github.com/yosbelms/coldbase"
	"github.com/yosbelms/coldbase/blobstore"
	"github.com/yosbelms/coldbase/lock"
	"github.com/yosbelms/coldbase/stream"
)

// VacuumResult summarizes one vacuum run (spec §4.3 contract).
type VacuumResult struct {
	RecordsRemoved int
	DurationMs     int64
}

// Vacuum rewrites collection's snapshot to keep at most one copy of each live id
// (its latest non-tombstone occurrence) and drops dead ids, under the lease lock
// (spec §4.3). It uses a bounded LRU of size cfg.VacuumCacheSize to track each id's
// last occurrence; ids evicted from the LRU go into an overflow set that may retain
// duplicate lines rather than risk losing a live record (invariant I8).
func Vacuum(ctx context.Context, store blobstore.Store, collection, sessionID string, cfg Config) (VacuumResult, error) {
	keys := blobstore.NewKeys(collection)
	start := coldbase.Now()

	fileSize, err := sizeOrZero(ctx, store, keys.Snapshot())
	if err != nil {
		return VacuumResult{}, err
	}

	// Vacuum estimates its lease at 2x the compaction estimate (it makes two passes).
	baseEstimate := lock.EstimateLeaseMs(cfg.Lock, fileSize, 0)
	vacuumLockCfg := cfg.Lock
	vacuumLockCfg.AdaptiveLease = false
	vacuumLockCfg.LeaseDurationMs = baseEstimate * 2
	if vacuumLockCfg.MaxLeaseDurationMs > 0 && vacuumLockCfg.LeaseDurationMs > vacuumLockCfg.MaxLeaseDurationMs {
		vacuumLockCfg.LeaseDurationMs = vacuumLockCfg.MaxLeaseDurationMs
	}

	lease, err := lock.Acquire(ctx, store, keys.Lock(), sessionID, vacuumLockCfg, fileSize, 0)
	if err != nil {
		return VacuumResult{}, err
	}
	defer lock.Release(ctx, store, lease)

	body, _, getErr := store.Get(ctx, keys.Snapshot())
	if getErr == blobstore.ErrNotFound {
		body = nil
	} else if getErr != nil {
		return VacuumResult{}, getErr
	}
	lines := stream.SplitLines(body)

	// Pass 1: track each id's last occurrence and tombstone state.
	overflow := make(map[string]bool)
	lru := stream.NewLRU(cfg.VacuumCacheSize)
	lru.OnEvict = func(id string, e stream.LRUEntry) { overflow[id] = true }

	for i, line := range lines {
		rec, err := stream.DecodeRecord(line.Bytes)
		if err != nil {
			log.Warn("skipping malformed snapshot line during vacuum pass 1", "lineNum", i, "error", err)
			continue
		}
		lru.Put(rec.ID, stream.LRUEntry{LineNum: int64(i), Deleted: rec.IsTombstone()})
	}

	// Pass 2: keep only the winning occurrence per id (or every live occurrence for
	// overflow ids, since a single pass cannot safely dedupe them here).
	tmpAppender := newBufferedAppender(store, keys.SnapshotTmp(), cfg.CopyBufferSize)
	recordsRemoved := 0
	for i, line := range lines {
		rec, err := stream.DecodeRecord(line.Bytes)
		if err != nil {
			continue
		}
		var keep bool
		if overflow[rec.ID] {
			keep = !rec.IsTombstone()
		} else if e, ok := lru.Get(rec.ID); ok {
			keep = e.LineNum == int64(i) && !e.Deleted
		}
		if keep {
			if err := tmpAppender.WriteLine(ctx, line.Bytes); err != nil {
				return VacuumResult{}, err
			}
		} else {
			recordsRemoved++
		}
	}
	if err := tmpAppender.Flush(ctx); err != nil {
		return VacuumResult{}, err
	}

	if err := swapSnapshot(ctx, store, keys, cfg); err != nil {
		return VacuumResult{}, err
	}

	if _, _, err := rebuildIndexAndBloom(ctx, store, keys, cfg); err != nil {
		return VacuumResult{}, err
	}

	log.Info("vacuum complete", "collection", collection, "recordsRemoved", recordsRemoved, "overflowCount", len(overflow))
	return VacuumResult{
		RecordsRemoved: recordsRemoved,
		DurationMs:     coldbase.Now().Sub(start).Milliseconds(),
	}, nil
}

// swapSnapshot truncates C.jsonl (unconditional empty put), streams C.jsonl.tmp back
// into it via the same buffered-append path compaction uses, then deletes the
// scratch file (spec §4.3 "Swap").
func swapSnapshot(ctx context.Context, store blobstore.Store, keys blobstore.Keys, cfg Config) error {
	if err := store.Put(ctx, keys.Snapshot(), nil); err != nil {
		return err
	}
	tmpBody, _, err := store.Get(ctx, keys.SnapshotTmp())
	if err == blobstore.ErrNotFound {
		tmpBody = nil
	} else if err != nil {
		return err
	}

	appender := newBufferedAppender(store, keys.Snapshot(), cfg.CopyBufferSize)
	for _, line := range stream.SplitLines(tmpBody) {
		if err := appender.WriteLine(ctx, line.Bytes); err != nil {
			return err
		}
	}
	if err := appender.Flush(ctx); err != nil {
		return err
	}
	return store.Delete(ctx, []string{keys.SnapshotTmp()})
}
