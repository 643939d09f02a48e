package compactor

import (
	log "log/slog"

	"github.com/yosbelms/coldbase"
	"github.com/yosbelms/coldbase/blobstore"
	"github.com/yosbelms/coldbase/lock"
	"github.com/yosbelms/coldbase/stream"

	"context"
)

// CompactResult summarizes one compaction run (spec §4.2 contract).
type CompactResult struct {
	MutationsProcessed int
	DurationMs          int64
	IndexBuilt          bool
	BloomBuilt          bool
}

// Compact merges all currently visible mutation blobs of collection into its
// snapshot and deletes them, under the lease lock (spec §4.2). Any error aborts
// after releasing the lock; mutation blobs are only deleted after the page
// containing them has been flushed to the snapshot, so a partial failure can at
// worst leave duplicate records for the next compaction (or vacuum) to resolve.
func Compact(ctx context.Context, store blobstore.Store, collection, sessionID string, cfg Config) (CompactResult, error) {
	keys := blobstore.NewKeys(collection)
	start := coldbase.Now()

	fileSize, err := sizeOrZero(ctx, store, keys.Snapshot())
	if err != nil {
		return CompactResult{}, err
	}
	mutationKeys, err := blobstore.ListAll(ctx, store, keys.MutationPrefix())
	if err != nil {
		return CompactResult{}, err
	}

	lease, err := lock.Acquire(ctx, store, keys.Lock(), sessionID, cfg.Lock, fileSize, len(mutationKeys))
	if err != nil {
		return CompactResult{}, err
	}
	defer lock.Release(ctx, store, lease)

	appender := newBufferedAppender(store, keys.Snapshot(), cfg.CopyBufferSize)
	processed := 0

	for {
		sawAny, err := compactOnePass(ctx, store, keys, cfg, appender, &processed)
		if err != nil {
			return CompactResult{}, err
		}
		if !sawAny {
			break
		}
	}

	indexBuilt, bloomBuilt, err := rebuildIndexAndBloom(ctx, store, keys, cfg)
	if err != nil {
		return CompactResult{}, err
	}

	log.Info("compaction complete", "collection", collection, "mutationsProcessed", processed)
	return CompactResult{
		MutationsProcessed: processed,
		DurationMs:          coldbase.Now().Sub(start).Milliseconds(),
		IndexBuilt:          indexBuilt,
		BloomBuilt:          bloomBuilt,
	}, nil
}

// compactOnePass pages through the full mutation listing once, merging each page
// into the snapshot and deleting its keys before advancing (spec §4.2 step 1).
func compactOnePass(ctx context.Context, store blobstore.Store, keys blobstore.Keys, cfg Config, appender *bufferedAppender, processed *int) (sawAny bool, err error) {
	cursor := ""
	for {
		page, err := store.List(ctx, keys.MutationPrefix(), cursor)
		if err != nil {
			return sawAny, err
		}
		if len(page.Keys) == 0 {
			if page.NextCursor == "" {
				break
			}
			cursor = page.NextCursor
			continue
		}
		sawAny = true

		bodies, err := stream.Fan(ctx, cfg.Parallelism, page.Keys, func(ctx context.Context, key string) ([]byte, error) {
			body, _, getErr := store.Get(ctx, key)
			if getErr == blobstore.ErrNotFound {
				return nil, nil
			}
			return body, getErr
		})
		if err != nil {
			return sawAny, err
		}

		for i, body := range bodies {
			if body == nil {
				continue
			}
			records, decErr := stream.DecodeBatch(body)
			if decErr != nil {
				log.Warn("skipping malformed mutation blob", "key", page.Keys[i], "error", decErr)
				continue
			}
			for _, r := range records {
				line, encErr := stream.EncodeRecord(r)
				if encErr != nil {
					return sawAny, encErr
				}
				if err := appender.WriteLine(ctx, line); err != nil {
					return sawAny, err
				}
				*processed++
			}
		}

		// Flush before delete: mutations are only deleted once safely appended (I4).
		if err := appender.Flush(ctx); err != nil {
			return sawAny, err
		}
		for _, chunk := range stream.Chunk(page.Keys, cfg.DeleteChunkSize) {
			if err := store.Delete(ctx, chunk); err != nil {
				return sawAny, err
			}
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return sawAny, nil
}

func sizeOrZero(ctx context.Context, store blobstore.Store, key string) (int64, error) {
	size, err := store.Size(ctx, key)
	if err == blobstore.ErrNotFound {
		return 0, nil
	}
	return size, err
}
