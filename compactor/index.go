package compactor

import (
	"context"

	"github.com/yosbelms/coldbase/blobstore"
	"github.com/yosbelms/coldbase/stream"
)

// indexEntry mirrors spec §3's index entry: the byte span of a live id's line
// within C.jsonl.
type indexEntry struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

// rebuildIndexAndBloom performs the single streaming pass of spec §4.4 over the
// current snapshot, writing C.idx (live ids only) and C.bloom (every live id).
func rebuildIndexAndBloom(ctx context.Context, store blobstore.Store, keys blobstore.Keys, cfg Config) (indexBuilt, bloomBuilt bool, err error) {
	if !cfg.UseIndex && !cfg.UseBloomFilter {
		return false, false, nil
	}

	body, _, getErr := store.Get(ctx, keys.Snapshot())
	if getErr == blobstore.ErrNotFound {
		body = nil
	} else if getErr != nil {
		return false, false, getErr
	}

	index := make(map[string]indexEntry)
	var bloom *stream.BloomFilter
	if cfg.UseBloomFilter {
		bloom = stream.NewBloomFilter(cfg.BloomExpectedItems, cfg.BloomFalsePositiveRate)
	}

	for _, line := range stream.SplitLines(body) {
		rec, decErr := stream.DecodeRecord(line.Bytes)
		if decErr != nil {
			// Malformed line: skip it for index/bloom purposes (spec §4.4 "if parseable").
			continue
		}
		if rec.IsTombstone() {
			delete(index, rec.ID)
			continue
		}
		index[rec.ID] = indexEntry{Offset: line.Offset, Length: line.Length}
		if bloom != nil {
			bloom.Add(rec.ID)
		}
	}

	if cfg.UseIndex {
		data, err := marshalIndex(index)
		if err != nil {
			return false, false, err
		}
		if err := store.Put(ctx, keys.Index(), data); err != nil {
			return false, false, err
		}
		indexBuilt = true
	}
	if cfg.UseBloomFilter {
		data, err := bloom.Marshal()
		if err != nil {
			return indexBuilt, false, err
		}
		if err := store.Put(ctx, keys.Bloom(), data); err != nil {
			return indexBuilt, false, err
		}
		bloomBuilt = true
	}
	return indexBuilt, bloomBuilt, nil
}
