package collection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yosbelms/coldbase"
	"github.com/yosbelms/coldbase/blobstore/memstore"
	"github.com/yosbelms/coldbase/compactor"
)

func newTestCollection(t *testing.T, name string) (*Collection, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	cfg := DefaultConfig(name)
	cfg.AutoCompact = DisabledTrigger()
	cfg.AutoVacuum = VacuumTrigger{MaintenanceTrigger: DisabledTrigger()}
	col, err := New(store, cfg)
	if err != nil {
		t.Fatalf("new collection: %v", err)
	}
	return col, store
}

func TestPutGetDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	col, _ := newTestCollection(t, "widgets")

	if err := col.Put(ctx, "w1", map[string]any{"name": "sprocket"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, found, err := col.Get(ctx, "w1", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatalf("expected w1 to be found")
	}
	if data["name"] != "sprocket" {
		t.Fatalf("expected name=sprocket, got %+v", data)
	}

	if err := col.Delete(ctx, "w1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, found, err = col.Get(ctx, "w1", nil)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if found {
		t.Fatalf("expected w1 to be gone after delete")
	}
}

func TestBatchIsAtomicAsOneMutationBlob(t *testing.T) {
	ctx := context.Background()
	col, store := newTestCollection(t, "widgets")

	if err := col.Batch(ctx, func(b *Batcher) {
		b.Put("a", map[string]any{"v": 1})
		b.Put("b", map[string]any{"v": 2})
	}); err != nil {
		t.Fatalf("batch: %v", err)
	}

	keys, err := store.List(ctx, col.keys.MutationPrefix(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys.Keys) != 1 {
		t.Fatalf("expected exactly 1 mutation blob for the batch, got %d", len(keys.Keys))
	}
}

func TestLastWriteWinsAcrossSnapshotAndMutation(t *testing.T) {
	ctx := context.Background()
	col, store := newTestCollection(t, "widgets")

	if err := col.Put(ctx, "a", map[string]any{"v": 1}); err != nil {
		t.Fatalf("put 1: %v", err)
	}
	if _, err := compactor.Compact(ctx, store, "widgets", "session-1", col.cfg.Compactor); err != nil {
		t.Fatalf("compact: %v", err)
	}
	if err := col.Put(ctx, "a", map[string]any{"v": 2}); err != nil {
		t.Fatalf("put 2: %v", err)
	}

	data, found, err := col.Get(ctx, "a", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatalf("expected a to be found")
	}
	if data["v"].(float64) != 2 {
		t.Fatalf("expected latest value 2, got %+v", data)
	}
}

func TestFastGetUsesIndexAfterCompaction(t *testing.T) {
	ctx := context.Background()
	col, store := newTestCollection(t, "widgets")

	if err := col.Put(ctx, "a", map[string]any{"v": 1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := compactor.Compact(ctx, store, "widgets", "session-1", col.cfg.Compactor); err != nil {
		t.Fatalf("compact: %v", err)
	}

	// Force the per-instance cache to load from storage.
	data, found, err := col.Get(ctx, "a", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || data["v"].(float64) != 1 {
		t.Fatalf("expected a=1 via fast path, got found=%v data=%+v", found, data)
	}

	if _, found, err := col.Get(ctx, "missing", nil); err != nil || found {
		t.Fatalf("expected missing id to be absent, found=%v err=%v", found, err)
	}
}

func TestFindFiltersByWhereAndRespectsLimitOffset(t *testing.T) {
	ctx := context.Background()
	col, _ := newTestCollection(t, "widgets")

	for i, kind := range []string{"bolt", "nut", "bolt", "washer", "bolt"} {
		id := string(rune('a' + i))
		if err := col.Put(ctx, id, map[string]any{"kind": kind}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	matched, err := col.Find(ctx, FindOptions{Where: map[string]any{"kind": "bolt"}})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(matched) != 3 {
		t.Fatalf("expected 3 bolts, got %d: %+v", len(matched), matched)
	}

	limited, err := col.Find(ctx, FindOptions{Where: map[string]any{"kind": "bolt"}, Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("find limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 results after offset 1, got %d", len(limited))
	}
}

func TestTTLFieldExpiresRecordsFromReadsAndCounts(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	cfg := DefaultConfig("events")
	cfg.TTLField = "expiresAt"
	cfg.AutoCompact = DisabledTrigger()
	cfg.AutoVacuum = VacuumTrigger{MaintenanceTrigger: DisabledTrigger()}
	col, err := New(store, cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	realNow := coldbase.Now
	defer func() { coldbase.Now = realNow }()
	fixedNow := time.UnixMilli(10_000)
	coldbase.Now = func() time.Time { return fixedNow }

	if err := col.Put(ctx, "live", map[string]any{"expiresAt": int64(20_000)}); err != nil {
		t.Fatalf("put live: %v", err)
	}
	if err := col.Put(ctx, "dead", map[string]any{"expiresAt": int64(5_000)}); err != nil {
		t.Fatalf("put dead: %v", err)
	}

	_, found, err := col.Get(ctx, "dead", nil)
	if err != nil {
		t.Fatalf("get dead: %v", err)
	}
	if found {
		t.Fatalf("expected expired record to be hidden from Get")
	}

	count, err := col.Count(ctx, FindOptions{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count=1 (only live), got %d", count)
	}

	removed, err := col.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 record tombstoned, got %d", removed)
	}
}

func TestSizeLimitRejectsOversizedBatchWithoutTouchingStorage(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	cfg := DefaultConfig("widgets")
	cfg.MaxMutationSize = 10
	cfg.AutoCompact = DisabledTrigger()
	cfg.AutoVacuum = VacuumTrigger{MaintenanceTrigger: DisabledTrigger()}
	col, err := New(store, cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	err = col.Put(ctx, "a", map[string]any{"data": "this is way too long to fit"})
	var sizeErr coldbase.SizeLimitError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("expected SizeLimitError, got %v", err)
	}

	keys, listErr := store.List(ctx, col.keys.MutationPrefix(), "")
	if listErr != nil {
		t.Fatalf("list: %v", listErr)
	}
	if len(keys.Keys) != 0 {
		t.Fatalf("expected no mutation blob written on size-limit rejection, got %v", keys.Keys)
	}
}

func TestGetManyFiltersToRequestedIDs(t *testing.T) {
	ctx := context.Background()
	col, _ := newTestCollection(t, "widgets")

	if err := col.Put(ctx, "a", map[string]any{"v": 1}); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if err := col.Put(ctx, "b", map[string]any{"v": 2}); err != nil {
		t.Fatalf("put b: %v", err)
	}
	if err := col.Put(ctx, "c", map[string]any{"v": 3}); err != nil {
		t.Fatalf("put c: %v", err)
	}

	got, err := col.GetMany(ctx, []string{"a", "c", "missing"}, nil)
	if err != nil {
		t.Fatalf("get many: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(got), got)
	}
	if _, ok := got["b"]; ok {
		t.Fatalf("expected b to be excluded")
	}
}
