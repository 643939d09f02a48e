package collection

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/yosbelms/coldbase"
	"github.com/yosbelms/coldbase/blobstore"
	"github.com/yosbelms/coldbase/stream"
)

// Collection is Coldbase's read/write engine for one named collection (spec
// §4.5-§4.7): writes append mutation blobs, reads merge the compacted snapshot
// with any pending mutations, and maintenance is dispatched in the background.
type Collection struct {
	store blobstore.Store
	keys  blobstore.Keys
	cfg   Config
	clock *stream.Monotonic

	mu             sync.Mutex
	cachedIndex    map[string]indexEntry
	indexLoaded    bool
	cachedBloom    *stream.BloomFilter
	bloomLoaded    bool
	cachedSnapshot []byte
	snapshotLoaded bool
}

// indexEntry mirrors compactor.IndexEntry without importing compactor's internal
// wire type into this package's public surface.
type indexEntry struct {
	Offset int64
	Length int64
}

// New validates name against spec §3 and returns a Collection backed by store.
func New(store blobstore.Store, cfg Config) (*Collection, error) {
	if err := coldbase.ValidateCollectionName(cfg.Name); err != nil {
		return nil, err
	}
	if cfg.MaxMutationSize <= 0 {
		cfg.MaxMutationSize = 10 * 1024 * 1024
	}
	if cfg.ReadChunkSize <= 0 {
		cfg.ReadChunkSize = 50
	}
	if cfg.ReadFanout <= 0 {
		cfg.ReadFanout = 10
	}
	return &Collection{
		store: store,
		keys:  blobstore.NewKeys(cfg.Name),
		cfg:   cfg,
		clock: stream.NewMonotonic(),
	}, nil
}

// Batcher collects the records of one atomic Batch call (spec §4.5: "the whole
// batch either becomes one mutation blob or fails").
type Batcher struct {
	records []coldbase.Record
}

// Put stages a live record write.
func (b *Batcher) Put(id string, data map[string]any) {
	b.records = append(b.records, coldbase.Record{ID: id, Data: cloneWithID(data, id)})
}

// Delete stages a tombstone write.
func (b *Batcher) Delete(id string) {
	b.records = append(b.records, coldbase.Record{ID: id, Data: nil})
}

func cloneWithID(data map[string]any, id string) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["id"] = id
	return out
}

// Put writes a single live record (spec §4.5).
func (c *Collection) Put(ctx context.Context, id string, data map[string]any) error {
	if id == "" {
		return coldbase.ValidationError{Message: "record id must not be empty"}
	}
	rec := coldbase.Record{ID: id, Data: cloneWithID(data, id)}
	return c.writeMutations(ctx, []coldbase.Record{rec})
}

// Delete writes a tombstone for id (spec §4.5).
func (c *Collection) Delete(ctx context.Context, id string) error {
	if id == "" {
		return coldbase.ValidationError{Message: "record id must not be empty"}
	}
	return c.writeMutations(ctx, []coldbase.Record{{ID: id, Data: nil}})
}

// Batch runs fn to collect one or more puts/deletes and writes them as a single
// atomic mutation blob (spec §4.5).
func (c *Collection) Batch(ctx context.Context, fn func(b *Batcher)) error {
	b := &Batcher{}
	fn(b)
	if len(b.records) == 0 {
		return nil
	}
	return c.writeMutations(ctx, b.records)
}

// writeMutations implements spec §4.5 steps 1-7.
func (c *Collection) writeMutations(ctx context.Context, items []coldbase.Record) error {
	ts := c.clock.NextBatch()
	for i := range items {
		items[i].TS = ts
	}

	body, err := stream.EncodeBatch(items)
	if err != nil {
		return err
	}
	if len(body) > c.cfg.MaxMutationSize {
		return coldbase.SizeLimitError{Size: len(body), Limit: c.cfg.MaxMutationSize}
	}

	key := c.keys.Mutation(ts, coldbase.NewUUID().String())
	if err := coldbase.Retry(ctx, c.cfg.Retry, func(ctx context.Context) error {
		return c.store.Put(ctx, key, body)
	}, nil); err != nil {
		return err
	}

	c.invalidateCaches()
	if c.cfg.OnWrite != nil {
		c.cfg.OnWrite(c.cfg.Name, len(items))
	}
	c.scheduleMaintenance()
	return nil
}

func (c *Collection) invalidateCaches() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cachedIndex = nil
	c.indexLoaded = false
	c.cachedBloom = nil
	c.bloomLoaded = false
	c.cachedSnapshot = nil
	c.snapshotLoaded = false
}

// resolveBound converts an optional time-travel bound to RecordIter's sentinel:
// nil means "no bound" (read everything as of now).
func resolveBound(at *int64) int64 {
	if at == nil {
		return math.MaxInt64
	}
	return *at
}

// readLatest drains a full read() pass into the latest-per-id map (spec §4.6:
// "dedupe-to-latest ... by collecting read() into a map id -> record with largest
// ts - not by relying on stream order").
func (c *Collection) readLatest(ctx context.Context, at *int64) (map[string]coldbase.Record, error) {
	bound := resolveBound(at)
	iter := stream.NewRecordIter(c.store, c.keys, bound, c.cfg.ReadChunkSize, c.cfg.ReadFanout)
	out := make(map[string]coldbase.Record)
	for {
		rec, ok, err := iter.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		if cur, exists := out[rec.ID]; !exists || rec.TS > cur.TS {
			out[rec.ID] = rec
		}
	}
}

// Get returns the live, non-expired data for id, or found=false if it does not
// exist, is tombstoned, or is TTL-expired (spec §4.6).
func (c *Collection) Get(ctx context.Context, id string, at *int64) (map[string]any, bool, error) {
	if at == nil {
		data, found, handled, err := c.fastGet(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if handled {
			return data, found, nil
		}
	}
	latest, err := c.readLatest(ctx, at)
	if err != nil {
		return nil, false, err
	}
	rec, exists := latest[id]
	if !exists || rec.IsTombstone() {
		return nil, false, nil
	}
	if isExpired(rec.Data, c.cfg.TTLField, coldbase.Now().UnixMilli()) {
		return nil, false, nil
	}
	return rec.Data, true, nil
}

// fastGet implements spec §4.6's bloom/index fast paths. handled=false means
// neither accelerator was usable and the caller must fall back to a full scan.
func (c *Collection) fastGet(ctx context.Context, id string) (data map[string]any, found bool, handled bool, err error) {
	mutationKeys, err := blobstore.ListAll(ctx, c.store, c.keys.MutationPrefix())
	if err != nil {
		return nil, false, false, err
	}
	if len(mutationKeys) != 0 {
		// I6: index/bloom only valid with zero pending mutations.
		return nil, false, false, nil
	}

	bloom, err := c.loadBloom(ctx)
	if err != nil {
		return nil, false, false, err
	}
	if bloom != nil && !bloom.MightContain(id) {
		return nil, false, true, nil
	}

	index, err := c.loadIndex(ctx)
	if err != nil {
		return nil, false, false, err
	}
	if index == nil {
		return nil, false, false, nil
	}
	entry, ok := index[id]
	if !ok {
		return nil, false, true, nil
	}

	snapshot, err := c.loadSnapshot(ctx)
	if err != nil {
		return nil, false, false, err
	}
	line, ok := stream.Slice(snapshot, entry.Offset, entry.Length)
	if !ok {
		return nil, false, false, nil
	}
	rec, err := stream.DecodeRecord(line)
	if err != nil {
		return nil, false, false, err
	}
	if rec.IsTombstone() || isExpired(rec.Data, c.cfg.TTLField, coldbase.Now().UnixMilli()) {
		return nil, false, true, nil
	}
	return rec.Data, true, true, nil
}

func (c *Collection) loadBloom(ctx context.Context) (*stream.BloomFilter, error) {
	c.mu.Lock()
	if c.bloomLoaded {
		defer c.mu.Unlock()
		return c.cachedBloom, nil
	}
	c.mu.Unlock()

	if !c.cfg.Compactor.UseBloomFilter {
		c.mu.Lock()
		c.bloomLoaded = true
		c.mu.Unlock()
		return nil, nil
	}
	body, _, err := c.store.Get(ctx, c.keys.Bloom())
	if err == blobstore.ErrNotFound {
		c.mu.Lock()
		c.bloomLoaded = true
		c.mu.Unlock()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	bloom, err := stream.UnmarshalBloomFilter(body)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cachedBloom = bloom
	c.bloomLoaded = true
	c.mu.Unlock()
	return bloom, nil
}

func (c *Collection) loadIndex(ctx context.Context) (map[string]indexEntry, error) {
	c.mu.Lock()
	if c.indexLoaded {
		defer c.mu.Unlock()
		return c.cachedIndex, nil
	}
	c.mu.Unlock()

	if !c.cfg.Compactor.UseIndex {
		c.mu.Lock()
		c.indexLoaded = true
		c.mu.Unlock()
		return nil, nil
	}
	body, _, err := c.store.Get(ctx, c.keys.Index())
	if err == blobstore.ErrNotFound {
		c.mu.Lock()
		c.indexLoaded = true
		c.mu.Unlock()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	raw, err := unmarshalIndex(body)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cachedIndex = raw
	c.indexLoaded = true
	c.mu.Unlock()
	return raw, nil
}

func (c *Collection) loadSnapshot(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	if c.snapshotLoaded {
		defer c.mu.Unlock()
		return c.cachedSnapshot, nil
	}
	c.mu.Unlock()

	body, _, err := c.store.Get(ctx, c.keys.Snapshot())
	if err == blobstore.ErrNotFound {
		body = nil
	} else if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cachedSnapshot = body
	c.snapshotLoaded = true
	c.mu.Unlock()
	return body, nil
}

// GetMany does one read() pass filtered against ids (spec §4.6).
func (c *Collection) GetMany(ctx context.Context, ids []string, at *int64) (map[string]map[string]any, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	latest, err := c.readLatest(ctx, at)
	if err != nil {
		return nil, err
	}
	now := coldbase.Now().UnixMilli()
	out := make(map[string]map[string]any, len(ids))
	for id := range wanted {
		rec, exists := latest[id]
		if !exists || rec.IsTombstone() || isExpired(rec.Data, c.cfg.TTLField, now) {
			continue
		}
		out[id] = rec.Data
	}
	return out, nil
}

// FindOptions configures Find/Count (spec §4.6).
type FindOptions struct {
	// Where is a partial-object equality filter: every field must match.
	Where map[string]any
	// Predicate, if set, is applied instead of Where.
	Predicate func(data map[string]any) bool
	Limit     int
	Offset    int
	At        *int64
}

func (c *Collection) matches(opts FindOptions, data map[string]any) bool {
	if opts.Predicate != nil {
		return opts.Predicate(data)
	}
	if len(opts.Where) == 0 {
		return true
	}
	return matchWhere(data, opts.Where)
}

// Find builds the latest-per-id map, filters live non-expired records by
// Where/Predicate, skips Offset, and truncates to Limit (spec §4.6). Results are
// sorted by id for deterministic output across calls.
func (c *Collection) Find(ctx context.Context, opts FindOptions) ([]map[string]any, error) {
	latest, err := c.readLatest(ctx, opts.At)
	if err != nil {
		return nil, err
	}
	now := coldbase.Now().UnixMilli()
	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []map[string]any
	for _, id := range ids {
		rec := latest[id]
		if rec.IsTombstone() || isExpired(rec.Data, c.cfg.TTLField, now) {
			continue
		}
		if !c.matches(opts, rec.Data) {
			continue
		}
		out = append(out, rec.Data)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Count is Find without Limit/Offset, returning the matching count (spec §4.6).
func (c *Collection) Count(ctx context.Context, opts FindOptions) (int, error) {
	opts.Limit = 0
	opts.Offset = 0
	matched, err := c.Find(ctx, opts)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

// DeleteExpired writes a tombstone for every currently-expired id (spec §4.6:
// physical removal still requires a later vacuum). Returns the number of ids
// tombstoned.
func (c *Collection) DeleteExpired(ctx context.Context) (int, error) {
	if c.cfg.TTLField == "" {
		return 0, nil
	}
	latest, err := c.readLatest(ctx, nil)
	if err != nil {
		return 0, err
	}
	now := coldbase.Now().UnixMilli()
	var expired []string
	for id, rec := range latest {
		if rec.IsTombstone() {
			continue
		}
		if isExpired(rec.Data, c.cfg.TTLField, now) {
			expired = append(expired, id)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}
	if err := c.Batch(ctx, func(b *Batcher) {
		for _, id := range expired {
			b.Delete(id)
		}
	}); err != nil {
		return 0, err
	}
	return len(expired), nil
}
