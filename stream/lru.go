package stream

// LRUEntry is what vacuum's LRU tracks per id: the line number of its last-seen
// occurrence in the snapshot and whether that occurrence is a tombstone (spec §4.3).
type LRUEntry struct {
	LineNum int64
	Deleted bool
}

// LRU is a bounded least-recently-used cache mapping id -> LRUEntry, adapted from the
// teacher's cache package (mru.go/doublylinkedlist.go) and generalized so that an id
// evicted to make room is reported via OnEvict rather than silently discarded — vacuum
// needs to know which ids it could not track so it can add them to its overflow set
// (spec §4.3, invariant I8).
type LRU struct {
	capacity int
	lookup   map[string]*lruCacheEntry
	order    *doublyLinkedList
	// OnEvict, if set, is called with the id and its last known entry whenever an
	// entry is evicted to keep the cache within capacity.
	OnEvict func(id string, entry LRUEntry)
}

type lruCacheEntry struct {
	entry LRUEntry
	n     *node
}

// NewLRU returns an LRU bounded to the given capacity (spec default: vacuumCacheSize = 100000).
func NewLRU(capacity int) *LRU {
	return &LRU{
		capacity: capacity,
		lookup:   make(map[string]*lruCacheEntry, capacity),
		order:    newDoublyLinkedList(),
	}
}

// Put inserts or updates the entry for id, marking it most-recently-used.
func (l *LRU) Put(id string, e LRUEntry) {
	if existing, ok := l.lookup[id]; ok {
		existing.entry = e
		l.order.delete(existing.n)
		existing.n = l.order.addToHead(id)
		return
	}
	n := l.order.addToHead(id)
	l.lookup[id] = &lruCacheEntry{entry: e, n: n}
	l.evictIfFull()
}

// Get returns the entry for id and whether it is present, marking it most-recently-used.
func (l *LRU) Get(id string) (LRUEntry, bool) {
	v, ok := l.lookup[id]
	if !ok {
		return LRUEntry{}, false
	}
	l.order.delete(v.n)
	v.n = l.order.addToHead(id)
	return v.entry, true
}

// Count returns the number of ids currently tracked.
func (l *LRU) Count() int {
	return len(l.lookup)
}

func (l *LRU) evictIfFull() {
	for l.order.count() > l.capacity {
		id, ok := l.order.deleteFromTail()
		if !ok {
			break
		}
		v, found := l.lookup[id]
		delete(l.lookup, id)
		if found && l.OnEvict != nil {
			l.OnEvict(id, v.entry)
		}
	}
}
