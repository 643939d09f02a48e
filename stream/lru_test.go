package stream

import "testing"

func TestLRUPutGet(t *testing.T) {
	l := NewLRU(10)
	l.Put("a", LRUEntry{LineNum: 1})
	l.Put("b", LRUEntry{LineNum: 2, Deleted: true})
	if e, ok := l.Get("a"); !ok || e.LineNum != 1 {
		t.Fatalf("unexpected entry for a: %+v, ok=%v", e, ok)
	}
	if e, ok := l.Get("b"); !ok || !e.Deleted {
		t.Fatalf("unexpected entry for b: %+v, ok=%v", e, ok)
	}
	if l.Count() != 2 {
		t.Fatalf("expected count 2, got %d", l.Count())
	}
}

func TestLRUEvictionReportsOverflow(t *testing.T) {
	var evicted []string
	l := NewLRU(1)
	l.OnEvict = func(id string, e LRUEntry) { evicted = append(evicted, id) }

	l.Put("a", LRUEntry{LineNum: 1})
	l.Put("b", LRUEntry{LineNum: 2})
	l.Put("c", LRUEntry{LineNum: 3})

	if len(evicted) != 2 || evicted[0] != "a" || evicted[1] != "b" {
		t.Fatalf("unexpected eviction order: %v", evicted)
	}
	if _, ok := l.Get("c"); !ok {
		t.Fatalf("expected most recent entry c to still be present")
	}
	if l.Count() != 1 {
		t.Fatalf("expected count 1 after eviction, got %d", l.Count())
	}
}

func TestLRUUpdateMovesToHead(t *testing.T) {
	var evicted []string
	l := NewLRU(2)
	l.OnEvict = func(id string, e LRUEntry) { evicted = append(evicted, id) }

	l.Put("a", LRUEntry{LineNum: 1})
	l.Put("b", LRUEntry{LineNum: 2})
	// Touch "a" so it becomes MRU again; "b" should be evicted next, not "a".
	l.Get("a")
	l.Put("c", LRUEntry{LineNum: 3})

	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("expected b to be evicted, got %v", evicted)
	}
}
