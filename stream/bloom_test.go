package stream

import "testing"

func TestBloomFilterMembership(t *testing.T) {
	b := NewBloomFilter(100, 0.01)
	b.Add("a")
	b.Add("b")
	if !b.MightContain("a") || !b.MightContain("b") {
		t.Fatalf("expected inserted ids to test positive")
	}
}

func TestBloomFilterMarshalRoundTrip(t *testing.T) {
	b := NewBloomFilter(100, 0.01)
	b.Add("a")
	data, err := b.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b2, err := UnmarshalBloomFilter(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !b2.MightContain("a") {
		t.Fatalf("expected round-tripped filter to contain inserted id")
	}
	if b2.ExpectedItems != 100 || b2.FalsePositiveRate != 0.01 {
		t.Fatalf("unexpected params after round trip: %+v", b2)
	}
}
