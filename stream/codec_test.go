package stream

import (
	"testing"

	"github.com/yosbelms/coldbase"
)

func TestEncodeDecodeRecordRoundTrip(t *testing.T) {
	r := coldbase.Record{ID: "1", Data: map[string]any{"id": "1", "name": "Alice"}, TS: 100}
	enc, err := EncodeRecord(r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := DecodeRecord(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.ID != r.ID || dec.TS != r.TS || dec.Data["name"] != "Alice" {
		t.Fatalf("round trip mismatch: got %+v", dec)
	}
}

func TestDecodeRecordTombstone(t *testing.T) {
	r := coldbase.Record{ID: "1", Data: nil, TS: 200}
	enc, err := EncodeRecord(r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := DecodeRecord(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !dec.IsTombstone() {
		t.Fatalf("expected tombstone, got %+v", dec)
	}
}

func TestDecodeRecordTwoElementLegacy(t *testing.T) {
	dec, err := DecodeRecord([]byte(`["1",{"id":"1","v":1}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.TS != 0 || dec.ID != "1" {
		t.Fatalf("unexpected legacy decode: %+v", dec)
	}
}

func TestDecodeRecordMalformed(t *testing.T) {
	if _, err := DecodeRecord([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed record")
	}
}

func TestEncodeDecodeBatch(t *testing.T) {
	records := []coldbase.Record{
		{ID: "1", Data: map[string]any{"id": "1"}, TS: 1},
		{ID: "2", Data: nil, TS: 2},
	}
	enc, err := EncodeBatch(records)
	if err != nil {
		t.Fatalf("encode batch: %v", err)
	}
	dec, err := DecodeBatch(enc)
	if err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if len(dec) != 2 || dec[0].ID != "1" || !dec[1].IsTombstone() {
		t.Fatalf("batch round trip mismatch: %+v", dec)
	}
}
