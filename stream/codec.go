package stream

import (
	"encoding/json"
	"fmt"

	"github.com/yosbelms/coldbase"
)

// EncodeRecord serializes a Record as a JSON array [id, data, ts], one element per
// spec §6.3. data is JSON null for a tombstone.
func EncodeRecord(r coldbase.Record) ([]byte, error) {
	arr := [3]any{r.ID, r.Data, r.TS}
	return json.Marshal(arr)
}

// EncodeBatch serializes a batch of records as the JSON array mutation blobs are
// written as (spec §4.5 step 2, §6.3).
func EncodeBatch(records []coldbase.Record) ([]byte, error) {
	arrs := make([][3]any, len(records))
	for i, r := range records {
		arrs[i] = [3]any{r.ID, r.Data, r.TS}
	}
	return json.Marshal(arrs)
}

// DecodeRecord parses a single NDJSON line (a JSON array) into a Record. Two-element
// arrays (no ts) are accepted for backward compatibility with older records that
// predate the ts column (spec §6.3); ts defaults to 0 in that case.
func DecodeRecord(line []byte) (coldbase.Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return coldbase.Record{}, fmt.Errorf("malformed record: %w", err)
	}
	if len(raw) < 2 {
		return coldbase.Record{}, fmt.Errorf("malformed record: expected at least 2 elements, got %d", len(raw))
	}
	var id string
	if err := json.Unmarshal(raw[0], &id); err != nil {
		return coldbase.Record{}, fmt.Errorf("malformed record id: %w", err)
	}
	var data map[string]any
	if string(raw[1]) != "null" {
		if err := json.Unmarshal(raw[1], &data); err != nil {
			return coldbase.Record{}, fmt.Errorf("malformed record data: %w", err)
		}
	}
	var ts int64
	if len(raw) >= 3 {
		if err := json.Unmarshal(raw[2], &ts); err != nil {
			return coldbase.Record{}, fmt.Errorf("malformed record ts: %w", err)
		}
	}
	return coldbase.Record{ID: id, Data: data, TS: ts}, nil
}

// DecodeBatch parses a mutation blob body (a JSON array of records) into Records.
func DecodeBatch(body []byte) ([]coldbase.Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed mutation batch: %w", err)
	}
	records := make([]coldbase.Record, 0, len(raw))
	for _, line := range raw {
		r, err := DecodeRecord(line)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
