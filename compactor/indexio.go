package compactor

import "encoding/json"

func marshalIndex(index map[string]indexEntry) ([]byte, error) {
	return json.Marshal(index)
}

// UnmarshalIndex parses a C.idx blob body into the id -> {offset,length} map
// (spec §3). Exported so the collection read path can load it directly.
func UnmarshalIndex(data []byte) (map[string]IndexEntry, error) {
	raw := make(map[string]indexEntry)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]IndexEntry, len(raw))
	for id, e := range raw {
		out[id] = IndexEntry{Offset: e.Offset, Length: e.Length}
	}
	return out, nil
}

// IndexEntry is the exported form of indexEntry, consumed by package collection's
// fast-path Get (spec §4.6).
type IndexEntry struct {
	Offset int64
	Length int64
}
