package collection

import "github.com/yosbelms/coldbase/compactor"

// unmarshalIndex parses a C.idx blob body and narrows compactor's exported
// IndexEntry to this package's local indexEntry (kept separate so Collection's
// public surface doesn't re-export compactor's wire type).
func unmarshalIndex(body []byte) (map[string]indexEntry, error) {
	raw, err := compactor.UnmarshalIndex(body)
	if err != nil {
		return nil, err
	}
	out := make(map[string]indexEntry, len(raw))
	for id, e := range raw {
		out[id] = indexEntry{Offset: e.Offset, Length: e.Length}
	}
	return out, nil
}
