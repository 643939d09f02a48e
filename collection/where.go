package collection

// matchWhere reports whether data contains every field of where with an equal
// value (spec §4.6 find: "partial-object equality match over all given fields").
func matchWhere(data map[string]any, where map[string]any) bool {
	for k, want := range where {
		got, ok := data[k]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares two field values for equality, treating any combination of
// the numeric kinds a caller-built filter or a JSON-decoded record might hold
// (int, int64, float64) as the same number rather than failing on Go's strict
// inter-numeric-type equality.
func valuesEqual(a, b any) bool {
	af, aok := asFloat64(a)
	bf, bok := asFloat64(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
