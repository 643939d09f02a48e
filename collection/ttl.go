package collection

// isExpired reports whether data[ttlField] is set and less than nowMs (spec §4.6
// TTL rule). A collection without a TTLField never expires records.
func isExpired(data map[string]any, ttlField string, nowMs int64) bool {
	if ttlField == "" || data == nil {
		return false
	}
	v, ok := data[ttlField]
	if !ok {
		return false
	}
	ts, ok := toUnixMillis(v)
	if !ok {
		return false
	}
	return ts < nowMs
}

// toUnixMillis coerces a TTL field value to an int64. Decoded records carry JSON
// numbers as float64; a caller may also pass a native int/int64 before the first
// encode round trip.
func toUnixMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
