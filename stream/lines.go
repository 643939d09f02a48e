package stream

// Line is one NDJSON line together with its byte offset and length within the blob
// it was split from (excluding the trailing newline), matching the unit the index
// rebuild and fast-path Get use to slice C.jsonl (spec §9 open question 1: bytes).
type Line struct {
	Offset int64
	Length int64
	Bytes  []byte
}

// SplitLines splits body into newline-delimited lines, tracking each line's byte
// offset and length. A trailing empty line (from a final newline) is omitted.
func SplitLines(body []byte) []Line {
	var lines []Line
	var offset int64
	start := 0
	for i, b := range body {
		if b == '\n' {
			if i > start {
				lines = append(lines, Line{
					Offset: offset,
					Length: int64(i - start),
					Bytes:  body[start:i],
				})
			}
			offset = int64(i + 1)
			start = i + 1
		}
	}
	if start < len(body) {
		lines = append(lines, Line{
			Offset: offset,
			Length: int64(len(body) - start),
			Bytes:  body[start:],
		})
	}
	return lines
}

// Slice extracts the byte span [offset, offset+length) from body, the same way the
// index's fast-path Get reconstructs a single record without a full scan.
func Slice(body []byte, offset, length int64) ([]byte, bool) {
	if offset < 0 || length < 0 || offset+length > int64(len(body)) {
		return nil, false
	}
	return body[offset : offset+length], true
}
