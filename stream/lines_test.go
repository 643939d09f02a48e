package stream

import "testing"

func TestSplitLinesOffsets(t *testing.T) {
	body := []byte("abc\ndefg\n")
	lines := SplitLines(body)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Offset != 0 || lines[0].Length != 3 || string(lines[0].Bytes) != "abc" {
		t.Fatalf("unexpected first line: %+v", lines[0])
	}
	if lines[1].Offset != 4 || lines[1].Length != 4 || string(lines[1].Bytes) != "defg" {
		t.Fatalf("unexpected second line: %+v", lines[1])
	}
}

func TestSplitLinesNoTrailingNewline(t *testing.T) {
	body := []byte("abc\ndef")
	lines := SplitLines(body)
	if len(lines) != 2 || string(lines[1].Bytes) != "def" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestSliceRoundTrip(t *testing.T) {
	body := []byte("abc\ndefg\n")
	lines := SplitLines(body)
	for _, l := range lines {
		got, ok := Slice(body, l.Offset, l.Length)
		if !ok || string(got) != string(l.Bytes) {
			t.Fatalf("slice mismatch: got %q want %q", got, l.Bytes)
		}
	}
}

func TestSliceOutOfRange(t *testing.T) {
	if _, ok := Slice([]byte("abc"), 0, 10); ok {
		t.Fatalf("expected out-of-range slice to fail")
	}
}
