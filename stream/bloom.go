package stream

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"github.com/bits-and-blooms/bloom/v3"
)

// BloomFilter is a serializable bloom filter of live ids, sized from
// (expectedItems, falsePositiveRate) per spec §3.
type BloomFilter struct {
	filter            *bloom.BloomFilter
	ExpectedItems     uint
	FalsePositiveRate float64
}

// bloomWire is the base64-encoded-bit-array-plus-parameters wire format (spec §3).
type bloomWire struct {
	Bits              string  `json:"bits"`
	ExpectedItems     uint    `json:"expectedItems"`
	FalsePositiveRate float64 `json:"falsePositiveRate"`
}

// NewBloomFilter sizes a new, empty bloom filter from the standard formula.
func NewBloomFilter(expectedItems uint, falsePositiveRate float64) *BloomFilter {
	return &BloomFilter{
		filter:            bloom.NewWithEstimates(expectedItems, falsePositiveRate),
		ExpectedItems:     expectedItems,
		FalsePositiveRate: falsePositiveRate,
	}
}

// Add inserts id into the filter.
func (b *BloomFilter) Add(id string) {
	b.filter.AddString(id)
}

// MightContain reports whether id may be present (false positives possible, false
// negatives impossible, per spec testable property P6).
func (b *BloomFilter) MightContain(id string) bool {
	return b.filter.TestString(id)
}

// Marshal serializes the filter to its wire format: base64 bit array plus the two
// sizing parameters (spec §3).
func (b *BloomFilter) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := b.filter.WriteTo(&buf); err != nil {
		return nil, err
	}
	w := bloomWire{
		Bits:              base64.StdEncoding.EncodeToString(buf.Bytes()),
		ExpectedItems:     b.ExpectedItems,
		FalsePositiveRate: b.FalsePositiveRate,
	}
	return json.Marshal(w)
}

// UnmarshalBloomFilter parses a filter previously produced by Marshal.
func UnmarshalBloomFilter(data []byte) (*BloomFilter, error) {
	var w bloomWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(w.Bits)
	if err != nil {
		return nil, err
	}
	f := &bloom.BloomFilter{}
	if _, err := f.ReadFrom(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return &BloomFilter{
		filter:            f,
		ExpectedItems:     w.ExpectedItems,
		FalsePositiveRate: w.FalsePositiveRate,
	}, nil
}
