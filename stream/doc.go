// Package stream provides the leaf utilities the storage engine is built from:
// a monotonic millisecond clock, the NDJSON record codec, a byte-offset-tracking
// line splitter, a bloom filter wrapper, a bounded LRU used by vacuum, and a
// bounded-parallel fan-out helper used by the compactor and the read path.
package stream
