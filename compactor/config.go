package compactor

import "github.com/yosbelms/coldbase/lock"

// Config tunes the compactor's I/O batching and maintenance of the optional
// read-path accelerators (spec §4.2-§4.4).
type Config struct {
	// Parallelism bounds concurrent mutation blob fetches during compaction.
	Parallelism int
	// CopyBufferSize is the in-memory write buffer threshold (bytes) before a flush
	// via Append to the snapshot.
	CopyBufferSize int
	// DeleteChunkSize bounds how many processed mutation keys are deleted per call.
	DeleteChunkSize int
	// VacuumCacheSize bounds vacuum's LRU of id -> last occurrence.
	VacuumCacheSize int
	// UseIndex enables rebuilding the byte-offset index after compact/vacuum.
	UseIndex bool
	// UseBloomFilter enables rebuilding the bloom filter after compact/vacuum.
	UseBloomFilter bool
	// BloomExpectedItems and BloomFalsePositiveRate size the rebuilt bloom filter.
	BloomExpectedItems     uint
	BloomFalsePositiveRate float64
	// Lock configures the lease used to serialize compaction/vacuum (spec §4.1).
	Lock lock.Config
}

// DefaultConfig matches the literal defaults named throughout spec §4.
func DefaultConfig() Config {
	return Config{
		Parallelism:            5,
		CopyBufferSize:         64 * 1024,
		DeleteChunkSize:        100,
		VacuumCacheSize:        100_000,
		UseIndex:               true,
		UseBloomFilter:         true,
		BloomExpectedItems:     100_000,
		BloomFalsePositiveRate: 0.01,
		Lock:                   lock.DefaultConfig(),
	}
}
