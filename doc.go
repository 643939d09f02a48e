// Package coldbase defines the core types, error taxonomy, retry helpers,
// and UUID/clock primitives shared across the Coldbase engine. Concrete
// read/write behavior lives in subpackages: blobstore (storage contract),
// stream (codec/bloom/LRU/fan-out utilities), lock (lease-based mutual
// exclusion), compactor (log compaction & vacuum), collection (the
// document read/write engine), and vector (brute-force similarity search).
//
// This package is foundational: other packages depend on it, it depends on
// none of them.
package coldbase
