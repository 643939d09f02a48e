// Package collection implements Coldbase's read/write engine: writes funnel into
// append-only mutation blobs, reads merge the compacted snapshot with any pending
// mutations, and maintenance (compaction/vacuum) is dispatched probabilistically in
// the background after each write (spec §4.5-§4.7).
package collection
