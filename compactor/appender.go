package compactor

import (
	"bytes"
	"context"

	"github.com/yosbelms/coldbase/blobstore"
)

// bufferedAppender accumulates NDJSON lines and flushes them to a blob via
// Store.Append once the buffer reaches threshold bytes (spec §4.2 step 1c). Lines
// within one flush are joined by "\n" internally; Append itself inserts the
// separator between the old blob content and each flush's data.
type bufferedAppender struct {
	store     blobstore.Store
	key       string
	threshold int
	buf       bytes.Buffer
}

func newBufferedAppender(store blobstore.Store, key string, threshold int) *bufferedAppender {
	return &bufferedAppender{store: store, key: key, threshold: threshold}
}

// WriteLine adds one NDJSON line to the buffer, then flushes if the buffer has
// reached the threshold.
func (a *bufferedAppender) WriteLine(ctx context.Context, line []byte) error {
	if a.buf.Len() > 0 {
		a.buf.WriteByte('\n')
	}
	a.buf.Write(line)
	if a.buf.Len() >= a.threshold {
		return a.Flush(ctx)
	}
	return nil
}

// Flush writes any buffered lines to the underlying blob via Append and resets the buffer.
func (a *bufferedAppender) Flush(ctx context.Context) error {
	if a.buf.Len() == 0 {
		return nil
	}
	if err := a.store.Append(ctx, a.key, a.buf.Bytes()); err != nil {
		return err
	}
	a.buf.Reset()
	return nil
}
