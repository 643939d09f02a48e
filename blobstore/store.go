package blobstore

import (
	"context"
	"errors"
)

// Version is an opaque version token (an ETag or filesystem mtime, depending on the
// concrete adapter). The lease lock is the only component that inspects it, and only
// for equality against a previously observed value.
type Version string

// ErrPreconditionFailed is returned by PutIfNoneMatch/PutIfMatch when the conditional
// write loses its race: the key already exists (PutIfNoneMatch) or the current version
// does not match the expected one (PutIfMatch).
var ErrPreconditionFailed = errors.New("blobstore: precondition failed")

// ErrNotFound is returned by Get/Size when the key does not exist.
var ErrNotFound = errors.New("blobstore: not found")

// ListResult is one page of a prefix listing.
type ListResult struct {
	Keys       []string
	NextCursor string
}

// Store is the abstract Blob Store contract (spec §6.1). All keys are UTF-8 strings.
// A conforming implementation must honor the two conditional-write primitives exactly:
// they are the only thing the lease lock (package lock) depends on.
type Store interface {
	// Put unconditionally overwrites the blob at key.
	Put(ctx context.Context, key string, body []byte) error

	// PutIfNoneMatch creates key only if it does not already exist, failing with
	// ErrPreconditionFailed otherwise. Returns the new version on success.
	PutIfNoneMatch(ctx context.Context, key string, body []byte) (Version, error)

	// PutIfMatch overwrites key only if its current version equals the given version,
	// failing with ErrPreconditionFailed if the version differs or the key is absent.
	// Returns the new version on success.
	PutIfMatch(ctx context.Context, key string, body []byte, version Version) (Version, error)

	// Get fetches the current body and version of key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, Version, error)

	// List enumerates keys with the given prefix, one page at a time. Pass the
	// previous call's NextCursor to continue; an empty NextCursor means enumeration
	// is complete. Order is unspecified.
	List(ctx context.Context, prefix string, cursor string) (ListResult, error)

	// Delete removes the given keys. It is idempotent: absent keys are ignored.
	Delete(ctx context.Context, keys []string) error

	// Size returns the content length in bytes of key, or ErrNotFound if absent.
	Size(ctx context.Context, key string) (int64, error)

	// Append performs a logical append: if key exists and is non-empty the result is
	// old-content + "\n" + data; if key is absent or empty the result is just data
	// (spec §6.1, §9 open question 2).
	Append(ctx context.Context, key string, data []byte) error
}

// ListAll exhausts List across all pages, returning the complete set of keys under prefix.
func ListAll(ctx context.Context, store Store, prefix string) ([]string, error) {
	var all []string
	cursor := ""
	for {
		page, err := store.List(ctx, prefix, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Keys...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return all, nil
}
