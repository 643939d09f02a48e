// Package memstore is an in-memory implementation of the blobstore.Store contract.
// It exists only as a test fixture and local-development reference, the way the
// teacher's own in_memory packages stub out its backend repositories; it is not a
// production blob-store adapter (those are explicitly out of scope, spec §1).
package memstore

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/yosbelms/coldbase/blobstore"
)

type entry struct {
	body    []byte
	version int64
}

// Store is a mutex-guarded in-memory blobstore.Store.
type Store struct {
	mu   sync.Mutex
	data map[string]entry
	seq  int64
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[string]entry)}
}

func (s *Store) nextVersion() blobstore.Version {
	s.seq++
	return blobstore.Version(strconv.FormatInt(s.seq, 10))
}

func (s *Store) Put(ctx context.Context, key string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]byte(nil), body...)
	s.data[key] = entry{body: cp, version: s.bumpLocked()}
	return nil
}

func (s *Store) bumpLocked() int64 {
	s.seq++
	return s.seq
}

func (s *Store) PutIfNoneMatch(ctx context.Context, key string, body []byte) (blobstore.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return "", blobstore.ErrPreconditionFailed
	}
	v := s.bumpLocked()
	s.data[key] = entry{body: append([]byte(nil), body...), version: v}
	return blobstore.Version(strconv.FormatInt(v, 10)), nil
}

func (s *Store) PutIfMatch(ctx context.Context, key string, body []byte, version blobstore.Version) (blobstore.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		return "", blobstore.ErrPreconditionFailed
	}
	if strconv.FormatInt(e.version, 10) != string(version) {
		return "", blobstore.ErrPreconditionFailed
	}
	v := s.bumpLocked()
	s.data[key] = entry{body: append([]byte(nil), body...), version: v}
	return blobstore.Version(strconv.FormatInt(v, 10)), nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, blobstore.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		return nil, "", blobstore.ErrNotFound
	}
	return append([]byte(nil), e.body...), blobstore.Version(strconv.FormatInt(e.version, 10)), nil
}

func (s *Store) List(ctx context.Context, prefix string, cursor string) (blobstore.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	// memstore returns everything in one page; cursor is unused (single pass).
	return blobstore.ListResult{Keys: keys}, nil
}

func (s *Store) Delete(ctx context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *Store) Size(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		return 0, blobstore.ErrNotFound
	}
	return int64(len(e.body)), nil
}

func (s *Store) Append(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok || len(e.body) == 0 {
		s.data[key] = entry{body: append([]byte(nil), data...), version: s.bumpLocked()}
		return nil
	}
	merged := make([]byte, 0, len(e.body)+1+len(data))
	merged = append(merged, e.body...)
	merged = append(merged, '\n')
	merged = append(merged, data...)
	s.data[key] = entry{body: merged, version: s.bumpLocked()}
	return nil
}
