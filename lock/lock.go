package lock

import (
	"context"
	"encoding/json"
	log "log/slog"

	"github.com/yosbelms/coldbase"
	"github.com/yosbelms/coldbase/blobstore"
)

// Config tunes adaptive lease sizing (spec §4.1 step 1).
type Config struct {
	// LeaseDurationMs is the base lease duration.
	LeaseDurationMs int64
	// MaxLeaseDurationMs caps the adaptive lease.
	MaxLeaseDurationMs int64
	// LeasePerByte adds this many ms per byte of the snapshot when AdaptiveLease is on.
	LeasePerByte float64
	// LeasePerMutation adds this many ms per pending mutation when AdaptiveLease is on.
	LeasePerMutation float64
	// AdaptiveLease enables sizing the lease from file size and mutation count.
	AdaptiveLease bool
}

// DefaultConfig matches the spec's implied defaults for a single compaction pass.
func DefaultConfig() Config {
	return Config{
		LeaseDurationMs:    30_000,
		MaxLeaseDurationMs: 300_000,
		LeasePerByte:       0.001, // 1ms per KB
		LeasePerMutation:   50,
		AdaptiveLease:      true,
	}
}

// meta is the lock blob's JSON body: {sessionId, expiresAt} (spec §3).
type meta struct {
	SessionID string `json:"sessionId"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Lease represents a held lock, returned by Acquire and consumed by Release.
type Lease struct {
	Key       string
	SessionID string
	ExpiresAt int64
	version   blobstore.Version
}

// EstimateLeaseMs computes the adaptive lease duration from spec §4.1 step 1:
// min(maxLeaseDurationMs, leaseDurationMs + fileSize*leasePerByte + mutationCount*leasePerMutation)
// when AdaptiveLease is enabled, otherwise the flat LeaseDurationMs.
func EstimateLeaseMs(cfg Config, fileSize int64, mutationCount int) int64 {
	if !cfg.AdaptiveLease {
		return cfg.LeaseDurationMs
	}
	extra := float64(fileSize)*cfg.LeasePerByte + float64(mutationCount)*cfg.LeasePerMutation
	lease := cfg.LeaseDurationMs + int64(extra)
	if cfg.MaxLeaseDurationMs > 0 && lease > cfg.MaxLeaseDurationMs {
		lease = cfg.MaxLeaseDurationMs
	}
	return lease
}

// Acquire attempts to take the lease lock at key on behalf of sessionID, sized by
// fileSize (current snapshot size) and mutationCount (spec §4.1 steps 1-5). It
// returns a coldbase.LockActiveError if the lock is held by a live lease.
func Acquire(ctx context.Context, store blobstore.Store, key, sessionID string, cfg Config, fileSize int64, mutationCount int) (*Lease, error) {
	leaseMs := EstimateLeaseMs(cfg, fileSize, mutationCount)
	now := coldbase.Now().UnixMilli()
	m := meta{SessionID: sessionID, ExpiresAt: now + leaseMs}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	version, err := store.PutIfNoneMatch(ctx, key, body)
	if err == nil {
		log.Debug("lock acquired", "key", key, "session", sessionID, "expiresAt", m.ExpiresAt)
		return &Lease{Key: key, SessionID: sessionID, ExpiresAt: m.ExpiresAt, version: version}, nil
	}
	if err != blobstore.ErrPreconditionFailed {
		return nil, err
	}

	// Lost the race to create the key. See who holds it.
	existingBody, existingVersion, getErr := store.Get(ctx, key)
	if getErr == blobstore.ErrNotFound {
		// Held a moment ago, gone now (released and not re-created, or a timing quirk).
		// Retry the create exactly once (spec §4.1 step 3).
		version, err := store.PutIfNoneMatch(ctx, key, body)
		if err == nil {
			return &Lease{Key: key, SessionID: sessionID, ExpiresAt: m.ExpiresAt, version: version}, nil
		}
		return nil, coldbase.LockActiveError{Key: key}
	}
	if getErr != nil {
		return nil, getErr
	}

	var existing meta
	if err := json.Unmarshal(existingBody, &existing); err != nil {
		return nil, err
	}

	if now <= existing.ExpiresAt {
		// Still held and not expired.
		return nil, coldbase.LockActiveError{Key: key}
	}

	// Expired: attempt takeover via CAS on the old version (spec §4.1 step 4).
	newVersion, err := store.PutIfMatch(ctx, key, body, existingVersion)
	if err == blobstore.ErrPreconditionFailed {
		return nil, coldbase.LockActiveError{Key: key}
	}
	if err != nil {
		return nil, err
	}
	log.Debug("lock taken over from expired lease", "key", key, "session", sessionID, "previousSession", existing.SessionID)
	return &Lease{Key: key, SessionID: sessionID, ExpiresAt: m.ExpiresAt, version: newVersion}, nil
}

// Release clears the lease by writing expiresAt=0 (spec §4.1 Release). The lock blob
// is intentionally not deleted so the key remains usable by the next PutIfMatch
// takeover path. Failures are logged and swallowed: the lease will expire naturally.
func Release(ctx context.Context, store blobstore.Store, l *Lease) {
	m := meta{SessionID: l.SessionID, ExpiresAt: 0}
	body, err := json.Marshal(m)
	if err != nil {
		log.Warn("lock release marshal failed", "key", l.Key, "error", err)
		return
	}
	if _, err := store.PutIfMatch(ctx, l.Key, body, l.version); err != nil {
		log.Warn("lock release failed, will expire naturally", "key", l.Key, "error", err)
	}
}

// Status is a read-only lock inspection: get + expiry check, with no CAS attempt.
// Adapted from the teacher Cache interface's IsLocked/IsLockedByOthers read-only
// lock-inspection methods, useful for operators/tests observing lock state without
// attempting acquisition.
type Status struct {
	Held      bool
	SessionID string
	ExpiresAt int64
}

// GetStatus reports the current holder/expiry of the lock at key without attempting
// to acquire it.
func GetStatus(ctx context.Context, store blobstore.Store, key string) (Status, error) {
	body, _, err := store.Get(ctx, key)
	if err == blobstore.ErrNotFound {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	var m meta
	if err := json.Unmarshal(body, &m); err != nil {
		return Status{}, err
	}
	now := coldbase.Now().UnixMilli()
	return Status{
		Held:      now <= m.ExpiresAt,
		SessionID: m.SessionID,
		ExpiresAt: m.ExpiresAt,
	}, nil
}
