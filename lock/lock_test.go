package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yosbelms/coldbase"
	"github.com/yosbelms/coldbase/blobstore/memstore"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	cfg := DefaultConfig()

	lease, err := Acquire(ctx, store, "C.lock", "session-1", cfg, 0, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	Release(ctx, store, lease)

	status, err := GetStatus(ctx, store, "C.lock")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Held {
		t.Fatalf("expected lock to be released, got %+v", status)
	}
}

func TestConcurrentAcquireFailsWithLockActive(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	cfg := DefaultConfig()

	lease1, err := Acquire(ctx, store, "C.lock", "session-1", cfg, 0, 0)
	if err != nil {
		t.Fatalf("acquire 1: %v", err)
	}

	_, err = Acquire(ctx, store, "C.lock", "session-2", cfg, 0, 0)
	var lockErr coldbase.LockActiveError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected LockActiveError, got %v", err)
	}

	Release(ctx, store, lease1)

	// After release, a new acquire should succeed.
	lease3, err := Acquire(ctx, store, "C.lock", "session-3", cfg, 0, 0)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	Release(ctx, store, lease3)
}

func TestExpiredLockTakeover(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	cfg := DefaultConfig()

	realNow := coldbase.Now
	defer func() { coldbase.Now = realNow }()

	past := time.UnixMilli(1000)
	coldbase.Now = func() time.Time { return past }
	lease1, err := Acquire(ctx, store, "C.lock", "session-1", Config{LeaseDurationMs: 10}, 0, 0)
	if err != nil {
		t.Fatalf("acquire 1: %v", err)
	}
	_ = lease1

	// Advance time well past expiry and attempt takeover.
	future := past.Add(1 * time.Hour)
	coldbase.Now = func() time.Time { return future }
	lease2, err := Acquire(ctx, store, "C.lock", "session-2", cfg, 0, 0)
	if err != nil {
		t.Fatalf("expected takeover to succeed, got %v", err)
	}
	if lease2.SessionID != "session-2" {
		t.Fatalf("expected session-2 to hold lock, got %s", lease2.SessionID)
	}
}

func TestAdaptiveLeaseSizing(t *testing.T) {
	cfg := Config{LeaseDurationMs: 1000, MaxLeaseDurationMs: 5000, LeasePerByte: 1, LeasePerMutation: 100, AdaptiveLease: true}
	got := EstimateLeaseMs(cfg, 10, 5)
	want := int64(1000 + 10 + 500)
	if got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestAdaptiveLeaseCapsAtMax(t *testing.T) {
	cfg := Config{LeaseDurationMs: 1000, MaxLeaseDurationMs: 2000, LeasePerByte: 100, LeasePerMutation: 0, AdaptiveLease: true}
	got := EstimateLeaseMs(cfg, 1000, 0)
	if got != 2000 {
		t.Fatalf("expected lease capped at 2000, got %d", got)
	}
}

func TestAdaptiveLeaseDisabled(t *testing.T) {
	cfg := Config{LeaseDurationMs: 1000, AdaptiveLease: false}
	if got := EstimateLeaseMs(cfg, 1_000_000, 1_000_000); got != 1000 {
		t.Fatalf("expected flat lease duration, got %d", got)
	}
}
