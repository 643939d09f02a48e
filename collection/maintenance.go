package collection

import (
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/yosbelms/coldbase"
	"github.com/yosbelms/coldbase/blobstore"
	"github.com/yosbelms/coldbase/compactor"
)

// scheduleMaintenance fires autoCompact/autoVacuum in the background after a
// write (spec §4.7). It runs on its own context so a caller's request context
// ending does not abort in-flight maintenance.
func (c *Collection) scheduleMaintenance() {
	if c.cfg.AutoCompact.Mode == MaintenanceDisabled && c.cfg.AutoVacuum.Mode == MaintenanceDisabled {
		return
	}
	go c.runScheduledMaintenance(context.Background())
}

func (c *Collection) runScheduledMaintenance(ctx context.Context) {
	compacted := false
	if c.shouldFire(ctx, c.cfg.AutoCompact) {
		err := c.runMaintenance(ctx, "compact", c.cfg.AutoCompact, func(ctx context.Context) error {
			_, err := compactor.Compact(ctx, c.store, c.cfg.Name, c.cfg.SessionID, c.cfg.Compactor)
			return err
		})
		compacted = err == nil
	}

	vacuumFn := func(ctx context.Context) error {
		_, err := compactor.Vacuum(ctx, c.store, c.cfg.Name, c.cfg.SessionID, c.cfg.Compactor)
		return err
	}
	if c.shouldFire(ctx, c.cfg.AutoVacuum.MaintenanceTrigger) {
		c.runMaintenance(ctx, "vacuum", c.cfg.AutoVacuum.MaintenanceTrigger, vacuumFn)
		return
	}
	if compacted && coldbase.Chance(c.cfg.AutoVacuum.AfterCompactProbability) {
		c.runMaintenance(ctx, "vacuum", c.cfg.AutoVacuum.MaintenanceTrigger, vacuumFn)
	}
}

// shouldFire evaluates one trigger's roll (spec §4.7).
func (c *Collection) shouldFire(ctx context.Context, trigger MaintenanceTrigger) bool {
	switch trigger.Mode {
	case MaintenanceDisabled:
		return false
	case MaintenanceAlways:
		return true
	case MaintenanceProbabilistic:
		if !coldbase.Chance(trigger.Probability) {
			return false
		}
		if trigger.MutationThreshold <= 0 {
			return true
		}
		mutationKeys, err := blobstore.ListAll(ctx, c.store, c.keys.MutationPrefix())
		if err != nil {
			log.Warn("maintenance trigger: failed to list mutations", "collection", c.cfg.Name, "error", err)
			return false
		}
		return len(mutationKeys) >= trigger.MutationThreshold
	default:
		return false
	}
}

// runMaintenance runs fn, retrying non-LockActive failures with exponential
// backoff and jitter up to MaxRetries times (spec §4.7). A LockActiveError is
// silently skipped, matching "another session is already maintaining this
// collection" rather than a failure worth alerting on.
func (c *Collection) runMaintenance(ctx context.Context, op string, trigger MaintenanceTrigger, fn func(ctx context.Context) error) error {
	var lastErr error
	attempts := 0
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var lockErr coldbase.LockActiveError
		if errors.As(err, &lockErr) {
			log.Debug("maintenance skipped, lock active", "collection", c.cfg.Name, "op", op)
			return err
		}
		lastErr = err
		attempts++
		if attempts > trigger.MaxRetries {
			break
		}
		coldbase.Sleep(ctx, coldbase.BackoffDelay(time.Duration(trigger.RetryDelayMs)*time.Millisecond, attempts-1))
	}

	log.Warn("maintenance failed", "collection", c.cfg.Name, "op", op, "attempts", attempts, "error", lastErr)
	if c.cfg.OnError != nil {
		c.cfg.OnError(c.cfg.Name, lastErr)
	}
	if c.cfg.OnMaintenanceFailure != nil {
		c.cfg.OnMaintenanceFailure(c.cfg.Name, op, lastErr, attempts)
	}
	return lastErr
}
