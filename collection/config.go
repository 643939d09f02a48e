package collection

import (
	"github.com/yosbelms/coldbase"
	"github.com/yosbelms/coldbase/compactor"
)

// MaintenanceMode selects how a maintenance trigger decides to fire (spec §4.7).
type MaintenanceMode int

const (
	// MaintenanceDisabled never fires.
	MaintenanceDisabled MaintenanceMode = iota
	// MaintenanceAlways fires unconditionally after every write.
	MaintenanceAlways
	// MaintenanceProbabilistic fires per Probability/MutationThreshold.
	MaintenanceProbabilistic
)

// MaintenanceTrigger configures autoCompact/autoVacuum dispatch (spec §4.7).
type MaintenanceTrigger struct {
	Mode MaintenanceMode
	// Probability is the roll threshold: fires only if rand() < Probability.
	Probability float64
	// MutationThreshold, if > 0, additionally requires at least this many currently
	// listed mutation blobs.
	MutationThreshold int
	// MaxRetries bounds retry attempts after a non-LockActive failure.
	MaxRetries int
	// RetryDelayMs is the base exponential-backoff-with-jitter delay.
	RetryDelayMs int64
}

// DisabledTrigger never fires.
func DisabledTrigger() MaintenanceTrigger { return MaintenanceTrigger{Mode: MaintenanceDisabled} }

// AlwaysTrigger fires after every write.
func AlwaysTrigger() MaintenanceTrigger { return MaintenanceTrigger{Mode: MaintenanceAlways} }

// ProbabilisticTrigger fires per the given probability/threshold/retry policy.
func ProbabilisticTrigger(probability float64, mutationThreshold, maxRetries int, retryDelayMs int64) MaintenanceTrigger {
	return MaintenanceTrigger{
		Mode:              MaintenanceProbabilistic,
		Probability:       probability,
		MutationThreshold: mutationThreshold,
		MaxRetries:        maxRetries,
		RetryDelayMs:      retryDelayMs,
	}
}

// VacuumTrigger extends MaintenanceTrigger with the "roll again after a successful
// compaction" behavior unique to autoVacuum (spec §4.7).
type VacuumTrigger struct {
	MaintenanceTrigger
	// AfterCompactProbability: on a successful auto-compaction, fire vacuum iff
	// rand() < AfterCompactProbability, independent of the trigger's own roll.
	AfterCompactProbability float64
}

// DefaultCompactTrigger matches the spec's recommended serverless preset.
func DefaultCompactTrigger() MaintenanceTrigger {
	return ProbabilisticTrigger(0.10, 5, 2, 1000)
}

// DefaultVacuumTrigger matches the spec's recommended serverless preset.
func DefaultVacuumTrigger() VacuumTrigger {
	return VacuumTrigger{
		MaintenanceTrigger:      ProbabilisticTrigger(0.01, 0, 2, 1000),
		AfterCompactProbability: 0.10,
	}
}

// Config tunes one Collection instance (spec §4.5-§4.7). Name is validated against
// spec §3's collection-name pattern by New.
type Config struct {
	Name string
	// SessionID identifies this process/instance to the lease lock when this
	// collection dispatches its own compaction/vacuum.
	SessionID string
	// MaxMutationSize caps one batch's encoded size (spec §3, default 10 MiB).
	MaxMutationSize int
	// TTLField, if set, names the unix-millis field that marks a record expired.
	TTLField string
	// ReadChunkSize/ReadFanout tune the mutation-fetch phase of every read (spec
	// §4.6 step 3, defaults 50/10).
	ReadChunkSize int
	ReadFanout    int

	Retry     coldbase.RetryPolicy
	Compactor compactor.Config

	AutoCompact MaintenanceTrigger
	AutoVacuum  VacuumTrigger

	// OnWrite fires after every successful writeMutations call.
	OnWrite func(collection string, count int)
	// OnError fires whenever a background maintenance run exhausts its retries.
	OnError func(collection string, err error)
	// OnMaintenanceFailure additionally reports which operation failed and after
	// how many attempts, for operator alerting.
	OnMaintenanceFailure func(collection string, op string, err error, attempts int)
}

// DefaultConfig returns the spec's named defaults for collection name.
func DefaultConfig(name string) Config {
	return Config{
		Name:            name,
		SessionID:       coldbase.NewUUID().String(),
		MaxMutationSize: 10 * 1024 * 1024,
		ReadChunkSize:   50,
		ReadFanout:      10,
		Retry:           coldbase.DefaultRetryPolicy(),
		Compactor:       compactor.DefaultConfig(),
		AutoCompact:     DefaultCompactTrigger(),
		AutoVacuum:      DefaultVacuumTrigger(),
	}
}
