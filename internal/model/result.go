package model

import (
	"time"
)

// ProbeState describes how an item's observed state relates to its desired
// state at one point in time.
type ProbeState string

const (
	// StateSatisfied means the desired state is already in place.
	StateSatisfied ProbeState = "satisfied"
	// StateUnsatisfied means the desired state is absent or drifted.
	StateUnsatisfied ProbeState = "unsatisfied"
	// StateIndeterminate means the probe could not produce a verdict.
	StateIndeterminate ProbeState = "indeterminate"
	// StateUnknown means the item was never probed.
	StateUnknown ProbeState = "unknown"
)

// Outcome is the terminal disposition of one item's reconciliation.
type Outcome string

const (
	// OutcomeSatisfied: the probe was satisfied up front, nothing ran.
	OutcomeSatisfied Outcome = "already_satisfied"
	// OutcomeApplied: the action ran and verification passed.
	OutcomeApplied Outcome = "applied"
	// OutcomeWouldApply: dry-run, the action would have run.
	OutcomeWouldApply Outcome = "would_apply"
	// OutcomeWarning: the probe was indeterminate, the item was left alone.
	OutcomeWarning Outcome = "warning"
	// OutcomeSkipped: the item's condition excluded it on this host.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeBlocked: a dependency failed, the item was not attempted.
	OutcomeBlocked Outcome = "blocked"
	// OutcomeFailed: apply or verification failed.
	OutcomeFailed Outcome = "failed"
)

// FailReason distinguishes failure modes that read the same at a glance but
// need different remediation.
type FailReason string

const (
	ReasonNone         FailReason = ""
	ReasonProbeError   FailReason = "probe_error"
	ReasonApplyFailed  FailReason = "apply_failed"
	ReasonVerifyFailed FailReason = "verify_failed"
	ReasonTimeout      FailReason = "timeout"
	ReasonSpawn        FailReason = "spawn_error"
)

// ItemResult captures the outcome of reconciling a single item. Results are
// appended to the run report in execution order.
type ItemResult struct {
	ItemID       string
	Name         string
	Critical     bool
	InitialState ProbeState
	FinalState   ProbeState
	Outcome      Outcome
	Reason       FailReason
	Applied      bool
	Message      string
	Hint         string
	Diff         string
	Err          error
	Duration     time.Duration
	Timestamp    time.Time
}

// Failed reports whether the item ended in failure.
func (r ItemResult) Failed() bool {
	return r.Outcome == OutcomeFailed
}
