package model

import (
	"time"
)

// RunMode names which catalog list a run walked.
type RunMode string

const (
	ModeProvision RunMode = "provision"
	ModeTeardown  RunMode = "teardown"
	ModeVerify    RunMode = "verify"
)

// RunStatus is the overall disposition of a run.
type RunStatus string

const (
	// RunSuccess: every item satisfied, applied, or deliberately skipped.
	RunSuccess RunStatus = "success"
	// RunWarnings: no failures, but at least one item was indeterminate.
	RunWarnings RunStatus = "success_with_warnings"
	// RunFailed: at least one item failed.
	RunFailed RunStatus = "failed"
)

// RunReport accumulates per-item results in execution order. Items that the
// run never reached, because a critical failure halted it, have no entry.
type RunReport struct {
	RunID       string
	CatalogName string
	Mode        RunMode
	DryRun      bool
	StartedAt   time.Time
	Duration    time.Duration
	Results     []ItemResult
	Halted      bool
	HaltedAfter string
}

// Append records the next item result.
func (r *RunReport) Append(res ItemResult) {
	r.Results = append(r.Results, res)
}

// Status derives the overall run status from the recorded results.
func (r *RunReport) Status() RunStatus {
	status := RunSuccess
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeFailed, OutcomeBlocked:
			return RunFailed
		case OutcomeWarning:
			status = RunWarnings
		}
	}
	if r.Halted {
		return RunFailed
	}
	return status
}

// Counts aggregates outcomes for summaries.
type Counts struct {
	Total      int
	Satisfied  int
	Applied    int
	WouldApply int
	Warnings   int
	Skipped    int
	Blocked    int
	Failed     int
}

// Counts tallies the recorded results.
func (r *RunReport) Counts() Counts {
	var c Counts
	c.Total = len(r.Results)
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeSatisfied:
			c.Satisfied++
		case OutcomeApplied:
			c.Applied++
		case OutcomeWouldApply:
			c.WouldApply++
		case OutcomeWarning:
			c.Warnings++
		case OutcomeSkipped:
			c.Skipped++
		case OutcomeBlocked:
			c.Blocked++
		case OutcomeFailed:
			c.Failed++
		}
	}
	return c
}

// NeedsApply reports whether any probe found work to do. Verify runs use it
// to decide their exit status.
func (r *RunReport) NeedsApply() bool {
	for _, res := range r.Results {
		if res.Outcome == OutcomeWouldApply {
			return true
		}
	}
	return false
}
