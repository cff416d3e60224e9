// Package engine drives reconciliation. Each compiled item runs through
// the same cycle: probe the host, apply the action when the probe reports
// drift, then probe again to confirm the apply took. Items run strictly in
// declaration order; a failed item blocks its dependents and a failed
// critical item halts the run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avigneault/groundwork/internal/action"
	"github.com/avigneault/groundwork/internal/catalog"
	"github.com/avigneault/groundwork/internal/logger"
	"github.com/avigneault/groundwork/internal/model"
	"github.com/avigneault/groundwork/internal/probe"
	gwerrors "github.com/avigneault/groundwork/pkg/errors"
)

// DefaultTimeout bounds a single probe or apply when neither the item nor
// the catalog settings declare one.
const DefaultTimeout = 5 * time.Minute

// Options configures a run.
type Options struct {
	// DryRun stops after the initial probe and reports what would change.
	DryRun bool
	// DefaultTimeout replaces the package default when positive.
	DefaultTimeout time.Duration

	Logger *logger.Logger
	Events Events
}

// Reconciler walks a compiled plan. One Reconciler serves one run.
type Reconciler struct {
	plan    *catalog.Plan
	session *probe.Session
	opts    Options
}

// New builds a Reconciler over a compiled plan and a host session.
func New(plan *catalog.Plan, session *probe.Session, opts Options) *Reconciler {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultTimeout
	}
	if opts.Events == nil {
		opts.Events = NopEvents{}
	}
	return &Reconciler{plan: plan, session: session, opts: opts}
}

// Run reconciles every item and returns the report. The returned error is
// non-nil only when the run itself broke, which today means the context
// was cancelled; per-item failures live in the report. Items after a
// critical failure are never probed and have no result entry.
func (r *Reconciler) Run(ctx context.Context) (*model.RunReport, error) {
	report := &model.RunReport{
		RunID:       uuid.NewString(),
		CatalogName: r.plan.Name,
		Mode:        r.plan.Mode,
		DryRun:      r.opts.DryRun,
		StartedAt:   time.Now(),
	}

	log := r.opts.Logger.WithFields(map[string]any{
		"run_id": report.RunID,
		"mode":   string(report.Mode),
	})
	log.Debug("run started")

	failed := make(map[string]bool, len(r.plan.Items))

	for _, item := range r.plan.Items {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(report.StartedAt)
			return report, err
		}

		r.opts.Events.ItemStarted(item)
		res := r.reconcileItem(ctx, item, failed)
		report.Append(res)
		r.opts.Events.ItemFinished(res)

		if res.Outcome == model.OutcomeFailed || res.Outcome == model.OutcomeBlocked {
			failed[item.ID] = true
		}
		if res.Outcome == model.OutcomeFailed && item.Critical {
			report.Halted = true
			report.HaltedAfter = item.ID
			log.WithItem(item.ID).Error(res.Err, "critical item failed, halting run")
			break
		}
	}

	report.Duration = time.Since(report.StartedAt)
	log.Debug("run finished")
	return report, nil
}

func (r *Reconciler) reconcileItem(ctx context.Context, item catalog.CompiledItem, failed map[string]bool) model.ItemResult {
	start := time.Now()
	log := r.opts.Logger.WithItem(item.ID)

	res := model.ItemResult{
		ItemID:       item.ID,
		Name:         item.Name,
		Critical:     item.Critical,
		Hint:         item.Hint,
		InitialState: model.StateUnknown,
		FinalState:   model.StateUnknown,
	}
	finish := func() model.ItemResult {
		res.Duration = time.Since(start)
		res.Timestamp = time.Now()
		return res
	}

	if item.Skip {
		res.Outcome = model.OutcomeSkipped
		res.Message = item.SkipReason
		log.Debug(item.SkipReason)
		return finish()
	}

	for _, dep := range item.DependsOn {
		if failed[dep] {
			res.Outcome = model.OutcomeBlocked
			res.Message = fmt.Sprintf("dependency %q failed", dep)
			log.Warn(res.Message)
			return finish()
		}
	}

	status, reason, err := r.probeItem(ctx, item)
	if err != nil {
		res.Outcome = model.OutcomeFailed
		res.Reason = reason
		res.Err = gwerrors.NewProbeError(item.ID, err)
		res.Message = fmt.Sprintf("probe: %v", err)
		r.logOpFailure(log, item, reason, err, "probe failed")
		return finish()
	}
	res.InitialState = status.State
	res.FinalState = status.State

	switch status.State {
	case model.StateSatisfied:
		res.Outcome = model.OutcomeSatisfied
		res.Message = status.Message
		return finish()
	case model.StateIndeterminate:
		res.Outcome = model.OutcomeWarning
		res.Message = status.Message
		log.Warn(res.Message)
		return finish()
	}

	res.Diff = status.Diff

	if r.probeOnly() {
		res.Outcome = model.OutcomeWouldApply
		res.Message = status.Message
		return finish()
	}

	applied, reason, err := r.applyItem(ctx, item)
	if err != nil {
		res.Outcome = model.OutcomeFailed
		res.Reason = reason
		res.Err = gwerrors.NewApplyError(item.ID, err)
		res.Message = fmt.Sprintf("apply: %v", err)
		r.logOpFailure(log, item, reason, err, "apply failed")
		return finish()
	}
	res.Applied = true
	if applied.Diff != "" {
		res.Diff = applied.Diff
	}

	confirm, reason, err := r.probeItem(ctx, item)
	if err != nil {
		res.Outcome = model.OutcomeFailed
		res.Reason = reason
		res.Err = gwerrors.NewProbeError(item.ID, err)
		res.Message = fmt.Sprintf("verify: %v", err)
		r.logOpFailure(log, item, reason, err, "verification probe failed")
		return finish()
	}
	res.FinalState = confirm.State

	switch confirm.State {
	case model.StateSatisfied:
		res.Outcome = model.OutcomeApplied
		res.Message = applied.Message
		if res.Message == "" {
			res.Message = confirm.Message
		}
		log.Info(res.Message)
	case model.StateIndeterminate:
		res.Outcome = model.OutcomeWarning
		res.Message = fmt.Sprintf("applied, but verification is indeterminate: %s", confirm.Message)
		log.Warn(res.Message)
	default:
		res.Outcome = model.OutcomeFailed
		res.Reason = model.ReasonVerifyFailed
		res.Message = fmt.Sprintf("applied, but still unsatisfied: %s", confirm.Message)
		log.Error(nil, res.Message)
	}
	return finish()
}

// probeOnly reports whether the run stops after the initial probe. Verify
// mode and dry runs share the same mechanics and differ only in reporting.
func (r *Reconciler) probeOnly() bool {
	return r.opts.DryRun || r.plan.Mode == model.ModeVerify
}

func (r *Reconciler) itemTimeout(item catalog.CompiledItem) time.Duration {
	if item.Timeout > 0 {
		return item.Timeout
	}
	return r.opts.DefaultTimeout
}

// logOpFailure records a failed probe or apply call, attaching the item's
// time budget when the failure was a timeout.
func (r *Reconciler) logOpFailure(log *logger.Logger, item catalog.CompiledItem, reason model.FailReason, err error, msg string) {
	if reason == model.ReasonTimeout {
		log = log.WithFields(map[string]any{"timeout": r.itemTimeout(item).String()})
	}
	log.Error(err, msg)
}

// opContext bounds a single probe or apply call. It is detached from run
// cancellation: an abort is honored between items, while the in-flight
// operation runs to completion or its own timeout instead of being killed
// mid-mutation.
func (r *Reconciler) opContext(ctx context.Context, item catalog.CompiledItem) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), r.itemTimeout(item))
}

func (r *Reconciler) probeItem(ctx context.Context, item catalog.CompiledItem) (probe.Status, model.FailReason, error) {
	opCtx, cancel := r.opContext(ctx, item)
	defer cancel()

	status, err := item.Probe.Evaluate(opCtx, r.session)
	if err != nil {
		return probe.Status{}, classify(opCtx, err, model.ReasonProbeError), err
	}
	return status, model.ReasonNone, nil
}

func (r *Reconciler) applyItem(ctx context.Context, item catalog.CompiledItem) (action.Result, model.FailReason, error) {
	opCtx, cancel := r.opContext(ctx, item)
	defer cancel()

	result, err := item.Action.Apply(opCtx, r.session)
	if err != nil {
		return action.Result{}, classify(opCtx, err, model.ReasonApplyFailed), err
	}
	return result, model.ReasonNone, nil
}

// classify maps an operation error onto a failure reason. Timeouts are
// detected through the operation context as well as the error chain, since
// process runners report them as plain errors after the deadline fires.
func classify(opCtx context.Context, err error, fallback model.FailReason) model.FailReason {
	var spawnErr *gwerrors.SpawnError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(opCtx.Err(), context.DeadlineExceeded):
		return model.ReasonTimeout
	case errors.As(err, &spawnErr):
		return model.ReasonSpawn
	default:
		return fallback
	}
}
