package lifecycle

import (
	"context"
	"time"

	"github.com/vmartowicz/vmz-generator-jhipster/pkg/telemetry"
)

// Outcome classifies a finished run.
type Outcome string

const (
	// OutcomeSuccess is a clean run with no warnings.
	OutcomeSuccess Outcome = "success"

	// OutcomeSuccessWithWarnings is a completed run that accumulated
	// advisory warnings (e.g. a declared container image was not found).
	OutcomeSuccessWithWarnings Outcome = "success_with_warnings"

	// OutcomeFailed is an aborted run.
	OutcomeFailed Outcome = "failed"
)

// RunResult summarizes a finished run.
type RunResult struct {
	RunID    string        `json:"runId"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration"`

	// Warnings is the advisory message count at run end.
	Warnings int `json:"warnings"`

	// Err is the classified fatal error for failed runs, nil otherwise.
	// Its Phase and Task fields attribute the failure.
	Err *GeneratorError `json:"error,omitempty"`
}

// Runner executes registered phases strictly in registration order, and
// tasks within a phase strictly in declaration order. Execution is
// single-threaded: phase N+1 never begins before every task in phase N has
// completed or been skipped non-fatally.
type Runner struct {
	registry   *Registry
	blueprints []Blueprint
	metrics    *telemetry.Metrics
}

// NewRunner creates a runner over a populated registry. Blueprints are
// consulted in the given order when resolving each phase's task group; a
// nil metrics collector disables metric recording.
func NewRunner(registry *Registry, blueprints []Blueprint, metrics *telemetry.Metrics) *Runner {
	if metrics == nil {
		metrics = telemetry.NewMetrics(telemetry.MetricsConfig{})
	}
	return &Runner{
		registry:   registry,
		blueprints: blueprints,
		metrics:    metrics,
	}
}

// Run executes the full lifecycle against the run context. A fatal task
// failure cancels all remaining tasks in the current phase and all
// subsequent phases; no rollback of already-written output is attempted.
// The returned result is non-nil even on failure.
func (r *Runner) Run(ctx context.Context, rc *RunContext) (*RunResult, error) {
	started := time.Now()
	r.metrics.RecordRunStarted()
	rc.Log.Infof("starting generation run with %d target(s)", len(rc.Targets))

	for _, phase := range r.registry.Phases() {
		base, _ := r.registry.BaseGroup(phase)
		group, source := ResolveTaskGroup(phase, base, r.blueprints)

		plog := rc.Log.WithPhase(string(phase))
		if source != "" {
			plog.Debugf("phase intercepted by blueprint %q", source)
		}

		if err := r.runPhase(ctx, rc, phase, group, plog); err != nil {
			return r.finish(rc, started, err), err
		}
	}

	return r.finish(rc, started, nil), nil
}

// runPhase executes one phase's effective task group. Per-target phases run
// the whole group once per selected target.
func (r *Runner) runPhase(ctx context.Context, rc *RunContext, phase Phase, group TaskGroup, plog *telemetry.Logger) error {
	if !phase.PerTarget() {
		return r.runGroup(ctx, rc, phase, group, nil, plog)
	}
	for _, target := range rc.Targets {
		tlog := plog.WithTarget(target.ID)
		if err := r.runGroup(ctx, rc, phase, group, target, tlog); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runGroup(ctx context.Context, rc *RunContext, phase Phase, group TaskGroup, target *GenerationTarget, plog *telemetry.Logger) error {
	for _, task := range group {
		if err := ctx.Err(); err != nil {
			return NewInternalError("run cancelled", err).WithPhase(phase, task.Name)
		}

		taskStart := time.Now()
		err := task.Run(ctx, rc, target)
		elapsed := time.Since(taskStart)

		if err == nil {
			r.metrics.RecordTask(string(phase), "ok", elapsed)
			plog.WithTask(task.Name).Debug("task completed")
			continue
		}

		gerr := classify(err).WithPhase(phase, task.Name)
		if target != nil {
			gerr = gerr.WithTarget(target.ID)
		}

		if r.fatal(rc, gerr) {
			r.metrics.RecordTask(string(phase), "failed", elapsed)
			plog.WithTask(task.Name).WithError(gerr).Error("task failed, aborting run")
			return gerr
		}

		r.metrics.RecordTask(string(phase), "warning", elapsed)
		r.metrics.RecordWarning()
		rc.AddWarning(phase, task.Name, gerr.Message)
		if gerr.Remediation != "" {
			plog.WithTask(task.Name).Warnf("%s (%s)", gerr.Message, gerr.Remediation)
		} else {
			plog.WithTask(task.Name).WithError(gerr).Warn("task reported a warning, continuing")
		}
	}
	return nil
}

// fatal decides whether a classified error aborts the run. Config and
// internal faults always do. Check failures are advisory unless the check
// is mandatory, and never fatal when the run skips checks. External process
// failures happen after output is written and never abort.
func (r *Runner) fatal(rc *RunContext, err *GeneratorError) bool {
	switch err.Kind {
	case KindCheckFailed:
		if rc.SkipChecks {
			return false
		}
		return err.Mandatory
	case KindExternalProcess:
		return false
	default:
		return true
	}
}

func (r *Runner) finish(rc *RunContext, started time.Time, runErr error) *RunResult {
	result := &RunResult{
		RunID:    rc.RunID,
		Duration: time.Since(started),
		Warnings: len(rc.Warnings),
	}

	switch {
	case runErr != nil:
		result.Outcome = OutcomeFailed
		result.Err = classify(runErr)
	case len(rc.Warnings) > 0:
		result.Outcome = OutcomeSuccessWithWarnings
	default:
		result.Outcome = OutcomeSuccess
	}

	r.metrics.RecordRunCompleted(string(result.Outcome), result.Duration)

	switch result.Outcome {
	case OutcomeFailed:
		rc.Log.WithError(result.Err).Errorf("run failed in phase %q, task %q", result.Err.Phase, result.Err.Task)
	case OutcomeSuccessWithWarnings:
		rc.Log.Warnf("run completed with %d warning(s)", result.Warnings)
	default:
		rc.Log.Info("run completed")
	}

	return result
}
