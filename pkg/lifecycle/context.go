package lifecycle

import (
	"github.com/google/uuid"

	"github.com/vmartowicz/vmz-generator-jhipster/pkg/model"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/telemetry"
)

// GenerationTarget is one application or deployment bundle being scaffolded.
// Created when the user selects a target, mutated throughout Loading and
// Preparing, never deleted by the engine.
type GenerationTarget struct {
	// ID is the stable target identifier (the application directory name).
	ID string

	// Raw is the raw key/value config as loaded from the store and merged
	// with prompt answers. Tasks write here; the store persists it.
	Raw map[string]interface{}

	// Record is the typed view of Raw, populated during Loading.
	Record model.ConfigRecord

	// Derived holds the computed fields, populated once during Preparing
	// and immutable afterwards.
	Derived *model.DerivedFields

	// Existed is true when a prior config record was found at load time.
	// It is the only signal distinguishing first generation from
	// regeneration.
	Existed bool
}

// Warning is one accumulated advisory message, attributed to the phase and
// task that raised it.
type Warning struct {
	Phase   Phase  `json:"phase"`
	Task    string `json:"task"`
	Message string `json:"message"`
}

// RunContext is the single mutable state threaded through every task of one
// run. It is exclusively owned by that run: created at run start, destroyed
// at run end, never persisted directly.
type RunContext struct {
	// RunID identifies the run in logs and diagnostics.
	RunID string

	// OutputDir is the root directory generated files are written under.
	OutputDir string

	// SkipChecks suppresses advisory external-tool check aborts.
	SkipChecks bool

	// Targets are the generation targets selected for this run.
	Targets []*GenerationTarget

	// Flags are capability flags accumulated over all targets.
	Flags model.GlobalFlags

	// Regenerate is true when any target's Existed flag is true. Sticky
	// for the remainder of the run.
	Regenerate bool

	// Warnings accumulates advisory messages surfaced in the end summary.
	Warnings []Warning

	// Log is the run's logger. Never nil after NewRunContext.
	Log *telemetry.Logger
}

// NewRunContext creates the context for one run. A nil logger is replaced
// with a no-op logger.
func NewRunContext(outputDir string, log *telemetry.Logger) *RunContext {
	if log == nil {
		log = telemetry.Nop()
	}
	runID := uuid.New().String()
	return &RunContext{
		RunID:     runID,
		OutputDir: outputDir,
		Log:       log.WithRunID(runID),
	}
}

// AddTarget appends a selected target to the run.
func (rc *RunContext) AddTarget(t *GenerationTarget) {
	rc.Targets = append(rc.Targets, t)
}

// Target returns the target with the given ID, or nil.
func (rc *RunContext) Target(id string) *GenerationTarget {
	for _, t := range rc.Targets {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// MarkExisted records that a target's prior config was found, making the
// whole run a regeneration.
func (rc *RunContext) MarkExisted(t *GenerationTarget) {
	t.Existed = true
	rc.Regenerate = true
}

// AddWarning accumulates an advisory message.
func (rc *RunContext) AddWarning(phase Phase, task, message string) {
	rc.Warnings = append(rc.Warnings, Warning{Phase: phase, Task: task, Message: message})
}
