package lifecycle

import (
	"context"
	"fmt"
)

// Phase is a named stage in the fixed generator lifecycle.
type Phase string

// The lifecycle phases, in their global execution order. The set is fixed
// per generator type; generators pick which phases they populate but cannot
// invent new ones at runtime.
const (
	PhaseInitializing      Phase = "initializing"
	PhasePrompting         Phase = "prompting"
	PhaseConfiguring       Phase = "configuring"
	PhaseLoading           Phase = "loading"
	PhasePreparing         Phase = "preparing"
	PhasePostPreparingEach Phase = "post-preparing-each"
	PhaseWriting           Phase = "writing"
	PhaseEnd               Phase = "end"
)

// PhaseOrder is the canonical global ordering of phases. Registration order
// must respect it; Registry.Register rejects out-of-order phases.
var PhaseOrder = []Phase{
	PhaseInitializing,
	PhasePrompting,
	PhaseConfiguring,
	PhaseLoading,
	PhasePreparing,
	PhasePostPreparingEach,
	PhaseWriting,
	PhaseEnd,
}

// PerTarget reports whether a phase's tasks run once per selected
// GenerationTarget rather than once per run.
func (p Phase) PerTarget() bool {
	return p == PhasePostPreparingEach
}

func (p Phase) valid() bool {
	for _, known := range PhaseOrder {
		if p == known {
			return true
		}
	}
	return false
}

// TaskFunc is a single unit of work. It may mutate the RunContext and the
// targets it requires. Per-target phases additionally receive the target
// being processed; per-run phases receive nil. Blocking work (prompting,
// external processes) honors ctx.
type TaskFunc func(ctx context.Context, rc *RunContext, target *GenerationTarget) error

// Task is a named task within one phase's group.
type Task struct {
	Name string
	Run  TaskFunc
}

// TaskGroup is the ordered set of tasks belonging to one phase. Order is
// execution order: later tasks routinely assume mutations made by earlier
// tasks in the same group.
type TaskGroup []Task

// Validate checks that task names are unique within the group and that
// every task has a function.
func (g TaskGroup) Validate() error {
	seen := make(map[string]struct{}, len(g))
	for _, t := range g {
		if t.Name == "" {
			return fmt.Errorf("task group contains a task with no name")
		}
		if t.Run == nil {
			return fmt.Errorf("task %q has no function", t.Name)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("duplicate task name %q", t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}

// Names returns the task names in declaration order.
func (g TaskGroup) Names() []string {
	names := make([]string, len(g))
	for i, t := range g {
		names[i] = t.Name
	}
	return names
}
