package lifecycle

import "fmt"

// registeredPhase is one (phase, base task group) pair.
type registeredPhase struct {
	phase Phase
	group TaskGroup
}

// Registry holds the ordered list of phases a generator populates, each with
// its base TaskGroup. Construction happens once at generator initialization;
// the runner then walks the registry front to back.
type Registry struct {
	phases    []registeredPhase
	phaseSeen map[Phase]struct{}
}

// NewRegistry creates an empty phase registry.
func NewRegistry() *Registry {
	return &Registry{phaseSeen: make(map[Phase]struct{})}
}

// Register adds a phase with its base task group. Phases must be registered
// in their canonical global order, each at most once; the group must pass
// TaskGroup.Validate.
func (r *Registry) Register(phase Phase, group TaskGroup) error {
	if !phase.valid() {
		return fmt.Errorf("unknown phase %q", phase)
	}
	if _, dup := r.phaseSeen[phase]; dup {
		return fmt.Errorf("phase %q registered twice", phase)
	}
	if err := group.Validate(); err != nil {
		return fmt.Errorf("phase %q: %w", phase, err)
	}
	if len(r.phases) > 0 {
		prev := r.phases[len(r.phases)-1].phase
		if phaseIndex(phase) < phaseIndex(prev) {
			return fmt.Errorf("phase %q registered after %q, violating global order", phase, prev)
		}
	}
	r.phaseSeen[phase] = struct{}{}
	r.phases = append(r.phases, registeredPhase{phase: phase, group: group})
	return nil
}

// MustRegister is Register for static generator wiring, panicking on
// programmer error.
func (r *Registry) MustRegister(phase Phase, group TaskGroup) {
	if err := r.Register(phase, group); err != nil {
		panic(err)
	}
}

// Phases returns the registered phase names in registration order.
func (r *Registry) Phases() []Phase {
	out := make([]Phase, len(r.phases))
	for i, p := range r.phases {
		out[i] = p.phase
	}
	return out
}

// BaseGroup returns the base task group registered for a phase.
func (r *Registry) BaseGroup(phase Phase) (TaskGroup, bool) {
	for _, p := range r.phases {
		if p.phase == phase {
			return p.group, true
		}
	}
	return nil, false
}

func phaseIndex(phase Phase) int {
	for i, p := range PhaseOrder {
		if p == phase {
			return i
		}
	}
	return -1
}
