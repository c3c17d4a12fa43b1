package lifecycle

// Blueprint is a delegate generator that may replace a phase's task group
// wholesale. A blueprint that intercepts a phase owns that phase completely:
// it must re-declare every base task it wants preserved, because resolution
// substitutes and never merges. Declaration order is delegation priority.
type Blueprint interface {
	// Name identifies the blueprint in logs and diagnostics.
	Name() string

	// TaskGroup returns the replacement group for a phase, or false when
	// the blueprint does not intercept that phase.
	TaskGroup(phase Phase) (TaskGroup, bool)
}

// ResolveTaskGroup resolves the effective task group for a phase: the first
// blueprint (in priority order) that declares an override supplies the whole
// group; otherwise the base group is used unchanged. At most one source,
// base or exactly one blueprint, defines a phase's tasks for a given run.
// With zero blueprints every phase delegates to itself.
func ResolveTaskGroup(phase Phase, base TaskGroup, blueprints []Blueprint) (TaskGroup, string) {
	for _, bp := range blueprints {
		if group, ok := bp.TaskGroup(phase); ok {
			return group, bp.Name()
		}
	}
	return base, ""
}
