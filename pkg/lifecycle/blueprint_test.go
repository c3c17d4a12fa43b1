package lifecycle

import (
	"context"
	"testing"
)

// stubBlueprint overrides a fixed set of phases with named groups.
type stubBlueprint struct {
	name      string
	overrides map[Phase]TaskGroup
}

func (s *stubBlueprint) Name() string { return s.name }

func (s *stubBlueprint) TaskGroup(phase Phase) (TaskGroup, bool) {
	g, ok := s.overrides[phase]
	return g, ok
}

func namedGroup(names ...string) TaskGroup {
	g := make(TaskGroup, len(names))
	for i, n := range names {
		g[i] = Task{Name: n, Run: func(ctx context.Context, rc *RunContext, target *GenerationTarget) error { return nil }}
	}
	return g
}

func TestResolveTaskGroupZeroBlueprintsDelegatesToSelf(t *testing.T) {
	base := namedGroup("load", "derive")
	group, source := ResolveTaskGroup(PhaseLoading, base, nil)
	if source != "" {
		t.Errorf("expected base source, got blueprint %q", source)
	}
	if len(group) != 2 || group[0].Name != "load" {
		t.Errorf("base group must pass through unchanged, got %v", group.Names())
	}
}

func TestResolveTaskGroupFirstBlueprintWins(t *testing.T) {
	base := namedGroup("base-write")
	first := &stubBlueprint{name: "knative", overrides: map[Phase]TaskGroup{
		PhaseWriting: namedGroup("knative-write"),
	}}
	second := &stubBlueprint{name: "openshift", overrides: map[Phase]TaskGroup{
		PhaseWriting: namedGroup("openshift-write"),
	}}

	group, source := ResolveTaskGroup(PhaseWriting, base, []Blueprint{first, second})
	if source != "knative" {
		t.Errorf("expected first blueprint to win, got %q", source)
	}
	if len(group) != 1 || group[0].Name != "knative-write" {
		t.Errorf("expected knative override, got %v", group.Names())
	}
}

func TestResolveTaskGroupSubstitutesNeverMerges(t *testing.T) {
	base := namedGroup("write-bundle", "write-apps", "write-scripts")
	bp := &stubBlueprint{name: "knative", overrides: map[Phase]TaskGroup{
		PhaseWriting: namedGroup("write-knative-apps"),
	}}

	group, _ := ResolveTaskGroup(PhaseWriting, base, []Blueprint{bp})
	if len(group) != 1 {
		t.Errorf("the override must replace the base group wholesale, got %v", group.Names())
	}
}

func TestResolveTaskGroupFallsThroughPerPhase(t *testing.T) {
	base := namedGroup("load")
	bp := &stubBlueprint{name: "knative", overrides: map[Phase]TaskGroup{
		PhaseWriting: namedGroup("knative-write"),
	}}

	group, source := ResolveTaskGroup(PhaseLoading, base, []Blueprint{bp})
	if source != "" || group[0].Name != "load" {
		t.Errorf("non-intercepted phase must use the base group, got %v from %q", group.Names(), source)
	}
}

func TestResolveTaskGroupIsDeterministic(t *testing.T) {
	base := namedGroup("base")
	bps := []Blueprint{
		&stubBlueprint{name: "a", overrides: map[Phase]TaskGroup{PhaseWriting: namedGroup("a-write")}},
		&stubBlueprint{name: "b", overrides: map[Phase]TaskGroup{PhaseWriting: namedGroup("b-write")}},
	}

	firstGroup, firstSource := ResolveTaskGroup(PhaseWriting, base, bps)
	for i := 0; i < 10; i++ {
		group, source := ResolveTaskGroup(PhaseWriting, base, bps)
		if source != firstSource {
			t.Fatalf("resolution changed between calls: %q vs %q", firstSource, source)
		}
		if len(group) != len(firstGroup) || group[0].Name != firstGroup[0].Name {
			t.Fatalf("group changed between calls: %v vs %v", firstGroup.Names(), group.Names())
		}
	}
}
