package generator

import (
	"context"

	"github.com/vmartowicz/vmz-generator-jhipster/pkg/lifecycle"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/model"
)

// KnativeBlueprint replaces the Writing phase with Knative Service output.
// Interception is wholesale: the blueprint re-declares the bundle and
// script tasks it wants preserved from the base group; the engine
// substitutes task groups and never merges them.
type KnativeBlueprint struct {
	g *Generator
}

// NewKnativeBlueprint creates the Knative delegate for a generator.
func NewKnativeBlueprint(g *Generator) *KnativeBlueprint {
	return &KnativeBlueprint{g: g}
}

// Name identifies the blueprint in logs.
func (b *KnativeBlueprint) Name() string {
	return "knative"
}

// TaskGroup intercepts Writing; every other phase falls through to the base
// generator.
func (b *KnativeBlueprint) TaskGroup(phase lifecycle.Phase) (lifecycle.TaskGroup, bool) {
	if phase != lifecycle.PhaseWriting {
		return nil, false
	}
	return lifecycle.TaskGroup{
		{Name: "write-bundle", Run: b.g.writeBundle},
		{Name: "write-knative-apps", Run: b.writeKnativeApps},
		{Name: "write-scripts", Run: b.g.writeScripts},
	}, true
}

// writeKnativeApps emits one Knative Service per target in place of the
// base Deployment/Service pair.
func (b *KnativeBlueprint) writeKnativeApps(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	for _, target := range rc.Targets {
		app := appData(target, true)
		if err := b.g.renderer.WriteApp(app); err != nil {
			return err
		}
		if rc.Flags.Platform == model.PlatformHelm {
			if err := b.g.renderer.WriteValues(app); err != nil {
				return err
			}
		}
	}
	return nil
}
