// Package generator wires the concrete Kubernetes deployment generator: the
// base task group for every lifecycle phase, the Knative blueprint, and the
// end-of-run summary with its post-actions.
package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/vmartowicz/vmz-generator-jhipster/pkg/configstore"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/derive"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/lifecycle"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/model"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/prompt"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/render"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/shell"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/telemetry"
)

// Options configures a generator run.
type Options struct {
	// OutputDir is the root the bundle is generated under.
	OutputDir string

	// Apps are the target IDs (application folder names) to scaffold.
	Apps []string

	// SkipChecks suppresses advisory external-tool check aborts.
	SkipChecks bool

	// Monitoring requests Prometheus monitoring manifests for the bundle.
	Monitoring bool

	// AutoApply runs the platform apply script after generation. Failures
	// are reported as remediation text, not as a failed run.
	AutoApply bool

	// Overrides are raw config keys forced from the CLI, merged over every
	// target's record during Configuring.
	Overrides map[string]interface{}

	// Prompter collects answers during Prompting. Defaults to the
	// non-interactive defaults prompter.
	Prompter prompt.Prompter

	// Shell runs external tool checks and post-generation commands.
	// Defaults to a local runner with a 30s per-command timeout.
	Shell shell.Runner

	// Log and Metrics are the run's telemetry. Nil means no-op.
	Log     *telemetry.Logger
	Metrics *telemetry.Metrics
}

// Generator is the Kubernetes deployment generator. Blueprints registered
// on it may replace any phase's task group wholesale.
type Generator struct {
	opts       Options
	store      *configstore.Store
	renderer   *render.Renderer
	sh         shell.Runner
	prompter   prompt.Prompter
	log        *telemetry.Logger
	metrics    *telemetry.Metrics
	registry   *lifecycle.Registry
	blueprints []lifecycle.Blueprint
}

// New creates a generator with the base task groups registered for every
// phase.
func New(opts Options) (*Generator, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if len(opts.Apps) == 0 {
		return nil, fmt.Errorf("at least one application is required")
	}
	if opts.Log == nil {
		opts.Log = telemetry.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewMetrics(telemetry.MetricsConfig{})
	}
	if opts.Prompter == nil {
		opts.Prompter = prompt.Defaults{}
	}
	if opts.Shell == nil {
		runner := shell.NewExecRunner(30 * time.Second)
		// The apply scripts reference manifests relative to the bundle
		// root; run everything from there.
		runner.Dir = opts.OutputDir
		opts.Shell = runner
	}

	renderer, err := render.NewRenderer(opts.OutputDir, opts.Log, opts.Metrics)
	if err != nil {
		return nil, err
	}

	g := &Generator{
		opts:     opts,
		store:    configstore.NewStore(opts.OutputDir),
		renderer: renderer,
		sh:       opts.Shell,
		prompter: opts.Prompter,
		log:      opts.Log.NewComponentLogger("generator"),
		metrics:  opts.Metrics,
		registry: lifecycle.NewRegistry(),
	}

	g.registry.MustRegister(lifecycle.PhaseInitializing, lifecycle.TaskGroup{
		{Name: "select-apps", Run: g.selectApps},
		{Name: "check-kubectl", Run: g.checkKubectl},
		{Name: "check-docker", Run: g.checkDocker},
	})
	g.registry.MustRegister(lifecycle.PhasePrompting, lifecycle.TaskGroup{
		{Name: "ask-deployment-questions", Run: g.askDeploymentQuestions},
	})
	g.registry.MustRegister(lifecycle.PhaseConfiguring, lifecycle.TaskGroup{
		{Name: "apply-overrides", Run: g.applyOverrides},
		{Name: "save-config", Run: g.saveConfig},
	})
	g.registry.MustRegister(lifecycle.PhaseLoading, lifecycle.TaskGroup{
		{Name: "load-config", Run: g.loadConfig},
		{Name: "decode-config", Run: g.decodeConfig},
	})
	g.registry.MustRegister(lifecycle.PhasePreparing, lifecycle.TaskGroup{
		{Name: "derive-config", Run: g.deriveConfig},
		{Name: "select-platform", Run: g.selectPlatform},
	})
	g.registry.MustRegister(lifecycle.PhasePostPreparingEach, lifecycle.TaskGroup{
		{Name: "check-bundle-consistency", Run: g.checkBundleConsistency},
	})
	g.registry.MustRegister(lifecycle.PhaseWriting, lifecycle.TaskGroup{
		{Name: "write-bundle", Run: g.writeBundle},
		{Name: "write-apps", Run: g.writeApps},
		{Name: "write-scripts", Run: g.writeScripts},
	})
	g.registry.MustRegister(lifecycle.PhaseEnd, lifecycle.TaskGroup{
		{Name: "check-images", Run: g.checkImages},
		{Name: "mark-scripts-executable", Run: g.markScriptsExecutable},
		{Name: "apply", Run: g.applyManifests},
		{Name: "print-summary", Run: g.printSummary},
	})

	return g, nil
}

// RegisterBlueprint adds a delegate generator. Registration order is
// delegation priority: the first blueprint overriding a phase wins.
func (g *Generator) RegisterBlueprint(bp lifecycle.Blueprint) {
	g.blueprints = append(g.blueprints, bp)
}

// Registry exposes the phase registry, primarily for inspection in tests.
func (g *Generator) Registry() *lifecycle.Registry {
	return g.registry
}

// Run executes the full lifecycle.
func (g *Generator) Run(ctx context.Context) (*lifecycle.RunResult, error) {
	rc := lifecycle.NewRunContext(g.opts.OutputDir, g.opts.Log)
	rc.SkipChecks = g.opts.SkipChecks
	rc.Flags.Monitoring = g.opts.Monitoring

	runner := lifecycle.NewRunner(g.registry, g.blueprints, g.metrics)
	return runner.Run(ctx, rc)
}

// --- Initializing ---

// selectApps creates a GenerationTarget per requested application and
// probes the store for a prior record, which seeds prompt defaults and
// drives the regenerate flag.
func (g *Generator) selectApps(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	for _, app := range g.opts.Apps {
		raw, existed, err := g.store.Load(app)
		if err != nil {
			return err
		}
		target := &lifecycle.GenerationTarget{ID: app, Raw: raw}
		rc.AddTarget(target)
		if existed {
			rc.MarkExisted(target)
		}
	}
	if rc.Regenerate {
		rc.Log.Info("existing configuration found, regenerating")
	}
	return nil
}

func (g *Generator) checkKubectl(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	return shell.RunCheck(ctx, g.sh, shell.Check{
		Tool: "kubectl",
		Args: []string{"version", "--client"},
		Hint: "install kubectl from https://kubernetes.io/docs/tasks/tools/",
	})
}

func (g *Generator) checkDocker(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	return shell.RunCheck(ctx, g.sh, shell.Check{
		Tool: "docker",
		Args: []string{"version"},
		Hint: "docker is needed to build and inspect application images",
	})
}

// --- Prompting ---

func (g *Generator) askDeploymentQuestions(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	for _, target := range rc.Targets {
		answers, err := g.prompter.Ask(deploymentQuestions(target))
		if err != nil {
			return lifecycle.NewInternalError(
				fmt.Sprintf("prompting failed for %q", target.ID), err)
		}
		for key, value := range answers {
			target.Raw[key] = value
		}
	}
	return nil
}

// deploymentQuestions builds the standard question set for one target.
// Defaults come from the existing record on regeneration.
func deploymentQuestions(target *lifecycle.GenerationTarget) []prompt.Question {
	def := func(key string, fallback interface{}) interface{} {
		if v, ok := target.Raw[key]; ok {
			return v
		}
		return fallback
	}
	return []prompt.Question{
		{Name: "baseName", Message: "Application base name?", Default: def("baseName", target.ID)},
		{Name: "applicationType", Message: "Which type of application?", Default: def("applicationType", "monolith"),
			Choices: []string{"monolith", "microservice", "gateway"}},
		{Name: "serverPort", Message: "On which port does the application listen?", Default: def("serverPort", 8080)},
		{Name: "databaseType", Message: "Which database does the application use?", Default: def("databaseType", "sql"),
			Choices: []string{"mongodb", "couchbase", "cassandra", "sql", "no"}},
		{Name: "clustered", Message: "Run the database clustered?", Default: def("clustered", false)},
		{Name: "messageBroker", Message: "Which message broker is in use?", Default: def("messageBroker", "no"),
			Choices: []string{"kafka", "no"}},
		{Name: "serviceDiscoveryType", Message: "Which service discovery server?", Default: def("serviceDiscoveryType", "no"),
			Choices: []string{"eureka", "consul", "no"}},
		{Name: "kubernetesNamespace", Message: "Into which namespace should the application be deployed?", Default: def("kubernetesNamespace", "default")},
		{Name: "dockerRepositoryName", Message: "Which docker repository prefixes your images?", Default: def("dockerRepositoryName", "")},
		{Name: "ingressDomain", Message: "What is the root DNS suffix for ingress routes?", Default: def("ingressDomain", "")},
		{Name: "generatorType", Message: "Deploy with plain manifests or a helm chart?", Default: def("generatorType", "k8s"),
			Choices: []string{"k8s", "helm"}},
		{Name: "istio", Message: "Generate Istio gateway manifests?", Default: def("istio", false)},
	}
}

// --- Configuring ---

func (g *Generator) applyOverrides(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	if len(g.opts.Overrides) == 0 {
		return nil
	}
	for _, target := range rc.Targets {
		for key, value := range g.opts.Overrides {
			target.Raw[key] = value
		}
	}
	return nil
}

// saveConfig persists each target's raw record. The store merges by key:
// keys this run did not touch survive.
func (g *Generator) saveConfig(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	for _, target := range rc.Targets {
		if err := g.store.Save(target.ID, target.Raw); err != nil {
			return err
		}
	}
	return nil
}

// --- Loading ---

// loadConfig re-reads the persisted records so later phases only ever see
// fully persisted data.
func (g *Generator) loadConfig(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	for _, target := range rc.Targets {
		raw, existed, err := g.store.Load(target.ID)
		if err != nil {
			return err
		}
		if !existed {
			return lifecycle.NewInternalError(
				fmt.Sprintf("config record for %q vanished after save", target.ID), nil)
		}
		target.Raw = raw
	}
	return nil
}

func (g *Generator) decodeConfig(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	for _, target := range rc.Targets {
		record, err := g.store.Decode(target.ID, target.Raw)
		if err != nil {
			return err
		}
		target.Record = record
	}
	return nil
}

// --- Preparing ---

func (g *Generator) deriveConfig(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	for _, target := range rc.Targets {
		d := derive.Derive(target.Record)
		target.Derived = &d
		rc.Flags = derive.MergeFlags(rc.Flags, d)
	}
	return nil
}

// selectPlatform fixes the bundle-wide platform from the first target. The
// selection is immutable for the rest of the run; Writing and End reproduce
// it rather than re-deciding.
func (g *Generator) selectPlatform(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	if len(rc.Targets) == 0 || rc.Targets[0].Derived == nil {
		return lifecycle.NewInternalError("platform selection before derivation", nil)
	}
	rc.Flags.Platform = rc.Targets[0].Derived.Platform
	return nil
}

// --- Post-preparing (per target) ---

// checkBundleConsistency rejects targets disagreeing with the bundle-wide
// decisions the shared manifests and scripts depend on. The script sets are
// mutually exclusive per platform, and everything shared renders into a
// single namespace.
func (g *Generator) checkBundleConsistency(ctx context.Context, rc *lifecycle.RunContext, target *lifecycle.GenerationTarget) error {
	if target.Derived == nil {
		return lifecycle.NewInternalError(
			fmt.Sprintf("target %q reached post-preparing without derived config", target.ID), nil)
	}
	if target.Derived.Platform != rc.Flags.Platform {
		return lifecycle.NewConfigInvalidError(
			fmt.Sprintf("target %q uses platform %q but the bundle is %q; all apps must share one generator type",
				target.ID, target.Derived.Platform, rc.Flags.Platform), nil)
	}
	if ns := rc.Targets[0].Record.KubernetesNamespace; target.Record.KubernetesNamespace != ns {
		return lifecycle.NewConfigInvalidError(
			fmt.Sprintf("target %q deploys to namespace %q but the bundle uses %q; all apps must share one namespace",
				target.ID, target.Record.KubernetesNamespace, ns), nil)
	}
	return nil
}

// --- Writing ---

func (g *Generator) writeBundle(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	return g.renderer.WriteBundle(g.bundle(rc))
}

func (g *Generator) writeApps(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	for _, target := range rc.Targets {
		app := appData(target, false)
		if err := g.renderer.WriteApp(app); err != nil {
			return err
		}
		if rc.Flags.Platform == model.PlatformHelm {
			if err := g.renderer.WriteValues(app); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Generator) writeScripts(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	_, err := g.renderer.WriteScripts(g.bundle(rc))
	return err
}

// bundle projects the run context into the renderer's bundle data. The
// namespace comes from the first target; the per-target consistency check
// already rejected any disagreement.
func (g *Generator) bundle(rc *lifecycle.RunContext) render.Bundle {
	apps := make([]string, len(rc.Targets))
	namespace := "default"
	istio := false
	for i, target := range rc.Targets {
		apps[i] = target.Record.BaseName
		istio = istio || target.Record.IstioEnabled
	}
	if len(rc.Targets) > 0 {
		namespace = rc.Targets[0].Record.KubernetesNamespace
	}
	return render.Bundle{
		Namespace:                namespace,
		Platform:                 rc.Flags.Platform,
		UsesKafka:                rc.Flags.UsesKafka,
		UsesEureka:               rc.Flags.UsesEureka,
		UsesConsul:               rc.Flags.UsesConsul,
		Monitoring:               rc.Flags.Monitoring,
		Istio:                    istio,
		AppFolders:               apps,
		RequiresAdminCredentials: rc.Flags.RequiresAdminCredentials,
	}
}

// appData projects one target into the renderer's per-app data.
func appData(target *lifecycle.GenerationTarget, knative bool) render.App {
	return render.App{
		BaseName:    target.Record.BaseName,
		Namespace:   target.Record.KubernetesNamespace,
		Image:       target.Derived.ImageName,
		Port:        target.Record.ServerPort,
		Replicas:    target.Derived.Replicas,
		Ingress:     target.Record.IngressDomain,
		Knative:     knative,
		ManifestDir: target.Derived.ManifestDir,
	}
}

// --- End ---

// checkImages probes the local docker daemon for each target's image. A
// missing image downgrades the run to success-with-warning; it never fails
// generation.
func (g *Generator) checkImages(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	for _, target := range rc.Targets {
		if target.Derived == nil {
			continue
		}
		image := target.Derived.ImageName
		if _, err := g.sh.Run(ctx, "docker", "image", "inspect", image); err != nil {
			rc.AddWarning(lifecycle.PhaseEnd, "check-images",
				fmt.Sprintf("image %q not found locally; build it with ./mvnw -Pprod jib:dockerBuild or docker build", image))
			g.metrics.RecordWarning()
		}
	}
	return nil
}

// markScriptsExecutable marks exactly the platform's script set executable.
// The selection reproduces the Preparing-phase derivation; the other
// platform's scripts were never generated, let alone marked.
func (g *Generator) markScriptsExecutable(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	for _, script := range model.ApplyScriptsFor(rc.Flags.Platform) {
		if err := shell.MarkExecutable(filepath.Join(g.opts.OutputDir, script)); err != nil {
			return lifecycle.NewInternalError("failed to mark generated script executable", err)
		}
	}
	return nil
}

// applyManifests optionally runs the platform apply script. Output has
// already been written, so a failure is remediation text, not a failed run.
func (g *Generator) applyManifests(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	if !g.opts.AutoApply {
		return nil
	}
	script := model.ApplyScriptsFor(rc.Flags.Platform)[0]
	path := filepath.Join(g.opts.OutputDir, script)
	if _, err := g.sh.Run(ctx, path); err != nil {
		return lifecycle.NewExternalProcessError(
			fmt.Sprintf("%s failed", script), err).
			WithRemediation(fmt.Sprintf("fix the reported issue and re-run %s by hand", script))
	}
	return nil
}

func (g *Generator) printSummary(ctx context.Context, rc *lifecycle.RunContext, _ *lifecycle.GenerationTarget) error {
	rc.Log.Infof("generated deployment for %d application(s) in %s", len(rc.Targets), g.opts.OutputDir)
	switch rc.Flags.Platform {
	case model.PlatformHelm:
		rc.Log.Info("next: run ./helm-apply.sh to install, ./helm-upgrade.sh to upgrade")
	default:
		rc.Log.Info("next: run ./kubectl-apply.sh to apply the manifests")
	}
	for _, w := range rc.Warnings {
		rc.Log.Warnf("[%s/%s] %s", w.Phase, w.Task, w.Message)
	}
	return nil
}
