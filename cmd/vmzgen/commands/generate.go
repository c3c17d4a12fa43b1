package commands

import (
	"fmt"

	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vmartowicz/vmz-generator-jhipster/pkg/generator"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/lifecycle"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/telemetry"
)

// overrideKeys maps CLI override flags to the raw config record keys they
// force for every selected application.
var overrideKeys = map[string]string{
	"namespace":      "kubernetesNamespace",
	"docker-repo":    "dockerRepositoryName",
	"ingress-domain": "ingressDomain",
	"generator-type": "generatorType",
	"istio":          "istio",
	"clustered":      "clustered",
}

func newGenerateCommand() *cobra.Command {
	var (
		outDir     string
		apps       []string
		skipChecks bool
		knative    bool
		monitoring bool
		autoApply  bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate deployment manifests and scripts",
		Long: `Generate Kubernetes or Knative manifests and the matching apply scripts
for the selected applications.

Each application keeps a persisted config record under its output folder;
rerunning the command regenerates from that record, merged with any answers
and flag overrides from the current run.`,
		Example: `  # Generate manifests for two apps
  vmzgen generate --out ./deploy --app store --app invoice

  # Helm output into a custom namespace, skipping tool checks
  vmzgen generate --out ./deploy --app store --generator-type helm --namespace shop --skip-checks

  # Knative services instead of Deployments
  vmzgen generate --out ./deploy --app store --knative`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}

			gen, err := generator.New(generator.Options{
				OutputDir:  outDir,
				Apps:       apps,
				SkipChecks: skipChecks,
				Monitoring: monitoring,
				AutoApply:  autoApply,
				Overrides:  collectOverrides(cmd.Flags()),
				Log:        log,
				Metrics:    telemetry.NewMetrics(telemetry.DefaultMetricsConfig()),
			})
			if err != nil {
				return err
			}
			if knative {
				gen.RegisterBlueprint(generator.NewKnativeBlueprint(gen))
			}

			result, err := gen.Run(cmd.Context())
			if err != nil {
				return err
			}
			if result.Outcome == lifecycle.OutcomeSuccessWithWarnings {
				log.Warnf("generation finished with %d warning(s)", result.Warnings)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", ".", "output directory for the generated bundle")
	cmd.Flags().StringArrayVar(&apps, "app", nil, "application to scaffold (repeatable)")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "skip external tool checks")
	cmd.Flags().BoolVar(&knative, "knative", false, "generate Knative services instead of Deployments")
	cmd.Flags().BoolVar(&monitoring, "monitoring", false, "generate Prometheus monitoring manifests")
	cmd.Flags().BoolVar(&autoApply, "apply", false, "run the platform apply script after generation")

	// Override flags, merged into every app's config record
	cmd.Flags().String("namespace", "", "kubernetes namespace override")
	cmd.Flags().String("docker-repo", "", "docker repository name override")
	cmd.Flags().String("ingress-domain", "", "ingress root DNS suffix override")
	cmd.Flags().String("generator-type", "", "deployment platform override: k8s or helm")
	cmd.Flags().Bool("istio", false, "Istio manifests override")
	cmd.Flags().Bool("clustered", false, "clustered database override")

	_ = cmd.MarkFlagRequired("app")

	return cmd
}

// collectOverrides gathers explicitly-set override flags into raw config
// keys via koanf's posflag provider. Unchanged flags are skipped so defaults
// never clobber persisted records.
func collectOverrides(flags *pflag.FlagSet) map[string]interface{} {
	k := koanf.New(".")
	_ = k.Load(posflag.ProviderWithFlag(flags, ".", nil, func(f *pflag.Flag) (string, interface{}) {
		key, isOverride := overrideKeys[f.Name]
		if !isOverride || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	}), nil)
	return k.Raw()
}

func newLogger() (*telemetry.Logger, error) {
	cfg := telemetry.DefaultLoggingConfig()
	cfg.Format = logFormat
	if verbose {
		cfg.Level = "debug"
	}
	log, err := telemetry.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}
