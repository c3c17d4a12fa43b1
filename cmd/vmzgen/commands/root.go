package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose   bool
	logFormat string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vmzgen",
		Short: "vmzgen - Kubernetes/Knative deployment scaffolding generator",
		Long: `vmzgen generates Kubernetes and Knative deployment manifests and helper
scripts for a set of applications, driven by per-application config records.

Features:
  - Staged generation lifecycle with blueprint overrides
  - Persisted per-app config with regeneration detection
  - Plain manifest (kubectl) or helm chart output
  - Kafka, Eureka/Consul and Istio support`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format: console or json")

	// Add subcommands
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}
