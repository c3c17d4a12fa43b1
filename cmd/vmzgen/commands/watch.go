package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/vmartowicz/vmz-generator-jhipster/pkg/configstore"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/generator"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/telemetry"
)

func newWatchCommand() *cobra.Command {
	var (
		outDir      string
		apps        []string
		knative     bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate whenever a config record changes",
		Long: `Watch the per-application config records and rerun generation whenever
one of them changes. Checks are skipped on regeneration runs; events are
debounced so editors writing in multiple steps trigger one run.`,
		Example: `  # Watch two apps and serve run metrics
  vmzgen watch --out ./deploy --app store --app invoice --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			metrics := telemetry.NewMetrics(telemetry.DefaultMetricsConfig())

			if metricsAddr != "" {
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", metrics.Handler())
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						log.WithError(err).Warn("metrics listener stopped")
					}
				}()
			}

			regenerate := func(ctx context.Context) {
				gen, err := generator.New(generator.Options{
					OutputDir:  outDir,
					Apps:       apps,
					SkipChecks: true,
					Log:        log,
					Metrics:    metrics,
				})
				if err != nil {
					log.WithError(err).Error("failed to build generator")
					return
				}
				if knative {
					gen.RegisterBlueprint(generator.NewKnativeBlueprint(gen))
				}
				if _, err := gen.Run(ctx); err != nil {
					log.WithError(err).Error("regeneration failed")
				}
			}

			// Initial run, then watch
			regenerate(cmd.Context())
			return watchRecords(cmd.Context(), outDir, apps, log, regenerate)
		},
	}

	cmd.Flags().StringVar(&outDir, "out", ".", "output directory for the generated bundle")
	cmd.Flags().StringArrayVar(&apps, "app", nil, "application to scaffold (repeatable)")
	cmd.Flags().BoolVar(&knative, "knative", false, "generate Knative services instead of Deployments")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	_ = cmd.MarkFlagRequired("app")

	return cmd
}

// watchRecords blocks watching each app's config record until ctx is done.
func watchRecords(ctx context.Context, outDir string, apps []string, log *telemetry.Logger, regenerate func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the app directories: editors replace files on save, so watching
	// the directory survives rename-based writes.
	for _, app := range apps {
		dir := filepath.Join(outDir, app)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create app directory %s: %w", dir, err)
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	log.Infof("watching %d config record(s)", len(apps))

	debounced := newDebouncer(500*time.Millisecond, func() {
		log.Info("config record changed, regenerating")
		regenerate(ctx)
	})
	defer debounced.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, configstore.RecordFile) {
				continue
			}
			debounced.trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watch error")
		}
	}
}

// debouncer coalesces bursts of triggers into one call after a quiet period.
type debouncer struct {
	delay time.Duration
	fn    func()
	timer *time.Timer
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) trigger() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
	}
}
