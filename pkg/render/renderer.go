// Package render is the template/file-write collaborator. It receives fully
// derived data from the Writing phase and emits Kubernetes/Knative manifests
// and the platform helper scripts; the engine only inspects success or
// failure.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/vmartowicz/vmz-generator-jhipster/pkg/model"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/telemetry"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// App is the per-application data handed to the manifest templates.
type App struct {
	BaseName  string
	Namespace string
	Image     string
	Port      int
	Replicas  int
	Ingress   string
	Knative   bool

	// ManifestDir is the derived per-app output subdirectory the manifests
	// are written under.
	ManifestDir string
}

// Bundle is the run-wide data for shared manifests and scripts.
type Bundle struct {
	Namespace  string
	Platform   model.Platform
	UsesKafka  bool
	UsesEureka bool
	UsesConsul bool
	Monitoring bool
	Istio      bool
	AppFolders []string

	// RequiresAdminCredentials requests the registry admin Secret the
	// registry pods mount their password from.
	RequiresAdminCredentials bool

	// AdminPassword is the registry admin password written into the
	// Secret. Empty falls back to the stock default.
	AdminPassword string
}

// Renderer emits files under one output root.
type Renderer struct {
	root    string
	tmpl    *template.Template
	log     *telemetry.Logger
	metrics *telemetry.Metrics
}

// NewRenderer creates a renderer writing under root. A nil logger or
// metrics collector is replaced with a no-op.
func NewRenderer(root string, log *telemetry.Logger, metrics *telemetry.Metrics) (*Renderer, error) {
	if log == nil {
		log = telemetry.Nop()
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics(telemetry.MetricsConfig{})
	}
	tmpl, err := template.ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}
	return &Renderer{root: root, tmpl: tmpl, log: log.NewComponentLogger("render"), metrics: metrics}, nil
}

// WriteApp renders the per-application manifests. Knative apps get a single
// Knative Service; plain apps get a Deployment plus Service.
func (r *Renderer) WriteApp(app App) error {
	dir := app.ManifestDir
	if dir == "" {
		dir = filepath.Join(app.BaseName, "k8s")
	}
	if app.Knative {
		return r.renderFile(filepath.Join(dir, "service.yml"), "knative-service.yml.tmpl", app)
	}
	if err := r.renderFile(filepath.Join(dir, "deployment.yml"), "deployment.yml.tmpl", app); err != nil {
		return err
	}
	return r.renderFile(filepath.Join(dir, "service.yml"), "service.yml.tmpl", app)
}

// WriteBundle renders the shared manifests: namespace, broker, registry,
// Istio gateway, monitoring. Everything but the namespace renders only when
// the bundle flags request it.
func (r *Renderer) WriteBundle(b Bundle) error {
	if err := r.renderFile("namespace.yml", "namespace.yml.tmpl", b); err != nil {
		return err
	}
	if b.UsesKafka {
		if err := r.renderFile(filepath.Join("messagebroker", "kafka.yml"), "kafka.yml.tmpl", b); err != nil {
			return err
		}
	}
	if b.UsesEureka || b.UsesConsul {
		if err := r.renderFile(filepath.Join("registry", "registry.yml"), "registry.yml.tmpl", b); err != nil {
			return err
		}
	}
	if b.RequiresAdminCredentials {
		if b.AdminPassword == "" {
			b.AdminPassword = "admin"
		}
		if err := r.renderFile(filepath.Join("registry", "registry-secret.yml"), "registry-secret.yml.tmpl", b); err != nil {
			return err
		}
	}
	if b.Istio {
		if err := r.renderFile(filepath.Join("istio", "gateway.yml"), "istio-gateway.yml.tmpl", b); err != nil {
			return err
		}
	}
	if b.Monitoring {
		if err := r.renderFile(filepath.Join("monitoring", "prometheus.yml"), "prometheus.yml.tmpl", b); err != nil {
			return err
		}
	}
	return nil
}

// WriteScripts renders the post-action script set for the bundle's
// platform. Exactly one platform's set is emitted, never both.
func (r *Renderer) WriteScripts(b Bundle) ([]string, error) {
	scripts := model.ApplyScriptsFor(b.Platform)
	for _, script := range scripts {
		if err := r.renderFile(script, script+".tmpl", b); err != nil {
			return nil, err
		}
	}
	return scripts, nil
}

// WriteValues emits a Helm values file for one application. Only meaningful
// on the helm platform.
func (r *Renderer) WriteValues(app App) error {
	values := map[string]interface{}{
		"image":     app.Image,
		"namespace": app.Namespace,
		"port":      app.Port,
		"replicas":  app.Replicas,
	}
	if app.Ingress != "" {
		values["ingressDomain"] = app.Ingress
	}

	out, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal values for %s: %w", app.BaseName, err)
	}
	return r.writeFile(filepath.Join(app.BaseName, "values.yml"), out)
}

func (r *Renderer) renderFile(rel, tmplName string, data interface{}) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, tmplName, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", rel, err)
	}
	return r.writeFile(rel, buf.Bytes())
}

func (r *Renderer) writeFile(rel string, content []byte) error {
	path := filepath.Join(r.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	r.metrics.RecordFileWritten()
	r.log.Debugf("wrote %s", rel)
	return nil
}
