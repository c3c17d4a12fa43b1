package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmartowicz/vmz-generator-jhipster/pkg/model"
)

func newTestRenderer(t *testing.T) (*Renderer, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := NewRenderer(dir, nil, nil)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	return r, dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(content)
}

func testApp() App {
	return App{
		BaseName:    "store",
		Namespace:   "shop",
		Image:       "vmz/store",
		Port:        8081,
		Replicas:    3,
		ManifestDir: filepath.Join("store", "k8s"),
	}
}

func TestWriteAppRendersDeploymentAndService(t *testing.T) {
	r, dir := newTestRenderer(t)

	if err := r.WriteApp(testApp()); err != nil {
		t.Fatalf("write app: %v", err)
	}

	deployment := readFile(t, filepath.Join(dir, "store", "k8s", "deployment.yml"))
	for _, want := range []string{"kind: Deployment", "name: store", "namespace: shop", "image: vmz/store", "replicas: 3", "containerPort: 8081"} {
		if !strings.Contains(deployment, want) {
			t.Errorf("deployment missing %q", want)
		}
	}

	service := readFile(t, filepath.Join(dir, "store", "k8s", "service.yml"))
	if !strings.Contains(service, "kind: Service") || !strings.Contains(service, "port: 8081") {
		t.Errorf("unexpected service manifest:\n%s", service)
	}
}

func TestWriteAppKnativeRendersSingleService(t *testing.T) {
	r, dir := newTestRenderer(t)

	app := testApp()
	app.Knative = true
	if err := r.WriteApp(app); err != nil {
		t.Fatalf("write app: %v", err)
	}

	manifest := readFile(t, filepath.Join(dir, "store", "k8s", "service.yml"))
	if !strings.Contains(manifest, "serving.knative.dev/v1") {
		t.Errorf("expected a knative service:\n%s", manifest)
	}
	if _, err := os.Stat(filepath.Join(dir, "store", "k8s", "deployment.yml")); !os.IsNotExist(err) {
		t.Error("knative apps must not get a Deployment")
	}
}

func TestWriteAppHonorsManifestDir(t *testing.T) {
	r, dir := newTestRenderer(t)

	app := testApp()
	app.ManifestDir = filepath.Join("store", "manifests")
	if err := r.WriteApp(app); err != nil {
		t.Fatalf("write app: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "store", "manifests", "deployment.yml")); err != nil {
		t.Errorf("manifests must land in the derived directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "store", "k8s")); !os.IsNotExist(err) {
		t.Error("the default directory must not be used when one is derived")
	}
}

func TestWriteBundleConditionalManifests(t *testing.T) {
	r, dir := newTestRenderer(t)

	bundle := Bundle{
		Namespace:  "shop",
		Platform:   model.PlatformK8s,
		UsesKafka:  true,
		UsesEureka: true,
		AppFolders: []string{"store"},
	}
	if err := r.WriteBundle(bundle); err != nil {
		t.Fatalf("write bundle: %v", err)
	}

	if !strings.Contains(readFile(t, filepath.Join(dir, "namespace.yml")), "name: shop") {
		t.Error("namespace manifest missing")
	}
	if !strings.Contains(readFile(t, filepath.Join(dir, "messagebroker", "kafka.yml")), "cp-kafka") {
		t.Error("kafka manifest missing")
	}
	registry := readFile(t, filepath.Join(dir, "registry", "registry.yml"))
	if !strings.Contains(registry, "jhipster-registry") {
		t.Error("eureka registry manifest missing")
	}
	if strings.Contains(registry, "consul") {
		t.Error("consul must not render for a eureka bundle")
	}
	if _, err := os.Stat(filepath.Join(dir, "istio")); !os.IsNotExist(err) {
		t.Error("istio manifests must not render unless requested")
	}
}

func TestWriteBundleRegistrySecret(t *testing.T) {
	r, dir := newTestRenderer(t)

	bundle := Bundle{
		Namespace:                "shop",
		Platform:                 model.PlatformK8s,
		UsesEureka:               true,
		RequiresAdminCredentials: true,
		AppFolders:               []string{"store"},
	}
	if err := r.WriteBundle(bundle); err != nil {
		t.Fatalf("write bundle: %v", err)
	}

	secret := readFile(t, filepath.Join(dir, "registry", "registry-secret.yml"))
	for _, want := range []string{"kind: Secret", "name: registry-secret", "registry-admin-password"} {
		if !strings.Contains(secret, want) {
			t.Errorf("registry secret missing %q:\n%s", want, secret)
		}
	}

	// The registry statefulset mounts its password from exactly this secret.
	registry := readFile(t, filepath.Join(dir, "registry", "registry.yml"))
	if !strings.Contains(registry, "name: registry-secret") {
		t.Error("registry manifest must reference the rendered secret")
	}
}

func TestWriteBundleMonitoringManifests(t *testing.T) {
	r, dir := newTestRenderer(t)

	bundle := Bundle{
		Namespace:  "shop",
		Platform:   model.PlatformK8s,
		Monitoring: true,
		AppFolders: []string{"store", "invoice"},
	}
	if err := r.WriteBundle(bundle); err != nil {
		t.Fatalf("write bundle: %v", err)
	}

	manifest := readFile(t, filepath.Join(dir, "monitoring", "prometheus.yml"))
	for _, want := range []string{"kind: Prometheus", "kind: ServiceMonitor", "- store", "- invoice"} {
		if !strings.Contains(manifest, want) {
			t.Errorf("monitoring manifest missing %q", want)
		}
	}

	scripts, err := r.WriteScripts(bundle)
	if err != nil || len(scripts) != 1 {
		t.Fatalf("write scripts: %v (%v)", err, scripts)
	}
	if !strings.Contains(readFile(t, filepath.Join(dir, "kubectl-apply.sh")), "kubectl apply -f monitoring/") {
		t.Error("apply script must apply the monitoring manifests")
	}
}

func TestWriteBundleOmitsUnrequestedManifests(t *testing.T) {
	r, dir := newTestRenderer(t)

	if err := r.WriteBundle(Bundle{Namespace: "shop", Platform: model.PlatformK8s}); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "messagebroker")); !os.IsNotExist(err) {
		t.Error("kafka manifests must not render without the broker flag")
	}
	if _, err := os.Stat(filepath.Join(dir, "registry")); !os.IsNotExist(err) {
		t.Error("registry manifests must not render without discovery")
	}
	if _, err := os.Stat(filepath.Join(dir, "monitoring")); !os.IsNotExist(err) {
		t.Error("monitoring manifests must not render without the flag")
	}
}

func TestWriteScriptsPlatformSetsAreExclusive(t *testing.T) {
	r, dir := newTestRenderer(t)

	scripts, err := r.WriteScripts(Bundle{Namespace: "shop", Platform: model.PlatformK8s, AppFolders: []string{"store"}})
	if err != nil {
		t.Fatalf("write scripts: %v", err)
	}
	if len(scripts) != 1 || scripts[0] != "kubectl-apply.sh" {
		t.Errorf("expected only the kubectl script, got %v", scripts)
	}
	if !strings.Contains(readFile(t, filepath.Join(dir, "kubectl-apply.sh")), "kubectl apply -f store/k8s/") {
		t.Error("kubectl script must apply each app folder")
	}
	for _, absent := range []string{"helm-apply.sh", "helm-upgrade.sh"} {
		if _, err := os.Stat(filepath.Join(dir, absent)); !os.IsNotExist(err) {
			t.Errorf("%s must not exist on the k8s platform", absent)
		}
	}
}

func TestWriteScriptsHelmPair(t *testing.T) {
	r, dir := newTestRenderer(t)

	scripts, err := r.WriteScripts(Bundle{Namespace: "shop", Platform: model.PlatformHelm, AppFolders: []string{"store", "invoice"}})
	if err != nil {
		t.Fatalf("write scripts: %v", err)
	}
	if len(scripts) != 2 {
		t.Fatalf("expected the helm pair, got %v", scripts)
	}

	apply := readFile(t, filepath.Join(dir, "helm-apply.sh"))
	if !strings.Contains(apply, "helm install store") || !strings.Contains(apply, "helm install invoice") {
		t.Errorf("helm apply script incomplete:\n%s", apply)
	}
	upgrade := readFile(t, filepath.Join(dir, "helm-upgrade.sh"))
	if !strings.Contains(upgrade, "helm upgrade store") {
		t.Errorf("helm upgrade script incomplete:\n%s", upgrade)
	}
	if _, err := os.Stat(filepath.Join(dir, "kubectl-apply.sh")); !os.IsNotExist(err) {
		t.Error("kubectl script must not exist on the helm platform")
	}
}

func TestWriteValues(t *testing.T) {
	r, dir := newTestRenderer(t)

	if err := r.WriteValues(testApp()); err != nil {
		t.Fatalf("write values: %v", err)
	}
	values := readFile(t, filepath.Join(dir, "store", "values.yml"))
	for _, want := range []string{"image: vmz/store", "replicas: 3", "port: 8081"} {
		if !strings.Contains(values, want) {
			t.Errorf("values file missing %q:\n%s", want, values)
		}
	}
}
