// Package model defines the configuration and derived-field types shared by
// the config store, the derived-config resolver, and the lifecycle engine.
package model

// ApplicationType identifies the kind of application being deployed.
type ApplicationType string

const (
	ApplicationMonolith     ApplicationType = "monolith"
	ApplicationMicroservice ApplicationType = "microservice"
	ApplicationGateway      ApplicationType = "gateway"
)

// DatabaseType identifies the backing database of an application.
type DatabaseType string

const (
	DatabaseMongoDB   DatabaseType = "mongodb"
	DatabaseCouchbase DatabaseType = "couchbase"
	DatabaseCassandra DatabaseType = "cassandra"
	DatabaseSQL       DatabaseType = "sql"
	DatabaseNone      DatabaseType = "no"
)

// MessageBroker identifies the message broker an application uses.
type MessageBroker string

const (
	BrokerKafka MessageBroker = "kafka"
	BrokerNone  MessageBroker = "no"
)

// ServiceDiscovery identifies the service registry in use.
type ServiceDiscovery string

const (
	DiscoveryEureka ServiceDiscovery = "eureka"
	DiscoveryConsul ServiceDiscovery = "consul"
	DiscoveryNone   ServiceDiscovery = "no"
)

// Platform selects the deployment tooling the generated output targets.
// It is derived once from the persisted generator type during Preparing and
// treated as immutable afterwards.
type Platform string

const (
	// PlatformK8s emits plain manifests applied with a single
	// kubectl-apply.sh script.
	PlatformK8s Platform = "k8s"

	// PlatformHelm emits a chart driven by a helm-apply.sh and
	// helm-upgrade.sh script pair.
	PlatformHelm Platform = "helm"
)

// ConfigRecord is the persisted raw key/value state for one generation
// target. Keys are stable identifiers agreed between the generator and its
// blueprints; values are primitives only. Validation failures surface as
// always-fatal config errors.
type ConfigRecord struct {
	// BaseName is the application name used for folders, manifests and
	// image tags.
	BaseName string `koanf:"baseName" json:"baseName" validate:"required,hostname_rfc1123"`

	// ApplicationType is the kind of application being deployed.
	ApplicationType ApplicationType `koanf:"applicationType" json:"applicationType" validate:"required,oneof=monolith microservice gateway"`

	// ServerPort is the container port the application listens on.
	ServerPort int `koanf:"serverPort" json:"serverPort" validate:"required,gt=0,lte=65535"`

	// DatabaseType is the backing database.
	DatabaseType DatabaseType `koanf:"databaseType" json:"databaseType" validate:"required,oneof=mongodb couchbase cassandra sql no"`

	// Clustered requests a clustered database deployment. Drives the
	// derived peer count.
	Clustered bool `koanf:"clustered" json:"clustered"`

	// MessageBroker is the message broker, if any.
	MessageBroker MessageBroker `koanf:"messageBroker" json:"messageBroker" validate:"required,oneof=kafka no"`

	// ServiceDiscoveryType is the service registry, if any.
	ServiceDiscoveryType ServiceDiscovery `koanf:"serviceDiscoveryType" json:"serviceDiscoveryType" validate:"required,oneof=eureka consul no"`

	// KubernetesNamespace is the target namespace for all manifests.
	KubernetesNamespace string `koanf:"kubernetesNamespace" json:"kubernetesNamespace" validate:"required,hostname_rfc1123"`

	// DockerRepositoryName prefixes generated image references. Optional;
	// empty means images are referenced by base name only.
	DockerRepositoryName string `koanf:"dockerRepositoryName" json:"dockerRepositoryName"`

	// IngressDomain is the DNS suffix for ingress hosts. Optional.
	IngressDomain string `koanf:"ingressDomain" json:"ingressDomain"`

	// GeneratorType selects the deployment platform (k8s or helm).
	GeneratorType Platform `koanf:"generatorType" json:"generatorType" validate:"required,oneof=k8s helm"`

	// IstioEnabled requests Istio gateway/virtual-service manifests.
	IstioEnabled bool `koanf:"istio" json:"istio"`
}

// DerivedFields are the secondary values computed from a ConfigRecord and
// the run's global flags. They are never persisted and never edited by hand;
// Derive recomputes them deterministically.
type DerivedFields struct {
	// Replicas is the database/app peer count: 3 when clustered, else 1.
	Replicas int `json:"replicas"`

	// Platform mirrors the record's generator type as the immutable
	// platform selection for Writing and End.
	Platform Platform `json:"platform"`

	// UsesKafka is true when the record declares the Kafka broker.
	UsesKafka bool `json:"usesKafka"`

	// UsesEureka/UsesConsul flag the selected service registry.
	UsesEureka bool `json:"usesEureka"`
	UsesConsul bool `json:"usesConsul"`

	// RequiresAdminCredentials is true when the deployment includes a
	// component that needs an admin secret rendered (the registry).
	RequiresAdminCredentials bool `json:"requiresAdminCredentials"`

	// ImageName is the full image reference (repository/baseName).
	ImageName string `json:"imageName"`

	// ManifestDir is the per-app output subdirectory.
	ManifestDir string `json:"manifestDir"`

	// ApplyScripts are the post-action script names for the platform, in
	// invocation order. Exactly one platform's set, never both.
	ApplyScripts []string `json:"applyScripts"`
}

// GlobalFlags are run-wide capability flags accumulated over all selected
// targets. Later tasks consume them when deciding which shared manifests
// (broker, registry) to render.
type GlobalFlags struct {
	// Platform is the bundle-wide deployment platform, computed once
	// during Preparing from the targets' generator type and immutable
	// afterwards. Writing and End reproduce this exact selection.
	Platform Platform `json:"platform"`

	// UsesKafka is true when any target declares the Kafka broker.
	UsesKafka bool `json:"usesKafka"`

	// UsesEureka/UsesConsul are true when any target declares the
	// corresponding service registry.
	UsesEureka bool `json:"usesEureka"`
	UsesConsul bool `json:"usesConsul"`

	// RequiresAdminCredentials is true when any target's deployment needs
	// an admin secret.
	RequiresAdminCredentials bool `json:"requiresAdminCredentials"`

	// Monitoring is true when Prometheus monitoring manifests were
	// requested for the bundle.
	Monitoring bool `json:"monitoring"`
}

// ApplyScriptsFor returns the post-action script set for a platform, in
// invocation order. The sets are mutually exclusive by construction.
func ApplyScriptsFor(platform Platform) []string {
	switch platform {
	case PlatformHelm:
		return []string{"helm-apply.sh", "helm-upgrade.sh"}
	default:
		return []string{"kubectl-apply.sh"}
	}
}
