// Package derive computes secondary config fields from a target's raw
// record and the run's global flags. Everything here is pure: same inputs,
// same outputs, no side effects on either argument.
package derive

import (
	"fmt"
	"path/filepath"

	"github.com/vmartowicz/vmz-generator-jhipster/pkg/model"
)

// Peer counts for clustered vs single-node database deployments.
const (
	ClusteredReplicas = 3
	SingleReplicas    = 1
)

// Derive computes the derived fields for one config record. It is
// deterministic and idempotent; callers run it once during Preparing and
// treat the result as immutable for the rest of the run. Derivation reads
// only the record: run-wide state flows the other way, through MergeFlags.
func Derive(rec model.ConfigRecord) model.DerivedFields {
	d := model.DerivedFields{
		Replicas:  SingleReplicas,
		Platform:  rec.GeneratorType,
		ImageName: rec.BaseName,
	}

	if rec.Clustered {
		d.Replicas = ClusteredReplicas
	}

	if rec.DockerRepositoryName != "" {
		d.ImageName = fmt.Sprintf("%s/%s", rec.DockerRepositoryName, rec.BaseName)
	}

	d.UsesKafka = rec.MessageBroker == model.BrokerKafka
	d.UsesEureka = rec.ServiceDiscoveryType == model.DiscoveryEureka
	d.UsesConsul = rec.ServiceDiscoveryType == model.DiscoveryConsul
	d.RequiresAdminCredentials = d.UsesEureka || d.UsesConsul

	d.ManifestDir = filepath.Join(rec.BaseName, "k8s")
	d.ApplyScripts = model.ApplyScriptsFor(d.Platform)

	return d
}

// MergeFlags folds one target's derived fields into the run-wide capability
// flags. Flags only ever turn on: a capability declared by any target is a
// capability of the bundle.
func MergeFlags(flags model.GlobalFlags, d model.DerivedFields) model.GlobalFlags {
	flags.UsesKafka = flags.UsesKafka || d.UsesKafka
	flags.UsesEureka = flags.UsesEureka || d.UsesEureka
	flags.UsesConsul = flags.UsesConsul || d.UsesConsul
	flags.RequiresAdminCredentials = flags.RequiresAdminCredentials || d.RequiresAdminCredentials
	return flags
}
