package theharvester

import (
	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/logx"
	"phineas/internal/platform/registry"
)

// Auto-registro del colector al importar el package
func init() {
	if err := registry.Global().Register(
		collectorName,
		func(logger logx.Logger) (ports.Collector, error) {
			return New(logger), nil
		},
		ports.CollectorMetadata{
			Name:        collectorName,
			Description: "Gather emails, hosts and URLs for a domain from public search engines",
			Version:     "1.0.0",
			Type:        domain.CollectorTypeCLI,
			Binary:      defaultExecPath,
			Package:     "theHarvester",
			TargetKinds: []domain.TargetKind{domain.TargetKindEmail, domain.TargetKindDomain},
			Produces:    []domain.Kind{domain.KindEmails, domain.KindSubdomains, domain.KindURLs},
		},
	); err != nil {
		logx.New().Warn("failed to register theharvester collector", "error", err.Error())
	}
}
