package sublist3r

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
			Description: "Fast subdomain enumeration using search engines",
			Version:     "1.0.0",
			Type:        domain.CollectorTypeCLI,
			Binary:      defaultExecPath,
			Package:     "sublist3r",
			TargetKinds: []domain.TargetKind{domain.TargetKindEmail, domain.TargetKindDomain},
			Produces:    []domain.Kind{domain.KindDomains, domain.KindSubdomains},
		},
	); err != nil {
		logx.New().Warn("failed to register sublist3r collector", "error", err.Error())
	}
}
