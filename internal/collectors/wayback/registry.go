package wayback

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
			Description: "Historical URLs and snapshots from the Internet Archive Wayback Machine",
			Version:     "1.0.0",
			Type:        domain.CollectorTypeAPI,
			TargetKinds: []domain.TargetKind{domain.TargetKindEmail, domain.TargetKindDomain},
			Produces:    []domain.Kind{domain.KindDomains, domain.KindURLs, domain.KindSubdomains},
		},
	); err != nil {
		logx.New().Warn("failed to register wayback collector", "error", err.Error())
	}
}
