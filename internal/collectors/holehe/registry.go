package holehe

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
			Description: "Check if an email is registered on sites via password-recovery probes",
			Version:     "1.0.0",
			Type:        domain.CollectorTypeCLI,
			Binary:      defaultExecPath,
			Package:     "holehe",
			TargetKinds: []domain.TargetKind{domain.TargetKindEmail},
			Produces:    []domain.Kind{domain.KindEmails, domain.KindAccounts, domain.KindSocialProfiles},
		},
	); err != nil {
		logx.New().Warn("failed to register holehe collector", "error", err.Error())
	}
}
