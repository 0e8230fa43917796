package sherlock

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
			Description: "Hunt down social media accounts by username across social networks",
			Version:     "1.0.0",
			Type:        domain.CollectorTypeCLI,
			Binary:      defaultExecPath,
			Package:     "sherlock-project",
			TargetKinds: []domain.TargetKind{domain.TargetKindEmail, domain.TargetKindHandle},
			Produces:    []domain.Kind{domain.KindUsernames, domain.KindSocialProfiles, domain.KindAccounts},
		},
	); err != nil {
		// Log error but don't panic - allow application to start
		logx.New().Warn("failed to register sherlock collector", "error", err.Error())
	}
}
