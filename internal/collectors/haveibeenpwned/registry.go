package haveibeenpwned

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
			Name:          collectorName,
			Description:   "Check an email against known data breaches and pastes",
			Version:       "1.0.0",
			Type:          domain.CollectorTypeAPI,
			RequiresAuth:  true,
			CredentialKey: credentialKey,
			TargetKinds:   []domain.TargetKind{domain.TargetKindEmail},
			Produces:      []domain.Kind{domain.KindEmails, domain.KindBreaches},
		},
	); err != nil {
		logx.New().Warn("failed to register haveibeenpwned collector", "error", err.Error())
	}
}
