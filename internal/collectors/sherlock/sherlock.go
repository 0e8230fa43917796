// internal/collectors/sherlock/sherlock.go
package sherlock

import (
	"context"
	"strconv"

	"phineas/internal/collectors/common"
	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/errors"
	"phineas/internal/platform/logx"
	"phineas/internal/platform/registry"
	"phineas/internal/platform/validator"
)

const (
	collectorName = "sherlock"

	defaultExecPath    = "sherlock"
	defaultSiteTimeout = 10
)

// Sherlock busca un nombre de usuario en cientos de redes sociales
// ejecutando la herramienta sherlock.
type Sherlock struct {
	*common.BaseCLI
	logger logx.Logger
}

// New crea un colector sherlock.
func New(logger logx.Logger) *Sherlock {
	base := common.NewBaseCLI(logger, common.BaseCLIConfig{
		CollectorName: collectorName,
		ExecPath:      defaultExecPath,
		InstallHint:   "pipx install sherlock-project",
	})
	return &Sherlock{BaseCLI: base, logger: base.Logger()}
}

// Name retorna el nombre del colector.
func (s *Sherlock) Name() string {
	return collectorName
}

// Run busca el nombre de usuario derivado del target (parte local de un email).
//
// Config:
//   - sites_filter: "popular" limita la búsqueda a sitios no NSFW
//   - site_timeout: segundos por sitio (default 10)
//   - exec_path: ruta del binario
func (s *Sherlock) Run(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
	username := req.Target.Username()
	if !validator.IsHandle(username) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "no valid username derivable from %q", req.Target.Value)
	}

	path, err := s.ResolveBinary(registry.GetStringConfig(req.Config, common.ExecPathKey, ""))
	if err != nil {
		return nil, err
	}

	p := newParser()
	out, err := s.ExecuteCLI(ctx, path, buildArgs(username, req.Config), p)
	if err != nil && !common.PartialOK(out, err) {
		return nil, err
	}

	findings := p.findings(username)
	s.logger.Info("sherlock completed",
		"username", username,
		"profiles", len(p.profiles),
	)
	return findings, nil
}

func buildArgs(username string, cfg map[string]any) []string {
	args := []string{
		username,
		"--json",
		"--timeout", strconv.Itoa(registry.GetIntConfig(cfg, "site_timeout", defaultSiteTimeout)),
	}
	if registry.GetStringConfig(cfg, "sites_filter", "") == "popular" {
		args = append(args, "--nsfw", "False")
	}
	return args
}
