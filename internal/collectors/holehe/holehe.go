// internal/collectors/holehe/holehe.go
package holehe

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"phineas/internal/collectors/common"
	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/logx"
	"phineas/internal/platform/registry"
)

const (
	collectorName   = "holehe"
	defaultExecPath = "holehe"
)

// ansiPattern elimina secuencias de color de la salida de holehe.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Holehe comprueba en qué sitios está registrado un email.
type Holehe struct {
	*common.BaseCLI
	logger logx.Logger
}

// New crea un colector holehe.
func New(logger logx.Logger) *Holehe {
	base := common.NewBaseCLI(logger, common.BaseCLIConfig{
		CollectorName: collectorName,
		ExecPath:      defaultExecPath,
		InstallHint:   "pipx install holehe",
	})
	return &Holehe{BaseCLI: base, logger: base.Logger()}
}

// Name retorna el nombre del colector.
func (h *Holehe) Name() string {
	return collectorName
}

// Run ejecuta `holehe <email> --only-used`.
func (h *Holehe) Run(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
	email, err := common.RequireEmail(req.Target)
	if err != nil {
		return nil, err
	}

	path, err := h.ResolveBinary(registry.GetStringConfig(req.Config, common.ExecPathKey, ""))
	if err != nil {
		return nil, err
	}

	var platforms []string
	handler := common.LineFunc(func(line string) {
		if p, ok := parseLine(line); ok {
			platforms = append(platforms, p)
		}
	})

	out, err := h.ExecuteCLI(ctx, path, []string{email, "--only-used"}, handler)
	if err != nil && !common.PartialOK(out, err) {
		return nil, err
	}

	platforms = common.SortedUnique(platforms)
	h.logger.Info("holehe completed", "email", email, "accounts", len(platforms))
	return buildFindings(email, platforms), nil
}

// parseLine extrae la plataforma de una línea positiva ("[+] twitter.com").
func parseLine(line string) (string, bool) {
	line = strings.TrimSpace(ansiPattern.ReplaceAllString(line, ""))
	if !strings.Contains(line, "[+]") && !strings.Contains(line, "✓") {
		return "", false
	}
	for _, word := range strings.Fields(line) {
		switch {
		case strings.HasPrefix(word, "["), word == "✓", word == "on", word == "used":
			continue
		default:
			return word, true
		}
	}
	return "", false
}

func buildFindings(email string, platforms []string) domain.FindingSet {
	sort.Strings(platforms)
	accounts := make([]domain.Record, 0, len(platforms))
	profiles := make([]domain.Record, 0, len(platforms))
	for _, p := range platforms {
		accounts = append(accounts, domain.Record{"platform": p, "email": email})
		profiles = append(profiles, domain.Record{"platform": p, "email": email, "exists": true})
	}
	return domain.FindingSet{
		string(domain.KindEmails):         []string{email},
		string(domain.KindAccounts):       common.Records(accounts),
		string(domain.KindSocialProfiles): common.Records(profiles),
	}
}
