// internal/collectors/sublist3r/sublist3r.go
package sublist3r

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"phineas/internal/collectors/common"
	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/errors"
	"phineas/internal/platform/logx"
	"phineas/internal/platform/registry"
	"phineas/internal/platform/validator"
)

const (
	collectorName   = "sublist3r"
	defaultExecPath = "sublist3r"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Sublist3r enumera subdominios usando buscadores y fuentes públicas.
type Sublist3r struct {
	*common.BaseCLI
	logger logx.Logger
}

// New crea un colector sublist3r.
func New(logger logx.Logger) *Sublist3r {
	base := common.NewBaseCLI(logger, common.BaseCLIConfig{
		CollectorName: collectorName,
		ExecPath:      defaultExecPath,
		InstallHint:   "pipx install sublist3r",
	})
	return &Sublist3r{BaseCLI: base, logger: base.Logger()}
}

// Name retorna el nombre del colector.
func (s *Sublist3r) Name() string {
	return collectorName
}

// Run enumera subdominios del dominio del target.
//
// Config:
//   - bruteforce: activa el módulo de fuerza bruta (-b)
//   - scan_ports: escanea 80,443 en los subdominios encontrados (-p)
func (s *Sublist3r) Run(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
	target, err := common.RequireDomain(req.Target)
	if err != nil {
		return nil, err
	}

	path, err := s.ResolveBinary(registry.GetStringConfig(req.Config, common.ExecPathKey, ""))
	if err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp("", "phineas-sublist3r-*")
	if err != nil {
		return nil, errors.Wrap(err, "create work dir")
	}
	defer os.RemoveAll(workDir)

	outputFile := filepath.Join(workDir, "sublist3r_"+target+".txt")

	var found []string
	handler := common.LineFunc(func(line string) {
		found = append(found, extractSubdomains(line, target)...)
	})

	out, err := s.ExecuteCLI(ctx, path, buildArgs(target, outputFile, req.Config), handler)
	if err != nil && !common.PartialOK(out, err) {
		return nil, err
	}

	fromFile, err := readOutputFile(outputFile, target)
	if err != nil {
		s.logger.Debug("sublist3r output file not read", "file", outputFile, "error", err.Error())
	}
	found = append(found, fromFile...)

	subdomains := common.SortedUnique(found)
	s.logger.Info("sublist3r completed", "domain", target, "subdomains", len(subdomains))

	return domain.FindingSet{
		string(domain.KindDomains):    relatedDomains(target),
		string(domain.KindSubdomains): subdomains,
	}, nil
}

// relatedDomains devuelve el target y, si es un subdominio, su dominio registrable.
func relatedDomains(target string) []string {
	if root := validator.RegistrableDomain(target); root != target {
		return common.SortedUnique([]string{target, root})
	}
	return []string{target}
}

func buildArgs(target, outputFile string, cfg map[string]any) []string {
	args := []string{"-d", target, "-o", outputFile}
	if registry.GetBoolConfig(cfg, "bruteforce", false) {
		args = append(args, "-b")
	}
	if registry.GetBoolConfig(cfg, "scan_ports", false) {
		args = append(args, "-p", "80,443")
	}
	return args
}

// extractSubdomains devuelve los subdominios de base presentes en una línea.
// sublist3r separa a veces varios hosts con "<BR>".
func extractSubdomains(line, base string) []string {
	line = ansiPattern.ReplaceAllString(line, "")
	var out []string
	for _, part := range strings.Split(line, "<BR>") {
		host := strings.ToLower(strings.TrimSpace(part))
		if strings.ContainsAny(host, " \t") {
			continue
		}
		if validator.IsSubdomain(host, base) {
			out = append(out, host)
		}
	}
	return out
}

func readOutputFile(path, base string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		out = append(out, extractSubdomains(scanner.Text(), base)...)
	}
	return out, scanner.Err()
}
