// internal/collectors/theharvester/theharvester.go
package theharvester

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
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
	collectorName   = "theharvester"
	defaultExecPath = "theHarvester"
	defaultLimit    = 500
)

var defaultSources = []string{"google", "bing", "duckduckgo", "yahoo"}

// Harvester recolecta emails, hosts y URLs de un dominio con theHarvester.
type Harvester struct {
	*common.BaseCLI
	logger logx.Logger
}

// New crea un colector theHarvester.
func New(logger logx.Logger) *Harvester {
	base := common.NewBaseCLI(logger, common.BaseCLIConfig{
		CollectorName: collectorName,
		ExecPath:      defaultExecPath,
		InstallHint:   "pipx install theHarvester",
	})
	return &Harvester{BaseCLI: base, logger: base.Logger()}
}

// Name retorna el nombre del colector.
func (h *Harvester) Name() string {
	return collectorName
}

// Run ejecuta theHarvester contra el dominio del target.
//
// Config:
//   - sources: motores de búsqueda (default google,bing,duckduckgo,yahoo)
//   - limit: máximo de resultados por fuente (default 500)
func (h *Harvester) Run(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
	target, err := common.RequireDomain(req.Target)
	if err != nil {
		return nil, err
	}

	path, err := h.ResolveBinary(registry.GetStringConfig(req.Config, common.ExecPathKey, ""))
	if err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp("", "phineas-harvester-*")
	if err != nil {
		return nil, errors.Wrap(err, "create work dir")
	}
	defer os.RemoveAll(workDir)

	reportFile := filepath.Join(workDir, "harvester_"+target+".json")

	p := newParser()
	out, err := h.ExecuteCLI(ctx, path, buildArgs(target, reportFile, req.Config), p)
	if err != nil && !common.PartialOK(out, err) {
		return nil, err
	}

	if err := p.mergeReport(reportFile); err != nil {
		h.logger.Debug("harvester report not merged", "file", reportFile, "error", err.Error())
	}

	findings := p.findings()
	h.logger.Info("theHarvester completed",
		"domain", target,
		"emails", len(p.emails),
		"subdomains", len(p.subdomains),
	)
	return findings, nil
}

func buildArgs(target, reportFile string, cfg map[string]any) []string {
	sources := registry.GetSliceConfig(cfg, "sources", defaultSources)
	limit := registry.GetIntConfig(cfg, "limit", defaultLimit)
	return []string{
		"-d", target,
		"-b", strings.Join(sources, ","),
		"-l", strconv.Itoa(limit),
		"-f", reportFile,
	}
}

type section int

const (
	sectionNone section = iota
	sectionEmails
	sectionHosts
	sectionURLs
)

// parser sigue las secciones de la salida de texto de theHarvester.
type parser struct {
	current    section
	emails     []string
	subdomains []string
	hosts      []string
	urls       []string
}

func newParser() *parser {
	return &parser{}
}

// ProcessLine implementa common.OutputHandler.
func (p *parser) ProcessLine(raw []byte) error {
	line := strings.TrimSpace(string(raw))

	switch {
	case strings.Contains(line, "Emails found:"):
		p.current = sectionEmails
		return nil
	case strings.Contains(line, "Hosts found:"):
		p.current = sectionHosts
		return nil
	case strings.Contains(line, "Interesting"):
		p.current = sectionURLs
		return nil
	}

	if line == "" || strings.HasPrefix(line, "[") {
		return nil
	}

	switch p.current {
	case sectionEmails:
		if validator.IsEmail(line) {
			p.emails = append(p.emails, line)
		}
	case sectionHosts:
		if host, ok := hostOf(line); ok {
			p.subdomains = append(p.subdomains, host)
			p.hosts = append(p.hosts, line)
		}
	case sectionURLs:
		if validator.IsURL(line) {
			p.urls = append(p.urls, line)
		}
	}
	return nil
}

// Finalize implementa common.OutputHandler.
func (p *parser) Finalize() error {
	return nil
}

// hostOf reconoce líneas "host:ip" cuyo host tiene al menos un punto.
func hostOf(line string) (string, bool) {
	if !strings.Contains(line, ":") {
		return "", false
	}
	host, _, _ := strings.Cut(line, ":")
	host = strings.TrimSpace(host)
	if !strings.Contains(host, ".") {
		return "", false
	}
	return host, true
}

// mergeReport añade el informe JSON (-f) si la herramienta lo escribió.
func (p *parser) mergeReport(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var report struct {
		Emails []string `json:"emails"`
		Hosts  []string `json:"hosts"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return errors.Wrapf(errors.ErrInvalidResponse, "decode %s: %v", path, err)
	}
	p.emails = append(p.emails, report.Emails...)
	for _, h := range report.Hosts {
		host, _, _ := strings.Cut(h, ":")
		if strings.Contains(host, ".") {
			p.subdomains = append(p.subdomains, strings.TrimSpace(host))
		}
	}
	return nil
}

func (p *parser) findings() domain.FindingSet {
	return domain.FindingSet{
		string(domain.KindEmails):     common.SortedUnique(p.emails),
		string(domain.KindSubdomains): common.SortedUnique(p.subdomains),
		"hosts":                       common.SortedUnique(p.hosts),
		string(domain.KindURLs):       common.SortedUnique(p.urls),
	}
}
