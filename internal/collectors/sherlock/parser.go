// internal/collectors/sherlock/parser.go
package sherlock

import (
	"encoding/json"
	"sort"
	"strings"

	"phineas/internal/collectors/common"
	"phineas/internal/core/domain"
)

// profile es una cuenta encontrada por sherlock.
type profile struct {
	Platform string
	URL      string
}

// parser acumula perfiles desde la salida de sherlock. Acepta líneas JSON
// ({"Plataforma": {"url_user": ...}}) y, si no hay ninguna, el formato de
// texto "[+] Plataforma: url".
type parser struct {
	profiles  []profile
	textLines []profile
	sawJSON   bool
	seen      map[string]struct{}
}

func newParser() *parser {
	return &parser{seen: make(map[string]struct{})}
}

// ProcessLine implementa common.OutputHandler.
func (p *parser) ProcessLine(raw []byte) error {
	line := strings.TrimSpace(string(raw))
	if line == "" {
		return nil
	}

	if strings.HasPrefix(line, "{") {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			return err
		}
		p.sawJSON = true
		for platform, info := range doc {
			var site struct {
				URLUser string `json:"url_user"`
			}
			if json.Unmarshal(info, &site) != nil || site.URLUser == "" {
				continue
			}
			p.add(&p.profiles, profile{Platform: platform, URL: site.URLUser})
		}
		return nil
	}

	if pr, ok := parseTextLine(line); ok {
		p.add(&p.textLines, pr)
	}
	return nil
}

// Finalize implementa common.OutputHandler.
func (p *parser) Finalize() error {
	if !p.sawJSON {
		p.profiles = p.textLines
	}
	sort.Slice(p.profiles, func(i, j int) bool {
		if p.profiles[i].Platform != p.profiles[j].Platform {
			return p.profiles[i].Platform < p.profiles[j].Platform
		}
		return p.profiles[i].URL < p.profiles[j].URL
	})
	return nil
}

func (p *parser) add(dst *[]profile, pr profile) {
	key := pr.Platform + "|" + pr.URL
	if _, ok := p.seen[key]; ok {
		return
	}
	p.seen[key] = struct{}{}
	*dst = append(*dst, pr)
}

// parseTextLine reconoce "[+] GitHub: https://github.com/johndoe".
func parseTextLine(line string) (profile, bool) {
	if !strings.Contains(line, "[+]") {
		return profile{}, false
	}
	platform, url, ok := strings.Cut(line, ":")
	if !ok {
		return profile{}, false
	}
	platform = strings.TrimSpace(strings.ReplaceAll(platform, "[+]", ""))
	url = strings.TrimSpace(url)
	if platform == "" || url == "" {
		return profile{}, false
	}
	return profile{Platform: platform, URL: url}, true
}

// findings construye el FindingSet del colector.
func (p *parser) findings(username string) domain.FindingSet {
	profiles := make([]domain.Record, 0, len(p.profiles))
	accounts := make([]domain.Record, 0, len(p.profiles))
	for _, pr := range p.profiles {
		handle := lastSegment(pr.URL)
		profiles = append(profiles, domain.Record{
			"platform": pr.Platform,
			"username": handle,
			"url":      pr.URL,
			"exists":   true,
		})
		accounts = append(accounts, domain.Record{
			"platform": pr.Platform,
			"username": handle,
			"url":      pr.URL,
		})
	}

	return domain.FindingSet{
		string(domain.KindUsernames):      []string{username},
		string(domain.KindSocialProfiles): common.Records(profiles),
		string(domain.KindAccounts):       common.Records(accounts),
	}
}

// lastSegment retorna el último segmento de ruta de una URL.
func lastSegment(url string) string {
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}
