// internal/collectors/wayback/wayback.go
package wayback

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"phineas/internal/collectors/common"
	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/errors"
	"phineas/internal/platform/httpclient"
	"phineas/internal/platform/logx"
	"phineas/internal/platform/registry"
	"phineas/internal/platform/urlfilter"
)

const (
	collectorName = "wayback"

	defaultCDXURL       = "http://web.archive.org/cdx/search/cdx"
	defaultAvailableURL = "http://archive.org/wayback/available"
	defaultLimit        = 1000
)

// Wayback consulta el archivo histórico de Internet Archive.
type Wayback struct {
	client   *httpclient.Client
	analyzer *URLAnalyzer
	logger   logx.Logger
}

// New crea el colector wayback.
func New(logger logx.Logger) *Wayback {
	if logger == nil {
		logger = logx.NewNop()
	}
	httpConfig := httpclient.Config{
		Timeout:         60 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    2 * time.Second,
		MaxRetryBackoff: 20 * time.Second,
		UserAgent:       httpclient.DefaultUserAgent,
		RateLimit:       1.0, // ser respetuoso con archive.org
		RateLimitBurst:  2,
		CacheTTL:        time.Hour,
	}
	return newWithClient(httpclient.New(httpConfig, logger), logger)
}

func newWithClient(client *httpclient.Client, logger logx.Logger) *Wayback {
	logger = logger.With("collector", collectorName)
	return &Wayback{
		client:   client,
		analyzer: NewURLAnalyzer(logger),
		logger:   logger,
	}
}

// Name retorna el nombre del colector.
func (w *Wayback) Name() string {
	return collectorName
}

// Run lista las URLs archivadas del dominio y la instantánea más cercana.
//
// Config:
//   - limit: máximo de URLs del índice CDX (default 1000)
//   - cdx_url, available_url: endpoints alternativos
func (w *Wayback) Run(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
	target, err := common.RequireDomain(req.Target)
	if err != nil {
		return nil, err
	}

	urls, subdomains, err := w.archivedURLs(ctx, target, req.Config)
	if err != nil {
		return nil, err
	}

	snapshots, err := w.snapshots(ctx, target, req.Config)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		w.logger.Warn("snapshot lookup failed", "domain", target, "error", err.Error())
	}

	w.logger.Info("wayback completed",
		"domain", target,
		"urls", len(urls),
		"subdomains", len(subdomains),
		"snapshots", len(snapshots),
	)

	return domain.FindingSet{
		string(domain.KindDomains):    []string{target},
		string(domain.KindURLs):       common.Records(urls),
		string(domain.KindSubdomains): common.SortedUnique(subdomains),
		"snapshots":                   common.Records(snapshots),
	}, nil
}

// archivedURLs consulta el índice CDX. La primera fila es la cabecera.
func (w *Wayback) archivedURLs(ctx context.Context, target string, cfg map[string]any) ([]domain.Record, []string, error) {
	q := url.Values{}
	q.Set("url", "*."+target+"/*")
	q.Set("output", "json")
	q.Set("fl", "original,timestamp,statuscode")
	q.Set("collapse", "urlkey")
	q.Set("limit", strconv.Itoa(registry.GetIntConfig(cfg, "limit", defaultLimit)))

	endpoint := registry.GetStringConfig(cfg, "cdx_url", defaultCDXURL) + "?" + q.Encode()

	resp, err := w.client.Get(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, nil, errors.Wrap(err, "wayback cdx query")
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		resp.Body.Close()
		return nil, nil, errors.Wrap(err, "wayback cdx query")
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, nil, err
	}

	// An empty body means no captures
	var rows [][]string
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, nil, errors.Wrapf(errors.ErrInvalidResponse, "decode cdx response: %v", err)
		}
	}

	urls := make([]domain.Record, 0, len(rows))
	var subdomains []string
	seen := urlfilter.NewDeduper()
	duplicates := 0
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}
		// collapse=urlkey no une variantes con tracking o mayúsculas
		if !seen.Add(row[0]) {
			duplicates++
			continue
		}
		analysis := w.analyzer.Analyze(row[0], target)
		rec := domain.Record{
			"url":       row[0],
			"timestamp": row[1],
			"status":    row[2],
		}
		if len(analysis.Categories) > 0 {
			cats := make([]any, 0, len(analysis.Categories))
			for _, c := range analysis.Categories {
				cats = append(cats, c)
			}
			rec["categories"] = cats
		}
		if analysis.Technology != "" {
			rec["technology"] = analysis.Technology
		}
		if analysis.Subdomain != "" {
			subdomains = append(subdomains, analysis.Subdomain)
		}
		urls = append(urls, rec)
	}
	if duplicates > 0 {
		w.logger.Debug("archived URL variants collapsed", "duplicates", duplicates)
	}
	return urls, subdomains, nil
}

// availability es la respuesta de /wayback/available.
type availability struct {
	ArchivedSnapshots struct {
		Closest *struct {
			URL       string `json:"url"`
			Timestamp string `json:"timestamp"`
			Status    string `json:"status"`
			Available bool   `json:"available"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

func (w *Wayback) snapshots(ctx context.Context, target string, cfg map[string]any) ([]domain.Record, error) {
	endpoint := registry.GetStringConfig(cfg, "available_url", defaultAvailableURL) + "?url=" + url.QueryEscape(target)

	var resp availability
	if err := w.client.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	closest := resp.ArchivedSnapshots.Closest
	if closest == nil || strings.TrimSpace(closest.URL) == "" {
		return []domain.Record{}, nil
	}
	return []domain.Record{{
		"url":       closest.URL,
		"timestamp": closest.Timestamp,
		"status":    closest.Status,
		"available": closest.Available,
	}}, nil
}
