// internal/collectors/haveibeenpwned/haveibeenpwned.go
package haveibeenpwned

import (
	"context"
	"net/url"
	"strings"
	"time"

	"phineas/internal/collectors/common"
	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/errors"
	"phineas/internal/platform/httpclient"
	"phineas/internal/platform/logx"
	"phineas/internal/platform/registry"
)

const (
	collectorName = "haveibeenpwned"

	// credentialKey servicio cuya clave se busca en la configuración de API keys
	credentialKey = "haveibeenpwned"

	defaultBaseURL = "https://haveibeenpwned.com/api/v3"
)

// HIBP consulta la API v3 de Have I Been Pwned.
type HIBP struct {
	client *httpclient.Client
	logger logx.Logger
}

// New crea el colector con el rate limit que exige la API (1 petición cada 1.5s).
func New(logger logx.Logger) *HIBP {
	if logger == nil {
		logger = logx.NewNop()
	}
	httpConfig := httpclient.Config{
		Timeout:         30 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    2 * time.Second,
		MaxRetryBackoff: 10 * time.Second,
		UserAgent:       httpclient.DefaultUserAgent,
		RateLimit:       1 / 1.5,
		RateLimitBurst:  1,
		CacheTTL:        15 * time.Minute,
	}
	return newWithClient(httpclient.New(httpConfig, logger), logger)
}

func newWithClient(client *httpclient.Client, logger logx.Logger) *HIBP {
	return &HIBP{
		client: client,
		logger: logger.With("collector", collectorName),
	}
}

// Name retorna el nombre del colector.
func (h *HIBP) Name() string {
	return collectorName
}

// RequiredCredential implementa ports.CredentialedCollector.
func (h *HIBP) RequiredCredential() string {
	return credentialKey
}

// Run busca brechas y pastes del email objetivo.
//
// Config:
//   - base_url: raíz de la API (default https://haveibeenpwned.com/api/v3)
//   - include_pastes: consultar también pastes (default true)
func (h *HIBP) Run(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
	email, err := common.RequireEmail(req.Target)
	if err != nil {
		return nil, err
	}

	apiKey, ok := req.Credentials.Get(credentialKey)
	if !ok {
		return nil, errors.Wrap(domain.ErrMissingCredential, "API key not configured")
	}

	baseURL := strings.TrimRight(registry.GetStringConfig(req.Config, "base_url", defaultBaseURL), "/")
	headers := map[string]string{"hibp-api-key": apiKey}

	breaches, err := h.breaches(ctx, baseURL, email, headers)
	if err != nil {
		return nil, err
	}

	var pastes []domain.Record
	if registry.GetBoolConfig(req.Config, "include_pastes", true) {
		pastes, err = h.pastes(ctx, baseURL, email, headers)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Las pastes requieren un plan de API superior; no invalidan las brechas
			h.logger.Warn("paste lookup failed", "email", email, "error", err.Error())
		}
	}

	h.logger.Info("haveibeenpwned completed",
		"email", email,
		"breaches", len(breaches),
		"pastes", len(pastes),
	)

	return domain.FindingSet{
		string(domain.KindEmails):   []string{email},
		string(domain.KindBreaches): common.Records(breaches),
		"pastes":                    common.Records(pastes),
	}, nil
}

func (h *HIBP) breaches(ctx context.Context, baseURL, email string, headers map[string]string) ([]domain.Record, error) {
	endpoint := baseURL + "/breachedaccount/" + url.PathEscape(email) + "?truncateResponse=false"

	var raw []breach
	if err := h.client.GetJSON(ctx, endpoint, headers, &raw); err != nil {
		if errors.IsNotFound(err) {
			return []domain.Record{}, nil
		}
		return nil, err
	}

	out := make([]domain.Record, 0, len(raw))
	for _, b := range raw {
		rec := b.record()
		rec["email"] = email
		out = append(out, rec)
	}
	return out, nil
}

func (h *HIBP) pastes(ctx context.Context, baseURL, email string, headers map[string]string) ([]domain.Record, error) {
	endpoint := baseURL + "/pasteaccount/" + url.PathEscape(email)

	var raw []paste
	if err := h.client.GetJSON(ctx, endpoint, headers, &raw); err != nil {
		if errors.IsNotFound(err) {
			return []domain.Record{}, nil
		}
		return nil, err
	}

	out := make([]domain.Record, 0, len(raw))
	for _, p := range raw {
		out = append(out, p.record())
	}
	return out, nil
}
