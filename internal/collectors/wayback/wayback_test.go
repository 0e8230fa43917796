package wayback

import (
	"context"
	"net/http"
	"testing"
	"time"

	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/errors"
	"phineas/internal/platform/httpclient"
	"phineas/internal/platform/logx"
	"phineas/internal/testutil"
)

const cdxJSON = `[["original","timestamp","statuscode"],
["http://example.com/","20200101000000","200"],
["https://api.example.com/v1/users","20210101000000","200"],
["http://dev.example.com/backup.sql","20190101000000","404"],
["http://example.com/wp-admin/","20180101000000","301"]]`

const availableJSON = `{"url":"example.com","archived_snapshots":{"closest":{"status":"200","available":true,
"url":"http://web.archive.org/web/20240101000000/https://example.com/","timestamp":"20240101000000"}}}`

func newTestWayback() *Wayback {
	client := httpclient.New(httpclient.Config{
		Timeout:         2 * time.Second,
		MaxRetries:      1,
		RetryBackoff:    time.Millisecond,
		MaxRetryBackoff: time.Millisecond,
	}, logx.NewNop())
	return newWithClient(client, logx.NewNop())
}

func request(t *testing.T, target, baseURL string) ports.Request {
	t.Helper()
	tg, err := domain.NewTarget(target)
	testutil.AssertNoError(t, err, "target")
	return ports.Request{
		Target: tg,
		Config: map[string]any{
			"cdx_url":       baseURL + "/cdx",
			"available_url": baseURL + "/available",
			"limit":         50,
		},
	}
}

func TestWayback_Run(t *testing.T) {
	server := testutil.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cdx":
			w.Write([]byte(cdxJSON))
		case "/available":
			w.Write([]byte(availableJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	f, err := newTestWayback().Run(context.Background(), request(t, "admin@Example.com", server.URL))
	testutil.AssertNoError(t, err, "run")

	testutil.AssertDeepEqual(t, f[string(domain.KindDomains)], []string{"example.com"}, "domains")
	testutil.AssertDeepEqual(t, f[string(domain.KindSubdomains)], []string{"api.example.com", "dev.example.com"}, "hosts from urls")

	urls := domain.Values(f[string(domain.KindURLs)])
	testutil.AssertEqual(t, len(urls), 4, "header row skipped")
	first, _ := domain.AsRecord(urls[0])
	testutil.AssertEqual(t, first.Get("url"), "http://example.com/", "url")
	testutil.AssertEqual(t, first.Get("timestamp"), "20200101000000", "timestamp")
	testutil.AssertEqual(t, first.Get("status"), "200", "status")

	snapshots := domain.Values(f["snapshots"])
	testutil.AssertEqual(t, len(snapshots), 1, "closest snapshot")
	snap, _ := domain.AsRecord(snapshots[0])
	testutil.AssertEqual(t, snap.Get("available"), "true", "available")

	reqs := server.Requests()
	testutil.AssertEqual(t, reqs[0].Path, "/cdx", "cdx first")
	testutil.AssertContains(t, reqs[0].Query, "url=%2A.example.com%2F%2A", "wildcard url")
	testutil.AssertContains(t, reqs[0].Query, "limit=50", "limit")
	testutil.AssertContains(t, reqs[0].Query, "collapse=urlkey", "collapse")
}

func TestWayback_Run_EmptyIndex(t *testing.T) {
	server := testutil.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/available" {
			w.Write([]byte(`{"archived_snapshots":{}}`))
		}
	})

	f, err := newTestWayback().Run(context.Background(), request(t, "example.com", server.URL))
	testutil.AssertNoError(t, err, "empty body is not an error")
	testutil.AssertEqual(t, len(domain.Values(f[string(domain.KindURLs)])), 0, "no urls")
	testutil.AssertEqual(t, len(domain.Values(f["snapshots"])), 0, "no snapshots")
}

func TestWayback_Run_CDXFailure(t *testing.T) {
	server := testutil.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := newTestWayback().Run(context.Background(), request(t, "example.com", server.URL))
	testutil.AssertErrorIs(t, err, errors.ErrServiceUnavailable, "cdx failure fails the step")
}

func TestWayback_Run_HandleTarget(t *testing.T) {
	_, err := newTestWayback().Run(context.Background(), request(t, "johndoe", "http://127.0.0.1:1"))
	testutil.AssertErrorIs(t, err, errors.ErrInvalidInput, "no domain")
}

func TestURLAnalyzer_Analyze(t *testing.T) {
	a := NewURLAnalyzer(logx.NewNop())

	got := a.Analyze("https://api.example.com/v1/users", "example.com")
	testutil.AssertEqual(t, got.Subdomain, "api.example.com", "subdomain")
	testutil.AssertDeepEqual(t, got.Categories, []string{CategoryAPI}, "api category")

	got = a.Analyze("http://example.com/.git/config", "example.com")
	testutil.AssertEqual(t, got.Subdomain, "", "root is not a subdomain")
	testutil.AssertDeepEqual(t, got.Categories, []string{CategoryRepository}, "repository")

	got = a.Analyze("example.com/site/.env.bak", "example.com")
	testutil.AssertDeepEqual(t, got.Categories, []string{CategorySensitive, CategoryBackup}, "schemeless url")

	got = a.Analyze("http://evil.com/wp-content/app.js", "example.com")
	testutil.AssertEqual(t, got.Subdomain, "", "out of scope host")
	testutil.AssertEqual(t, got.Technology, "WordPress", "technology")
	testutil.AssertDeepEqual(t, got.Categories, []string{CategoryJavaScript}, "javascript")
}

func TestWayback_CollapsesURLVariants(t *testing.T) {
	const cdx = `[["original","timestamp","statuscode"],
["http://example.com/login","20200101000000","200"],
["http://EXAMPLE.com/login/?utm_source=news","20200201000000","200"],
["http://example.com:80/login#form","20200301000000","200"],
["http://example.com/login?next=home","20200401000000","200"]]`

	server := testutil.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cdx" {
			w.Write([]byte(cdx))
			return
		}
		w.Write([]byte(`{"archived_snapshots":{}}`))
	})

	f, err := newTestWayback().Run(context.Background(), request(t, "example.com", server.URL))
	testutil.AssertNoError(t, err, "run")

	urls := domain.Values(f[string(domain.KindURLs)])
	testutil.AssertEqual(t, len(urls), 2, "variants collapsed")
	first, _ := domain.AsRecord(urls[0])
	testutil.AssertEqual(t, first.Get("timestamp"), "20200101000000", "first capture wins")
	second, _ := domain.AsRecord(urls[1])
	testutil.AssertEqual(t, second.Get("url"), "http://example.com/login?next=home", "distinct query kept")
}
