package theharvester

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"phineas/internal/collectors/common"
	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/errors"
	"phineas/internal/platform/logx"
	"phineas/internal/testutil"
)

const sampleOutput = `*******************************************************************
* theHarvester 4.4.0                                              *
*******************************************************************
[*] Target: example.com

[*] Emails found: 3
----------------------
admin@example.com
info@example.com
contact@...

[*] Hosts found: 3
---------------------
api.example.com:93.184.216.34
mail.example.com:93.184.216.35
localhost:127.0.0.1

[*] Interesting Urls found: 1
--------------------
https://example.com/login
`

func feed(p *parser, text string) {
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			_ = p.ProcessLine([]byte(text[start:i]))
			start = i + 1
		}
	}
	_ = p.Finalize()
}

func TestParser_Sections(t *testing.T) {
	p := newParser()
	feed(p, sampleOutput)

	testutil.AssertDeepEqual(t, p.emails, []string{"admin@example.com", "info@example.com"}, "malformed email skipped")
	testutil.AssertDeepEqual(t, p.subdomains, []string{"api.example.com", "mail.example.com"}, "hosts need a dot")
	testutil.AssertDeepEqual(t, p.urls, []string{"https://example.com/login"}, "interesting urls")
	testutil.AssertEqual(t, len(p.hosts), 2, "raw host lines")
}

func TestParser_MergeReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	testutil.AssertNoError(t, os.WriteFile(path, []byte(`{"emails":["dev@example.com","admin@example.com"],"hosts":["cdn.example.com:1.2.3.4","bare"]}`), 0o600), "write report")

	p := newParser()
	p.emails = []string{"admin@example.com"}
	testutil.AssertNoError(t, p.mergeReport(path), "merge")

	f := p.findings()
	testutil.AssertDeepEqual(t, f[string(domain.KindEmails)], []string{"admin@example.com", "dev@example.com"}, "deduplicated emails")
	testutil.AssertDeepEqual(t, f[string(domain.KindSubdomains)], []string{"cdn.example.com"}, "report hosts")

	testutil.AssertError(t, p.mergeReport(filepath.Join(t.TempDir(), "missing.json")), "missing report")
}

func TestBuildArgs(t *testing.T) {
	args := buildArgs("example.com", "/tmp/r.json", map[string]any{"sources": []any{"bing", "crtsh"}, "limit": 50})
	testutil.AssertDeepEqual(t, args, []string{"-d", "example.com", "-b", "bing,crtsh", "-l", "50", "-f", "/tmp/r.json"}, "args")

	args = buildArgs("example.com", "/tmp/r.json", nil)
	testutil.AssertEqual(t, args[3], "google,bing,duckduckgo,yahoo", "default sources")
	testutil.AssertEqual(t, args[5], "500", "default limit")
}

func TestHarvester_Run(t *testing.T) {
	script := `cat <<'OUT'
` + sampleOutput + `OUT
echo '{"emails":["sec@example.com"],"hosts":[]}' > "$8"`
	bin := testutil.FakeBinary(t, "theHarvester", script)
	h := New(logx.NewNop())

	target, _ := domain.NewTarget("someone@example.com")
	f, err := h.Run(context.Background(), ports.Request{
		Target: target,
		Config: map[string]any{common.ExecPathKey: bin},
	})

	testutil.AssertNoError(t, err, "run")
	testutil.AssertDeepEqual(t, f[string(domain.KindEmails)],
		[]string{"admin@example.com", "info@example.com", "sec@example.com"}, "stdout plus report")
	testutil.AssertEqual(t, len(domain.Values(f[string(domain.KindSubdomains)])), 2, "subdomains")
}

func TestHarvester_Run_HandleTarget(t *testing.T) {
	h := New(logx.NewNop())
	target, _ := domain.NewTarget("johndoe")
	_, err := h.Run(context.Background(), ports.Request{Target: target})
	testutil.AssertErrorIs(t, err, errors.ErrInvalidInput, "handles have no domain")
}
