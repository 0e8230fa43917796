package sublist3r

import (
	"context"
	"testing"

	"phineas/internal/collectors/common"
	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/logx"
	"phineas/internal/testutil"
)

func TestExtractSubdomains(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "www.example.com", []string{"www.example.com"}},
		{"colored", "\x1b[92mapi.example.com\x1b[0m", []string{"api.example.com"}},
		{"br separated", "a.example.com<BR>B.example.com", []string{"a.example.com", "b.example.com"}},
		{"banner", "[-] Enumerating subdomains now for example.com", nil},
		{"apex", "example.com", nil},
		{"other domain", "www.example.org", nil},
		{"lookalike", "notexample.com", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertDeepEqual(t, extractSubdomains(tt.line, "example.com"), tt.want, "subdomains")
		})
	}
}

func TestBuildArgs(t *testing.T) {
	testutil.AssertDeepEqual(t, buildArgs("example.com", "/tmp/o.txt", nil),
		[]string{"-d", "example.com", "-o", "/tmp/o.txt"}, "defaults")
	testutil.AssertDeepEqual(t, buildArgs("example.com", "/tmp/o.txt", map[string]any{"bruteforce": true, "scan_ports": true}),
		[]string{"-d", "example.com", "-o", "/tmp/o.txt", "-b", "-p", "80,443"}, "options")
}

func TestRelatedDomains(t *testing.T) {
	testutil.AssertDeepEqual(t, relatedDomains("example.com"), []string{"example.com"}, "registrable target")
	testutil.AssertDeepEqual(t, relatedDomains("shop.example.co.uk"),
		[]string{"example.co.uk", "shop.example.co.uk"}, "subdomain adds its registrable parent")
}

func TestSublist3r_Run(t *testing.T) {
	// $4 is the -o output file
	bin := testutil.FakeBinary(t, "sublist3r", `echo "[-] Searching now in Google.."
echo "www.example.com"
echo "mail.example.com"
printf 'mail.example.com\ndev.example.com\n' > "$4"`)
	s := New(logx.NewNop())

	target, _ := domain.NewTarget("https://Example.com")
	f, err := s.Run(context.Background(), ports.Request{
		Target: target,
		Config: map[string]any{common.ExecPathKey: bin},
	})

	testutil.AssertNoError(t, err, "run")
	testutil.AssertDeepEqual(t, f[string(domain.KindDomains)], []string{"example.com"}, "domains")
	testutil.AssertDeepEqual(t, f[string(domain.KindSubdomains)],
		[]string{"dev.example.com", "mail.example.com", "www.example.com"}, "stdout and file merged, sorted")
}
