package holehe

import (
	"context"
	"testing"

	"phineas/internal/collectors/common"
	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/errors"
	"phineas/internal/platform/logx"
	"phineas/internal/testutil"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"[+] twitter.com", "twitter.com", true},
		{"\x1b[32m[+] instagram.com\x1b[0m", "instagram.com", true},
		{"✓ spotify.com used", "spotify.com", true},
		{"[+] on used github.com", "github.com", true},
		{"[-] facebook.com", "", false},
		{"[x] rate limited", "", false},
		{"[+]", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := parseLine(tt.line)
			testutil.AssertEqual(t, ok, tt.ok, "matched")
			testutil.AssertEqual(t, got, tt.want, "platform")
		})
	}
}

func TestHolehe_Run(t *testing.T) {
	bin := testutil.FakeBinary(t, "holehe", `printf '[+] twitter.com\n[-] facebook.com\n[+] github.com\n[+] twitter.com\n'`)
	h := New(logx.NewNop())

	target, _ := domain.NewTarget("Jane@Example.com")
	f, err := h.Run(context.Background(), ports.Request{
		Target: target,
		Config: map[string]any{common.ExecPathKey: bin},
	})

	testutil.AssertNoError(t, err, "run")
	testutil.AssertDeepEqual(t, f[string(domain.KindEmails)], []string{"jane@example.com"}, "target email")

	accounts := domain.Values(f[string(domain.KindAccounts)])
	testutil.AssertEqual(t, len(accounts), 2, "deduplicated accounts")
	rec, _ := domain.AsRecord(accounts[0])
	testutil.AssertEqual(t, rec.Get("platform"), "github.com", "sorted platforms")
	testutil.AssertEqual(t, rec.Get("email"), "jane@example.com", "email field")
}

func TestHolehe_Run_RejectsNonEmail(t *testing.T) {
	h := New(logx.NewNop())
	target, _ := domain.NewTarget("example.com")
	_, err := h.Run(context.Background(), ports.Request{Target: target})
	testutil.AssertErrorIs(t, err, errors.ErrInvalidInput, "domain target")
}
