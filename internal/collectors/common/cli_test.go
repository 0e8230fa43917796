package common

import (
	"context"
	"sync"
	"testing"
	"time"

	"phineas/internal/core/domain"
	"phineas/internal/platform/errors"
	"phineas/internal/platform/logx"
	"phineas/internal/testutil"
)

// mockHandler implements OutputHandler for testing
type mockHandler struct {
	mu        sync.Mutex
	lines     []string
	finalized bool
}

func (m *mockHandler) ProcessLine(line []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, string(line))
	return nil
}

func (m *mockHandler) Finalize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finalized = true
	return nil
}

func newTestBase(execPath string) *BaseCLI {
	return NewBaseCLI(logx.NewNop(), BaseCLIConfig{CollectorName: "test", ExecPath: execPath})
}

func TestBaseCLI_ExecuteCLI_Success(t *testing.T) {
	base := newTestBase("sh")
	defer base.Close()

	path, err := base.ResolveBinary("")
	testutil.AssertNoError(t, err, "sh must be in PATH")

	handler := &mockHandler{}
	out, err := base.ExecuteCLI(context.Background(), path, []string{"-c", "printf 'hello\\nworld\\n'"}, handler)

	testutil.AssertNoError(t, err, "execute")
	testutil.AssertEqual(t, out.Lines, 2, "lines")
	testutil.AssertDeepEqual(t, handler.lines, []string{"hello", "world"}, "handler lines")
	testutil.AssertTrue(t, handler.finalized, "finalized")
	testutil.AssertEqual(t, base.Running(), 0, "no process left")
}

func TestBaseCLI_ExecuteCLI_NonZeroExit(t *testing.T) {
	base := newTestBase("sh")

	out, err := base.ExecuteCLI(context.Background(), "sh", []string{"-c", "echo partial; echo boom >&2; exit 3"}, &mockHandler{})

	testutil.AssertErrorIs(t, err, errors.ErrCommandFailed, "non-zero exit")
	testutil.AssertContains(t, err.Error(), "boom", "stderr tail in error")
	testutil.AssertEqual(t, out.Stderr, "boom", "stderr")
	testutil.AssertTrue(t, PartialOK(out, err), "stdout makes it partial")

	out, err = base.ExecuteCLI(context.Background(), "sh", []string{"-c", "exit 1"}, &mockHandler{})
	testutil.AssertFalse(t, PartialOK(out, err), "no stdout means failure")
}

func TestBaseCLI_ExecuteCLI_ContextTimeout(t *testing.T) {
	base := newTestBase("sleep")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := base.ExecuteCLI(ctx, "sleep", []string{"5"}, &mockHandler{})

	testutil.AssertErrorIs(t, err, context.DeadlineExceeded, "deadline")
	testutil.AssertTrue(t, time.Since(start) < 4*time.Second, "process killed early")
}

func TestBaseCLI_ResolveBinary(t *testing.T) {
	base := NewBaseCLI(nil, BaseCLIConfig{CollectorName: "test", ExecPath: "definitely-not-a-real-binary-xyz", InstallHint: "pipx install xyz"})

	_, err := base.ResolveBinary("")
	testutil.AssertErrorIs(t, err, errors.ErrToolNotFound, "missing binary")
	testutil.AssertContains(t, err.Error(), "pipx install xyz", "install hint")

	path, err := base.ResolveBinary("sh")
	testutil.AssertNoError(t, err, "override wins")
	testutil.AssertTrue(t, path != "", "resolved path")
}

func TestLineFunc(t *testing.T) {
	var got []string
	h := LineFunc(func(line string) { got = append(got, line) })

	testutil.AssertNoError(t, h.ProcessLine([]byte("  padded \r")), "process")
	testutil.AssertNoError(t, h.Finalize(), "finalize")
	testutil.AssertDeepEqual(t, got, []string{"padded"}, "trimmed")
}

func TestHelpers(t *testing.T) {
	testutil.AssertDeepEqual(t, SortedUnique([]string{"b", " a", "b", ""}), []string{"a", "b"}, "sorted unique")

	email, _ := domain.NewTarget("John@Example.com")
	d, err := RequireDomain(email)
	testutil.AssertNoError(t, err, "email has domain")
	testutil.AssertEqual(t, d, "example.com", "domain from email")

	handle, _ := domain.NewTarget("johndoe")
	_, err = RequireDomain(handle)
	testutil.AssertErrorIs(t, err, errors.ErrInvalidInput, "handle has no domain")
	_, err = RequireEmail(handle)
	testutil.AssertErrorIs(t, err, errors.ErrInvalidInput, "handle is not email")
}
