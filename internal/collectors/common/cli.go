// Package common provides shared abstractions for collector implementations.
package common

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"phineas/internal/platform/errors"
	"phineas/internal/platform/logx"
)

// OutputHandler processes output from CLI tools.
// Implementations define how to parse stdout from the subprocess.
type OutputHandler interface {
	// ProcessLine handles each line of stdout in real-time.
	// Errors are logged and processing continues.
	ProcessLine(line []byte) error

	// Finalize is called after all lines are processed.
	Finalize() error
}

// LineFunc adapts a function to OutputHandler.
type LineFunc func(line string)

// ProcessLine calls f with the trimmed line.
func (f LineFunc) ProcessLine(line []byte) error {
	f(strings.TrimSpace(string(line)))
	return nil
}

// Finalize is a no-op.
func (f LineFunc) Finalize() error { return nil }

// CommandOutput summarizes a finished subprocess.
type CommandOutput struct {
	// Lines number of stdout lines seen
	Lines int

	// Stderr captured stderr (trimmed)
	Stderr string

	Duration time.Duration
}

// BaseCLI provides subprocess execution for CLI-based collectors.
// A single BaseCLI may run several commands concurrently.
//
// Usage:
//  1. Embed *BaseCLI in your collector struct
//  2. Implement OutputHandler (or use LineFunc) for parsing logic
//  3. Call ExecuteCLI() in your Run() method
type BaseCLI struct {
	logger      logx.Logger
	execPath    string
	installHint string

	// Process management
	mu      sync.Mutex
	running map[*exec.Cmd]struct{}
}

// BaseCLIConfig contains configuration for BaseCLI.
type BaseCLIConfig struct {
	CollectorName string // Collector name for logging
	ExecPath      string // Default binary name or path (resolved via LookPath)
	InstallHint   string // Shown when the binary is missing
}

// NewBaseCLI creates a new BaseCLI with the given configuration.
func NewBaseCLI(logger logx.Logger, cfg BaseCLIConfig) *BaseCLI {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &BaseCLI{
		logger:      logger.With("collector", cfg.CollectorName),
		execPath:    cfg.ExecPath,
		installHint: cfg.InstallHint,
		running:     make(map[*exec.Cmd]struct{}),
	}
}

// ResolveBinary locates the binary in PATH. override (e.g. the exec_path
// config key) takes precedence over the default.
func (b *BaseCLI) ResolveBinary(override string) (string, error) {
	name := b.execPath
	if override != "" {
		name = override
	}
	path, err := exec.LookPath(name)
	if err != nil {
		if b.installHint != "" {
			return "", errors.Wrapf(errors.ErrToolNotFound, "%s (install: %s)", name, b.installHint)
		}
		return "", errors.Wrapf(errors.ErrToolNotFound, "%s", name)
	}
	return path, nil
}

// ExecuteCLI runs execPath with args and streams stdout to handler.
//
// Returns:
//   - ctx.Err() if the context ended while the process was running
//   - errors.ErrCommandFailed (wrapped) for a non-zero exit; out still
//     describes what was read so callers can keep partial results
func (b *BaseCLI) ExecuteCLI(ctx context.Context, execPath string, args []string, handler OutputHandler) (CommandOutput, error) {
	var out CommandOutput
	startTime := time.Now()

	b.logger.Debug("executing CLI command", "exec_path", execPath, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, execPath, args...)
	cmd.WaitDelay = 2 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return out, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return out, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		return out, errors.Wrapf(errors.ErrToolNotFound, "start %s: %v", execPath, err)
	}

	b.track(cmd)
	defer b.untrack(cmd)

	b.logger.Debug("subprocess started", "pid", cmd.Process.Pid)

	// Read stderr in background to prevent blocking
	var stderrBytes []byte
	var stderrWg sync.WaitGroup
	stderrWg.Add(1)
	go func() {
		defer stderrWg.Done()
		data, readErr := io.ReadAll(stderr)
		if readErr != nil {
			b.logger.Debug("error reading stderr", "error", readErr.Error())
		}
		stderrBytes = data
	}()

	out.Lines = b.processOutput(stdout, handler)

	if err := handler.Finalize(); err != nil {
		b.logger.Warn("handler finalization error", "error", err.Error())
	}

	stderrWg.Wait()
	waitErr := cmd.Wait()

	out.Stderr = strings.TrimSpace(string(stderrBytes))
	out.Duration = time.Since(startTime)

	if ctx.Err() != nil {
		b.logger.Warn("subprocess interrupted", "error", ctx.Err().Error(), "duration", out.Duration.String())
		return out, ctx.Err()
	}

	if waitErr != nil {
		b.logger.Warn("subprocess exited with error",
			"error", waitErr.Error(),
			"lines", out.Lines,
			"duration", out.Duration.String(),
		)
		return out, errors.Wrapf(errors.ErrCommandFailed, "%s: %v%s", execPath, waitErr, stderrSuffix(out.Stderr))
	}

	b.logger.Debug("CLI command completed", "lines", out.Lines, "duration", out.Duration.String())
	return out, nil
}

// processOutput feeds stdout lines to handler and returns the number of lines.
func (b *BaseCLI) processOutput(stdout io.Reader, handler OutputHandler) int {
	scanner := bufio.NewScanner(stdout)

	// Increase buffer size for large output lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	lines := 0
	for scanner.Scan() {
		lines++
		if err := handler.ProcessLine(scanner.Bytes()); err != nil {
			b.logger.Debug("handler error", "error", err.Error())
		}
	}
	if err := scanner.Err(); err != nil {
		b.logger.Warn("scanner error", "error", err.Error())
	}
	return lines
}

func (b *BaseCLI) track(cmd *exec.Cmd) {
	b.mu.Lock()
	b.running[cmd] = struct{}{}
	b.mu.Unlock()
}

func (b *BaseCLI) untrack(cmd *exec.Cmd) {
	b.mu.Lock()
	delete(b.running, cmd)
	b.mu.Unlock()
}

// Running returns the number of subprocesses still running.
func (b *BaseCLI) Running() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.running)
}

// Close interrupts every subprocess still running.
// Safe to call multiple times (idempotent).
func (b *BaseCLI) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for cmd := range b.running {
		if cmd.Process == nil {
			continue
		}
		// Try SIGINT first (graceful shutdown)
		if err := cmd.Process.Signal(os.Interrupt); err != nil && err != os.ErrProcessDone {
			b.logger.Warn("interrupt failed, forcing kill", "error", err.Error())
			if killErr := cmd.Process.Kill(); killErr != nil && killErr != os.ErrProcessDone {
				b.logger.Warn("failed to kill process", "error", killErr.Error())
			}
		}
	}
	return nil
}

// Logger returns the logger instance.
func (b *BaseCLI) Logger() logx.Logger {
	return b.logger
}

// PartialOK reports whether a failed command still produced output worth
// parsing: a non-zero exit with stdout is treated as a partial success.
func PartialOK(out CommandOutput, err error) bool {
	return err != nil && errors.Is(err, errors.ErrCommandFailed) && out.Lines > 0
}

func stderrSuffix(stderr string) string {
	if stderr == "" {
		return ""
	}
	const max = 300
	if len(stderr) > max {
		stderr = stderr[len(stderr)-max:]
	}
	return ": " + stderr
}
