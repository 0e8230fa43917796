// Package installer comprueba e instala las herramientas externas de las que
// dependen los colectores CLI (paquetes de Python publicados en PyPI).
package installer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"phineas/internal/platform/logx"
)

// Status es el estado de una herramienta tras comprobarla o instalarla.
type Status string

const (
	StatusInstalled        Status = "installed"
	StatusAlreadyInstalled Status = "already_installed"
	StatusMissing          Status = "missing"
	StatusFailed           Status = "failed"
)

// Tool describe una herramienta externa.
type Tool struct {
	Collector string // colector que la usa
	Binary    string // ejecutable buscado en PATH
	Package   string // paquete de PyPI
}

// Result es el resultado de comprobar o instalar una herramienta.
type Result struct {
	Tool     Tool
	Status   Status
	Path     string
	Version  string
	Method   string // pipx o pip
	Error    error
	Duration time.Duration
}

// Ready indica si la herramienta está disponible tras la operación.
func (r Result) Ready() bool {
	return r.Status == StatusInstalled || r.Status == StatusAlreadyInstalled
}

// Runner ejecuta un comando y devuelve su salida combinada.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Installer comprueba e instala herramientas con pipx o, si no está, con pip.
type Installer struct {
	run      Runner
	lookPath func(string) (string, error)
	logger   logx.Logger

	versionTimeout time.Duration
}

// Option configura un Installer.
type Option func(*Installer)

// WithRunner sustituye la ejecución de comandos (tests).
func WithRunner(r Runner) Option {
	return func(i *Installer) { i.run = r }
}

// WithLookPath sustituye la búsqueda en PATH (tests).
func WithLookPath(fn func(string) (string, error)) Option {
	return func(i *Installer) { i.lookPath = fn }
}

// New crea un Installer que ejecuta comandos reales.
func New(logger logx.Logger, opts ...Option) *Installer {
	if logger == nil {
		logger = logx.NewNop()
	}
	i := &Installer{
		run:            execRunner,
		lookPath:       exec.LookPath,
		logger:         logger.With("component", "installer"),
		versionTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Check comprueba si la herramienta está en PATH y obtiene su versión.
// Una versión ilegible no se considera error.
func (i *Installer) Check(ctx context.Context, tool Tool) Result {
	start := time.Now()
	res := Result{Tool: tool}

	path, err := i.lookPath(tool.Binary)
	if err != nil {
		res.Status = StatusMissing
		res.Duration = time.Since(start)
		return res
	}
	res.Status = StatusAlreadyInstalled
	res.Path = path

	vctx, cancel := context.WithTimeout(ctx, i.versionTimeout)
	defer cancel()
	if out, err := i.run(vctx, path, "--version"); err == nil {
		res.Version = ExtractVersion(string(out))
	} else {
		i.logger.Debug("version probe failed", "binary", tool.Binary, "error", err.Error())
	}

	res.Duration = time.Since(start)
	return res
}

// CheckAll comprueba todas las herramientas en orden.
func (i *Installer) CheckAll(ctx context.Context, tools []Tool) []Result {
	results := make([]Result, 0, len(tools))
	for _, t := range tools {
		results = append(results, i.Check(ctx, t))
	}
	return results
}

// Install instala la herramienta salvo que ya esté disponible y force sea false.
func (i *Installer) Install(ctx context.Context, tool Tool, force bool) Result {
	start := time.Now()

	if !force {
		if res := i.Check(ctx, tool); res.Ready() {
			return res
		}
	}
	if tool.Package == "" {
		return Result{
			Tool:     tool,
			Status:   StatusFailed,
			Error:    fmt.Errorf("no package known for %s", tool.Binary),
			Duration: time.Since(start),
		}
	}

	method, name, args := i.installCommand(tool, force)
	i.logger.Info("installing tool", "binary", tool.Binary, "package", tool.Package, "method", method)

	out, err := i.run(ctx, name, args...)
	if err != nil {
		i.logger.Warn("installation failed", "package", tool.Package, "error", err.Error())
		return Result{
			Tool:     tool,
			Status:   StatusFailed,
			Method:   method,
			Error:    fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, lastLine(out)),
			Duration: time.Since(start),
		}
	}

	res := i.Check(ctx, tool)
	res.Method = method
	res.Duration = time.Since(start)
	switch res.Status {
	case StatusAlreadyInstalled:
		res.Status = StatusInstalled
	case StatusMissing:
		// pip --user deja el binario en ~/.local/bin, que puede no estar en PATH
		res.Status = StatusFailed
		res.Error = fmt.Errorf("%s installed but %s is not in PATH", tool.Package, tool.Binary)
	}
	return res
}

// InstallAll instala las herramientas en orden; un fallo no detiene el resto.
func (i *Installer) InstallAll(ctx context.Context, tools []Tool, force bool) []Result {
	results := make([]Result, 0, len(tools))
	for _, t := range tools {
		if ctx.Err() != nil {
			results = append(results, Result{Tool: t, Status: StatusFailed, Error: ctx.Err()})
			continue
		}
		results = append(results, i.Install(ctx, t, force))
	}
	return results
}

// installCommand elige pipx si está disponible.
func (i *Installer) installCommand(tool Tool, force bool) (method, name string, args []string) {
	if path, err := i.lookPath("pipx"); err == nil {
		args = []string{"install"}
		if force {
			args = append(args, "--force")
		}
		return "pipx", path, append(args, tool.Package)
	}

	python := "python3"
	if path, err := i.lookPath(python); err == nil {
		python = path
	}
	args = []string{"-m", "pip", "install", "--user"}
	if force {
		args = append(args, "--force-reinstall")
	}
	return "pip", python, append(args, tool.Package)
}

// Hint devuelve el comando sugerido para instalar la herramienta a mano.
func Hint(tool Tool) string {
	if tool.Package == "" {
		return ""
	}
	return "pipx install " + tool.Package
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
