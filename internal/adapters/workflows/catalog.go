// Package workflows loads workflow definitions: built-in ones embedded in the
// binary and user YAML files from a workflows directory.
package workflows

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"phineas/internal/core/domain"
	"phineas/internal/platform/logx"
)

// AutoWorkflow selects the workflow from the target kind.
const AutoWorkflow = "auto"

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Definition is a workflow plus the descriptive fields shown in listings.
type Definition struct {
	domain.Workflow `yaml:",inline"`

	// Target describes the kind of target the workflow expects
	Target string `yaml:"target,omitempty"`

	// Source is "builtin" or the file the definition was read from
	Source string `yaml:"-"`
}

// Catalog resolves workflow names. Files in Dir shadow built-ins of the same name.
type Catalog struct {
	dir      string
	builtins map[string]Definition
	logger   logx.Logger
}

// NewCatalog creates a catalog over dir ("" disables user workflows).
func NewCatalog(dir string, logger logx.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logx.NewNop()
	}
	builtins, err := loadBuiltins()
	if err != nil {
		return nil, err
	}
	return &Catalog{
		dir:      dir,
		builtins: builtins,
		logger:   logger.With("component", "workflows"),
	}, nil
}

func loadBuiltins() (map[string]Definition, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, fmt.Errorf("read builtin workflows: %w", err)
	}
	out := make(map[string]Definition, len(entries))
	for _, e := range entries {
		data, err := builtinFS.ReadFile("builtin/" + e.Name())
		if err != nil {
			return nil, err
		}
		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", e.Name(), err)
		}
		def.Source = "builtin"
		out[def.Name] = def
	}
	return out, nil
}

// Parse decodes and validates a YAML workflow definition.
func Parse(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("%w: %v", domain.ErrInvalidWorkflow, err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadFile reads a workflow definition from path. A definition without a name
// takes the file name (without extension).
func LoadFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read workflow %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	def.Source = path
	return def, nil
}

// Load returns the workflow called name: <dir>/<name>.yaml (or .yml) first,
// then the built-ins.
func (c *Catalog) Load(name string) (Definition, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return Definition{}, fmt.Errorf("%w: %q", domain.ErrUnknownWorkflow, name)
	}

	if c.dir != "" {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(c.dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			c.logger.Debug("loading workflow file", "path", path)
			return LoadFile(path)
		}
	}

	if def, ok := c.builtins[name]; ok {
		return def, nil
	}
	return Definition{}, fmt.Errorf("%w: %q", domain.ErrUnknownWorkflow, name)
}

// Resolve loads name, replacing "auto" (or "") with the target's default workflow.
func (c *Catalog) Resolve(name string, target domain.Target) (Definition, error) {
	if name == "" || name == AutoWorkflow {
		name = target.DefaultWorkflow()
		c.logger.Debug("auto-selected workflow", "workflow", name, "target_kind", string(target.Kind))
	}
	return c.Load(name)
}

// List returns every available workflow sorted by name. Invalid user files are
// skipped with a warning.
func (c *Catalog) List() []Definition {
	byName := make(map[string]Definition, len(c.builtins))
	for name, def := range c.builtins {
		byName[name] = def
	}

	if c.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			paths, _ := filepath.Glob(filepath.Join(c.dir, pattern))
			for _, path := range paths {
				def, err := LoadFile(path)
				if err != nil {
					c.logger.Warn("skipping invalid workflow file", "path", path, "error", err.Error())
					continue
				}
				byName[def.Name] = def
			}
		}
	}

	out := make([]Definition, 0, len(byName))
	for _, def := range byName {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
