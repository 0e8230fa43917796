// internal/core/domain/workflow.go
package domain

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Workflow es una lista ordenada de pasos independientes con un nombre visible.
type Workflow struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []Step `yaml:"steps" json:"steps"`
}

// Step referencia un colector por nombre junto con su configuración de paso.
// Las claves de Config sobrescriben la configuración global del colector.
type Step struct {
	Collector string
	Config    map[string]any
}

// NewStep crea un paso sin configuración propia.
func NewStep(collector string) Step {
	return Step{Collector: strings.TrimSpace(collector), Config: map[string]any{}}
}

// UnmarshalYAML acepta un nombre de colector suelto ("sherlock") o un mapa
// {name: sherlock, timeout: 60, ...}; el resto de claves forman la configuración del paso.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*s = NewStep(name)
		return nil

	case yaml.MappingNode:
		raw := map[string]any{}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		name, _ := raw["name"].(string)
		delete(raw, "name")
		s.Collector = strings.TrimSpace(name)
		s.Config = raw
		return nil

	default:
		return fmt.Errorf("%w: step at line %d must be a name or a mapping", ErrInvalidWorkflow, node.Line)
	}
}

// MarshalYAML serializa pasos sin configuración como nombre suelto.
func (s Step) MarshalYAML() (interface{}, error) {
	if len(s.Config) == 0 {
		return s.Collector, nil
	}
	out := make(map[string]any, len(s.Config)+1)
	for k, v := range s.Config {
		out[k] = v
	}
	out["name"] = s.Collector
	return out, nil
}

// CollectorNames retorna los nombres de colector en orden de declaración.
func (w Workflow) CollectorNames() []string {
	names := make([]string, len(w.Steps))
	for i, s := range w.Steps {
		names[i] = s.Collector
	}
	return names
}

// Validate verifica que el workflow sea ejecutable: al menos un paso, nombres no
// vacíos y sin colectores repetidos (los resultados se indexan por nombre).
func (w Workflow) Validate() error {
	if len(w.Steps) == 0 {
		return fmt.Errorf("%w: %q has no steps", ErrInvalidWorkflow, w.DisplayName())
	}

	seen := make(map[string]int, len(w.Steps))
	for i, s := range w.Steps {
		name := strings.TrimSpace(s.Collector)
		if name == "" {
			return fmt.Errorf("%w: step %d has no collector name", ErrInvalidWorkflow, i)
		}
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("%w: collector %q declared twice (steps %d and %d)", ErrInvalidWorkflow, name, prev, i)
		}
		seen[name] = i
	}
	return nil
}

// DisplayName retorna el nombre del workflow o "custom" si no tiene.
func (w Workflow) DisplayName() string {
	if w.Name == "" {
		return "custom"
	}
	return w.Name
}

// MergeConfig combina la configuración global del colector con la del paso.
// Las claves del paso ganan. Nunca modifica los mapas de entrada.
func MergeConfig(global, step map[string]any) map[string]any {
	out := make(map[string]any, len(global)+len(step))
	for k, v := range global {
		out[k] = v
	}
	for k, v := range step {
		out[k] = v
	}
	return out
}
