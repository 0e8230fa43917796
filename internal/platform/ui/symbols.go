// internal/platform/ui/symbols.go
package ui

import (
	"github.com/pterm/pterm"

	"phineas/internal/core/domain"
)

// Status representa el estado de un paso
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSuccess
	StatusError
	StatusTimeout
	StatusSkipped
)

// StatusFromResult traduce el resultado de un colector a un estado visual.
func StatusFromResult(res domain.CollectorResult) Status {
	if res.IsSuccess() {
		return StatusSuccess
	}
	switch res.ErrorKind {
	case domain.ErrorKindTimeout:
		return StatusTimeout
	case domain.ErrorKindCanceled, domain.ErrorKindMissingCredential, domain.ErrorKindUnknownCollector:
		return StatusSkipped
	default:
		return StatusError
	}
}

// String convierte el status a string
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusTimeout:
		return "timeout"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Symbol retorna el símbolo Unicode para cada estado
func (s Status) Symbol() string {
	switch s {
	case StatusPending:
		return "⏸"
	case StatusRunning:
		return "⣾"
	case StatusSuccess:
		return "✓"
	case StatusError:
		return "✗"
	case StatusTimeout:
		return "⏱"
	case StatusSkipped:
		return "⊘"
	default:
		return "?"
	}
}

// Style retorna el estilo de la paleta para cada estado
func (s Status) Style() pterm.RGBStyle {
	switch s {
	case StatusRunning:
		return StyleActive
	case StatusSuccess:
		return StyleSuccess
	case StatusError:
		return StyleError
	case StatusTimeout:
		return StyleWarning
	default:
		return StyleSecondary
	}
}

// Icons globales para diferentes elementos de la UI
var (
	IconTarget   = "🎯"
	IconWorkflow = "🔄"
	IconTime     = "⏱"
	IconFindings = "📦"
	IconWorkers  = "⚙️"
	IconReport   = "📄"
)

// Separadores
var (
	SeparatorHeavy = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	SeparatorLight = "────────────────────────────────────────────"
)
