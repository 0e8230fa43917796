// internal/platform/ui/colors.go
package ui

import "github.com/pterm/pterm"

// Paleta de colores de PHINEAS

var (
	// SignalTeal - elementos principales, éxito
	SignalTeal = pterm.NewRGB(0, 206, 209)

	// AlertRed - errores
	AlertRed = pterm.NewRGB(215, 38, 56)

	// AmberGold - advertencias, timeouts, highlights
	AmberGold = pterm.NewRGB(255, 182, 39)

	// SlateGray - texto secundario, pasos pendientes u omitidos
	SlateGray = pterm.NewRGB(110, 110, 110)

	// PaperWhite - texto principal
	PaperWhite = pterm.NewRGB(232, 232, 232)

	// PulseBlue - pasos en ejecución
	PulseBlue = pterm.NewRGB(64, 156, 255)
)

// Estilos preconfigurados para diferentes contextos
var (
	StylePrimary   = SignalTeal.ToRGBStyle()
	StyleSuccess   = SignalTeal.ToRGBStyle()
	StyleWarning   = AmberGold.ToRGBStyle()
	StyleError     = AlertRed.ToRGBStyle()
	StyleSecondary = SlateGray.ToRGBStyle()
	StyleText      = PaperWhite.ToRGBStyle()
	StyleActive    = PulseBlue.ToRGBStyle()
)
