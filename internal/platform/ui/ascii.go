// internal/platform/ui/ascii.go
package ui

// BannerWide banner para terminales de 80 columnas o más
const BannerWide = `
╔══════════════════════════════════════════════════════════════╗
║                                                              ║
║   ██████╗ ██╗  ██╗██╗███╗   ██╗███████╗ █████╗ ███████╗      ║
║   ██╔══██╗██║  ██║██║████╗  ██║██╔════╝██╔══██╗██╔════╝      ║
║   ██████╔╝███████║██║██╔██╗ ██║█████╗  ███████║███████╗      ║
║   ██╔═══╝ ██╔══██║██║██║╚██╗██║██╔══╝  ██╔══██║╚════██║      ║
║   ██║     ██║  ██║██║██║ ╚████║███████╗██║  ██║███████║      ║
║   ╚═╝     ╚═╝  ╚═╝╚═╝╚═╝  ╚═══╝╚══════╝╚═╝  ╚═╝╚══════╝      ║
║                                                              ║
║              Open-source intelligence workflows              ║
║                                                              ║
╚══════════════════════════════════════════════════════════════╝
`

// BannerNarrow banner minimalista para terminales pequeñas
const BannerNarrow = `
╔═══════════════════════════════════╗
║  PHINEAS                          ║
║  OSINT workflow runner            ║
╚═══════════════════════════════════╝
`

// GetBanner retorna el banner apropiado según el ancho del terminal
func GetBanner(terminalWidth int) string {
	if terminalWidth < 80 {
		return BannerNarrow
	}
	return BannerWide
}
