// internal/core/domain/confidence.go
package domain

// Niveles de confianza por corroboración. Los consumidores externos ramifican
// sobre estos tres valores literales; no se interpola.
const (
	// ConfidenceSingleSource un único colector reportó el hallazgo
	ConfidenceSingleSource = 50

	// ConfidenceConfirmed dos colectores distintos coinciden
	ConfidenceConfirmed = 75

	// ConfidenceCorroborated tres o más colectores distintos coinciden
	ConfidenceCorroborated = 100
)

// Score retorna la confianza para n colectores distintos.
func Score(n int) int {
	switch {
	case n >= 3:
		return ConfidenceCorroborated
	case n == 2:
		return ConfidenceConfirmed
	default:
		return ConfidenceSingleSource
	}
}

// ScoreSources puntúa una lista de colectores, contando cada nombre una sola vez.
func ScoreSources(collectors []string) int {
	return Score(len(distinctSorted(collectors)))
}

// ScoreIndex calcula la confianza de cada clave del índice.
// Claves sin colectores no se puntúan.
func ScoreIndex(index SourceIndex) map[string]int {
	out := make(map[string]int, len(index))
	for key, collectors := range index {
		if len(collectors) == 0 {
			continue
		}
		out[key] = ScoreSources(collectors)
	}
	return out
}

// GetConfidenceLabel returns a human-readable label for a confidence value.
func GetConfidenceLabel(confidence int) string {
	switch {
	case confidence >= ConfidenceCorroborated:
		return "corroborated"
	case confidence >= ConfidenceConfirmed:
		return "confirmed"
	default:
		return "single-source"
	}
}
