package ai

import "github.com/jaminalder/codex-three-mens-morris/internal/domain"

// Line weights for the static evaluator.
const (
	ThreatWeight   = 10 // two own pieces on an otherwise empty line
	PresenceWeight = 2  // one own piece on an otherwise empty line
)

// Evaluate scores board from ai's point of view by counting open lines.
// Lines holding both colours are blocked and count for nothing.
func Evaluate(b domain.Board, ai domain.Cell) int {
	opp := ai.Opponent()
	score := 0
	for _, ln := range domain.Lines() {
		own, theirs := 0, 0
		for _, n := range ln {
			switch b[n] {
			case ai:
				own++
			case opp:
				theirs++
			}
		}
		switch {
		case own == 2 && theirs == 0:
			score += ThreatWeight
		case theirs == 2 && own == 0:
			score -= ThreatWeight
		case own == 1 && theirs == 0:
			score += PresenceWeight
		case theirs == 1 && own == 0:
			score -= PresenceWeight
		}
	}
	return score
}
