// Package scoring computes word scores and the end-of-round duplicate decay.
package scoring

import (
	"math"

	"github.com/Billy-Davies-2/wordrush/internal/models"
	"github.com/Billy-Davies-2/wordrush/internal/tiles"
)

var letterValues = map[rune]int{
	'A': 1, 'B': 3, 'C': 3, 'D': 2, 'E': 1, 'F': 4, 'G': 2, 'H': 4, 'I': 1,
	'J': 8, 'K': 5, 'L': 1, 'M': 3, 'N': 1, 'O': 1, 'P': 3, 'Q': 10, 'R': 1,
	'S': 1, 'T': 1, 'U': 1, 'V': 4, 'W': 4, 'X': 8, 'Y': 4, 'Z': 10,
	tiles.Blank: 0,
}

// LetterValue returns the point value of a single tile.
func LetterValue(r rune) int {
	return letterValues[r]
}

// BaseScore is the sum of letter values scaled by 1 + 0.05 per letter,
// rounded half up. Integer arithmetic keeps it exact: sum*(20+n)/20.
func BaseScore(word string) int {
	sum, n := 0, 0
	for _, r := range word {
		sum += letterValues[r]
		n++
	}
	return (sum*(20+n) + 10) / 20
}

// DecayFactor is the multiplier applied to a word claimed c times in a round.
func DecayFactor(model models.DecayModel, c int) float64 {
	if c <= 1 {
		return 1
	}
	switch model {
	case models.DecayLinear:
		return 1 / float64(c)
	case models.DecaySteep:
		return 1 / math.Pow(float64(c), 1.3)
	default:
		return 1 / (1 + 0.6*float64(c-1))
	}
}

// FinalScore applies the configured duplicate policy to a word's base score
// given how many times the word was accepted this round across all players.
func FinalScore(base, usage int, cfg models.RoomConfig) int {
	if cfg.DuplicatePolicy != models.PolicyAllowWithDecay || usage <= 1 {
		return base
	}
	return int(math.Floor(float64(base)*DecayFactor(cfg.DecayModel, usage) + 0.5))
}
