package scoring

import (
	"testing"

	"github.com/Billy-Davies-2/wordrush/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBaseScore(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"TEAM", 7},   // 6 * 1.20 = 7.2
		{"CAT", 6},    // 5 * 1.15 = 5.75
		{"QI", 12},    // 11 * 1.10 = 12.1
		{"AT", 2},     // 2 * 1.10 = 2.2
		{"ZEBRA", 20}, // 16 * 1.25 = 20
		{"JAZZ", 35},  // 29 * 1.20 = 34.8
		{"A?E", 2},    // 2 * 1.15 = 2.3, blank scores zero
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseScore(tt.word), tt.word)
	}
}

func TestBaseScoreRoundsHalfUp(t *testing.T) {
	// 10 points over 10 letters: 10 * 1.5 = 15 exactly
	assert.Equal(t, 15, BaseScore("AAAAAAAAAA"))
	// 5 points over 2 letters: 5 * 1.1 = 5.5 -> 6
	assert.Equal(t, 6, BaseScore("DC"))
}

func TestDecayFactorBelowOneAndDecreasing(t *testing.T) {
	for _, model := range []models.DecayModel{models.DecayLinear, models.DecaySoft, models.DecaySteep} {
		prev := 1.0
		for c := 2; c <= 12; c++ {
			f := DecayFactor(model, c)
			assert.Less(t, f, 1.0, "%s c=%d", model, c)
			assert.Less(t, f, prev, "%s c=%d", model, c)
			prev = f
		}
	}
}

func TestDecayFactorValues(t *testing.T) {
	assert.InDelta(t, 0.5, DecayFactor(models.DecayLinear, 2), 1e-9)
	assert.InDelta(t, 1/1.6, DecayFactor(models.DecaySoft, 2), 1e-9)
	assert.InDelta(t, 0.40613, DecayFactor(models.DecaySteep, 2), 1e-5)
	assert.Equal(t, 1.0, DecayFactor(models.DecaySteep, 1))
}

func TestFinalScorePolicies(t *testing.T) {
	cfg := models.DefaultRoomConfig()

	cfg.DuplicatePolicy = models.PolicyDisallow
	assert.Equal(t, 40, FinalScore(40, 3, cfg))

	cfg.DuplicatePolicy = models.PolicyAllowNoPenalty
	assert.Equal(t, 40, FinalScore(40, 3, cfg))

	cfg.DuplicatePolicy = models.PolicyAllowWithDecay
	cfg.DecayModel = models.DecayLinear
	assert.Equal(t, 40, FinalScore(40, 1, cfg))
	assert.Equal(t, 20, FinalScore(40, 2, cfg))
	assert.Equal(t, 13, FinalScore(40, 3, cfg))

	cfg.DecayModel = models.DecaySoft
	assert.Equal(t, 25, FinalScore(40, 2, cfg))

	cfg.DecayModel = models.DecaySteep
	assert.Equal(t, 16, FinalScore(40, 2, cfg))
}

func TestFinalScoreMonotonic(t *testing.T) {
	cfg := models.DefaultRoomConfig()
	cfg.DuplicatePolicy = models.PolicyAllowWithDecay
	const base = 100

	for _, model := range []models.DecayModel{models.DecayLinear, models.DecaySoft, models.DecaySteep} {
		cfg.DecayModel = model
		prev := base
		for c := 2; c <= 10; c++ {
			got := FinalScore(base, c, cfg)
			assert.Less(t, got, base, "%s c=%d", model, c)
			assert.LessOrEqual(t, got, prev, "%s c=%d", model, c)
			prev = got
		}
	}
}
