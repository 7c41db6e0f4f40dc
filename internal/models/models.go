package models

import (
	"fmt"
	"time"
)

// DuplicatePolicy controls what happens when a word is claimed more than once in a round
type DuplicatePolicy string

const (
	PolicyDisallow       DuplicatePolicy = "disallow"
	PolicyAllowNoPenalty DuplicatePolicy = "allow_no_penalty"
	PolicyAllowWithDecay DuplicatePolicy = "allow_with_decay"
)

// ParseDuplicatePolicy validates a policy name
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(s); p {
	case PolicyDisallow, PolicyAllowNoPenalty, PolicyAllowWithDecay:
		return p, nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q", s)
}

// DecayModel selects the curve used to reduce scores of shared words
type DecayModel string

const (
	DecayLinear DecayModel = "linear"
	DecaySoft   DecayModel = "soft"
	DecaySteep  DecayModel = "steep"
)

// ParseDecayModel validates a decay model name
func ParseDecayModel(s string) (DecayModel, error) {
	switch m := DecayModel(s); m {
	case DecayLinear, DecaySoft, DecaySteep:
		return m, nil
	}
	return "", fmt.Errorf("unknown decay model %q", s)
}

// RoomConfig holds the per-room round settings
type RoomConfig struct {
	RoundDuration   time.Duration   `json:"roundDuration"`
	MinWordLen      int             `json:"minWordLen"`
	DuplicatePolicy DuplicatePolicy `json:"duplicatePolicy"`
	DecayModel      DecayModel      `json:"decayModel"`
	RoundTiles      int             `json:"roundTiles"`
	DripPerSec      int             `json:"dripPerSec"`
	SurgeAtSec      int             `json:"surgeAtSec"`
	SurgeAmount     int             `json:"surgeAmount"`
	OpeningTiles    int             `json:"openingTiles"`
	Window          time.Duration   `json:"window"`
	Tick            time.Duration   `json:"tick"`
}

// DefaultRoomConfig returns the settings used for lazily created rooms
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		RoundDuration:   3 * time.Minute,
		MinWordLen:      3,
		DuplicatePolicy: PolicyAllowWithDecay,
		DecayModel:      DecaySoft,
		RoundTiles:      100,
		DripPerSec:      1,
		SurgeAtSec:      60,
		SurgeAmount:     12,
		OpeningTiles:    24,
		Window:          150 * time.Millisecond,
		Tick:            time.Second,
	}
}

// Validate checks the config for values the scheduler cannot work with
func (c RoomConfig) Validate() error {
	switch {
	case c.RoundDuration <= 0:
		return fmt.Errorf("round duration must be positive")
	case c.MinWordLen < 1:
		return fmt.Errorf("minimum word length must be at least 1")
	case c.RoundTiles < 0 || c.DripPerSec < 0 || c.SurgeAmount < 0 || c.OpeningTiles < 0:
		return fmt.Errorf("tile counts must not be negative")
	case c.Window <= 0 || c.Tick <= 0:
		return fmt.Errorf("window and tick must be positive")
	}
	if _, err := ParseDuplicatePolicy(string(c.DuplicatePolicy)); err != nil {
		return err
	}
	if _, err := ParseDecayModel(string(c.DecayModel)); err != nil {
		return err
	}
	return nil
}

// Claim is a word accepted for a player, with its pre-decay score
type Claim struct {
	Word string `json:"word"`
	Base int    `json:"base"`
}

// Player represents a participant in a room
type Player struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Score  int     `json:"score"`
	Claims []Claim `json:"claims"`
}

// PlayerScore is the public view of a player's live score
type PlayerScore struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Words int    `json:"words"`
}

// RoomState is the public state broadcast every tick
type RoomState struct {
	RoomID     string         `json:"roomId"`
	Round      int            `json:"round"`
	Active     bool           `json:"active"`
	Pool       map[string]int `json:"pool"`
	Players    []PlayerScore  `json:"players"`
	Revealed   int            `json:"revealed"`
	RoundTiles int            `json:"roundTiles"`
	TimeLeftMS int64          `json:"timeLeftMs"`
}

// WordBreakdown shows how a claimed word contributed to a final score
type WordBreakdown struct {
	Word  string `json:"word"`
	Base  int    `json:"base"`
	Usage int    `json:"usage"`
	Final int    `json:"final"`
}

// LeaderboardEntry is one player's final standing
type LeaderboardEntry struct {
	PlayerID string          `json:"playerId"`
	Name     string          `json:"name"`
	Score    int             `json:"score"`
	Words    []WordBreakdown `json:"words"`
}

// RoundResult is the archived outcome of a finished round
type RoundResult struct {
	RoomID      string             `json:"roomId"`
	Round       int                `json:"round"`
	StartedAt   time.Time          `json:"startedAt"`
	EndedAt     time.Time          `json:"endedAt"`
	Policy      DuplicatePolicy    `json:"policy"`
	Decay       DecayModel         `json:"decay"`
	Revealed    int                `json:"revealed"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// WordStat is an aggregate of how often a word was claimed across rounds
type WordStat struct {
	Word   string `json:"word"`
	Claims int    `json:"claims"`
	Points int    `json:"points"`
}
