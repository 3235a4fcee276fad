// Package garden holds the care domain: the pure stat-transition engine,
// the role permission table, and the service that applies both against the
// database.
package garden

import (
	"time"

	"github.com/bloomery/bloomery/internal/database/models"
)

// Stats is the numeric slice of a plant that care and decay act on.
// All three values live in [0,100].
type Stats struct {
	Health    int
	Happiness int
	Growth    int
}

// DefaultStats are the values a plant is born with.
func DefaultStats() Stats {
	return Stats{
		Health:    models.DefaultHealth,
		Happiness: models.DefaultHappiness,
		Growth:    models.DefaultGrowth,
	}
}

// Intervals after which neglect starts costing stats.
const (
	WaterNeglect = 6 * time.Hour
	FeedNeglect  = 8 * time.Hour
	PlayNeglect  = 4 * time.Hour
)

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ApplyCare returns the stats after one care action. Deltas are additive and
// saturate at the [0,100] bounds. Unknown actions leave the stats untouched;
// callers validate the action first.
func ApplyCare(s Stats, action models.CareActionType) Stats {
	switch action {
	case models.ActionWater:
		s.Health += 15
		s.Happiness += 5
	case models.ActionFeed:
		s.Health += 10
		s.Happiness += 10
		s.Growth += 5
	case models.ActionPlay:
		s.Health += 5
		s.Happiness += 20
	}
	s.Health = clamp(s.Health)
	s.Happiness = clamp(s.Happiness)
	s.Growth = clamp(s.Growth)
	return s
}

// ApplyDecay returns the stats after one decay tick given how long each kind
// of care has been neglected. Same clamping rules as ApplyCare.
func ApplyDecay(s Stats, sinceWatered, sinceFed, sincePlayed time.Duration) Stats {
	if sinceWatered > WaterNeglect {
		s.Health--
	}
	if sinceFed > FeedNeglect {
		s.Health--
	}
	if sincePlayed > PlayNeglect {
		s.Happiness -= 2
	}
	s.Health = clamp(s.Health)
	s.Happiness = clamp(s.Happiness)
	return s
}

// MoodFor classifies happiness. Bands are inclusive on their lower bound and
// checked from the top down.
func MoodFor(happiness int) models.Mood {
	switch {
	case happiness >= 80:
		return models.MoodHappy
	case happiness >= 60:
		return models.MoodExcited
	case happiness >= 40:
		return models.MoodSleepy
	default:
		return models.MoodSad
	}
}

// StageFor classifies growth.
func StageFor(growth int) models.Stage {
	switch {
	case growth >= 80:
		return models.StageBlooming
	case growth >= 60:
		return models.StageMature
	case growth >= 30:
		return models.StageGrowing
	default:
		return models.StageSeedling
	}
}
