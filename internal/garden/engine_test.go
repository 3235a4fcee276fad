package garden_test

import (
	"testing"
	"time"

	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/bloomery/bloomery/internal/garden"
	"github.com/stretchr/testify/assert"
)

func TestApplyCare(t *testing.T) {
	t.Run("water boosts health and happiness", func(t *testing.T) {
		next := garden.ApplyCare(garden.DefaultStats(), models.ActionWater)
		assert.Equal(t, 95, next.Health)
		assert.Equal(t, 80, next.Happiness)
		assert.Equal(t, 25, next.Growth)
	})

	t.Run("feed boosts all three stats", func(t *testing.T) {
		next := garden.ApplyCare(garden.DefaultStats(), models.ActionFeed)
		assert.Equal(t, 90, next.Health)
		assert.Equal(t, 85, next.Happiness)
		assert.Equal(t, 30, next.Growth)
	})

	t.Run("play boosts happiness most", func(t *testing.T) {
		next := garden.ApplyCare(garden.DefaultStats(), models.ActionPlay)
		assert.Equal(t, 85, next.Health)
		assert.Equal(t, 95, next.Happiness)
		assert.Equal(t, 25, next.Growth)
	})

	t.Run("saturates at 100", func(t *testing.T) {
		s := garden.Stats{Health: 95, Happiness: 98, Growth: 99}
		next := garden.ApplyCare(s, models.ActionFeed)
		assert.Equal(t, 100, next.Health)
		assert.Equal(t, 100, next.Happiness)
		assert.Equal(t, 100, next.Growth)
	})

	t.Run("repeated feeds converge on full stats", func(t *testing.T) {
		s := garden.Stats{Health: 70, Happiness: 70, Growth: 15}
		for i := 0; i < 3; i++ {
			s = garden.ApplyCare(s, models.ActionFeed)
		}
		assert.Equal(t, 100, s.Health)
		assert.Equal(t, 100, s.Happiness)
		assert.Equal(t, 30, s.Growth)
	})

	t.Run("unknown action is a no-op", func(t *testing.T) {
		s := garden.Stats{Health: 50, Happiness: 50, Growth: 50}
		assert.Equal(t, s, garden.ApplyCare(s, models.CareActionType("prune")))
	})

	t.Run("stays within bounds over the whole domain", func(t *testing.T) {
		actions := []models.CareActionType{models.ActionWater, models.ActionFeed, models.ActionPlay}
		for h := 0; h <= 100; h += 5 {
			for hp := 0; hp <= 100; hp += 5 {
				for g := 0; g <= 100; g += 5 {
					for _, action := range actions {
						next := garden.ApplyCare(garden.Stats{Health: h, Happiness: hp, Growth: g}, action)
						assert.GreaterOrEqual(t, next.Health, 0)
						assert.LessOrEqual(t, next.Health, 100)
						assert.GreaterOrEqual(t, next.Happiness, 0)
						assert.LessOrEqual(t, next.Happiness, 100)
						assert.GreaterOrEqual(t, next.Growth, 0)
						assert.LessOrEqual(t, next.Growth, 100)
					}
				}
			}
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		s := garden.Stats{Health: 42, Happiness: 17, Growth: 63}
		assert.Equal(t, garden.ApplyCare(s, models.ActionWater), garden.ApplyCare(s, models.ActionWater))
	})
}

func TestApplyDecay(t *testing.T) {
	fresh := 1 * time.Hour

	t.Run("no decay inside the neglect windows", func(t *testing.T) {
		s := garden.Stats{Health: 50, Happiness: 50, Growth: 50}
		assert.Equal(t, s, garden.ApplyDecay(s, garden.WaterNeglect, garden.FeedNeglect, garden.PlayNeglect))
	})

	t.Run("thirst costs health", func(t *testing.T) {
		s := garden.Stats{Health: 50, Happiness: 50, Growth: 50}
		next := garden.ApplyDecay(s, garden.WaterNeglect+time.Minute, fresh, fresh)
		assert.Equal(t, 49, next.Health)
		assert.Equal(t, 50, next.Happiness)
	})

	t.Run("hunger costs health", func(t *testing.T) {
		s := garden.Stats{Health: 50, Happiness: 50, Growth: 50}
		next := garden.ApplyDecay(s, fresh, garden.FeedNeglect+time.Minute, fresh)
		assert.Equal(t, 49, next.Health)
	})

	t.Run("boredom costs happiness", func(t *testing.T) {
		s := garden.Stats{Health: 50, Happiness: 50, Growth: 50}
		next := garden.ApplyDecay(s, fresh, fresh, garden.PlayNeglect+time.Minute)
		assert.Equal(t, 50, next.Health)
		assert.Equal(t, 48, next.Happiness)
	})

	t.Run("full neglect stacks", func(t *testing.T) {
		s := garden.Stats{Health: 50, Happiness: 50, Growth: 50}
		next := garden.ApplyDecay(s, 24*time.Hour, 24*time.Hour, 24*time.Hour)
		assert.Equal(t, 48, next.Health)
		assert.Equal(t, 48, next.Happiness)
		assert.Equal(t, 50, next.Growth)
	})

	t.Run("floors at zero", func(t *testing.T) {
		s := garden.Stats{Health: 1, Happiness: 1, Growth: 0}
		next := garden.ApplyDecay(s, 24*time.Hour, 24*time.Hour, 24*time.Hour)
		assert.Equal(t, 0, next.Health)
		assert.Equal(t, 0, next.Happiness)
	})
}

func TestMoodFor(t *testing.T) {
	cases := []struct {
		happiness int
		want      models.Mood
	}{
		{100, models.MoodHappy},
		{80, models.MoodHappy},
		{79, models.MoodExcited},
		{60, models.MoodExcited},
		{59, models.MoodSleepy},
		{40, models.MoodSleepy},
		{39, models.MoodSad},
		{0, models.MoodSad},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, garden.MoodFor(tc.happiness), "happiness %d", tc.happiness)
	}
}

func TestStageFor(t *testing.T) {
	cases := []struct {
		growth int
		want   models.Stage
	}{
		{100, models.StageBlooming},
		{80, models.StageBlooming},
		{79, models.StageMature},
		{60, models.StageMature},
		{59, models.StageGrowing},
		{30, models.StageGrowing},
		{29, models.StageSeedling},
		{0, models.StageSeedling},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, garden.StageFor(tc.growth), "growth %d", tc.growth)
	}
}

func TestDefaultStats(t *testing.T) {
	s := garden.DefaultStats()
	assert.Equal(t, 80, s.Health)
	assert.Equal(t, 75, s.Happiness)
	assert.Equal(t, 25, s.Growth)
	assert.Equal(t, models.StageSeedling, garden.StageFor(s.Growth))
}
