// Package progression implements stat rolls, the leveling law and level scaling.
// Everything except RollStats is a pure function of its inputs.
package progression

import (
	"math"
	"time"

	"github.com/udisondev/monbattle/internal/model"
	"github.com/udisondev/monbattle/internal/random"
)

// GrowthPerLevel compounds every stat once per level above 1.
const GrowthPerLevel = 1.25

// RollStats draws each stat uniformly from the integers in
// [floor(0.5·b), floor(1.5·b)]. A roll is never below 1 so the
// level multiplier stays finite.
func RollStats(base model.Stats, rng random.Source) model.Stats {
	return base.Map(func(_ model.StatKind, b int64) int64 {
		lo := b / 2
		hi := b + b/2
		if lo < 1 {
			lo = 1
		}
		if hi < lo {
			hi = lo
		}
		return lo + int64(rng.IntN(int(hi-lo+1)))
	})
}

// LevelMultiplier is the reciprocal of the mean rolled/base ratio.
// Rolls above base give a multiplier below 1 (faster leveling).
func LevelMultiplier(rolled, base model.Stats) float64 {
	var sum float64
	n := 0
	for k := model.StatKind(0); k < model.StatCount; k++ {
		b := base.Get(k)
		if b <= 0 {
			continue
		}
		sum += float64(rolled.Get(k)) / float64(b)
		n++
	}
	if n == 0 || sum <= 0 {
		return 1
	}
	return 1 / (sum / float64(n))
}

// nextLevelThreshold is the experience needed to move past level l.
func nextLevelThreshold(l int64, lm float64) float64 {
	v := float64(l)*lm + 1
	return v * v * lm
}

// LevelForExperience applies the leveling law: start at floor(sqrt(exp/lm)),
// step up while exp reaches the next threshold, then add 1.
func LevelForExperience(exp int64, lm float64) int32 {
	if exp < 0 {
		exp = 0
	}
	if lm <= 0 || math.IsNaN(lm) || math.IsInf(lm, 0) {
		lm = 1
	}

	level := int64(math.Floor(math.Sqrt(float64(exp) / lm)))
	for float64(exp) >= nextLevelThreshold(level, lm) {
		level++
	}
	level++

	if level > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(level)
}

// ScaledStats compounds each rolled stat by GrowthPerLevel for (level-1)
// levels and floors it. Values saturate at math.MaxInt64.
func ScaledStats(rolled model.Stats, level int32) model.Stats {
	if level <= 1 {
		return rolled
	}
	factor := math.Pow(GrowthPerLevel, float64(level-1))
	return rolled.Map(func(_ model.StatKind, v int64) int64 {
		scaled := math.Floor(float64(v) * factor)
		if scaled >= math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(scaled)
	})
}

// NewCreature rolls a fresh creature of species for trainerID.
// The creature starts with 0 experience; its level comes from the law.
func NewCreature(trainerID int64, species *model.Species, rng random.Source, now time.Time) *model.Creature {
	rolled := RollStats(species.BaseStats, rng)
	lm := LevelMultiplier(rolled, species.BaseStats)
	return &model.Creature{
		TrainerID:       trainerID,
		SpeciesID:       species.ID,
		Experience:      0,
		Level:           LevelForExperience(0, lm),
		LevelMultiplier: lm,
		Stats:           rolled,
		Moves:           []int64{},
		CreatedAt:       now,
	}
}

// AddExperience adds amount to c and recomputes the level from scratch.
// Returns the level before the change.
func AddExperience(c *model.Creature, amount int64) (oldLevel int32) {
	oldLevel = c.Level
	if amount > 0 {
		if c.Experience > math.MaxInt64-amount {
			c.Experience = math.MaxInt64
		} else {
			c.Experience += amount
		}
	}
	c.Level = LevelForExperience(c.Experience, c.LevelMultiplier)
	return oldLevel
}
