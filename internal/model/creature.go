package model

import (
	"slices"
	"time"
)

const (
	// MaxEquipped is the number of creatures a trainer may field.
	MaxEquipped = 6

	// MaxKnownMoves bounds the ordered move list of a creature.
	MaxKnownMoves = 4

	// MaxNicknameLength is measured in runes.
	MaxNicknameLength = 32
)

// Creature is a trainer's owned, leveled copy of a species.
//
// Stats and LevelMultiplier are fixed at creation. Level is derived from
// Experience and LevelMultiplier and is recomputed on every experience change.
type Creature struct {
	ID              int64
	TrainerID       int64
	SpeciesID       int64
	Nickname        string
	Experience      int64
	Level           int32
	LevelMultiplier float64
	Stats           Stats // rolled at creation
	Equipped        bool
	Moves           []int64 // known move IDs, in learn order
	CreatedAt       time.Time
}

// Knows reports whether the creature knows moveID.
func (c *Creature) Knows(moveID int64) bool {
	return slices.Contains(c.Moves, moveID)
}

// AddMove appends moveID. Caller validates type, duplicates and slot count.
func (c *Creature) AddMove(moveID int64) {
	c.Moves = append(c.Moves, moveID)
}

// RemoveMove deletes moveID keeping order. Returns false if it was not known.
func (c *Creature) RemoveMove(moveID int64) bool {
	i := slices.Index(c.Moves, moveID)
	if i < 0 {
		return false
	}
	c.Moves = slices.Delete(c.Moves, i, i+1)
	return true
}

// DisplayName returns the nickname, or fallback when none is set.
func (c *Creature) DisplayName(fallback string) string {
	if c.Nickname != "" {
		return c.Nickname
	}
	return fallback
}

// Clone returns a deep copy.
func (c *Creature) Clone() *Creature {
	cp := *c
	cp.Moves = slices.Clone(c.Moves)
	return &cp
}
