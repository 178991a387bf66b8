package battle

import (
	"slices"

	"github.com/udisondev/monbattle/internal/game/progression"
	"github.com/udisondev/monbattle/internal/model"
)

// Participant is a battle-scoped snapshot of an equipped creature.
// Stats and level are frozen at start; only HP changes, and only downwards.
type Participant struct {
	CreatureID int64
	TrainerID  int64
	Name       string
	Types      []model.ElementType
	Level      int32
	Stats      model.Stats // scaled to Level
	MaxHP      int64
	HP         int64
	Moves      []model.MoveTemplate
}

func newParticipant(c *model.Creature, species *model.Species, moves []model.MoveTemplate) Participant {
	stats := progression.ScaledStats(c.Stats, c.Level)
	return Participant{
		CreatureID: c.ID,
		TrainerID:  c.TrainerID,
		Name:       c.DisplayName(species.Name),
		Types:      slices.Clone(species.Types),
		Level:      c.Level,
		Stats:      stats,
		MaxHP:      stats.HP,
		HP:         stats.HP,
		Moves:      moves,
	}
}

// Fainted reports whether the participant has no health left.
func (p *Participant) Fainted() bool {
	return p.HP <= 0
}

// Move returns the battle move with the given ID.
func (p *Participant) Move(id int64) (model.MoveTemplate, bool) {
	for _, m := range p.Moves {
		if m.ID == id {
			return m, true
		}
	}
	return model.MoveTemplate{}, false
}

// takeDamage lowers HP by dmg and clamps it at zero.
func (p *Participant) takeDamage(dmg int64) {
	if dmg <= 0 {
		return
	}
	if dmg > p.HP {
		dmg = p.HP
	}
	p.HP -= dmg
}

func (p *Participant) clone() Participant {
	cp := *p
	cp.Types = slices.Clone(p.Types)
	cp.Moves = slices.Clone(p.Moves)
	return cp
}

// Side is one trainer's roster inside a session.
type Side struct {
	TrainerID    int64
	Participants []Participant
}

// Defeated reports whether no participant on the side is still standing.
func (s *Side) Defeated() bool {
	for i := range s.Participants {
		if !s.Participants[i].Fainted() {
			return false
		}
	}
	return true
}

func (s *Side) find(creatureID int64) *Participant {
	for i := range s.Participants {
		if s.Participants[i].CreatureID == creatureID {
			return &s.Participants[i]
		}
	}
	return nil
}

func (s *Side) clone() Side {
	cp := Side{TrainerID: s.TrainerID, Participants: make([]Participant, len(s.Participants))}
	for i := range s.Participants {
		cp.Participants[i] = s.Participants[i].clone()
	}
	return cp
}
