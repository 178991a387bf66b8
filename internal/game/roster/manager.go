// Package roster maintains creature instances: creation, equip state, known moves,
// nicknames and experience.
package roster

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/udisondev/monbattle/internal/apperr"
	"github.com/udisondev/monbattle/internal/game/progression"
	"github.com/udisondev/monbattle/internal/game/trainerlock"
	"github.com/udisondev/monbattle/internal/model"
	"github.com/udisondev/monbattle/internal/random"
)

// CreatureStore persists creature instances.
// Load* methods return nil, nil when the row does not exist.
type CreatureStore interface {
	LoadCreature(ctx context.Context, id int64) (*model.Creature, error)
	LoadCreaturesByTrainer(ctx context.Context, trainerID int64) ([]*model.Creature, error)
	CountEquipped(ctx context.Context, trainerID int64) (int, error)
	CreateCreature(ctx context.Context, c *model.Creature) error
	UpdateCreature(ctx context.Context, c *model.Creature) error
	DeleteCreature(ctx context.Context, id int64) error
}

// Catalog resolves species and move templates.
type Catalog interface {
	LoadSpecies(ctx context.Context, id int64) (*model.Species, error)
	LoadMove(ctx context.Context, id int64) (*model.MoveTemplate, error)
}

// Trainers resolves trainers and moves coins for purchases.
type Trainers interface {
	LoadTrainer(ctx context.Context, id int64) (*model.Trainer, error)
	SpendCoins(ctx context.Context, trainerID, amount int64) (bool, error)
	AddCoins(ctx context.Context, trainerID, amount int64) error
}

// BattleRegistry answers whether a creature is fielded in an active battle.
type BattleRegistry interface {
	IsCreatureInBattle(creatureID int64) bool
}

// Manager applies roster operations. Mutations of one trainer's creatures
// are serialised through the shared trainer locker.
type Manager struct {
	creatures CreatureStore
	catalog   Catalog
	trainers  Trainers
	battles   BattleRegistry
	locks     *trainerlock.Locker
	rng       random.Source
	now       func() time.Time
}

// NewManager creates a roster manager.
func NewManager(creatures CreatureStore, catalog Catalog, trainers Trainers, battles BattleRegistry, locks *trainerlock.Locker, rng random.Source) *Manager {
	return &Manager{
		creatures: creatures,
		catalog:   catalog,
		trainers:  trainers,
		battles:   battles,
		locks:     locks,
		rng:       rng,
		now:       time.Now,
	}
}

// CreateCreature grants trainerID a new creature of speciesID (starter grant).
func (m *Manager) CreateCreature(ctx context.Context, trainerID, speciesID int64) (*model.Creature, error) {
	if _, err := m.loadTrainer(ctx, trainerID); err != nil {
		return nil, err
	}
	species, err := m.loadSpecies(ctx, speciesID)
	if err != nil {
		return nil, err
	}
	return m.create(ctx, trainerID, species)
}

// Purchase deducts the species cost from the trainer and creates the creature.
// Coins are refunded if creation fails.
func (m *Manager) Purchase(ctx context.Context, trainerID, speciesID int64) (*model.Creature, error) {
	if _, err := m.loadTrainer(ctx, trainerID); err != nil {
		return nil, err
	}
	species, err := m.loadSpecies(ctx, speciesID)
	if err != nil {
		return nil, err
	}
	if !species.ForSale {
		return nil, apperr.Wrapf(apperr.ErrNotForSale, "species %d", speciesID)
	}

	unlock := m.locks.Lock(trainerID)
	defer unlock()

	ok, err := m.trainers.SpendCoins(ctx, trainerID, species.Cost)
	if err != nil {
		return nil, fmt.Errorf("spending %d coins of trainer %d: %w", species.Cost, trainerID, err)
	}
	if !ok {
		return nil, apperr.Wrapf(apperr.ErrInsufficientCoins, "trainer %d buying species %d", trainerID, speciesID)
	}

	c, err := m.create(ctx, trainerID, species)
	if err != nil {
		if rerr := m.trainers.AddCoins(ctx, trainerID, species.Cost); rerr != nil {
			slog.Error("refund after failed purchase",
				"trainerID", trainerID,
				"cost", species.Cost,
				"error", rerr)
		}
		return nil, err
	}
	return c, nil
}

func (m *Manager) create(ctx context.Context, trainerID int64, species *model.Species) (*model.Creature, error) {
	c := progression.NewCreature(trainerID, species, m.rng, m.now())
	if err := m.creatures.CreateCreature(ctx, c); err != nil {
		return nil, fmt.Errorf("creating creature of species %d for trainer %d: %w", species.ID, trainerID, err)
	}

	slog.Info("creature created",
		"creatureID", c.ID,
		"trainerID", trainerID,
		"species", species.Name,
		"levelMultiplier", c.LevelMultiplier)
	return c, nil
}

// Equip marks a creature as part of its trainer's battle roster.
func (m *Manager) Equip(ctx context.Context, creatureID int64) (*model.Creature, error) {
	return m.mutate(ctx, creatureID, func(c *model.Creature) error {
		if c.Equipped {
			return apperr.Wrapf(apperr.ErrAlreadyEquipped, "creature %d", c.ID)
		}
		// Always count from the store; the trainer lock keeps it current.
		n, err := m.creatures.CountEquipped(ctx, c.TrainerID)
		if err != nil {
			return fmt.Errorf("counting equipped creatures of trainer %d: %w", c.TrainerID, err)
		}
		if n >= model.MaxEquipped {
			return apperr.Wrapf(apperr.ErrRosterFull, "trainer %d", c.TrainerID)
		}
		c.Equipped = true
		return nil
	})
}

// Unequip removes a creature from the battle roster.
func (m *Manager) Unequip(ctx context.Context, creatureID int64) (*model.Creature, error) {
	return m.mutate(ctx, creatureID, func(c *model.Creature) error {
		if !c.Equipped {
			return apperr.Wrapf(apperr.ErrAlreadyUnequipped, "creature %d", c.ID)
		}
		if m.battles.IsCreatureInBattle(c.ID) {
			return apperr.Wrapf(apperr.ErrInBattle, "creature %d", c.ID)
		}
		c.Equipped = false
		return nil
	})
}

// LearnMove appends moveID to the creature's known moves.
func (m *Manager) LearnMove(ctx context.Context, creatureID, moveID int64) (*model.Creature, error) {
	move, err := m.catalog.LoadMove(ctx, moveID)
	if err != nil {
		return nil, fmt.Errorf("loading move %d: %w", moveID, err)
	}
	if move == nil {
		return nil, apperr.Wrapf(apperr.ErrMoveNotFound, "move %d", moveID)
	}

	return m.mutate(ctx, creatureID, func(c *model.Creature) error {
		species, err := m.loadSpecies(ctx, c.SpeciesID)
		if err != nil {
			return err
		}
		if !species.HasType(move.Type) {
			return apperr.Wrapf(apperr.ErrTypeMismatch, "move %s (%s) on %s", move.Name, move.Type, species.Name)
		}
		if c.Knows(moveID) {
			return apperr.Wrapf(apperr.ErrAlreadyKnown, "move %s on creature %d", move.Name, c.ID)
		}
		if len(c.Moves) >= model.MaxKnownMoves {
			return apperr.Wrapf(apperr.ErrMoveSlotsFull, "creature %d", c.ID)
		}
		if c.Level < move.MinLevel {
			return apperr.Wrapf(apperr.ErrLevelTooLow, "move %s needs level %d, creature %d is %d", move.Name, move.MinLevel, c.ID, c.Level)
		}
		c.AddMove(moveID)
		return nil
	})
}

// ForgetMove removes moveID from the creature's known moves.
func (m *Manager) ForgetMove(ctx context.Context, creatureID, moveID int64) (*model.Creature, error) {
	return m.mutate(ctx, creatureID, func(c *model.Creature) error {
		if !c.RemoveMove(moveID) {
			return apperr.Wrapf(apperr.ErrNotKnown, "move %d on creature %d", moveID, c.ID)
		}
		return nil
	})
}

// Rename overwrites the nickname. An empty nickname clears it.
func (m *Manager) Rename(ctx context.Context, creatureID int64, nickname string) (*model.Creature, error) {
	nickname = strings.TrimSpace(nickname)
	if utf8.RuneCountInString(nickname) > model.MaxNicknameLength {
		return nil, apperr.Wrapf(apperr.ErrInvalidNickname, "%d runes", utf8.RuneCountInString(nickname))
	}
	return m.mutate(ctx, creatureID, func(c *model.Creature) error {
		c.Nickname = nickname
		return nil
	})
}

// AwardExperience adds experience and recomputes the level from the leveling law.
func (m *Manager) AwardExperience(ctx context.Context, creatureID, amount int64) (*model.Creature, error) {
	if amount < 0 {
		return nil, apperr.Wrapf(apperr.ErrInvalidExperience, "amount %d", amount)
	}
	return m.mutate(ctx, creatureID, func(c *model.Creature) error {
		oldLevel := progression.AddExperience(c, amount)
		if c.Level > oldLevel {
			slog.Info("creature leveled up",
				"creatureID", c.ID,
				"trainerID", c.TrainerID,
				"oldLevel", oldLevel,
				"newLevel", c.Level,
				"exp", c.Experience)
		}
		return nil
	})
}

// Release deletes a creature. Equipped creatures cannot be released.
func (m *Manager) Release(ctx context.Context, creatureID int64) error {
	c, err := m.loadCreature(ctx, creatureID)
	if err != nil {
		return err
	}

	unlock := m.locks.Lock(c.TrainerID)
	defer unlock()

	c, err = m.loadCreature(ctx, creatureID)
	if err != nil {
		return err
	}
	if c.Equipped {
		return apperr.Wrapf(apperr.ErrStillEquipped, "creature %d", c.ID)
	}
	if err := m.creatures.DeleteCreature(ctx, c.ID); err != nil {
		return fmt.Errorf("deleting creature %d: %w", c.ID, err)
	}
	slog.Info("creature released", "creatureID", c.ID, "trainerID", c.TrainerID)
	return nil
}

// Roster lists every creature owned by trainerID.
func (m *Manager) Roster(ctx context.Context, trainerID int64) ([]*model.Creature, error) {
	if _, err := m.loadTrainer(ctx, trainerID); err != nil {
		return nil, err
	}
	cs, err := m.creatures.LoadCreaturesByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("loading creatures of trainer %d: %w", trainerID, err)
	}
	return cs, nil
}

// mutate loads the creature, takes its trainer lock, reloads it and applies fn.
// The creature is persisted only if fn succeeds.
func (m *Manager) mutate(ctx context.Context, creatureID int64, fn func(c *model.Creature) error) (*model.Creature, error) {
	c, err := m.loadCreature(ctx, creatureID)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(c.TrainerID)
	defer unlock()

	// Перечитываем под локом: между загрузкой и локом мог пройти другой апдейт.
	c, err = m.loadCreature(ctx, creatureID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := m.creatures.UpdateCreature(ctx, c); err != nil {
		return nil, fmt.Errorf("saving creature %d: %w", c.ID, err)
	}
	return c, nil
}

func (m *Manager) loadCreature(ctx context.Context, id int64) (*model.Creature, error) {
	c, err := m.creatures.LoadCreature(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading creature %d: %w", id, err)
	}
	if c == nil {
		return nil, apperr.Wrapf(apperr.ErrCreatureNotFound, "creature %d", id)
	}
	return c, nil
}

func (m *Manager) loadTrainer(ctx context.Context, id int64) (*model.Trainer, error) {
	t, err := m.trainers.LoadTrainer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading trainer %d: %w", id, err)
	}
	if t == nil {
		return nil, apperr.Wrapf(apperr.ErrTrainerNotFound, "trainer %d", id)
	}
	return t, nil
}

func (m *Manager) loadSpecies(ctx context.Context, id int64) (*model.Species, error) {
	s, err := m.catalog.LoadSpecies(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading species %d: %w", id, err)
	}
	if s == nil {
		return nil, apperr.Wrapf(apperr.ErrSpeciesNotFound, "species %d", id)
	}
	return s, nil
}
