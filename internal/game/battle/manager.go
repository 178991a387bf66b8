// Package battle runs turn-based matches between two trainers' equipped rosters.
package battle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/monbattle/internal/apperr"
	"github.com/udisondev/monbattle/internal/data"
	"github.com/udisondev/monbattle/internal/game/trainerlock"
	"github.com/udisondev/monbattle/internal/model"
	"github.com/udisondev/monbattle/internal/random"
)

// Trainers resolves trainer references. LoadTrainer returns nil, nil if missing.
type Trainers interface {
	LoadTrainer(ctx context.Context, id int64) (*model.Trainer, error)
}

// Creatures loads the battle-eligible creatures of a trainer.
type Creatures interface {
	LoadEquippedCreatures(ctx context.Context, trainerID int64) ([]*model.Creature, error)
}

// Catalog resolves species and moves. Both return nil, nil if missing.
type Catalog interface {
	LoadSpecies(ctx context.Context, id int64) (*model.Species, error)
	LoadMove(ctx context.Context, id int64) (*model.MoveTemplate, error)
}

// Recorder receives every finished match exactly once.
type Recorder interface {
	Record(result *model.MatchResult)
}

// MoveCommand is one submitted move.
type MoveCommand struct {
	SessionID     uuid.UUID
	TrainerID     int64 // acting trainer
	ParticipantID int64 // creature ID of the attacker
	MoveID        int64
	TargetID      int64 // creature ID of the target
}

// TurnOutcome describes a resolved move.
// Result is set when the move ended the battle; the session is gone by then.
type TurnOutcome struct {
	Hit        bool
	Damage     int64
	Multiplier data.Multiplier
	TargetHP   int64
	Snapshot   *Snapshot
	Result     *model.MatchResult
}

// Manager is the registry of active sessions.
// Thread-safe for concurrent access.
type Manager struct {
	trainers  Trainers
	creatures Creatures
	catalog   Catalog
	chart     *data.TypeChart
	policy    data.DefenderPolicy
	rng       random.Source
	locks     *trainerlock.Locker
	recorder  Recorder
	now       func() time.Time

	mu         sync.RWMutex
	sessions   map[uuid.UUID]*Session
	byTrainer  map[int64]uuid.UUID // trainerID → sessionID
	byCreature map[int64]uuid.UUID // creatureID → sessionID
}

// Config bundles the collaborators of a Manager.
type Config struct {
	Trainers  Trainers
	Creatures Creatures
	Catalog   Catalog
	Chart     *data.TypeChart
	Policy    data.DefenderPolicy
	Rand      random.Source
	Locks     *trainerlock.Locker
	Recorder  Recorder
}

// NewManager creates a session registry.
func NewManager(cfg Config) *Manager {
	policy := cfg.Policy
	if policy == "" {
		policy = data.PolicyPrimary
	}
	locks := cfg.Locks
	if locks == nil {
		locks = trainerlock.New()
	}
	return &Manager{
		trainers:   cfg.Trainers,
		creatures:  cfg.Creatures,
		catalog:    cfg.Catalog,
		chart:      cfg.Chart,
		policy:     policy,
		rng:        cfg.Rand,
		locks:      locks,
		recorder:   cfg.Recorder,
		now:        time.Now,
		sessions:   make(map[uuid.UUID]*Session, 16),
		byTrainer:  make(map[int64]uuid.UUID, 32),
		byCreature: make(map[int64]uuid.UUID, 64),
	}
}

// Start opens a session between trainer1 and trainer2. Trainer 1 moves first.
func (m *Manager) Start(ctx context.Context, trainer1, trainer2 int64) (*Snapshot, error) {
	if trainer1 == trainer2 {
		return nil, apperr.Wrapf(apperr.ErrSameTrainer, "trainer %d", trainer1)
	}
	for _, id := range []int64{trainer1, trainer2} {
		t, err := m.trainers.LoadTrainer(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading trainer %d: %w", id, err)
		}
		if t == nil {
			return nil, apperr.Wrapf(apperr.ErrTrainerNotFound, "trainer %d", id)
		}
	}
	if err := m.checkFree(trainer1, trainer2); err != nil {
		return nil, err
	}

	// Roster locks keep equip/unequip out while the snapshot is taken and registered.
	unlock := m.locks.Lock(trainer1, trainer2)
	defer unlock()

	side1, err := m.buildSide(ctx, trainer1)
	if err != nil {
		return nil, err
	}
	side2, err := m.buildSide(ctx, trainer2)
	if err != nil {
		return nil, err
	}

	s := newSession(side1, side2)
	if err := s.start(ctx, m.now()); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if err := m.checkFreeLocked(trainer1, trainer2); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.sessions[s.id] = s
	for _, side := range s.sides {
		m.byTrainer[side.TrainerID] = s.id
		for _, p := range side.Participants {
			m.byCreature[p.CreatureID] = s.id
		}
	}
	m.mu.Unlock()

	slog.Debug("battle session created",
		"sessionID", s.id,
		"trainer1", trainer1,
		"trainer2", trainer2,
		"participants1", len(side1.Participants),
		"participants2", len(side2.Participants))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (m *Manager) checkFree(ids ...int64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkFreeLocked(ids...)
}

func (m *Manager) checkFreeLocked(ids ...int64) error {
	for _, id := range ids {
		if _, ok := m.byTrainer[id]; ok {
			return apperr.Wrapf(apperr.ErrAlreadyInBattle, "trainer %d", id)
		}
	}
	return nil
}

func (m *Manager) buildSide(ctx context.Context, trainerID int64) (Side, error) {
	creatures, err := m.creatures.LoadEquippedCreatures(ctx, trainerID)
	if err != nil {
		return Side{}, fmt.Errorf("loading equipped creatures of trainer %d: %w", trainerID, err)
	}
	if len(creatures) == 0 {
		return Side{}, apperr.Wrapf(apperr.ErrEmptyRoster, "trainer %d", trainerID)
	}

	side := Side{TrainerID: trainerID, Participants: make([]Participant, 0, len(creatures))}
	for _, c := range creatures {
		species, err := m.catalog.LoadSpecies(ctx, c.SpeciesID)
		if err != nil {
			return Side{}, fmt.Errorf("loading species %d: %w", c.SpeciesID, err)
		}
		if species == nil {
			return Side{}, apperr.Wrapf(apperr.ErrSpeciesNotFound, "species %d of creature %d", c.SpeciesID, c.ID)
		}

		moves := make([]model.MoveTemplate, 0, len(c.Moves))
		for _, id := range c.Moves {
			mv, err := m.catalog.LoadMove(ctx, id)
			if err != nil {
				return Side{}, fmt.Errorf("loading move %d: %w", id, err)
			}
			if mv == nil {
				return Side{}, apperr.Wrapf(apperr.ErrMoveNotFound, "move %d of creature %d", id, c.ID)
			}
			moves = append(moves, *mv)
		}
		side.Participants = append(side.Participants, newParticipant(c, species, moves))
	}
	return side, nil
}

// SubmitMove resolves one move. Validation failures leave the session untouched.
// A miss is not an error: the turn passes and no health changes.
func (m *Manager) SubmitMove(ctx context.Context, cmd MoveCommand) (*TurnOutcome, error) {
	s, err := m.session(cmd.SessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active() {
		return nil, apperr.Wrapf(apperr.ErrNotActive, "session %s", s.id)
	}

	attacker, attackerSide := s.locate(cmd.ParticipantID)
	if attacker == nil {
		return nil, apperr.Wrapf(apperr.ErrNotParticipant, "creature %d in session %s", cmd.ParticipantID, s.id)
	}
	if attacker.Fainted() {
		return nil, apperr.Wrapf(apperr.ErrFainted, "creature %d", attacker.CreatureID)
	}
	if s.sides[s.turn].TrainerID != cmd.TrainerID {
		return nil, apperr.Wrapf(apperr.ErrNotYourTurn, "trainer %d in session %s", cmd.TrainerID, s.id)
	}
	if attackerSide != s.turn {
		return nil, apperr.Wrapf(apperr.ErrNotOwner, "creature %d, trainer %d", attacker.CreatureID, cmd.TrainerID)
	}

	target, targetSide := s.locate(cmd.TargetID)
	if target == nil {
		return nil, apperr.Wrapf(apperr.ErrInvalidTarget, "creature %d is not in session %s", cmd.TargetID, s.id)
	}
	if targetSide == attackerSide {
		return nil, apperr.Wrapf(apperr.ErrInvalidTarget, "creature %d is on the acting side", cmd.TargetID)
	}
	if target.Fainted() {
		return nil, apperr.Wrapf(apperr.ErrInvalidTarget, "creature %d has fainted", cmd.TargetID)
	}

	move, ok := attacker.Move(cmd.MoveID)
	if !ok {
		return nil, apperr.Wrapf(apperr.ErrMoveUnavailable, "move %d for creature %d", cmd.MoveID, attacker.CreatureID)
	}

	out := &TurnOutcome{Multiplier: data.One}

	// Бросок точности: промах тоже расходует ход.
	if m.rng.Float64()*100 >= float64(move.Accuracy) {
		s.flipTurn()
		out.TargetHP = target.HP
		out.Snapshot = s.snapshot()
		slog.Debug("move missed",
			"sessionID", s.id,
			"attacker", attacker.CreatureID,
			"move", move.Name)
		return out, nil
	}

	eff := m.chart.Against(move.Type, target.Types, m.policy)
	dmg := Damage(attacker.Level, move, attacker.Stats, target.Stats, eff)
	out.Hit = true
	out.Multiplier = eff
	out.Damage = dmg
	target.takeDamage(dmg)
	out.TargetHP = target.HP

	s.flipTurn()

	if s.sides[targetSide].Defeated() {
		res, err := s.complete(ctx, s.sides[attackerSide].TrainerID, model.EndKnockout, m.now())
		if err != nil {
			return nil, err
		}
		out.Snapshot = s.snapshot()
		out.Result = res
		m.finish(s, res)
		return out, nil
	}

	out.Snapshot = s.snapshot()
	return out, nil
}

// End finishes a session administratively with winner as the winning trainer.
func (m *Manager) End(ctx context.Context, sessionID uuid.UUID, winner int64) (*model.MatchResult, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active() {
		return nil, apperr.Wrapf(apperr.ErrNotActive, "session %s", s.id)
	}
	if s.sideOf(winner) < 0 {
		return nil, apperr.Wrapf(apperr.ErrInvalidWinner, "trainer %d in session %s", winner, s.id)
	}

	res, err := s.complete(ctx, winner, model.EndAdmin, m.now())
	if err != nil {
		return nil, err
	}
	m.finish(s, res)
	return res, nil
}

// Surrender ends the session with the opponent of trainerID as the winner.
func (m *Manager) Surrender(ctx context.Context, sessionID uuid.UUID, trainerID int64) (*model.MatchResult, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active() {
		return nil, apperr.Wrapf(apperr.ErrNotActive, "session %s", s.id)
	}
	side := s.sideOf(trainerID)
	if side < 0 {
		return nil, apperr.Wrapf(apperr.ErrNotParticipant, "trainer %d in session %s", trainerID, s.id)
	}

	res, err := s.complete(ctx, s.sides[1-side].TrainerID, model.EndSurrender, m.now())
	if err != nil {
		return nil, err
	}
	m.finish(s, res)
	return res, nil
}

// finish unregisters a completed session and hands the result to the recorder.
// Caller holds s.mu.
func (m *Manager) finish(s *Session, res *model.MatchResult) {
	m.mu.Lock()
	delete(m.sessions, s.id)
	for _, side := range s.sides {
		if m.byTrainer[side.TrainerID] == s.id {
			delete(m.byTrainer, side.TrainerID)
		}
		for _, p := range side.Participants {
			if m.byCreature[p.CreatureID] == s.id {
				delete(m.byCreature, p.CreatureID)
			}
		}
	}
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.Record(res)
	}

	slog.Info("battle finished",
		"sessionID", s.id,
		"winner", res.Winner,
		"loser", res.Loser(),
		"reason", res.Reason,
		"turns", res.Turns)
}

func (m *Manager) session(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.Wrapf(apperr.ErrSessionNotFound, "session %s", id)
	}
	return s, nil
}

// Snapshot returns a copy of an active session.
func (m *Manager) Snapshot(sessionID uuid.UUID) (*Snapshot, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// SessionByTrainer returns the active session of a trainer, if any.
func (m *Manager) SessionByTrainer(trainerID int64) (uuid.UUID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byTrainer[trainerID]
	return id, ok
}

// IsTrainerInBattle reports whether the trainer is in an active session.
func (m *Manager) IsTrainerInBattle(trainerID int64) bool {
	_, ok := m.SessionByTrainer(trainerID)
	return ok
}

// IsCreatureInBattle reports whether the creature is fielded in an active session.
func (m *Manager) IsCreatureInBattle(creatureID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byCreature[creatureID]
	return ok
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
