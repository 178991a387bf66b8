package db

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/monbattle/internal/model"
)

// MemoryStore is an in-memory implementation of every repository in this package.
// Used by unit tests and the simulator; does not need PostgreSQL.
// Returned values are copies, callers persist changes through Update*/Upsert*.
type MemoryStore struct {
	mu sync.RWMutex

	trainers  map[int64]*model.Trainer
	species   map[int64]*model.Species
	moves     map[int64]*model.MoveTemplate
	creatures map[int64]*model.Creature
	results   map[uuid.UUID]*model.MatchResult

	nextTrainerID  int64
	nextCreatureID int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trainers:  make(map[int64]*model.Trainer),
		species:   make(map[int64]*model.Species),
		moves:     make(map[int64]*model.MoveTemplate),
		creatures: make(map[int64]*model.Creature),
		results:   make(map[uuid.UUID]*model.MatchResult),
	}
}

// --- trainers ---

// CreateTrainer registers a trainer with a starting coin balance.
func (s *MemoryStore) CreateTrainer(ctx context.Context, username string, coins int64) (*model.Trainer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.trainers {
		if t.Username == username {
			return nil, fmt.Errorf("trainer %q already exists", username)
		}
	}
	s.nextTrainerID++
	t := &model.Trainer{ID: s.nextTrainerID, Username: username, Coins: coins, CreatedAt: time.Now()}
	s.trainers[t.ID] = t

	cp := *t
	return &cp, nil
}

// LoadTrainer returns nil, nil if the trainer does not exist.
func (s *MemoryStore) LoadTrainer(ctx context.Context, id int64) (*model.Trainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trainers[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// SpendCoins deducts amount if the balance allows it. Returns false otherwise.
func (s *MemoryStore) SpendCoins(ctx context.Context, trainerID, amount int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trainers[trainerID]
	if !ok {
		return false, fmt.Errorf("trainer %d not found", trainerID)
	}
	if t.Coins < amount {
		return false, nil
	}
	t.Coins -= amount
	return true, nil
}

// AddCoins credits amount to the trainer.
func (s *MemoryStore) AddCoins(ctx context.Context, trainerID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trainers[trainerID]
	if !ok {
		return fmt.Errorf("trainer %d not found", trainerID)
	}
	t.Coins += amount
	return nil
}

// --- catalog ---

// UpsertSpecies inserts or replaces a species by ID.
func (s *MemoryStore) UpsertSpecies(ctx context.Context, sp *model.Species) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sp
	cp.Types = slices.Clone(sp.Types)
	s.species[sp.ID] = &cp
	return nil
}

// UpsertMove inserts or replaces a move by ID.
func (s *MemoryStore) UpsertMove(ctx context.Context, m *model.MoveTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	s.moves[m.ID] = &cp
	return nil
}

// LoadSpecies returns nil, nil if the species does not exist.
func (s *MemoryStore) LoadSpecies(ctx context.Context, id int64) (*model.Species, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.species[id]
	if !ok {
		return nil, nil
	}
	cp := *sp
	cp.Types = slices.Clone(sp.Types)
	return &cp, nil
}

// LoadMove returns nil, nil if the move does not exist.
func (s *MemoryStore) LoadMove(ctx context.Context, id int64) (*model.MoveTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.moves[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

// ListSpecies returns all species ordered by ID.
func (s *MemoryStore) ListSpecies(ctx context.Context) ([]*model.Species, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Species, 0, len(s.species))
	for _, sp := range s.species {
		cp := *sp
		cp.Types = slices.Clone(sp.Types)
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *model.Species) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// ListMoves returns all moves ordered by ID.
func (s *MemoryStore) ListMoves(ctx context.Context) ([]*model.MoveTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.MoveTemplate, 0, len(s.moves))
	for _, m := range s.moves {
		cp := *m
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *model.MoveTemplate) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// --- creatures ---

// CreateCreature stores c and assigns c.ID.
func (s *MemoryStore) CreateCreature(ctx context.Context, c *model.Creature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trainers[c.TrainerID]; !ok {
		return fmt.Errorf("creating creature: trainer %d not found", c.TrainerID)
	}
	if _, ok := s.species[c.SpeciesID]; !ok {
		return fmt.Errorf("creating creature: species %d not found", c.SpeciesID)
	}
	s.nextCreatureID++
	c.ID = s.nextCreatureID
	s.creatures[c.ID] = c.Clone()
	return nil
}

// UpdateCreature replaces the stored creature.
func (s *MemoryStore) UpdateCreature(ctx context.Context, c *model.Creature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.creatures[c.ID]; !ok {
		return fmt.Errorf("updating creature %d: not found", c.ID)
	}
	s.creatures[c.ID] = c.Clone()
	return nil
}

// DeleteCreature removes a creature. Missing creatures are not an error.
func (s *MemoryStore) DeleteCreature(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creatures, id)
	return nil
}

// LoadCreature returns nil, nil if the creature does not exist.
func (s *MemoryStore) LoadCreature(ctx context.Context, id int64) (*model.Creature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creatures[id]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

// LoadCreaturesByTrainer returns all creatures of a trainer ordered by ID.
func (s *MemoryStore) LoadCreaturesByTrainer(ctx context.Context, trainerID int64) ([]*model.Creature, error) {
	return s.filterCreatures(func(c *model.Creature) bool { return c.TrainerID == trainerID }), nil
}

// LoadEquippedCreatures returns the equipped creatures of a trainer ordered by ID.
func (s *MemoryStore) LoadEquippedCreatures(ctx context.Context, trainerID int64) ([]*model.Creature, error) {
	return s.filterCreatures(func(c *model.Creature) bool { return c.TrainerID == trainerID && c.Equipped }), nil
}

// CountEquipped counts equipped creatures of a trainer.
func (s *MemoryStore) CountEquipped(ctx context.Context, trainerID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, c := range s.creatures {
		if c.TrainerID == trainerID && c.Equipped {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) filterCreatures(keep func(*model.Creature) bool) []*model.Creature {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Creature
	for _, c := range s.creatures {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *model.Creature) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// --- match results ---

// InsertMatchResult stores r once per session; repeated inserts are ignored.
func (s *MemoryStore) InsertMatchResult(ctx context.Context, r *model.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.results[r.SessionID]; ok {
		return nil
	}
	cp := *r
	s.results[r.SessionID] = &cp
	return nil
}

// LoadMatchResult returns nil, nil if no result exists for the session.
func (s *MemoryStore) LoadMatchResult(ctx context.Context, sessionID uuid.UUID) (*model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

// LoadMatchResultsByTrainer returns results involving trainerID, newest first.
func (s *MemoryStore) LoadMatchResultsByTrainer(ctx context.Context, trainerID int64) ([]*model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.MatchResult
	for _, r := range s.results {
		if r.Trainer1 == trainerID || r.Trainer2 == trainerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *model.MatchResult) int { return b.EndedAt.Compare(a.EndedAt) })
	return out, nil
}

// MatchResultCount returns the number of stored results.
func (s *MemoryStore) MatchResultCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
