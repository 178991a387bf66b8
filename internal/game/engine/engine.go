// Package engine wires the roster, battle and archive managers over one set of stores.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/monbattle/internal/data"
	"github.com/udisondev/monbattle/internal/game/archive"
	"github.com/udisondev/monbattle/internal/game/battle"
	"github.com/udisondev/monbattle/internal/game/roster"
	"github.com/udisondev/monbattle/internal/game/trainerlock"
	"github.com/udisondev/monbattle/internal/model"
	"github.com/udisondev/monbattle/internal/random"
)

// CreatureStore is everything the engine needs from creature persistence.
type CreatureStore interface {
	roster.CreatureStore
	LoadEquippedCreatures(ctx context.Context, trainerID int64) ([]*model.Creature, error)
}

// Stores groups the persistence backends. db.Repositories and db.MemoryStore both fit.
type Stores struct {
	Trainers  roster.Trainers
	Creatures CreatureStore
	Catalog   roster.Catalog
	Results   archive.Store
}

// Options tune the battle rules and the archive outbox.
type Options struct {
	Chart   *data.TypeChart
	Policy  data.DefenderPolicy
	Rand    random.Source
	Archive archive.Config
}

// Engine owns the managers of one process.
type Engine struct {
	Roster  *roster.Manager
	Battles *battle.Manager
	Archive *archive.Archive
}

// New builds the managers. Roster and battles share one trainer locker so a
// trainer's roster cannot change while a battle for them is being started.
func New(stores Stores, opts Options) (*Engine, error) {
	if opts.Chart == nil {
		return nil, fmt.Errorf("creating engine: type chart is required")
	}
	if opts.Rand == nil {
		seed, err := random.NewSeed()
		if err != nil {
			return nil, fmt.Errorf("creating engine: %w", err)
		}
		opts.Rand = random.New(seed)
	}

	locks := trainerlock.New()
	arch := archive.New(stores.Results, opts.Archive)
	battles := battle.NewManager(battle.Config{
		Trainers:  stores.Trainers,
		Creatures: stores.Creatures,
		Catalog:   stores.Catalog,
		Chart:     opts.Chart,
		Policy:    opts.Policy,
		Rand:      opts.Rand,
		Locks:     locks,
		Recorder:  arch,
	})

	return &Engine{
		Roster:  roster.NewManager(stores.Creatures, stores.Catalog, stores.Trainers, battles, locks, opts.Rand),
		Battles: battles,
		Archive: arch,
	}, nil
}

// Run drives the archive worker until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine running")
	return e.Archive.Run(ctx)
}

// Shutdown writes out every result still waiting in the archive.
func (e *Engine) Shutdown(ctx context.Context) error {
	if n := e.Battles.Count(); n > 0 {
		slog.Warn("shutting down with active battles", "sessions", n)
	}
	if err := e.Archive.Flush(ctx); err != nil {
		return fmt.Errorf("flushing match archive: %w", err)
	}
	return nil
}
