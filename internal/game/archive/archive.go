// Package archive persists finished match results through an in-memory outbox.
// Every recorded result is retried until the store accepts it.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/udisondev/monbattle/internal/model"
)

// Store persists match results. Inserting the same session twice must be a no-op.
type Store interface {
	InsertMatchResult(ctx context.Context, r *model.MatchResult) error
}

// Config controls outbox sizing and retry pacing.
type Config struct {
	QueueSize       int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig returns the retry settings used by the server.
func DefaultConfig() Config {
	return Config{
		QueueSize:       256,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// Archive is an outbox of match results keyed by session ID.
type Archive struct {
	store Store
	cfg   Config

	mu      sync.Mutex
	pending map[uuid.UUID]*model.MatchResult
	order   []uuid.UUID

	drainMu sync.Mutex // one drain at a time
	wake    chan struct{}
}

// New creates an archive writing to store.
func New(store Store, cfg Config) *Archive {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = max(def.MaxInterval, cfg.InitialInterval)
	}
	return &Archive{
		store:   store,
		cfg:     cfg,
		pending: make(map[uuid.UUID]*model.MatchResult, cfg.QueueSize),
		order:   make([]uuid.UUID, 0, cfg.QueueSize),
		wake:    make(chan struct{}, 1),
	}
}

// Record enqueues a result. A session already waiting in the outbox is ignored.
// Never blocks: it is called while a battle session is locked.
func (a *Archive) Record(r *model.MatchResult) {
	a.mu.Lock()
	if _, ok := a.pending[r.SessionID]; ok {
		a.mu.Unlock()
		return
	}
	cp := *r
	a.pending[r.SessionID] = &cp
	a.order = append(a.order, r.SessionID)
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of results not yet persisted.
func (a *Archive) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Run drains the outbox whenever results arrive, until ctx is cancelled.
func (a *Archive) Run(ctx context.Context) error {
	slog.Info("match archive started", "queueSize", a.cfg.QueueSize)
	for {
		select {
		case <-ctx.Done():
			slog.Info("match archive stopped", "pending", a.Pending())
			return nil
		case <-a.wake:
			if err := a.Flush(ctx); err != nil && ctx.Err() == nil {
				slog.Error("draining match archive", "error", err)
			}
		}
	}
}

// Flush persists every pending result, retrying each until it is stored
// or ctx is done.
func (a *Archive) Flush(ctx context.Context) error {
	a.drainMu.Lock()
	defer a.drainMu.Unlock()

	for {
		r := a.next()
		if r == nil {
			return nil
		}
		if err := a.insert(ctx, r); err != nil {
			return fmt.Errorf("archiving session %s: %w", r.SessionID, err)
		}
		a.done(r.SessionID)
		slog.Debug("match result archived",
			"sessionID", r.SessionID,
			"winner", r.Winner)
	}
}

func (a *Archive) next() *model.MatchResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.order) == 0 {
		return nil
	}
	return a.pending[a.order[0]]
}

func (a *Archive) done(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, id)
	if len(a.order) > 0 && a.order[0] == id {
		a.order = a.order[1:]
	}
}

func (a *Archive) insert(ctx context.Context, r *model.MatchResult) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.cfg.InitialInterval
	b.MaxInterval = a.cfg.MaxInterval
	b.MaxElapsedTime = 0 // до победного, пока не отменят ctx

	op := func() error {
		return a.store.InsertMatchResult(ctx, r)
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("match result insert failed, retrying",
			"sessionID", r.SessionID,
			"retryIn", wait,
			"error", err)
	}
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
}
