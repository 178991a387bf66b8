// Package trainerlock serialises roster mutations and battle starts per trainer.
package trainerlock

import (
	"slices"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker hands out one mutex per trainer ID. Entries are dropped when unused.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*entry
}

// New creates an empty Locker.
func New() *Locker {
	return &Locker{locks: make(map[int64]*entry, 64)}
}

// Lock acquires the locks of all given trainers and returns the release func.
// IDs are locked in ascending order, so overlapping calls cannot deadlock.
func (l *Locker) Lock(ids ...int64) (unlock func()) {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]*entry, 0, len(ids))
	for _, id := range ids {
		l.mu.Lock()
		e, ok := l.locks[id]
		if !ok {
			e = &entry{}
			l.locks[id] = e
		}
		e.refs++
		l.mu.Unlock()

		e.mu.Lock()
		held = append(held, e)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
		}
		l.mu.Lock()
		for i, id := range ids {
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, id)
			}
		}
		l.mu.Unlock()
	}
}

// Len returns the number of trainers currently locked or waiting.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
