package model

import (
	"time"

	"github.com/google/uuid"
)

// EndReason records how a battle finished.
type EndReason string

const (
	EndKnockout  EndReason = "knockout"  // one side has no standing participants
	EndAdmin     EndReason = "admin"     // administrative override
	EndSurrender EndReason = "surrender" // a trainer gave up
)

// MatchResult is the immutable outcome of a finished battle session.
type MatchResult struct {
	SessionID uuid.UUID
	Trainer1  int64
	Trainer2  int64
	Winner    int64
	Reason    EndReason
	Turns     int32
	StartedAt time.Time
	EndedAt   time.Time
}

// Loser returns the trainer who did not win.
func (r *MatchResult) Loser() int64 {
	if r.Winner == r.Trainer1 {
		return r.Trainer2
	}
	return r.Trainer1
}
