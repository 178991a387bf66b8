package battle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/udisondev/monbattle/internal/model"
)

// Session states.
const (
	StateUnstarted = "unstarted"
	StateActive    = "active"
	StateCompleted = "completed"
)

const (
	eventStart    = "start"
	eventComplete = "complete"
)

// Session is one match between two trainers.
// All fields behind mu; moves on one session are applied one at a time.
type Session struct {
	mu sync.Mutex

	id        uuid.UUID
	state     *fsm.FSM
	sides     [2]Side
	turn      int // index into sides
	turns     int32
	startedAt time.Time
	result    *model.MatchResult
}

func newSession(side1, side2 Side) *Session {
	return &Session{
		id:    uuid.New(),
		sides: [2]Side{side1, side2},
		state: fsm.NewFSM(
			StateUnstarted,
			fsm.Events{
				{Name: eventStart, Src: []string{StateUnstarted}, Dst: StateActive},
				{Name: eventComplete, Src: []string{StateActive}, Dst: StateCompleted},
			},
			fsm.Callbacks{},
		),
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Current()
}

// Trainers returns both trainer IDs, trainer 1 first.
func (s *Session) Trainers() (int64, int64) {
	return s.sides[0].TrainerID, s.sides[1].TrainerID
}

// start moves the session to active. Caller holds mu or owns the session exclusively.
func (s *Session) start(ctx context.Context, now time.Time) error {
	if err := s.state.Event(ctx, eventStart); err != nil {
		return fmt.Errorf("starting session %s: %w", s.id, err)
	}
	s.startedAt = now
	s.turn = 0
	return nil
}

// complete finishes the session with winner. Caller holds mu.
func (s *Session) complete(ctx context.Context, winner int64, reason model.EndReason, now time.Time) (*model.MatchResult, error) {
	if err := s.state.Event(ctx, eventComplete); err != nil {
		return nil, fmt.Errorf("completing session %s: %w", s.id, err)
	}
	s.result = &model.MatchResult{
		SessionID: s.id,
		Trainer1:  s.sides[0].TrainerID,
		Trainer2:  s.sides[1].TrainerID,
		Winner:    winner,
		Reason:    reason,
		Turns:     s.turns,
		StartedAt: s.startedAt,
		EndedAt:   now,
	}
	return s.result, nil
}

func (s *Session) active() bool {
	return s.state.Is(StateActive)
}

// sideOf returns the index of the trainer's side, or -1.
func (s *Session) sideOf(trainerID int64) int {
	for i := range s.sides {
		if s.sides[i].TrainerID == trainerID {
			return i
		}
	}
	return -1
}

// locate finds a participant by creature ID on either side.
func (s *Session) locate(creatureID int64) (*Participant, int) {
	for i := range s.sides {
		if p := s.sides[i].find(creatureID); p != nil {
			return p, i
		}
	}
	return nil, -1
}

func (s *Session) flipTurn() {
	s.turn = 1 - s.turn
	s.turns++
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID        uuid.UUID
	State     string
	Sides     [2]Side
	Turn      int64 // trainer whose move is next
	Turns     int32
	StartedAt time.Time
}

// Side returns the side of trainerID, or nil.
func (sn *Snapshot) Side(trainerID int64) *Side {
	for i := range sn.Sides {
		if sn.Sides[i].TrainerID == trainerID {
			return &sn.Sides[i]
		}
	}
	return nil
}

// Participant returns the participant snapshot for creatureID, or nil.
func (sn *Snapshot) Participant(creatureID int64) *Participant {
	for i := range sn.Sides {
		if p := sn.Sides[i].find(creatureID); p != nil {
			return p
		}
	}
	return nil
}

// snapshot copies the session. Caller holds mu.
func (s *Session) snapshot() *Snapshot {
	return &Snapshot{
		ID:        s.id,
		State:     s.state.Current(),
		Sides:     [2]Side{s.sides[0].clone(), s.sides[1].clone()},
		Turn:      s.sides[s.turn].TrainerID,
		Turns:     s.turns,
		StartedAt: s.startedAt,
	}
}
