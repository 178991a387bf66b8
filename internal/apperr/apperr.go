// Package apperr defines the typed failures returned by roster and battle operations.
// Every failure carries a Kind (how the caller should react) and a Code (what happened).
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Code is a machine-readable error code.
type Code string

const (
	// NotFound
	CodeTrainerNotFound  Code = "TRAINER_NOT_FOUND"
	CodeCreatureNotFound Code = "CREATURE_NOT_FOUND"
	CodeSpeciesNotFound  Code = "SPECIES_NOT_FOUND"
	CodeMoveNotFound     Code = "MOVE_NOT_FOUND"
	CodeSessionNotFound  Code = "SESSION_NOT_FOUND"

	// Conflict
	CodeAlreadyEquipped   Code = "ALREADY_EQUIPPED"
	CodeAlreadyUnequipped Code = "ALREADY_UNEQUIPPED"
	CodeRosterFull        Code = "ROSTER_FULL"
	CodeInBattle          Code = "IN_BATTLE"
	CodeAlreadyInBattle   Code = "ALREADY_IN_BATTLE"
	CodeAlreadyKnown      Code = "ALREADY_KNOWN"
	CodeMoveSlotsFull     Code = "MOVE_SLOTS_FULL"
	CodeNotActive         Code = "SESSION_NOT_ACTIVE"
	CodeFainted           Code = "FAINTED"
	CodeStillEquipped     Code = "STILL_EQUIPPED"
	CodeInsufficientCoins Code = "INSUFFICIENT_COINS"

	// Validation
	CodeTypeMismatch      Code = "TYPE_MISMATCH"
	CodeNotKnown          Code = "MOVE_NOT_KNOWN"
	CodeLevelTooLow       Code = "LEVEL_TOO_LOW"
	CodeInvalidTarget     Code = "INVALID_TARGET"
	CodeInvalidWinner     Code = "INVALID_WINNER"
	CodeNotParticipant    Code = "NOT_PARTICIPANT"
	CodeMoveUnavailable   Code = "MOVE_UNAVAILABLE"
	CodeInvalidExperience Code = "INVALID_EXPERIENCE"
	CodeInvalidNickname   Code = "INVALID_NICKNAME"
	CodeSameTrainer       Code = "SAME_TRAINER"
	CodeEmptyRoster       Code = "EMPTY_ROSTER"
	CodeNotForSale        Code = "NOT_FOR_SALE"

	// Forbidden
	CodeNotYourTurn Code = "NOT_YOUR_TURN"
	CodeNotOwner    Code = "NOT_OWNER"
)

// Error is a typed domain failure.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
}

// New creates a typed error.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error with the same code, so wrapped
// sentinels and freshly built errors with detail compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrapf returns a copy of sentinel with a formatted message prefix.
// errors.Is(result, sentinel) stays true.
func Wrapf(sentinel *Error, format string, args ...any) *Error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: fmt.Sprintf(format, args...) + ": " + sentinel.Message,
	}
}

// KindOf returns the Kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the Code of err, or "" for untyped errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Sentinels.
var (
	ErrTrainerNotFound  = New(KindNotFound, CodeTrainerNotFound, "trainer not found")
	ErrCreatureNotFound = New(KindNotFound, CodeCreatureNotFound, "creature not found")
	ErrSpeciesNotFound  = New(KindNotFound, CodeSpeciesNotFound, "species not found")
	ErrMoveNotFound     = New(KindNotFound, CodeMoveNotFound, "move not found")
	ErrSessionNotFound  = New(KindNotFound, CodeSessionNotFound, "battle session not found")

	ErrAlreadyEquipped   = New(KindConflict, CodeAlreadyEquipped, "creature is already equipped")
	ErrAlreadyUnequipped = New(KindConflict, CodeAlreadyUnequipped, "creature is already unequipped")
	ErrRosterFull        = New(KindConflict, CodeRosterFull, "trainer already has the maximum number of equipped creatures")
	ErrInBattle          = New(KindConflict, CodeInBattle, "creature is in an active battle")
	ErrAlreadyInBattle   = New(KindConflict, CodeAlreadyInBattle, "trainer is already in an active battle")
	ErrAlreadyKnown      = New(KindConflict, CodeAlreadyKnown, "creature already knows this move")
	ErrMoveSlotsFull     = New(KindConflict, CodeMoveSlotsFull, "creature cannot learn more moves")
	ErrNotActive         = New(KindConflict, CodeNotActive, "battle session is not active")
	ErrFainted           = New(KindConflict, CodeFainted, "creature has fainted")
	ErrStillEquipped     = New(KindConflict, CodeStillEquipped, "equipped creature cannot be released")
	ErrInsufficientCoins = New(KindConflict, CodeInsufficientCoins, "insufficient coins")

	ErrTypeMismatch      = New(KindValidation, CodeTypeMismatch, "move type does not match creature types")
	ErrNotKnown          = New(KindValidation, CodeNotKnown, "creature does not know this move")
	ErrLevelTooLow       = New(KindValidation, CodeLevelTooLow, "creature level is too low for this move")
	ErrInvalidTarget     = New(KindValidation, CodeInvalidTarget, "invalid target")
	ErrInvalidWinner     = New(KindValidation, CodeInvalidWinner, "winner is not a side of this battle")
	ErrNotParticipant    = New(KindValidation, CodeNotParticipant, "creature is not a participant of this battle")
	ErrMoveUnavailable   = New(KindValidation, CodeMoveUnavailable, "move is not available to this participant")
	ErrInvalidExperience = New(KindValidation, CodeInvalidExperience, "experience amount must be non-negative")
	ErrInvalidNickname   = New(KindValidation, CodeInvalidNickname, "nickname is too long")
	ErrSameTrainer       = New(KindValidation, CodeSameTrainer, "trainer cannot battle themselves")
	ErrEmptyRoster       = New(KindValidation, CodeEmptyRoster, "trainer has no equipped creatures")
	ErrNotForSale        = New(KindValidation, CodeNotForSale, "species is not for sale")

	ErrNotYourTurn = New(KindForbidden, CodeNotYourTurn, "it is not this trainer's turn")
	ErrNotOwner    = New(KindForbidden, CodeNotOwner, "participant does not belong to the acting trainer")
)
