package model

import (
	"errors"
	"fmt"
)

// MoveCategory selects which stat pair a move uses for damage.
type MoveCategory string

const (
	CategoryPhysical MoveCategory = "physical" // attack vs defense
	CategorySpecial  MoveCategory = "special"  // specialAttack vs specialDefense
)

// MoveTemplate is an immutable catalog entry for a move.
type MoveTemplate struct {
	ID       int64
	Name     string
	Type     ElementType
	Category MoveCategory
	Power    int64
	Accuracy int64 // 0-100
	MaxUses  int32
	Priority int32
	Target   string
	Effect   string
	MinLevel int32
}

// Validate checks catalog invariants.
func (m *MoveTemplate) Validate() error {
	if m.Name == "" {
		return errors.New("move name is empty")
	}
	if !m.Type.Valid() {
		return fmt.Errorf("move %q: unknown type %q", m.Name, m.Type)
	}
	if m.Category != CategoryPhysical && m.Category != CategorySpecial {
		return fmt.Errorf("move %q: unknown category %q", m.Name, m.Category)
	}
	if m.Power < 0 {
		return fmt.Errorf("move %q: negative power", m.Name)
	}
	if m.Accuracy < 0 || m.Accuracy > 100 {
		return fmt.Errorf("move %q: accuracy %d out of range [0,100]", m.Name, m.Accuracy)
	}
	if m.MinLevel < 0 {
		return fmt.Errorf("move %q: negative min level", m.Name)
	}
	return nil
}
