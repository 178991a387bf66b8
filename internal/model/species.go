package model

import (
	"errors"
	"fmt"
	"slices"
)

// Species is an immutable catalog entry a creature is created from.
type Species struct {
	ID        int64
	Name      string
	Types     []ElementType // first entry is the primary type
	BaseStats Stats
	Cost      int64
	ForSale   bool
}

// PrimaryType returns the first listed type.
func (s *Species) PrimaryType() ElementType {
	if len(s.Types) == 0 {
		return ""
	}
	return s.Types[0]
}

// HasType reports whether t is one of the species types.
func (s *Species) HasType(t ElementType) bool {
	return slices.Contains(s.Types, t)
}

// Validate checks catalog invariants.
func (s *Species) Validate() error {
	if s.Name == "" {
		return errors.New("species name is empty")
	}
	if len(s.Types) == 0 {
		return fmt.Errorf("species %q has no types", s.Name)
	}
	for _, t := range s.Types {
		if !t.Valid() {
			return fmt.Errorf("species %q: unknown type %q", s.Name, t)
		}
	}
	for k := StatKind(0); k < StatCount; k++ {
		if s.BaseStats.Get(k) <= 0 {
			return fmt.Errorf("species %q: base %s must be positive", s.Name, k)
		}
	}
	if s.Cost < 0 {
		return fmt.Errorf("species %q: negative cost", s.Name)
	}
	return nil
}
