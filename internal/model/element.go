package model

import (
	"fmt"
	"strings"
)

// ElementType is an elemental type of a species or a move.
type ElementType string

const (
	TypeNormal   ElementType = "normal"
	TypeFire     ElementType = "fire"
	TypeWater    ElementType = "water"
	TypeElectric ElementType = "electric"
	TypeGrass    ElementType = "grass"
	TypeIce      ElementType = "ice"
	TypeFighting ElementType = "fighting"
	TypePoison   ElementType = "poison"
	TypeGround   ElementType = "ground"
	TypeFlying   ElementType = "flying"
	TypePsychic  ElementType = "psychic"
	TypeBug      ElementType = "bug"
	TypeRock     ElementType = "rock"
	TypeGhost    ElementType = "ghost"
	TypeDragon   ElementType = "dragon"
	TypeDark     ElementType = "dark"
	TypeSteel    ElementType = "steel"
	TypeFairy    ElementType = "fairy"
)

var allElementTypes = []ElementType{
	TypeNormal, TypeFire, TypeWater, TypeElectric, TypeGrass, TypeIce,
	TypeFighting, TypePoison, TypeGround, TypeFlying, TypePsychic, TypeBug,
	TypeRock, TypeGhost, TypeDragon, TypeDark, TypeSteel, TypeFairy,
}

// AllElementTypes returns the fixed type enumeration in canonical order.
func AllElementTypes() []ElementType {
	out := make([]ElementType, len(allElementTypes))
	copy(out, allElementTypes)
	return out
}

// Valid reports whether t belongs to the enumeration.
func (t ElementType) Valid() bool {
	for _, et := range allElementTypes {
		if et == t {
			return true
		}
	}
	return false
}

// ParseElementType parses a case-insensitive type name.
func ParseElementType(s string) (ElementType, error) {
	t := ElementType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown element type %q", s)
	}
	return t, nil
}
