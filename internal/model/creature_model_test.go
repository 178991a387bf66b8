package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreature_Moves(t *testing.T) {
	c := &Creature{ID: 1}

	c.AddMove(10)
	c.AddMove(20)
	c.AddMove(30)
	assert.True(t, c.Knows(20))
	assert.False(t, c.Knows(40))

	assert.True(t, c.RemoveMove(20))
	assert.Equal(t, []int64{10, 30}, c.Moves, "order must be kept")
	assert.False(t, c.RemoveMove(20))
}

func TestCreature_Clone(t *testing.T) {
	c := &Creature{ID: 1, Moves: []int64{1, 2}}
	cp := c.Clone()
	cp.Moves[0] = 99
	cp.Nickname = "Sparky"

	assert.Equal(t, int64(1), c.Moves[0])
	assert.Empty(t, c.Nickname)
	assert.Equal(t, "Sparky", cp.DisplayName("pikachu"))
	assert.Equal(t, "pikachu", c.DisplayName("pikachu"))
}

func TestStats_GetWithMap(t *testing.T) {
	s := Stats{HP: 1, Attack: 2, Defense: 3, SpecialAttack: 4, SpecialDefense: 5, Speed: 6}
	for k := StatKind(0); k < StatCount; k++ {
		assert.Equal(t, int64(k)+1, s.Get(k), k.String())
	}

	doubled := s.Map(func(_ StatKind, v int64) int64 { return v * 2 })
	assert.Equal(t, Stats{HP: 2, Attack: 4, Defense: 6, SpecialAttack: 8, SpecialDefense: 10, Speed: 12}, doubled)
	assert.Equal(t, int64(100), s.With(StatSpeed, 100).Speed)
	assert.Equal(t, "unknown", StatKind(9).String())
}

func TestParseElementType(t *testing.T) {
	et, err := ParseElementType(" Fire ")
	require.NoError(t, err)
	assert.Equal(t, TypeFire, et)

	_, err = ParseElementType("sound")
	assert.Error(t, err)
	assert.Len(t, AllElementTypes(), 18)
}

func TestSpecies_Validate(t *testing.T) {
	ok := Species{
		Name:      "bulbasaur",
		Types:     []ElementType{TypeGrass, TypePoison},
		BaseStats: Stats{HP: 45, Attack: 49, Defense: 49, SpecialAttack: 65, SpecialDefense: 65, Speed: 45},
	}
	require.NoError(t, ok.Validate())
	assert.Equal(t, TypeGrass, ok.PrimaryType())
	assert.True(t, ok.HasType(TypePoison))

	noTypes := ok
	noTypes.Types = nil
	assert.Error(t, noTypes.Validate())

	zeroStat := ok
	zeroStat.BaseStats.Speed = 0
	assert.Error(t, zeroStat.Validate())
}

func TestMoveTemplate_Validate(t *testing.T) {
	m := MoveTemplate{Name: "tackle", Type: TypeNormal, Category: CategoryPhysical, Power: 40, Accuracy: 100}
	require.NoError(t, m.Validate())

	bad := m
	bad.Accuracy = 101
	assert.Error(t, bad.Validate())

	bad = m
	bad.Category = "status"
	assert.Error(t, bad.Validate())
}

func TestMatchResult_Loser(t *testing.T) {
	r := MatchResult{Trainer1: 1, Trainer2: 2, Winner: 2}
	assert.Equal(t, int64(1), r.Loser())
}
