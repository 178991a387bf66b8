package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/monbattle/internal/data"
	"github.com/udisondev/monbattle/internal/model"
)

func TestBaseDamage(t *testing.T) {
	tests := []struct {
		name  string
		level int32
		power int64
		atk   int64
		def   int64
		want  int64
	}{
		// (12·400·50)/(250·50) = 19.2
		{"level 1 heavy hit", 1, 400, 50, 50, 21},
		// level factor 22: 22·90·100/80/50 = 49.5
		{"level 50", 50, 90, 100, 80, 51},
		// 2·3/5+2 = 3.2, 3.2·40·10/10/50 = 2.56
		{"fractional level factor", 3, 40, 10, 10, 4},
		{"zero power", 10, 0, 100, 100, 2},
		{"zero defense counts as one", 1, 10, 10, 0, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseDamage(tt.level, tt.power, tt.atk, tt.def))
		})
	}
}

func TestDamageCategoryAndEffectiveness(t *testing.T) {
	attacker := model.Stats{Attack: 50, SpecialAttack: 100}
	defender := model.Stats{Defense: 50, SpecialDefense: 25}
	half, _ := data.ParseMultiplier("1/2")
	double, _ := data.ParseMultiplier("2")

	physical := model.MoveTemplate{Category: model.CategoryPhysical, Power: 400}
	special := model.MoveTemplate{Category: model.CategorySpecial, Power: 50}

	assert.Equal(t, int64(21), Damage(1, physical, attacker, defender, data.One))
	assert.Equal(t, int64(10), Damage(1, physical, attacker, defender, half))
	assert.Equal(t, int64(42), Damage(1, physical, attacker, defender, double))
	assert.Equal(t, int64(0), Damage(1, physical, attacker, defender, data.Zero))
	assert.Equal(t, int64(0), Damage(1, physical, attacker, defender, data.Multiplier{}))

	// 12·50·100/(250·25) = 9.6
	assert.Equal(t, int64(11), Damage(1, special, attacker, defender, data.One))
}

func TestAttackStats(t *testing.T) {
	a := model.Stats{Attack: 1, SpecialAttack: 2}
	d := model.Stats{Defense: 3, SpecialDefense: 4}

	atk, def := AttackStats(model.CategoryPhysical, a, d)
	assert.Equal(t, [2]int64{1, 3}, [2]int64{atk, def})

	atk, def = AttackStats(model.CategorySpecial, a, d)
	assert.Equal(t, [2]int64{2, 4}, [2]int64{atk, def})
}
