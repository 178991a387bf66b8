package battle

import (
	"math"
	"math/big"

	"github.com/udisondev/monbattle/internal/data"
	"github.com/udisondev/monbattle/internal/model"
)

// AttackStats picks the attack/defense pair for a move category:
// physical uses attack vs defense, special uses specialAttack vs specialDefense.
func AttackStats(category model.MoveCategory, attacker, defender model.Stats) (atk, def int64) {
	if category == model.CategorySpecial {
		return attacker.SpecialAttack, defender.SpecialDefense
	}
	return attacker.Attack, defender.Defense
}

// BaseDamage computes floor((2·level/5 + 2) · power · atk / def / 50) + 2
// without rounding the level factor. Defense below 1 counts as 1.
func BaseDamage(level int32, power, atk, def int64) int64 {
	if def < 1 {
		def = 1
	}
	if power <= 0 || atk <= 0 {
		return 2
	}
	// (2L/5 + 2) = (2L + 10) / 5, so the whole expression is
	// (2L + 10) · power · atk / (250 · def).
	num := big.NewInt(2*int64(level) + 10)
	num.Mul(num, big.NewInt(power))
	num.Mul(num, big.NewInt(atk))
	den := big.NewInt(250)
	den.Mul(den, big.NewInt(def))

	q := new(big.Int).Quo(num, den)
	if !q.IsInt64() || q.Int64() > math.MaxInt64-2 {
		return math.MaxInt64
	}
	return q.Int64() + 2
}

// Damage applies type effectiveness to the base damage and floors the result.
// An effectiveness of exactly zero always yields zero.
func Damage(level int32, move model.MoveTemplate, attacker, defender model.Stats, eff data.Multiplier) int64 {
	if eff.IsZero() {
		return 0
	}
	atk, def := AttackStats(move.Category, attacker, defender)
	return eff.Apply(BaseDamage(level, move.Power, atk, def))
}
