package data

import (
	"fmt"
	"math/big"

	"gopkg.in/yaml.v3"
)

// Multiplier is an exact non-negative rational damage multiplier.
// The zero value is 0 (immune).
type Multiplier struct {
	Num int64
	Den int64
}

var (
	// One is the neutral multiplier.
	One = Multiplier{Num: 1, Den: 1}
	// Zero means immune.
	Zero = Multiplier{Num: 0, Den: 1}
)

// ParseMultiplier accepts integers, decimals ("0.5") and fractions ("1/2").
func ParseMultiplier(s string) (Multiplier, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Multiplier{}, fmt.Errorf("invalid multiplier %q", s)
	}
	if r.Sign() < 0 {
		return Multiplier{}, fmt.Errorf("negative multiplier %q", s)
	}
	return fromRat(r)
}

func fromRat(r *big.Rat) (Multiplier, error) {
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return Multiplier{}, fmt.Errorf("multiplier %s out of range", r.RatString())
	}
	return Multiplier{Num: r.Num().Int64(), Den: r.Denom().Int64()}, nil
}

func (m Multiplier) rat() *big.Rat {
	den := m.Den
	if den == 0 {
		den = 1
	}
	return big.NewRat(m.Num, den)
}

// Mul returns m*o reduced to lowest terms. Saturates to the input on overflow.
func (m Multiplier) Mul(o Multiplier) Multiplier {
	out, err := fromRat(new(big.Rat).Mul(m.rat(), o.rat()))
	if err != nil {
		return m
	}
	return out
}

// Apply returns floor(v*m) for v >= 0.
func (m Multiplier) Apply(v int64) int64 {
	if m.Num == 0 || v <= 0 {
		return 0
	}
	r := m.rat()
	n := new(big.Int).Mul(big.NewInt(v), r.Num())
	n.Quo(n, r.Denom())
	if !n.IsInt64() {
		return 1<<63 - 1
	}
	return n.Int64()
}

// IsZero reports an immunity multiplier.
func (m Multiplier) IsZero() bool { return m.Num == 0 }

// Float64 is for display only; damage math uses Apply.
func (m Multiplier) Float64() float64 {
	f, _ := m.rat().Float64()
	return f
}

func (m Multiplier) String() string {
	return m.rat().RatString()
}

// UnmarshalYAML decodes any scalar (1, 0.5, "1/2") into a Multiplier.
func (m *Multiplier) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: multiplier must be a scalar", n.Line)
	}
	v, err := ParseMultiplier(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*m = v
	return nil
}
