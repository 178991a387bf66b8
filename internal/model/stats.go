package model

// StatKind indexes one of the six base stats.
type StatKind int

const (
	StatHP StatKind = iota
	StatAttack
	StatDefense
	StatSpecialAttack
	StatSpecialDefense
	StatSpeed
)

// StatCount is the number of stats in a Stats block.
const StatCount = 6

var statNames = [StatCount]string{"hp", "attack", "defense", "specialAttack", "specialDefense", "speed"}

func (k StatKind) String() string {
	if k < 0 || int(k) >= StatCount {
		return "unknown"
	}
	return statNames[k]
}

// Stats is a block of the six combat stats.
type Stats struct {
	HP             int64 `yaml:"hp"`
	Attack         int64 `yaml:"attack"`
	Defense        int64 `yaml:"defense"`
	SpecialAttack  int64 `yaml:"special_attack"`
	SpecialDefense int64 `yaml:"special_defense"`
	Speed          int64 `yaml:"speed"`
}

// Get returns the stat identified by k.
func (s Stats) Get(k StatKind) int64 {
	switch k {
	case StatHP:
		return s.HP
	case StatAttack:
		return s.Attack
	case StatDefense:
		return s.Defense
	case StatSpecialAttack:
		return s.SpecialAttack
	case StatSpecialDefense:
		return s.SpecialDefense
	case StatSpeed:
		return s.Speed
	}
	return 0
}

// With returns a copy of s with stat k set to v.
func (s Stats) With(k StatKind, v int64) Stats {
	switch k {
	case StatHP:
		s.HP = v
	case StatAttack:
		s.Attack = v
	case StatDefense:
		s.Defense = v
	case StatSpecialAttack:
		s.SpecialAttack = v
	case StatSpecialDefense:
		s.SpecialDefense = v
	case StatSpeed:
		s.Speed = v
	}
	return s
}

// Map applies fn to each stat and returns the result.
func (s Stats) Map(fn func(k StatKind, v int64) int64) Stats {
	var out Stats
	for k := StatKind(0); k < StatCount; k++ {
		out = out.With(k, fn(k, s.Get(k)))
	}
	return out
}
