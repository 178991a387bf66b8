package data

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/monbattle/internal/model"
)

//go:embed typechart.yaml
var defaultTypeChart []byte

// DefenderPolicy selects which defender types take part in effectiveness.
type DefenderPolicy string

const (
	// PolicyPrimary uses only the defender's first listed type.
	PolicyPrimary DefenderPolicy = "primary"
	// PolicyAll multiplies the multipliers of every defender type.
	PolicyAll DefenderPolicy = "all"
)

// ParseDefenderPolicy parses a policy name; empty means PolicyPrimary.
func ParseDefenderPolicy(s string) (DefenderPolicy, error) {
	switch DefenderPolicy(s) {
	case "", PolicyPrimary:
		return PolicyPrimary, nil
	case PolicyAll:
		return PolicyAll, nil
	}
	return "", fmt.Errorf("unknown defender type policy %q", s)
}

// TypeChart maps (attack type, defender type) to a multiplier.
// Every pair of the type enumeration has an entry; loading fails otherwise.
type TypeChart struct {
	entries map[model.ElementType]map[model.ElementType]Multiplier
}

type typeChartFile struct {
	Types []string                `yaml:"types"`
	Chart map[string][]Multiplier `yaml:"chart"`
}

// LoadTypeChart loads the chart from path, or the embedded chart when path is empty.
func LoadTypeChart(path string) (*TypeChart, error) {
	raw := defaultTypeChart
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading type chart %s: %w", path, err)
		}
		raw = b
	}

	chart, err := ParseTypeChart(raw)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded type chart", "types", len(chart.entries), "source", sourceName(path))
	return chart, nil
}

// ParseTypeChart decodes and validates a YAML type chart.
func ParseTypeChart(raw []byte) (*TypeChart, error) {
	var f typeChartFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing type chart: %w", err)
	}

	order := make([]model.ElementType, 0, len(f.Types))
	seen := make(map[model.ElementType]bool, len(f.Types))
	for _, s := range f.Types {
		t, err := model.ParseElementType(s)
		if err != nil {
			return nil, fmt.Errorf("type chart header: %w", err)
		}
		if seen[t] {
			return nil, fmt.Errorf("type chart header: duplicate type %q", t)
		}
		seen[t] = true
		order = append(order, t)
	}
	for _, t := range model.AllElementTypes() {
		if !seen[t] {
			return nil, fmt.Errorf("type chart header: missing type %q", t)
		}
	}

	entries := make(map[model.ElementType]map[model.ElementType]Multiplier, len(order))
	for name, row := range f.Chart {
		atk, err := model.ParseElementType(name)
		if err != nil {
			return nil, fmt.Errorf("type chart row: %w", err)
		}
		if len(row) != len(order) {
			return nil, fmt.Errorf("type chart row %q: %d entries, want %d", atk, len(row), len(order))
		}
		m := make(map[model.ElementType]Multiplier, len(order))
		for i, def := range order {
			m[def] = row[i]
		}
		entries[atk] = m
	}
	for _, t := range order {
		if _, ok := entries[t]; !ok {
			return nil, fmt.Errorf("type chart: missing row for attack type %q", t)
		}
	}

	return &TypeChart{entries: entries}, nil
}

// Lookup returns the multiplier for one attack/defender pair.
func (c *TypeChart) Lookup(attack, defender model.ElementType) (Multiplier, bool) {
	row, ok := c.entries[attack]
	if !ok {
		return Multiplier{}, false
	}
	m, ok := row[defender]
	return m, ok
}

// Effectiveness returns the multiplier for one pair. Types outside the
// enumeration never reach here: catalogs are validated on load.
func (c *TypeChart) Effectiveness(attack, defender model.ElementType) Multiplier {
	m, ok := c.Lookup(attack, defender)
	if !ok {
		return One
	}
	return m
}

// Against returns the multiplier of attack against a defender with the given types.
func (c *TypeChart) Against(attack model.ElementType, defender []model.ElementType, policy DefenderPolicy) Multiplier {
	if len(defender) == 0 {
		return One
	}
	if policy != PolicyAll {
		return c.Effectiveness(attack, defender[0])
	}
	out := One
	for _, t := range defender {
		out = out.Mul(c.Effectiveness(attack, t))
	}
	return out
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
