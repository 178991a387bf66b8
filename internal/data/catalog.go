package data

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/monbattle/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the seed data for the species and move catalogs.
type Catalog struct {
	Species []model.Species
	Moves   []model.MoveTemplate
}

type speciesDef struct {
	ID        int64       `yaml:"id"`
	Name      string      `yaml:"name"`
	Types     []string    `yaml:"types"`
	BaseStats model.Stats `yaml:"base_stats"`
	Cost      int64       `yaml:"cost"`
	ForSale   bool        `yaml:"for_sale"`
}

type moveDef struct {
	ID       int64  `yaml:"id"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Category string `yaml:"category"`
	Power    int64  `yaml:"power"`
	Accuracy int64  `yaml:"accuracy"`
	MaxUses  int32  `yaml:"max_uses"`
	Priority int32  `yaml:"priority"`
	Target   string `yaml:"target"`
	Effect   string `yaml:"effect"`
	MinLevel int32  `yaml:"min_level"`
}

type catalogFile struct {
	Species []speciesDef `yaml:"species"`
	Moves   []moveDef    `yaml:"moves"`
}

// LoadCatalog loads catalog seed data from path, or the embedded catalog when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	raw := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog %s: %w", path, err)
		}
		raw = b
	}

	c, err := ParseCatalog(raw)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded catalog", "species", len(c.Species), "moves", len(c.Moves), "source", sourceName(path))
	return c, nil
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{
		Species: make([]model.Species, 0, len(f.Species)),
		Moves:   make([]model.MoveTemplate, 0, len(f.Moves)),
	}

	ids := make(map[int64]bool)
	names := make(map[string]bool)
	for _, d := range f.Species {
		if d.ID <= 0 || ids[d.ID] || names[d.Name] {
			return nil, fmt.Errorf("catalog species %q: missing or duplicate id/name", d.Name)
		}
		ids[d.ID], names[d.Name] = true, true

		types := make([]model.ElementType, 0, len(d.Types))
		for _, s := range d.Types {
			t, err := model.ParseElementType(s)
			if err != nil {
				return nil, fmt.Errorf("catalog species %q: %w", d.Name, err)
			}
			types = append(types, t)
		}
		sp := model.Species{
			ID:        d.ID,
			Name:      d.Name,
			Types:     types,
			BaseStats: d.BaseStats,
			Cost:      d.Cost,
			ForSale:   d.ForSale,
		}
		if err := sp.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		c.Species = append(c.Species, sp)
	}

	clear(ids)
	clear(names)
	for _, d := range f.Moves {
		if d.ID <= 0 || ids[d.ID] || names[d.Name] {
			return nil, fmt.Errorf("catalog move %q: missing or duplicate id/name", d.Name)
		}
		ids[d.ID], names[d.Name] = true, true

		mt := model.MoveTemplate{
			ID:       d.ID,
			Name:     d.Name,
			Type:     model.ElementType(d.Type),
			Category: model.MoveCategory(d.Category),
			Power:    d.Power,
			Accuracy: d.Accuracy,
			MaxUses:  d.MaxUses,
			Priority: d.Priority,
			Target:   d.Target,
			Effect:   d.Effect,
			MinLevel: d.MinLevel,
		}
		if err := mt.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		c.Moves = append(c.Moves, mt)
	}

	return c, nil
}

// MovesOfType returns catalog moves with the given type.
func (c *Catalog) MovesOfType(t model.ElementType) []model.MoveTemplate {
	var out []model.MoveTemplate
	for _, m := range c.Moves {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}
