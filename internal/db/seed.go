package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/monbattle/internal/data"
	"github.com/udisondev/monbattle/internal/model"
)

// CatalogWriter accepts catalog upserts. Implemented by CatalogRepository and MemoryStore.
type CatalogWriter interface {
	UpsertSpecies(ctx context.Context, s *model.Species) error
	UpsertMove(ctx context.Context, m *model.MoveTemplate) error
}

// SeedCatalog upserts every species and move of cat. Safe to run on every start.
func SeedCatalog(ctx context.Context, w CatalogWriter, cat *data.Catalog) error {
	for i := range cat.Moves {
		if err := w.UpsertMove(ctx, &cat.Moves[i]); err != nil {
			return fmt.Errorf("seeding move %q: %w", cat.Moves[i].Name, err)
		}
	}
	for i := range cat.Species {
		if err := w.UpsertSpecies(ctx, &cat.Species[i]); err != nil {
			return fmt.Errorf("seeding species %q: %w", cat.Species[i].Name, err)
		}
	}

	slog.Info("catalog seeded",
		"species", len(cat.Species),
		"moves", len(cat.Moves))
	return nil
}
