package testutil

import (
	"context"
	"testing"

	"github.com/udisondev/monbattle/internal/data"
	"github.com/udisondev/monbattle/internal/db"
	"github.com/udisondev/monbattle/internal/model"
)

// Fixtures содержит заранее подготовленные тестовые данные.
var Fixtures = struct {
	Username      string
	StartingCoins int64

	// ID из встроенного catalog.yaml
	Charmander int64
	Squirtle   int64
	Gastly     int64
	Tackle     int64
	Ember      int64
	WaterGun   int64
}{
	Username:      "ash",
	StartingCoins: 500,

	Charmander: 2,
	Squirtle:   3,
	Gastly:     6,
	Tackle:     1,
	Ember:      3,
	WaterGun:   5,
}

// Catalog возвращает встроенный справочник.
func Catalog(tb testing.TB) *data.Catalog {
	tb.Helper()
	cat, err := data.LoadCatalog("")
	if err != nil {
		tb.Fatalf("loading embedded catalog: %v", err)
	}
	return cat
}

// SeedCatalog заливает встроенный справочник в w.
func SeedCatalog(tb testing.TB, w db.CatalogWriter) *data.Catalog {
	tb.Helper()
	cat := Catalog(tb)
	if err := db.SeedCatalog(context.Background(), w, cat); err != nil {
		tb.Fatalf("seeding catalog: %v", err)
	}
	return cat
}

// NewSeededStore возвращает MemoryStore со справочником и одним тренером.
func NewSeededStore(tb testing.TB) (*db.MemoryStore, *model.Trainer) {
	tb.Helper()
	store := db.NewMemoryStore()
	SeedCatalog(tb, store)

	t, err := store.CreateTrainer(context.Background(), Fixtures.Username, Fixtures.StartingCoins)
	if err != nil {
		tb.Fatalf("creating trainer: %v", err)
	}
	return store, t
}
