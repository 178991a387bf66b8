package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/monbattle/internal/model"
	"github.com/udisondev/monbattle/internal/testutil"
)

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store, ash := testutil.NewSeededStore(t)
	ctx := context.Background()

	c := &model.Creature{TrainerID: ash.ID, SpeciesID: testutil.Fixtures.Squirtle, Level: 1, Moves: []int64{testutil.Fixtures.WaterGun}}
	require.NoError(t, store.CreateCreature(ctx, c))

	got, err := store.LoadCreature(ctx, c.ID)
	require.NoError(t, err)
	got.Moves[0] = 999
	got.Equipped = true

	again, err := store.LoadCreature(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{testutil.Fixtures.WaterGun}, again.Moves)
	assert.False(t, again.Equipped)

	sp, err := store.LoadSpecies(ctx, testutil.Fixtures.Gastly)
	require.NoError(t, err)
	sp.Types[0] = model.TypeFairy
	sp2, err := store.LoadSpecies(ctx, testutil.Fixtures.Gastly)
	require.NoError(t, err)
	assert.Equal(t, model.TypeGhost, sp2.PrimaryType())
}

func TestMemoryStoreCreatureRules(t *testing.T) {
	store, ash := testutil.NewSeededStore(t)
	ctx := context.Background()

	err := store.CreateCreature(ctx, &model.Creature{TrainerID: 999, SpeciesID: testutil.Fixtures.Squirtle})
	assert.Error(t, err)
	err = store.CreateCreature(ctx, &model.Creature{TrainerID: ash.ID, SpeciesID: 999})
	assert.Error(t, err)
	err = store.UpdateCreature(ctx, &model.Creature{ID: 999})
	assert.Error(t, err)

	for i := range 3 {
		c := &model.Creature{TrainerID: ash.ID, SpeciesID: testutil.Fixtures.Charmander, Equipped: i < 2}
		require.NoError(t, store.CreateCreature(ctx, c))
	}
	n, err := store.CountEquipped(ctx, ash.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := store.LoadCreaturesByTrainer(ctx, ash.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Less(t, all[0].ID, all[1].ID)

	_, err = store.CreateTrainer(ctx, testutil.Fixtures.Username, 0)
	assert.Error(t, err, "usernames are unique")
}

func TestMemoryStoreCoinsAndResults(t *testing.T) {
	store, ash := testutil.NewSeededStore(t)
	ctx := context.Background()

	ok, err := store.SpendCoins(ctx, ash.ID, testutil.Fixtures.StartingCoins+1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.SpendCoins(ctx, ash.ID, 100)
	require.NoError(t, err)
	assert.True(t, ok)

	gary, err := store.CreateTrainer(ctx, "gary", 0)
	require.NoError(t, err)

	now := time.Now()
	older := &model.MatchResult{SessionID: uuid.New(), Trainer1: ash.ID, Trainer2: gary.ID, Winner: ash.ID, EndedAt: now.Add(-time.Hour)}
	newer := &model.MatchResult{SessionID: uuid.New(), Trainer1: gary.ID, Trainer2: ash.ID, Winner: gary.ID, EndedAt: now}
	require.NoError(t, store.InsertMatchResult(ctx, older))
	require.NoError(t, store.InsertMatchResult(ctx, newer))
	require.NoError(t, store.InsertMatchResult(ctx, newer))
	assert.Equal(t, 2, store.MatchResultCount())

	list, err := store.LoadMatchResultsByTrainer(ctx, ash.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.SessionID, list[0].SessionID)
}
