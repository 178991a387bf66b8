package battle

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/monbattle/internal/apperr"
	"github.com/udisondev/monbattle/internal/data"
	"github.com/udisondev/monbattle/internal/db"
	"github.com/udisondev/monbattle/internal/game/roster"
	"github.com/udisondev/monbattle/internal/game/trainerlock"
	"github.com/udisondev/monbattle/internal/model"
	"github.com/udisondev/monbattle/internal/random"
)

const (
	speciesBlob  = 1 // normal
	speciesShade = 2 // ghost
	speciesEel   = 3 // water, ground

	moveSlam  = 1 // normal physical, power 400, accuracy 100
	moveSwipe = 2 // normal physical, accuracy 50
	moveZap   = 3 // electric special
)

type recorder struct {
	mu      sync.Mutex
	results []*model.MatchResult
}

func (r *recorder) Record(res *model.MatchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) all() []*model.MatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.MatchResult(nil), r.results...)
}

type fixture struct {
	store *db.MemoryStore
	locks *trainerlock.Locker
	rec   *recorder
	mgr   *Manager

	a, b, c int64
}

func newFixture(t *testing.T, rng random.Source, policy data.DefenderPolicy) *fixture {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemoryStore()

	for _, sp := range []*model.Species{
		{ID: speciesBlob, Name: "blob", Types: []model.ElementType{model.TypeNormal}, BaseStats: statsWithHP(50)},
		{ID: speciesShade, Name: "shade", Types: []model.ElementType{model.TypeGhost}, BaseStats: statsWithHP(50)},
		{ID: speciesEel, Name: "eel", Types: []model.ElementType{model.TypeWater, model.TypeGround}, BaseStats: statsWithHP(50)},
	} {
		require.NoError(t, store.UpsertSpecies(ctx, sp))
	}
	for _, mv := range []*model.MoveTemplate{
		{ID: moveSlam, Name: "slam", Type: model.TypeNormal, Category: model.CategoryPhysical, Power: 400, Accuracy: 100},
		{ID: moveSwipe, Name: "swipe", Type: model.TypeNormal, Category: model.CategoryPhysical, Power: 40, Accuracy: 50},
		{ID: moveZap, Name: "zap", Type: model.TypeElectric, Category: model.CategorySpecial, Power: 40, Accuracy: 100},
	} {
		require.NoError(t, store.UpsertMove(ctx, mv))
	}

	chart, err := data.LoadTypeChart("")
	require.NoError(t, err)

	f := &fixture{store: store, locks: trainerlock.New(), rec: &recorder{}}
	for i, name := range []string{"red", "blue", "green"} {
		tr, err := store.CreateTrainer(ctx, name, 0)
		require.NoError(t, err)
		switch i {
		case 0:
			f.a = tr.ID
		case 1:
			f.b = tr.ID
		case 2:
			f.c = tr.ID
		}
	}

	f.mgr = NewManager(Config{
		Trainers:  store,
		Creatures: store,
		Catalog:   store,
		Chart:     chart,
		Policy:    policy,
		Rand:      rng,
		Locks:     f.locks,
		Recorder:  f.rec,
	})
	return f
}

func statsWithHP(hp int64) model.Stats {
	return model.Stats{HP: hp, Attack: 50, Defense: 50, SpecialAttack: 50, SpecialDefense: 50, Speed: 50}
}

// addCreature stores an equipped level-1 creature whose scaled stats equal its rolled stats.
func (f *fixture) addCreature(t *testing.T, trainerID, speciesID, hp int64, moves ...int64) int64 {
	t.Helper()
	c := &model.Creature{
		TrainerID:       trainerID,
		SpeciesID:       speciesID,
		Level:           1,
		LevelMultiplier: 1,
		Stats:           statsWithHP(hp),
		Equipped:        true,
		Moves:           moves,
	}
	require.NoError(t, f.store.CreateCreature(context.Background(), c))
	return c.ID
}

func TestBattleKnockoutEndToEnd(t *testing.T) {
	f := newFixture(t, random.Fixed{F: 0.99}, data.PolicyPrimary)
	ctx := context.Background()

	a1 := f.addCreature(t, f.a, speciesBlob, 20, moveSlam)
	b1 := f.addCreature(t, f.b, speciesBlob, 18, moveSlam)

	snap, err := f.mgr.Start(ctx, f.a, f.b)
	require.NoError(t, err)
	assert.Equal(t, StateActive, snap.State)
	assert.Equal(t, f.a, snap.Turn)
	assert.Equal(t, int64(20), snap.Participant(a1).HP)
	assert.Equal(t, int64(18), snap.Participant(b1).HP)
	assert.True(t, f.mgr.IsTrainerInBattle(f.a))
	assert.True(t, f.mgr.IsCreatureInBattle(b1))

	out, err := f.mgr.SubmitMove(ctx, MoveCommand{
		SessionID:     snap.ID,
		TrainerID:     f.a,
		ParticipantID: a1,
		MoveID:        moveSlam,
		TargetID:      b1,
	})
	require.NoError(t, err)

	assert.True(t, out.Hit)
	assert.Equal(t, int64(21), out.Damage)
	assert.Equal(t, data.One, out.Multiplier)
	assert.Equal(t, int64(0), out.TargetHP)
	require.NotNil(t, out.Result)
	assert.Equal(t, f.a, out.Result.Winner)
	assert.Equal(t, f.b, out.Result.Loser())
	assert.Equal(t, model.EndKnockout, out.Result.Reason)
	assert.Equal(t, int32(1), out.Result.Turns)
	assert.Equal(t, snap.ID, out.Result.SessionID)
	assert.Equal(t, StateCompleted, out.Snapshot.State)

	assert.Equal(t, 0, f.mgr.Count())
	assert.False(t, f.mgr.IsTrainerInBattle(f.a))
	assert.False(t, f.mgr.IsCreatureInBattle(b1))
	require.Len(t, f.rec.all(), 1)

	_, err = f.mgr.SubmitMove(ctx, MoveCommand{
		SessionID:     snap.ID,
		TrainerID:     f.b,
		ParticipantID: b1,
		MoveID:        moveSlam,
		TargetID:      a1,
	})
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
	assert.Len(t, f.rec.all(), 1)
}

func TestMissFlipsTurnOnly(t *testing.T) {
	// 0.99·100 = 99 ≥ accuracy 50.
	f := newFixture(t, random.Fixed{F: 0.99}, data.PolicyPrimary)
	ctx := context.Background()

	a1 := f.addCreature(t, f.a, speciesBlob, 20, moveSwipe)
	b1 := f.addCreature(t, f.b, speciesBlob, 18, moveSwipe)

	snap, err := f.mgr.Start(ctx, f.a, f.b)
	require.NoError(t, err)

	out, err := f.mgr.SubmitMove(ctx, MoveCommand{snap.ID, f.a, a1, moveSwipe, b1})
	require.NoError(t, err)

	assert.False(t, out.Hit)
	assert.Zero(t, out.Damage)
	assert.Nil(t, out.Result)
	assert.Equal(t, f.b, out.Snapshot.Turn)
	assert.Equal(t, int64(20), out.Snapshot.Participant(a1).HP)
	assert.Equal(t, int64(18), out.Snapshot.Participant(b1).HP)

	// The turn really passed: A may not move again, B may.
	_, err = f.mgr.SubmitMove(ctx, MoveCommand{snap.ID, f.a, a1, moveSwipe, b1})
	assert.ErrorIs(t, err, apperr.ErrNotYourTurn)
	_, err = f.mgr.SubmitMove(ctx, MoveCommand{snap.ID, f.b, b1, moveSwipe, a1})
	assert.NoError(t, err)
}

func TestSubmitMoveValidation(t *testing.T) {
	f := newFixture(t, random.Fixed{F: 0}, data.PolicyPrimary)
	ctx := context.Background()

	a1 := f.addCreature(t, f.a, speciesBlob, 20, moveSlam)
	b1 := f.addCreature(t, f.b, speciesBlob, 18, moveSlam)
	b2 := f.addCreature(t, f.b, speciesBlob, 1000, moveSlam)

	snap, err := f.mgr.Start(ctx, f.a, f.b)
	require.NoError(t, err)
	sid := snap.ID

	tests := []struct {
		name string
		cmd  MoveCommand
		want *apperr.Error
	}{
		{"unknown session", MoveCommand{uuid.New(), f.a, a1, moveSlam, b1}, apperr.ErrSessionNotFound},
		{"not a participant", MoveCommand{sid, f.a, 999, moveSlam, b1}, apperr.ErrNotParticipant},
		{"not your turn", MoveCommand{sid, f.b, b1, moveSlam, a1}, apperr.ErrNotYourTurn},
		{"opponent's creature", MoveCommand{sid, f.a, b1, moveSlam, a1}, apperr.ErrNotOwner},
		{"unknown target", MoveCommand{sid, f.a, a1, moveSlam, 999}, apperr.ErrInvalidTarget},
		{"friendly fire", MoveCommand{sid, f.a, a1, moveSlam, a1}, apperr.ErrInvalidTarget},
		{"move not in battle set", MoveCommand{sid, f.a, a1, moveZap, b1}, apperr.ErrMoveUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.mgr.SubmitMove(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	after, err := f.mgr.Snapshot(sid)
	require.NoError(t, err)
	assert.Equal(t, f.a, after.Turn)
	assert.Equal(t, int32(0), after.Turns)
	assert.Equal(t, int64(20), after.Participant(a1).HP)
	assert.Equal(t, int64(18), after.Participant(b1).HP)
	assert.Equal(t, int64(1000), after.Participant(b2).HP)

	// b1 faints, B still has b2 standing.
	out, err := f.mgr.SubmitMove(ctx, MoveCommand{sid, f.a, a1, moveSlam, b1})
	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.Equal(t, int64(0), out.TargetHP)

	_, err = f.mgr.SubmitMove(ctx, MoveCommand{sid, f.b, b1, moveSlam, a1})
	assert.ErrorIs(t, err, apperr.ErrFainted)

	out, err = f.mgr.SubmitMove(ctx, MoveCommand{sid, f.b, b2, moveSlam, a1})
	require.NoError(t, err)
	require.NotNil(t, out.Result)
	assert.Equal(t, f.b, out.Result.Winner)
	assert.Equal(t, int32(2), out.Result.Turns)
}

func TestFaintedTargetRejected(t *testing.T) {
	f := newFixture(t, random.Fixed{F: 0}, data.PolicyPrimary)
	ctx := context.Background()

	a1 := f.addCreature(t, f.a, speciesBlob, 1000, moveSlam)
	b1 := f.addCreature(t, f.b, speciesBlob, 18, moveSwipe)
	b2 := f.addCreature(t, f.b, speciesBlob, 1000, moveSwipe)

	snap, err := f.mgr.Start(ctx, f.a, f.b)
	require.NoError(t, err)

	_, err = f.mgr.SubmitMove(ctx, MoveCommand{snap.ID, f.a, a1, moveSlam, b1})
	require.NoError(t, err)
	_, err = f.mgr.SubmitMove(ctx, MoveCommand{snap.ID, f.b, b2, moveSwipe, a1})
	require.NoError(t, err)

	_, err = f.mgr.SubmitMove(ctx, MoveCommand{snap.ID, f.a, a1, moveSlam, b1})
	assert.ErrorIs(t, err, apperr.ErrInvalidTarget)
}

func TestConcurrentSubmitSerialised(t *testing.T) {
	f := newFixture(t, random.New(1), data.PolicyPrimary)
	ctx := context.Background()

	a1 := f.addCreature(t, f.a, speciesBlob, 20, moveSlam)
	b1 := f.addCreature(t, f.b, speciesBlob, 1000, moveSlam)

	snap, err := f.mgr.Start(ctx, f.a, f.b)
	require.NoError(t, err)

	const workers = 8
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		mu      sync.Mutex
		ok      int
		notTurn int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.mgr.SubmitMove(ctx, MoveCommand{snap.ID, f.a, a1, moveSlam, b1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperr.CodeOf(err) == apperr.CodeNotYourTurn:
				notTurn++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, notTurn)

	after, err := f.mgr.Snapshot(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000-21), after.Participant(b1).HP)
	assert.Equal(t, int32(1), after.Turns)
	assert.Equal(t, f.b, after.Turn)
}

func TestStartValidation(t *testing.T) {
	f := newFixture(t, random.Fixed{}, data.PolicyPrimary)
	ctx := context.Background()

	f.addCreature(t, f.a, speciesBlob, 20, moveSlam)
	f.addCreature(t, f.b, speciesBlob, 20, moveSlam)

	_, err := f.mgr.Start(ctx, f.a, f.a)
	assert.ErrorIs(t, err, apperr.ErrSameTrainer)

	_, err = f.mgr.Start(ctx, f.a, 999)
	assert.ErrorIs(t, err, apperr.ErrTrainerNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.mgr.Start(ctx, f.a, f.c)
	assert.ErrorIs(t, err, apperr.ErrEmptyRoster)
	assert.False(t, f.mgr.IsTrainerInBattle(f.a), "failed start must not register anything")

	_, err = f.mgr.Start(ctx, f.a, f.b)
	require.NoError(t, err)

	f.addCreature(t, f.c, speciesBlob, 20, moveSlam)
	_, err = f.mgr.Start(ctx, f.c, f.b)
	assert.ErrorIs(t, err, apperr.ErrAlreadyInBattle)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, 1, f.mgr.Count())
}

func TestConcurrentStartOverlappingTrainer(t *testing.T) {
	f := newFixture(t, random.Fixed{}, data.PolicyPrimary)
	ctx := context.Background()

	f.addCreature(t, f.a, speciesBlob, 20, moveSlam)
	f.addCreature(t, f.b, speciesBlob, 20, moveSlam)
	f.addCreature(t, f.c, speciesBlob, 20, moveSlam)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, 2)
	)
	for i, opponent := range []int64{f.b, f.c} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = f.mgr.Start(ctx, f.a, opponent)
		}()
	}
	close(start)
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, apperr.ErrAlreadyInBattle)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, f.mgr.Count())
}

func TestEnd(t *testing.T) {
	f := newFixture(t, random.Fixed{}, data.PolicyPrimary)
	ctx := context.Background()

	f.addCreature(t, f.a, speciesBlob, 20, moveSlam)
	f.addCreature(t, f.b, speciesBlob, 20, moveSlam)

	snap, err := f.mgr.Start(ctx, f.a, f.b)
	require.NoError(t, err)

	_, err = f.mgr.End(ctx, snap.ID, f.c)
	require.ErrorIs(t, err, apperr.ErrInvalidWinner)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, 1, f.mgr.Count())

	res, err := f.mgr.End(ctx, snap.ID, f.b)
	require.NoError(t, err)
	assert.Equal(t, f.b, res.Winner)
	assert.Equal(t, model.EndAdmin, res.Reason)
	assert.Equal(t, f.a, res.Trainer1)
	assert.Equal(t, f.b, res.Trainer2)
	assert.False(t, res.EndedAt.IsZero())

	_, err = f.mgr.End(ctx, snap.ID, f.b)
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
	assert.Len(t, f.rec.all(), 1)

	// Both trainers are free again.
	_, err = f.mgr.Start(ctx, f.b, f.a)
	assert.NoError(t, err)
}

func TestEndConcurrentProducesOneResult(t *testing.T) {
	f := newFixture(t, random.Fixed{}, data.PolicyPrimary)
	ctx := context.Background()

	f.addCreature(t, f.a, speciesBlob, 20, moveSlam)
	f.addCreature(t, f.b, speciesBlob, 20, moveSlam)

	snap, err := f.mgr.Start(ctx, f.a, f.b)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.mgr.End(ctx, snap.ID, f.a)
		}()
	}
	wg.Wait()

	assert.Len(t, f.rec.all(), 1)
}

func TestSurrender(t *testing.T) {
	f := newFixture(t, random.Fixed{}, data.PolicyPrimary)
	ctx := context.Background()

	f.addCreature(t, f.a, speciesBlob, 20, moveSlam)
	f.addCreature(t, f.b, speciesBlob, 20, moveSlam)

	snap, err := f.mgr.Start(ctx, f.a, f.b)
	require.NoError(t, err)

	_, err = f.mgr.Surrender(ctx, snap.ID, f.c)
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)

	res, err := f.mgr.Surrender(ctx, snap.ID, f.b)
	require.NoError(t, err)
	assert.Equal(t, f.a, res.Winner)
	assert.Equal(t, model.EndSurrender, res.Reason)
	assert.Equal(t, 0, f.mgr.Count())
}

func TestTypeEffectiveness(t *testing.T) {
	t.Run("immune target takes zero", func(t *testing.T) {
		f := newFixture(t, random.Fixed{F: 0}, data.PolicyPrimary)
		ctx := context.Background()

		a1 := f.addCreature(t, f.a, speciesBlob, 20, moveSlam)
		b1 := f.addCreature(t, f.b, speciesShade, 18, moveSlam)

		snap, err := f.mgr.Start(ctx, f.a, f.b)
		require.NoError(t, err)

		out, err := f.mgr.SubmitMove(ctx, MoveCommand{snap.ID, f.a, a1, moveSlam, b1})
		require.NoError(t, err)
		assert.True(t, out.Hit)
		assert.True(t, out.Multiplier.IsZero())
		assert.Zero(t, out.Damage)
		assert.Equal(t, int64(18), out.TargetHP)
		assert.Equal(t, f.b, out.Snapshot.Turn)
	})

	// zap: 12·40·50/(250·50) = 1.92, base 3.
	tests := []struct {
		policy data.DefenderPolicy
		damage int64
	}{
		{data.PolicyPrimary, 6}, // water only: ×2
		{data.PolicyAll, 0},     // water ×2, ground ×0
	}
	for _, tt := range tests {
		t.Run("dual type defender "+string(tt.policy), func(t *testing.T) {
			f := newFixture(t, random.Fixed{F: 0}, tt.policy)
			ctx := context.Background()

			a1 := f.addCreature(t, f.a, speciesBlob, 20, moveZap)
			b1 := f.addCreature(t, f.b, speciesEel, 100, moveSlam)

			snap, err := f.mgr.Start(ctx, f.a, f.b)
			require.NoError(t, err)

			out, err := f.mgr.SubmitMove(ctx, MoveCommand{snap.ID, f.a, a1, moveZap, b1})
			require.NoError(t, err)
			assert.Equal(t, tt.damage, out.Damage)
			assert.Equal(t, 100-tt.damage, out.TargetHP)
		})
	}
}

func TestSnapshotFrozenAtStart(t *testing.T) {
	f := newFixture(t, random.Fixed{F: 0}, data.PolicyPrimary)
	ctx := context.Background()

	c := &model.Creature{
		TrainerID:       f.a,
		SpeciesID:       speciesBlob,
		Nickname:        "Bruiser",
		Experience:      4,
		Level:           3,
		LevelMultiplier: 1,
		Stats:           statsWithHP(20),
		Equipped:        true,
		Moves:           []int64{moveSlam},
	}
	require.NoError(t, f.store.CreateCreature(ctx, c))
	f.addCreature(t, f.b, speciesBlob, 20, moveSlam)

	snap, err := f.mgr.Start(ctx, f.a, f.b)
	require.NoError(t, err)

	p := snap.Participant(c.ID)
	require.NotNil(t, p)
	assert.Equal(t, "Bruiser", p.Name)
	assert.Equal(t, int32(3), p.Level)
	// 20·1.25² = 31.25, 50·1.25² = 78.125
	assert.Equal(t, int64(31), p.MaxHP)
	assert.Equal(t, int64(31), p.HP)
	assert.Equal(t, int64(78), p.Stats.Attack)
	require.Len(t, p.Moves, 1)
	assert.Equal(t, "slam", p.Moves[0].Name)

	// Later roster changes do not reach the running session.
	c.Level = 10
	c.Stats = statsWithHP(500)
	require.NoError(t, f.store.UpdateCreature(ctx, c))

	again, err := f.mgr.Snapshot(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(31), again.Participant(c.ID).MaxHP)
	assert.Equal(t, int32(3), again.Participant(c.ID).Level)
}

func TestRosterLockedDuringBattle(t *testing.T) {
	f := newFixture(t, random.Fixed{}, data.PolicyPrimary)
	ctx := context.Background()

	a1 := f.addCreature(t, f.a, speciesBlob, 20, moveSlam)
	f.addCreature(t, f.b, speciesBlob, 20, moveSlam)

	rm := roster.NewManager(f.store, f.store, f.store, f.mgr, f.locks, random.Fixed{})

	snap, err := f.mgr.Start(ctx, f.a, f.b)
	require.NoError(t, err)

	_, err = rm.Unequip(ctx, a1)
	require.ErrorIs(t, err, apperr.ErrInBattle)

	_, err = f.mgr.End(ctx, snap.ID, f.a)
	require.NoError(t, err)

	c, err := rm.Unequip(ctx, a1)
	require.NoError(t, err)
	assert.False(t, c.Equipped)
}
