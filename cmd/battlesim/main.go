// battlesim plays a match between two generated trainers entirely in memory.
//
// Usage:
//
//	go run ./cmd/battlesim
//	go run ./cmd/battlesim -seed 42 -team 3 -policy all -v
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/udisondev/monbattle/internal/apperr"
	"github.com/udisondev/monbattle/internal/data"
	"github.com/udisondev/monbattle/internal/db"
	"github.com/udisondev/monbattle/internal/game/battle"
	"github.com/udisondev/monbattle/internal/game/engine"
	"github.com/udisondev/monbattle/internal/model"
	"github.com/udisondev/monbattle/internal/random"
)

type options struct {
	seed     uint64
	team     int
	coins    int64
	maxTurns int
	policy   string
	catalog  string
	chart    string
}

func main() {
	var opts options
	flag.Uint64Var(&opts.seed, "seed", 0, "random seed (0 = random)")
	flag.IntVar(&opts.team, "team", 3, "creatures per trainer")
	flag.Int64Var(&opts.coins, "coins", 1000, "starting coins per trainer")
	flag.IntVar(&opts.maxTurns, "max-turns", 500, "turn limit before an admin decision")
	flag.StringVar(&opts.policy, "policy", string(data.PolicyPrimary), "defender type policy: primary|all")
	flag.StringVar(&opts.catalog, "catalog", "", "catalog YAML (empty = embedded)")
	flag.StringVar(&opts.chart, "chart", "", "type chart YAML (empty = embedded)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := simulate(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func simulate(ctx context.Context, opts options) error {
	if opts.team < 1 || opts.team > model.MaxEquipped {
		return fmt.Errorf("team must be in [1, %d], got %d", model.MaxEquipped, opts.team)
	}
	policy, err := data.ParseDefenderPolicy(opts.policy)
	if err != nil {
		return err
	}
	if opts.seed == 0 {
		if opts.seed, err = random.NewSeed(); err != nil {
			return err
		}
	}
	rng := random.New(opts.seed)

	catalog, err := data.LoadCatalog(opts.catalog)
	if err != nil {
		return err
	}
	chart, err := data.LoadTypeChart(opts.chart)
	if err != nil {
		return err
	}

	store := db.NewMemoryStore()
	if err := db.SeedCatalog(ctx, store, catalog); err != nil {
		return err
	}

	eng, err := engine.New(engine.Stores{
		Trainers:  store,
		Creatures: store,
		Catalog:   store,
		Results:   store,
	}, engine.Options{Chart: chart, Policy: policy, Rand: rng})
	if err != nil {
		return err
	}

	fmt.Printf("seed: %d, policy: %s\n", opts.seed, policy)

	var trainers [2]*model.Trainer
	for i, name := range []string{"red", "blue"} {
		t, err := store.CreateTrainer(ctx, name, opts.coins)
		if err != nil {
			return err
		}
		if err := buildTeam(ctx, eng, catalog, rng, t, opts.team); err != nil {
			return fmt.Errorf("building team of %s: %w", name, err)
		}
		trainers[i] = t
	}

	snap, err := eng.Battles.Start(ctx, trainers[0].ID, trainers[1].ID)
	if err != nil {
		return fmt.Errorf("starting battle: %w", err)
	}
	printSides(snap)

	result, err := play(ctx, eng, rng, snap, opts.maxTurns)
	if err != nil {
		return err
	}

	winner := trainers[0]
	if result.Winner == trainers[1].ID {
		winner = trainers[1]
	}
	fmt.Printf("\n%s wins by %s after %d turns\n", winner.Username, result.Reason, result.Turns)

	// Победители получают опыт по числу ходов
	if err := reward(ctx, eng, winner.ID, int64(result.Turns)); err != nil {
		return err
	}

	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := eng.Shutdown(flushCtx); err != nil {
		return err
	}
	fmt.Printf("archived results: %d\n", store.MatchResultCount())
	return nil
}

// buildTeam buys n affordable creatures for t, teaches them every level-1
// move of their types (up to the slot limit) and equips them.
func buildTeam(ctx context.Context, eng *engine.Engine, catalog *data.Catalog, rng random.Source, t *model.Trainer, n int) error {
	var forSale []model.Species
	for _, sp := range catalog.Species {
		if sp.ForSale {
			forSale = append(forSale, sp)
		}
	}
	if len(forSale) == 0 {
		return fmt.Errorf("catalog has no species for sale")
	}

	for range n {
		sp := forSale[rng.IntN(len(forSale))]
		c, err := eng.Roster.Purchase(ctx, t.ID, sp.ID)
		if err != nil {
			return fmt.Errorf("buying %s: %w", sp.Name, err)
		}
		for _, typ := range sp.Types {
			for _, mv := range catalog.MovesOfType(typ) {
				_, err := eng.Roster.LearnMove(ctx, c.ID, mv.ID)
				switch {
				case err == nil:
				case errors.Is(err, apperr.ErrLevelTooLow), errors.Is(err, apperr.ErrMoveSlotsFull):
					slog.Debug("move skipped", "creature", sp.Name, "move", mv.Name, "error", err)
				default:
					return err
				}
			}
		}
		if _, err := eng.Roster.Equip(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

func play(ctx context.Context, eng *engine.Engine, rng random.Source, snap *battle.Snapshot, maxTurns int) (*model.MatchResult, error) {
	for int(snap.Turns) < maxTurns {
		own := snap.Side(snap.Turn)
		attacker := pickStanding(rng, own, true)
		if attacker == nil {
			// Стоят только существа без приёмов
			fmt.Printf("trainer %d has nothing to attack with and surrenders\n", snap.Turn)
			return eng.Battles.Surrender(ctx, snap.ID, snap.Turn)
		}
		target := pickStanding(rng, opponentOf(snap, snap.Turn), false)
		move := attacker.Moves[rng.IntN(len(attacker.Moves))]

		out, err := eng.Battles.SubmitMove(ctx, battle.MoveCommand{
			SessionID:     snap.ID,
			TrainerID:     snap.Turn,
			ParticipantID: attacker.CreatureID,
			MoveID:        move.ID,
			TargetID:      target.CreatureID,
		})
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", snap.Turns+1, err)
		}

		if out.Hit {
			fmt.Printf("%3d. %s uses %s on %s: %d damage (x%s), %d HP left\n",
				snap.Turns+1, attacker.Name, move.Name, target.Name, out.Damage, out.Multiplier, out.TargetHP)
		} else {
			fmt.Printf("%3d. %s uses %s on %s: miss\n", snap.Turns+1, attacker.Name, move.Name, target.Name)
		}
		if out.Result != nil {
			return out.Result, nil
		}
		snap = out.Snapshot
	}

	winner := leader(snap)
	fmt.Printf("turn limit reached, awarding the match to trainer %d\n", winner)
	return eng.Battles.End(ctx, snap.ID, winner)
}

func reward(ctx context.Context, eng *engine.Engine, trainerID, exp int64) error {
	roster, err := eng.Roster.Roster(ctx, trainerID)
	if err != nil {
		return err
	}
	for _, c := range roster {
		if !c.Equipped {
			continue
		}
		upd, err := eng.Roster.AwardExperience(ctx, c.ID, exp)
		if err != nil {
			return err
		}
		fmt.Printf("  creature %d: +%d exp, level %d\n", upd.ID, exp, upd.Level)
	}
	return nil
}

func pickStanding(rng random.Source, side *battle.Side, needMoves bool) *battle.Participant {
	var standing []*battle.Participant
	for i := range side.Participants {
		p := &side.Participants[i]
		if p.Fainted() || (needMoves && len(p.Moves) == 0) {
			continue
		}
		standing = append(standing, p)
	}
	if len(standing) == 0 {
		return nil
	}
	return standing[rng.IntN(len(standing))]
}

func opponentOf(snap *battle.Snapshot, trainerID int64) *battle.Side {
	if snap.Sides[0].TrainerID == trainerID {
		return &snap.Sides[1]
	}
	return &snap.Sides[0]
}

// leader returns the trainer with more remaining HP; trainer 1 on a tie.
func leader(snap *battle.Snapshot) int64 {
	var hp [2]int64
	for i := range snap.Sides {
		for _, p := range snap.Sides[i].Participants {
			hp[i] += p.HP
		}
	}
	if hp[1] > hp[0] {
		return snap.Sides[1].TrainerID
	}
	return snap.Sides[0].TrainerID
}

func printSides(snap *battle.Snapshot) {
	for _, side := range snap.Sides {
		fmt.Printf("trainer %d:\n", side.TrainerID)
		for _, p := range side.Participants {
			fmt.Printf("  %-12s L%-3d HP %-4d %v\n", p.Name, p.Level, p.MaxHP, p.Types)
		}
	}
	fmt.Println()
}
