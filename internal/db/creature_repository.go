package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/monbattle/internal/model"
)

// CreatureRepository управляет экземплярами существ и их приёмами.
type CreatureRepository struct {
	db *pgxpool.Pool
}

// NewCreatureRepository создаёт новый CreatureRepository.
func NewCreatureRepository(db *pgxpool.Pool) *CreatureRepository {
	return &CreatureRepository{db: db}
}

// Приёмы собираются подзапросом в порядке слотов.
const creatureSelect = `
	SELECT c.creature_id, c.trainer_id, c.species_id, c.nickname,
	       c.experience, c.level, c.level_multiplier,
	       c.hp, c.attack, c.defense, c.special_attack, c.special_defense, c.speed,
	       c.equipped, c.created_at,
	       ARRAY(SELECT cm.move_id FROM creature_moves cm
	             WHERE cm.creature_id = c.creature_id ORDER BY cm.slot) AS moves
	FROM creatures c
`

// CreateCreature вставляет существо вместе с приёмами и проставляет c.ID.
func (r *CreatureRepository) CreateCreature(ctx context.Context, c *model.Creature) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx, "creating creature")

	s := c.Stats
	err = tx.QueryRow(ctx,
		`INSERT INTO creatures (trainer_id, species_id, nickname, experience, level, level_multiplier,
		                        hp, attack, defense, special_attack, special_defense, speed,
		                        equipped, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING creature_id`,
		c.TrainerID, c.SpeciesID, c.Nickname, c.Experience, c.Level, c.LevelMultiplier,
		s.HP, s.Attack, s.Defense, s.SpecialAttack, s.SpecialDefense, s.Speed,
		c.Equipped, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("inserting creature for trainer %d: %w", c.TrainerID, err)
	}

	if err := saveMovesTx(ctx, tx, c.ID, c.Moves); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit creature %d: %w", c.ID, err)
	}
	return nil
}

// UpdateCreature сохраняет изменяемые поля и полностью перезаписывает приёмы.
func (r *CreatureRepository) UpdateCreature(ctx context.Context, c *model.Creature) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx, "updating creature")

	tag, err := tx.Exec(ctx,
		`UPDATE creatures
		 SET nickname = $2, experience = $3, level = $4, equipped = $5
		 WHERE creature_id = $1`,
		c.ID, c.Nickname, c.Experience, c.Level, c.Equipped,
	)
	if err != nil {
		return fmt.Errorf("updating creature %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating creature %d: not found", c.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM creature_moves WHERE creature_id = $1`, c.ID); err != nil {
		return fmt.Errorf("deleting moves of creature %d: %w", c.ID, err)
	}
	if err := saveMovesTx(ctx, tx, c.ID, c.Moves); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit creature %d: %w", c.ID, err)
	}
	return nil
}

// saveMovesTx вставляет приёмы через COPY, слот = позиция в списке.
func saveMovesTx(ctx context.Context, tx pgx.Tx, creatureID int64, moves []int64) error {
	if len(moves) == 0 {
		return nil
	}
	rows := make([][]any, len(moves))
	for i, id := range moves {
		rows[i] = []any{creatureID, int32(i), id}
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"creature_moves"},
		[]string{"creature_id", "slot", "move_id"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("saving moves of creature %d: %w", creatureID, err)
	}
	return nil
}

// DeleteCreature удаляет существо, приёмы удаляются каскадом.
func (r *CreatureRepository) DeleteCreature(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM creatures WHERE creature_id = $1`, id); err != nil {
		return fmt.Errorf("deleting creature %d: %w", id, err)
	}
	return nil
}

// LoadCreature загружает существо по ID.
// Возвращает nil, nil если существо не найдено.
func (r *CreatureRepository) LoadCreature(ctx context.Context, id int64) (*model.Creature, error) {
	c, err := scanCreature(r.db.QueryRow(ctx, creatureSelect+` WHERE c.creature_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying creature %d: %w", id, err)
	}
	return c, nil
}

// LoadCreaturesByTrainer загружает всех существ тренера.
func (r *CreatureRepository) LoadCreaturesByTrainer(ctx context.Context, trainerID int64) ([]*model.Creature, error) {
	return r.queryCreatures(ctx, creatureSelect+` WHERE c.trainer_id = $1 ORDER BY c.creature_id`, trainerID)
}

// LoadEquippedCreatures загружает экипированных существ тренера.
func (r *CreatureRepository) LoadEquippedCreatures(ctx context.Context, trainerID int64) ([]*model.Creature, error) {
	return r.queryCreatures(ctx, creatureSelect+` WHERE c.trainer_id = $1 AND c.equipped ORDER BY c.creature_id`, trainerID)
}

// CountEquipped считает экипированных существ тренера по текущему состоянию БД.
func (r *CreatureRepository) CountEquipped(ctx context.Context, trainerID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM creatures WHERE trainer_id = $1 AND equipped`, trainerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting equipped creatures of trainer %d: %w", trainerID, err)
	}
	return n, nil
}

func (r *CreatureRepository) queryCreatures(ctx context.Context, query string, trainerID int64) ([]*model.Creature, error) {
	rows, err := r.db.Query(ctx, query, trainerID)
	if err != nil {
		return nil, fmt.Errorf("querying creatures of trainer %d: %w", trainerID, err)
	}
	defer rows.Close()

	// Обычно у тренера до десятка существ.
	out := make([]*model.Creature, 0, 8)
	for rows.Next() {
		c, err := scanCreature(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning creature row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating creature rows: %w", err)
	}
	return out, nil
}

func scanCreature(row pgx.Row) (*model.Creature, error) {
	var c model.Creature
	s := &c.Stats
	if err := row.Scan(&c.ID, &c.TrainerID, &c.SpeciesID, &c.Nickname,
		&c.Experience, &c.Level, &c.LevelMultiplier,
		&s.HP, &s.Attack, &s.Defense, &s.SpecialAttack, &s.SpecialDefense, &s.Speed,
		&c.Equipped, &c.CreatedAt, &c.Moves); err != nil {
		return nil, err
	}
	if c.Moves == nil {
		c.Moves = []int64{}
	}
	return &c, nil
}

// rollback откатывает tx; после Commit ошибка ErrTxClosed ожидаема.
func rollback(ctx context.Context, tx pgx.Tx, op string) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("rollback failed", "op", op, "error", err)
	}
}
