package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/monbattle/internal/model"
)

// TrainerRepository управляет тренерами и их балансом монет.
type TrainerRepository struct {
	db *pgxpool.Pool
}

// NewTrainerRepository создаёт новый TrainerRepository.
func NewTrainerRepository(db *pgxpool.Pool) *TrainerRepository {
	return &TrainerRepository{db: db}
}

// CreateTrainer регистрирует тренера со стартовым балансом.
func (r *TrainerRepository) CreateTrainer(ctx context.Context, username string, coins int64) (*model.Trainer, error) {
	t := &model.Trainer{Username: username, Coins: coins}
	err := r.db.QueryRow(ctx,
		`INSERT INTO trainers (username, coins) VALUES ($1, $2)
		 RETURNING trainer_id, created_at`,
		username, coins,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating trainer %q: %w", username, err)
	}
	return t, nil
}

// LoadTrainer загружает тренера по ID.
// Возвращает nil, nil если тренер не найден.
func (r *TrainerRepository) LoadTrainer(ctx context.Context, id int64) (*model.Trainer, error) {
	var t model.Trainer
	err := r.db.QueryRow(ctx,
		`SELECT trainer_id, username, coins, created_at FROM trainers WHERE trainer_id = $1`, id,
	).Scan(&t.ID, &t.Username, &t.Coins, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying trainer %d: %w", id, err)
	}
	return &t, nil
}

// SpendCoins списывает amount, если хватает баланса. Возвращает false, если не хватает.
// Проверка и списание в одном UPDATE, гонок между покупками нет.
func (r *TrainerRepository) SpendCoins(ctx context.Context, trainerID, amount int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE trainers SET coins = coins - $2 WHERE trainer_id = $1 AND coins >= $2`,
		trainerID, amount,
	)
	if err != nil {
		return false, fmt.Errorf("spending coins of trainer %d: %w", trainerID, err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	t, err := r.LoadTrainer(ctx, trainerID)
	if err != nil {
		return false, err
	}
	if t == nil {
		return false, fmt.Errorf("trainer %d not found", trainerID)
	}
	return false, nil
}

// AddCoins начисляет amount тренеру.
func (r *TrainerRepository) AddCoins(ctx context.Context, trainerID, amount int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE trainers SET coins = coins + $2 WHERE trainer_id = $1`,
		trainerID, amount,
	)
	if err != nil {
		return fmt.Errorf("adding coins to trainer %d: %w", trainerID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trainer %d not found", trainerID)
	}
	return nil
}
