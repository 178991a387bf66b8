package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/monbattle/internal/model"
)

// MatchResultRepository хранит итоги завершённых боёв.
type MatchResultRepository struct {
	db *pgxpool.Pool
}

// NewMatchResultRepository создаёт новый MatchResultRepository.
func NewMatchResultRepository(db *pgxpool.Pool) *MatchResultRepository {
	return &MatchResultRepository{db: db}
}

const matchResultColumns = `session_id, trainer1, trainer2, winner, reason, turns, started_at, ended_at`

// InsertMatchResult сохраняет итог боя. Повторная вставка той же сессии игнорируется.
func (r *MatchResultRepository) InsertMatchResult(ctx context.Context, m *model.MatchResult) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO match_results (`+matchResultColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (session_id) DO NOTHING`,
		m.SessionID, m.Trainer1, m.Trainer2, m.Winner, string(m.Reason), m.Turns, m.StartedAt, m.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting match result %s: %w", m.SessionID, err)
	}
	return nil
}

// LoadMatchResult загружает итог по ID сессии.
// Возвращает nil, nil если итога нет.
func (r *MatchResultRepository) LoadMatchResult(ctx context.Context, sessionID uuid.UUID) (*model.MatchResult, error) {
	m, err := scanMatchResult(r.db.QueryRow(ctx,
		`SELECT `+matchResultColumns+` FROM match_results WHERE session_id = $1`, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying match result %s: %w", sessionID, err)
	}
	return m, nil
}

// LoadMatchResultsByTrainer возвращает бои тренера, новые первыми.
func (r *MatchResultRepository) LoadMatchResultsByTrainer(ctx context.Context, trainerID int64) ([]*model.MatchResult, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+matchResultColumns+` FROM match_results
		 WHERE trainer1 = $1 OR trainer2 = $1
		 ORDER BY ended_at DESC`, trainerID)
	if err != nil {
		return nil, fmt.Errorf("querying match results of trainer %d: %w", trainerID, err)
	}
	defer rows.Close()

	out := make([]*model.MatchResult, 0, 16)
	for rows.Next() {
		m, err := scanMatchResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning match result row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating match result rows: %w", err)
	}
	return out, nil
}

func scanMatchResult(row pgx.Row) (*model.MatchResult, error) {
	var (
		m      model.MatchResult
		reason string
	)
	if err := row.Scan(&m.SessionID, &m.Trainer1, &m.Trainer2, &m.Winner, &reason,
		&m.Turns, &m.StartedAt, &m.EndedAt); err != nil {
		return nil, err
	}
	m.Reason = model.EndReason(reason)
	return &m, nil
}
