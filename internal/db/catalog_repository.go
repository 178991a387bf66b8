package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/monbattle/internal/model"
)

// CatalogRepository хранит справочник видов и приёмов.
// Справочник только читается ядром; пишет его SeedCatalog.
type CatalogRepository struct {
	db *pgxpool.Pool
}

// NewCatalogRepository создаёт новый CatalogRepository.
func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const speciesColumns = `species_id, name, types, hp, attack, defense,
	special_attack, special_defense, speed, cost, for_sale`

const moveColumns = `move_id, name, type, category, power, accuracy,
	max_uses, priority, target, effect, min_level`

// UpsertSpecies вставляет или обновляет вид по ID.
func (r *CatalogRepository) UpsertSpecies(ctx context.Context, s *model.Species) error {
	types := make([]string, len(s.Types))
	for i, t := range s.Types {
		types[i] = string(t)
	}
	b := s.BaseStats
	_, err := r.db.Exec(ctx,
		`INSERT INTO species (`+speciesColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (species_id) DO UPDATE SET
		   name = EXCLUDED.name, types = EXCLUDED.types,
		   hp = EXCLUDED.hp, attack = EXCLUDED.attack, defense = EXCLUDED.defense,
		   special_attack = EXCLUDED.special_attack, special_defense = EXCLUDED.special_defense,
		   speed = EXCLUDED.speed, cost = EXCLUDED.cost, for_sale = EXCLUDED.for_sale`,
		s.ID, s.Name, types, b.HP, b.Attack, b.Defense,
		b.SpecialAttack, b.SpecialDefense, b.Speed, s.Cost, s.ForSale,
	)
	if err != nil {
		return fmt.Errorf("upserting species %d: %w", s.ID, err)
	}
	return nil
}

// UpsertMove вставляет или обновляет приём по ID.
func (r *CatalogRepository) UpsertMove(ctx context.Context, m *model.MoveTemplate) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO moves (`+moveColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (move_id) DO UPDATE SET
		   name = EXCLUDED.name, type = EXCLUDED.type, category = EXCLUDED.category,
		   power = EXCLUDED.power, accuracy = EXCLUDED.accuracy, max_uses = EXCLUDED.max_uses,
		   priority = EXCLUDED.priority, target = EXCLUDED.target, effect = EXCLUDED.effect,
		   min_level = EXCLUDED.min_level`,
		m.ID, m.Name, string(m.Type), string(m.Category), m.Power, m.Accuracy,
		m.MaxUses, m.Priority, m.Target, m.Effect, m.MinLevel,
	)
	if err != nil {
		return fmt.Errorf("upserting move %d: %w", m.ID, err)
	}
	return nil
}

// LoadSpecies загружает вид по ID.
// Возвращает nil, nil если вид не найден.
func (r *CatalogRepository) LoadSpecies(ctx context.Context, id int64) (*model.Species, error) {
	row := r.db.QueryRow(ctx, `SELECT `+speciesColumns+` FROM species WHERE species_id = $1`, id)
	s, err := scanSpecies(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying species %d: %w", id, err)
	}
	return s, nil
}

// LoadMove загружает приём по ID.
// Возвращает nil, nil если приём не найден.
func (r *CatalogRepository) LoadMove(ctx context.Context, id int64) (*model.MoveTemplate, error) {
	row := r.db.QueryRow(ctx, `SELECT `+moveColumns+` FROM moves WHERE move_id = $1`, id)
	m, err := scanMove(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying move %d: %w", id, err)
	}
	return m, nil
}

// ListSpecies возвращает все виды по возрастанию ID.
func (r *CatalogRepository) ListSpecies(ctx context.Context) ([]*model.Species, error) {
	rows, err := r.db.Query(ctx, `SELECT `+speciesColumns+` FROM species ORDER BY species_id`)
	if err != nil {
		return nil, fmt.Errorf("querying species: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Species, 0, 32)
	for rows.Next() {
		s, err := scanSpecies(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning species row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating species rows: %w", err)
	}
	return out, nil
}

// ListMoves возвращает все приёмы по возрастанию ID.
func (r *CatalogRepository) ListMoves(ctx context.Context) ([]*model.MoveTemplate, error) {
	rows, err := r.db.Query(ctx, `SELECT `+moveColumns+` FROM moves ORDER BY move_id`)
	if err != nil {
		return nil, fmt.Errorf("querying moves: %w", err)
	}
	defer rows.Close()

	out := make([]*model.MoveTemplate, 0, 64)
	for rows.Next() {
		m, err := scanMove(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning move row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating move rows: %w", err)
	}
	return out, nil
}

func scanSpecies(row pgx.Row) (*model.Species, error) {
	var (
		s     model.Species
		types []string
	)
	b := &s.BaseStats
	if err := row.Scan(&s.ID, &s.Name, &types, &b.HP, &b.Attack, &b.Defense,
		&b.SpecialAttack, &b.SpecialDefense, &b.Speed, &s.Cost, &s.ForSale); err != nil {
		return nil, err
	}
	s.Types = make([]model.ElementType, len(types))
	for i, t := range types {
		s.Types[i] = model.ElementType(t)
	}
	return &s, nil
}

func scanMove(row pgx.Row) (*model.MoveTemplate, error) {
	var (
		m        model.MoveTemplate
		typ, cat string
	)
	if err := row.Scan(&m.ID, &m.Name, &typ, &cat, &m.Power, &m.Accuracy,
		&m.MaxUses, &m.Priority, &m.Target, &m.Effect, &m.MinLevel); err != nil {
		return nil, err
	}
	m.Type = model.ElementType(typ)
	m.Category = model.MoveCategory(cat)
	return &m, nil
}
