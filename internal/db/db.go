package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx connection pool shared by all repositories.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a DB handle.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (d *DB) Close() {
	d.pool.Close()
}

// Pool returns the underlying pgx pool.
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}

// Repositories bundles the PostgreSQL repositories over one pool.
type Repositories struct {
	Trainers  *TrainerRepository
	Catalog   *CatalogRepository
	Creatures *CreatureRepository
	Results   *MatchResultRepository
}

// Repositories builds every repository on top of the pool.
func (d *DB) Repositories() Repositories {
	return Repositories{
		Trainers:  NewTrainerRepository(d.pool),
		Catalog:   NewCatalogRepository(d.pool),
		Creatures: NewCreatureRepository(d.pool),
		Results:   NewMatchResultRepository(d.pool),
	}
}
