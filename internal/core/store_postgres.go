package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/peopleimport/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresDialect uses $n placeholders and casts the JSON parameters to jsonb.
var postgresDialect = insertDialect{
	quoteIdent: func(name string) string {
		return pgx.Identifier{name}.Sanitize()
	},
	rowPlaceholders: func(first int) string {
		return fmt.Sprintf("($%d, $%d, $%d::jsonb, $%d::jsonb)", first, first+1, first+2, first+3)
	},
}

// txBeginner starts transactions. *pgxpool.Pool satisfies it.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore persists records into a PostgreSQL table through a pgx pool.
type PostgresStore struct {
	pool  *pgxpool.Pool
	txs   txBeginner
	table string // sanitized "schema"."table"
}

// NewPostgresStore opens a pool using the connection settings in cfg.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return NewPostgresStoreFromPool(pool, cfg.Schema, cfg.Table), nil
}

// NewPostgresStoreFromPool wraps an existing pool. An empty schema leaves the
// table name unqualified.
func NewPostgresStoreFromPool(pool *pgxpool.Pool, schema, table string) *PostgresStore {
	return &PostgresStore{
		pool:  pool,
		txs:   pool,
		table: postgresTableName(schema, table),
	}
}

func postgresTableName(schema, table string) string {
	if schema == "" {
		return pgx.Identifier{table}.Sanitize()
	}
	return pgx.Identifier{schema, table}.Sanitize()
}

// InsertBatch writes the whole batch as one multi-row INSERT inside a
// transaction.
func (s *PostgresStore) InsertBatch(ctx context.Context, batch []Record) error {
	query, args, err := buildInsert(postgresDialect, s.table, batch)
	if err != nil {
		return err
	}

	tx, err := s.txs.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %d records: %w", len(batch), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// AgeCounts buckets every stored age.
func (s *PostgresStore) AgeCounts(ctx context.Context) (AgeCounts, error) {
	var c AgeCounts
	err := s.pool.QueryRow(ctx, fmt.Sprintf(ageCountsQuery, s.table)).
		Scan(&c.Under20, &c.From20To40, &c.From40To60, &c.Over60, &c.Total)
	if err != nil {
		return AgeCounts{}, fmt.Errorf("query age counts: %w", err)
	}
	return c, nil
}

// EnsureSchema creates the table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		id SERIAL PRIMARY KEY,
		name VARCHAR NOT NULL,
		age INT NOT NULL,
		address JSONB NULL,
		additional_info JSONB NULL
	)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
