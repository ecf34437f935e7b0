package core

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/JonMunkholm/peopleimport/internal/config"
	"github.com/go-sql-driver/mysql"
)

// mysqlDialect uses ? placeholders and backtick-quoted identifiers. JSON
// columns accept the encoded text as-is.
var mysqlDialect = insertDialect{
	quoteIdent: quoteMySQLIdent,
	rowPlaceholders: func(int) string {
		return "(?, ?, ?, ?)"
	},
}

func quoteMySQLIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// MySQLStore persists records into a MySQL table through database/sql.
// The database is taken from the DSN; DatabaseConfig.Schema is ignored.
type MySQLStore struct {
	db    *sql.DB
	table string // quoted
}

// NewMySQLStore opens a connection pool for the go-sql-driver DSN in cfg.URL.
func NewMySQLStore(ctx context.Context, cfg config.DatabaseConfig) (*MySQLStore, error) {
	dsn, err := mysql.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if dsn.Params == nil {
		dsn.Params = map[string]string{}
	}
	if _, ok := dsn.Params["charset"]; !ok {
		dsn.Params["charset"] = "utf8mb4"
	}

	connector, err := mysql.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}

	db := sql.OpenDB(connector)

	// Pool tuning
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	return NewMySQLStoreFromDB(db, cfg.Table), nil
}

// NewMySQLStoreFromDB wraps an existing handle.
func NewMySQLStoreFromDB(db *sql.DB, table string) *MySQLStore {
	return &MySQLStore{db: db, table: quoteMySQLIdent(table)}
}

// InsertBatch writes the whole batch as one multi-row INSERT inside a
// transaction.
func (s *MySQLStore) InsertBatch(ctx context.Context, batch []Record) error {
	query, args, err := buildInsert(mysqlDialect, s.table, batch)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %d records: %w", len(batch), err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// AgeCounts buckets every stored age.
func (s *MySQLStore) AgeCounts(ctx context.Context) (AgeCounts, error) {
	var c AgeCounts
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(ageCountsQuery, s.table)).
		Scan(&c.Under20, &c.From20To40, &c.From40To60, &c.Over60, &c.Total)
	if err != nil {
		return AgeCounts{}, fmt.Errorf("query age counts: %w", err)
	}
	return c, nil
}

// EnsureSchema creates the table when it does not exist.
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		age INT NOT NULL,
		address JSON NULL,
		additional_info JSON NULL
	) DEFAULT CHARSET = utf8mb4`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *MySQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// OpenStore returns the Store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		return NewPostgresStore(ctx, cfg)
	case config.DriverMySQL:
		return NewMySQLStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
