package core

import (
	"context"
	"time"
)

// Record is one accepted row, ready to be persisted.
// A nil Address or AdditionalInfo is stored as NULL.
type Record struct {
	Name           string   `json:"name"`
	Age            int      `json:"age"`
	Address        *Mapping `json:"address"`
	AdditionalInfo *Mapping `json:"additional_info"`
}

// Sink persists one batch of records atomically.
// Implementations must either commit every record of the batch or none.
// The batch slice is reused after InsertBatch returns and must not be retained.
type Sink interface {
	InsertBatch(ctx context.Context, batch []Record) error
}

// Store is a Sink that can also report on what it holds.
type Store interface {
	Sink
	AgeCounts(ctx context.Context) (AgeCounts, error)
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Options controls a single import run.
type Options struct {
	// BatchSize is the number of records per INSERT transaction.
	// Zero or negative means DefaultBatchSize.
	BatchSize int
}

// DefaultBatchSize is used when Options.BatchSize is not set.
const DefaultBatchSize = 1000

// MaxBatchSize keeps one multi-row INSERT under the 65535 bind parameter
// limit shared by PostgreSQL and MySQL (four parameters per record).
const MaxBatchSize = 65535 / 4

func (o Options) batchSize() int {
	if o.BatchSize <= 0 {
		return DefaultBatchSize
	}
	if o.BatchSize > MaxBatchSize {
		return MaxBatchSize
	}
	return o.BatchSize
}

// Summary holds the aggregate counts of an import.
type Summary struct {
	Inserted   int `json:"inserted"`
	Skipped    int `json:"skipped"`
	TotalLines int `json:"totalLines"`
}

// ImportResult is a Summary plus bookkeeping about the run.
type ImportResult struct {
	ImportID   string        `json:"import_id"`
	Path       string        `json:"path"`
	ExportPath string        `json:"export_path,omitempty"`
	Duration   time.Duration `json:"-"`
	Summary
}
