package core

import (
	"errors"
	"fmt"
)

// ErrFileNotFound is returned when the import path does not exist.
var ErrFileNotFound = errors.New("csv file not found")

// PersistenceError reports a batch whose transaction was rolled back.
// Batches committed before it stay committed.
type PersistenceError struct {
	Batch int // 1-based batch number within the import
	Rows  int // records in the failed batch
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("insert batch %d (%d rows): %v", e.Batch, e.Rows, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrPathOutsideDataDir is returned when a requested CSV path resolves
// outside the import data directory.
var ErrPathOutsideDataDir = errors.New("csv path outside data directory")

// ErrImportNotFound is returned when an import ID is unknown or has aged
// out of the status history.
var ErrImportNotFound = errors.New("import not found")

// ErrInvalidImportRequest is returned for an import request body that
// cannot be decoded.
var ErrInvalidImportRequest = errors.New("invalid import request")
