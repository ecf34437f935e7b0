package core

// batch.go buffers accepted records and hands them to a Sink in fixed-size
// batches.
//
// State machine:
//
//	Accumulating --(size reached / final flush)--> Flushing
//	Flushing --(sink ok)--> Accumulating
//	Flushing --(sink error)--> Failed (terminal)
//
// Flushes are synchronous: Add does not return until a full batch has been
// written, so at most one batch is ever in flight per accumulator.

import (
	"context"
	"fmt"
)

// BatchState is the current state of an Accumulator.
type BatchState int

const (
	StateAccumulating BatchState = iota
	StateFlushing
	StateFailed
)

func (s BatchState) String() string {
	switch s {
	case StateAccumulating:
		return "accumulating"
	case StateFlushing:
		return "flushing"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("BatchState(%d)", int(s))
	}
}

// BatchFlushedFunc is called after each successful flush.
type BatchFlushedFunc func(batch, rows int)

// Accumulator buffers records and flushes them to a Sink.
// It is not safe for concurrent use.
type Accumulator struct {
	sink      Sink
	size      int
	buf       []Record
	state     BatchState
	err       error
	batches   int
	flushed   int
	onFlushed BatchFlushedFunc
}

// NewAccumulator creates an accumulator that flushes every size records.
func NewAccumulator(sink Sink, size int) *Accumulator {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Accumulator{
		sink: sink,
		size: size,
		buf:  make([]Record, 0, size),
	}
}

// OnFlushed registers a callback invoked after each committed batch.
func (a *Accumulator) OnFlushed(fn BatchFlushedFunc) {
	a.onFlushed = fn
}

// Add appends a record and flushes when the batch is full.
// After a failed flush every call returns the original *PersistenceError.
func (a *Accumulator) Add(ctx context.Context, rec Record) error {
	if a.state == StateFailed {
		return a.err
	}
	a.buf = append(a.buf, rec)
	if len(a.buf) >= a.size {
		return a.flush(ctx)
	}
	return nil
}

// Flush writes any buffered records regardless of batch size.
func (a *Accumulator) Flush(ctx context.Context) error {
	if a.state == StateFailed {
		return a.err
	}
	if len(a.buf) == 0 {
		return nil
	}
	return a.flush(ctx)
}

func (a *Accumulator) flush(ctx context.Context) error {
	a.state = StateFlushing
	a.batches++
	rows := len(a.buf)

	err := a.sink.InsertBatch(ctx, a.buf)

	// The sink is done with the batch either way; drop references.
	clear(a.buf)
	a.buf = a.buf[:0]

	if err != nil {
		a.state = StateFailed
		a.err = &PersistenceError{Batch: a.batches, Rows: rows, Err: err}
		return a.err
	}

	a.flushed += rows
	a.state = StateAccumulating
	if a.onFlushed != nil {
		a.onFlushed(a.batches, rows)
	}
	return nil
}

// State returns the current state.
func (a *Accumulator) State() BatchState { return a.state }

// Flushed returns the number of records committed so far.
func (a *Accumulator) Flushed() int { return a.flushed }

// Pending returns the number of buffered, unflushed records.
func (a *Accumulator) Pending() int { return len(a.buf) }

// Batches returns how many flushes were attempted, including a failed one.
func (a *Accumulator) Batches() int { return a.batches }
