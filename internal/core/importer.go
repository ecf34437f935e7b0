package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/JonMunkholm/peopleimport/internal/logging"
)

// ProgressInterval is how many data lines pass between progress log lines.
const ProgressInterval = 10000

// ContextCheckInterval is how many data lines pass between checks of ctx.
const ContextCheckInterval = 1000

// Importer runs the parse, map and persist pipeline over one input file.
// An Importer holds no per-run state and may be shared by concurrent imports.
type Importer struct {
	sink     Sink
	exporter Exporter // nil disables the side export
	now      func() time.Time
}

// NewImporter creates an importer writing accepted records to sink and,
// when exporter is non-nil, to the side export.
func NewImporter(sink Sink, exporter Exporter) *Importer {
	return &Importer{
		sink:     sink,
		exporter: exporter,
		now:      time.Now,
	}
}

// Import streams the file at path into the sink.
//
// A missing file fails with ErrFileNotFound before anything is read. Once
// reading starts, the first non-blank line is the header and every later
// non-blank line counts toward TotalLines. A file without any non-blank
// line imports nothing and is not an error. If a batch fails, Import stops
// and returns the counts so far together with a *PersistenceError; only
// batches committed before the failure are included in Inserted.
func (im *Importer) Import(ctx context.Context, path string, opts Options) (ImportResult, error) {
	started := im.now()
	result := ImportResult{
		ImportID: ImportIDFromContext(ctx),
		Path:     path,
	}
	logger := logging.WithFields(ctx, "import_id", result.ImportID, "path", path)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return result, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	batchSize := opts.batchSize()
	logger.Info("import started", "batch_size", batchSize, "size_bytes", info.Size())

	acc := NewAccumulator(im.sink, batchSize)
	acc.OnFlushed(func(batch, rows int) {
		logger.Debug("batch committed", "batch", batch, "rows", rows)
	})

	export := im.startExport(started, logger)

	lines := NewLineReader(f, info.Size())
	err = im.run(ctx, lines, acc, export, &result.Summary, logger)
	result.Inserted = acc.Flushed()
	result.Duration = im.now().Sub(started)

	if err != nil {
		if export != nil {
			export.Abort()
		}
		logger.Error("import failed",
			"error", err,
			"inserted", result.Inserted,
			"skipped", result.Skipped,
			"total_lines", result.TotalLines,
			"line", lines.LineNumber(),
		)
		return result, err
	}

	if export != nil {
		exportPath, err := export.Commit()
		if err != nil {
			logger.Warn("export failed", "error", err)
		} else {
			result.ExportPath = exportPath
			logger.Info("export saved", "export_path", exportPath)
		}
	}

	logger.Info("import completed",
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"total_lines", result.TotalLines,
		"batches", acc.Batches(),
		"duration", result.Duration,
	)
	return result, nil
}

// run consumes lines until EOF and performs the final flush.
func (im *Importer) run(ctx context.Context, lines *LineReader, acc *Accumulator, export *exportSink, sum *Summary, logger *slog.Logger) error {
	var header *HeaderIndex

	for {
		line, err := lines.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read line %d: %w", lines.LineNumber()+1, err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if header == nil {
			h := NewHeaderIndex(line)
			header = &h
			continue
		}

		sum.TotalLines++
		if sum.TotalLines%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("stopped at line %d: %w", lines.LineNumber(), err)
			}
		}
		if sum.TotalLines%ProgressInterval == 0 {
			logger.Debug("import progress",
				"lines", sum.TotalLines,
				"bytes_read", lines.BytesRead(),
				"percent", lines.Progress(),
			)
		}

		rec, ok := MapRow(*header, ParseLine(line))
		if !ok {
			sum.Skipped++
			continue
		}

		export.write(rec)
		if err := acc.Add(ctx, rec); err != nil {
			return err
		}
	}

	if header == nil {
		logger.Warn("input has no header row")
	}
	return acc.Flush(ctx)
}

// exportSink wraps an ExportWriter so that the first write failure is
// logged once and disables the export for the rest of the run.
type exportSink struct {
	w      ExportWriter
	failed bool
	logger *slog.Logger
}

func (im *Importer) startExport(started time.Time, logger *slog.Logger) *exportSink {
	if im.exporter == nil {
		return nil
	}
	w, err := im.exporter.Start(started)
	if err != nil {
		logger.Warn("export disabled", "error", err)
		return nil
	}
	return &exportSink{w: w, logger: logger}
}

func (e *exportSink) write(rec Record) {
	if e == nil || e.failed {
		return
	}
	if err := e.w.Write(rec); err != nil {
		e.failed = true
		e.logger.Warn("export disabled", "error", err)
		e.w.Abort()
	}
}

// Abort discards the export file.
func (e *exportSink) Abort() {
	if e.failed {
		return
	}
	e.w.Abort()
}

// Commit finishes the export file. A previously failed export reports an error.
func (e *exportSink) Commit() (string, error) {
	if e.failed {
		return "", errors.New("export aborted after write failure")
	}
	return e.w.Commit()
}
