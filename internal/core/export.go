package core

// export.go writes the accepted records of an import to a JSON side file.
//
// Records are streamed to disk as they are accepted, so memory does not grow
// with the file. The file only survives a successful import: Abort removes
// the partial output.

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// ExportFilePrefix starts every export file name.
const ExportFilePrefix = "converted_"

// Exporter opens one export per import.
type Exporter interface {
	Start(startedAt time.Time) (ExportWriter, error)
}

// ExportWriter receives accepted records for a single import.
type ExportWriter interface {
	Write(rec Record) error
	// Commit finishes the file and returns its path.
	Commit() (string, error)
	// Abort discards whatever was written.
	Abort()
}

// FileExporter writes converted_<timestamp>.json files into Dir.
type FileExporter struct {
	Dir string
}

// NewFileExporter creates an exporter writing into dir.
func NewFileExporter(dir string) *FileExporter {
	return &FileExporter{Dir: dir}
}

// ExportFileName returns the file name used for an import started at t:
// the UTC ISO-8601 timestamp with ':' and '.' replaced by '-'.
func ExportFileName(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return ExportFilePrefix + ts + ".json"
}

// Start creates the export directory if needed and opens the output file.
func (e *FileExporter) Start(startedAt time.Time) (ExportWriter, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(e.Dir, ExportFileName(startedAt))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}

	w := &fileExportWriter{
		path: path,
		f:    f,
		bw:   bufio.NewWriter(f),
	}
	if _, err := w.bw.WriteString("["); err != nil {
		w.Abort()
		return nil, fmt.Errorf("write export file: %w", err)
	}
	return w, nil
}

// fileExportWriter produces the same layout as a two-space indented JSON
// array: one element per record, nested objects indented further.
type fileExportWriter struct {
	path  string
	f     *os.File
	bw    *bufio.Writer
	count int
	buf   bytes.Buffer
}

func (w *fileExportWriter) Write(rec Record) error {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	w.buf.Reset()
	if w.count > 0 {
		w.buf.WriteByte(',')
	}
	w.buf.WriteString("\n  ")
	if err := json.Indent(&w.buf, data, "  ", "  "); err != nil {
		return fmt.Errorf("indent record: %w", err)
	}

	if _, err := w.bw.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	w.count++
	return nil
}

func (w *fileExportWriter) Commit() (string, error) {
	closing := "]"
	if w.count > 0 {
		closing = "\n]"
	}
	if _, err := w.bw.WriteString(closing); err != nil {
		w.Abort()
		return "", fmt.Errorf("write export file: %w", err)
	}
	if err := w.bw.Flush(); err != nil {
		w.Abort()
		return "", fmt.Errorf("flush export file: %w", err)
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.path)
		return "", fmt.Errorf("close export file: %w", err)
	}
	return w.path, nil
}

func (w *fileExportWriter) Abort() {
	w.f.Close()
	os.Remove(w.path)
}
