package core

// input.go turns an input file into a sequence of logical lines.
//
// Lines are read one at a time with a bufio.Reader, so memory stays bounded
// by the longest line rather than the file size. Each line is normalized:
//
//   - a UTF-8 BOM (0xEF 0xBB 0xBF) at the start of the file is dropped
//   - "\n", "\r\n" and a lone "\r" all end a line
//   - invalid UTF-8 bytes are replaced with '?'
//
// Newlines are ASCII, so splitting on '\n' never cuts a multi-byte rune and
// sanitizing per line is equivalent to sanitizing the whole stream.

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readBufferSize is the bufio buffer used for input files.
const readBufferSize = 64 * 1024

// countingReader tracks bytes read so progress can be logged.
type countingReader struct {
	r     io.Reader
	n     atomic.Int64
	total int64 // 0 when unknown
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// BytesRead returns the number of bytes consumed from the underlying reader.
func (c *countingReader) BytesRead() int64 { return c.n.Load() }

// Progress returns the read progress as a percentage (0-100), or 0 when the
// total size is unknown.
func (c *countingReader) Progress() int {
	if c.total <= 0 {
		return 0
	}
	p := int(c.BytesRead() * 100 / c.total)
	if p > 100 {
		p = 100
	}
	return p
}

// LineReader yields normalized lines from an input stream.
type LineReader struct {
	counter *countingReader
	br      *bufio.Reader
	started bool
	lineNo  int
	pending []string // lines split off a raw read at a lone "\r"
}

// NewLineReader wraps r. size is the total input size in bytes, or 0 if
// unknown; it is only used for progress reporting.
func NewLineReader(r io.Reader, size int64) *LineReader {
	c := &countingReader{r: r, total: size}
	return &LineReader{
		counter: c,
		br:      bufio.NewReaderSize(c, readBufferSize),
	}
}

// Next returns the next line without its terminator. It returns io.EOF
// once the input is exhausted; a final line without a trailing newline is
// still returned first.
func (lr *LineReader) Next() (string, error) {
	if !lr.started {
		lr.started = true
		if err := lr.skipBOM(); err != nil {
			return "", err
		}
	}

	if len(lr.pending) == 0 {
		raw, err := lr.br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if errors.Is(err, io.EOF) && raw == "" {
			return "", io.EOF
		}

		line := strings.TrimSuffix(raw, "\n")
		line = strings.TrimSuffix(line, "\r")
		lr.pending = strings.Split(line, "\r")
	}

	line := lr.pending[0]
	lr.pending = lr.pending[1:]
	lr.lineNo++
	return sanitizeUTF8(line), nil
}

// LineNumber returns the 1-based number of the line last returned by Next.
func (lr *LineReader) LineNumber() int { return lr.lineNo }

// BytesRead returns the number of input bytes consumed so far.
func (lr *LineReader) BytesRead() int64 { return lr.counter.BytesRead() }

// Progress returns the read progress as a percentage of the input size.
func (lr *LineReader) Progress() int { return lr.counter.Progress() }

func (lr *LineReader) skipBOM() error {
	head, err := lr.br.Peek(len(utf8BOM))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		_, err = lr.br.Discard(len(utf8BOM))
		return err
	}
	return nil
}

// sanitizeUTF8 replaces every invalid UTF-8 byte in s with '?'.
// The replacement is one byte wide so the line length never grows.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte('?')
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}
