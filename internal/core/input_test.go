package core

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func readAllLines(t *testing.T, lr *LineReader) []string {
	t.Helper()
	var lines []string
	for {
		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			return lines
		}
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		lines = append(lines, line)
	}
}

func TestLineReader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []string
	}{
		{
			name:  "LF lines",
			input: []byte("a,b\n1,2\n"),
			want:  []string{"a,b", "1,2"},
		},
		{
			name:  "CRLF lines",
			input: []byte("a,b\r\n1,2\r\n"),
			want:  []string{"a,b", "1,2"},
		},
		{
			name:  "lone CR ends a line",
			input: []byte("a,b\r1,2\r3,4\n"),
			want:  []string{"a,b", "1,2", "3,4"},
		},
		{
			name:  "CR-only file",
			input: []byte("a,b\r1,2\r"),
			want:  []string{"a,b", "1,2"},
		},
		{
			name:  "CR before CRLF yields a blank line",
			input: []byte("a\r\r\nb"),
			want:  []string{"a", "", "b"},
		},
		{
			name:  "last line without newline",
			input: []byte("a,b\n1,2"),
			want:  []string{"a,b", "1,2"},
		},
		{
			name:  "blank lines are returned",
			input: []byte("a\n\n\r\nb\n"),
			want:  []string{"a", "", "", "b"},
		},
		{
			name:  "BOM is skipped",
			input: append([]byte{0xEF, 0xBB, 0xBF}, []byte("name,age\n")...),
			want:  []string{"name,age"},
		},
		{
			name:  "only BOM",
			input: []byte{0xEF, 0xBB, 0xBF},
			want:  nil,
		},
		{
			name:  "partial BOM is kept",
			input: []byte{0xEF, 0xBB, 'a', '\n'},
			want:  []string{"??a"},
		},
		{
			name:  "empty input",
			input: []byte{},
			want:  nil,
		},
		{
			name:  "invalid byte replaced",
			input: []byte{'h', 'e', 0x80, 'l', 'o', '\n'},
			want:  []string{"he?lo"},
		},
		{
			name:  "multibyte runes kept",
			input: []byte("Zoë,Ünal\n"),
			want:  []string{"Zoë,Ünal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLineReader(bytes.NewReader(tt.input), int64(len(tt.input)))
			got := readAllLines(t, lr)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines %q, want %d lines %q", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i+1, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLineReader_LongLine(t *testing.T) {
	long := strings.Repeat("x", readBufferSize*3)
	lr := NewLineReader(strings.NewReader(long+"\nend\n"), 0)

	got := readAllLines(t, lr)
	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2", len(got))
	}
	if got[0] != long {
		t.Errorf("long line length = %d, want %d", len(got[0]), len(long))
	}
	if lr.LineNumber() != 2 {
		t.Errorf("LineNumber() = %d, want 2", lr.LineNumber())
	}
}

func TestLineReader_LoneCRLineNumbers(t *testing.T) {
	lr := NewLineReader(strings.NewReader("h\r1\r2\n3\n"), 0)

	for i, want := range []string{"h", "1", "2", "3"} {
		line, err := lr.Next()
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		if line != want {
			t.Errorf("line %d = %q, want %q", i+1, line, want)
		}
		if lr.LineNumber() != i+1 {
			t.Errorf("LineNumber() = %d, want %d", lr.LineNumber(), i+1)
		}
	}
	if _, err := lr.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after last line = %v, want io.EOF", err)
	}
}

func TestLineReader_Progress(t *testing.T) {
	input := "a,b\n1,2\n"
	lr := NewLineReader(strings.NewReader(input), int64(len(input)))

	readAllLines(t, lr)

	if got := lr.BytesRead(); got != int64(len(input)) {
		t.Errorf("BytesRead() = %d, want %d", got, len(input))
	}
	if got := lr.Progress(); got != 100 {
		t.Errorf("Progress() = %d, want 100", got)
	}

	unknown := NewLineReader(strings.NewReader(input), 0)
	readAllLines(t, unknown)
	if got := unknown.Progress(); got != 0 {
		t.Errorf("Progress() with unknown size = %d, want 0", got)
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestLineReader_ReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	lr := NewLineReader(failingReader{err: boom}, 0)

	if _, err := lr.Next(); !errors.Is(err, boom) {
		t.Errorf("Next() error = %v, want %v", err, boom)
	}
}

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"caf\xc3\xa9", "café"},
		{"bad\xffbyte", "bad?byte"},
		{"\xe2\x82", "??"},
	}
	for _, tt := range tests {
		if got := sanitizeUTF8(tt.in); got != tt.want {
			t.Errorf("sanitizeUTF8(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
