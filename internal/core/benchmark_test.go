package core

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
)

// ============================================================================
// Tokenizer and Coercion Benchmarks
// ============================================================================

// BenchmarkParseLine benchmarks splitting a data line into fields.
// This runs once per line of every import.
func BenchmarkParseLine(b *testing.B) {
	lines := []struct {
		name string
		line string
	}{
		{"plain", "John,Doe,34,12 Main St,Springfield,male"},
		{"quoted", `"Smith, Jr.",Bob,71,"Apt ""4B""",Shelbyville,`},
		{"wide", strings.Repeat("value,", 49) + "last"},
	}

	for _, tt := range lines {
		b.Run(tt.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				ParseLine(tt.line)
			}
		})
	}
}

// BenchmarkCoerce benchmarks the coercion ladder on each kind of cell.
func BenchmarkCoerce(b *testing.B) {
	cells := []string{"42", "-3.5", "true", "FALSE", "hello world", ""}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, c := range cells {
			CoerceCell(c)
		}
	}
}

// ============================================================================
// Row Mapping Benchmarks
// ============================================================================

// BenchmarkMapRow benchmarks turning a tokenized row into a Record.
func BenchmarkMapRow(b *testing.B) {
	h := NewHeaderIndex("name.firstName,name.lastName,age,address.line1,address.city,gender,tags.primary")
	row := ParseLine("John,Doe,34,12 Main St,Springfield,male,vip")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MapRow(h, row)
	}
}

// BenchmarkSetPath benchmarks nested key insertion.
func BenchmarkSetPath(b *testing.B) {
	paths := [][]string{
		{"address", "line1"},
		{"address", "line2"},
		{"address", "geo", "lat"},
		{"address", "geo", "lng"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := NewMapping()
		for _, p := range paths {
			m.SetPath(p, IntValue(1))
		}
	}
}

// ============================================================================
// Streaming Benchmarks
// ============================================================================

// BenchmarkLineReader benchmarks line iteration over a large input.
func BenchmarkLineReader(b *testing.B) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, bytes.Repeat([]byte("John,Doe,34,Springfield\r\n"), 10000)...)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lr := NewLineReader(bytes.NewReader(data), int64(len(data)))
		for {
			if _, err := lr.Next(); err != nil {
				break
			}
		}
	}
}

// ============================================================================
// End-to-end Benchmarks
// ============================================================================

// discardSink accepts every batch.
type discardSink struct{}

func (discardSink) InsertBatch(context.Context, []Record) error { return nil }

// BenchmarkImporter benchmarks a full import against a sink that does nothing,
// isolating parse, map and batch costs from the database.
func BenchmarkImporter(b *testing.B) {
	for _, rows := range []int{1000, 10000} {
		b.Run(fmt.Sprintf("rows=%d", rows), func(b *testing.B) {
			var sb strings.Builder
			sb.WriteString("name.firstName,name.lastName,age,address.city,gender\n")
			for i := 0; i < rows; i++ {
				fmt.Fprintf(&sb, "First%d,Last%d,%d,City%d,x\n", i, i, i%90, i%10)
			}
			path := writeCSV(b, sb.String())
			im := NewImporter(discardSink{}, nil)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := im.Import(context.Background(), path, Options{}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkBuildInsert benchmarks statement construction for a full batch.
func BenchmarkBuildInsert(b *testing.B) {
	batch := make([]Record, DefaultBatchSize)
	for i := range batch {
		addr := NewMapping()
		addr.Set("city", StringValue("Springfield"))
		batch[i] = Record{Name: "John Doe", Age: i % 90, Address: addr}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := buildInsert(postgresDialect, `"public"."users"`, batch); err != nil {
			b.Fatal(err)
		}
	}
}
