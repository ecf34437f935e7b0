package core

// store_sql.go holds the SQL shared by the PostgreSQL and MySQL stores:
// the multi-row INSERT builder and the age bucket query.

import (
	"fmt"
	"math"
	"strings"

	"github.com/bytedance/sonic"
)

// insertColumns are written for every record, in this order.
var insertColumns = []string{"name", "age", "address", "additional_info"}

// paramsPerRecord is len(insertColumns).
const paramsPerRecord = 4

// insertDialect describes how one driver spells identifiers and placeholders.
type insertDialect struct {
	quoteIdent func(name string) string
	// rowPlaceholders returns the "(...)" group for the record whose first
	// parameter has the 1-based index first.
	rowPlaceholders func(first int) string
}

// buildInsert renders one INSERT statement covering the whole batch and
// returns it with the flattened arguments.
func buildInsert(d insertDialect, table string, batch []Record) (string, []any, error) {
	if len(batch) == 0 {
		return "", nil, fmt.Errorf("empty batch")
	}

	cols := make([]string, len(insertColumns))
	for i, c := range insertColumns {
		cols[i] = d.quoteIdent(c)
	}

	var b strings.Builder
	b.Grow(64 + len(batch)*32)
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(batch)*paramsPerRecord)
	for i, rec := range batch {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.rowPlaceholders(i*paramsPerRecord + 1))

		address, err := jsonParam(rec.Address)
		if err != nil {
			return "", nil, fmt.Errorf("encode address of record %d: %w", i+1, err)
		}
		info, err := jsonParam(rec.AdditionalInfo)
		if err != nil {
			return "", nil, fmt.Errorf("encode additional_info of record %d: %w", i+1, err)
		}
		args = append(args, rec.Name, rec.Age, address, info)
	}

	return b.String(), args, nil
}

// jsonParam encodes a mapping as a JSON text parameter. Nil becomes NULL.
func jsonParam(m *Mapping) (any, error) {
	if m == nil {
		return nil, nil
	}
	data, err := sonic.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// AgeCounts is the raw result of the age bucket query.
type AgeCounts struct {
	Total      int64
	Under20    int64
	From20To40 int64
	From40To60 int64
	Over60     int64
}

// ageCountsQuery buckets ages as <20, 20..40, 41..60, >60. It is valid for
// both PostgreSQL and MySQL; %s is the quoted table name.
const ageCountsQuery = `
	SELECT
		COALESCE(SUM(CASE WHEN age < 20 THEN 1 ELSE 0 END), 0) AS lt20,
		COALESCE(SUM(CASE WHEN age >= 20 AND age <= 40 THEN 1 ELSE 0 END), 0) AS between20_40,
		COALESCE(SUM(CASE WHEN age > 40 AND age <= 60 THEN 1 ELSE 0 END), 0) AS between40_60,
		COALESCE(SUM(CASE WHEN age > 60 THEN 1 ELSE 0 END), 0) AS gt60,
		COUNT(*) AS total
	FROM %s`

// AgeDistribution holds each bucket as a whole percentage of Total.
type AgeDistribution struct {
	Total      int64 `json:"-"`
	Under20    int   `json:"<20"`
	From20To40 int   `json:"20-40"`
	From40To60 int   `json:"40-60"`
	Over60     int   `json:">60"`
}

// Distribution converts counts to percentages rounded half up.
// An empty table yields all zeros.
func (c AgeCounts) Distribution() AgeDistribution {
	return AgeDistribution{
		Total:      c.Total,
		Under20:    percentOf(c.Under20, c.Total),
		From20To40: percentOf(c.From20To40, c.Total),
		From40To60: percentOf(c.From40To60, c.Total),
		Over60:     percentOf(c.Over60, c.Total),
	}
}

func percentOf(n, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(n)*100/float64(total) + 0.5))
}
