package core

// coerce.go converts raw cell text into typed values.
//
// The coercion ladder is fixed and evaluated top to bottom; the first rule
// whose pattern matches builds the value:
//
//	^-?\d+$          integer (falls back to float when it overflows int64)
//	^-?\d+\.\d+$     float
//	true / false     boolean, case-insensitive
//	anything else    the string, unchanged

import (
	"regexp"
	"strconv"
	"strings"
)

type coercionRule struct {
	pattern *regexp.Regexp
	build   func(s string) (Value, bool)
}

var (
	integerPattern = regexp.MustCompile(`^-?\d+$`)
	decimalPattern = regexp.MustCompile(`^-?\d+\.\d+$`)
	booleanPattern = regexp.MustCompile(`^(?i:true|false)$`)
)

var coercionLadder = []coercionRule{
	{pattern: integerPattern, build: buildInteger},
	{pattern: decimalPattern, build: buildFloat},
	{pattern: booleanPattern, build: buildBool},
}

// Coerce maps a trimmed, non-empty string to a typed scalar.
// Callers handle the empty string themselves (see CoerceCell).
func Coerce(s string) Value {
	for _, rule := range coercionLadder {
		if !rule.pattern.MatchString(s) {
			continue
		}
		if v, ok := rule.build(s); ok {
			return v
		}
	}
	return StringValue(s)
}

// CoerceCell trims a raw cell and coerces it. Empty cells become Null.
func CoerceCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NullValue()
	}
	return Coerce(s)
}

func buildInteger(s string) (Value, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return IntValue(i), true
	}
	// Out of int64 range: keep the magnitude as a float.
	return buildFloat(s)
}

func buildFloat(s string) (Value, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, false
	}
	return FloatValue(f), true
}

func buildBool(s string) (Value, bool) {
	return BoolValue(strings.EqualFold(s, "true")), true
}

// parseLeadingInt reads an optionally signed run of leading decimal digits,
// ignoring anything after it ("34abc" -> 34, "34.9" -> 34). It returns false
// when there are no digits or the number does not fit in an int.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
