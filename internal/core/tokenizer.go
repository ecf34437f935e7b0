package core

import "strings"

const (
	fieldSeparator = ','
	quoteChar      = '"'
)

// ParseLine splits one line (without its terminator) into raw fields.
//
// Quoted fields keep their content verbatim, "" inside quotes yields a single
// quote, and anything between the closing quote and the next comma is
// dropped. Unquoted fields are trimmed. A trailing comma does not produce a
// final empty field.
func ParseLine(line string) []string {
	var fields []string
	n := len(line)
	i := 0

	for i < n {
		if line[i] == quoteChar {
			i++
			var b strings.Builder
			for i < n {
				if line[i] == quoteChar {
					if i+1 < n && line[i+1] == quoteChar {
						b.WriteByte(quoteChar)
						i += 2
						continue
					}
					i++
					break
				}
				b.WriteByte(line[i])
				i++
			}
			for i < n && line[i] != fieldSeparator {
				i++
			}
			fields = append(fields, b.String())
		} else {
			start := i
			for i < n && line[i] != fieldSeparator {
				i++
			}
			fields = append(fields, strings.TrimSpace(line[start:i]))
		}

		if i < n && line[i] == fieldSeparator {
			i++
		}
	}

	return fields
}
