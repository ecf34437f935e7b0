package core

import "strings"

// Reserved header names with dedicated record fields.
const (
	HeaderFirstName     = "name.firstName"
	HeaderLastName      = "name.lastName"
	HeaderAge           = "age"
	addressHeaderPrefix = "address."
)

// MapRow turns one tokenized row into a Record using the header index.
//
// It returns false when the row must be rejected: the header lacks a name
// component or the age is missing or not numeric. Rows shorter than the
// header are padded with empty cells. MapRow has no side effects.
func MapRow(h HeaderIndex, row []string) (Record, bool) {
	address := NewMapping()
	info := NewMapping()

	var (
		firstName, lastName       string
		hasFirstName, hasLastName bool
		age                       int
		hasAge                    bool
	)

	for i := 0; i < h.Len(); i++ {
		name := h.Name(i)
		if name == "" {
			continue
		}

		raw := ""
		if i < len(row) {
			raw = row[i]
		}
		val := CoerceCell(raw)

		switch {
		case name == HeaderFirstName:
			firstName, hasFirstName = strings.TrimSpace(val.Text()), true
		case name == HeaderLastName:
			lastName, hasLastName = strings.TrimSpace(val.Text()), true
		case name == HeaderAge:
			if val.IsNull() {
				age, hasAge = 0, false
			} else {
				age, hasAge = parseLeadingInt(val.Text())
			}
		case strings.HasPrefix(name, addressHeaderPrefix):
			address.SetPath(strings.Split(name, ".")[1:], val)
		case strings.Contains(name, "."):
			info.SetPath(h.KeyPath(i), val)
		default:
			info.Set(name, val)
		}
	}

	if !hasFirstName || !hasLastName || !hasAge {
		return Record{}, false
	}

	rec := Record{
		Name: strings.TrimSpace(firstName + " " + lastName),
		Age:  age,
	}
	if address.Len() > 0 {
		rec.Address = address
	}
	if info.Len() > 0 {
		rec.AdditionalInfo = info
	}
	return rec, true
}
