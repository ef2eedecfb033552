package query

import "strings"

const (
	DefaultLimit  = 10
	DefaultOffset = 0

	// BuddhistEraOffset converts a Buddhist-calendar year to Gregorian.
	BuddhistEraOffset = 543
)

// Page is a LIMIT/OFFSET window.
type Page struct {
	Limit  int
	Offset int
}

// NewPage applies the defaults: a non-positive limit becomes DefaultLimit and
// a negative offset becomes 0.
func NewPage(limit, offset int) Page {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = DefaultOffset
	}
	return Page{Limit: limit, Offset: offset}
}

// Contains wraps s for a substring ILIKE match, escaping the LIKE
// metacharacters so user input matches literally.
func Contains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// Tokens splits a trimmed search string on whitespace.
func Tokens(s string) []string {
	return strings.Fields(strings.TrimSpace(s))
}

// GregorianYear converts a Buddhist-calendar year.
func GregorianYear(buddhistYear int) int {
	return buddhistYear - BuddhistEraOffset
}
