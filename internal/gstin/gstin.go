// Package gstin cleanses supplier GST identification numbers into the fixed
// 15 character form used for matching.
package gstin

import (
	"regexp"
	"strings"

	"gst-reconciliation-service/internal/models"
)

// Length is the length of every non-empty cleansed identifier
const Length = 15

// PadChar fills identifiers shorter than Length
const PadChar = 'X'

var wellFormed = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// Result is the outcome of cleansing one identifier
type Result struct {
	Value      string
	WellFormed bool
}

// Clean trims, uppercases and strips everything outside [A-Z0-9], then
// truncates or right-pads with X to 15 characters. Blank input and null
// placeholders yield "". Malformed identifiers are still returned, with
// WellFormed false, so the caller can warn and keep the row.
func Clean(raw string) Result {
	if models.IsBlank(raw) {
		return Result{}
	}

	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	value := b.String()
	if value == "" {
		return Result{}
	}

	if len(value) > Length {
		value = value[:Length]
	} else if len(value) < Length {
		value += strings.Repeat(string(PadChar), Length-len(value))
	}

	return Result{Value: value, WellFormed: wellFormed.MatchString(value)}
}

// Trim is the cleanse-disabled path: surrounding whitespace is removed and
// null placeholders become "", nothing else changes.
func Trim(raw string) Result {
	if models.IsBlank(raw) {
		return Result{}
	}
	value := strings.TrimSpace(raw)
	return Result{Value: value, WellFormed: wellFormed.MatchString(value)}
}

// IsWellFormed reports whether s matches the GSTIN pattern exactly
func IsWellFormed(s string) bool {
	return wellFormed.MatchString(s)
}

// StateCode returns the two digit state prefix, or "" when absent
func StateCode(s string) string {
	if len(s) < 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return ""
	}
	return s[:2]
}
