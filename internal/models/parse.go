package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

// DateLayout is the day-first layout used for every exported date
const DateLayout = "02/01/2006"

// dayFirstLayouts are tried before anything else so that 05/07/2023 reads as
// 5 July. Single-digit days and months are accepted by the "2" and "1" verbs.
var dayFirstLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	"2.1.06",
	"2/1/2006 15:04:05",
	"2-1-2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006 15:04",
	"2/1/06 15:04",
	"2/1/2006 3:04:05 PM",
	"2/1/2006 3:04 PM",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"2 January 2006",
}

// fallbackLayouts catch ISO and month-first values the day-first pass rejects
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/1/2",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
}

// ParseTimeWithFormats parses a date trying day-first layouts, then common
// ISO and month-first layouts, then whatever format dateparse can detect.
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if IsBlank(s) {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	for _, layouts := range [][]string{dayFirstLayouts, fallbackLayouts} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, err)
	}
	return t, nil
}

// ParseDecimalFromString keeps only digits and '.' before parsing, so currency
// symbols, thousands separators and stray text are discarded.
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)

	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("amount '%s' contains no digits", s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// FormatDate renders a date as dd/mm/yyyy, or "" when absent
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// DaysBetween returns the whole calendar days from b to a, ignoring time of day
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(da.Sub(db).Hours() / 24)
}

// CompareAmountsWithTolerance reports whether |a-b| <= tolerance
func CompareAmountsWithTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// CompareDatesWithTolerance reports whether the two dates are at most
// toleranceDays calendar days apart
func CompareDatesWithTolerance(a, b time.Time, toleranceDays int) bool {
	diff := DaysBetween(a, b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= toleranceDays
}
