package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ParseWarningCollector gathers the non-fatal parse degradations raised while
// normalizing one dataset. Nothing is dropped; formatting caps the detail.
type ParseWarningCollector struct {
	source   string
	warnings []*ReconcilerError
}

// NewParseWarningCollector creates a collector for the named dataset
func NewParseWarningCollector(source string) *ParseWarningCollector {
	return &ParseWarningCollector{
		source:   source,
		warnings: make([]*ReconcilerError, 0),
	}
}

// Source returns the dataset name the collector was created for
func (c *ParseWarningCollector) Source() string {
	return c.source
}

// Add records a warning. Nil warnings are ignored.
func (c *ParseWarningCollector) Add(w *ReconcilerError) {
	if w == nil {
		return
	}
	c.warnings = append(c.warnings, w)
}

// HasWarnings returns true if any warnings have been collected
func (c *ParseWarningCollector) HasWarnings() bool {
	return len(c.warnings) > 0
}

// Warnings returns the collected warnings in the order they were raised
func (c *ParseWarningCollector) Warnings() []*ReconcilerError {
	out := make([]*ReconcilerError, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Summary returns an error summary for all collected warnings
func (c *ParseWarningCollector) Summary() *ErrorSummary {
	return NewErrorSummary(c.Warnings())
}

// Clear drops all collected warnings
func (c *ParseWarningCollector) Clear() {
	c.warnings = c.warnings[:0]
}

// FormatWarningsForUser renders warnings grouped by code, showing the first
// few messages of each group.
func FormatWarningsForUser(warnings []*ReconcilerError) string {
	if len(warnings) == 0 {
		return "No warnings"
	}

	if len(warnings) == 1 {
		return fmt.Sprintf("WARNING: %s", warnings[0].Message)
	}

	byCode := make(map[ErrorCode][]*ReconcilerError)
	var codes []string
	for _, w := range warnings {
		if _, seen := byCode[w.Code]; !seen {
			codes = append(codes, string(w.Code))
		}
		byCode[w.Code] = append(byCode[w.Code], w)
	}
	sort.Strings(codes)

	var lines []string
	lines = append(lines, fmt.Sprintf("Found %d warnings:", len(warnings)))

	maxDetailed := 3
	for _, code := range codes {
		group := byCode[ErrorCode(code)]
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%s (%d)", code, len(group)))
		for i, w := range group {
			if i == maxDetailed {
				lines = append(lines, fmt.Sprintf("  ... and %d more", len(group)-maxDetailed))
				break
			}
			lines = append(lines, fmt.Sprintf("  - %s", w.Message))
		}
	}

	return strings.Join(lines, "\n")
}

// SuggestionsForCommonWarnings provides suggestions for common data issues
func SuggestionsForCommonWarnings() string {
	return `Common solutions for data warnings:

• Invalid dates: use DD/MM/YYYY (15/07/2023) or YYYY-MM-DD
• Invalid amounts: amounts may carry currency symbols and separators, but need digits
• Invalid GSTIN: a GSTIN has 15 characters, e.g. 22AAAAA0000A1Z5
• Unknown columns: check the names used in the mapping section of your config

Run the template command for a ready-made layout.`
}
