package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IssueTag classifies one problem found on an invoice
type IssueTag string

const (
	TagDuplicateInA       IssueTag = "duplicate-in-A"
	TagDuplicateInB       IssueTag = "duplicate-in-B"
	TagMissingInB         IssueTag = "missing-in-B"
	TagMissingInA         IssueTag = "missing-in-A"
	TagDateMismatch       IssueTag = "date-mismatch"
	TagAmountMismatch     IssueTag = "amount-mismatch"
	TagTaxMismatch        IssueTag = "tax-mismatch"
	TagIdentifierMismatch IssueTag = "identifier-mismatch"
)

// AllTags lists every issue tag in reporting order
var AllTags = []IssueTag{
	TagDuplicateInA,
	TagDuplicateInB,
	TagMissingInB,
	TagMissingInA,
	TagDateMismatch,
	TagAmountMismatch,
	TagTaxMismatch,
	TagIdentifierMismatch,
}

// String returns the string representation of IssueTag
func (t IssueTag) String() string {
	return string(t)
}

// IsValid reports whether t is one of the known tags
func (t IssueTag) IsValid() bool {
	for _, known := range AllTags {
		if t == known {
			return true
		}
	}
	return false
}

// Label returns the display label used in summaries
func (t IssueTag) Label() string {
	switch t {
	case TagDuplicateInA:
		return "Duplicates in GSTR-2A"
	case TagDuplicateInB:
		return "Duplicates in Books"
	case TagMissingInB:
		return "Invoices Missing in Books"
	case TagMissingInA:
		return "Invoices Missing in GSTR-2A"
	case TagDateMismatch:
		return "Date Mismatches"
	case TagAmountMismatch:
		return "Amount Mismatches"
	case TagTaxMismatch:
		return "Tax Mismatches"
	case TagIdentifierMismatch:
		return "GSTIN Mismatches"
	default:
		return string(t)
	}
}

// DuplicateTag returns the duplicate tag for a ledger
func DuplicateTag(s Source) IssueTag {
	if s == SourceB {
		return TagDuplicateInB
	}
	return TagDuplicateInA
}

// ParseIssueType splits a comma-joined issue type back into tags
func ParseIssueType(s string) ([]IssueTag, error) {
	var tags []IssueTag
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tag := IssueTag(part)
		if !tag.IsValid() {
			return nil, fmt.Errorf("unknown issue tag '%s'", part)
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("issue type is empty")
	}
	return tags, nil
}

// Discrepancy is one row of a reconciliation report
type Discrepancy struct {
	InvoiceNo  string          `json:"invoice_no"`
	Source     Source          `json:"source"`
	Tags       []IssueTag      `json:"tags"`
	DateA      *time.Time      `json:"date_a"`
	DateB      *time.Time      `json:"date_b"`
	GSTINA     string          `json:"gstin_a"`
	GSTINB     string          `json:"gstin_b"`
	AmountDiff decimal.Decimal `json:"amount_diff"`
	TaxDiff    decimal.Decimal `json:"tax_diff"`
	Details    string          `json:"details"`
}

// IssueType returns the tags joined with ", "
func (d *Discrepancy) IssueType() string {
	parts := make([]string, len(d.Tags))
	for i, t := range d.Tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// PrimaryTag returns the first tag, which decides the summary category
func (d *Discrepancy) PrimaryTag() IssueTag {
	if len(d.Tags) == 0 {
		return ""
	}
	return d.Tags[0]
}

// HasTag reports whether the discrepancy carries tag
func (d *Discrepancy) HasTag(tag IssueTag) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// String returns a string representation of the Discrepancy
func (d *Discrepancy) String() string {
	return fmt.Sprintf("Discrepancy{Invoice: %s, Source: %s, Issue: %s, AmountDiff: %s, TaxDiff: %s}",
		d.InvoiceNo, d.Source, d.IssueType(), d.AmountDiff.StringFixed(2), d.TaxDiff.StringFixed(2))
}

// MarshalJSON implements custom JSON marshaling for Discrepancy
func (d *Discrepancy) MarshalJSON() ([]byte, error) {
	type Alias Discrepancy
	return json.Marshal(&struct {
		IssueType  string `json:"issue_type"`
		DateA      string `json:"date_a"`
		DateB      string `json:"date_b"`
		AmountDiff string `json:"amount_diff"`
		TaxDiff    string `json:"tax_diff"`
		*Alias
	}{
		IssueType:  d.IssueType(),
		DateA:      FormatDate(d.DateA),
		DateB:      FormatDate(d.DateB),
		AmountDiff: d.AmountDiff.StringFixed(2),
		TaxDiff:    d.TaxDiff.StringFixed(2),
		Alias:      (*Alias)(d),
	})
}
