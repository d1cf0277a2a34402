package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which ledger a record or discrepancy belongs to
type Source string

const (
	// SourceA is the regulatory statement (GSTR-2A)
	SourceA Source = "A"
	// SourceB is the internal purchase books
	SourceB Source = "B"
	// SourceBoth marks a discrepancy found on an invoice present in both ledgers
	SourceBoth Source = "Both"
)

// String returns the string representation of Source
func (s Source) String() string {
	return string(s)
}

// IsValid reports whether s names a single ledger
func (s Source) IsValid() bool {
	return s == SourceA || s == SourceB
}

// Name returns the human-readable dataset name used in messages
func (s Source) Name() string {
	switch s {
	case SourceA:
		return "GSTR-2A"
	case SourceB:
		return "Books"
	default:
		return string(s)
	}
}

// Other returns the opposite ledger
func (s Source) Other() Source {
	if s == SourceA {
		return SourceB
	}
	return SourceA
}

// ParseSource parses a source label, accepting the dataset names as aliases
func ParseSource(s string) (Source, error) {
	switch s {
	case "A", "a", "gstr2a", "GSTR-2A":
		return SourceA, nil
	case "B", "b", "books", "Books":
		return SourceB, nil
	case "Both", "both":
		return SourceBoth, nil
	default:
		return "", fmt.Errorf("invalid source '%s': must be A, B or Both", s)
	}
}

// Record is one normalized invoice row. Absent dates are nil and absent
// amounts are zero; neither is ever undefined.
type Record struct {
	InvoiceNo     string          `json:"invoice_no"`
	InvoiceDate   *time.Time      `json:"invoice_date"`
	SupplierGSTIN string          `json:"supplier_gstin"`
	TaxableValue  decimal.Decimal `json:"taxable_value"`
	CGST          decimal.Decimal `json:"cgst"`
	SGST          decimal.Decimal `json:"sgst"`
	IGST          decimal.Decimal `json:"igst"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PlaceOfSupply string          `json:"place_of_supply"`

	// BookEntryDate is only populated for Source B records
	BookEntryDate *time.Time `json:"book_entry_date,omitempty"`
}

// TaxTotal returns CGST + SGST + IGST
func (r *Record) TaxTotal() decimal.Decimal {
	return r.CGST.Add(r.SGST).Add(r.IGST)
}

// MatchKey returns the record's match key and whether it is defined
func (r *Record) MatchKey() (string, bool) {
	return BuildMatchKey(r.InvoiceNo, r.SupplierGSTIN)
}

// String returns a string representation of the Record
func (r *Record) String() string {
	return fmt.Sprintf("Record{Invoice: %s, GSTIN: %s, Date: %s, Total: %s}",
		r.InvoiceNo, r.SupplierGSTIN, FormatDate(r.InvoiceDate), r.TotalAmount.StringFixed(2))
}

// Equals compares two records field by field
func (r *Record) Equals(other *Record) bool {
	if other == nil {
		return false
	}

	return r.InvoiceNo == other.InvoiceNo &&
		r.SupplierGSTIN == other.SupplierGSTIN &&
		sameDate(r.InvoiceDate, other.InvoiceDate) &&
		r.TaxableValue.Equal(other.TaxableValue) &&
		r.CGST.Equal(other.CGST) &&
		r.SGST.Equal(other.SGST) &&
		r.IGST.Equal(other.IGST) &&
		r.TotalAmount.Equal(other.TotalAmount) &&
		r.PlaceOfSupply == other.PlaceOfSupply &&
		sameDate(r.BookEntryDate, other.BookEntryDate)
}

// Clone returns a deep copy; the date pointers are not shared.
func (r Record) Clone() Record {
	r.InvoiceDate = copyDate(r.InvoiceDate)
	r.BookEntryDate = copyDate(r.BookEntryDate)
	return r
}

// MarshalJSON implements custom JSON marshaling for Record
func (r *Record) MarshalJSON() ([]byte, error) {
	type Alias Record
	return json.Marshal(&struct {
		InvoiceDate   string `json:"invoice_date"`
		BookEntryDate string `json:"book_entry_date,omitempty"`
		TaxableValue  string `json:"taxable_value"`
		CGST          string `json:"cgst"`
		SGST          string `json:"sgst"`
		IGST          string `json:"igst"`
		TotalAmount   string `json:"total_amount"`
		*Alias
	}{
		InvoiceDate:   FormatDate(r.InvoiceDate),
		BookEntryDate: FormatDate(r.BookEntryDate),
		TaxableValue:  r.TaxableValue.StringFixed(2),
		CGST:          r.CGST.StringFixed(2),
		SGST:          r.SGST.StringFixed(2),
		IGST:          r.IGST.StringFixed(2),
		TotalAmount:   r.TotalAmount.StringFixed(2),
		Alias:         (*Alias)(r),
	})
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func copyDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
