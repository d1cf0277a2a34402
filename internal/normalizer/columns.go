package normalizer

import (
	"regexp"
	"strings"

	"gst-reconciliation-service/internal/models"
)

// Canonical column names of the ledger schema
const (
	ColInvoiceNo     = "invoice_no"
	ColInvoiceDate   = "invoice_date"
	ColSupplierGSTIN = "supplier_gstin"
	ColTaxableValue  = "taxable_value"
	ColCGST          = "cgst"
	ColSGST          = "sgst"
	ColIGST          = "igst"
	ColTotalAmount   = "total_amount"
	ColPlaceOfSupply = "place_of_supply"
	ColBookEntryDate = "book_entry_date"
)

var baseColumns = []string{
	ColInvoiceNo,
	ColInvoiceDate,
	ColSupplierGSTIN,
	ColTaxableValue,
	ColCGST,
	ColSGST,
	ColIGST,
	ColTotalAmount,
	ColPlaceOfSupply,
}

// keyColumns must be locatable in any non-empty table
var keyColumns = []string{ColInvoiceNo, ColSupplierGSTIN}

// synonyms lists the header variants recognized for each canonical column.
// Variants are compared after NormalizeHeader, so spacing and punctuation
// do not matter.
var synonyms = map[string][]string{
	ColInvoiceNo:     {"invoice no", "invoiceno", "bill no", "billno", "invoice"},
	ColInvoiceDate:   {"invoice date", "invoicedate", "bill date", "billdate", "date"},
	ColSupplierGSTIN: {"supplier gstin", "suppliergstin", "gstin", "party gstin", "receiver gstin"},
	ColTaxableValue:  {"taxable value", "taxablevalue", "value", "net amount"},
	ColCGST:          {"cgst", "central tax"},
	ColSGST:          {"sgst", "state tax"},
	ColIGST:          {"igst", "integrated tax"},
	ColTotalAmount:   {"total amount", "totalamount", "amount", "gross amount"},
	ColPlaceOfSupply: {"place of supply", "placeofsupply", "pos"},
	ColBookEntryDate: {"book entry date", "bookentrydate", "entry date", "accounting date"},
}

// displayNames are the headers written to templates
var displayNames = map[string]string{
	ColInvoiceNo:     "Invoice No",
	ColInvoiceDate:   "Invoice Date",
	ColSupplierGSTIN: "Supplier GSTIN",
	ColTaxableValue:  "Taxable Value",
	ColCGST:          "CGST",
	ColSGST:          "SGST",
	ColIGST:          "IGST",
	ColTotalAmount:   "Total Amount",
	ColPlaceOfSupply: "Place of Supply",
	ColBookEntryDate: "Book Entry Date",
}

// PlaceholderHints are the example values shown in empty entry forms. A
// manual field still holding its hint counts as empty.
var PlaceholderHints = map[string]string{
	ColInvoiceNo:     "e.g. INV-2023-001",
	ColInvoiceDate:   "e.g. 15/07/2023",
	ColSupplierGSTIN: "e.g. 22AAAAA0000A1Z5",
	ColTaxableValue:  "e.g. 10000.00",
	ColCGST:          "e.g. 900.00",
	ColSGST:          "e.g. 900.00",
	ColIGST:          "e.g. 0.00",
	ColTotalAmount:   "e.g. 11800.00",
	ColPlaceOfSupply: "e.g. 07",
	ColBookEntryDate: "e.g. 16/07/2023",
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)

// NormalizeHeader trims, lower-cases and drops every non-alphanumeric
// character, so "Invoice No.", "invoice_no" and "INVOICENO" all compare equal.
func NormalizeHeader(s string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// ColumnsFor returns the canonical columns of a ledger in schema order
func ColumnsFor(source models.Source) []string {
	cols := make([]string, len(baseColumns), len(baseColumns)+1)
	copy(cols, baseColumns)
	if source == models.SourceB {
		cols = append(cols, ColBookEntryDate)
	}
	return cols
}

// DisplayName returns the human-readable header for a canonical column
func DisplayName(col string) string {
	if name, ok := displayNames[col]; ok {
		return name
	}
	return col
}

// IsCanonical reports whether col belongs to the schema of source
func IsCanonical(source models.Source, col string) bool {
	for _, c := range ColumnsFor(source) {
		if c == col {
			return true
		}
	}
	return false
}

// buildReverseSynonyms maps normalized variants to canonical names for the
// columns of one ledger.
func buildReverseSynonyms(columns []string) map[string]string {
	reverse := make(map[string]string)
	for _, col := range columns {
		for _, variant := range synonyms[col] {
			reverse[NormalizeHeader(variant)] = col
		}
		reverse[NormalizeHeader(col)] = col
	}
	return reverse
}
