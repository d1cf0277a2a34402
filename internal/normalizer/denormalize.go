package normalizer

import (
	"github.com/shopspring/decimal"

	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/parsers"
)

// Denormalize renders records back into a table with canonical headers.
// Normalizing the result yields the same records again.
func Denormalize(records []models.Record, source models.Source) *parsers.RawTable {
	columns := ColumnsFor(source)
	table := parsers.NewRawTable(source.Name(), columns...)

	for i := range records {
		table.AddRow(RowValues(&records[i], columns)...)
	}
	return table
}

// RowValues renders one record as strings in the order of columns
func RowValues(r *models.Record, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		switch col {
		case ColInvoiceNo:
			out[i] = r.InvoiceNo
		case ColInvoiceDate:
			out[i] = models.FormatDate(r.InvoiceDate)
		case ColSupplierGSTIN:
			out[i] = r.SupplierGSTIN
		case ColTaxableValue:
			out[i] = amountString(r.TaxableValue)
		case ColCGST:
			out[i] = amountString(r.CGST)
		case ColSGST:
			out[i] = amountString(r.SGST)
		case ColIGST:
			out[i] = amountString(r.IGST)
		case ColTotalAmount:
			out[i] = amountString(r.TotalAmount)
		case ColPlaceOfSupply:
			out[i] = r.PlaceOfSupply
		case ColBookEntryDate:
			out[i] = models.FormatDate(r.BookEntryDate)
		}
	}
	return out
}

// amountString keeps every significant digit; amounts are never negative
// after normalization, so no sign is lost on the way back in.
func amountString(d decimal.Decimal) string {
	if d.Exponent() >= -2 {
		return d.StringFixed(2)
	}
	return d.String()
}
