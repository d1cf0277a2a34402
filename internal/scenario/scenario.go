// Package scenario generates GSTR-2A and books ledgers with a known set of
// planted discrepancies, for demos, load tests and end-to-end checks.
package scenario

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"gst-reconciliation-service/internal/models"
)

// Kind is the variation planted on one invoice
type Kind int

const (
	KindExact Kind = iota
	KindAmountChanged
	KindDateShifted
	KindMissingInBooks
	KindMissingInGSTR2A
	KindDuplicateInGSTR2A
	KindDuplicateInBooks
	KindTaxChanged
	KindWithinTolerance
	KindExactOther
)

// kinds cycles over every invoice index, i%len(kinds)
var kinds = []Kind{
	KindExact,
	KindAmountChanged,
	KindDateShifted,
	KindMissingInBooks,
	KindMissingInGSTR2A,
	KindDuplicateInGSTR2A,
	KindDuplicateInBooks,
	KindTaxChanged,
	KindWithinTolerance,
	KindExactOther,
}

// Scenario is a generated pair of ledgers and the discrepancy counts a run
// with default settings must report, keyed by primary tag.
type Scenario struct {
	Seed     int64
	A        []models.Record
	B        []models.Record
	Expected map[models.IssueTag]int
}

// Generator creates scenarios. The same Seed and Invoices always produce the
// same records.
type Generator struct {
	Seed      int64
	Invoices  int
	Suppliers int
	Period    time.Time
}

// NewGenerator returns a generator for n invoices of July 2023
func NewGenerator(seed int64, n int) *Generator {
	return &Generator{
		Seed:      seed,
		Invoices:  n,
		Suppliers: 8,
		Period:    time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

var (
	rate     = decimal.RequireFromString("0.18")
	half     = decimal.RequireFromString("0.5")
	bumpBig  = decimal.NewFromInt(50)
	bumpTiny = decimal.RequireFromString("0.50")
)

// Generate builds the ledgers. Variations are planted by invoice index so the
// expected counts follow from Invoices alone; amounts, dates and suppliers
// come from the seeded source.
func (g *Generator) Generate() *Scenario {
	rng := rand.New(rand.NewSource(g.Seed))
	suppliers := make([]string, g.Suppliers)
	for i := range suppliers {
		suppliers[i] = randomGSTIN(rng, i)
	}

	s := &Scenario{
		Seed:     g.Seed,
		Expected: make(map[models.IssueTag]int),
	}

	for i := 0; i < g.Invoices; i++ {
		base := g.invoice(rng, i, suppliers[rng.Intn(len(suppliers))])
		other := base.Clone()

		switch kinds[i%len(kinds)] {
		case KindExact, KindExactOther:
			s.add(base, other)

		case KindAmountChanged:
			other.TotalAmount = other.TotalAmount.Add(bumpBig)
			s.add(base, other)
			s.Expected[models.TagAmountMismatch]++

		case KindDateShifted:
			shifted := other.InvoiceDate.AddDate(0, 0, 7)
			other.InvoiceDate = &shifted
			s.add(base, other)
			s.Expected[models.TagDateMismatch]++

		case KindMissingInBooks:
			s.A = append(s.A, base)
			s.Expected[models.TagMissingInB]++

		case KindMissingInGSTR2A:
			s.B = append(s.B, other)
			s.Expected[models.TagMissingInA]++

		case KindDuplicateInGSTR2A:
			s.add(base, other)
			s.A = append(s.A, base.Clone())
			s.Expected[models.TagDuplicateInA] += 2

		case KindDuplicateInBooks:
			s.add(base, other)
			s.B = append(s.B, other.Clone())
			s.Expected[models.TagDuplicateInB] += 2

		case KindTaxChanged:
			other.IGST = other.IGST.Add(bumpBig)
			s.add(base, other)
			s.Expected[models.TagTaxMismatch]++

		case KindWithinTolerance:
			shifted := other.InvoiceDate.AddDate(0, 0, 2)
			other.InvoiceDate = &shifted
			other.TotalAmount = other.TotalAmount.Add(bumpTiny)
			s.add(base, other)
		}
	}
	return s
}

// Total returns the number of discrepancies the scenario plants
func (s *Scenario) Total() int {
	total := 0
	for _, n := range s.Expected {
		total += n
	}
	return total
}

func (s *Scenario) add(a, b models.Record) {
	s.A = append(s.A, a)
	s.B = append(s.B, b)
}

func (g *Generator) invoice(rng *rand.Rand, i int, supplier string) models.Record {
	on := g.Period.AddDate(0, 0, rng.Intn(28))
	taxable := decimal.NewFromInt(int64(1000 + rng.Intn(99000)))
	tax := taxable.Mul(rate).Round(2)

	r := models.Record{
		InvoiceNo:     fmt.Sprintf("INV-%d-%05d", g.Period.Year(), i+1),
		InvoiceDate:   &on,
		SupplierGSTIN: supplier,
		TaxableValue:  taxable,
		CGST:          decimal.Zero,
		SGST:          decimal.Zero,
		IGST:          decimal.Zero,
		TotalAmount:   taxable.Add(tax),
		PlaceOfSupply: supplier[:2],
	}

	// intra-state supplies split the tax into CGST and SGST
	if rng.Intn(2) == 0 {
		r.CGST = tax.Mul(half).Round(2)
		r.SGST = tax.Sub(r.CGST)
	} else {
		r.IGST = tax
	}
	return r
}

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// randomGSTIN returns a well-formed GSTIN; n keeps suppliers distinct
func randomGSTIN(rng *rand.Rand, n int) string {
	pan := make([]byte, 5)
	for i := range pan {
		pan[i] = letters[rng.Intn(len(letters))]
	}
	return fmt.Sprintf("%02d%s%04d%c1Z%d",
		1+rng.Intn(37), pan, n%10000, letters[rng.Intn(len(letters))], rng.Intn(10))
}
