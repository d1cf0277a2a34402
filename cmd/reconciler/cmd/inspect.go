package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gst-reconciliation-service/internal/ledger"
	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/summary"
	"gst-reconciliation-service/pkg/errors"
)

type inspectOptions struct {
	*rootOptions
	ledgerFlags
}

func newInspectCmd(root *rootOptions) *cobra.Command {
	o := &inspectOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the contents of ledger files",
		Long: `Inspect loads GSTR-2A and/or books files and prints, per ledger, the
record count, invoice period, taxable value, tax and number of suppliers.

Examples:
  gstrecon inspect --gstr2a gstr2a.xlsx
  gstrecon inspect -a jul.csv -a aug.csv -b books.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}
	o.ledgerFlags.register(cmd)
	return cmd
}

func (o *inspectOptions) run(cmd *cobra.Command) error {
	if len(o.filesA) == 0 && len(o.filesB) == 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "files", "",
			fmt.Errorf("no ledger files given")).
			WithSuggestion("Pass --gstr2a and/or --books")
	}

	for _, source := range []models.Source{models.SourceA, models.SourceB} {
		if paths, _ := o.files(source); len(paths) == 0 {
			continue
		}
		l, err := loadLedger(cmd.Context(), o.rootOptions, &o.ledgerFlags, source)
		if err != nil {
			return err
		}
		printStats(cmd.OutOrStdout(), l.Stats())
	}
	return nil
}

func printStats(w io.Writer, s ledger.Stats) {
	period := "N/A (No valid dates)"
	if s.PeriodStart != nil && s.PeriodEnd != nil {
		period = fmt.Sprintf("%s to %s", models.FormatDate(s.PeriodStart), models.FormatDate(s.PeriodEnd))
	}

	fmt.Fprintf(w, "%s Data Summary\n", s.Source.Name())
	fmt.Fprintf(w, "- Records: %d (%d with a match key)\n", s.Records, s.KeyedRecords)
	fmt.Fprintf(w, "- Invoice Period: %s\n", period)
	fmt.Fprintf(w, "- Total Taxable Value: %s\n", summary.Rupees(s.TotalTaxableValue))
	fmt.Fprintf(w, "- Total Tax: %s\n", summary.Rupees(s.TotalTax))
	fmt.Fprintf(w, "- Total Amount: %s\n", summary.Rupees(s.TotalAmount))
	fmt.Fprintf(w, "- Unique Suppliers: %d\n\n", s.UniqueSuppliers)
}
