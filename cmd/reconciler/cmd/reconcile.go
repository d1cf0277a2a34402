package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"gst-reconciliation-service/cmd/reconciler/config"
	"gst-reconciliation-service/internal/ledger"
	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/parsers"
	"gst-reconciliation-service/internal/reconciler"
	"gst-reconciliation-service/internal/reporter"
	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

// ledgerFlags selects the files of both ledgers; shared by reconcile and inspect
type ledgerFlags struct {
	filesA []string
	filesB []string
	sheetA string
	sheetB string
}

func (f *ledgerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.filesA, "gstr2a", "a", nil, "GSTR-2A file (CSV or XLSX), repeatable")
	cmd.Flags().StringArrayVarP(&f.filesB, "books", "b", nil, "purchase books file (CSV or XLSX), repeatable")
	cmd.Flags().StringVar(&f.sheetA, "gstr2a-sheet", "", "worksheet of the GSTR-2A workbooks (default: first sheet)")
	cmd.Flags().StringVar(&f.sheetB, "books-sheet", "", "worksheet of the books workbooks (default: first sheet)")
}

func (f *ledgerFlags) files(source models.Source) ([]string, string) {
	if source == models.SourceB {
		return f.filesB, f.sheetB
	}
	return f.filesA, f.sheetA
}

type reconcileOptions struct {
	*rootOptions
	ledgerFlags

	output    string
	format    string
	exportAll string
	maxRows   int
}

func newReconcileCmd(root *rootOptions) *cobra.Command {
	o := &reconcileOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile GSTR-2A invoices with the purchase books",
		Long: `Reconcile loads the GSTR-2A and books ledgers, keys every invoice by
invoice number and supplier GSTIN and reports:

  - duplicate invoices within either ledger
  - invoices present in only one ledger
  - date, amount, tax and GSTIN differences beyond the tolerances

Several files per ledger are concatenated in the order given.

Examples:
  # Console report
  gstrecon reconcile --gstr2a gstr2a.xlsx --books purchases.csv

  # Wider tolerances, CSV report
  gstrecon reconcile -a gstr2a.csv -b books.csv --date-tolerance 7 \
    --amount-tolerance 5 -o report.csv

  # XLSX report plus a workbook holding both ledgers and the results
  gstrecon reconcile -a gstr2a.csv -b books.csv -o report.xlsx --export-all all.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}

	o.ledgerFlags.register(cmd)
	cmd.MarkFlagRequired("gstr2a")
	cmd.MarkFlagRequired("books")

	defaults := reconciler.DefaultSettings()
	cmd.Flags().String(config.KeyDateTolerance, fmt.Sprintf("%d", defaults.DateToleranceDays), "date tolerance in whole days")
	cmd.Flags().String(config.KeyAmountTolerance, defaults.AmountTolerance.StringFixed(2), "amount and tax tolerance in rupees")
	cmd.Flags().Bool(config.KeyCleanGSTIN, defaults.CleanIdentifiers, "normalize supplier GSTINs to 15 characters")
	cmd.Flags().Int(config.KeyWorkers, 4, "files loaded concurrently")

	for _, key := range []string{config.KeyDateTolerance, config.KeyAmountTolerance, config.KeyCleanGSTIN, config.KeyWorkers} {
		root.v.BindPFlag(key, cmd.Flags().Lookup(key))
	}

	cmd.Flags().StringVarP(&o.output, "output", "o", "", "report file (default: stdout)")
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "report format: console, json, csv, xlsx (default: from --output extension)")
	cmd.Flags().StringVar(&o.exportAll, "export-all", "", "also write both ledgers and the results to this XLSX workbook")
	cmd.Flags().IntVar(&o.maxRows, "max-rows", 0, "rows shown per category in console output (0: all)")

	return cmd
}

func (o *reconcileOptions) outputFormat() (reporter.OutputFormat, error) {
	format := reporter.OutputFormat(o.format)
	if o.format == "" {
		format = reporter.FormatFromPath(o.output)
	}
	if !format.IsValid() {
		return "", errors.ConfigurationError(errors.CodeInvalidConfig, "format", o.format,
			fmt.Errorf("unsupported report format"))
	}
	if format.IsBinary() && o.output == "" {
		return "", errors.ConfigurationError(errors.CodeInvalidConfig, "output", o.output,
			fmt.Errorf("%s reports must be written to a file", format)).
			WithSuggestion("Pass --output report.xlsx")
	}
	if o.maxRows < 0 {
		return "", errors.ConfigurationError(errors.CodeInvalidConfig, "max-rows", o.maxRows,
			fmt.Errorf("max rows cannot be negative"))
	}
	return format, nil
}

func (o *reconcileOptions) run(cmd *cobra.Command) error {
	settings, err := o.config.Settings()
	if err != nil {
		return err
	}
	format, err := o.outputFormat()
	if err != nil {
		return err
	}
	if err := config.ValidateMapping(o.config.Mapping); err != nil {
		o.log.WithError(err).Warn("Column mapping has unknown columns")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o.log.WithFields(logger.Fields{
		"gstr2a":   o.filesA,
		"books":    o.filesB,
		"settings": settings.String(),
	}).Info("Starting reconciliation")

	a, err := loadLedger(ctx, o.rootOptions, &o.ledgerFlags, models.SourceA)
	if err != nil {
		return err
	}
	b, err := loadLedger(ctx, o.rootOptions, &o.ledgerFlags, models.SourceB)
	if err != nil {
		return err
	}

	engine, err := reconciler.NewEngine(settings, logger.GetGlobalLogger())
	if err != nil {
		return err
	}
	dispatcher := reconciler.NewDispatcher(engine, logger.GetGlobalLogger())
	if o.verbose {
		dispatcher.AddProgressCallback(func(p reconciler.Progress) {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] GSTR-2A %d, Books %d, %d discrepancies (%s)\n",
				p.Stage, p.RecordsA, p.RecordsB, p.Discrepancy, p.Elapsed)
		})
	}

	outcome := <-dispatcher.Submit(ctx, a, b)
	if outcome.Err != nil {
		return outcome.Err
	}
	report := outcome.Report

	generator, err := reporter.NewSafeReportGenerator(config.CreateReportConfig(format, o.maxRows), logger.GetGlobalLogger())
	if err != nil {
		return err
	}
	if o.output == "" {
		if err := generator.GenerateReportSafely(report, cmd.OutOrStdout()); err != nil {
			return err
		}
	} else {
		written, err := generator.WriteFile(report, o.output)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", written)
	}

	if o.exportAll != "" {
		if err := reporter.ExportAll(o.exportAll, a, b, report, logger.GetGlobalLogger()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "All data exported to %s\n", o.exportAll)
	}

	o.log.WithFields(logger.Fields{
		"run_id":        report.ID.String(),
		"discrepancies": report.Len(),
		"duration":      outcome.Duration.String(),
	}).Info("Reconciliation completed")
	return nil
}

// loadLedger loads and concatenates every file of source, in flag order.
// Files are read concurrently; the first failing file aborts the load.
func loadLedger(ctx context.Context, root *rootOptions, flags *ledgerFlags, source models.Source) (*ledger.Ledger, error) {
	paths, sheet := flags.files(source)
	l := root.config.NewLedger(source, logger.GetGlobalLogger())
	if len(paths) == 0 {
		return l, nil
	}

	loader := parsers.NewConcurrentLoader(parsers.NewLoader(config.LoaderConfig(sheet)), root.config.Workers).
		WithLogger(root.log.WithField("source", source.Name()))
	for _, res := range loader.LoadAll(ctx, paths) {
		if res.Error != nil {
			return nil, res.Error
		}

		result, err := l.Import(res.Table, root.config.Mapping.For(source))
		if err != nil {
			return nil, err
		}
		if len(result.Warnings) > 0 {
			root.log.WithFields(logger.Fields{
				"file":     filepath.Base(res.FilePath),
				"warnings": len(result.Warnings),
			}).Warn(errors.FormatWarningsForUser(result.Warnings))
		}
	}
	return l, nil
}
