// Command gendata writes a generated GSTR-2A/books CSV pair with planted
// discrepancies, plus the counts a reconciliation must report.
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/normalizer"
	"gst-reconciliation-service/internal/scenario"
	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

func main() {
	var (
		outputDir string
		seed      int64
		invoices  int
	)

	cmd := &cobra.Command{
		Use:   "gendata",
		Short: "Generate GSTR-2A and books test ledgers",
		Long: `gendata writes gstr2a.csv, books.csv and expected.txt into the output
directory. Every tenth invoice carries the same planted variation, so the
expected counts depend only on --invoices; --seed varies amounts, dates and
suppliers.

Example:
  gendata --invoices 1000 --seed 42 --output-dir generated
  gstrecon reconcile -a generated/gstr2a.csv -b generated/books.csv`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if invoices < 1 {
				return errors.ConfigurationError(errors.CodeInvalidConfig, "invoices", invoices,
					fmt.Errorf("at least one invoice is required"))
			}
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return errors.FileError(errors.CodeFileWrite, outputDir, err)
			}

			s := scenario.NewGenerator(seed, invoices).Generate()
			if err := writeLedger(filepath.Join(outputDir, "gstr2a.csv"), s.A, models.SourceA); err != nil {
				return err
			}
			if err := writeLedger(filepath.Join(outputDir, "books.csv"), s.B, models.SourceB); err != nil {
				return err
			}
			if err := writeExpected(filepath.Join(outputDir, "expected.txt"), s); err != nil {
				return err
			}

			logger.WithFields(logger.Fields{
				"dir":           outputDir,
				"seed":          seed,
				"gstr2a":        len(s.A),
				"books":         len(s.B),
				"discrepancies": s.Total(),
			}).Info("Generated scenario")
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "generated", "output directory")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for reproducible generation")
	cmd.Flags().IntVar(&invoices, "invoices", 100, "number of invoices")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func writeLedger(path string, records []models.Record, source models.Source) error {
	table := normalizer.Denormalize(records, source)
	for i, h := range table.Headers {
		table.Headers[i] = normalizer.DisplayName(h)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Headers); err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}
	if err := writer.WriteAll(table.Rows); err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}
	return nil
}

func writeExpected(path string, s *scenario.Scenario) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}
	defer file.Close()

	fmt.Fprintf(file, "Seed: %d\n", s.Seed)
	fmt.Fprintf(file, "Expected with default tolerances:\n")
	fmt.Fprintf(file, "- Total Discrepancies Found: %d\n", s.Total())
	for _, tag := range models.AllTags {
		fmt.Fprintf(file, "- %s: %d\n", tag.Label(), s.Expected[tag])
	}
	return nil
}
