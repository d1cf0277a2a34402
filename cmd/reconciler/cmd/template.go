package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/reporter"
	"gst-reconciliation-service/pkg/errors"
)

var defaultTemplateNames = map[models.Source]string{
	models.SourceA: "gstr2a_template.xlsx",
	models.SourceB: "books_template.xlsx",
}

func newTemplateCmd(root *rootOptions) *cobra.Command {
	var source, output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an XLSX import template for a ledger",
		Long: `Template writes a workbook with the expected column headers of a ledger
and two sample rows. Fill it in and pass it to reconcile or inspect.

Examples:
  gstrecon template --source A
  gstrecon template --source books -o purchases.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := models.ParseSource(source)
			if err != nil || !src.IsValid() {
				return errors.ConfigurationError(errors.CodeInvalidConfig, "source", source,
					fmt.Errorf("source must be A (GSTR-2A) or B (Books)"))
			}
			if output == "" {
				output = defaultTemplateNames[src]
			}

			if err := reporter.WriteTemplate(output, src); err != nil {
				return err
			}
			root.log.WithField("file", output).Debug("Template written")
			fmt.Fprintf(cmd.OutOrStdout(), "%s template written to %s\n", src.Name(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "A", "ledger: A (GSTR-2A) or B (Books)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "template file (default: gstr2a_template.xlsx or books_template.xlsx)")
	return cmd
}
