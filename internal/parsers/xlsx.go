package parsers

import (
	"context"
	"io"

	"github.com/xuri/excelize/v2"

	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

// XLSXParser reads ledger worksheets. Cells are read raw, so date cells
// arrive as Excel serial numbers and are converted by the normalizer.
type XLSXParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewXLSXParser creates a new XLSXParser
func NewXLSXParser(config *ParseConfig) *XLSXParser {
	if config == nil {
		config = DefaultParseConfig()
	}
	return &XLSXParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("parser"),
	}
}

// ParseXLSX reads the configured sheet (or the first one) into a raw table
func (xp *XLSXParser) ParseXLSX(ctx context.Context, filePath string) (*RawTable, error) {
	file, err := openForRead(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return xp.ParseXLSXReader(ctx, file, filePath)
}

// ParseXLSXReader reads a workbook from r
func (xp *XLSXParser) ParseXLSXReader(ctx context.Context, r io.Reader, name string) (*RawTable, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		xp.logger.WithError(err).WithField("file_path", name).Error("Failed to open workbook")
		return nil, errors.FileError(errors.CodeFileCorrupted, name, err).
			WithSuggestion("check that the file is a valid .xlsx workbook")
	}
	defer f.Close()

	sheet := xp.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &RawTable{Name: name}, nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, name, err).
			WithContext("sheet", sheet)
	}

	table := &RawTable{Name: name}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, errors.InternalError(errors.CodeUnexpectedError, "xlsx_parsing", err)
		}
		if xp.config.SkipEmptyRows && isEmptyRecord(row) {
			continue
		}
		if table.Headers == nil {
			table.Headers = cleanHeaders(row)
			continue
		}
		table.Rows = append(table.Rows, trimFields(row))
	}

	xp.logger.WithFields(logger.Fields{
		"source":  name,
		"sheet":   sheet,
		"columns": len(table.Headers),
		"rows":    len(table.Rows),
	}).Debug("Read XLSX table")

	return table, nil
}
