package file

import (
	"context"
	"fmt"
	"time"

	"github.com/badno/catimport/internal/output"
	"github.com/badno/catimport/pkg/models"
	"github.com/xuri/excelize/v2"
)

const (
	XLSXAdapterName = "xlsx"
	xlsxSheet       = "Records"
)

// XLSXAdapter writes records as an Excel workbook with the CSV columns
type XLSXAdapter struct {
	dirAdapter
}

// NewXLSXAdapter creates a new Excel file adapter
func NewXLSXAdapter(cfg Config) *XLSXAdapter {
	return &XLSXAdapter{
		dirAdapter: newDirAdapter(XLSXAdapterName, cfg.OutputDir, output.FormatXLSX),
	}
}

// ExportRecords exports records to an .xlsx workbook
func (a *XLSXAdapter) ExportRecords(ctx context.Context, records []models.ImportRecord, opts output.ExportOptions) (*output.ExportResult, error) {
	result := &output.ExportResult{
		StartedAt: time.Now(),
	}

	if opts.DryRun {
		return dryRun(result, len(records), 0), nil
	}

	filename, err := a.prepare(ctx, opts, output.FormatXLSX)
	if err != nil {
		result.Error = err
		return result, err
	}

	if err := writeXLSX(filename, records); err != nil {
		result.Error = err
		return result, err
	}

	return done(result, filename, len(records), 0), nil
}

func writeXLSX(filename string, records []models.ImportRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range output.TableHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(xlsxSheet, cell, header); err != nil {
			return err
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(xlsxSheet, colName, colName, 20)
	}
	last, _ := excelize.CoordinatesToCellName(len(output.TableHeaders), 1)
	f.SetCellStyle(xlsxSheet, "A1", last, headerStyle)

	for i := range records {
		row := output.TableRow(&records[i])
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
