package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/aluiziolira/edgereport/models"
)

// ExcelWriter appends rows to one named sheet of an XLSX workbook. Each
// batch loads the workbook, appends, and saves, so existing sheet content
// survives across batches and across reruns of the tool.
type ExcelWriter struct {
	path  string
	sheet string
}

// NewExcelWriter builds an XLSX writer for the given workbook and sheet.
func NewExcelWriter(path, sheet string) *ExcelWriter {
	return &ExcelWriter{path: path, sheet: sheet}
}

// WriteHeader creates a fresh workbook whose only sheet holds the column row.
func (w *ExcelWriter) WriteHeader(keys []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), w.sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := w.setRow(f, 1, headerCells(keys)); err != nil {
		return err
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// AppendRows loads the workbook (creating it if missing), locates or creates
// the sheet, and appends one row per record after the existing content.
func (w *ExcelWriter) AppendRows(keys []string, records []models.Record) error {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("open workbook: %w", err)
		}
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), w.sheet); err != nil {
			return fmt.Errorf("name sheet: %w", err)
		}
		if err := w.setRow(f, 1, headerCells(keys)); err != nil {
			return err
		}
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(w.sheet)
	if err != nil {
		return fmt.Errorf("locate sheet: %w", err)
	}
	if idx < 0 {
		if _, err := f.NewSheet(w.sheet); err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		if err := w.setRow(f, 1, headerCells(keys)); err != nil {
			return err
		}
	}

	rows, err := f.GetRows(w.sheet)
	if err != nil {
		return fmt.Errorf("read sheet: %w", err)
	}
	next := len(rows) + 1

	for _, rec := range records {
		cells := make([]any, len(keys))
		for i, k := range keys {
			cells[i] = CellValue(rec[k])
		}
		if err := w.setRow(f, next, cells); err != nil {
			return err
		}
		next++
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (w *ExcelWriter) setRow(f *excelize.File, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(w.sheet, cell, &cells); err != nil {
		return fmt.Errorf("write sheet row: %w", err)
	}
	return nil
}

func headerCells(keys []string) []any {
	cells := make([]any, len(keys))
	for i, k := range keys {
		cells[i] = k
	}
	return cells
}
