package pipeline

import (
	"encoding/json"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/aluiziolira/edgereport/models"
)

func sheetRows(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	return rows
}

func TestExcelWriterAppendAcrossBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	writer := NewExcelWriter(path, "Report")

	keys := []string{"day", "url", "allEdgeBytes"}
	if err := writer.WriteHeader(keys); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := writer.AppendRows(keys, []models.Record{
		{"day": "2025-07-01", "url": "a.com/x", "allEdgeBytes": json.Number("100")},
	}); err != nil {
		t.Fatalf("append first batch: %v", err)
	}
	if err := writer.AppendRows(keys, []models.Record{
		{"day": "2025-07-02", "url": "b.com/y"},
	}); err != nil {
		t.Fatalf("append second batch: %v", err)
	}

	rows := sheetRows(t, path, "Report")
	want := [][]string{
		keys,
		{"2025-07-01", "a.com/x", "100"},
		{"2025-07-02", "b.com/y"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows=%v, want %v", rows, want)
	}
}

func TestExcelWriterCreatesMissingWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.xlsx")
	writer := NewExcelWriter(path, "Report")

	keys := []string{"day", "url"}
	if err := writer.AppendRows(keys, []models.Record{
		{"day": "2025-07-01", "url": "a.com/x"},
	}); err != nil {
		t.Fatalf("append to missing workbook: %v", err)
	}

	rows := sheetRows(t, path, "Report")
	if len(rows) != 2 || rows[0][0] != "day" {
		t.Fatalf("rows=%v, want header plus one data row", rows)
	}
}

func TestExcelWriterCreatesMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	other := NewExcelWriter(path, "Other")
	if err := other.WriteHeader([]string{"x"}); err != nil {
		t.Fatalf("seed workbook: %v", err)
	}

	writer := NewExcelWriter(path, "Report")
	keys := []string{"day"}
	if err := writer.AppendRows(keys, []models.Record{{"day": "2025-07-01"}}); err != nil {
		t.Fatalf("append to new sheet: %v", err)
	}

	if rows := sheetRows(t, path, "Other"); len(rows) != 1 {
		t.Fatalf("existing sheet should be preserved, rows=%v", rows)
	}
	rows := sheetRows(t, path, "Report")
	want := [][]string{{"day"}, {"2025-07-01"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows=%v, want %v", rows, want)
	}
}
