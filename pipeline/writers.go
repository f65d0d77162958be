package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/aluiziolira/edgereport/models"
)

// utf8BOM lets spreadsheet software detect the encoding of CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TableWriter is an incremental tabular destination: one header write, then
// any number of appends projected onto the same key order.
type TableWriter interface {
	WriteHeader(keys []string) error
	AppendRows(keys []string, records []models.Record) error
}

// CSVWriter appends delimited rows to a file, or to stdout when no path is
// given. Files are opened and closed per batch; stdout is a single stream.
type CSVWriter struct {
	path      string
	delimiter rune
	stdout    io.Writer
}

// NewCSVWriter builds a CSV writer. An empty path means stdout.
func NewCSVWriter(path string, delimiter rune) *CSVWriter {
	return &CSVWriter{path: path, delimiter: delimiter, stdout: os.Stdout}
}

// WriteHeader creates the file (UTF-8 BOM first) and writes the column row.
func (w *CSVWriter) WriteHeader(keys []string) error {
	if w.path == "" {
		return w.writeRows(w.stdout, [][]string{keys})
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return fmt.Errorf("write csv bom: %w", err)
	}
	return w.writeRows(f, [][]string{keys})
}

// AppendRows projects each record onto keys and appends the rows.
func (w *CSVWriter) AppendRows(keys []string, records []models.Record) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ProjectRow(keys, rec))
	}

	if w.path == "" {
		return w.writeRows(w.stdout, rows)
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	return w.writeRows(f, rows)
}

// Touch creates the output file holding only the BOM, for runs that ended
// with no content at all. Stdout destinations are left alone.
func (w *CSVWriter) Touch() error {
	if w.path == "" {
		return nil
	}
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(utf8BOM); err != nil {
		return fmt.Errorf("write csv bom: %w", err)
	}
	return nil
}

func (w *CSVWriter) writeRows(dst io.Writer, rows [][]string) error {
	cw := csv.NewWriter(dst)
	cw.Comma = w.delimiter
	cw.UseCRLF = true
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv rows: %w", err)
	}
	return nil
}
