package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aluiziolira/edgereport/models"
)

// JSONAggregator collects per-day record batches for JSON-format runs:
// the output is a list of lists, one inner list per day with data.
type JSONAggregator struct {
	batches [][]models.Record
}

// NewJSONAggregator builds an empty aggregator.
func NewJSONAggregator() *JSONAggregator {
	return &JSONAggregator{batches: make([][]models.Record, 0)}
}

// Add appends one day's batch.
func (a *JSONAggregator) Add(records []models.Record) {
	a.batches = append(a.batches, records)
}

// Batches returns the collected per-day batches.
func (a *JSONAggregator) Batches() [][]models.Record {
	return a.batches
}

// Encode writes the aggregate to dst, optionally pretty-printed.
func (a *JSONAggregator) Encode(dst io.Writer, pretty bool) error {
	data, err := MarshalPayload(a.batches, pretty)
	if err != nil {
		return err
	}
	if _, err := dst.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json aggregate: %w", err)
	}
	return nil
}

// WriteFile writes the aggregate to a file.
func (a *JSONAggregator) WriteFile(path string, pretty bool) error {
	data, err := MarshalPayload(a.batches, pretty)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// MarshalPayload renders any JSON-able payload, optionally indented.
func MarshalPayload(payload any, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(payload, "", "  ")
	} else {
		data, err = json.Marshal(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal json payload: %w", err)
	}
	return data, nil
}
