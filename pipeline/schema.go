// Package pipeline provides the frozen column schema and the incremental
// output writers (CSV, XLSX, JSON aggregate).
package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/aluiziolira/edgereport/models"
)

// preferredColumns are ordered ahead of all discovered fields.
var preferredColumns = []string{"day", "hostname", "url", "timestamp", "cpcode", "interval"}

// ColumnSchema is the field ordering for one output destination. It is
// frozen from the first non-empty batch and reused for every later write;
// records missing a field are projected onto it with an empty value.
type ColumnSchema struct {
	keys []string
}

// Frozen reports whether the schema has been fixed.
func (s *ColumnSchema) Frozen() bool {
	return len(s.keys) > 0
}

// Keys returns the frozen column order.
func (s *ColumnSchema) Keys() []string {
	return s.keys
}

// Freeze fixes the column order from a batch: keys in first-seen order,
// then preferred fields first (in their fixed order) and the rest sorted
// alphabetically. Freezing an already-frozen schema is a no-op.
func (s *ColumnSchema) Freeze(records []models.Record) []string {
	if s.Frozen() || len(records) == 0 {
		return s.keys
	}

	seen := make(map[string]struct{})
	keys := make([]string, 0)
	for _, rec := range records {
		for k := range rec {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		pi, pj := preferredIndex(keys[i]), preferredIndex(keys[j])
		switch {
		case pi >= 0 && pj >= 0:
			return pi < pj
		case pi >= 0:
			return true
		case pj >= 0:
			return false
		default:
			return keys[i] < keys[j]
		}
	})

	s.keys = keys
	return s.keys
}

func preferredIndex(key string) int {
	for i, p := range preferredColumns {
		if p == key {
			return i
		}
	}
	return -1
}

// ProjectRow renders one record onto the frozen key order; absent fields
// become empty strings.
func ProjectRow(keys []string, rec models.Record) []string {
	row := make([]string, len(keys))
	for i, k := range keys {
		row[i] = FormatValue(rec[k])
	}
	return row
}

// FormatValue renders a scalar for delimited-text output.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// CellValue renders a scalar for spreadsheet output, keeping numbers numeric.
func CellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return val
	}
}
