package pipeline

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/aluiziolira/edgereport/models"
)

func TestColumnSchemaFreeze(t *testing.T) {
	tests := []struct {
		name    string
		records []models.Record
		want    []string
	}{
		{
			name: "discovered fields sorted alphabetically",
			records: []models.Record{
				{"a": 1, "b": 2},
				{"a": 3, "c": 4},
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "preferred fields lead in fixed order",
			records: []models.Record{
				{"allEdgeBytes": 1, "url": "a.com/x", "day": "2025-07-01", "hostname": "a.com"},
			},
			want: []string{"day", "hostname", "url", "allEdgeBytes"},
		},
		{
			name: "preferred order beats observation order",
			records: []models.Record{
				{"interval": "DAY", "cpcode": 1, "timestamp": "t", "zz": 0, "aa": 0},
			},
			want: []string{"timestamp", "cpcode", "interval", "aa", "zz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var schema ColumnSchema
			got := schema.Freeze(tt.records)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Freeze()=%v, want %v", got, tt.want)
			}
			if !schema.Frozen() {
				t.Fatalf("schema should be frozen")
			}
		})
	}
}

func TestColumnSchemaFreezeIsSticky(t *testing.T) {
	var schema ColumnSchema
	schema.Freeze([]models.Record{{"a": 1}})
	schema.Freeze([]models.Record{{"b": 2}})
	if !reflect.DeepEqual(schema.Keys(), []string{"a"}) {
		t.Fatalf("keys=%v, want the first frozen set", schema.Keys())
	}
}

func TestProjectRowMissingFields(t *testing.T) {
	var schema ColumnSchema
	keys := schema.Freeze([]models.Record{
		{"a": json.Number("1"), "b": json.Number("2")},
		{"a": json.Number("3"), "c": json.Number("4")},
	})

	row := ProjectRow(keys, models.Record{"a": json.Number("3"), "c": json.Number("4")})
	if !reflect.DeepEqual(row, []string{"3", "", "4"}) {
		t.Fatalf("row=%v, want [3  4] with empty b", row)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "string", value: "x", want: "x"},
		{name: "integer number", value: json.Number("100"), want: "100"},
		{name: "float number", value: json.Number("1.5"), want: "1.5"},
		{name: "bool", value: true, want: "true"},
		{name: "float64", value: 2.5, want: "2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.value); got != tt.want {
				t.Fatalf("FormatValue(%v)=%q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestCellValueKeepsNumbersNumeric(t *testing.T) {
	if got := CellValue(json.Number("100")); got != int64(100) {
		t.Fatalf("CellValue(100)=%v (%T), want int64", got, got)
	}
	if got := CellValue(json.Number("1.5")); got != 1.5 {
		t.Fatalf("CellValue(1.5)=%v (%T), want float64", got, got)
	}
	if got := CellValue(nil); got != "" {
		t.Fatalf("CellValue(nil)=%v, want empty string", got)
	}
}
