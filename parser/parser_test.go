package parser

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/aluiziolira/edgereport/models"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return payload
}

func TestRecordsColumnsRows(t *testing.T) {
	payload := decode(t, `{
		"columns": [{"name": "url"}, "bytes"],
		"rows": [
			["a.com/x", 100, "extra"],
			{"url": "b.com/y", "bytes": 7}
		]
	}`)

	records := Records(payload, nil)
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	first := records[0]
	if first["url"] != "a.com/x" {
		t.Errorf("url=%v, want a.com/x", first["url"])
	}
	if first["bytes"] != json.Number("100") {
		t.Errorf("bytes=%v, want 100", first["bytes"])
	}
	if first["col2"] != "extra" {
		t.Errorf("col2=%v, want extra (fallback name for surplus row entry)", first["col2"])
	}
	if records[1]["url"] != "b.com/y" {
		t.Errorf("object row should pass through unchanged, got %v", records[1])
	}
}

func TestRecordsDataList(t *testing.T) {
	payload := decode(t, `{
		"data": [
			{
				"dimensions": {"url": "a.com/x"},
				"metrics": {"allEdgeBytes": 100},
				"interval": "DAY",
				"nested": {"skip": true}
			},
			{"deep": {"key": "v"}}
		]
	}`)

	records := Records(payload, nil)
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	first := records[0]
	if first["url"] != "a.com/x" || first["allEdgeBytes"] != json.Number("100") {
		t.Errorf("dimensions/metrics not merged: %v", first)
	}
	if first["interval"] != "DAY" {
		t.Errorf("scalar top-level field missing: %v", first)
	}
	if _, ok := first["nested"]; ok {
		t.Errorf("non-scalar top-level field should be skipped: %v", first)
	}
	if records[1]["deep.key"] != "v" {
		t.Errorf("item without dimensions/metrics should deep-flatten, got %v", records[1])
	}
}

func TestRecordsMetricMap(t *testing.T) {
	payload := decode(t, `{
		"data": {
			"allEdgeBytes": {"b.com": 2, "a.com": 1},
			"allOriginBytes": {"a.com": 5, "c.com": null}
		}
	}`)
	hint := []string{"allEdgeBytes", "allOriginBytes"}

	records := Records(payload, hint)
	if len(records) != 3 {
		t.Fatalf("records=%d, want 3 (union of urls)", len(records))
	}
	// URLs sorted ascending.
	for i, want := range []string{"a.com", "b.com", "c.com"} {
		if records[i]["url"] != want {
			t.Fatalf("records[%d][url]=%v, want %s", i, records[i]["url"], want)
		}
	}
	if records[0]["allEdgeBytes"] != json.Number("1") || records[0]["allOriginBytes"] != json.Number("5") {
		t.Errorf("a.com metrics wrong: %v", records[0])
	}
	if _, ok := records[2]["allOriginBytes"]; ok {
		t.Errorf("null metric value should be omitted: %v", records[2])
	}
}

func TestRecordsMetricMapTopLevel(t *testing.T) {
	payload := decode(t, `{"allEdgeBytes": {"a.com": 1}}`)
	records := Records(payload, []string{"allEdgeBytes"})
	if len(records) != 1 || records[0]["url"] != "a.com" {
		t.Fatalf("top-level metric map not handled: %v", records)
	}
}

func TestRecordsFallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		hint []string
		want models.Record
	}{
		{
			name: "plain object deep-flattens",
			raw:  `{"a": {"b": {"c": 1}}, "d": "x"}`,
			want: models.Record{"a.b.c": json.Number("1"), "d": "x"},
		},
		{
			name: "hint present but metric is not a map",
			raw:  `{"allEdgeBytes": 12}`,
			hint: []string{"allEdgeBytes"},
			want: models.Record{"allEdgeBytes": json.Number("12")},
		},
		{
			name: "scalar wraps as value",
			raw:  `42`,
			want: models.Record{"value": json.Number("42")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := Records(decode(t, tt.raw), tt.hint)
			if len(records) != 1 {
				t.Fatalf("records=%d, want 1", len(records))
			}
			for k, v := range tt.want {
				if records[0][k] != v {
					t.Errorf("records[0][%s]=%v, want %v", k, records[0][k], v)
				}
			}
			if len(records[0]) != len(tt.want) {
				t.Errorf("records[0]=%v, want %v", records[0], tt.want)
			}
		})
	}
}

func TestRecordsList(t *testing.T) {
	records := Records(decode(t, `[{"a": {"b": 1}}, "plain"]`), nil)
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	if records[0]["a.b"] != json.Number("1") {
		t.Errorf("object element should flatten: %v", records[0])
	}
	if records[1]["value"] != "plain" {
		t.Errorf("non-object element should wrap: %v", records[1])
	}
}

func TestFlattenDeepNesting(t *testing.T) {
	// 3000 levels would overflow a recursive flattener.
	leaf := map[string]any{"v": "deep"}
	root := leaf
	for i := 0; i < 3000; i++ {
		root = map[string]any{"n": root}
	}

	rec := Flatten(root)
	if len(rec) != 1 {
		t.Fatalf("rec=%v, want single deep key", rec)
	}
	for k, v := range rec {
		if v != "deep" {
			t.Errorf("value=%v, want deep (key %s)", v, k)
		}
	}
}
