// Package parser converts the reporting API's JSON payload shapes into flat
// records. Three shapes are recognized: columns+rows, a data list with
// dimensions/metrics objects, and a metric-to-URL-to-value map (disambiguated
// by the requested metric names). Anything else is deep-flattened.
package parser

import (
	"fmt"
	"sort"

	"github.com/aluiziolira/edgereport/models"
)

type shape int

const (
	shapeColumnsRows shape = iota
	shapeDataList
	shapeMetricMap
	shapeObject
	shapeList
	shapeScalar
)

// classify inspects the decoded JSON value and picks exactly one strategy.
// Order matters: columns+rows wins over a data list, which wins over the
// metric map, which requires a hint.
func classify(payload any, metricsHint []string) shape {
	obj, ok := payload.(map[string]any)
	if !ok {
		if _, isList := payload.([]any); isList {
			return shapeList
		}
		return shapeScalar
	}
	if _, ok := obj["columns"].([]any); ok {
		if _, ok := obj["rows"].([]any); ok {
			return shapeColumnsRows
		}
	}
	if _, ok := obj["data"].([]any); ok {
		return shapeDataList
	}
	if metricMapTarget(obj, metricsHint) != nil {
		return shapeMetricMap
	}
	return shapeObject
}

// Records normalizes one response payload into flat records.
func Records(payload any, metricsHint []string) []models.Record {
	switch classify(payload, metricsHint) {
	case shapeColumnsRows:
		return fromColumnsRows(payload.(map[string]any))
	case shapeDataList:
		return fromDataList(payload.(map[string]any))
	case shapeMetricMap:
		obj := payload.(map[string]any)
		return fromMetricMap(metricMapTarget(obj, metricsHint), metricsHint)
	case shapeList:
		return fromList(payload.([]any))
	case shapeScalar:
		return []models.Record{{"value": payload}}
	default:
		return []models.Record{Flatten(payload.(map[string]any))}
	}
}

func fromColumnsRows(obj map[string]any) []models.Record {
	rawCols := obj["columns"].([]any)
	cols := make([]string, 0, len(rawCols))
	for _, c := range rawCols {
		if m, ok := c.(map[string]any); ok {
			cols = append(cols, stringify(m["name"]))
			continue
		}
		cols = append(cols, stringify(c))
	}

	records := make([]models.Record, 0, len(obj["rows"].([]any)))
	for _, raw := range obj["rows"].([]any) {
		switch row := raw.(type) {
		case []any:
			rec := make(models.Record, len(row))
			for i, v := range row {
				key := fmt.Sprintf("col%d", i)
				if i < len(cols) {
					key = cols[i]
				}
				rec[key] = v
			}
			records = append(records, rec)
		case map[string]any:
			records = append(records, models.Record(row))
		}
	}
	return records
}

func fromDataList(obj map[string]any) []models.Record {
	items := obj["data"].([]any)
	records := make([]models.Record, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		rec := models.Record{}
		if dims, ok := item["dimensions"].(map[string]any); ok {
			for k, v := range dims {
				rec[k] = v
			}
		}
		if mets, ok := item["metrics"].(map[string]any); ok {
			for k, v := range mets {
				rec[k] = v
			}
		}
		for k, v := range item {
			if k == "dimensions" || k == "metrics" {
				continue
			}
			switch v.(type) {
			case map[string]any, []any:
			default:
				rec[k] = v
			}
		}
		if len(rec) == 0 {
			rec = Flatten(item)
		}
		records = append(records, rec)
	}
	return records
}

// metricMapTarget locates the object holding metric -> {url -> value} maps:
// the payload itself when every hinted metric is a top-level key, otherwise
// its "data" object. Returns nil when any hinted metric is not a nested map.
func metricMapTarget(obj map[string]any, metricsHint []string) map[string]any {
	if len(metricsHint) == 0 {
		return nil
	}
	target := obj
	for _, m := range metricsHint {
		if _, ok := obj[m]; !ok {
			target = nil
			break
		}
	}
	if target == nil {
		d, ok := obj["data"].(map[string]any)
		if !ok {
			return nil
		}
		target = d
	}
	for _, m := range metricsHint {
		if _, ok := target[m].(map[string]any); !ok {
			return nil
		}
	}
	return target
}

func fromMetricMap(target map[string]any, metricsHint []string) []models.Record {
	seen := make(map[string]struct{})
	urls := make([]string, 0)
	for _, m := range metricsHint {
		for u := range target[m].(map[string]any) {
			if _, ok := seen[u]; !ok {
				seen[u] = struct{}{}
				urls = append(urls, u)
			}
		}
	}
	sort.Strings(urls)

	records := make([]models.Record, 0, len(urls))
	for _, u := range urls {
		rec := models.Record{"url": u}
		for _, m := range metricsHint {
			val := target[m].(map[string]any)[u]
			switch val.(type) {
			case nil, map[string]any, []any:
			default:
				rec[m] = val
			}
		}
		records = append(records, rec)
	}
	return records
}

func fromList(items []any) []models.Record {
	records := make([]models.Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			records = append(records, Flatten(m))
			continue
		}
		records = append(records, models.Record{"value": item})
	}
	return records
}

// Flatten joins nested object keys with "." and keeps leaf values as-is.
// Uses an explicit work stack so adversarial nesting cannot blow the stack.
func Flatten(obj map[string]any) models.Record {
	type frame struct {
		prefix string
		value  map[string]any
	}

	out := models.Record{}
	stack := []frame{{prefix: "", value: obj}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for k, v := range f.value {
			key := k
			if f.prefix != "" {
				key = f.prefix + "." + k
			}
			if nested, ok := v.(map[string]any); ok {
				stack = append(stack, frame{prefix: key, value: nested})
				continue
			}
			out[key] = v
		}
	}
	return out
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}
