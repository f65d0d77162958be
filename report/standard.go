package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aluiziolira/edgereport/models"
	"github.com/aluiziolira/edgereport/parser"
	"github.com/aluiziolira/edgereport/pipeline"
)

// StandardOutcome is the result of a single-request (non-split) run. For
// the JSON format the caller owns emission, so the decoded payload (or the
// raw body when it was not JSON) is handed back.
type StandardOutcome struct {
	Rows        int
	Empty       bool
	JSONPayload any
	RawBody     []byte
}

// RunStandard issues one request for the whole range and writes the result.
// HTTP >= 400 and, for tabular formats, a non-JSON body are fatal; an empty
// body produces an empty output instead of an error.
func (r *Runner) RunStandard(ctx context.Context) (*StandardOutcome, error) {
	query := Query{Start: r.cfg.Start, End: r.cfg.End, Interval: r.cfg.Interval}
	body := RequestBody{
		ObjectType: r.cfg.ObjectType,
		ObjectIDs:  r.cfg.ObjectIDs,
		Metrics:    r.cfg.Metrics,
		Limit:      r.cfg.PageLimit(),
	}

	r.log.Info("single-range request",
		slog.String("url", r.client.BaseURL()),
		slog.String("start", query.Start),
		slog.String("end", query.End),
		slog.String("interval", query.Interval),
	)
	if r.cfg.DryRun {
		w := models.ReportWindow{Interval: r.cfg.Interval}
		if start, err := ParseISOZ(r.cfg.Start); err == nil {
			w.Start = start
		}
		if end, err := ParseISOZ(r.cfg.End); err == nil {
			w.End = end
		}
		r.logRequest(w)
		return &StandardOutcome{}, nil
	}

	start := time.Now()
	payload, err := r.client.Fetch(ctx, query, body)
	r.log.Debug("request finished", slog.Duration("elapsed", time.Since(start)))

	if errors.Is(err, ErrEmptyBody) {
		r.log.Info("no content")
		return &StandardOutcome{Empty: true}, r.writeEmpty()
	}
	var notJSON NotJSONError
	if errors.As(err, &notJSON) {
		if r.cfg.OutputFormat == "json" {
			// Raw passthrough: the caller echoes the body unmodified.
			return &StandardOutcome{RawBody: notJSON.Raw}, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if r.cfg.OutputFormat == "json" {
		return &StandardOutcome{JSONPayload: payload}, nil
	}

	records := parser.Records(payload, r.cfg.Metrics)
	r.resolver.EnsureHostname(records)
	if len(records) == 0 {
		return &StandardOutcome{Empty: true}, r.writeEmpty()
	}
	if err := r.emit(records); err != nil {
		return nil, err
	}
	r.metrics.AddRows(len(records))
	return &StandardOutcome{Rows: len(records)}, nil
}

// writeEmpty produces the format's empty output: a BOM-only CSV file, or an
// XLSX workbook holding just a day header.
func (r *Runner) writeEmpty() error {
	switch w := r.writer.(type) {
	case *pipeline.CSVWriter:
		return w.Touch()
	case *pipeline.ExcelWriter:
		return w.WriteHeader([]string{"day"})
	default:
		return nil
	}
}
