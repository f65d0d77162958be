package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aluiziolira/edgereport/config"
	"github.com/aluiziolira/edgereport/models"
	"github.com/aluiziolira/edgereport/parser"
	"github.com/aluiziolira/edgereport/pipeline"
)

// Runner owns one invocation: it walks the day windows, normalizes each
// response, streams batches to the writer (or the JSON aggregate), and
// re-requests days that produced no data. Fully sequential: one request in
// flight, one retry sleep at a time.
type Runner struct {
	cfg       *config.Config
	client    *Client
	writer    pipeline.TableWriter
	aggregate *pipeline.JSONAggregator
	resolver  *parser.HostResolver
	schema    pipeline.ColumnSchema
	metrics   *Metrics
	log       *slog.Logger

	progress io.Writer
	sleep    func(ctx context.Context, d time.Duration)
}

// NewRunner wires a runner. Exactly one of writer and aggregate should be
// non-nil: a TableWriter for csv/xlsx runs, the aggregator for json runs.
func NewRunner(cfg *config.Config, client *Client, writer pipeline.TableWriter, aggregate *pipeline.JSONAggregator, metrics *Metrics) *Runner {
	return &Runner{
		cfg:       cfg,
		client:    client,
		writer:    writer,
		aggregate: aggregate,
		resolver:  parser.NewHostResolver(),
		metrics:   metrics,
		log:       slog.With(slog.String("run_id", uuid.NewString()[:8])),
		progress:  os.Stderr,
		sleep:     sleepCtx,
	}
}

// RunDaily executes the day-split download: one request per window, empty
// days collected and retried after the main pass (tabular formats only).
// Transport and protocol failures in the main pass abort the run.
func (r *Runner) RunDaily(ctx context.Context) (*models.RunResult, error) {
	result := &models.RunResult{StartTime: time.Now()}

	start, err := ParseISOZ(r.cfg.Start)
	if err != nil {
		return result, err
	}
	end, err := ParseISOZ(r.cfg.End)
	if err != nil {
		return result, err
	}

	windows := DayWindows(start, end, "DAY")
	result.WindowCount = len(windows)
	r.log.Info("starting day-split download",
		slog.Int("windows", len(windows)),
		slog.String("start", r.cfg.Start),
		slog.String("end", r.cfg.End),
	)

	for _, w := range windows {
		day := w.Day()
		fmt.Fprintf(r.progress, "Download %s...\n", day)

		if r.cfg.DryRun {
			r.logRequest(w)
			continue
		}

		records, err := r.fetchWindow(ctx, w)
		if errors.Is(err, ErrEmptyBody) {
			r.log.Info("no content", slog.String("day", day))
			result.MissingDays = append(result.MissingDays, day)
			continue
		}
		if err != nil {
			result.EndTime = time.Now()
			return result, err
		}
		if len(records) == 0 {
			result.MissingDays = append(result.MissingDays, day)
			continue
		}

		models.StampDay(records, day)
		r.resolver.EnsureHostname(records)
		if err := r.emit(records); err != nil {
			result.EndTime = time.Now()
			return result, err
		}
		result.TotalRows += len(records)
		r.metrics.AddRows(len(records))
		r.log.Debug("rows written",
			slog.String("day", day),
			slog.Int("added", len(records)),
			slog.Int("total", result.TotalRows),
		)
	}

	if r.aggregate == nil && len(result.MissingDays) > 0 {
		r.retryMissing(ctx, result)
	}

	result.EndTime = time.Now()
	return result, nil
}

// retryMissing re-requests each no-data day up to the configured number of
// attempts with a fixed wait between them. Any failure (transport, HTTP
// status, empty or non-JSON body, zero records) just consumes an attempt;
// the first attempt yielding records recovers the day.
func (r *Runner) retryMissing(ctx context.Context, result *models.RunResult) {
	fmt.Fprintf(r.progress, "Days with no data: %s\n", strings.Join(result.MissingDays, ", "))

	stillMissing := make([]string, 0)
	for _, day := range result.MissingDays {
		recovered := false
		for attempt := 1; attempt <= r.cfg.RetryNoData; attempt++ {
			if ctx.Err() != nil {
				break
			}
			fmt.Fprintf(r.progress, "Retry %s (%d/%d)...\n", day, attempt, r.cfg.RetryNoData)
			r.metrics.IncRetries()
			result.RetryCount++

			w, err := DayWindow(day)
			if err != nil {
				r.log.Error("invalid day label", slog.String("day", day), slog.Any("error", err))
				break
			}

			records, err := r.fetchWindow(ctx, w)
			if err != nil {
				r.log.Warn("retry attempt failed",
					slog.String("day", day),
					slog.Int("attempt", attempt),
					slog.Any("error", err),
				)
				r.sleep(ctx, r.cfg.RetryWait)
				continue
			}
			if len(records) == 0 {
				r.sleep(ctx, r.cfg.RetryWait)
				continue
			}

			models.StampDay(records, day)
			r.resolver.EnsureHostname(records)
			if err := r.emit(records); err != nil {
				r.log.Error("write recovered rows", slog.String("day", day), slog.Any("error", err))
				break
			}
			result.TotalRows += len(records)
			r.metrics.AddRows(len(records))
			r.log.Info("day recovered", slog.String("day", day), slog.Int("rows", len(records)))
			recovered = true
			break
		}
		if recovered {
			result.RecoveredDays = append(result.RecoveredDays, day)
		} else {
			stillMissing = append(stillMissing, day)
		}
	}
	result.MissingDays = stillMissing
}

// fetchWindow issues one window request and normalizes the payload.
func (r *Runner) fetchWindow(ctx context.Context, w models.ReportWindow) ([]models.Record, error) {
	payload, err := r.client.Fetch(ctx,
		Query{Start: ISOZ(w.Start), End: ISOZ(w.End), Interval: w.Interval},
		RequestBody{
			ObjectType: r.cfg.ObjectType,
			ObjectIDs:  r.cfg.ObjectIDs,
			Metrics:    r.cfg.Metrics,
			Limit:      config.MaxWindowLimit,
		},
	)
	if err != nil {
		return nil, err
	}
	return parser.Records(payload, r.cfg.Metrics), nil
}

// emit routes one batch: JSON runs aggregate it, tabular runs freeze the
// column schema on the first batch and append projected rows after that.
func (r *Runner) emit(records []models.Record) error {
	if r.aggregate != nil {
		r.aggregate.Add(records)
		return nil
	}
	if !r.schema.Frozen() {
		keys := r.schema.Freeze(records)
		if err := r.writer.WriteHeader(keys); err != nil {
			return err
		}
	}
	return r.writer.AppendRows(r.schema.Keys(), records)
}

func (r *Runner) logRequest(w models.ReportWindow) {
	r.log.Info("dry run, request not sent",
		slog.String("url", r.client.BaseURL()),
		slog.String("start", ISOZ(w.Start)),
		slog.String("end", ISOZ(w.End)),
		slog.String("interval", w.Interval),
		slog.String("object_type", r.cfg.ObjectType),
		slog.Any("object_ids", r.cfg.ObjectIDs),
		slog.Any("metrics", r.cfg.Metrics),
	)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
