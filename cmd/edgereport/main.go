// Command edgereport downloads usage-report data from an EdgeGrid-signed
// reporting API and writes it to CSV, XLSX, or JSON. With --limit MAX the
// range is split into per-day requests with incremental appends and a retry
// pass over days that returned no data.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/edgereport/config"
	"github.com/aluiziolira/edgereport/edgerc"
	"github.com/aluiziolira/edgereport/models"
	"github.com/aluiziolira/edgereport/pipeline"
	"github.com/aluiziolira/edgereport/report"
)

func main() {
	_ = godotenv.Load()
	suggested := config.SuggestedFromEnv()
	defaults := config.DefaultConfig()

	var objectIDs, metricNames sliceFlag
	start := flag.String("start", "", "Range start, ISO-8601 with Z (e.g. 2025-07-01T00:00:00Z)")
	end := flag.String("end", "", "Range end, ISO-8601 with Z")
	interval := flag.String("interval", "", "Aggregation interval: HOUR, DAY, WEEK, or MONTH")
	objectType := flag.String("object-type", "", "Object type (cpcode, property, ...)")
	flag.Var(&objectIDs, "object-id", "Object ID (repeatable)")
	flag.Var(&metricNames, "metric", "Metric name (repeatable)")
	limit := flag.String("limit", "", "Records per page (number), or MAX for per-day splitting with incremental appends")

	reportName := flag.String("report", defaults.Report, "Report name")
	version := flag.Int("version", defaults.Version, "Report version")
	edgercPath := flag.String("edgerc", defaults.EdgercPath, "Path to the edgerc credentials file")
	edgercSection := flag.String("edgerc-section", defaults.EdgercSection, "Section of the edgerc file")
	out := flag.String("out", "", "Output file (JSON/CSV/XLSX depending on format); CSV defaults to stdout")

	format := flag.String("format", "", "Output format: json, csv, or xlsx (default json)")
	csvDelimiter := flag.String("csv-delimiter", defaults.CSVDelimiter, "CSV field delimiter")
	sheetName := flag.String("sheet-name", defaults.SheetName, "Sheet name for xlsx output")
	pretty := flag.Bool("pretty", false, "Pretty-print JSON output")
	retryNoData := flag.Int("retry-no-data", defaults.RetryNoData, "Retry attempts for days with no data")
	retryWait := flag.Float64("retry-wait", defaults.RetryWait.Seconds(), "Wait between no-data retries (seconds)")
	timeout := flag.Int("timeout", int(defaults.Timeout.Seconds()), "Per-request timeout (seconds)")

	verbose := flag.Bool("v", false, "Enable verbose logging")
	logHeaders := flag.Bool("log-headers", false, "Log response headers")
	dryRun := flag.Bool("dry-run", false, "Log the request and send nothing")
	interactive := flag.Bool("interactive", false, "Prompt for missing parameters on stdin")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaults
	cfg.Start = *start
	cfg.End = *end
	cfg.Interval = strings.ToUpper(*interval)
	cfg.ObjectType = *objectType
	cfg.ObjectIDs = objectIDs
	cfg.Metrics = metricNames
	cfg.Limit = *limit
	cfg.Report = *reportName
	cfg.Version = *version
	cfg.EdgercPath = *edgercPath
	cfg.EdgercSection = *edgercSection
	cfg.OutputFile = *out
	cfg.OutputFormat = strings.ToLower(*format)
	cfg.CSVDelimiter = *csvDelimiter
	cfg.SheetName = *sheetName
	cfg.Pretty = *pretty
	cfg.RetryNoData = *retryNoData
	cfg.RetryWait = time.Duration(*retryWait * float64(time.Second))
	cfg.Timeout = time.Duration(*timeout) * time.Second
	cfg.Verbose = *verbose
	cfg.LogHeaders = *logHeaders
	cfg.DryRun = *dryRun
	cfg.MetricsAddr = *metricsAddr

	needCore := cfg.Start == "" || cfg.End == "" || cfg.Interval == "" ||
		cfg.ObjectType == "" || len(cfg.ObjectIDs) == 0 || len(cfg.Metrics) == 0
	if *interactive || needCore || cfg.OutputFormat == "" {
		interactiveFill(cfg, suggested)
	}
	applySuggested(cfg, suggested)

	if cfg.Verbose {
		level.Set(slog.LevelDebug)
	}
	if cfg.OutputFormat == "xlsx" && cfg.OutputFile == "" {
		cfg.OutputFile = "report.xlsx"
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(2)
	}

	creds, err := edgerc.Load(cfg.EdgercPath, cfg.EdgercSection)
	if err != nil {
		slog.Error("edgerc configuration", slog.Any("error", err))
		os.Exit(2)
	}

	metrics := report.NewMetrics()
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	client := report.NewClient(creds, cfg.Report, cfg.Version,
		report.WithTimeout(cfg.Timeout),
		report.WithMetrics(metrics),
		report.WithHeaderLogging(cfg.LogHeaders),
	)

	var (
		writer    pipeline.TableWriter
		aggregate *pipeline.JSONAggregator
	)
	switch cfg.OutputFormat {
	case "csv":
		writer = pipeline.NewCSVWriter(cfg.OutputFile, []rune(cfg.CSVDelimiter)[0])
	case "xlsx":
		writer = pipeline.NewExcelWriter(cfg.OutputFile, cfg.SheetName)
	default:
		aggregate = pipeline.NewJSONAggregator()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := report.NewRunner(cfg, client, writer, aggregate, metrics)

	var code int
	if cfg.MaxMode() {
		code = runDaily(ctx, runner, cfg, aggregate)
	} else {
		code = runStandard(ctx, runner, cfg)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	os.Exit(code)
}

// runDaily drives the day-split (MAX) path and emits the final summary.
func runDaily(ctx context.Context, runner *report.Runner, cfg *config.Config, aggregate *pipeline.JSONAggregator) int {
	cfg.Interval = "DAY"
	if cfg.OutputFormat == "json" {
		fmt.Fprintln(os.Stderr, "MAX mode: csv or xlsx output is recommended; continuing with an aggregated JSON list.")
	}

	result, err := runner.RunDaily(ctx)
	if err != nil {
		return reportFatal(err)
	}

	if aggregate != nil {
		if cfg.OutputFile != "" {
			if err := aggregate.WriteFile(cfg.OutputFile, cfg.Pretty); err != nil {
				slog.Error("write json aggregate", slog.Any("error", err))
				return 1
			}
		}
		// Echoed to stdout even when a file was written.
		if err := aggregate.Encode(os.Stdout, cfg.Pretty); err != nil {
			slog.Error("emit json aggregate", slog.Any("error", err))
			return 1
		}
		printMissingSummary(result)
		return 0
	}

	printMissingSummary(result)
	if len(result.MissingDays) == 0 && len(result.RecoveredDays) > 0 {
		fmt.Fprintln(os.Stderr, "All no-data days were recovered.")
	}
	fmt.Fprintf(os.Stderr, "MAX download complete. Total rows: %d\n", result.TotalRows)
	return 0
}

// runStandard drives the single-request path.
func runStandard(ctx context.Context, runner *report.Runner, cfg *config.Config) int {
	outcome, err := runner.RunStandard(ctx)
	if err != nil {
		return reportFatal(err)
	}

	if cfg.OutputFormat != "json" {
		return 0
	}

	switch {
	case outcome.RawBody != nil:
		if cfg.OutputFile != "" {
			if err := os.WriteFile(cfg.OutputFile, outcome.RawBody, 0o644); err != nil {
				slog.Error("write output file", slog.Any("error", err))
				return 1
			}
			return 0
		}
		os.Stdout.Write(outcome.RawBody)
		return 0
	case outcome.Empty:
		fmt.Println("{}")
		return 0
	case outcome.JSONPayload != nil:
		data, err := pipeline.MarshalPayload(outcome.JSONPayload, cfg.Pretty)
		if err != nil {
			slog.Error("encode payload", slog.Any("error", err))
			return 1
		}
		if cfg.OutputFile != "" {
			if err := os.WriteFile(cfg.OutputFile, data, 0o644); err != nil {
				slog.Error("write output file", slog.Any("error", err))
				return 1
			}
		}
		fmt.Println(string(data))
	}
	return 0
}

// reportFatal prints the failure and maps it to the exit code: protocol
// errors echo the API's error payload, transport failures exit 2.
func reportFatal(err error) int {
	var status report.StatusError
	if errors.As(err, &status) {
		printAPIError(status.Body)
		return 1
	}
	slog.Error("download failed", slog.Any("error", err))
	return report.ExitCode(err)
}

// printAPIError pretty-prints the error payload when it is JSON, otherwise
// wraps the raw text.
func printAPIError(body []byte) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		payload = map[string]any{"error": string(body)}
	}
	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, string(body))
		return
	}
	fmt.Fprintln(os.Stderr, string(pretty))
}

func printMissingSummary(result *models.RunResult) {
	if len(result.MissingDays) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "Days still without data: %s\n", strings.Join(result.MissingDays, ", "))
}

// applySuggested fills any still-empty core parameter from the env-sourced
// suggestion set.
func applySuggested(cfg *config.Config, suggested config.Suggested) {
	if cfg.Start == "" {
		cfg.Start = suggested.Start
	}
	if cfg.End == "" {
		cfg.End = suggested.End
	}
	if cfg.Interval == "" {
		cfg.Interval = strings.ToUpper(suggested.Interval)
	}
	if cfg.ObjectType == "" {
		cfg.ObjectType = suggested.ObjectType
	}
	if len(cfg.ObjectIDs) == 0 {
		cfg.ObjectIDs = config.SplitList(suggested.ObjectIDs)
	}
	if len(cfg.Metrics) == 0 {
		cfg.Metrics = config.SplitList(suggested.Metrics)
	}
	if cfg.Limit == "" {
		cfg.Limit = suggested.Limit
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "json"
	}
}

// sliceFlag collects repeatable flag values.
type sliceFlag []string

func (s *sliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *sliceFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
