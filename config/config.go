// Package config holds run configuration for the report downloader.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxWindowLimit is the per-window record cap used in day-split (MAX) mode.
const MaxWindowLimit = 25000

// DefaultPageLimit is used when the configured limit is not a number.
const DefaultPageLimit = 5000

// Config holds downloader configuration.
type Config struct {
	Start      string // ISO-8601 UTC instant ending in Z
	End        string
	Interval   string // HOUR, DAY, WEEK, or MONTH
	ObjectType string
	ObjectIDs  []string
	Metrics    []string
	Limit      string // page size, or "MAX" for per-day splitting

	Report  string
	Version int

	EdgercPath    string
	EdgercSection string

	OutputFile   string
	OutputFormat string // json, csv, or xlsx
	CSVDelimiter string
	SheetName    string
	Pretty       bool

	Timeout     time.Duration
	RetryNoData int
	RetryWait   time.Duration

	Verbose     bool
	LogHeaders  bool
	DryRun      bool
	MetricsAddr string
}

// DefaultConfig returns the fixed defaults; env-sourced suggestions are
// layered on top by the caller (see SuggestedFromEnv).
func DefaultConfig() *Config {
	return &Config{
		Interval:      "DAY",
		Report:        "urlbytes-by-url",
		Version:       1,
		EdgercPath:    ".edgerc",
		EdgercSection: "default",
		OutputFormat:  "json",
		CSVDelimiter:  ",",
		SheetName:     "Report",
		Timeout:       120 * time.Second,
		RetryNoData:   10,
		RetryWait:     2 * time.Second,
	}
}

// MaxMode reports whether the limit requests per-day splitting.
func (c *Config) MaxMode() bool {
	return strings.EqualFold(strings.TrimSpace(c.Limit), "MAX")
}

// PageLimit returns the numeric page size for the standard path.
func (c *Config) PageLimit() int {
	if n, err := strconv.Atoi(strings.TrimSpace(c.Limit)); err == nil && n > 0 {
		return n
	}
	return DefaultPageLimit
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Start == "" {
		return fmt.Errorf("start cannot be empty")
	}
	if _, err := time.Parse(time.RFC3339, c.Start); err != nil {
		return fmt.Errorf("invalid start instant: %w", err)
	}
	if c.End == "" {
		return fmt.Errorf("end cannot be empty")
	}
	if _, err := time.Parse(time.RFC3339, c.End); err != nil {
		return fmt.Errorf("invalid end instant: %w", err)
	}
	switch c.Interval {
	case "HOUR", "DAY", "WEEK", "MONTH":
	default:
		return fmt.Errorf("interval must be HOUR, DAY, WEEK, or MONTH")
	}
	if c.ObjectType == "" {
		return fmt.Errorf("object type cannot be empty")
	}
	if len(c.ObjectIDs) == 0 {
		return fmt.Errorf("at least one object ID is required")
	}
	if len(c.Metrics) == 0 {
		return fmt.Errorf("at least one metric is required")
	}
	if c.Report == "" {
		return fmt.Errorf("report name cannot be empty")
	}
	if c.Version <= 0 {
		return fmt.Errorf("report version must be positive")
	}
	switch c.OutputFormat {
	case "json", "csv", "xlsx":
	default:
		return fmt.Errorf("output format must be json, csv, or xlsx")
	}
	if len([]rune(c.CSVDelimiter)) != 1 {
		return fmt.Errorf("csv delimiter must be a single character")
	}
	if c.OutputFormat == "xlsx" && c.SheetName == "" {
		return fmt.Errorf("sheet name cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RetryNoData < 0 {
		return fmt.Errorf("retry count cannot be negative")
	}
	if c.RetryWait < 0 {
		return fmt.Errorf("retry wait cannot be negative")
	}
	return nil
}

// Suggested holds env-sourced default answers for flags and interactive
// prompts. Looked up once at startup, never at import time.
type Suggested struct {
	Start      string
	End        string
	Interval   string
	ObjectType string
	ObjectIDs  string
	Metrics    string
	Limit      string
}

// SuggestedFromEnv builds the suggestion set from REPORT_* variables.
func SuggestedFromEnv() Suggested {
	return Suggested{
		Start:      envOr("REPORT_START", "2025-07-01T00:00:00Z"),
		End:        envOr("REPORT_END", "2025-08-01T00:00:00Z"),
		Interval:   envOr("REPORT_INTERVAL", "DAY"),
		ObjectType: envOr("REPORT_OBJECT_TYPE", "cpcode"),
		ObjectIDs:  envOr("REPORT_OBJECT_IDS", "1836353,1508185"),
		Metrics:    envOr("REPORT_METRICS", "allEdgeBytes,allOriginBytes,allBytesOffload"),
		Limit:      envOr("REPORT_LIMIT", "5000"),
	}
}

// SplitList splits a comma-separated value into trimmed non-empty items.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EnvString returns the value of an environment variable and whether it is set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
