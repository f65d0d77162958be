// Package models defines data structures shared across the downloader.
package models

import "time"

// Record is one flat report row: field name to scalar value. Values are
// strings, json.Number, bools, or nil depending on the payload.
type Record map[string]any

// StampDay sets the day column on every record in the batch.
func StampDay(records []Record, day string) {
	for _, rec := range records {
		rec["day"] = day
	}
}

// ReportWindow is a single [Start, End) request unit in day-split mode.
type ReportWindow struct {
	Start    time.Time
	End      time.Time
	Interval string
}

// Day returns the window label in YYYY-MM-DD form.
func (w ReportWindow) Day() string {
	return w.Start.UTC().Format("2006-01-02")
}

// RunResult holds the overall outcome of a day-split download.
type RunResult struct {
	StartTime     time.Time
	EndTime       time.Time
	TotalRows     int
	WindowCount   int
	RetryCount    int
	MissingDays   []string
	RecoveredDays []string
}
