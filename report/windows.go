package report

import (
	"fmt"
	"time"

	"github.com/aluiziolira/edgereport/models"
)

const isoZLayout = "2006-01-02T15:04:05Z"

// ParseISOZ parses an ISO-8601 UTC instant ending in Z.
func ParseISOZ(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse instant %q: %w", value, err)
	}
	return t.UTC(), nil
}

// ISOZ formats an instant in the API's expected Z-suffixed form.
func ISOZ(t time.Time) string {
	return t.UTC().Format(isoZLayout)
}

// DayWindows enumerates consecutive one-day [start, end) windows covering
// the range. The first window starts at the UTC midnight of the start
// instant; the last is clamped to the true end instant, so a mid-day end
// yields a partial final window.
func DayWindows(start, end time.Time, interval string) []models.ReportWindow {
	start = start.UTC()
	end = end.UTC()

	cur := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	windows := make([]models.ReportWindow, 0)
	for cur.Before(end) {
		next := cur.AddDate(0, 0, 1)
		if next.After(end) {
			next = end
		}
		windows = append(windows, models.ReportWindow{Start: cur, End: next, Interval: interval})
		cur = next
	}
	return windows
}

// DayWindow rebuilds the full-day window for a YYYY-MM-DD label, used when
// re-requesting a no-data day.
func DayWindow(day string) (models.ReportWindow, error) {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		return models.ReportWindow{}, fmt.Errorf("parse day %q: %w", day, err)
	}
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return models.ReportWindow{Start: start, End: start.AddDate(0, 0, 1), Interval: "DAY"}, nil
}
