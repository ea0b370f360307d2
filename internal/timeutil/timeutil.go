// Package timeutil pins all crawl-window and publish-date arithmetic to the
// upstream portal's reporting timezone (UTC+8). List pages print dates without
// timezone markers, so every parsed date is interpreted in this zone.
package timeutil

import "time"

// Reporting is the fixed timezone the upstream portal publishes in.
var Reporting = time.FixedZone("UTC+8", 8*60*60)

// Now returns the current time in the reporting timezone.
func Now() time.Time {
	return time.Now().In(Reporting)
}

// TodayStart returns midnight of the current reporting-timezone day.
func TodayStart() time.Time {
	now := Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Reporting)
}

// Date builds a reporting-timezone timestamp at midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, Reporting)
}

// EndOfDay returns 23:59:59 of the given date's reporting-timezone day.
// Used to make to_date filters inclusive of the whole day.
func EndOfDay(t time.Time) time.Time {
	t = t.In(Reporting)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, Reporting)
}

// ParseDate parses a YYYY-MM-DD string as a reporting-timezone midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, Reporting)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
