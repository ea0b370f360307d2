package crawler

import (
	"fmt"
	"time"

	"github.com/timmy/pharmanews/internal/timeutil"
)

// DateWindow is an inclusive [From, To] publication-date filter.
type DateWindow struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window.
func (w *DateWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// BuildWindow derives the crawl date window from task parameters. A non-zero
// daysBack takes precedence over explicit dates and means "the last N days up
// to the end of today". With no parameters set there is no window and every
// dated stub passes.
func BuildWindow(daysBack int, fromDate, toDate string) (*DateWindow, error) {
	if daysBack > 0 {
		today := timeutil.TodayStart()
		return &DateWindow{
			From: today.AddDate(0, 0, -daysBack),
			To:   timeutil.EndOfDay(today),
		}, nil
	}

	if fromDate == "" && toDate == "" {
		return nil, nil
	}

	w := &DateWindow{}
	if fromDate != "" {
		from, err := timeutil.ParseDate(fromDate)
		if err != nil {
			return nil, fmt.Errorf("invalid from_date %q: %w", fromDate, err)
		}
		w.From = from
	}
	if toDate != "" {
		to, err := timeutil.ParseDate(toDate)
		if err != nil {
			return nil, fmt.Errorf("invalid to_date %q: %w", toDate, err)
		}
		w.To = timeutil.EndOfDay(to)
	} else {
		w.To = timeutil.EndOfDay(timeutil.TodayStart())
	}
	if w.To.Before(w.From) {
		return nil, fmt.Errorf("to_date %q precedes from_date %q", toDate, fromDate)
	}
	return w, nil
}
