package domain

import (
	"fmt"
	"time"
)

// PeriodLength is the number of calendar days every period spans.
const PeriodLength = 14

const dateLayout = "2006-01-02"

// Date returns the calendar day y-m-d as a UTC midnight timestamp. All day
// values in this module are normalized this way so they can be used as map keys.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf strips the time of day from t, keeping t's calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("domain: parse date %q: %w", raw, err)
	}
	return DateOf(t), nil
}

// FormatDate renders a day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// Period is a fixed 14 day scheduling window identified by its start date.
// Equality and ordering follow the start date.
type Period struct {
	start time.Time
}

// NewPeriod anchors a period at the calendar date of start.
func NewPeriod(start time.Time) Period {
	return Period{start: DateOf(start)}
}

// ParsePeriod parses the YYYY-MM-DD start date of a period.
func ParsePeriod(raw string) (Period, error) {
	start, err := ParseDate(raw)
	if err != nil {
		return Period{}, err
	}
	return Period{start: start}, nil
}

// Start is the first day of the period.
func (p Period) Start() time.Time { return p.start }

// Finish is the last day of the period (inclusive).
func (p Period) Finish() time.Time { return p.start.AddDate(0, 0, PeriodLength-1) }

// Days lists the 14 calendar days of the period in order.
func (p Period) Days() []time.Time {
	days := make([]time.Time, 0, PeriodLength)
	for i := 0; i < PeriodLength; i++ {
		days = append(days, p.start.AddDate(0, 0, i))
	}
	return days
}

// Contains reports whether day falls within [Start, Finish].
func (p Period) Contains(day time.Time) bool {
	d := DateOf(day)
	return !d.Before(p.start) && !d.After(p.Finish())
}

// Overlaps reports whether the two windows share at least one day.
func (p Period) Overlaps(o Period) bool {
	return !p.Finish().Before(o.start) && !o.Finish().Before(p.start)
}

// Next is the period starting the day after p finishes.
func (p Period) Next() Period {
	return Period{start: p.start.AddDate(0, 0, PeriodLength)}
}

// Compare returns -1, 0 or +1 ordering periods by start date.
func (p Period) Compare(o Period) int {
	return p.start.Compare(o.start)
}

func (p Period) Before(o Period) bool { return p.start.Before(o.start) }

func (p Period) IsZero() bool { return p.start.IsZero() }

func (p Period) String() string { return FormatDate(p.start) }

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
