package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTimeOfDay = errors.New("domain: invalid time of day")

// TimeOfDay is a wall-clock time expressed as seconds since midnight.
type TimeOfDay int

const secondsPerDay = 24 * 60 * 60

// Clock builds a TimeOfDay from hour and minute.
func Clock(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, hour, minute)
	}
	return TimeOfDay(hour*3600 + minute*60), nil
}

// MustClock is Clock for constant inputs.
func MustClock(hour, minute int) TimeOfDay {
	t, err := Clock(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	return Clock(t.Hour(), t.Minute())
}

func (t TimeOfDay) Valid() bool { return t >= 0 && t < secondsPerDay }

// Offset is the duration since midnight.
func (t TimeOfDay) Offset() time.Duration { return time.Duration(t) * time.Second }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/3600, (int(t)%3600)/60)
}

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Shift is the start and finish time-of-day carried by activity assignments.
// A finish at or before the start crosses midnight into the next day.
type Shift struct {
	Start  TimeOfDay `json:"start"`
	Finish TimeOfDay `json:"finish"`
}

// NewShift validates that both ends are wall-clock times.
func NewShift(start, finish TimeOfDay) (Shift, error) {
	if !start.Valid() || !finish.Valid() {
		return Shift{}, fmt.Errorf("%w: %d-%d", ErrInvalidTimeOfDay, int(start), int(finish))
	}
	return Shift{Start: start, Finish: finish}, nil
}

// Overnight reports whether the shift ends on the day after it starts.
func (s Shift) Overnight() bool { return s.Finish <= s.Start }

// Duration is the length of the shift. Equal ends span a full day.
func (s Shift) Duration() time.Duration {
	d := s.Finish.Offset() - s.Start.Offset()
	if s.Overnight() {
		d += secondsPerDay * time.Second
	}
	return d
}

func (s Shift) String() string { return s.Start.String() + "-" + s.Finish.String() }
