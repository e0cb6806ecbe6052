package core

import "time"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Used in tests.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c).UTC() }

// MonthBounds returns the UTC [start, endExclusive) boundaries of a calendar month.
func MonthBounds(year int, month time.Month) (start, endExclusive time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// PreviousMonth returns the calendar month preceding t.
func PreviousMonth(t time.Time) (int, time.Month) {
	prev := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return prev.Year(), prev.Month()
}
