package core

import (
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

var (
	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

	ErrInvalidClock = errors.New("time must be formatted as HH:mm")
)

// ParseClock converts a "HH:mm" time of day into minutes since midnight.
func ParseClock(s string) (int, error) {
	m := clockRegex.FindStringSubmatch(CleanString(s))
	if m == nil {
		return 0, ErrInvalidClock
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return h*60 + mins, nil
}

// IsClock reports whether s is a well-formed "HH:mm" time of day.
func IsClock(s string) bool {
	_, err := ParseClock(s)
	return err == nil
}

