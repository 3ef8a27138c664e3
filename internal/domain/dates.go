package domain

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for birth dates and reading days.
const DateLayout = "2006-01-02"

const birthTimeLayout = "15:04:05"

var (
	// ErrInvalidDate is returned for anything that is not a YYYY-MM-DD calendar day.
	ErrInvalidDate = errors.New("date must be a valid YYYY-MM-DD calendar day")
	// ErrInvalidBirthTime is returned for anything that is not HH:MM or HH:MM:SS.
	ErrInvalidBirthTime = errors.New("birth time must be HH:MM or HH:MM:SS")
)

// ParseDate parses a YYYY-MM-DD string into midnight UTC of that day.
// time.Parse rejects out-of-range days such as 2023-02-29.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate renders the calendar day of t in its own location.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// NormalizeDate parses and re-formats s, stripping surrounding whitespace.
func NormalizeDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return FormatDate(t), nil
}

// ParseBirthTime accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
func ParseBirthTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{birthTimeLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(birthTimeLayout), nil
		}
	}
	return "", ErrInvalidBirthTime
}
