package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ZodiacSign is one of the twelve tropical zodiac signs, or Unknown when no
// birth date is available.
type ZodiacSign string

const (
	Aries       ZodiacSign = "ARIES"
	Taurus      ZodiacSign = "TAURUS"
	Gemini      ZodiacSign = "GEMINI"
	Cancer      ZodiacSign = "CANCER"
	Leo         ZodiacSign = "LEO"
	Virgo       ZodiacSign = "VIRGO"
	Libra       ZodiacSign = "LIBRA"
	Scorpio     ZodiacSign = "SCORPIO"
	Sagittarius ZodiacSign = "SAGITTARIUS"
	Capricorn   ZodiacSign = "CAPRICORN"
	Aquarius    ZodiacSign = "AQUARIUS"
	Pisces      ZodiacSign = "PISCES"

	// UnknownSign is never produced by Classify. Callers use it when a user
	// has no date of birth at all.
	UnknownSign ZodiacSign = "UNKNOWN"
)

// signWindow is an inclusive [start, end] range of calendar days.
type signWindow struct {
	sign       ZodiacSign
	startMonth time.Month
	startDay   int
	endMonth   time.Month
	endDay     int
}

// zodiacTable lists every sign once. Capricorn is the only window that
// wraps the year end and is matched separately in Classify.
var zodiacTable = []signWindow{
	{Aries, time.March, 21, time.April, 19},
	{Taurus, time.April, 20, time.May, 20},
	{Gemini, time.May, 21, time.June, 20},
	{Cancer, time.June, 21, time.July, 22},
	{Leo, time.July, 23, time.August, 22},
	{Virgo, time.August, 23, time.September, 22},
	{Libra, time.September, 23, time.October, 22},
	{Scorpio, time.October, 23, time.November, 21},
	{Sagittarius, time.November, 22, time.December, 21},
	{Capricorn, time.December, 22, time.January, 19},
	{Aquarius, time.January, 20, time.February, 18},
	{Pisces, time.February, 19, time.March, 20},
}

// Signs returns the twelve signs in table order (Aries first).
func Signs() []ZodiacSign {
	out := make([]ZodiacSign, 0, len(zodiacTable))
	for _, w := range zodiacTable {
		out = append(out, w.sign)
	}
	return out
}

// Classify maps a calendar date to its zodiac sign. Only the month and day
// of t are inspected, so the time of day and location do not matter.
func Classify(t time.Time) ZodiacSign {
	month, day := t.Month(), t.Day()
	for _, w := range zodiacTable {
		if w.sign == Capricorn {
			if (month == time.December && day >= w.startDay) || (month == time.January && day <= w.endDay) {
				return w.sign
			}
			continue
		}
		if (month == w.startMonth && day >= w.startDay) || (month == w.endMonth && day <= w.endDay) {
			return w.sign
		}
	}
	// Unreachable for a valid date: the table covers every day of the year.
	return UnknownSign
}

// ParseZodiacSign accepts a sign name in any case and returns UnknownSign
// for anything that is not one of the twelve signs.
func ParseZodiacSign(s string) ZodiacSign {
	v := ZodiacSign(strings.ToUpper(strings.TrimSpace(s)))
	for _, w := range zodiacTable {
		if w.sign == v {
			return v
		}
	}
	return UnknownSign
}

// Known reports whether s is one of the twelve signs.
func (s ZodiacSign) Known() bool {
	return s != "" && ParseZodiacSign(string(s)) != UnknownSign
}

// DisplayName returns the human form used in prompts and API responses,
// e.g. "Capricorn". A Caser is stateful, so one is built per call.
func (s ZodiacSign) DisplayName() string {
	return cases.Title(language.English).String(strings.ToLower(string(s)))
}
