// Package timestamp turns transcript date and time tokens into instants.
//
// Exports carry no zone, so every instant is built in UTC and should be read
// as wall-clock time on the exporting device.
package timestamp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Order names the component order chosen for a date token.
type Order int

const (
	DayMonthYear Order = iota
	MonthDayYear
)

func (o Order) String() string {
	if o == MonthDayYear {
		return "M/D/Y"
	}
	return "D/M/Y"
}

// twoDigitPivot: two-digit years above it land in the 1900s.
const twoDigitPivot = 50

var timePattern = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})(?::(\d{2}))?(?:\s*(AM|PM))?`)

// Date is a resolved calendar date.
type Date struct {
	Year  int
	Month int
	Day   int
	Order Order
}

// ResolveDate splits a slash-separated numeric triplet and picks the day and
// month. A first component above 12 is the day; otherwise a second component
// above 12 is the day; otherwise day/month/year is assumed.
func ResolveDate(token string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(token), "/")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("date %q: expected three components", token)
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("date %q: %w", token, err)
		}
		n[i] = v
	}

	d := Date{Year: ExpandYear(n[2])}
	switch {
	case n[0] > 12:
		d.Day, d.Month, d.Order = n[0], n[1], DayMonthYear
	case n[1] > 12:
		d.Month, d.Day, d.Order = n[0], n[1], MonthDayYear
	default:
		d.Day, d.Month, d.Order = n[0], n[1], DayMonthYear
	}
	return d, nil
}

// ExpandYear maps two-digit years into 1951–2050.
func ExpandYear(y int) int {
	if y >= 100 {
		return y
	}
	if y > twoDigitPivot {
		return 1900 + y
	}
	return 2000 + y
}

// Clock is a resolved 24-hour time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ResolveClock parses H:MM, optional :SS and an optional AM/PM marker.
// A token that does not look like a time resolves to midnight.
func ResolveClock(token string) Clock {
	m := timePattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(token)))
	if m == nil {
		return Clock{}
	}

	var c Clock
	c.Hour, _ = strconv.Atoi(m[1])
	c.Minute, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		c.Second, _ = strconv.Atoi(m[3])
	}

	switch m[4] {
	case "PM":
		if c.Hour != 12 {
			c.Hour += 12
		}
	case "AM":
		if c.Hour == 12 {
			c.Hour = 0
		}
	}
	return c
}

// Resolve combines a date and a time token into an instant. Out-of-range
// components (month 13, day 32) roll over the way time.Date normalises them.
func Resolve(dateToken, timeToken string) (time.Time, error) {
	d, err := ResolveDate(dateToken)
	if err != nil {
		return time.Time{}, err
	}
	c := ResolveClock(timeToken)
	return time.Date(d.Year, time.Month(d.Month), d.Day, c.Hour, c.Minute, c.Second, 0, time.UTC), nil
}
