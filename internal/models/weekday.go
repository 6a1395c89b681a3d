package models

import (
	"strings"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Weekday is one of the six teaching days. Sunday is not a teaching day and
// never passes ParseWeekday.
type Weekday string

const (
	WeekdayMonday    Weekday = "MONDAY"
	WeekdayTuesday   Weekday = "TUESDAY"
	WeekdayWednesday Weekday = "WEDNESDAY"
	WeekdayThursday  Weekday = "THURSDAY"
	WeekdayFriday    Weekday = "FRIDAY"
	WeekdaySaturday  Weekday = "SATURDAY"
)

var weekdayOrder = map[Weekday]int{
	WeekdayMonday:    1,
	WeekdayTuesday:   2,
	WeekdayWednesday: 3,
	WeekdayThursday:  4,
	WeekdayFriday:    5,
	WeekdaySaturday:  6,
}

// ParseWeekday normalises raw input into a Weekday.
func ParseWeekday(raw string) (Weekday, error) {
	day := Weekday(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := weekdayOrder[day]; !ok {
		return "", appErrors.Clone(appErrors.ErrInvalidDay, "invalid day: "+raw)
	}
	return day, nil
}

// Valid reports whether the weekday belongs to the permitted set.
func (d Weekday) Valid() bool {
	_, ok := weekdayOrder[d]
	return ok
}

// Order returns the position of the weekday in the teaching week, 1-based.
func (d Weekday) Order() int {
	return weekdayOrder[d]
}

// Weekdays lists the permitted days in teaching-week order.
func Weekdays() []Weekday {
	return []Weekday{
		WeekdayMonday,
		WeekdayTuesday,
		WeekdayWednesday,
		WeekdayThursday,
		WeekdayFriday,
		WeekdaySaturday,
	}
}
