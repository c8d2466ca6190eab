// Package calendar answers trading-day questions: weekends and US federal
// holidays (with observed-day shifts) are non-trading days.
package calendar

import "time"

// TradingCalendar decides which dates the market trades on
type TradingCalendar struct{}

// New creates a trading calendar
func New() *TradingCalendar {
	return &TradingCalendar{}
}

// IsTradingDay reports whether the given date is a weekday that is not a
// recognized holiday.
func (c *TradingCalendar) IsTradingDay(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.isHoliday(date)
}

// NextTradingDay returns the first trading day strictly after date
func (c *TradingCalendar) NextTradingDay(date time.Time) time.Time {
	next := midnight(date).AddDate(0, 0, 1)
	for !c.IsTradingDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// TradingDays returns every trading day in [start, end], inclusive
func (c *TradingCalendar) TradingDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := midnight(start); !d.After(midnight(end)); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

func (c *TradingCalendar) isHoliday(date time.Time) bool {
	y := date.Year()
	for _, h := range holidays(y) {
		if sameDate(h, date) {
			return true
		}
	}
	// New Year's Day observed on Dec 31 belongs to next year's set.
	if date.Month() == time.December && date.Day() == 31 {
		for _, h := range holidays(y + 1) {
			if sameDate(h, date) {
				return true
			}
		}
	}
	return false
}

// holidays returns the observed US federal holidays for a year
func holidays(year int) []time.Time {
	return []time.Time{
		observed(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)),   // New Year's Day
		nthWeekday(year, time.January, time.Monday, 3),                     // MLK Day
		nthWeekday(year, time.February, time.Monday, 3),                    // Washington's Birthday
		lastWeekday(year, time.May, time.Monday),                           // Memorial Day
		observed(time.Date(year, time.June, 19, 0, 0, 0, 0, time.UTC)),     // Juneteenth
		observed(time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC)),      // Independence Day
		nthWeekday(year, time.September, time.Monday, 1),                   // Labor Day
		nthWeekday(year, time.October, time.Monday, 2),                     // Columbus Day
		observed(time.Date(year, time.November, 11, 0, 0, 0, 0, time.UTC)), // Veterans Day
		nthWeekday(year, time.November, time.Thursday, 4),                  // Thanksgiving
		observed(time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)), // Christmas
	}
}

// observed shifts a fixed-date holiday landing on a weekend to the nearest
// weekday: Saturday -> Friday, Sunday -> Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1))
}

func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
