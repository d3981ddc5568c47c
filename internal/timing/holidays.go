// Package timing scores when a policy change was published as a proxy for
// manipulative intent: holidays, weekends, night-time releases and rapid
// successive edits all reduce the chance users notice a change.
package timing

import "time"

// Holiday is one calendar rule plus its suspicion window. DaysBefore and
// DaysAfter form an asymmetric window around the holiday date; a change
// published inside the window matches.
type Holiday struct {
	Name       string
	Major      bool
	DaysBefore int
	DaysAfter  int
	// Date resolves the holiday for a given year.
	Date func(year int) time.Time
}

func fixedDate(month time.Month, day int) func(int) time.Time {
	return func(year int) time.Time {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}
}

// nthWeekday returns the date of the nth given weekday of a month
// (n is 1-based). Used for MLK Day, Presidents Day, Labor Day and
// Thanksgiving style rules.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the date of the last given weekday of a month
// (Memorial Day rule).
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(weekday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// easterSunday computes Gregorian Easter using the Anonymous algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// usHolidays is the fixed rule table. Major holidays carry wider windows
// and heavier penalties than minor ones; matching order is majors first.
var usHolidays = []Holiday{
	{Name: "Christmas", Major: true, DaysBefore: 3, DaysAfter: 0,
		Date: fixedDate(time.December, 25)},
	{Name: "Thanksgiving", Major: true, DaysBefore: 2, DaysAfter: 2,
		Date: func(y int) time.Time { return nthWeekday(y, time.November, time.Thursday, 4) }},
	{Name: "New Year's Day", Major: true, DaysBefore: 1, DaysAfter: 1,
		Date: fixedDate(time.January, 1)},
	{Name: "New Year's Eve", Major: true, DaysBefore: 2, DaysAfter: 0,
		Date: fixedDate(time.December, 31)},
	{Name: "Independence Day", Major: true, DaysBefore: 2, DaysAfter: 1,
		Date: fixedDate(time.July, 4)},
	{Name: "Memorial Day", Major: true, DaysBefore: 2, DaysAfter: 1,
		Date: func(y int) time.Time { return lastWeekday(y, time.May, time.Monday) }},
	{Name: "Labor Day", Major: true, DaysBefore: 2, DaysAfter: 1,
		Date: func(y int) time.Time { return nthWeekday(y, time.September, time.Monday, 1) }},
	{Name: "Easter", Major: true, DaysBefore: 2, DaysAfter: 0,
		Date: easterSunday},

	{Name: "MLK Day", Major: false, DaysBefore: 1, DaysAfter: 0,
		Date: func(y int) time.Time { return nthWeekday(y, time.January, time.Monday, 3) }},
	{Name: "Presidents Day", Major: false, DaysBefore: 1, DaysAfter: 0,
		Date: func(y int) time.Time { return nthWeekday(y, time.February, time.Monday, 3) }},
	{Name: "Valentine's Day", Major: false, DaysBefore: 0, DaysAfter: 0,
		Date: fixedDate(time.February, 14)},
	{Name: "Halloween", Major: false, DaysBefore: 0, DaysAfter: 0,
		Date: fixedDate(time.October, 31)},
	{Name: "Veterans Day", Major: false, DaysBefore: 0, DaysAfter: 0,
		Date: fixedDate(time.November, 11)},
	{Name: "Columbus Day", Major: false, DaysBefore: 0, DaysAfter: 0,
		Date: func(y int) time.Time { return nthWeekday(y, time.October, time.Monday, 2) }},
	{Name: "Super Bowl Sunday", Major: false, DaysBefore: 1, DaysAfter: 0,
		Date: func(y int) time.Time { return nthWeekday(y, time.February, time.Sunday, 2) }},
}

// HolidayMatch describes the holiday window a date fell into.
type HolidayMatch struct {
	Holiday Holiday
	// Offset is days from the holiday: negative before, positive after.
	Offset int
}

// MatchHoliday returns the first holiday whose window contains the date,
// checking major holidays before minor ones. Only the first match is
// reported per version. Nil means no holiday proximity.
func MatchHoliday(ts time.Time) *HolidayMatch {
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	for _, major := range []bool{true, false} {
		for _, h := range usHolidays {
			if h.Major != major {
				continue
			}
			// A window can straddle a year boundary (New Year's), so test
			// the holiday in the surrounding years too.
			for _, year := range []int{day.Year() - 1, day.Year(), day.Year() + 1} {
				date := h.Date(year)
				offset := int(day.Sub(date).Hours() / 24)
				if offset >= -h.DaysBefore && offset <= h.DaysAfter {
					return &HolidayMatch{Holiday: h, Offset: offset}
				}
			}
		}
	}
	return nil
}
