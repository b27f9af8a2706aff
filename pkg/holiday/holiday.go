// Package holiday computes French public holidays.
//
// Movable holidays are derived from Western (Gregorian) Easter using the
// anonymous Gregorian algorithm. Dates are compared by calendar day in the
// location of the time value passed in; convert to Europe/Paris first when
// the caller's instant comes from another zone.
package holiday

import (
	"sort"
	"time"
)

// Holiday is a named public holiday on a calendar day.
type Holiday struct {
	Name  string     `json:"name"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// Date returns the holiday as midnight UTC of the given year.
func (h Holiday) Date(year int) time.Time {
	return time.Date(year, h.Month, h.Day, 0, 0, 0, 0, time.UTC)
}

var fixed = []Holiday{
	{"Jour de l'an", time.January, 1},
	{"Fête du Travail", time.May, 1},
	{"Victoire 1945", time.May, 8},
	{"Fête nationale", time.July, 14},
	{"Assomption", time.August, 15},
	{"Toussaint", time.November, 1},
	{"Armistice", time.November, 11},
	{"Noël", time.December, 25},
}

// Offsets from Easter Sunday.
const (
	easterMondayOffset = 1
	ascensionOffset    = 39
	whitMondayOffset   = 50
)

// Easter returns Easter Sunday (midnight UTC) for a Gregorian year.
func Easter(year int) time.Time {
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

// FrenchHolidays returns the eleven public holidays of a year, in calendar order.
func FrenchHolidays(year int) []Holiday {
	out := make([]Holiday, 0, len(fixed)+3)
	out = append(out, fixed...)

	easter := Easter(year)
	for _, mv := range []struct {
		name   string
		offset int
	}{
		{"Lundi de Pâques", easterMondayOffset},
		{"Ascension", ascensionOffset},
		{"Lundi de Pentecôte", whitMondayOffset},
	} {
		d := easter.AddDate(0, 0, mv.offset)
		out = append(out, Holiday{Name: mv.name, Month: d.Month(), Day: d.Day()})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Day < out[j].Day
	})
	return out
}

// IsFrenchHoliday reports whether t's calendar day is a French public holiday.
func IsFrenchHoliday(t time.Time) bool {
	_, ok := Lookup(t)
	return ok
}

// Lookup returns the holiday falling on t's calendar day, if any.
func Lookup(t time.Time) (Holiday, bool) {
	year, month, day := t.Date()
	for _, h := range FrenchHolidays(year) {
		if h.Month == month && h.Day == day {
			return h, true
		}
	}
	return Holiday{}, false
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
