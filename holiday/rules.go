/*
rules.go - German public holiday rules

PURPOSE:
  Static holiday table used when no remote provider is configured or the
  provider fails. Covers the nationwide holidays, the holidays of the
  individual federal states and a few customary days off.

EASTER:
  Moving holidays are offsets from Easter Sunday, computed with Gauss's
  congruence method (integer division throughout).

REGIONS:
  Region codes are the two-letter state codes (NW, BY, ...). "DE" or the
  empty string selects nationwide holidays only. "DE-NW" is accepted too.

SEE ALSO:
  - calculator.go: Chooses between remote and static sources
  - set.go: The resulting HolidaySet
*/
package holiday

import (
	"slices"
	"strings"
	"time"

	"github.com/warp/wochennachweis/generic"
)

// States are the German federal state codes.
var States = []string{
	"BW", "BY", "BE", "BB", "HB", "HH", "HE", "MV",
	"NI", "NW", "RP", "SL", "SN", "ST", "SH", "TH",
}

// NormalizeRegion upper-cases a region code and strips a "DE-" prefix.
// Unknown codes collapse to "DE".
func NormalizeRegion(region string) string {
	r := strings.ToUpper(strings.TrimSpace(region))
	r = strings.TrimPrefix(r, "DE-")
	if slices.Contains(States, r) {
		return r
	}
	return "DE"
}

// KnownRegion reports whether region names a state or Germany as a whole.
func KnownRegion(region string) bool {
	r := strings.ToUpper(strings.TrimSpace(region))
	r = strings.TrimPrefix(r, "DE-")
	return r == "DE" || slices.Contains(States, r)
}

// Easter returns Easter Sunday of year (Gregorian calendar).
func Easter(year int) generic.TimePoint {
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
	day := ((h + l - 7*m + 114) % 31) + 1
	return generic.NewTimePoint(year, time.Month(month), day)
}

type rule struct {
	name      string
	date      func(year int, easter generic.TimePoint) generic.TimePoint
	regions   []string // nil = nationwide
	from      int      // first year observed, 0 = always
	until     int      // last year observed, 0 = still observed
	customary bool     // not a legal holiday, but commonly a day off
}

func fixed(month time.Month, day int) func(int, generic.TimePoint) generic.TimePoint {
	return func(year int, _ generic.TimePoint) generic.TimePoint {
		return generic.NewTimePoint(year, month, day)
	}
}

func easterOffset(days int) func(int, generic.TimePoint) generic.TimePoint {
	return func(_ int, easter generic.TimePoint) generic.TimePoint {
		return easter.AddDays(days)
	}
}

// bussUndBettag is the last Wednesday before November 23.
func bussUndBettag(year int, _ generic.TimePoint) generic.TimePoint {
	d := generic.NewTimePoint(year, time.November, 22)
	for d.Weekday() != time.Wednesday {
		d = d.AddDays(-1)
	}
	return d
}

var rules = []rule{
	{name: "Neujahr", date: fixed(time.January, 1)},
	{name: "Heilige Drei Könige", date: fixed(time.January, 6), regions: []string{"BW", "BY", "ST"}},
	{name: "Internationaler Frauentag", date: fixed(time.March, 8), regions: []string{"BE"}, from: 2019},
	{name: "Internationaler Frauentag", date: fixed(time.March, 8), regions: []string{"MV"}, from: 2023},
	{name: "Rosenmontag", date: easterOffset(-48), customary: true},
	{name: "Karnevalsdienstag", date: easterOffset(-47), customary: true},
	{name: "Karfreitag", date: easterOffset(-2)},
	{name: "Ostersonntag", date: easterOffset(0)},
	{name: "Ostermontag", date: easterOffset(1)},
	{name: "Tag der Arbeit", date: fixed(time.May, 1)},
	{name: "Christi Himmelfahrt", date: easterOffset(39)},
	{name: "Pfingstsonntag", date: easterOffset(49)},
	{name: "Pfingstmontag", date: easterOffset(50)},
	{name: "Fronleichnam", date: easterOffset(60), regions: []string{"BW", "BY", "HE", "NW", "RP", "SL"}},
	{name: "Mariä Himmelfahrt", date: fixed(time.August, 15), regions: []string{"BY", "SL"}},
	{name: "Weltkindertag", date: fixed(time.September, 20), regions: []string{"TH"}, from: 2019},
	{name: "Tag der Deutschen Einheit", date: fixed(time.October, 3), from: 1990},
	{name: "Reformationstag", date: fixed(time.October, 31), regions: []string{"BB", "MV", "SN", "ST", "TH"}},
	{name: "Reformationstag", date: fixed(time.October, 31), regions: []string{"HB", "HH", "NI", "SH"}, from: 2018},
	{name: "Reformationstag", date: fixed(time.October, 31), from: 2017, until: 2017},
	{name: "Allerheiligen", date: fixed(time.November, 1), regions: []string{"BW", "BY", "NW", "RP", "SL"}},
	{name: "Buß- und Bettag", date: bussUndBettag, regions: []string{"SN"}},
	{name: "Heiligabend", date: fixed(time.December, 24), customary: true},
	{name: "1. Weihnachtsfeiertag", date: fixed(time.December, 25)},
	{name: "2. Weihnachtsfeiertag", date: fixed(time.December, 26)},
	{name: "Silvester", date: fixed(time.December, 31), customary: true},
}

func (r rule) appliesTo(year int, region string, customary bool) bool {
	if r.customary && !customary {
		return false
	}
	if r.from != 0 && year < r.from {
		return false
	}
	if r.until != 0 && year > r.until {
		return false
	}
	return r.regions == nil || slices.Contains(r.regions, region)
}

// Static computes the holiday set of year for region from the built-in rules.
func Static(year int, region string, customary bool) HolidaySet {
	region = NormalizeRegion(region)
	set := NewHolidaySet(year, region, SourceStatic)
	easter := Easter(year)
	for _, r := range rules {
		if r.appliesTo(year, region, customary) {
			set.Add(r.date(year, easter), r.name)
		}
	}
	return set
}

// Customary returns only the customary days off of year.
func Customary(year int) []Entry {
	easter := Easter(year)
	var entries []Entry
	for _, r := range rules {
		if r.customary {
			entries = append(entries, Entry{Date: r.date(year, easter), Name: r.name})
		}
	}
	return entries
}
