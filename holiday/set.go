package holiday

import (
	"sort"

	"github.com/warp/wochennachweis/generic"
)

// Source tells where a HolidaySet came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceStatic Source = "static"
)

// Entry is one holiday of a set.
type Entry struct {
	Date generic.TimePoint `json:"date"`
	Name string            `json:"name"`
}

// HolidaySet maps the holidays of one (year, region) pair to their names.
// Dates are keyed as yyyy-mm-dd.
type HolidaySet struct {
	Year   int               `json:"year"`
	Region string            `json:"region"`
	Source Source            `json:"source"`
	Days   map[string]string `json:"days"`
}

func NewHolidaySet(year int, region string, source Source) HolidaySet {
	return HolidaySet{Year: year, Region: region, Source: source, Days: make(map[string]string)}
}

// Add records a holiday. Dates outside the set's year are ignored; the first
// name recorded for a date wins.
func (s HolidaySet) Add(date generic.TimePoint, name string) {
	if date.Year() != s.Year {
		return
	}
	key := date.String()
	if _, ok := s.Days[key]; !ok {
		s.Days[key] = name
	}
}

// Name returns the holiday name of date.
func (s HolidaySet) Name(date generic.TimePoint) (string, bool) {
	name, ok := s.Days[date.String()]
	return name, ok
}

func (s HolidaySet) Contains(date generic.TimePoint) bool {
	_, ok := s.Days[date.String()]
	return ok
}

func (s HolidaySet) Len() int { return len(s.Days) }

// List returns the holidays sorted by date.
func (s HolidaySet) List() []Entry {
	entries := make([]Entry, 0, len(s.Days))
	for key, name := range s.Days {
		date, err := generic.ParseDate(key)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Date: date, Name: name})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries
}

func (s HolidaySet) clone() HolidaySet {
	c := NewHolidaySet(s.Year, s.Region, s.Source)
	for k, v := range s.Days {
		c.Days[k] = v
	}
	return c
}
