package holiday

import (
	"github.com/rickar/cal/v2"

	"github.com/warp/wochennachweis/generic"
)

// BusinessCalendar builds a Monday-to-Friday business calendar observing
// every holiday of the given sets.
func BusinessCalendar(sets ...HolidaySet) *cal.BusinessCalendar {
	bc := cal.NewBusinessCalendar()
	for _, set := range sets {
		for _, e := range set.List() {
			bc.AddHoliday(&cal.Holiday{
				Name:      e.Name,
				Type:      cal.ObservancePublic,
				Month:     e.Date.Month(),
				Day:       e.Date.Day(),
				StartYear: e.Date.Year(),
				EndYear:   e.Date.Year(),
				Func:      cal.CalcDayOfMonth,
			})
		}
	}
	return bc
}

// WorkingDays counts the business days among days.
func WorkingDays(bc *cal.BusinessCalendar, days []generic.TimePoint) int {
	n := 0
	for _, d := range days {
		if bc.IsWorkday(d.Time) {
			n++
		}
	}
	return n
}
