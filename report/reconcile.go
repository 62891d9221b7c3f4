/*
reconcile.go - Turns Zeitraeume into report weeks

PURPOSE:
  The Wochennachweis is written per week. This file walks the calendar
  Monday by Monday and resolves, for each day Monday..Saturday, what the
  trainee did that day.

ALGORITHM:
  1. Sort the ranges by start date. With no ranges, the person's start/end
     become one range of the default category.
  2. Start at the Monday on or before the earliest relevant date and step
     one week at a time while the Monday is not after the latest date.
  3. Skip weeks whose [Monday, Saturday] window touches no range.
  4. Label each day: holiday > weekend > description of the first range
     (earliest start) containing the day > empty.
  5. The week's category is the one carried by most days; ties go to the
     category met first in day order.
  6. Number the kept weeks 1, 2, 3, ... in calendar order.

HOLIDAYS:
  Each day is looked up in the holiday set of its own calendar year, so a
  week spanning New Year sees both Silvester and Neujahr.

SEE ALSO:
  - fields.go: Turns a WeekRecord into template fields
  - holiday/calculator.go: The HolidayCalendar used here
*/
package report

import (
	"context"

	"github.com/warp/wochennachweis/generic"
)

// DaysPerWeek is Monday through Saturday.
const DaysPerWeek = 6

const (
	LabelWeekend       = "Wochenende"
	LabelHolidayPrefix = "Feiertag: "
)

type DayKind string

const (
	DayWork    DayKind = "work"
	DayWeekend DayKind = "weekend"
	DayHoliday DayKind = "holiday"
	DayFree    DayKind = "free" // no range covers the day
)

// NonWorking reports whether the day's label overrides any activity text.
func (k DayKind) NonWorking() bool {
	return k == DayWeekend || k == DayHoliday
}

// DayEntry is one resolved report day.
type DayEntry struct {
	Datum     generic.TimePoint
	Label     string
	Kind      DayKind
	Kategorie generic.Category // category of the covering range, "" if none
	Feiertag  string           // holiday name, if any
}

// WeekRecord is one generated report week. Immutable once built.
type WeekRecord struct {
	Nummer          int
	Montag          generic.TimePoint
	Samstag         generic.TimePoint
	Kategorie       generic.Category
	Jahr            int
	Ausbildungsjahr int
	Tage            [DaysPerWeek]DayEntry
}

// Period returns Monday..Saturday.
func (w WeekRecord) Period() generic.Period {
	return generic.Period{Start: w.Montag, End: w.Samstag}
}

// KW returns the ISO-8601 week number of the Monday.
func (w WeekRecord) KW() int {
	_, week := w.Montag.ISOWeek()
	return week
}

// Labels returns the six day labels.
func (w WeekRecord) Labels() []string {
	labels := make([]string, DaysPerWeek)
	for i, d := range w.Tage {
		labels[i] = d.Label
	}
	return labels
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler builds WeekRecords. It holds no state between calls.
type Reconciler struct {
	Holidays        generic.HolidayCalendar
	DefaultCategory generic.Category
}

func NewReconciler(holidays generic.HolidayCalendar, defaultCategory generic.Category) *Reconciler {
	if defaultCategory == "" {
		defaultCategory = generic.CategoryUmschulung
	}
	return &Reconciler{Holidays: holidays, DefaultCategory: defaultCategory}
}

// EffectiveRanges returns the ranges sorted by start, or the synthetic
// full-span range when there are none.
func (r *Reconciler) EffectiveRanges(p generic.Person, ranges []generic.Zeitraum) []generic.Zeitraum {
	if len(ranges) > 0 {
		return generic.SortZeitraeume(ranges)
	}
	span := generic.Period{Start: p.Start, End: p.End}
	if !span.Valid() {
		return nil
	}
	return []generic.Zeitraum{{Kategorie: r.DefaultCategory, Period: span}}
}

// Reconcile produces one WeekRecord per week touching any range.
func (r *Reconciler) Reconcile(ctx context.Context, p generic.Person, ranges []generic.Zeitraum) []WeekRecord {
	effective := r.EffectiveRanges(p, ranges)
	span, ok := generic.Span(effective)
	if !ok {
		return nil
	}

	earliest := generic.MinTime(p.Start, span.Start)
	latest := generic.MaxTime(p.End, span.End)
	trainingStart := p.Start
	if trainingStart.IsZero() {
		trainingStart = span.Start
	}

	var weeks []WeekRecord
	for monday := earliest.Monday(); monday.BeforeOrEqual(latest); monday = monday.AddDays(7) {
		window := generic.Period{Start: monday, End: monday.AddDays(DaysPerWeek - 1)}
		if !touchesAny(window, effective) {
			continue
		}

		week := WeekRecord{
			Nummer:          len(weeks) + 1,
			Montag:          window.Start,
			Samstag:         window.End,
			Jahr:            monday.Year(),
			Ausbildungsjahr: generic.TrainingYear(trainingStart, monday),
		}
		for i := range week.Tage {
			week.Tage[i] = r.resolveDay(ctx, p.Region, monday.AddDays(i), effective)
		}
		week.Kategorie = pluralityCategory(week.Tage, r.DefaultCategory)
		weeks = append(weeks, week)
	}
	return weeks
}

func (r *Reconciler) resolveDay(ctx context.Context, region string, date generic.TimePoint, ranges []generic.Zeitraum) DayEntry {
	entry := DayEntry{Datum: date, Kind: DayFree}
	if covering, ok := firstContaining(ranges, date); ok {
		entry.Kategorie = covering.Kategorie
		entry.Label = covering.Beschreibung
		entry.Kind = DayWork
	}

	if r.Holidays != nil {
		if name, ok := r.Holidays.HolidayName(ctx, region, date); ok {
			entry.Feiertag = name
			entry.Label = LabelHolidayPrefix + name
			entry.Kind = DayHoliday
			return entry
		}
	}
	if date.IsWeekend() {
		entry.Label = LabelWeekend
		entry.Kind = DayWeekend
	}
	return entry
}

func touchesAny(window generic.Period, ranges []generic.Zeitraum) bool {
	for _, z := range ranges {
		if window.Overlaps(z.Period) {
			return true
		}
	}
	return false
}

// firstContaining relies on ranges being sorted by start: earliest start wins.
func firstContaining(ranges []generic.Zeitraum, date generic.TimePoint) (generic.Zeitraum, bool) {
	for _, z := range ranges {
		if z.Contains(date) {
			return z, true
		}
	}
	return generic.Zeitraum{}, false
}

func pluralityCategory(days [DaysPerWeek]DayEntry, fallback generic.Category) generic.Category {
	counts := make(map[generic.Category]int)
	var order []generic.Category
	for _, d := range days {
		if d.Kategorie == "" {
			continue
		}
		if counts[d.Kategorie] == 0 {
			order = append(order, d.Kategorie)
		}
		counts[d.Kategorie]++
	}

	best := fallback
	bestCount := 0
	for _, c := range order {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}
