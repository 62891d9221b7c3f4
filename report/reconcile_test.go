package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/holiday"
	"github.com/warp/wochennachweis/report"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

func day(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

func rng(cat generic.Category, desc string, start, end generic.TimePoint) generic.Zeitraum {
	return generic.Zeitraum{Kategorie: cat, Period: generic.Period{Start: start, End: end}, Beschreibung: desc}
}

func newReconciler() *report.Reconciler {
	return report.NewReconciler(holiday.NewCalculator(), generic.CategoryUmschulung)
}

func person(start, end generic.TimePoint) generic.Person {
	return generic.Person{Nachname: "Muster", Vorname: "Max", Klasse: "FIAE 23", Region: "NW", Start: start, End: end}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestReconcile_TwoWeekSpan(t *testing.T) {
	// GIVEN: A person spanning 2024-01-29..2024-02-11 with one covering range
	p := person(day(2024, time.January, 29), day(2024, time.February, 11))
	ranges := []generic.Zeitraum{rng(generic.CategoryUmschulung, "Training", p.Start, p.End)}

	// WHEN: Reconciling
	weeks := newReconciler().Reconcile(context.Background(), p, ranges)

	// THEN: Exactly two weeks, none with a holiday
	require.Len(t, weeks, 2)
	assert.Equal(t, day(2024, time.January, 29), weeks[0].Montag)
	assert.Equal(t, day(2024, time.February, 5), weeks[1].Montag)
	for _, w := range weeks {
		assert.Len(t, w.Labels(), report.DaysPerWeek)
		assert.Equal(t, w.Montag.AddDays(5), w.Samstag)
		for _, d := range w.Tage {
			assert.NotEqual(t, report.DayHoliday, d.Kind, "no holiday on %s", d.Datum)
		}
		assert.Equal(t, "Training", w.Tage[0].Label)
		assert.Equal(t, report.LabelWeekend, w.Tage[5].Label)
	}
}

func TestReconcile_GoodFridayOverridesDescription(t *testing.T) {
	// GIVEN: A range ending on Karfreitag 2024
	p := person(day(2024, time.March, 18), day(2024, time.March, 29))
	ranges := []generic.Zeitraum{rng(generic.CategoryPraktikum, "Serverraum", p.Start, day(2024, time.March, 29))}

	weeks := newReconciler().Reconcile(context.Background(), p, ranges)

	// THEN: Friday of the second week is labelled as holiday
	require.Len(t, weeks, 2)
	friday := weeks[1].Tage[4]
	assert.Equal(t, day(2024, time.March, 29), friday.Datum)
	assert.Equal(t, "Feiertag: Karfreitag", friday.Label)
	assert.Equal(t, report.DayHoliday, friday.Kind)
	assert.Equal(t, "Karfreitag", friday.Feiertag)
	assert.Equal(t, generic.CategoryPraktikum, friday.Kategorie, "holidays keep the range's category")
	assert.Equal(t, "Serverraum", weeks[1].Tage[3].Label)
}

func TestReconcile_EarliestStartWinsOnOverlap(t *testing.T) {
	// GIVEN: B is added first but A starts earlier
	p := person(day(2024, time.January, 1), day(2024, time.January, 15))
	ranges := []generic.Zeitraum{
		rng(generic.CategoryPraktikum, "B", day(2024, time.January, 5), day(2024, time.January, 15)),
		rng(generic.CategoryUmschulung, "A", day(2024, time.January, 1), day(2024, time.January, 10)),
	}

	weeks := newReconciler().Reconcile(context.Background(), p, ranges)

	require.Len(t, weeks, 3)
	jan5 := weeks[0].Tage[4]
	require.Equal(t, day(2024, time.January, 5), jan5.Datum)
	assert.Equal(t, "A", jan5.Label)
	assert.Equal(t, "Feiertag: Neujahr", weeks[0].Tage[0].Label)

	// Jan 11 is only covered by B
	assert.Equal(t, "B", weeks[1].Tage[3].Label)
}

func TestReconcile_ZeroRangesSynthesizesFullSpan(t *testing.T) {
	p := person(day(2024, time.January, 29), day(2024, time.February, 11))

	weeks := newReconciler().Reconcile(context.Background(), p, nil)

	require.Len(t, weeks, 2)
	for _, w := range weeks {
		assert.Equal(t, generic.CategoryUmschulung, w.Kategorie)
		assert.Equal(t, generic.CategoryUmschulung, w.Tage[0].Kategorie)
	}
}

func TestReconcile_NoRangesAndNoEndYieldsNothing(t *testing.T) {
	p := person(day(2024, time.January, 29), generic.TimePoint{})

	assert.Empty(t, newReconciler().Reconcile(context.Background(), p, nil))
}

func TestReconcile_SkipsUncoveredWeeksAndNumbersGlobally(t *testing.T) {
	p := person(day(2024, time.January, 1), day(2024, time.February, 9))
	ranges := []generic.Zeitraum{
		rng(generic.CategoryPraktikum, "später", day(2024, time.February, 5), day(2024, time.February, 9)),
		rng(generic.CategoryUmschulung, "früher", day(2024, time.January, 8), day(2024, time.January, 12)),
	}

	weeks := newReconciler().Reconcile(context.Background(), p, ranges)

	require.Len(t, weeks, 2)
	assert.Equal(t, 1, weeks[0].Nummer)
	assert.Equal(t, day(2024, time.January, 8), weeks[0].Montag)
	assert.Equal(t, generic.CategoryUmschulung, weeks[0].Kategorie)
	assert.Equal(t, 2, weeks[1].Nummer)
	assert.Equal(t, day(2024, time.February, 5), weeks[1].Montag)
	assert.Equal(t, generic.CategoryPraktikum, weeks[1].Kategorie)
}

func TestReconcile_PluralityCategoryWithFirstSeenTieBreak(t *testing.T) {
	p := person(day(2024, time.June, 3), day(2024, time.June, 15))
	ranges := []generic.Zeitraum{
		// Week 1: Praktikum Mon-Tue, Umschulung Wed-Sat
		rng(generic.CategoryPraktikum, "P", day(2024, time.June, 3), day(2024, time.June, 4)),
		rng(generic.CategoryUmschulung, "U", day(2024, time.June, 5), day(2024, time.June, 8)),
		// Week 2: Praktikum Mon-Wed, Umschulung Thu-Sat
		rng(generic.CategoryPraktikum, "P2", day(2024, time.June, 10), day(2024, time.June, 12)),
		rng(generic.CategoryUmschulung, "U2", day(2024, time.June, 13), day(2024, time.June, 15)),
	}

	weeks := newReconciler().Reconcile(context.Background(), p, ranges)

	require.Len(t, weeks, 2)
	assert.Equal(t, generic.CategoryUmschulung, weeks[0].Kategorie)
	assert.Equal(t, generic.CategoryPraktikum, weeks[1].Kategorie, "3:3 tie goes to the first category seen")
}

func TestReconcile_YearBoundaryUsesEachDaysYear(t *testing.T) {
	p := person(day(2024, time.December, 23), day(2025, time.January, 3))
	ranges := []generic.Zeitraum{rng(generic.CategoryUmschulung, "Projektarbeit", p.Start, p.End)}

	weeks := newReconciler().Reconcile(context.Background(), p, ranges)

	require.Len(t, weeks, 2)
	w := weeks[1]
	assert.Equal(t, day(2024, time.December, 30), w.Montag)
	assert.Equal(t, 2024, w.Jahr)
	assert.Equal(t, "Projektarbeit", w.Tage[0].Label)
	assert.Equal(t, "Feiertag: Silvester", w.Tage[1].Label)
	assert.Equal(t, "Feiertag: Neujahr", w.Tage[2].Label)
	assert.Equal(t, "Projektarbeit", w.Tage[3].Label)
	assert.Equal(t, report.LabelWeekend, w.Tage[5].Label)
	assert.Empty(t, w.Tage[5].Kategorie, "Saturday Jan 4 is outside the range")
}

func TestReconcile_TrainingYearIndex(t *testing.T) {
	p := person(day(2023, time.September, 1), day(2024, time.September, 13))
	ranges := []generic.Zeitraum{
		rng(generic.CategoryUmschulung, "Start", day(2023, time.September, 4), day(2023, time.September, 8)),
		rng(generic.CategoryUmschulung, "Jahr 2", day(2024, time.September, 2), day(2024, time.September, 6)),
	}

	weeks := newReconciler().Reconcile(context.Background(), p, ranges)

	require.Len(t, weeks, 2)
	assert.Equal(t, 1, weeks[0].Ausbildungsjahr)
	assert.Equal(t, 2, weeks[1].Ausbildungsjahr)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestReconcile_SequenceAndMondaysAreContiguous(t *testing.T) {
	p := person(day(2024, time.January, 3), day(2024, time.December, 20))
	ranges := []generic.Zeitraum{
		rng(generic.CategoryUmschulung, "Theorie", day(2024, time.January, 3), day(2024, time.June, 28)),
		rng(generic.CategoryPraktikum, "Betrieb", day(2024, time.July, 1), day(2024, time.December, 20)),
	}

	weeks := newReconciler().Reconcile(context.Background(), p, ranges)

	require.NotEmpty(t, weeks)
	for i, w := range weeks {
		assert.Equal(t, i+1, w.Nummer)
		assert.Equal(t, time.Monday, w.Montag.Weekday())
		assert.Equal(t, w.Montag.AddDays(5), w.Samstag)
		if i > 0 {
			assert.Equal(t, weeks[i-1].Montag.AddDays(7), w.Montag)
		}
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	p := person(day(2024, time.March, 1), day(2024, time.May, 31))
	ranges := []generic.Zeitraum{
		rng(generic.CategoryPraktikum, "A", day(2024, time.March, 1), day(2024, time.April, 15)),
		rng(generic.CategoryUmschulung, "B", day(2024, time.April, 10), day(2024, time.May, 31)),
	}
	r := newReconciler()

	first := r.Reconcile(context.Background(), p, ranges)
	second := r.Reconcile(context.Background(), p, ranges)

	assert.Equal(t, first, second)
}
