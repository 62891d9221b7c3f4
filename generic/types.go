/*
Package generic provides the core types of the Wochennachweis generator.

PURPOSE:
  Domain types shared by the reconciler, the template layer, the stores and
  the HTTP API. Nothing in here knows about .docx files or HTTP.

KEY CONCEPTS IN THIS FILE (types.go):
  - Person: The trainee a report is written for
  - Zeitraum: A labeled date range (Umschulung, Praktikum) with a description
  - Category: The kind of phase a Zeitraum belongs to
  - Amount: A quantity with a unit (working days, hours)

DESIGN PRINCIPLES:
  1. Day granularity: All dates are TimePoints (calendar days, UTC)
  2. Replace, don't mutate: Ranges are added and removed, never edited
  3. Precision: Uses decimal.Decimal for hour totals

USAGE:
  r := generic.Zeitraum{
      Kategorie:    generic.CategoryPraktikum,
      Period:       generic.Period{Start: mar4, End: may31},
      Beschreibung: "Netzwerkadministration im Betrieb",
  }

SEE ALSO:
  - period.go: Overlap and containment predicates
  - report/reconcile.go: Turns Zeitraeume into report weeks
*/
package generic

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORY - Kind of training phase
// =============================================================================

type Category string

const (
	CategoryUmschulung Category = "Umschulung"
	CategoryPraktikum  Category = "Praktikum"
)

// Known reports whether c is one of the built-in categories.
func (c Category) Known() bool {
	return c == CategoryUmschulung || c == CategoryPraktikum
}

// =============================================================================
// PERSON & ZEITRAUM
// =============================================================================

// Person is the trainee. Start/End bound the whole programme; End may be zero.
type Person struct {
	Nachname string
	Vorname  string
	Klasse   string
	Region   string
	Start    TimePoint
	End      TimePoint
}

// Zeitraum is a labeled date range with a free-text activity description.
type Zeitraum struct {
	Kategorie Category
	Period
	Beschreibung string
}

// Overlaps reports whether two ranges share at least one day.
func Overlaps(a, b Zeitraum) bool {
	return a.Period.Overlaps(b.Period)
}

// SortZeitraeume returns a copy ordered by start date. Equal starts keep
// their input order.
func SortZeitraeume(ranges []Zeitraum) []Zeitraum {
	sorted := make([]Zeitraum, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}

// Span returns the smallest period covering every range.
func Span(ranges []Zeitraum) (Period, bool) {
	if len(ranges) == 0 {
		return Period{}, false
	}
	span := ranges[0].Period
	for _, r := range ranges[1:] {
		span.Start = MinTime(span.Start, r.Start)
		span.End = MaxTime(span.End, r.End)
	}
	return span, true
}

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays  Unit = "days"
	UnitHours Unit = "hours"
)

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }

// Hours converts a day count into hours at the given daily rate.
func (a Amount) Hours(perDay decimal.Decimal) Amount {
	if a.Unit == UnitHours {
		return a
	}
	return Amount{Value: a.Value.Mul(perDay), Unit: UnitHours}
}

func (a Amount) String() string {
	return a.Value.String() + " " + string(a.Unit)
}
