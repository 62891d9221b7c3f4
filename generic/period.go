package generic

// =============================================================================
// PERIOD - Closed date interval
// =============================================================================

// Period is the closed interval [Start, End].
//
// Examples:
//   - A Zeitraum: Praktikum 2024-03-04 - 2024-05-31
//   - A report week: Monday - Saturday
//   - A training year: start date + 1 year - 1 day
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Valid reports whether both bounds are set and End is not before Start.
func (p Period) Valid() bool {
	return !p.Start.IsZero() && !p.End.IsZero() && !p.End.Before(p.Start)
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps is the closed-interval intersection test. Periods that only touch
// on a boundary day overlap.
func (p Period) Overlaps(o Period) bool {
	return p.Start.BeforeOrEqual(o.End) && o.Start.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Mondays returns the Monday of every week touching the period, in order.
func (p Period) Mondays() []TimePoint {
	var mondays []TimePoint
	for m := p.Start.Monday(); m.BeforeOrEqual(p.End); m = m.AddDays(7) {
		mondays = append(mondays, m)
	}
	return mondays
}

// Years returns every calendar year the period touches.
func (p Period) Years() []int {
	var years []int
	for y := p.Start.Year(); y <= p.End.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// German renders the period as "dd.MM.yyyy - dd.MM.yyyy".
func (p Period) German() string {
	return p.Start.German() + " - " + p.End.German()
}

// =============================================================================
// TRAINING YEARS - Anniversary counting
// =============================================================================

// TrainingYear is the 1-based index of the anniversary year of start that
// contains date. Dates before start count as the first year.
func TrainingYear(start, date TimePoint) int {
	years := date.Year() - start.Year()
	if date.Month() < start.Month() || (date.Month() == start.Month() && date.Day() < start.Day()) {
		years--
	}
	if years < 0 {
		return 1
	}
	return years + 1
}
