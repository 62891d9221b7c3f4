package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/warp/wochennachweis/generic"
)

const (
	maxNameLength        = 100
	maxKlasseLength      = 50
	maxDescriptionLength = 2000
)

// Dates outside MinYear..MaxYear are rejected. The same bounds apply to
// holiday lookups.
const (
	MinYear = 1900
	MaxYear = 2100
)

// MaxWeeks caps the number of weeks one generation may span.
const MaxWeeks = 520

// ValidatePerson lists the problems of the person form.
func ValidatePerson(p generic.Person) []string {
	var problems []string
	problems = appendRequired(problems, "Nachname", p.Nachname, maxNameLength)
	problems = appendRequired(problems, "Vorname", p.Vorname, maxNameLength)
	problems = appendRequired(problems, "Klasse", p.Klasse, maxKlasseLength)
	if p.Start.IsZero() {
		problems = append(problems, "Umschulungsbeginn ist erforderlich")
	}
	problems = appendInRange(problems, "Umschulungsbeginn", p.Start)
	problems = appendInRange(problems, "Umschulungsende", p.End)
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		problems = append(problems, "Umschulungsende liegt vor dem Umschulungsbeginn")
	}
	return problems
}

// ValidateZeitraum lists the problems of one range.
func ValidateZeitraum(z generic.Zeitraum) []string {
	var problems []string
	if !z.Kategorie.Known() {
		problems = append(problems, fmt.Sprintf("Unbekannte Kategorie %q", z.Kategorie))
	}
	if z.Start.IsZero() || z.End.IsZero() {
		problems = append(problems, "Start- und Enddatum sind erforderlich")
	} else if z.End.Before(z.Start) {
		problems = append(problems, fmt.Sprintf("Enddatum %s liegt vor dem Startdatum %s", z.End.German(), z.Start.German()))
	}
	problems = appendInRange(problems, "Startdatum", z.Start)
	problems = appendInRange(problems, "Enddatum", z.End)
	problems = appendRequired(problems, "Beschreibung", z.Beschreibung, maxDescriptionLength)
	return problems
}

// Validate checks a complete generation request. With requireRanges the
// plan must contain at least one range.
func Validate(p generic.Person, ranges []generic.Zeitraum, requireRanges bool) error {
	problems := ValidatePerson(p)
	if requireRanges && len(ranges) == 0 {
		problems = append(problems, "Mindestens ein Zeitraum ist erforderlich")
	}
	for i, z := range ranges {
		for _, problem := range ValidateZeitraum(z) {
			problems = append(problems, fmt.Sprintf("Zeitraum %d: %s", i+1, problem))
		}
	}
	if len(problems) == 0 {
		if weeks := spanWeeks(p, ranges); weeks > MaxWeeks {
			problems = append(problems, fmt.Sprintf("Der Zeitraum umfasst %d Wochen, erlaubt sind höchstens %d", weeks, MaxWeeks))
		}
	}
	if len(problems) > 0 {
		return &generic.ValidationError{Problems: problems}
	}
	return nil
}

// appendInRange ignores unset dates; required checks report those.
func appendInRange(problems []string, field string, tp generic.TimePoint) []string {
	if tp.IsZero() || (tp.Year() >= MinYear && tp.Year() <= MaxYear) {
		return problems
	}
	return append(problems, fmt.Sprintf("%s muss zwischen %d und %d liegen", field, MinYear, MaxYear))
}

// spanWeeks counts the Mondays between the earliest and the latest date of
// the plan.
func spanWeeks(p generic.Person, ranges []generic.Zeitraum) int {
	var first, last generic.TimePoint
	extend := func(tp generic.TimePoint) {
		if tp.IsZero() {
			return
		}
		if first.IsZero() || tp.Before(first) {
			first = tp
		}
		if last.IsZero() || tp.After(last) {
			last = tp
		}
	}
	extend(p.Start)
	extend(p.End)
	for _, z := range ranges {
		extend(z.Start)
		extend(z.End)
	}
	if first.IsZero() {
		return 0
	}
	return int(last.Monday().Time.Sub(first.Monday().Time).Hours()/24)/7 + 1
}

func appendRequired(problems []string, field, value string, limit int) []string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return append(problems, field+" ist erforderlich")
	case utf8.RuneCountInString(value) > limit:
		return append(problems, fmt.Sprintf("%s darf höchstens %d Zeichen lang sein", field, limit))
	}
	return problems
}

// =============================================================================
// OVERLAPS - Reported, never rejected
// =============================================================================

// Overlap names two ranges (indexes into the start-sorted list) sharing days.
type Overlap struct {
	First  int
	Second int
}

// FindOverlaps returns every overlapping pair. The earlier-starting range
// wins on shared days.
func FindOverlaps(ranges []generic.Zeitraum) []Overlap {
	sorted := generic.SortZeitraeume(ranges)
	var overlaps []Overlap
	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			if generic.Overlaps(sorted[i], sorted[j]) {
				overlaps = append(overlaps, Overlap{First: i, Second: j})
			}
		}
	}
	return overlaps
}

// Warnings renders overlaps as user-facing messages.
func Warnings(ranges []generic.Zeitraum) []string {
	sorted := generic.SortZeitraeume(ranges)
	var warnings []string
	for _, o := range FindOverlaps(sorted) {
		a, b := sorted[o.First], sorted[o.Second]
		warnings = append(warnings, fmt.Sprintf(
			"Zeitraum %s überschneidet sich mit %s; an gemeinsamen Tagen gilt %q",
			a.Period.German(), b.Period.German(), a.Beschreibung))
	}
	return warnings
}
