package generic

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// TIME POINT - Calendar day abstraction (reports are day-granular)
// =============================================================================

// TimePoint is a calendar day in UTC. The time-of-day part is always midnight.
type TimePoint struct {
	Time time.Time
}

const (
	isoLayout    = "2006-01-02"
	germanLayout = "02.01.2006"
)

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day (in t's own location).
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return DateOf(time.Now())
}

// ParseDate accepts ISO dates ("2024-01-29") and German dates ("29.01.2024").
func ParseDate(s string) (TimePoint, error) {
	for _, layout := range []string{isoLayout, germanLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return TimePoint{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint  { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }
func (tp TimePoint) AddYears(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(n, 0, 0)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsWeekend() bool       { wd := tp.Weekday(); return wd == time.Saturday || wd == time.Sunday }
func (tp TimePoint) IsWorkday() bool       { return !tp.IsWeekend() }

// IsZero reports an unset date. 0001-01-01 is indistinguishable from unset;
// validation only accepts years from 1900 on.
func (tp TimePoint) IsZero() bool { return tp.Time.IsZero() }

// ISOWeekday numbers the days Monday=1 .. Sunday=7.
func (tp TimePoint) ISOWeekday() int {
	if wd := tp.Weekday(); wd != time.Sunday {
		return int(wd)
	}
	return 7
}

// Monday rolls the date back to the Monday of its week.
func (tp TimePoint) Monday() TimePoint {
	return tp.AddDays(-(tp.ISOWeekday() - 1))
}

// ISOWeek returns the ISO-8601 year and week number.
func (tp TimePoint) ISOWeek() (year, week int) {
	return tp.Time.ISOWeek()
}

func (tp TimePoint) String() string { return tp.Time.Format(isoLayout) }

// German formats the date as dd.MM.yyyy.
func (tp TimePoint) German() string { return tp.Time.Format(germanLayout) }

// Compact formats the date as yyyyMMdd, used in archive names.
func (tp TimePoint) Compact() string { return tp.Time.Format("20060102") }

func (tp TimePoint) MarshalText() ([]byte, error) {
	if tp.IsZero() {
		return []byte{}, nil
	}
	return []byte(tp.String()), nil
}

func (tp *TimePoint) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*tp = TimePoint{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// =============================================================================
// HOLIDAY CALENDAR - Non-working day lookup
// =============================================================================

// Holiday is a named non-working day for a region. Region "" applies everywhere.
type Holiday struct {
	ID        string
	Region    string
	Date      TimePoint
	Name      string
	Recurring bool // true = same month/day every year
}

// On projects a recurring holiday onto the given year.
func (h Holiday) On(year int) TimePoint {
	if !h.Recurring {
		return h.Date
	}
	return NewTimePoint(year, h.Date.Month(), h.Date.Day())
}

// HolidayCalendar answers holiday questions for a region.
type HolidayCalendar interface {
	// HolidayName returns the holiday name and true if date is a holiday in region.
	HolidayName(ctx context.Context, region string, date TimePoint) (string, bool)
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to TimePoint) int { return int(to.Time.Sub(from.Time).Hours() / 24) }
func StartOfYear(year int) TimePoint     { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint       { return NewTimePoint(year, time.December, 31) }

// MinTime returns the earlier non-zero date.
func MinTime(a, b TimePoint) TimePoint {
	if a.IsZero() || (!b.IsZero() && b.Before(a)) {
		return b
	}
	return a
}

// MaxTime returns the later non-zero date.
func MaxTime(a, b TimePoint) TimePoint {
	if a.IsZero() || (!b.IsZero() && b.After(a)) {
		return b
	}
	return a
}
