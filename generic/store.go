/*
store.go - Persistence interfaces for sessions and custom holidays

PURPOSE:
  Defines the interface between the HTTP layer and the database.
  A session holds one trainee's form state (person data + Zeitraeume)
  until it is cleared or sits idle longer than the configured timeout.

KEY INTERFACES:
  SessionStore: Session lifecycle and Zeitraum add/delete
  HolidayStore: Extra non-working days maintained by an admin

REPLACE, DON'T MUTATE:
  Zeitraeume are never edited in place. The form adds a range or deletes
  one by its index in the start-sorted list.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, used by the server
  - generic/store/memory.go: In-memory for tests and the CLI

SEE ALSO:
  - api/session.go: Cookie handling on top of SessionStore
  - holiday/calculator.go: Merges HolidayStore entries into holiday sets
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// SESSION STORE
// =============================================================================

// Session is one browser's form state.
type Session struct {
	ID         string
	Person     Person
	Zeitraeume []Zeitraum // sorted by start date
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SessionStore persists sessions. Every read or write refreshes UpdatedAt;
// sessions idle longer than the store's timeout behave as if missing.
type SessionStore interface {
	// CreateSession starts an empty session with a fresh ID.
	CreateSession(ctx context.Context) (*Session, error)

	// GetSession returns ErrSessionNotFound for unknown or expired IDs.
	GetSession(ctx context.Context, id string) (*Session, error)

	// SavePerson replaces the person data of a session.
	SavePerson(ctx context.Context, id string, p Person) error

	// AddZeitraum appends a range.
	AddZeitraum(ctx context.Context, id string, z Zeitraum) error

	// DeleteZeitraum removes the range at index of the start-sorted list.
	DeleteZeitraum(ctx context.Context, id string, index int) error

	// ClearSession drops the session and all its ranges.
	ClearSession(ctx context.Context, id string) error

	// PurgeExpired deletes sessions idle since before cutoff.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// =============================================================================
// HOLIDAY STORE
// =============================================================================

// HolidayStore persists custom holidays (Brückentage, school closures).
type HolidayStore interface {
	SaveHoliday(ctx context.Context, h Holiday) error
	DeleteHoliday(ctx context.Context, id string) error

	// ListHolidays returns holidays of region plus those valid everywhere.
	ListHolidays(ctx context.Context, region string) ([]Holiday, error)

	// HolidaysForYear is ListHolidays restricted to year, with recurring
	// entries moved onto it.
	HolidaysForYear(ctx context.Context, year int, region string) ([]Holiday, error)
}

// ProjectHolidays keeps the holidays falling into year. Recurring entries
// get their date moved onto year.
func ProjectHolidays(list []Holiday, year int) []Holiday {
	var result []Holiday
	for _, h := range list {
		if !h.Recurring && h.Date.Year() != year {
			continue
		}
		h.Date = h.On(year)
		result = append(result, h)
	}
	return result
}
