package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/store/sqlite"
)

func day(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

func newStore(t *testing.T, opts ...sqlite.Option) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func zeitraum(desc string, start, end generic.TimePoint) generic.Zeitraum {
	return generic.Zeitraum{Kategorie: generic.CategoryUmschulung, Period: generic.Period{Start: start, End: end}, Beschreibung: desc}
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestStore_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	sess, err := s.CreateSession(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	p := generic.Person{
		Nachname: "Muster", Vorname: "Erika", Klasse: "FISI 24", Region: "BY",
		Start: day(2024, time.September, 2), End: day(2026, time.August, 31),
	}
	require.NoError(t, s.SavePerson(ctx, sess.ID, p))

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got.Person)
	assert.Empty(t, got.Zeitraeume)
}

func TestStore_ZeitraeumeSortedAndDeletedByIndex(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	sess, err := s.CreateSession(ctx)
	require.NoError(t, err)

	// GIVEN: ranges added out of order, two with the same start
	require.NoError(t, s.AddZeitraum(ctx, sess.ID, zeitraum("C", day(2024, 3, 1), day(2024, 3, 31))))
	require.NoError(t, s.AddZeitraum(ctx, sess.ID, zeitraum("A", day(2024, 1, 1), day(2024, 1, 31))))
	require.NoError(t, s.AddZeitraum(ctx, sess.ID, zeitraum("B1", day(2024, 2, 1), day(2024, 2, 14))))
	require.NoError(t, s.AddZeitraum(ctx, sess.ID, zeitraum("B2", day(2024, 2, 1), day(2024, 2, 29))))

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Zeitraeume, 4)
	assert.Equal(t, []string{"A", "B1", "B2", "C"}, descriptions(got.Zeitraeume))
	assert.Equal(t, day(2024, 2, 29), got.Zeitraeume[2].End)

	// WHEN: deleting index 1 of the sorted list
	require.NoError(t, s.DeleteZeitraum(ctx, sess.ID, 1))

	// THEN
	got, err = s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B2", "C"}, descriptions(got.Zeitraeume))

	assert.ErrorIs(t, s.DeleteZeitraum(ctx, sess.ID, 3), generic.ErrZeitraumIndex)
	assert.ErrorIs(t, s.DeleteZeitraum(ctx, sess.ID, -1), generic.ErrZeitraumIndex)
}

func descriptions(ranges []generic.Zeitraum) []string {
	out := make([]string, len(ranges))
	for i, z := range ranges {
		out[i] = z.Beschreibung
	}
	return out
}

func TestStore_ClearSessionRemovesRanges(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	sess, err := s.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, s.AddZeitraum(ctx, sess.ID, zeitraum("A", day(2024, 1, 1), day(2024, 1, 31))))

	require.NoError(t, s.ClearSession(ctx, sess.ID))

	_, err = s.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, generic.ErrSessionNotFound)
	assert.ErrorIs(t, s.AddZeitraum(ctx, sess.ID, zeitraum("B", day(2024, 2, 1), day(2024, 2, 2))), generic.ErrSessionNotFound)
}

func TestStore_IdleTimeout(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, sqlite.WithIdleTimeout(30*time.Minute))

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	sess, err := s.CreateSession(ctx)
	require.NoError(t, err)

	// GIVEN: activity 20 minutes later keeps the session alive
	now = now.Add(20 * time.Minute)
	_, err = s.GetSession(ctx, sess.ID)
	require.NoError(t, err)

	// WHEN: another 20 minutes pass (40 since creation, 20 since last use)
	now = now.Add(20 * time.Minute)
	_, err = s.GetSession(ctx, sess.ID)
	require.NoError(t, err)

	// THEN: 31 idle minutes expire it
	now = now.Add(31 * time.Minute)
	_, err = s.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, generic.ErrSessionNotFound)
}

func TestStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })
	old, err := s.CreateSession(ctx)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	fresh, err := s.CreateSession(ctx)
	require.NoError(t, err)

	n, err := s.PurgeExpired(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetSession(ctx, old.ID)
	assert.ErrorIs(t, err, generic.ErrSessionNotFound)
	_, err = s.GetSession(ctx, fresh.ID)
	assert.NoError(t, err)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestStore_Holidays(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.SaveHoliday(ctx, generic.Holiday{ID: "bridge", Region: "NW", Name: "Brückentag", Date: day(2024, 5, 10)}))
	require.NoError(t, s.SaveHoliday(ctx, generic.Holiday{ID: "xmas", Name: "Betriebsferien", Date: day(2020, 12, 27), Recurring: true}))
	require.NoError(t, s.SaveHoliday(ctx, generic.Holiday{ID: "by", Region: "BY", Name: "Schulfrei", Date: day(2024, 2, 12)}))

	list, err := s.ListHolidays(ctx, "NW")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "xmas", list[0].ID)
	assert.True(t, list[0].Recurring)
	assert.Equal(t, "bridge", list[1].ID)

	inYear, err := s.HolidaysForYear(ctx, 2024, "NW")
	require.NoError(t, err)
	require.Len(t, inYear, 2)
	assert.Equal(t, "bridge", inYear[0].ID)
	assert.Equal(t, day(2024, 12, 27), inYear[1].Date)

	inYear, err = s.HolidaysForYear(ctx, 2025, "NW")
	require.NoError(t, err)
	require.Len(t, inYear, 1)
	assert.Equal(t, day(2025, 12, 27), inYear[0].Date)

	// Upsert by ID
	require.NoError(t, s.SaveHoliday(ctx, generic.Holiday{ID: "bridge", Region: "NW", Name: "Brückentag (verlegt)", Date: day(2024, 5, 31)}))
	list, err = s.ListHolidays(ctx, "NW")
	require.NoError(t, err)
	assert.Equal(t, "Brückentag (verlegt)", list[1].Name)

	require.NoError(t, s.DeleteHoliday(ctx, "bridge"))
	assert.ErrorIs(t, s.DeleteHoliday(ctx, "bridge"), generic.ErrHolidayNotFound)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wochennachweis.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	sess, err := s.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, s.AddZeitraum(ctx, sess.ID, zeitraum("A", day(2024, 1, 1), day(2024, 1, 5))))
	require.NoError(t, s.Close())

	// Migrations run again without error on an up-to-date schema
	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, got.Zeitraeume, 1)
}
