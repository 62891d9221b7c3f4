package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/generic/store"
)

func zeitraum(desc string, start, end generic.TimePoint) generic.Zeitraum {
	return generic.Zeitraum{
		Kategorie:    generic.CategoryUmschulung,
		Period:       generic.Period{Start: start, End: end},
		Beschreibung: desc,
	}
}

func TestMemory_ZeitraeumeAreKeptSortedAndDeletedByIndex(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory(30 * time.Minute)

	s, err := m.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, m.AddZeitraum(ctx, s.ID, zeitraum("later", generic.NewTimePoint(2024, 3, 1), generic.NewTimePoint(2024, 3, 31))))
	require.NoError(t, m.AddZeitraum(ctx, s.ID, zeitraum("earlier", generic.NewTimePoint(2024, 1, 1), generic.NewTimePoint(2024, 1, 31))))

	got, err := m.GetSession(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Zeitraeume, 2)
	assert.Equal(t, "earlier", got.Zeitraeume[0].Beschreibung)

	require.NoError(t, m.DeleteZeitraum(ctx, s.ID, 0))
	assert.ErrorIs(t, m.DeleteZeitraum(ctx, s.ID, 5), generic.ErrZeitraumIndex)

	got, err = m.GetSession(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Zeitraeume, 1)
	assert.Equal(t, "later", got.Zeitraeume[0].Beschreibung)
}

func TestMemory_IdleSessionsExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := store.NewMemory(30 * time.Minute)
	m.SetClock(func() time.Time { return now })

	s, err := m.CreateSession(ctx)
	require.NoError(t, err)

	// GIVEN: 20 minutes pass, the session is touched
	now = now.Add(20 * time.Minute)
	_, err = m.GetSession(ctx, s.ID)
	require.NoError(t, err)

	// WHEN: another 31 minutes pass without activity
	now = now.Add(31 * time.Minute)

	// THEN: the session is gone
	_, err = m.GetSession(ctx, s.ID)
	assert.ErrorIs(t, err, generic.ErrSessionNotFound)
}

func TestMemory_HolidaysFilterByRegion(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory(0)

	require.NoError(t, m.SaveHoliday(ctx, generic.Holiday{ID: "a", Region: "NW", Name: "Brückentag", Date: generic.NewTimePoint(2024, 5, 10)}))
	require.NoError(t, m.SaveHoliday(ctx, generic.Holiday{ID: "b", Region: "", Name: "Betriebsferien", Date: generic.NewTimePoint(2024, 12, 27)}))
	require.NoError(t, m.SaveHoliday(ctx, generic.Holiday{ID: "c", Region: "BY", Name: "Schulfrei", Date: generic.NewTimePoint(2024, 2, 12)}))

	list, err := m.ListHolidays(ctx, "NW")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	assert.ErrorIs(t, m.DeleteHoliday(ctx, "missing"), generic.ErrHolidayNotFound)
}

func TestMemory_HolidaysForYearProjectsRecurring(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory(0)

	// GIVEN: a one-off holiday in 2023 and a recurring one first saved for 2020
	require.NoError(t, m.SaveHoliday(ctx, generic.Holiday{ID: "once", Name: "Umzug", Date: generic.NewTimePoint(2023, 6, 2)}))
	require.NoError(t, m.SaveHoliday(ctx, generic.Holiday{ID: "yearly", Name: "Betriebsausflug", Date: generic.NewTimePoint(2020, 9, 4), Recurring: true}))

	// WHEN: asking for 2024
	list, err := m.HolidaysForYear(ctx, 2024, "NW")
	require.NoError(t, err)

	// THEN: only the recurring one remains, moved onto 2024
	require.Len(t, list, 1)
	assert.Equal(t, "yearly", list[0].ID)
	assert.Equal(t, generic.NewTimePoint(2024, 9, 4), list[0].Date)

	list, err = m.HolidaysForYear(ctx, 2023, "NW")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
