package holiday_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/generic/store"
	"github.com/warp/wochennachweis/holiday"
)

func day(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

// =============================================================================
// EASTER & STATIC RULES
// =============================================================================

func TestEaster_IsSundayBetweenMarch22AndApril25(t *testing.T) {
	for year := 1900; year <= 2100; year++ {
		e := holiday.Easter(year)
		require.Equal(t, time.Sunday, e.Weekday(), "year %d", year)
		require.False(t, e.Before(day(year, time.March, 22)), "year %d: %s", year, e)
		require.False(t, e.After(day(year, time.April, 25)), "year %d: %s", year, e)
	}
}

func TestEaster_KnownDates(t *testing.T) {
	assert.Equal(t, day(2024, time.March, 31), holiday.Easter(2024))
	assert.Equal(t, day(2025, time.April, 20), holiday.Easter(2025))
	assert.Equal(t, day(2019, time.April, 21), holiday.Easter(2019))
	assert.Equal(t, day(2000, time.April, 23), holiday.Easter(2000))
}

func TestStatic_NordrheinWestfalen2024(t *testing.T) {
	set := holiday.Static(2024, "NW", false)

	name, ok := set.Name(day(2024, time.March, 29))
	require.True(t, ok)
	assert.Equal(t, "Karfreitag", name)

	for _, d := range []generic.TimePoint{
		day(2024, time.January, 1),
		day(2024, time.April, 1),   // Ostermontag
		day(2024, time.May, 9),     // Christi Himmelfahrt
		day(2024, time.May, 20),    // Pfingstmontag
		day(2024, time.May, 30),    // Fronleichnam
		day(2024, time.October, 3), // Einheit
		day(2024, time.November, 1),
		day(2024, time.December, 26),
	} {
		assert.True(t, set.Contains(d), "expected holiday on %s", d)
	}

	assert.False(t, set.Contains(day(2024, time.January, 6)), "Heilige Drei Könige is not observed in NW")
	assert.False(t, set.Contains(day(2024, time.February, 12)), "customary days disabled")
}

func TestStatic_RegionalExclusions(t *testing.T) {
	nationwide := holiday.Static(2024, "DE", false)
	bavaria := holiday.Static(2024, "by", false)
	saxony := holiday.Static(2024, "DE-SN", false)

	assert.False(t, nationwide.Contains(day(2024, time.May, 30)), "Fronleichnam is regional")
	assert.True(t, bavaria.Contains(day(2024, time.May, 30)))
	assert.True(t, bavaria.Contains(day(2024, time.January, 6)))
	assert.True(t, saxony.Contains(day(2024, time.November, 20)), "Buß- und Bettag 2024")
	assert.True(t, saxony.Contains(day(2024, time.October, 31)))
	assert.False(t, saxony.Contains(day(2024, time.November, 1)))
	assert.Equal(t, "SN", saxony.Region)
}

func TestStatic_CustomaryDays(t *testing.T) {
	set := holiday.Static(2024, "NW", true)

	for _, tc := range []struct {
		date generic.TimePoint
		name string
	}{
		{day(2024, time.February, 12), "Rosenmontag"},
		{day(2024, time.February, 13), "Karnevalsdienstag"},
		{day(2024, time.December, 24), "Heiligabend"},
		{day(2024, time.December, 31), "Silvester"},
	} {
		name, ok := set.Name(tc.date)
		assert.True(t, ok, tc.name)
		assert.Equal(t, tc.name, name)
	}
}

func TestNormalizeRegion(t *testing.T) {
	assert.Equal(t, "NW", holiday.NormalizeRegion(" nw "))
	assert.Equal(t, "BY", holiday.NormalizeRegion("DE-BY"))
	assert.Equal(t, "DE", holiday.NormalizeRegion(""))
	assert.Equal(t, "DE", holiday.NormalizeRegion("XX"))

	assert.True(t, holiday.KnownRegion("de-sn"))
	assert.True(t, holiday.KnownRegion("DE"))
	assert.False(t, holiday.KnownRegion("XX"))
}

// =============================================================================
// CALCULATOR
// =============================================================================

func nagerServer(t *testing.T, hits *int32, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/2024/DE", r.URL.Path)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"date": "2024-03-29", "localName": "Karfreitag", "name": "Good Friday", "countryCode": "DE", "global": true},
			{"date": "2024-05-30", "localName": "Fronleichnam", "name": "Corpus Christi", "countryCode": "DE", "global": false, "counties": []string{"DE-BW", "DE-NW"}},
			{"date": "2024-08-15", "localName": "Mariä Himmelfahrt", "name": "Assumption Day", "countryCode": "DE", "global": false, "counties": []string{"DE-SL"}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCalculator_PrefersRemoteProvider(t *testing.T) {
	var hits int32
	srv := nagerServer(t, &hits, http.StatusOK)

	calc := holiday.NewCalculator(
		holiday.WithProvider(holiday.NewNagerProvider(srv.URL, time.Second)),
		holiday.WithCustomary(false),
	)

	set := calc.GetHolidays(context.Background(), 2024, "NW")

	assert.Equal(t, holiday.SourceRemote, set.Source)
	assert.Equal(t, 2, set.Len(), "Saarland-only entry is filtered out")
	assert.True(t, set.Contains(day(2024, time.May, 30)))
	assert.False(t, set.Contains(day(2024, time.August, 15)))
}

func TestCalculator_FallsBackWhenProviderFails(t *testing.T) {
	var hits int32
	srv := nagerServer(t, &hits, http.StatusInternalServerError)

	calc := holiday.NewCalculator(
		holiday.WithProvider(holiday.NewNagerProvider(srv.URL, time.Second)),
	)

	set := calc.GetHolidays(context.Background(), 2024, "NW")

	assert.Equal(t, holiday.SourceStatic, set.Source)
	assert.True(t, calc.IsHoliday(context.Background(), "NW", day(2024, time.March, 29)))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCalculator_FallsBackOnTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	calc := holiday.NewCalculator(
		holiday.WithProvider(holiday.NewNagerProvider(srv.URL, 5*time.Second)),
		holiday.WithTimeout(50*time.Millisecond),
	)

	start := time.Now()
	set := calc.GetHolidays(context.Background(), 2024, "NW")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, holiday.SourceStatic, set.Source)
}

func TestCalculator_CachesPerYearAndRegion(t *testing.T) {
	var hits int32
	srv := nagerServer(t, &hits, http.StatusOK)

	calc := holiday.NewCalculator(
		holiday.WithProvider(holiday.NewNagerProvider(srv.URL, time.Second)),
	)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			calc.GetHolidays(ctx, 2024, "NW")
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	calc.GetHolidays(ctx, 2024, "SL")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "different region is a different key")

	require.NoError(t, calc.ClearCache(ctx))
	calc.GetHolidays(ctx, 2024, "NW")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestCalculator_CachedSetsAreIsolated(t *testing.T) {
	calc := holiday.NewCalculator()
	ctx := context.Background()

	set := calc.GetHolidays(ctx, 2024, "NW")
	set.Days["2024-07-01"] = "Eingeschleust"

	assert.False(t, calc.IsHoliday(ctx, "NW", day(2024, time.July, 1)))
}

func TestCalculator_MergesCustomHolidays(t *testing.T) {
	ctx := context.Background()
	custom := store.NewMemory(0)
	require.NoError(t, custom.SaveHoliday(ctx, generic.Holiday{
		ID: "bt", Region: "NW", Name: "Brückentag", Date: day(2020, time.May, 31), Recurring: true,
	}))

	calc := holiday.NewCalculator(holiday.WithCustomHolidays(custom))

	name, ok := calc.HolidayName(ctx, "NW", day(2024, time.May, 31))
	require.True(t, ok)
	assert.Equal(t, "Brückentag", name)
	assert.False(t, calc.IsHoliday(ctx, "BY", day(2024, time.May, 31)))
}

func TestCalculator_LooksUpEachDayInItsOwnYear(t *testing.T) {
	calc := holiday.NewCalculator()
	ctx := context.Background()

	name, ok := calc.HolidayName(ctx, "NW", day(2025, time.January, 1))
	require.True(t, ok)
	assert.Equal(t, "Neujahr", name)
	assert.True(t, calc.IsNonWorkingDay(ctx, "NW", day(2024, time.December, 31)), "Silvester")
	assert.True(t, calc.IsNonWorkingDay(ctx, "NW", day(2024, time.December, 28)), "Saturday")
	assert.False(t, calc.IsNonWorkingDay(ctx, "NW", day(2024, time.December, 30)))
}

func TestRedisCache_FallsThroughWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	calc := holiday.NewCalculator(
		holiday.WithCache(holiday.NewMemoryCache(holiday.NewRedisCache(client, time.Hour, nil))),
	)

	set := calc.GetHolidays(context.Background(), 2024, "NW")

	assert.True(t, set.Contains(day(2024, time.March, 29)))
}

// =============================================================================
// BUSINESS CALENDAR
// =============================================================================

func TestWorkingDays_SkipsHolidaysAndWeekends(t *testing.T) {
	set := holiday.Static(2024, "NW", false)
	bc := holiday.BusinessCalendar(set)

	week := generic.Period{Start: day(2024, time.March, 25), End: day(2024, time.March, 30)}

	assert.Equal(t, 4, holiday.WorkingDays(bc, week.Days()), "Karfreitag and Saturday are off")
}
