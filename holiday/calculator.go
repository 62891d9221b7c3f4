/*
Package holiday computes German public holidays.

PURPOSE:
  Answers "is this day a holiday, and which one?" for the report weeks.
  The answer never fails: provider outages degrade to the built-in rules.

SOURCES (in order):
  1. Remote provider (date.nager.at), bounded by a timeout
  2. Static rules (rules.go) when the provider is disabled, fails, or
     returns nothing
  3. Custom holidays from the HolidayStore are merged on top

CACHING:
  Sets are cached per (year, region) behind Cache.GetOrCompute. ClearCache
  empties every layer, e.g. after an admin edits custom holidays.

USAGE:
  calc := holiday.NewCalculator(
      holiday.WithProvider(holiday.NewNagerProvider("", 10*time.Second)),
      holiday.WithLogger(logger),
  )
  name, ok := calc.HolidayName(ctx, "NW", date)

SEE ALSO:
  - report/reconcile.go: Uses the calculator per report day
  - business.go: Working-day counting on top of holiday sets
*/
package holiday

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/warp/wochennachweis/generic"
)

const DefaultTimeout = 10 * time.Second

// Calculator resolves holiday sets for (year, region).
type Calculator struct {
	provider      Provider
	cache         Cache
	custom        generic.HolidayStore
	defaultRegion string
	customary     bool
	timeout       time.Duration
	logger        *zap.Logger
}

type Option func(*Calculator)

// WithProvider enables a remote holiday source.
func WithProvider(p Provider) Option { return func(c *Calculator) { c.provider = p } }

// WithCache replaces the default in-memory cache.
func WithCache(cache Cache) Option { return func(c *Calculator) { c.cache = cache } }

// WithCustomHolidays merges holidays from store into every set.
func WithCustomHolidays(store generic.HolidayStore) Option {
	return func(c *Calculator) { c.custom = store }
}

// WithDefaultRegion is used when a caller passes no region.
func WithDefaultRegion(region string) Option {
	return func(c *Calculator) { c.defaultRegion = NormalizeRegion(region) }
}

// WithCustomary toggles Rosenmontag, Karnevalsdienstag, Heiligabend and Silvester.
func WithCustomary(enabled bool) Option { return func(c *Calculator) { c.customary = enabled } }

// WithTimeout bounds each provider lookup.
func WithTimeout(d time.Duration) Option { return func(c *Calculator) { c.timeout = d } }

func WithLogger(l *zap.Logger) Option { return func(c *Calculator) { c.logger = l } }

func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		defaultRegion: "NW",
		customary:     true,
		timeout:       DefaultTimeout,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewMemoryCache(nil)
	}
	return c
}

func (c *Calculator) region(region string) string {
	if region == "" {
		return c.defaultRegion
	}
	return NormalizeRegion(region)
}

// GetHolidays returns the holiday set of year for region.
func (c *Calculator) GetHolidays(ctx context.Context, year int, region string) HolidaySet {
	region = c.region(region)
	key := Key{Year: year, Region: region}

	set, err := c.cache.GetOrCompute(ctx, key, func(ctx context.Context) (HolidaySet, error) {
		return c.compute(ctx, year, region), nil
	})
	if err != nil {
		c.logger.Warn("holiday cache failed, computing directly", zap.Stringer("key", key), zap.Error(err))
		return c.compute(ctx, year, region)
	}
	return set
}

func (c *Calculator) compute(ctx context.Context, year int, region string) HolidaySet {
	set, ok := c.fetch(ctx, year, region)
	if !ok {
		set = Static(year, region, c.customary)
	}
	c.mergeCustom(ctx, set, region)
	return set
}

func (c *Calculator) fetch(ctx context.Context, year int, region string) (HolidaySet, bool) {
	if c.provider == nil {
		return HolidaySet{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	entries, err := c.provider.Holidays(ctx, year, region)
	if err != nil || len(entries) == 0 {
		c.logger.Warn("holiday provider unavailable, using static rules",
			zap.Int("year", year), zap.String("region", region), zap.Error(err))
		return HolidaySet{}, false
	}

	set := NewHolidaySet(year, region, SourceRemote)
	for _, e := range entries {
		set.Add(e.Date, e.Name)
	}
	if c.customary {
		for _, e := range Customary(year) {
			set.Add(e.Date, e.Name)
		}
	}
	return set, true
}

func (c *Calculator) mergeCustom(ctx context.Context, set HolidaySet, region string) {
	if c.custom == nil {
		return
	}
	custom, err := c.custom.HolidaysForYear(ctx, set.Year, region)
	if err != nil {
		c.logger.Warn("failed to load custom holidays", zap.String("region", region), zap.Error(err))
		return
	}
	for _, h := range custom {
		set.Add(h.Date, h.Name)
	}
}

// HolidayName looks the day up in the holiday set of the day's own year.
func (c *Calculator) HolidayName(ctx context.Context, region string, date generic.TimePoint) (string, bool) {
	return c.GetHolidays(ctx, date.Year(), region).Name(date)
}

func (c *Calculator) IsHoliday(ctx context.Context, region string, date generic.TimePoint) bool {
	_, ok := c.HolidayName(ctx, region, date)
	return ok
}

func (c *Calculator) IsWeekend(date generic.TimePoint) bool {
	return date.IsWeekend()
}

func (c *Calculator) IsNonWorkingDay(ctx context.Context, region string, date generic.TimePoint) bool {
	return c.IsWeekend(date) || c.IsHoliday(ctx, region, date)
}

// ClearCache drops every cached holiday set.
func (c *Calculator) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}
