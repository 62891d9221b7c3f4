package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/warp/wochennachweis/bundle"
	"github.com/warp/wochennachweis/config"
	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/holiday"
	"github.com/warp/wochennachweis/logging"
	"github.com/warp/wochennachweis/report"
	"github.com/warp/wochennachweis/store/sqlite"
)

// app holds the components every command needs.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *sqlite.Store
	redis    *redis.Client
	calendar *holiday.Calculator
	service  *bundle.Service
}

func newApp(cfg *config.Config) (*app, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(cfg.Database.Path,
		sqlite.WithIdleTimeout(cfg.Session.IdleTimeout),
		sqlite.WithLogger(logger.Named("store")))
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, store: store}

	opts := []holiday.Option{
		holiday.WithDefaultRegion(cfg.Holidays.Region),
		holiday.WithCustomary(cfg.Holidays.IncludeCustomary),
		holiday.WithTimeout(cfg.Holidays.Timeout),
		holiday.WithCustomHolidays(store),
		holiday.WithLogger(logger.Named("holiday")),
	}
	if cfg.Holidays.RemoteEnabled {
		opts = append(opts, holiday.WithProvider(holiday.NewNagerProvider(cfg.Holidays.APIURL, cfg.Holidays.Timeout)))
	}
	if cfg.Holidays.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Holidays.RedisAddr,
			Password: cfg.Holidays.RedisPassword,
			DB:       cfg.Holidays.RedisDB,
		})
		if err := a.redis.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, holiday sets are computed locally until it is back",
				zap.String("addr", cfg.Holidays.RedisAddr), zap.Error(err))
		}
		shared := holiday.NewRedisCache(a.redis, cfg.Holidays.RedisTTL, logger.Named("redis"))
		opts = append(opts, holiday.WithCache(holiday.NewMemoryCache(shared)))
	}
	a.calendar = holiday.NewCalculator(opts...)

	style, err := cfg.Template.Style()
	if err != nil {
		a.Close()
		return nil, err
	}
	hours, err := cfg.Report.Hours()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.service = &bundle.Service{
		Calendar:     a.calendar,
		Reconciler:   report.NewReconciler(a.calendar, generic.Category(cfg.Report.DefaultCategory)),
		Fields:       report.FieldBuilder{PadWeek: cfg.Report.PadWeekNumber},
		Style:        style,
		TemplatePath: cfg.Template.Path,
		Workers:      cfg.Generate.Workers,
		DailyHours:   hours,
		Logger:       logger.Named("bundle"),
	}
	return a, nil
}

// Close releases the store and the Redis client and flushes the logger.
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing redis failed", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing database failed", zap.Error(err))
	}
	a.logger.Sync()
}
