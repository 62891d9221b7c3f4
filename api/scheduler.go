/*
scheduler.go - Background reaper for idle sessions

PURPOSE:
  Periodically deletes sessions that sat idle longer than the configured
  timeout. Stores already treat such sessions as missing; the reaper only
  frees their rows.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Purges once right after Start, then on every tick
  - Failures are logged and retried on the next tick

USAGE:
  reaper := NewSessionReaper(store, 30*time.Minute, logger)
  reaper.Start()
  // ... later
  reaper.Stop()

SEE ALSO:
  - generic/store.go: SessionStore.PurgeExpired
  - cmd/server/main.go: Starts the reaper next to the HTTP server
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/wochennachweis/generic"
)

// SessionReaper purges expired sessions on a fixed interval.
type SessionReaper struct {
	Store         generic.SessionStore
	IdleTimeout   time.Duration
	CheckInterval time.Duration
	Enabled       bool
	Logger        *zap.Logger
	Now           func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSessionReaper creates a reaper checking every idleTimeout/2, at least
// once a minute.
func NewSessionReaper(store generic.SessionStore, idleTimeout time.Duration, logger *zap.Logger) *SessionReaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := idleTimeout / 2
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	return &SessionReaper{
		Store:         store,
		IdleTimeout:   idleTimeout,
		CheckInterval: interval,
		Enabled:       idleTimeout > 0,
		Logger:        logger,
		Now:           time.Now,
	}
}

// Start begins the reaper.
func (sr *SessionReaper) Start() {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if !sr.Enabled {
		sr.Logger.Info("session reaper disabled")
		return
	}
	if sr.ticker != nil {
		return
	}

	sr.ticker = time.NewTicker(sr.CheckInterval)
	sr.stop = make(chan struct{})
	sr.wg.Add(1)

	go sr.run()

	sr.Logger.Info("session reaper started", zap.Duration("interval", sr.CheckInterval))
}

// Stop stops the reaper and waits for a running purge to finish.
func (sr *SessionReaper) Stop() {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.ticker == nil {
		return
	}
	sr.ticker.Stop()
	close(sr.stop)
	sr.wg.Wait()
	sr.ticker = nil
	sr.Logger.Info("session reaper stopped")
}

func (sr *SessionReaper) run() {
	defer sr.wg.Done()

	sr.RunNow(context.Background())

	for {
		select {
		case <-sr.ticker.C:
			sr.RunNow(context.Background())
		case <-sr.stop:
			return
		}
	}
}

// RunNow purges immediately and returns the number of removed sessions.
func (sr *SessionReaper) RunNow(ctx context.Context) int {
	cutoff := sr.Now().Add(-sr.IdleTimeout)

	n, err := sr.Store.PurgeExpired(ctx, cutoff)
	if err != nil {
		sr.Logger.Error("purging sessions failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		sr.Logger.Info("expired sessions purged", zap.Int("count", n), zap.Time("cutoff", cutoff))
	}
	return n
}
