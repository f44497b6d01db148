/*
scheduler.go - Periodic server clock synchronization

PURPOSE:
  Keeps the corrected clock close to the reference time server. Every
  request timestamp and "today" the portal shows comes from that clock, so
  the offset is re-measured on a fixed interval instead of once at startup.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Syncs immediately on start, then on every tick
  - A failed sync keeps the previous offset and is logged; the next tick
    tries again

CONFIGURATION:
  - CheckInterval: How often to sync (default: 1 hour)
  - Timeout:       Per-sync deadline (default: 5 seconds)
  - Enabled:       Whether the scheduler is active (false when no URL)

USAGE:
  scheduler := NewClockSyncScheduler(clk, url, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - clock/clock.go: Corrected clock and the offset estimate
  - handlers.go:    GET /api/time reports the current offset
*/
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/attendance/clock"
)

// ClockSyncScheduler re-syncs a corrected clock on an interval.
type ClockSyncScheduler struct {
	Clock         *clock.Corrected
	URL           string
	Client        *http.Client
	CheckInterval time.Duration
	Timeout       time.Duration
	Enabled       bool

	logger  *zap.Logger
	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// NewClockSyncScheduler creates a scheduler. It is disabled when url is
// empty.
func NewClockSyncScheduler(clk *clock.Corrected, url string, logger *zap.Logger) *ClockSyncScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClockSyncScheduler{
		Clock:         clk,
		URL:           url,
		Client:        &http.Client{},
		CheckInterval: 1 * time.Hour,
		Timeout:       5 * time.Second,
		Enabled:       url != "",
		logger:        logger,
	}
}

// Start begins the scheduler.
func (cs *ClockSyncScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		cs.logger.Info("clock sync disabled, not starting")
		return
	}
	if cs.ticker != nil {
		return
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.stop = make(chan struct{})
	cs.wg.Add(1)

	go cs.run(cs.ticker, cs.stop)

	cs.logger.Info("clock sync started",
		zap.String("url", cs.URL),
		zap.Duration("interval", cs.CheckInterval),
	)
}

// Stop stops the scheduler and waits for an in-flight sync to finish.
func (cs *ClockSyncScheduler) Stop() {
	cs.mu.Lock()
	ticker, stop := cs.ticker, cs.stop
	cs.ticker, cs.stop = nil, nil
	cs.mu.Unlock()

	if ticker == nil {
		return
	}
	ticker.Stop()
	close(stop)
	cs.wg.Wait()
	cs.logger.Info("clock sync stopped")
}

func (cs *ClockSyncScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer cs.wg.Done()

	// Run immediately on start
	cs.RunNow()

	for {
		select {
		case <-ticker.C:
			cs.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow performs one sync and returns its error.
func (cs *ClockSyncScheduler) RunNow() error {
	ctx, cancel := context.WithTimeout(context.Background(), cs.Timeout)
	defer cancel()

	err := cs.Clock.Sync(ctx, cs.Client, cs.URL)

	cs.mu.Lock()
	cs.lastRun = time.Now()
	cs.lastErr = err
	cs.mu.Unlock()

	if err != nil {
		cs.logger.Warn("clock sync failed, keeping previous offset",
			zap.String("url", cs.URL),
			zap.Duration("offset", cs.Clock.Offset()),
			zap.Error(err),
		)
		return err
	}
	cs.logger.Debug("clock synced", zap.Duration("offset", cs.Clock.Offset()))
	return nil
}

// LastResult returns when the last sync ran and how it ended.
func (cs *ClockSyncScheduler) LastResult() (time.Time, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lastRun, cs.lastErr
}

// NextRun returns the approximate time of the next sync, or zero
// when the scheduler is not running.
func (cs *ClockSyncScheduler) NextRun() time.Time {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.ticker == nil || cs.lastRun.IsZero() {
		return time.Time{}
	}
	return cs.lastRun.Add(cs.CheckInterval)
}
