/*
Package clock provides the corrected time source.

PURPOSE:
  Employees clock in and out against server-synchronized time, not the
  host's wall clock. Corrected keeps an offset measured against a time
  server and applies it to every Now() call.

OFFSET MEASUREMENT:
  For one round trip:
    sent     = local time the probe left
    server   = time reported by the server
    received = local time the reply arrived
    offset   = server - (sent + (received - sent) / 2)

  Sync() measures against an HTTP server's Date header, which has one
  second resolution. That is precise enough for attendance timestamps.

USAGE:
  c := clock.NewCorrected(clock.System{}, loc)
  if err := c.Sync(ctx, http.DefaultClient, "https://time.example.com"); err != nil {
      logger.Warn("clock sync failed, using local time", zap.Error(err))
  }
  now := c.Now()

The billable-hours calculator never reads a clock; callers resolve span
boundaries first and pass them in.
*/
package clock

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System is the host wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At }

// =============================================================================
// CORRECTED CLOCK
// =============================================================================

// Corrected applies a network-measured offset to a base clock and reports
// times in the business time zone.
type Corrected struct {
	base Clock
	loc  *time.Location

	mu       sync.RWMutex
	offset   time.Duration
	syncedAt time.Time
}

// NewCorrected wraps base. A nil base uses the system clock.
func NewCorrected(base Clock, loc *time.Location) *Corrected {
	if base == nil {
		base = System{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Corrected{base: base, loc: loc}
}

// Now returns the corrected current time in the business zone.
func (c *Corrected) Now() time.Time {
	c.mu.RLock()
	offset := c.offset
	c.mu.RUnlock()
	return c.base.Now().Add(offset).In(c.loc)
}

// Offset returns the current correction.
func (c *Corrected) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// SyncedAt returns the base-clock time of the last successful measurement.
// Zero means the clock has never synced.
func (c *Corrected) SyncedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.syncedAt
}

// SetOffset overrides the correction.
func (c *Corrected) SetOffset(d time.Duration) {
	c.mu.Lock()
	c.offset = d
	c.syncedAt = c.base.Now()
	c.mu.Unlock()
}

// Observe records one round-trip measurement and returns the new offset.
func (c *Corrected) Observe(sent, server, received time.Time) (time.Duration, error) {
	if received.Before(sent) {
		return 0, fmt.Errorf("clock: reply received before probe was sent")
	}
	rtt := received.Sub(sent)
	offset := server.Sub(sent.Add(rtt / 2))
	c.SetOffset(offset)
	return offset, nil
}

// Sync measures the offset against the Date header of url.
func (c *Corrected) Sync(ctx context.Context, client *http.Client, url string) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("clock: build request: %w", err)
	}

	sent := c.base.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("clock: query %s: %w", url, err)
	}
	received := c.base.Now()
	resp.Body.Close()

	header := resp.Header.Get("Date")
	if header == "" {
		return fmt.Errorf("clock: %s returned no Date header", url)
	}
	server, err := http.ParseTime(header)
	if err != nil {
		return fmt.Errorf("clock: parse Date header %q: %w", header, err)
	}

	_, err = c.Observe(sent, server, received)
	return err
}
