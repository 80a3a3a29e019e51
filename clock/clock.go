// Package clock provides the two time sources the flush queue needs: a
// "steady" clock for retention/barrier comparisons and a wall "system"
// clock for header timestamps, both behind an injectable interface so tests
// can use a manually-advanced clock.
package clock

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Clock returns nanoseconds since an arbitrary (steady clock) or Unix
// (system clock) epoch.
type Clock interface {
	NowNanos() int64
}

// SteadyClock is a cached clock: hot-path reads avoid a syscall per call by
// sampling a background-refreshed cache, matching the teacher's use of
// agilira/go-timecache for low-overhead timestamping. NowNanos returns the
// cached time as Unix nanoseconds (wall-clock time), so readings are not
// monotonic if the system clock is stepped.
type SteadyClock struct {
	cache *timecache.TimeCache
}

// NewSteadyClock starts a cache refreshed at the given resolution. Call
// Stop when the clock is no longer needed.
func NewSteadyClock(resolution time.Duration) *SteadyClock {
	return &SteadyClock{cache: timecache.NewWithResolution(resolution)}
}

func (c *SteadyClock) NowNanos() int64 { return c.cache.CachedTime().UnixNano() }

// Stop releases the cache's background refresh goroutine.
func (c *SteadyClock) Stop() { c.cache.Stop() }

// SystemClock reads wall-clock time directly; header timestamps are
// infrequent enough not to need caching.
type SystemClock struct{}

func (SystemClock) NowNanos() int64 { return time.Now().UnixNano() }

// ManualClock is a test double whose NowNanos is set explicitly, standing
// in for the original's clock_mock.h.
type ManualClock struct {
	nanos int64
}

// NewManualClock returns a ManualClock starting at nanos.
func NewManualClock(nanos int64) *ManualClock { return &ManualClock{nanos: nanos} }

func (c *ManualClock) NowNanos() int64 { return c.nanos }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) { c.nanos += int64(d) }

// Set pins the clock to an absolute nanosecond value.
func (c *ManualClock) Set(nanos int64) { c.nanos = nanos }
