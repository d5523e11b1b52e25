// Package clock supplies the trusted time source phase windows are measured
// against. Time is whole seconds since the Unix epoch.
package clock

import (
	"sync"
	"time"
)

// Timestamp is seconds since the Unix epoch.
type Timestamp int64

func FromTime(t time.Time) Timestamp {
	return Timestamp(t.Unix())
}

func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

func (ts Timestamp) String() string {
	return ts.Time().Format(time.RFC3339)
}

// Clock is the substrate's trusted, monotonic time source.
type Clock interface {
	Now() Timestamp
}

// SystemClock reads the wall clock and never moves backwards, even if the
// host clock is stepped back.
type SystemClock struct {
	mu   sync.Mutex
	last Timestamp
	now  func() time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{now: time.Now}
}

func (c *SystemClock) Now() Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := FromTime(c.now())
	if t < c.last {
		return c.last
	}
	c.last = t
	return t
}

// ManualClock only moves when told to. Used by tests and replay tooling.
type ManualClock struct {
	mu  sync.Mutex
	now Timestamp
}

func NewManualClock(start Timestamp) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d, truncated to whole seconds.
// Negative durations are ignored.
func (c *ManualClock) Advance(d time.Duration) Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now += Timestamp(d / time.Second)
	}
	return c.now
}

// Set jumps to ts if it is not earlier than the current time.
func (c *ManualClock) Set(ts Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts > c.now {
		c.now = ts
	}
}
