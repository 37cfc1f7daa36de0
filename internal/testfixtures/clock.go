package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manual time source for services under test. A clock built with
// a step advances by that step after every read, so records created in
// sequence get distinct timestamps.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock returns a clock frozen at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	return NewSteppingClock(start, 0)
}

// NewSteppingClock returns a clock that moves forward by step on each Now.
func NewSteppingClock(start time.Time, step time.Duration) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start.UTC(), step: step}
}

// Now returns the clock time and then applies the step.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.now
	c.now = c.now.Add(c.step)
	return current
}

// Peek returns the time the next Now call will report.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowFunc returns Now for injection into services. A nil clock yields time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
