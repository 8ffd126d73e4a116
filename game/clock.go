package game

import (
	"sync"
	"time"
)

// Clock is a room's phase countdown. At most one timer is live at a time:
// scheduling always stops the previous one first. Stopping a timer cannot
// interrupt a callback that has already fired, so every arming carries a
// generation number; a callback must confirm its generation is still
// current (under whatever lock guards the state it mutates) before acting.
type Clock struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func NewClock() *Clock {
	return &Clock{}
}

// Schedule arms the clock to call fn after d, replacing any pending timer.
// fn receives the generation it was armed under.
func (c *Clock) Schedule(d time.Duration, fn func(gen uint64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(d, func() { fn(gen) })
}

// Stop cancels the pending timer, if any, and invalidates any firing
// already in flight.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Current reports whether gen is still the live generation.
func (c *Clock) Current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}
