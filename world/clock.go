package world

import "time"

// Clock measures elapsed seconds since it was created.
type Clock struct {
	now      func() time.Time
	start    time.Time
	previous time.Duration
}

func NewClock() *Clock {
	return newClockAt(time.Now)
}

func newClockAt(now func() time.Time) *Clock {
	return &Clock{now: now, start: now()}
}

// Tick returns the elapsed time and the time since the previous tick,
// never negative.
func (c *Clock) Tick() (elapsed, dt float32) {
	now := c.now().Sub(c.start)
	step := max(now-c.previous, 0)
	c.previous = now
	return float32(now.Seconds()), float32(step.Seconds())
}
