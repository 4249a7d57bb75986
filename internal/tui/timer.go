package tui

import "time"

type countdownState int

const (
	countdownStopped countdownState = iota
	countdownRunning
	countdownPaused
)

// countdown is the clock behind a pomodoro phase. All methods take the
// current time so the caller owns the clock.
type countdown struct {
	state  countdownState
	total  time.Duration
	endsAt time.Time     // valid while running
	left   time.Duration // valid while paused
}

func (c *countdown) start(d time.Duration, now time.Time) {
	c.state = countdownRunning
	c.total = d
	c.endsAt = now.Add(d)
	c.left = 0
}

func (c *countdown) stop() {
	c.state = countdownStopped
	c.left = 0
}

func (c *countdown) pause(now time.Time) {
	if c.state != countdownRunning {
		return
	}
	c.left = c.remaining(now)
	c.state = countdownPaused
}

func (c *countdown) resume(now time.Time) {
	if c.state != countdownPaused {
		return
	}
	c.endsAt = now.Add(c.left)
	c.state = countdownRunning
}

func (c *countdown) toggle(now time.Time) {
	switch c.state {
	case countdownRunning:
		c.pause(now)
	case countdownPaused:
		c.resume(now)
	}
}

func (c countdown) running() bool {
	return c.state != countdownStopped
}

func (c countdown) paused() bool {
	return c.state == countdownPaused
}

// remaining never goes below zero.
func (c countdown) remaining(now time.Time) time.Duration {
	var left time.Duration
	switch c.state {
	case countdownRunning:
		left = c.endsAt.Sub(now)
	case countdownPaused:
		left = c.left
	default:
		return c.total
	}
	return max(left, 0)
}

func (c countdown) elapsed(now time.Time) time.Duration {
	if c.state == countdownStopped {
		return 0
	}
	return c.total - c.remaining(now)
}

// done reports whether a running countdown has reached zero.
func (c countdown) done(now time.Time) bool {
	return c.state == countdownRunning && !now.Before(c.endsAt)
}
