// Package carouseltest provides a hand-driven clock for carousel tests.
package carouseltest

import (
	"sync"
	"time"

	"github.com/ai-on-hyperpod/site/pkg/carousel"
)

// ManualClock is a carousel.Clock whose time only moves on Advance.
type ManualClock struct {
	now     time.Time
	tickers []*manualTicker
	mu      sync.Mutex
}

// NewManualClock creates a clock frozen at an arbitrary fixed instant.
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker implements carousel.Clock.
func (c *ManualClock) NewTicker(d time.Duration) carousel.ClockTicker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &manualTicker{
		clock:  c,
		period: d,
		next:   c.now.Add(d),
		ch:     make(chan time.Time),
		stopCh: make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Advance moves time forward by d, delivering every tick that falls due
// in order. Each delivery blocks until the ticker's consumer receives it
// or the ticker is stopped.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)

	for {
		t := c.nextDueLocked(target)
		if t == nil {
			break
		}
		c.now = t.next
		t.next = t.next.Add(t.period)
		at := c.now
		c.mu.Unlock()

		select {
		case t.ch <- at:
		case <-t.stopCh:
		}

		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

// ActiveTickers returns how many tickers have not been stopped.
func (c *ManualClock) ActiveTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (c *ManualClock) nextDueLocked(target time.Time) *manualTicker {
	var due *manualTicker
	for _, t := range c.tickers {
		if t.stopped || t.next.After(target) {
			continue
		}
		if due == nil || t.next.Before(due.next) {
			due = t
		}
	}
	return due
}

type manualTicker struct {
	clock   *ManualClock
	period  time.Duration
	next    time.Time
	stopped bool
	ch      chan time.Time
	stopCh  chan struct{}
}

func (t *manualTicker) C() <-chan time.Time {
	return t.ch
}

func (t *manualTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if !t.stopped {
		t.stopped = true
		close(t.stopCh)
	}
}

func (t *manualTicker) Reset(d time.Duration) {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	t.period = d
	t.next = t.clock.now.Add(d)
}
