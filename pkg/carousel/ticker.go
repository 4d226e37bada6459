package carousel

import (
	"sync"
	"time"
)

// DefaultInterval is the rotation period used when none is configured.
const DefaultInterval = 3 * time.Second

// Clock creates tickers. It exists so tests can drive time by hand.
type Clock interface {
	NewTicker(d time.Duration) ClockTicker
}

// ClockTicker is the subset of *time.Ticker used by Ticker.
type ClockTicker interface {
	C() <-chan time.Time
	Stop()
	Reset(d time.Duration)
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) NewTicker(d time.Duration) ClockTicker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time   { return s.t.C }
func (s *systemTicker) Stop()                 { s.t.Stop() }
func (s *systemTicker) Reset(d time.Duration) { s.t.Reset(d) }

// Ticker invokes a callback every interval until stopped.
//
// Stop is synchronous: once it returns, the callback is never invoked
// again, and any invocation that was already running has finished.
// The callback must not call Stop.
type Ticker struct {
	interval time.Duration
	clock    ClockTicker
	fn       func()

	stopCh chan struct{}
	done   chan struct{}

	// mu serialises callback invocations against Stop and Reset.
	mu      sync.Mutex
	stopped bool
}

// Start begins invoking fn every interval. A nil clock means SystemClock.
func Start(interval time.Duration, clock Clock, fn func()) (*Ticker, error) {
	if interval <= 0 {
		return nil, ErrInterval
	}
	if clock == nil {
		clock = SystemClock
	}

	t := &Ticker{
		interval: interval,
		clock:    clock.NewTicker(interval),
		fn:       fn,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go t.loop()
	return t, nil
}

// Interval returns the rotation period.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

func (t *Ticker) loop() {
	defer close(t.done)

	for {
		select {
		case <-t.stopCh:
			return
		case <-t.clock.C():
			t.fire()
		}
	}
}

func (t *Ticker) fire() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.fn()
}

// Reset restarts the phase so the next tick is one full interval away.
func (t *Ticker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.clock.Reset(t.interval)
}

// Stop cancels the ticker and waits for the loop to exit. Safe to call
// more than once.
func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.stopped {
		t.stopped = true
		close(t.stopCh)
		t.clock.Stop()
	}
	t.mu.Unlock()

	<-t.done
}

// Stopped reports whether Stop has been called.
func (t *Ticker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
