package app

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// TickerFunc starts a periodic tick source and returns its channel together
// with the function that releases it.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// SystemTicker is the wall-clock TickerFunc.
func SystemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// CountdownConfig wires a countdown to its tick source and callbacks.
type CountdownConfig struct {
	Interval time.Duration // length of one tick, defaults to one second
	Ticker   TickerFunc    // defaults to SystemTicker
	OnTick   func(remaining int)
	OnExpire func()
}

// Countdown counts whole ticks down to zero and fires OnExpire once.
// Callbacks run on the countdown goroutine, one at a time. OnTick runs under
// the countdown lock; OnExpire runs after it is released, so OnExpire may
// call Stop.
type Countdown struct {
	// mu is held for the duration of every OnTick so Stop can wait out an
	// in-flight one.
	mu       sync.Mutex
	stopped  bool
	expired  bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	remaining atomic.Int64
}

// StartCountdown runs a countdown of minutes*60 ticks.
func StartCountdown(minutes int, cfg CountdownConfig) *Countdown {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Ticker == nil {
		cfg.Ticker = SystemTicker
	}
	total := minutes * 60
	if total < 0 {
		total = 0
	}

	c := &Countdown{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	c.remaining.Store(int64(total))

	ticks, release := cfg.Ticker(cfg.Interval)
	go c.run(ticks, release, cfg.OnTick, cfg.OnExpire)
	return c
}

func (c *Countdown) run(ticks <-chan time.Time, release func(), onTick func(int), onExpire func()) {
	defer close(c.done)
	defer release()

	for {
		select {
		case <-c.stop:
			return
		case <-ticks:
		}

		left := int(c.remaining.Load()) - 1
		if left < 0 {
			left = 0
		}
		c.remaining.Store(int64(left))

		running, expired := c.fire(left, onTick)
		if expired && onExpire != nil {
			onExpire()
		}
		if !running || expired {
			return
		}
	}
}

// fire runs OnTick for one tick unless the countdown was stopped, and commits
// expiry when the last tick is reached.
func (c *Countdown) fire(left int, onTick func(int)) (running, expired bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false, false
	}
	if onTick != nil {
		onTick(left)
	}
	if left == 0 {
		c.stopped = true
		c.expired = true
		return true, true
	}
	return true, false
}

// Stop cancels the countdown. Once Stop returns no OnTick will start and any
// OnTick that was running has finished. An expiry committed before Stop still
// delivers OnExpire; wait on Done to observe it. Stop is idempotent and may be
// called from OnExpire but not from OnTick.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

// Remaining returns the ticks left.
func (c *Countdown) Remaining() int {
	return int(c.remaining.Load())
}

// Expired reports whether OnExpire has fired.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Done is closed once the countdown goroutine has exited.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// FormatRemaining renders seconds as m:ss.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
