// Package countdown implements a second-granularity countdown that can be
// driven by a ticker goroutine or stepped manually.
package countdown

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Ticker is the subset of *time.Ticker the countdown needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// NewStdTicker is the default TickerFactory backed by time.NewTicker.
func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

type Option func(*Timer)

// WithTicker replaces the ticker factory, mainly for tests.
func WithTicker(f TickerFactory) Option {
	return func(t *Timer) { t.newTicker = f }
}

// WithOnTick registers fn to be called with the remaining seconds after every
// decrement made by the running goroutine.
func WithOnTick(fn func(remaining int)) Option {
	return func(t *Timer) { t.onTick = fn }
}

// Timer counts whole seconds down from its initial value to zero. Zero is
// terminal until Reset.
type Timer struct {
	mu        sync.Mutex
	total     int
	remaining int
	newTicker TickerFactory
	onTick    func(int)
	cancel    context.CancelFunc
}

func New(d time.Duration, opts ...Option) *Timer {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	t := &Timer{total: secs, remaining: secs, newTicker: NewStdTicker}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start runs the countdown in a goroutine until it reaches zero, Cancel is
// called or ctx is done. Starting a running timer restarts its goroutine
// without touching the remaining time.
func (t *Timer) Start(ctx context.Context) {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	ticker := t.newTicker(time.Second)
	t.mu.Unlock()

	go t.run(ctx, ticker)
}

func (t *Timer) run(ctx context.Context, ticker Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			left := t.Tick()
			if t.onTick != nil {
				t.onTick(left)
			}
			if left == 0 {
				return
			}
		}
	}
}

// Cancel stops the running goroutine, if any. The remaining time is kept.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// Tick decrements the countdown by one second and returns what is left.
func (t *Timer) Tick() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.remaining > 0 {
		t.remaining--
	}
	return t.remaining
}

// Reset restores the initial duration. A running goroutine keeps running; a
// finished one must be started again.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remaining = t.total
}

func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *Timer) Expired() bool {
	return t.Remaining() == 0
}

func (t *Timer) Format() string {
	return Format(t.Remaining())
}

// Format renders seconds as m:ss, e.g. 900 -> "15:00", 0 -> "0:00".
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
