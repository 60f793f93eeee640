// Package lifecycle bounds the lifetime of a session controller: it owns the
// cancellation token every asynchronous continuation checks before touching
// shared state, and the safety-timeout watchdog that releases a stuck
// loading state.
package lifecycle

import (
	"context"
	"sync"
	"time"
)

// DefaultSafetyTimeout is used when the guard is created with a non-positive timeout.
const DefaultSafetyTimeout = 2500 * time.Millisecond

// Guard is created once per controller start and closed on teardown.
type Guard struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	timer  *time.Timer
	gen    uint64
	wg     sync.WaitGroup
}

// New creates a guard derived from parent.
func New(parent context.Context, timeout time.Duration) *Guard {
	if timeout <= 0 {
		timeout = DefaultSafetyTimeout
	}
	ctx, cancel := context.WithCancel(parent)
	return &Guard{
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}
}

// Context is cancelled when the guard closes.
func (g *Guard) Context() context.Context {
	return g.ctx
}

// Timeout returns the watchdog bound.
func (g *Guard) Timeout() time.Duration {
	return g.timeout
}

// Active reports whether the consumer is still attached.
func (g *Guard) Active() bool {
	return g.ctx.Err() == nil
}

// Go runs fn in a tracked goroutine. It returns false, without running fn,
// once the guard is closed.
func (g *Guard) Go(fn func(ctx context.Context)) bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return false
	}
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		fn(g.ctx)
	}()
	return true
}

// Arm (re)starts the watchdog. onTimeout runs once if neither Disarm, a
// later Arm nor Close happens within the timeout.
func (g *Guard) Arm(onTimeout func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.stopTimerLocked()
	g.gen++
	gen := g.gen

	g.timer = time.AfterFunc(g.timeout, func() {
		g.mu.Lock()
		if g.closed || g.gen != gen {
			g.mu.Unlock()
			return
		}
		g.timer = nil
		g.mu.Unlock()

		onTimeout()
	})
}

// Disarm cancels a pending watchdog.
func (g *Guard) Disarm() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.gen++
	g.stopTimerLocked()
}

// Armed reports whether a watchdog is pending.
func (g *Guard) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timer != nil
}

// Close invalidates the token and drops the watchdog. Continuations still
// running keep going with a cancelled context; use Wait to join them.
func (g *Guard) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.gen++
	g.stopTimerLocked()
	g.mu.Unlock()

	g.cancel()
}

// Wait blocks until every continuation started with Go returns or ctx is done.
func (g *Guard) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Guard) stopTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
