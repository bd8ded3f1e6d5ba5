// Package gate provides a latch that suspends waiters while one or more
// holders are active.
//
// A [Gate] starts locked with a single hold. Every [Gate.Lock] adds a hold and
// every [Gate.Unlock] drops one; when the last hold is dropped all current
// waiters are released at once. Locking a released gate starts a new,
// unresolved round, so waiters that arrive afterwards block again.
//
//	g := gate.New()       // locked, one hold
//	go load(); g.Unlock() // released
//
//	g.Lock()
//	go func() { defer g.Unlock(); write() }()
//	_ = g.Wait(ctx)       // returns after write
package gate

import (
	"context"
	"sync"
)

// Gate is a counted latch. The zero value is not usable; use [New].
//
// It is safe for concurrent use.
type Gate struct {
	mu    sync.Mutex
	holds int
	done  chan struct{}
}

// New returns a locked Gate holding one hold.
func New() *Gate {
	return &Gate{holds: 1, done: make(chan struct{})}
}

// Lock adds a hold. If the gate was released, a new round starts and
// subsequent waiters block until it is released again.
func (g *Gate) Lock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holds == 0 {
		g.done = make(chan struct{})
	}
	g.holds++
}

// Unlock drops a hold. When no holds remain, every waiter of the current
// round is released. Unlocking a released gate is a no-op.
func (g *Gate) Unlock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holds == 0 {
		return
	}
	g.holds--
	if g.holds == 0 {
		close(g.done)
	}
}

// Done returns a channel closed when the current round is released.
// The returned channel never reopens; a later Lock creates a new one.
func (g *Gate) Done() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done
}

// locked reports whether any hold is active.
func (g *Gate) locked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holds > 0
}

// Wait blocks until the current round is released or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
