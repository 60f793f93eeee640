package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dtroode/qubras-auth/internal/logger"
	"github.com/dtroode/qubras-auth/internal/model"
)

// dispatchItem carries exactly one of state or note.
type dispatchItem struct {
	state *model.State
	note  *model.Notification
}

// dispatcher delivers state snapshots and notifications to observers on a
// single goroutine, in the order they were emitted. Emit never blocks so it
// can be called with the manager lock held.
type dispatcher struct {
	logger *logger.Logger

	mu    sync.Mutex
	queue []dispatchItem

	subsMu    sync.RWMutex
	stateSubs map[uint64]func(model.State)
	noteSubs  map[uint64]func(model.Notification)
	nextID    uint64

	wake      chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

func newDispatcher(l *logger.Logger, capacity int) *dispatcher {
	if capacity <= 0 {
		capacity = 1
	}

	d := &dispatcher{
		logger:    l,
		queue:     make([]dispatchItem, 0, capacity),
		stateSubs: make(map[uint64]func(model.State)),
		noteSubs:  make(map[uint64]func(model.Notification)),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}

	go d.run()

	return d
}

func (d *dispatcher) run() {
	defer close(d.stopped)

	for {
		select {
		case <-d.wake:
			d.drain()
		case <-d.done:
			d.drain()
			return
		}
	}
}

func (d *dispatcher) drain() {
	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, item := range batch {
			d.deliver(item)
		}
	}
}

func (d *dispatcher) deliver(item dispatchItem) {
	d.subsMu.RLock()
	var stateFns []func(model.State)
	var noteFns []func(model.Notification)
	if item.state != nil {
		stateFns = make([]func(model.State), 0, len(d.stateSubs))
		for _, fn := range d.stateSubs {
			stateFns = append(stateFns, fn)
		}
	} else {
		noteFns = make([]func(model.Notification), 0, len(d.noteSubs))
		for _, fn := range d.noteSubs {
			noteFns = append(noteFns, fn)
		}
	}
	d.subsMu.RUnlock()

	for _, fn := range stateFns {
		d.safeCall(func() { fn(*item.state) })
	}
	for _, fn := range noteFns {
		d.safeCall(func() { fn(*item.note) })
	}
}

func (d *dispatcher) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Dispatcher: observer panicked", "panic", r)
		}
	}()
	fn()
}

func (d *dispatcher) push(item dispatchItem) {
	if d.closed.Load() {
		return
	}

	d.mu.Lock()
	d.queue = append(d.queue, item)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) emitState(s model.State) {
	d.push(dispatchItem{state: &s})
}

func (d *dispatcher) emitNote(n model.Notification) {
	d.push(dispatchItem{note: &n})
}

func (d *dispatcher) subscribeState(fn func(model.State)) func() {
	d.subsMu.Lock()
	id := d.nextID
	d.nextID++
	d.stateSubs[id] = fn
	d.subsMu.Unlock()

	return func() {
		d.subsMu.Lock()
		delete(d.stateSubs, id)
		d.subsMu.Unlock()
	}
}

func (d *dispatcher) subscribeNote(fn func(model.Notification)) func() {
	d.subsMu.Lock()
	id := d.nextID
	d.nextID++
	d.noteSubs[id] = fn
	d.subsMu.Unlock()

	return func() {
		d.subsMu.Lock()
		delete(d.noteSubs, id)
		d.subsMu.Unlock()
	}
}

// close stops accepting items. Items already queued are still delivered;
// use wait to join the delivery goroutine.
func (d *dispatcher) close() {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
	})
}

// wait blocks until the queue is delivered after close, or ctx is done.
func (d *dispatcher) wait(ctx context.Context) error {
	select {
	case <-d.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
