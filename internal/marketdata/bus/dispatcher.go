// Package bus provides the tick dispatcher: a typed, synchronous
// publish/subscribe mechanism owned by a pipeline.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"barfeed/internal/model"
)

// Handler reacts to a newly appended bar. A returned error or a panic is a
// fault; faults are isolated to the subscriber that raised them.
type Handler func(ctx context.Context, tick model.Tick) error

// Dispatcher invokes every registered handler, synchronously and in
// registration order, each time Publish is called. There is no buffering and
// no replay: a subscriber only sees ticks published after it registers.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   []*Subscription
	nextID uint64

	// OnFault is called when a subscriber's handler fails or panics.
	// name is the name the subscriber registered with.
	OnFault func(name string, err error)
}

// Subscription binds a handler to a Dispatcher until Unsubscribe is called.
type Subscription struct {
	id      uint64
	name    string
	handler Handler
	d       *Dispatcher
	once    sync.Once
}

// New creates an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers handler under name and returns its subscription token.
func (d *Dispatcher) Subscribe(name string, handler Handler) *Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	s := &Subscription{id: d.nextID, name: name, handler: handler, d: d}
	d.subs = append(d.subs, s)
	return s
}

// Name returns the name the subscription was registered with.
func (s *Subscription) Name() string { return s.name }

// Unsubscribe removes the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		d := s.d
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, other := range d.subs {
			if other.id == s.id {
				subs := make([]*Subscription, 0, len(d.subs)-1)
				subs = append(subs, d.subs[:i]...)
				d.subs = append(subs, d.subs[i+1:]...)
				return
			}
		}
	})
}

// Len returns the number of registered subscribers.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// Publish delivers tick to a snapshot of the current subscribers and returns
// how many of them faulted. Handlers may subscribe or unsubscribe during the
// call; changes take effect from the next Publish.
func (d *Dispatcher) Publish(ctx context.Context, tick model.Tick) int {
	d.mu.RLock()
	subs := d.subs
	d.mu.RUnlock()

	faults := 0
	for _, s := range subs {
		if err := s.invoke(ctx, tick); err != nil {
			faults++
			if d.OnFault != nil {
				d.OnFault(s.name, err)
			} else {
				slog.Warn("subscriber fault", "component", "bus", "subscriber", s.name, "error", err)
			}
		}
	}
	return faults
}

func (s *Subscription) invoke(ctx context.Context, tick model.Tick) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber %s panicked: %v", s.name, r)
		}
	}()
	return s.handler(ctx, tick)
}
