// Package ringbuf provides a fixed-capacity ring of model.Bar that evicts the
// oldest bar when full. It backs the store's retention policy for live
// sessions; callers provide their own locking.
package ringbuf

import "barfeed/internal/model"

// Ring keeps the newest Cap() bars in arrival order.
type Ring struct {
	buf   []model.Bar
	head  int // index of the oldest bar
	count int

	evicted uint64
}

// New creates a ring holding at most capacity bars. Minimum capacity is 1.
func New(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]model.Bar, capacity)}
}

// Push appends b. When the ring is full the oldest bar is overwritten and
// Push returns true.
func (r *Ring) Push(b model.Bar) bool {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = b
		r.count++
		return false
	}
	r.buf[r.head] = b
	r.head = (r.head + 1) % len(r.buf)
	r.evicted++
	return true
}

// Len returns the number of bars currently held.
func (r *Ring) Len() int { return r.count }

// Cap returns the ring capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Evicted returns the total number of bars overwritten so far.
func (r *Ring) Evicted() uint64 { return r.evicted }

// Tail copies the newest n bars (oldest first). n larger than Len() returns
// everything; n <= 0 returns an empty slice.
func (r *Ring) Tail(n int) []model.Bar {
	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return []model.Bar{}
	}
	out := make([]model.Bar, n)
	start := r.head + r.count - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// Slice copies every held bar, oldest first.
func (r *Ring) Slice() []model.Bar { return r.Tail(r.count) }

// Last returns the newest bar.
func (r *Ring) Last() (model.Bar, bool) {
	if r.count == 0 {
		return model.Bar{}, false
	}
	return r.buf[(r.head+r.count-1)%len(r.buf)], true
}
