// Package relay tracks successful message deliveries with the process-wide
// view counter.
package relay

import "sync/atomic"

// ViewCounter counts messages delivered to chat subscribers across the
// whole server: one increment per successful socket write, so a message
// fanned out to N subscribers adds up to N views. Messages dropped before
// the write (empty, oversized, or lagged out) are never counted.
type ViewCounter struct {
	views atomic.Uint64
}

// NewViewCounter returns a counter starting at zero.
func NewViewCounter() *ViewCounter {
	return &ViewCounter{}
}

// Increment records one delivered message.
func (v *ViewCounter) Increment() {
	v.views.Add(1)
}

// Value returns the current count. Reads are not ordered against
// concurrent increments; callers get a recent value, not a linearized one.
func (v *ViewCounter) Value() uint64 {
	return v.views.Load()
}

// Reset atomically zeroes the counter and returns the value it held
// immediately before.
func (v *ViewCounter) Reset() uint64 {
	return v.views.Swap(0)
}
