// Package watermark implements the monotonic nanosecond floor (C7) used to
// reject receipts that are already settled or past the settlement horizon.
package watermark

import "sync/atomic"

// Watermark is a monotonically non-decreasing nanosecond timestamp. Update
// commutes under max, so concurrent callers never move it backward
// (spec.md §4.4, §5).
type Watermark struct {
	value atomic.Uint64
}

// New creates a Watermark initialized to initial, typically the manager's
// start time.
func New(initial uint64) *Watermark {
	w := &Watermark{}
	w.value.Store(initial)
	return w
}

// Update sets the watermark to max(current, new). Safe under concurrent
// callers via a compare-and-swap retry loop.
func (w *Watermark) Update(new uint64) {
	for {
		current := w.value.Load()
		if new <= current {
			return
		}
		if w.value.CompareAndSwap(current, new) {
			return
		}
	}
}

// Get returns the current watermark value.
func (w *Watermark) Get() uint64 {
	return w.value.Load()
}
