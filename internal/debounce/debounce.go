// Package debounce coalesces bursts of triggers into a single trailing-edge
// call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered function once the quiet period
// elapses without another trigger. The zero value is not usable; construct
// with New.
type Debouncer struct {
	d time.Duration

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	pending func()
}

// New returns a debouncer with the given quiet period.
func New(d time.Duration) *Debouncer {
	return &Debouncer{d: d}
}

// Trigger schedules fn to run after the quiet period, replacing any pending
// function and restarting the clock.
func (db *Debouncer) Trigger(fn func()) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.pending = fn
	db.gen++
	g := db.gen
	if db.timer != nil {
		db.timer.Stop()
	}
	db.timer = time.AfterFunc(db.d, func() { db.fire(g) })
}

func (db *Debouncer) fire(g uint64) {
	db.mu.Lock()
	// a newer Trigger, Flush or Stop superseded this timer
	if g != db.gen || db.pending == nil {
		db.mu.Unlock()
		return
	}
	fn := db.pending
	db.pending = nil
	db.timer = nil
	db.mu.Unlock()
	fn()
}

// Flush runs the pending function now instead of waiting out the quiet
// period. It is a no-op when nothing is pending.
func (db *Debouncer) Flush() {
	db.mu.Lock()
	fn := db.pending
	db.pending = nil
	db.gen++
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
	db.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Stop drops the pending function without running it. The debouncer stays
// usable; a later Trigger schedules again.
func (db *Debouncer) Stop() {
	db.mu.Lock()
	db.pending = nil
	db.gen++
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
	db.mu.Unlock()
}
