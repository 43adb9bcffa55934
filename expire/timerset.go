// Package expire schedules per-key deletion callbacks. It knows nothing
// about the keyspace's contents -- it only tracks which key has an
// outstanding timer and fires a caller-supplied callback when one elapses.
package expire

import (
	"sync"
	"time"
)

// TimerSet maps keys to their outstanding scheduled task. Install replaces
// any existing task for a key; Cancel stops one without running its body.
//
// A cancelled task's body never runs, but a task that has already fired may
// race with a concurrent Install/Cancel of the same key: callers resolve
// that race by making their fire callback check, under the keyspace's own
// lock, whether the condition it was scheduled for (e.g. "this key's
// deadline is still D") still holds before acting. TimerSet itself never
// observes that check -- it only owns the *scheduling*, not the
// correctness of what happens when a timer fires.
type TimerSet struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New constructs an empty TimerSet.
func New() *TimerSet {
	return &TimerSet{timers: make(map[string]*time.Timer)}
}

// Install cancels any existing task for key, then schedules fire to run
// after d elapses. Once fire has run, its entry is pruned from timers --
// unless key was re-Installed in the meantime, in which case the map
// already holds that newer task and this one leaves it alone.
func (t *TimerSet) Install(key string, d time.Duration, fire func()) {
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		fire()

		t.mu.Lock()
		if t.timers[key] == timer {
			delete(t.timers, key)
		}
		t.mu.Unlock()
	})

	t.mu.Lock()
	if existing, ok := t.timers[key]; ok {
		existing.Stop()
	}
	t.timers[key] = timer
	t.mu.Unlock()
}

// Cancel stops the task for key, if any, and reports whether one existed.
// The task's body is guaranteed not to run after Cancel returns true,
// except for an invocation already in flight when Cancel is called -- that
// race is resolved by the fire callback's own state check (see TimerSet).
func (t *TimerSet) Cancel(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.timers[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(t.timers, key)
	return true
}

// Len reports the number of outstanding scheduled tasks. Exposed for tests.
func (t *TimerSet) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
