package server

import (
	"sync"
	"time"
)

// timerTable holds keyed cancellable delayed calls. Arming a key that
// already has a timer replaces it. A callback whose entry has been
// cancelled or replaced before it acquires the table lock never runs,
// so Cancel and firing are mutually exclusive for a given key.
type timerTable struct {
	mu      sync.Mutex
	entries map[string]*timerEntry
	nextGen uint64
}

type timerEntry struct {
	timer *time.Timer
	gen   uint64
}

func newTimerTable() *timerTable {
	return &timerTable{entries: make(map[string]*timerEntry)}
}

// Arm schedules fn to run after d. The callback runs on its own
// goroutine and must re-validate any domain state it mutates.
func (t *timerTable) Arm(key string, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.entries[key]; ok {
		existing.timer.Stop()
	}

	t.nextGen++
	gen := t.nextGen

	entry := &timerEntry{gen: gen}
	entry.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		cur, ok := t.entries[key]
		if !ok || cur.gen != gen {
			t.mu.Unlock()
			return
		}
		delete(t.entries, key)
		t.mu.Unlock()

		fn()
	})
	t.entries[key] = entry
}

// Cancel stops the timer armed for key, reporting whether one was
// armed. After Cancel returns true, the callback will not run.
func (t *timerTable) Cancel(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		return false
	}

	entry.timer.Stop()
	delete(t.entries, key)
	return true
}

func (t *timerTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
