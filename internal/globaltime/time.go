// Package globaltime is the process clock. Everything that stamps a
// dedup run reads time through here so tests can freeze the clock; the
// engine itself never touches it.
package globaltime

import (
	"sync"
	"time"
)

var (
	clockMu sync.RWMutex
	clock   = time.Now
)

// Now returns the current time, or the frozen time when a test has
// installed one.
func Now() time.Time {
	clockMu.RLock()
	defer clockMu.RUnlock()
	return clock()
}

// UTC returns Now in UTC. Persisted timestamps always store UTC.
func UTC() time.Time {
	return Now().UTC()
}

// SetMockTime freezes the clock at t until ResetTime is called.
func SetMockTime(t time.Time) {
	clockMu.Lock()
	defer clockMu.Unlock()
	clock = func() time.Time { return t }
}

// ResetTime restores the wall clock.
func ResetTime() {
	clockMu.Lock()
	defer clockMu.Unlock()
	clock = time.Now
}
