package database

import "github.com/jonboulle/clockwork"

// clock stamps import runs; tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for import runs. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
