package domain

import "github.com/jonboulle/clockwork"

// stampClock supplies the processed_at time on styled points.
var stampClock = clockwork.NewRealClock()

// SetClock replaces the stamping clock, nil meaning wall time, and returns a
// func that puts the previous one back.
func SetClock(c clockwork.Clock) (restore func()) {
	prev := stampClock
	if c == nil {
		c = clockwork.NewRealClock()
	}
	stampClock = c
	return func() { stampClock = prev }
}
