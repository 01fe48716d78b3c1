package user

import (
	"time"
)

// SetNowFunc replaces the clock of the setup tokens, e.g. to make expired tokens in tests.
// It returns a func restoring the previous clock.
func SetNowFunc(now func() time.Time) (reset func()) {
	prev := nowFunc
	nowFunc = now
	return func() { nowFunc = prev }
}
