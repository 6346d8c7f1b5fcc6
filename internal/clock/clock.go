// Package clock is the time source the widget pipeline depends on. Production
// code gets the wall clock; tests drive a clockwork fake.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is what caches, the GitHub client and the generation controller read
// time from. Only Now and AfterFunc are used.
type Clock = clockwork.Clock

// Timer is a handle to a pending AfterFunc call.
type Timer = clockwork.Timer

// Fake is a manually advanced Clock. AfterFunc callbacks run in their own
// goroutine once Advance moves past their deadline.
type Fake = clockwork.FakeClock

// Real returns a Clock backed by the time package.
func Real() Clock { return clockwork.NewRealClock() }

// NewFake returns a Fake clock starting at start.
func NewFake(start time.Time) *Fake { return clockwork.NewFakeClockAt(start) }
