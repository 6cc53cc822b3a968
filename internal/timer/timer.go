package timer

import "github.com/l1jgo/origin/internal/core/di"

// Callback is invoked when a timer expires, with the args given to AddTimer.
type Callback func(args ...any)

// Domain selects which clock a timer counts down against.
type Domain int

const (
	Scaled   Domain = iota // affected by the game speed multiplier
	Unscaled               // real elapsed time
)

func (d Domain) String() string {
	if d == Unscaled {
		return "unscaled"
	}
	return "scaled"
}

func domainOf(unscaled bool) Domain {
	if unscaled {
		return Unscaled
	}
	return Scaled
}

// Driver is the timer capability handed to gameplay code.
// Stale ids are tolerated everywhere: mutators become no-ops and queries
// return zero values.
// A looping timer fires once per elapsed period, but one Advance re-fires it
// at most max_catch_up extra times; a longer backlog is dropped.
// Resets made from a callback take effect on the next pass.
type Driver interface {
	// AddTimer schedules cb after delay seconds and returns its id.
	AddTimer(cb Callback, delay float64, loop, unscaled bool, args ...any) int
	PauseTimer(id int)
	ResumeTimer(id int)
	Running(id int) bool
	GetLeftTime(id int) float64
	// ResetTimer re-arms id with a new period, loop flag and domain.
	ResetTimer(id int, period float64, loop, unscaled bool)
	// ResetTimerCallback is ResetTimer that also swaps the callback when cb is non-nil.
	ResetTimerCallback(id int, cb Callback, period float64, loop, unscaled bool)
	RemoveTimer(id int)
	RemoveAllTimer()
}

// Key is the capability surface the timer service is registered under.
var Key = di.Capability[Driver]("timer.Driver")

// timer is one pending countdown.
type timer struct {
	id        int
	remaining float64
	period    float64
	loop      bool
	domain    Domain
	running   bool
	removed   bool // tombstone, swept after the lane's current pass
	cb        Callback
	args      []any
}
