package system

import "errors"

var (
	ErrNotInitialized = errors.New("system: core not initialized")
	ErrNotSystem      = errors.New("system: instance does not implement System")
)

// Priority bands used by the built-in services. Higher runs earlier in a
// frame and shuts down later.
const (
	PriorityTimer     = 0
	PriorityScripting = -1
	PriorityProcedure = -2
	PriorityMetrics   = -1 << 16 // 最後取樣
)

// System is a long-lived service owned by the Core.
//
// Lifecycle:
//  1. Construction (factory or RegisterSystem)
//  2. Init() - exactly once, right after the Core takes ownership
//  3. Update / FixedUpdate - once per frame, descending priority
//  4. Shutdown() - exactly once, ascending priority
type System interface {
	// Priority is constant for the lifetime of the service.
	Priority() int
	Init() error
	Shutdown()
}

// Updater is implemented by services that take the per-frame logic tick.
type Updater interface {
	// Update receives scaled and unscaled elapsed seconds.
	Update(elapsed, realElapsed float64)
}

// FixedUpdater is implemented by services that take the fixed-step tick.
type FixedUpdater interface {
	FixedUpdate(fixedElapsed float64)
}
