package procedure

import (
	"errors"

	"github.com/l1jgo/origin/internal/core/di"
)

var (
	ErrNotInitialized     = errors.New("procedure: driver not initialized")
	ErrAlreadyInitialized = errors.New("procedure: driver already initialized")
	ErrNoProcedures       = errors.New("procedure: no procedures given")
	ErrInvalidProcedure   = errors.New("procedure: nil procedure or empty name")
	ErrDuplicateProcedure = errors.New("procedure: duplicate procedure name")
	ErrUnknownProcedure   = errors.New("procedure: unknown procedure")
	ErrNotStarted         = errors.New("procedure: not started")
	ErrAlreadyStarted     = errors.New("procedure: already started")
)

// Procedure is one stage of the application flow (launch, preload, login...).
// Exactly one procedure is current once the driver has started.
type Procedure interface {
	Name() string
	OnInit(d Driver)
	OnEnter(d Driver)
	OnUpdate(d Driver, elapsed, realElapsed float64)
	// OnLeave is called with shutdown=true when the driver is torn down.
	OnLeave(d Driver, shutdown bool)
	OnDestroy(d Driver)
}

// Base gives no-op hooks; embed it and implement Name plus the hooks you need.
type Base struct{}

func (Base) OnInit(Driver) {}
func (Base) OnEnter(Driver) {}
func (Base) OnUpdate(Driver, float64, float64) {}
func (Base) OnLeave(Driver, bool) {}
func (Base) OnDestroy(Driver) {}

// Driver is the procedure capability.
type Driver interface {
	Initialize(procs ...Procedure) error
	// Start enters the named procedure. Only valid once per Initialize.
	Start(name string) error
	// Change leaves the current procedure and enters name immediately.
	Change(name string) error
	Current() (Procedure, error)
	// CurrentTime is the scaled time spent in the current procedure.
	CurrentTime() (float64, error)
	Has(name string) (bool, error)
	Get(name string) (Procedure, error)
	// Restart destroys every procedure, initializes procs and starts procs[0].
	Restart(procs ...Procedure) error
}

// Key is the capability surface the procedure service is registered under.
var Key = di.Capability[Driver]("procedure.Driver")
