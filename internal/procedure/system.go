package procedure

import (
	"fmt"

	"github.com/l1jgo/origin/internal/core/system"
	"go.uber.org/zap"
)

// System drives the procedure state machine from the frame tick.
type System struct {
	log *zap.Logger

	procs   map[string]Procedure
	order   []Procedure
	current Procedure
	elapsed float64
}

var (
	_ Driver         = (*System)(nil)
	_ system.System  = (*System)(nil)
	_ system.Updater = (*System)(nil)
)

func NewSystem(log *zap.Logger) *System {
	if log == nil {
		log = zap.NewNop()
	}
	return &System{log: log}
}

func (s *System) Priority() int { return system.PriorityProcedure }

func (s *System) Init() error {
	s.reset()
	return nil
}

func (s *System) Shutdown() {
	s.destroy()
}

func (s *System) Update(elapsed, realElapsed float64) {
	if s.current == nil {
		return
	}
	s.elapsed += elapsed
	s.current.OnUpdate(s, elapsed, realElapsed)
}

func (s *System) Initialize(procs ...Procedure) error {
	if s.procs != nil {
		return ErrAlreadyInitialized
	}
	if len(procs) == 0 {
		return ErrNoProcedures
	}
	byName := make(map[string]Procedure, len(procs))
	for _, p := range procs {
		if p == nil || p.Name() == "" {
			return ErrInvalidProcedure
		}
		if _, dup := byName[p.Name()]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateProcedure, p.Name())
		}
		byName[p.Name()] = p
	}

	s.procs = byName
	s.order = append([]Procedure(nil), procs...)
	for _, p := range s.order {
		p.OnInit(s)
	}
	s.log.Debug("procedures initialized", zap.Int("count", len(procs)))
	return nil
}

func (s *System) Start(name string) error {
	if s.procs == nil {
		return ErrNotInitialized
	}
	if s.current != nil {
		return fmt.Errorf("%w: in %s", ErrAlreadyStarted, s.current.Name())
	}
	p, ok := s.procs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProcedure, name)
	}
	s.enter(p)
	return nil
}

func (s *System) Change(name string) error {
	if s.procs == nil {
		return ErrNotInitialized
	}
	if s.current == nil {
		return ErrNotStarted
	}
	next, ok := s.procs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProcedure, name)
	}
	prev := s.current
	prev.OnLeave(s, false)
	s.log.Debug("procedure changed", zap.String("from", prev.Name()), zap.String("to", name))
	s.enter(next)
	return nil
}

func (s *System) enter(p Procedure) {
	s.current = p
	s.elapsed = 0
	p.OnEnter(s)
}

func (s *System) Current() (Procedure, error) {
	if s.procs == nil {
		return nil, ErrNotInitialized
	}
	if s.current == nil {
		return nil, ErrNotStarted
	}
	return s.current, nil
}

func (s *System) CurrentTime() (float64, error) {
	if s.procs == nil {
		return 0, ErrNotInitialized
	}
	if s.current == nil {
		return 0, ErrNotStarted
	}
	return s.elapsed, nil
}

func (s *System) Has(name string) (bool, error) {
	if s.procs == nil {
		return false, ErrNotInitialized
	}
	_, ok := s.procs[name]
	return ok, nil
}

func (s *System) Get(name string) (Procedure, error) {
	if s.procs == nil {
		return nil, ErrNotInitialized
	}
	p, ok := s.procs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProcedure, name)
	}
	return p, nil
}

func (s *System) Restart(procs ...Procedure) error {
	if len(procs) == 0 || procs[0] == nil {
		return ErrNoProcedures
	}
	if s.procs == nil {
		return ErrNotInitialized
	}
	s.destroy()
	if err := s.Initialize(procs...); err != nil {
		return err
	}
	return s.Start(procs[0].Name())
}

// destroy leaves the current procedure and destroys all of them.
func (s *System) destroy() {
	if s.current != nil {
		s.current.OnLeave(s, true)
	}
	for _, p := range s.order {
		p.OnDestroy(s)
	}
	s.reset()
}

func (s *System) reset() {
	s.procs = nil
	s.order = nil
	s.current = nil
	s.elapsed = 0
}
