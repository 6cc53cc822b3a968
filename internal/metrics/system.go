package metrics

import (
	"sync/atomic"

	"github.com/l1jgo/origin/internal/core/di"
	"github.com/l1jgo/origin/internal/core/system"
	"github.com/l1jgo/origin/internal/timer"
)

// Reporter exposes what the sampler saw, safe from any goroutine.
type Reporter interface {
	Collector() *Collector
	// Snapshot is the last published service list, priority order.
	Snapshot() []system.ServiceInfo
}

// Key is the capability surface the sampler is registered under.
var Key = di.Capability[Reporter]("metrics.Reporter")

// Registry is what the sampler reads from the core.
type Registry interface {
	Services() []system.ServiceInfo
	Len() int
	TickableLen() int
}

// TimerStats is what the sampler reads from the timer service.
type TimerStats interface {
	Count(d timer.Domain) int
	Fired() uint64
}

// System samples the registry and timers once per frame. It runs at the
// lowest priority so it sees the frame's final state.
type System struct {
	c      *Collector
	core   Registry
	timers TimerStats

	lastFired uint64
	lastLen   int
	snapshot  atomic.Pointer[[]system.ServiceInfo]
}

var (
	_ Reporter       = (*System)(nil)
	_ system.System  = (*System)(nil)
	_ system.Updater = (*System)(nil)
)

// NewSystem builds the sampler. timers may be nil.
func NewSystem(c *Collector, core Registry, timers TimerStats) *System {
	s := &System{c: c, core: core, timers: timers, lastLen: -1}
	empty := []system.ServiceInfo{}
	s.snapshot.Store(&empty)
	return s
}

func (s *System) Priority() int { return system.PriorityMetrics }

func (s *System) Init() error {
	if s.timers != nil {
		s.lastFired = s.timers.Fired()
	}
	return nil
}

func (s *System) Shutdown() {
	empty := []system.ServiceInfo{}
	s.snapshot.Store(&empty)
}

func (s *System) Update(float64, float64) {
	n := s.core.Len()
	s.c.Services.Set(float64(n))
	s.c.Tickable.Set(float64(s.core.TickableLen()))
	if n != s.lastLen {
		// 服務只增不減，數量變了才重新發布
		list := s.core.Services()
		s.snapshot.Store(&list)
		s.lastLen = n
	}

	if s.timers == nil {
		return
	}
	for _, d := range []timer.Domain{timer.Scaled, timer.Unscaled} {
		s.c.Timers.WithLabelValues(d.String()).Set(float64(s.timers.Count(d)))
	}
	fired := s.timers.Fired()
	s.c.TimerFired.Add(float64(fired - s.lastFired))
	s.lastFired = fired
}

func (s *System) Collector() *Collector { return s.c }

func (s *System) Snapshot() []system.ServiceInfo {
	return *s.snapshot.Load()
}
