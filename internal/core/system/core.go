package system

import (
	"fmt"
	"reflect"

	"github.com/l1jgo/origin/internal/core/di"
	"go.uber.org/zap"
)

// designSystemCount sizes the internal lists for a typical bootstrap.
const designSystemCount = 16

type entry struct {
	id  di.Surface
	sys System
}

// ServiceInfo describes one live service, in scheduling order.
type ServiceInfo struct {
	ID       di.Surface `json:"id"`
	Priority int        `json:"priority"`
	Tickable bool       `json:"tickable"`
	Fixed    bool       `json:"fixed"`
}

// Core owns every live service: identity, priority ordering, frame advancement
// and teardown. Single-goroutine access only (frame thread).
type Core struct {
	log       *zap.Logger
	container *di.Container

	byID     map[di.Surface]System
	systems  []entry // non-increasing priority, ties in registration order
	updaters []entry
	fixed    []entry

	// execution snapshots, rebuilt lazily when dirty
	execList  []Updater
	fixedExec []FixedUpdater
	dirty     bool
}

func NewCore(log *zap.Logger) *Core {
	if log == nil {
		log = zap.NewNop()
	}
	return &Core{
		log:       log,
		byID:      make(map[di.Surface]System, designSystemCount),
		systems:   make([]entry, 0, designSystemCount),
		updaters:  make([]entry, 0, designSystemCount),
		execList:  make([]Updater, 0, designSystemCount),
		fixedExec: make([]FixedUpdater, 0, 4),
	}
}

// Initialize wires the core to a container and installs the creation observer.
func (c *Core) Initialize(container *di.Container) {
	container.SetObserver(c.onCreated)
	c.container = container
}

// Initialized reports whether the core is wired to a container.
func (c *Core) Initialized() bool { return c.container != nil }

// Container returns the attached container, or nil before Initialize.
func (c *Core) Container() *di.Container { return c.container }

// BindSingleton registers a singleton factory for key. With instantiateNow the
// service is built, registered and initialized before BindSingleton returns.
func BindSingleton[T any](c *Core, key di.Key[T], factory func(*di.Container) (T, error), instantiateNow bool) error {
	if c.container == nil {
		return ErrNotInitialized
	}
	if err := di.Provide(c.container, key, factory); err != nil {
		return err
	}
	if !instantiateNow {
		return nil
	}
	_, err := di.Resolve(c.container, key)
	return err
}

// BindTransient registers a transient factory for key. Only the first
// instance built becomes a live service.
func BindTransient[T any](c *Core, key di.Key[T], factory func(*di.Container) (T, error)) error {
	if c.container == nil {
		return ErrNotInitialized
	}
	return di.ProvideTransient(c.container, key, factory)
}

// RegisterSystem hands an already-built instance to the core under key.
// Registering a surface that is already live is a no-op and returns the live instance.
func RegisterSystem[T any](c *Core, key di.Key[T], instance T) (T, error) {
	var zero T
	if err := key.Err(); err != nil {
		return zero, err
	}
	if c.container == nil {
		return zero, ErrNotInitialized
	}
	if live, ok := c.byID[key.ID()]; ok {
		return di.As(key, live)
	}
	if err := c.container.RegisterInstance(key.ID(), instance); err != nil {
		return zero, err
	}
	return di.Resolve(c.container, key)
}

// GetService returns the live service behind key, resolving it through the
// container on first use.
func GetService[T any](c *Core, key di.Key[T]) (T, error) {
	var zero T
	if err := key.Err(); err != nil {
		return zero, err
	}
	if live, ok := c.byID[key.ID()]; ok {
		return di.As(key, live)
	}
	if c.container == nil {
		return zero, fmt.Errorf("%w: resolving %s", ErrNotInitialized, key.ID())
	}
	return di.Resolve(c.container, key)
}

// MustGetService is GetService for bootstrap code where a missing service is a
// wiring bug. Panics on error.
func MustGetService[T any](c *Core, key di.Key[T]) T {
	svc, err := GetService(c, key)
	if err != nil {
		panic(err)
	}
	return svc
}

// onCreated is the container observer: first availability of a surface.
func (c *Core) onCreated(id di.Surface, inst any) error {
	if _, ok := c.byID[id]; ok {
		return nil
	}
	sys, ok := inst.(System)
	if !ok {
		return fmt.Errorf("%w: %s (%T)", ErrNotSystem, id, inst)
	}

	// 同一實例以別名註冊：只補對照表，不重複 Init
	for _, e := range c.systems {
		if sameInstance(e.sys, sys) {
			c.byID[id] = e.sys
			return nil
		}
	}

	c.byID[id] = sys
	e := entry{id: id, sys: sys}
	c.systems = insertByPriority(c.systems, e)
	if _, ok := sys.(Updater); ok {
		c.updaters = insertByPriority(c.updaters, e)
	}
	if _, ok := sys.(FixedUpdater); ok {
		c.fixed = insertByPriority(c.fixed, e)
	}
	c.dirty = true

	if err := sys.Init(); err != nil {
		c.remove(id)
		return fmt.Errorf("init %s: %w", id, err)
	}
	c.log.Debug("service registered",
		zap.String("surface", string(id)),
		zap.Int("priority", sys.Priority()),
		zap.Int("live", len(c.systems)),
	)
	return nil
}

// insertByPriority inserts before the first strictly lower priority.
func insertByPriority(list []entry, e entry) []entry {
	p := e.sys.Priority()
	i := 0
	for ; i < len(list); i++ {
		if p > list[i].sys.Priority() {
			break
		}
	}
	list = append(list, entry{})
	copy(list[i+1:], list[i:])
	list[i] = e
	return list
}

func (c *Core) remove(id di.Surface) {
	delete(c.byID, id)
	c.systems = removeEntry(c.systems, id)
	c.updaters = removeEntry(c.updaters, id)
	c.fixed = removeEntry(c.fixed, id)
	c.dirty = true
}

func removeEntry(list []entry, id di.Surface) []entry {
	out := list[:0]
	for _, e := range list {
		if e.id != id {
			out = append(out, e)
		}
	}
	clear(list[len(out):])
	return out
}

// Tick advances every tickable service once, in priority order.
// Must not be called re-entrantly from inside an Update.
func (c *Core) Tick(elapsed, realElapsed float64) {
	c.ensureExecList()
	for _, u := range c.execList {
		u.Update(elapsed, realElapsed)
	}
}

// FixedTick advances every fixed-step service once, in priority order.
func (c *Core) FixedTick(fixedElapsed float64) {
	c.ensureExecList()
	for _, u := range c.fixedExec {
		u.FixedUpdate(fixedElapsed)
	}
}

func (c *Core) ensureExecList() {
	if !c.dirty {
		return
	}
	c.dirty = false
	c.execList = c.execList[:0]
	for _, e := range c.updaters {
		c.execList = append(c.execList, e.sys.(Updater))
	}
	c.fixedExec = c.fixedExec[:0]
	for _, e := range c.fixed {
		c.fixedExec = append(c.fixedExec, e.sys.(FixedUpdater))
	}
}

// Shutdown tears services down from the lowest priority to the highest, then
// clears all state and detaches the container. Resolutions that reach the
// container from here on are refused, so nothing new is initialized.
func (c *Core) Shutdown() {
	if c.container != nil {
		c.container.SetObserver(refuseCreated)
		c.container = nil
	}
	for i := len(c.systems) - 1; i >= 0; i-- {
		s := c.systems[i].sys
		if s == nil {
			continue
		}
		s.Shutdown()
		c.log.Debug("service shut down", zap.String("surface", string(c.systems[i].id)))
	}
	clear(c.byID)
	clear(c.systems)
	c.systems = c.systems[:0]
	c.updaters = c.updaters[:0]
	c.fixed = c.fixed[:0]
	clear(c.execList)
	c.execList = c.execList[:0]
	clear(c.fixedExec)
	c.fixedExec = c.fixedExec[:0]
	c.dirty = false
}

func refuseCreated(id di.Surface, _ any) error {
	return fmt.Errorf("%w: %s resolved during shutdown", ErrNotInitialized, id)
}

// Services returns a snapshot of the live services in scheduling order.
func (c *Core) Services() []ServiceInfo {
	out := make([]ServiceInfo, 0, len(c.systems))
	for _, e := range c.systems {
		_, tickable := e.sys.(Updater)
		_, fixed := e.sys.(FixedUpdater)
		out = append(out, ServiceInfo{
			ID:       e.id,
			Priority: e.sys.Priority(),
			Tickable: tickable,
			Fixed:    fixed,
		})
	}
	return out
}

// Len returns the number of live services.
func (c *Core) Len() int { return len(c.systems) }

// TickableLen returns the number of services taking the logic tick.
func (c *Core) TickableLen() int { return len(c.updaters) }

func sameInstance(a, b System) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Pointer || vb.Kind() != reflect.Pointer {
		return false
	}
	return va.Pointer() == vb.Pointer() && va.Type() == vb.Type()
}
