package di

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrInvalidArgument = errors.New("di: invalid argument")
	ErrNotRegistered   = errors.New("di: surface not registered")
	ErrNotInterface    = errors.New("di: not a capability surface")
	ErrNilInstance     = errors.New("di: factory returned nil")
)

// Surface is the stable identifier a capability is registered and looked up by.
type Surface string

// Key binds a Surface to the interface type T it stands for.
// Declare keys once at package level with Capability.
type Key[T any] struct {
	id  Surface
	err error
}

// Capability declares a capability key. T must be an interface type and id
// must be non-empty; otherwise every lookup through the key fails with
// ErrNotInterface.
func Capability[T any](id Surface) Key[T] {
	k := Key[T]{id: id}
	t := reflect.TypeOf((*T)(nil)).Elem()
	switch {
	case id == "":
		k.err = fmt.Errorf("%w: empty surface id for %s", ErrNotInterface, t)
	case t.Kind() != reflect.Interface:
		k.err = fmt.Errorf("%w: %s is not an interface", ErrNotInterface, t)
	}
	return k
}

// ID returns the surface identifier.
func (k Key[T]) ID() Surface { return k.id }

// Err reports whether the key names a valid capability surface.
func (k Key[T]) Err() error {
	if k.id == "" && k.err == nil {
		return fmt.Errorf("%w: zero key", ErrNotInterface)
	}
	return k.err
}

// Factory builds a service instance. It may resolve other surfaces from c.
type Factory func(c *Container) (any, error)

// Observer is told the first time a surface becomes available.
type Observer func(id Surface, instance any) error

type lifetime int

const (
	singleton lifetime = iota
	transient
)

type registration struct {
	factory  Factory
	lifetime lifetime
}

// Container registers and resolves services by surface. It only builds
// instances; lifecycle belongs to whoever observes it.
// Single-goroutine access only (frame thread).
type Container struct {
	factories  map[Surface]registration
	singletons map[Surface]any
	notified   map[Surface]struct{}
	observer   Observer
}

// New creates a container. observer may be nil and set later with SetObserver.
func New(observer Observer) *Container {
	return &Container{
		factories:  make(map[Surface]registration),
		singletons: make(map[Surface]any),
		notified:   make(map[Surface]struct{}),
		observer:   observer,
	}
}

// SetObserver replaces the creation observer. Surfaces already notified are
// not replayed; cached singletons notify on their next resolution.
func (c *Container) SetObserver(o Observer) {
	c.observer = o
}

// RegisterSingleton stores a factory whose first result is cached.
func (c *Container) RegisterSingleton(id Surface, f Factory) error {
	return c.register(id, f, singleton)
}

// RegisterTransient stores a factory that runs on every Resolve.
func (c *Container) RegisterTransient(id Surface, f Factory) error {
	return c.register(id, f, transient)
}

// RegisterInstance stores an already-built singleton.
func (c *Container) RegisterInstance(id Surface, instance any) error {
	if id == "" {
		return fmt.Errorf("%w: empty surface id", ErrInvalidArgument)
	}
	if isNil(instance) {
		return fmt.Errorf("%w: nil instance for %s", ErrInvalidArgument, id)
	}
	c.singletons[id] = instance
	c.factories[id] = registration{
		factory:  func(*Container) (any, error) { return instance, nil },
		lifetime: singleton,
	}
	return nil
}

func (c *Container) register(id Surface, f Factory, lt lifetime) error {
	if id == "" {
		return fmt.Errorf("%w: empty surface id", ErrInvalidArgument)
	}
	if f == nil {
		return fmt.Errorf("%w: nil factory for %s", ErrInvalidArgument, id)
	}
	c.factories[id] = registration{factory: f, lifetime: lt}
	return nil
}

// Registered reports whether a factory or instance is on file for id.
func (c *Container) Registered(id Surface) bool {
	_, ok := c.factories[id]
	return ok
}

// Resolve returns the service behind id, building it if needed. The observer
// runs synchronously before Resolve returns the first time id resolves.
func (c *Container) Resolve(id Surface) (any, error) {
	if inst, ok := c.singletons[id]; ok {
		if err := c.notify(id, inst); err != nil {
			return nil, err
		}
		return inst, nil
	}

	reg, ok := c.factories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}

	inst, err := reg.factory(c)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", id, err)
	}
	if isNil(inst) {
		return nil, fmt.Errorf("%w: %s", ErrNilInstance, id)
	}
	if reg.lifetime == singleton {
		c.singletons[id] = inst
	}

	if err := c.notify(id, inst); err != nil {
		// 觀察者拒絕：丟棄快取，下次 Resolve 重新建構
		if reg.lifetime == singleton {
			delete(c.singletons, id)
		}
		return nil, err
	}
	return inst, nil
}

// notify tells the observer about id once. A failed notification is not
// recorded so that a later resolution retries it.
func (c *Container) notify(id Surface, inst any) error {
	if c.observer == nil {
		return nil
	}
	if _, done := c.notified[id]; done {
		return nil
	}
	if err := c.observer(id, inst); err != nil {
		return err
	}
	c.notified[id] = struct{}{}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
