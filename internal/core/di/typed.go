package di

import "fmt"

// Provide registers a typed singleton factory under key.
func Provide[T any](c *Container, key Key[T], factory func(*Container) (T, error)) error {
	if err := key.Err(); err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("%w: nil factory for %s", ErrInvalidArgument, key.id)
	}
	return c.RegisterSingleton(key.id, erase(factory))
}

// ProvideTransient registers a typed transient factory under key.
func ProvideTransient[T any](c *Container, key Key[T], factory func(*Container) (T, error)) error {
	if err := key.Err(); err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("%w: nil factory for %s", ErrInvalidArgument, key.id)
	}
	return c.RegisterTransient(key.id, erase(factory))
}

// Resolve resolves key and asserts the result to T.
func Resolve[T any](c *Container, key Key[T]) (T, error) {
	var zero T
	if err := key.Err(); err != nil {
		return zero, err
	}
	inst, err := c.Resolve(key.id)
	if err != nil {
		return zero, err
	}
	return As[T](key, inst)
}

// As asserts an instance resolved for key to T.
func As[T any](key Key[T], inst any) (T, error) {
	typed, ok := inst.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s resolved to %T", ErrNotInterface, key.id, inst)
	}
	return typed, nil
}

func erase[T any](factory func(*Container) (T, error)) Factory {
	return func(c *Container) (any, error) {
		v, err := factory(c)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}
