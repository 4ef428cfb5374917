package registry

import (
	"context"
	"fmt"
	"reflect"
)

// Resolve is GetOrCreate for a registry that holds instances of several
// types. It stores the value built by ctor and type-checks the published
// instance against T.
//
//	reg := registry.New[string, any]()
//	db, err := registry.Resolve(ctx, reg, "db", OpenDatabase(cfg)) // db is *Database
//
// When T is an interface type and ctor returns a nil T, the nil is published
// and every later Resolve for the key returns the zero T without error.
// For any other T a published nil is a *TypeMismatchError.
func Resolve[T any, K comparable](ctx context.Context, r *Registry[K, any], key K, ctor Constructor[T]) (T, error) {
	var zero T
	if ctx == nil {
		return zero, ErrNilContext
	}

	// Fast path: skip building the adapter for published instances
	if v, ok := r.Get(key); ok {
		r.recordHit(ctx, key)
		return typed[T](r, key, v)
	}

	var build Constructor[any]
	if ctor != nil {
		build = func(ctx context.Context) (any, error) {
			t, err := ctor(ctx)
			if err != nil {
				return nil, err
			}
			return t, nil
		}
	}

	v, err := r.GetOrCreate(ctx, key, build)
	if err != nil {
		return zero, err
	}
	return typed[T](r, key, v)
}

func typed[T any, K comparable](r *Registry[K, any], key K, v any) (T, error) {
	var zero T
	if t, ok := v.(T); ok {
		return t, nil
	}
	// A nil interface T boxes to a nil any, which no type assertion matches
	if v == nil && reflect.TypeFor[T]().Kind() == reflect.Interface {
		return zero, nil
	}
	return zero, &TypeMismatchError{
		Key:  r.label(key),
		Want: reflect.TypeFor[T]().String(),
		Got:  fmt.Sprintf("%T", v),
	}
}
