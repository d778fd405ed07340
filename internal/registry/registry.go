// Package registry holds named values that are shared between goroutines,
// such as the agent nodes of a graph or cached models.
package registry

import (
	"fmt"
	"slices"

	"github.com/alphadose/haxmap"
)

// ErrNotFound is wrapped by Lookup when a name is not registered.
var ErrNotFound = fmt.Errorf("not registered")

type Registry[T any] interface {
	Get(name string) (T, bool)
	Lookup(name string) (T, error)
	Add(name string, value T)
	GetOrAdd(name string, value func() T) (T, bool)
	Del(name string)
	Names() []string
	Len() int
}

type registry[T any] struct {
	kind   string
	values *haxmap.Map[string, T]
}

// New creates an empty registry. kind names the registered values in errors,
// for example "node" or "model".
func New[T any](kind string) Registry[T] {
	return &registry[T]{
		kind:   kind,
		values: haxmap.New[string, T](),
	}
}

func (r *registry[T]) Get(name string) (T, bool) {
	return r.values.Get(name)
}

func (r *registry[T]) Lookup(name string) (T, error) {
	v, ok := r.values.Get(name)
	if !ok {
		return v, fmt.Errorf("%s %q: %w", r.kind, name, ErrNotFound)
	}
	return v, nil
}

func (r *registry[T]) Add(name string, value T) {
	r.values.Set(name, value)
}

func (r *registry[T]) GetOrAdd(name string, valueFn func() T) (T, bool) {
	return r.values.GetOrCompute(name, valueFn)
}

func (r *registry[T]) Del(name string) {
	r.values.Del(name)
}

// Names returns the registered names in sorted order.
func (r *registry[T]) Names() []string {
	names := make([]string, 0, r.values.Len())
	r.values.ForEach(func(name string, _ T) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

func (r *registry[T]) Len() int {
	return int(r.values.Len())
}
