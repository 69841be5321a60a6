// Package bounded provides an owned list with a fixed maximum capacity.
package bounded

import "errors"

var ErrCapacityExceeded = errors.New("bounded list capacity exceeded")

// List is a growable sequence that refuses to grow beyond its capacity.
// A capacity of zero or less means unbounded.
type List[T any] struct {
	items []T
	max   int
}

// New creates an empty list holding at most max items.
func New[T any](max int) *List[T] {
	return &List[T]{max: max}
}

// Push appends v, or returns ErrCapacityExceeded when full.
func (l *List[T]) Push(v T) error {
	if l.max > 0 && len(l.items) >= l.max {
		return ErrCapacityExceeded
	}
	l.items = append(l.items, v)
	return nil
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Items returns the backing slice. Callers must not append to it.
func (l *List[T]) Items() []T {
	if l == nil {
		return nil
	}
	return l.items
}
