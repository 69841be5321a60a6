package optional

import "fmt"

// Optional is a value that may be absent.
// The zero value is an absent value.
type Optional[T any] struct {
	value T
	isSet bool
}

// Some creates an optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, isSet: true}
}

// None creates an absent optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// IsSet returns true if a value is present.
func (o Optional[T]) IsSet() bool {
	return o.isSet
}

// Set stores v.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.isSet = true
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.isSet
}

// GetOr returns the value, or def when absent.
func (o Optional[T]) GetOr(def T) T {
	if o.isSet {
		return o.value
	}
	return def
}

// Unwrap returns the value and panics when absent.
func (o Optional[T]) Unwrap() T {
	if o.isSet {
		return o.value
	}
	panic("Optional value is not set")
}

func (o Optional[T]) String() string {
	if !o.isSet {
		return "none"
	}
	return fmt.Sprintf("%v", o.value)
}

// Map applies f to a present value.
func Map[A, B any](a Optional[A], f func(A) B) Optional[B] {
	if v, ok := a.Get(); ok {
		return Some(f(v))
	}
	return None[B]()
}
