package match

import (
	"reflect"
)

type cellState int32

const (
	cellEmpty cellState = iota
	cellOwned
	cellBorrowed
)

// Id is a named binder: a pattern that captures the value it matches into a
// single-slot cell. The cell is depth-versioned so the same identifier can be
// reused across conjunction/disjunction branches and across arms without a
// failed branch leaking a stale binding into a later one.
//
// Binding stores a *T subject as a non-owning reference and anything else as
// an owned copy. An Id must not be shared across concurrent match calls.
type Id[T any] struct {
	name  string
	state cellState
	val   T
	ptr   *T
	depth int32
}

// NewId creates an unbound identifier. The name only appears in diagnostics.
func NewId[T any](name string) *Id[T] {
	return &Id[T]{name: name}
}

// Name returns the identifier's diagnostic name.
func (id *Id[T]) Name() string {
	return id.name
}

// HasValue reports whether the cell currently holds a binding.
func (id *Id[T]) HasValue() bool {
	return id.state != cellEmpty
}

// Value returns the bound value, or ErrUnbound when the cell is empty.
func (id *Id[T]) Value() (T, error) {
	var zero T
	if id.state == cellEmpty {
		return zero, errUnbound(id.name)
	}
	return id.current(), nil
}

// MustValue returns the bound value and panics when the cell is empty.
// Reading an identifier that did not take part in a successful match is a
// programmer error, not a runtime condition.
func (id *Id[T]) MustValue() T {
	v, err := id.Value()
	if err != nil {
		panic(err)
	}
	return v
}

// MoveOut transfers the owned value to the caller. It fails when the cell is
// empty or holds a non-owning reference.
func (id *Id[T]) MoveOut() (T, error) {
	var zero T
	switch id.state {
	case cellEmpty:
		return zero, errUnbound(id.name)
	case cellBorrowed:
		return zero, errNotOwned(id.name)
	}
	return id.val, nil
}

// At sugars the common "bind and also require" composition: the identifier
// captures the subject while pat constrains it.
func (id *Id[T]) At(pat interface{}) Pattern {
	return And(pat, id)
}

func (id *Id[T]) current() T {
	if id.state == cellBorrowed {
		return *id.ptr
	}
	return id.val
}

// matchValue compares against an existing binding, or binds when empty.
func (id *Id[T]) matchValue(subject interface{}) bool {
	if id.state != cellEmpty {
		return equalValues(interface{}(id.current()), subject)
	}
	if subject == nil {
		// Only an interface-typed binder can hold nil.
		var zero T
		if reflect.TypeOf(zero) != nil {
			return false
		}
		id.state = cellOwned
		id.val = zero
		return true
	}
	if p, ok := subject.(*T); ok && p != nil {
		id.state = cellBorrowed
		id.ptr = p
		return true
	}
	if v, ok := subject.(T); ok {
		id.state = cellOwned
		id.val = v
		return true
	}
	if v, ok := convertTo[T](subject); ok {
		id.state = cellOwned
		id.val = v
		return true
	}
	return false
}

// confirm keeps a binding made deeper in the tree alive as the enclosing
// pattern unwinds successfully.
func (id *Id[T]) confirm(depth int32) {
	if id.depth > depth || id.depth == 0 {
		id.depth = depth
	}
}

// reset discards a binding made at or below the cancelling depth.
func (id *Id[T]) reset(depth int32) {
	if id.depth >= depth {
		var zero T
		id.state = cellEmpty
		id.val = zero
		id.ptr = nil
		id.depth = depth
	}
}

func (id *Id[T]) matchPattern(subject interface{}, _ int32, _ *Context) bool {
	return id.matchValue(subject)
}

func (id *Id[T]) processID(depth int32, op idProcess) {
	switch op {
	case idCancel:
		id.reset(depth)
	case idConfirm:
		id.confirm(depth)
	}
}

// convertTo bridges numeric width mismatches between a dynamically typed
// subject and a typed identifier, e.g. binding an int64 subject to an
// Id[int]. Non-numeric mismatches do not convert.
func convertTo[T any](subject interface{}) (T, bool) {
	var zero T
	target := reflect.TypeOf(zero)
	if target == nil || subject == nil {
		return zero, false
	}
	sv := reflect.ValueOf(subject)
	if !isNumericKind(sv.Kind()) || !isNumericKind(target.Kind()) {
		return zero, false
	}
	converted := sv.Convert(target).Interface().(T)
	// Reject lossy conversions so a mismatched value fails to bind rather
	// than binding a silently truncated one.
	if !equalValues(subject, interface{}(converted)) {
		return zero, false
	}
	return converted, true
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
