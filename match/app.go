package match

import (
	"reflect"
)

type appPattern[A, B any] struct {
	fn  func(A) B
	pat Pattern
}

// App projects the subject through fn and matches the pattern against the
// result. The subject must be an A, either directly or behind a pointer.
func App[A, B any](fn func(A) B, pat interface{}) Pattern {
	return appPattern[A, B]{fn: fn, pat: asPattern(pat)}
}

func (a appPattern[A, B]) matchPattern(subject interface{}, depth int32, ctx *Context) bool {
	arg, ok := argAs[A](subject)
	if !ok {
		return false
	}
	res := a.fn(arg)
	// Projected values live in the match context so bindings taken against
	// them stay valid for the duration of the arm.
	ctx.emplace(res)
	return runPattern(ctx.back(), a.pat, depth, ctx)
}

func (a appPattern[A, B]) processID(depth int32, op idProcess) {
	a.pat.processID(depth, op)
}

type asTypePattern[T any] struct {
	pat Pattern
}

// As narrows the subject to a concrete type before matching the inner
// pattern against it. Pointers to T are dereferenced.
func As[T any](pat interface{}) Pattern {
	return asTypePattern[T]{pat: asPattern(pat)}
}

func (a asTypePattern[T]) matchPattern(subject interface{}, depth int32, ctx *Context) bool {
	v, ok := argAs[T](subject)
	if !ok {
		return false
	}
	return runPattern(interface{}(v), a.pat, depth, ctx)
}

func (a asTypePattern[T]) processID(depth int32, op idProcess) {
	a.pat.processID(depth, op)
}

type somePattern struct {
	pat Pattern
}

// Some matches a non-nil subject, dereferencing one pointer level before
// applying the inner pattern. None matches nil in any of its spellings.
func Some(pat interface{}) Pattern {
	return somePattern{pat: asPattern(pat)}
}

// None matches untyped nil and nil-valued pointers, interfaces, slices and
// maps.
var None Pattern = meet{pred: isNilValue}

func (s somePattern) matchPattern(subject interface{}, depth int32, ctx *Context) bool {
	if isNilValue(subject) {
		return false
	}
	return runPattern(derefValue(subject), s.pat, depth, ctx)
}

func (s somePattern) processID(depth int32, op idProcess) {
	s.pat.processID(depth, op)
}

// argAs coerces a dynamic subject to A, unwrapping pointers along the way.
func argAs[A any](subject interface{}) (A, bool) {
	if v, ok := subject.(A); ok {
		return v, true
	}
	if p, ok := subject.(*A); ok && p != nil {
		return *p, true
	}
	if d := derefValue(subject); d != nil {
		if v, ok := d.(A); ok {
			return v, true
		}
	}
	var zero A
	// Interface-typed A accepts anything, including nil subjects.
	if reflect.TypeOf(zero) == nil {
		if v, ok := interface{}(subject).(A); ok {
			return v, true
		}
	}
	return zero, false
}

func derefValue(subject interface{}) interface{} {
	rv := reflect.ValueOf(subject)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return subject
}
