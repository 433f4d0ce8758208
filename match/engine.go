package match

import (
	"fmt"

	"github.com/funvibe/matchpack/errors"
)

func typeName(v interface{}) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

// Sentinel values for errors.Is checks. The engine returns fresh instances
// carrying per-call context; they compare equal to these by category and code.
var (
	// ErrNoMatch is returned by Eval when no arm matched the subject.
	ErrNoMatch = errors.New(errors.CategoryMatch, 1, "NO_MATCH", "no pattern matched the subject")
	// ErrUnbound is returned when an identifier is read before a
	// successful match bound it.
	ErrUnbound = errors.New(errors.CategoryMatch, 2, "UNBOUND_IDENTIFIER", "identifier has no bound value")
	// ErrNotOwned is returned by MoveOut when the identifier holds a
	// reference to the subject rather than an owned value.
	ErrNotOwned = errors.New(errors.CategoryMatch, 3, "NOT_OWNED", "identifier holds a reference, not an owned value")
)

func errNoMatch(subject interface{}) error {
	return errors.New(errors.CategoryMatch, 1, "NO_MATCH", "no pattern matched the subject").
		WithContext("subject_type", typeName(subject))
}

func errUnbound(name string) error {
	return errors.New(errors.CategoryMatch, 2, "UNBOUND_IDENTIFIER", "identifier has no bound value").
		WithContext("identifier", name)
}

func errNotOwned(name string) error {
	return errors.New(errors.CategoryMatch, 3, "NOT_OWNED", "identifier holds a reference, not an owned value").
		WithContext("identifier", name)
}

// Arm pairs a pattern with the handler to run when it matches. Arms are
// built with Case or Do and optionally narrowed with When.
type Arm[R any] struct {
	pat     Pattern
	guard   func() bool
	handler func() R
}

// Case builds an arm whose handler produces the match result. Identifiers
// referenced by the pattern are readable inside the handler.
func Case[R any](pat interface{}, handler func() R) Arm[R] {
	return Arm[R]{pat: asPattern(pat), handler: handler}
}

// When attaches a guard evaluated after the pattern matches but before the
// arm is committed. Bindings made by the pattern are visible to the guard; a
// false guard rolls them back and evaluation moves to the next arm.
func (a Arm[R]) When(guard func() bool) Arm[R] {
	a.guard = guard
	return a
}

// Unit is the result type of side-effect-only arms.
type Unit = struct{}

// Do builds a statement-mode arm: the handler runs for effect only.
func Do(pat interface{}, handler func()) Arm[Unit] {
	return Arm[Unit]{pat: asPattern(pat), handler: func() Unit {
		handler()
		return Unit{}
	}}
}

// tryArm attempts one arm against the subject. Regardless of outcome every
// binder in the arm is reset afterwards, so identifiers can be reused by
// later arms and later match calls.
func (a Arm[R]) tryArm(subject interface{}) (R, bool) {
	var zero R
	ctx := newContext()
	pat := a.pat
	if a.guard != nil {
		pat = postCheck{pat: pat, pred: a.guard}
	}
	if !runPattern(subject, pat, 0, ctx) {
		return zero, false
	}
	res := a.handler()
	pat.processID(0, idCancel)
	return res, true
}

// Eval matches the subject against the arms in order and returns the first
// matching arm's result. Exhaustion is an error in expression mode.
func Eval[R any](subject interface{}, arms ...Arm[R]) (R, error) {
	for _, a := range arms {
		if res, ok := a.tryArm(subject); ok {
			return res, nil
		}
	}
	var zero R
	return zero, errNoMatch(subject)
}

// MustEval is Eval for matches the caller knows to be exhaustive.
func MustEval[R any](subject interface{}, arms ...Arm[R]) R {
	res, err := Eval(subject, arms...)
	if err != nil {
		panic(err)
	}
	return res
}

// Exec matches the subject against statement-mode arms. A subject no arm
// matches is not an error; Exec reports whether any arm ran.
func Exec(subject interface{}, arms ...Arm[Unit]) bool {
	for _, a := range arms {
		if _, ok := a.tryArm(subject); ok {
			return true
		}
	}
	return false
}

// Matched is a one-shot test of a single pattern against a subject, with
// binder cleanup included.
func Matched(subject interface{}, pat interface{}) bool {
	p := asPattern(pat)
	ctx := newContext()
	ok := runPattern(subject, p, 0, ctx)
	p.processID(0, idCancel)
	return ok
}

// Tuple packs several subjects into one so a multi-value scrutinee can be
// destructured with DS.
func Tuple(vs ...interface{}) interface{} {
	return vs
}
