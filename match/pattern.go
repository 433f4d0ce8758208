// Package match implements a composable, backtracking-safe pattern matching
// engine: literal and predicate patterns, conjunction/disjunction/negation,
// value-transforming patterns, named binders with depth-scoped rollback, and
// positional destructuring with a variable-length rest segment.
package match

// idProcess tells embedded binders whether the enclosing pattern matched.
type idProcess int32

const (
	idCancel idProcess = iota
	idConfirm
)

// Pattern is the uniform matching protocol. Every pattern kind answers a
// match attempt and forwards confirm/cancel notifications to any binders it
// contains. Implementations live in this package; callers compose them
// through the exported constructors.
type Pattern interface {
	matchPattern(subject interface{}, depth int32, ctx *Context) bool
	processID(depth int32, op idProcess)
}

// runPattern is the single entry point for one pattern dispatch. The
// post-dispatch processID call is unconditional: it is what keeps binding
// cells consistent across backtracking, so no caller may skip it.
func runPattern(subject interface{}, pat Pattern, depth int32, ctx *Context) bool {
	ok := pat.matchPattern(subject, depth, ctx)
	if ok {
		pat.processID(depth, idConfirm)
	} else {
		pat.processID(depth, idCancel)
	}
	return ok
}

// asPattern lifts plain Go values into literal patterns so combinators accept
// both patterns and values interchangeably.
func asPattern(v interface{}) Pattern {
	if p, ok := v.(Pattern); ok {
		return p
	}
	return literal{value: v}
}

func asPatterns(vs []interface{}) []Pattern {
	pats := make([]Pattern, len(vs))
	for i, v := range vs {
		pats[i] = asPattern(v)
	}
	return pats
}

// literal matches by equality and binds nothing.
type literal struct {
	value interface{}
}

// Value returns a literal pattern. Plain values auto-lift wherever a pattern
// is expected, so this is only needed to match a value that itself implements
// Pattern.
func Value(v interface{}) Pattern {
	return literal{value: v}
}

func (l literal) matchPattern(subject interface{}, _ int32, _ *Context) bool {
	return equalValues(l.value, subject)
}

func (l literal) processID(int32, idProcess) {}

// wildcard always matches and binds nothing.
type wildcard struct{}

// Any is the wildcard pattern.
var Any Pattern = wildcard{}

func (wildcard) matchPattern(interface{}, int32, *Context) bool { return true }

func (wildcard) processID(int32, idProcess) {}

// meet matches when the predicate holds for the subject.
type meet struct {
	pred func(interface{}) bool
}

// Meet returns a predicate pattern.
func Meet(pred func(interface{}) bool) Pattern {
	return meet{pred: pred}
}

func (m meet) matchPattern(subject interface{}, _ int32, _ *Context) bool {
	return m.pred(subject)
}

func (m meet) processID(int32, idProcess) {}

// Comparison predicates over numbers and strings. Range checks compose from
// these, e.g. And(Ge(10), Lt(20)).

// Lt matches subjects ordered strictly below v.
func Lt(v interface{}) Pattern {
	return Meet(func(subject interface{}) bool {
		c, ok := orderValues(subject, v)
		return ok && c < 0
	})
}

// Le matches subjects ordered at or below v.
func Le(v interface{}) Pattern {
	return Meet(func(subject interface{}) bool {
		c, ok := orderValues(subject, v)
		return ok && c <= 0
	})
}

// Gt matches subjects ordered strictly above v.
func Gt(v interface{}) Pattern {
	return Meet(func(subject interface{}) bool {
		c, ok := orderValues(subject, v)
		return ok && c > 0
	})
}

// Ge matches subjects ordered at or above v.
func Ge(v interface{}) Pattern {
	return Meet(func(subject interface{}) bool {
		c, ok := orderValues(subject, v)
		return ok && c >= 0
	})
}

// Eq matches subjects equal to v.
func Eq(v interface{}) Pattern {
	return Meet(func(subject interface{}) bool {
		return equalValues(subject, v)
	})
}

// Ne matches subjects not equal to v.
func Ne(v interface{}) Pattern {
	return Meet(func(subject interface{}) bool {
		return !equalValues(subject, v)
	})
}

// and matches when every sub-pattern matches the same subject, left to right,
// short-circuiting on the first failure.
type and struct {
	pats []Pattern
}

// And returns a conjunction pattern.
func And(pats ...interface{}) Pattern {
	return and{pats: asPatterns(pats)}
}

func (a and) matchPattern(subject interface{}, depth int32, ctx *Context) bool {
	for _, p := range a.pats {
		if !runPattern(subject, p, depth+1, ctx) {
			return false
		}
	}
	return true
}

func (a and) processID(depth int32, op idProcess) {
	for _, p := range a.pats {
		p.processID(depth, op)
	}
}

// or tries sub-patterns left to right. Bindings made by a failing alternative
// are rolled back by runPattern's cancel before the next alternative runs.
type or struct {
	pats []Pattern
}

// Or returns a disjunction pattern.
func Or(pats ...interface{}) Pattern {
	return or{pats: asPatterns(pats)}
}

func (o or) matchPattern(subject interface{}, depth int32, ctx *Context) bool {
	for _, p := range o.pats {
		if runPattern(subject, p, depth+1, ctx) {
			return true
		}
	}
	return false
}

func (o or) processID(depth int32, op idProcess) {
	for _, p := range o.pats {
		p.processID(depth, op)
	}
}

// not matches when the inner pattern fails. The inner pattern's bindings are
// cancelled by runPattern either way, since a negation never produces one.
type not struct {
	pat Pattern
}

// Not returns a negation pattern.
func Not(pat interface{}) Pattern {
	return not{pat: asPattern(pat)}
}

func (n not) matchPattern(subject interface{}, depth int32, ctx *Context) bool {
	return !runPattern(subject, n.pat, depth+1, ctx)
}

func (n not) processID(depth int32, op idProcess) {
	n.pat.processID(depth, op)
}

// postCheck matches the inner pattern, then requires the zero-argument
// predicate to hold. Identifiers bound by the inner pattern are visible to
// the predicate; the whole pattern's failure rolls them back as usual.
type postCheck struct {
	pat  Pattern
	pred func() bool
}

func (pc postCheck) matchPattern(subject interface{}, depth int32, ctx *Context) bool {
	return runPattern(subject, pc.pat, depth+1, ctx) && pc.pred()
}

func (pc postCheck) processID(depth int32, op idProcess) {
	pc.pat.processID(depth, op)
}
