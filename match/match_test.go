package match_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "errors"

	"github.com/funvibe/matchpack/match"
)

func TestLiteralAndWildcard(t *testing.T) {
	assert.True(t, match.Matched(42, 42))
	assert.True(t, match.Matched("hello", "hello"))
	assert.False(t, match.Matched(42, 43))
	assert.True(t, match.Matched(42, match.Any))
	assert.True(t, match.Matched(nil, match.Any))

	// Mixed numeric widths compare by value, not representation.
	assert.True(t, match.Matched(int64(42), 42))
	assert.True(t, match.Matched(uint8(42), int32(42)))
	assert.True(t, match.Matched(42.0, 42))
	assert.False(t, match.Matched(42.5, 42))
}

func TestComparisonPredicates(t *testing.T) {
	tests := []struct {
		name    string
		subject interface{}
		pattern match.Pattern
		want    bool
	}{
		{"lt match", 5, match.Lt(10), true},
		{"lt boundary", 10, match.Lt(10), false},
		{"ge boundary", 10, match.Ge(10), true},
		{"gt mixed width", int8(3), match.Gt(int64(2)), true},
		{"le float vs int", 2.5, match.Le(3), true},
		{"ne", "a", match.Ne("b"), true},
		{"eq", "a", match.Eq("a"), true},
		{"string order", "apple", match.Lt("banana"), true},
		{"unordered types", "apple", match.Lt(5), false},
		{"range", 15, match.And(match.Ge(10), match.Lt(20)), true},
		{"range below", 9, match.And(match.Ge(10), match.Lt(20)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, match.Matched(tt.subject, tt.pattern))
		})
	}
}

func TestMeetPredicate(t *testing.T) {
	even := match.Meet(func(v interface{}) bool {
		n, ok := v.(int)
		return ok && n%2 == 0
	})
	assert.True(t, match.Matched(4, even))
	assert.False(t, match.Matched(5, even))
	assert.False(t, match.Matched("four", even))
}

func TestIdBindsAndReads(t *testing.T) {
	x := match.NewId[int]("x")
	require.False(t, x.HasValue())

	got, err := match.Eval[int](7,
		match.Case(x, func() int { return x.MustValue() * 2 }),
	)
	require.NoError(t, err)
	assert.Equal(t, 14, got)

	// The engine resets binders after the arm commits.
	assert.False(t, x.HasValue())
	_, err = x.Value()
	assert.True(t, stderrors.Is(err, match.ErrUnbound))
}

func TestIdEqualityOnRebind(t *testing.T) {
	// A bound identifier matches later occurrences only against the same
	// value: DS(x, x) means "a pair of equal elements".
	x := match.NewId[int]("x")
	pairOfEqual := match.DS(x, x)
	assert.True(t, match.Matched([]interface{}{3, 3}, pairOfEqual))
	assert.False(t, match.Matched([]interface{}{3, 4}, pairOfEqual))
}

func TestDisjunctionRollsBackBindings(t *testing.T) {
	// The first alternative binds x to the full subject and then fails its
	// predicate; that binding must not leak into the second alternative.
	x := match.NewId[int]("x")
	negative := match.Meet(func(v interface{}) bool {
		n, ok := v.(int)
		return ok && n < 0
	})
	halve := func(v int) int { return v / 2 }

	got, err := match.Eval[int](10,
		match.Case(match.Or(match.And(x, negative), match.App(halve, x)), func() int {
			return x.MustValue()
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestFailedArmDoesNotLeakIntoNextArm(t *testing.T) {
	x := match.NewId[int]("x")
	got, err := match.Eval[string](3,
		match.Case(match.And(x, match.Gt(100)), func() string {
			return "big " + strings.Repeat("!", x.MustValue())
		}),
		match.Case(x, func() string {
			assert.Equal(t, 3, x.MustValue())
			return "small"
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, "small", got)
}

func TestGuard(t *testing.T) {
	x := match.NewId[int]("x")
	got, err := match.Eval[string](12,
		match.Case(x, func() string { return "even" }).When(func() bool {
			return x.MustValue()%2 == 0
		}),
		match.Case(match.Any, func() string { return "odd" }),
	)
	require.NoError(t, err)
	assert.Equal(t, "even", got)

	got, err = match.Eval[string](13,
		match.Case(x, func() string { return "even" }).When(func() bool {
			return x.MustValue()%2 == 0
		}),
		match.Case(match.Any, func() string { return "odd" }),
	)
	require.NoError(t, err)
	assert.Equal(t, "odd", got)
}

func TestEvalExhaustionIsAnError(t *testing.T) {
	_, err := match.Eval[string]("surprise",
		match.Case(1, func() string { return "one" }),
		match.Case(2, func() string { return "two" }),
	)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, match.ErrNoMatch))
}

func TestExecExhaustionIsSilent(t *testing.T) {
	ran := false
	matched := match.Exec("surprise",
		match.Do(1, func() { ran = true }),
	)
	assert.False(t, matched)
	assert.False(t, ran)

	matched = match.Exec(1,
		match.Do(1, func() { ran = true }),
	)
	assert.True(t, matched)
	assert.True(t, ran)
}

func TestDestructureFixedArity(t *testing.T) {
	a := match.NewId[int]("a")
	b := match.NewId[int]("b")

	got, err := match.Eval[int]([]interface{}{3, 4},
		match.Case(match.DS(a, b), func() int { return a.MustValue() + b.MustValue() }),
	)
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	// Arity mismatch is a failed match, not a fault.
	assert.False(t, match.Matched([]interface{}{1, 2, 3}, match.DS(a, b)))
	assert.False(t, match.Matched([]interface{}{1}, match.DS(a, b)))
	assert.False(t, match.Matched("not a sequence", match.DS(a, b)))
}

func TestDestructureTypedSlicesAndArrays(t *testing.T) {
	a := match.NewId[int]("a")
	assert.True(t, match.Matched([]int{1, 2}, match.DS(1, a)))
	assert.True(t, match.Matched([2]string{"x", "y"}, match.DS("x", "y")))
	// Strings are scalars, not sequences.
	assert.False(t, match.Matched("xy", match.DS("x", "y")))
}

func TestOooSkipsMiddle(t *testing.T) {
	pattern := match.DS(1, match.Ooo, 5)
	assert.True(t, match.Matched([]int{1, 2, 3, 4, 5}, pattern))
	assert.True(t, match.Matched([]int{1, 5}, pattern))
	assert.False(t, match.Matched([]int{1, 2, 3}, pattern))
	assert.False(t, match.Matched([]int{5}, pattern))

	// Leading and trailing positions work too.
	assert.True(t, match.Matched([]int{3, 9}, match.DS(match.Ooo, 9)))
	assert.True(t, match.Matched([]int{9}, match.DS(9, match.Ooo)))
	assert.True(t, match.Matched([]int{}, match.DS(match.Ooo)))
}

func TestRestCapturesSubrange(t *testing.T) {
	rest := match.NewId[match.Subrange]("rest")
	got, err := match.Eval[[]interface{}]([]int{1, 2, 3, 4, 5},
		match.Case(match.DS(1, match.Rest(rest), 5), func() []interface{} {
			return rest.MustValue().Values()
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{2, 3, 4}, got)

	// An empty middle still binds.
	got, err = match.Eval[[]interface{}]([]int{1, 5},
		match.Case(match.DS(1, match.Rest(rest), 5), func() []interface{} {
			return rest.MustValue().Values()
		}),
	)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNestedDestructure(t *testing.T) {
	inner := match.NewId[int]("inner")
	subject := []interface{}{1, []interface{}{2, 3}, 4}
	got, err := match.Eval[int](subject,
		match.Case(match.DS(1, match.DS(2, inner), 4), func() int {
			return inner.MustValue()
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestNestedRestMarkers(t *testing.T) {
	// One marker per DS level is allowed even when the levels nest.
	outer := match.NewId[match.Subrange]("outer")
	inner := match.NewId[match.Subrange]("inner")
	subject := []interface{}{[]interface{}{1, 2, 3}, 9, 9}
	pattern := match.DS(match.DS(1, match.Rest(inner)), match.Rest(outer))

	got, err := match.Eval[int](subject,
		match.Case(pattern, func() int {
			return inner.MustValue().Len() + outer.MustValue().Len()
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestTwoRestMarkersPanic(t *testing.T) {
	assert.Panics(t, func() {
		match.DS(match.Ooo, 1, match.Ooo)
	})
}

func TestTuple(t *testing.T) {
	op := match.NewId[string]("op")
	n := match.NewId[int]("n")
	got, err := match.Eval[int](match.Tuple("add", 2, 3),
		match.Case(match.DS("neg", n), func() int { return -n.MustValue() }),
		match.Case(match.DS(op, match.Ooo), func() int {
			assert.Equal(t, "add", op.MustValue())
			return 5
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestApp(t *testing.T) {
	length := func(s string) int { return len(s) }
	assert.True(t, match.Matched("hello", match.App(length, 5)))
	assert.False(t, match.Matched("hello", match.App(length, 4)))
	// Wrong subject type fails the projection, not the program.
	assert.False(t, match.Matched(42, match.App(length, 2)))
}

func TestAsNarrowing(t *testing.T) {
	n := match.NewId[int]("n")
	describe := func(v interface{}) (string, error) {
		return match.Eval[string](v,
			match.Case(match.As[string](match.Any), func() string { return "string" }),
			match.Case(match.As[int](n.At(match.Gt(0))), func() string { return "positive int" }),
			match.Case(match.As[int](match.Any), func() string { return "int" }),
			match.Case(match.Any, func() string { return "other" }),
		)
	}

	for subject, want := range map[interface{}]string{
		"hi":  "string",
		3:     "positive int",
		-3:    "int",
		3.5:   "other",
		false: "other",
	} {
		got, err := describe(subject)
		require.NoError(t, err)
		assert.Equal(t, want, got, "subject %v", subject)
	}
}

func TestSomeNone(t *testing.T) {
	var absent *int
	present := 5

	classify := func(v interface{}) (string, error) {
		return match.Eval[string](v,
			match.Case(match.Some(match.Gt(0)), func() string { return "positive" }),
			match.Case(match.Some(match.Any), func() string { return "present" }),
			match.Case(match.None, func() string { return "absent" }),
		)
	}

	got, err := classify(&present)
	require.NoError(t, err)
	assert.Equal(t, "positive", got)

	got, err = classify(absent)
	require.NoError(t, err)
	assert.Equal(t, "absent", got)

	got, err = classify(nil)
	require.NoError(t, err)
	assert.Equal(t, "absent", got)

	got, err = classify(0)
	require.NoError(t, err)
	assert.Equal(t, "present", got)
}

func TestNot(t *testing.T) {
	assert.True(t, match.Matched(5, match.Not(6)))
	assert.False(t, match.Matched(5, match.Not(5)))
	assert.True(t, match.Matched("zz", match.Not(match.Lt("aa"))))
}

func TestMoveOut(t *testing.T) {
	owned := match.NewId[[]byte]("owned")
	matched := match.Exec([]byte{1, 2, 3},
		match.Do(match.Any, func() {}),
	)
	require.True(t, matched)

	var captured []byte
	matched = match.Exec(interface{}([]byte{1, 2, 3}),
		match.Do(owned, func() {
			v, err := owned.MoveOut()
			require.NoError(t, err)
			captured = v
		}),
	)
	require.True(t, matched)
	assert.Equal(t, []byte{1, 2, 3}, captured)

	_, err := owned.MoveOut()
	assert.True(t, stderrors.Is(err, match.ErrUnbound))
}

func TestMoveOutOfBorrowedFails(t *testing.T) {
	subject := 42
	x := match.NewId[int]("x")
	matched := match.Exec(&subject,
		match.Do(x, func() {
			_, err := x.MoveOut()
			assert.True(t, stderrors.Is(err, match.ErrNotOwned))
			v, err := x.Value()
			require.NoError(t, err)
			assert.Equal(t, 42, v)
		}),
	)
	require.True(t, matched)
}

func TestBorrowedTracksSubject(t *testing.T) {
	subject := 1
	x := match.NewId[int]("x")
	match.Exec(&subject,
		match.Do(x, func() {
			subject = 99
			assert.Equal(t, 99, x.MustValue())
		}),
	)
}

func TestMustEvalPanicsOnExhaustion(t *testing.T) {
	assert.Panics(t, func() {
		match.MustEval[int]("nope", match.Case(1, func() int { return 1 }))
	})
}
