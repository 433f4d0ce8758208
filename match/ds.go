package match

import (
	"reflect"
)

// Sequence is the minimal positional view destructuring works over. Slices
// and arrays satisfy it implicitly through asSequence; callers with custom
// containers can implement it directly.
type Sequence interface {
	Len() int
	At(i int) interface{}
}

type sliceSeq []interface{}

func (s sliceSeq) Len() int             { return len(s) }
func (s sliceSeq) At(i int) interface{} { return s[i] }

type reflectSeq struct {
	v reflect.Value
}

func (s reflectSeq) Len() int             { return s.v.Len() }
func (s reflectSeq) At(i int) interface{} { return s.v.Index(i).Interface() }

// Subrange is a non-owning window over a Sequence, produced when a Rest
// marker captures the variable-length middle of a destructured subject.
type Subrange struct {
	seq Sequence
	lo  int
	hi  int
}

// NewSubrange builds a window over [lo, hi) of seq.
func NewSubrange(seq Sequence, lo, hi int) Subrange {
	return Subrange{seq: seq, lo: lo, hi: hi}
}

func (s Subrange) Len() int {
	return s.hi - s.lo
}

func (s Subrange) At(i int) interface{} {
	return s.seq.At(s.lo + i)
}

// Values copies the window out into a fresh slice.
func (s Subrange) Values() []interface{} {
	out := make([]interface{}, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		out = append(out, s.At(i))
	}
	return out
}

// asSequence adapts a subject to positional access. Strings deliberately do
// not destructure; match them as scalar values instead.
func asSequence(subject interface{}) (Sequence, bool) {
	switch v := subject.(type) {
	case nil:
		return nil, false
	case []interface{}:
		return sliceSeq(v), true
	case Subrange:
		return v, true
	case Sequence:
		return v, true
	}
	rv := reflect.ValueOf(subject)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return reflectSeq{v: rv}, true
	}
	return nil, false
}

// oooPattern is the "zero or more elements here" marker inside DS. With a
// binder attached it also captures the spanned elements as a Subrange.
type oooPattern struct {
	binder Pattern
}

// Ooo matches any run of elements at its position in a DS pattern without
// capturing them.
var Ooo Pattern = oooPattern{}

// Rest is Ooo with capture: the spanned elements bind to id as a Subrange.
func Rest(id *Id[Subrange]) Pattern {
	return oooPattern{binder: id}
}

// Used outside DS an ooo marker degenerates to a wildcard.
func (o oooPattern) matchPattern(subject interface{}, depth int32, ctx *Context) bool {
	if o.binder != nil {
		return runPattern(subject, o.binder, depth, ctx)
	}
	return true
}

func (o oooPattern) processID(depth int32, op idProcess) {
	if o.binder != nil {
		o.binder.processID(depth, op)
	}
}

type dsPattern struct {
	pats   []Pattern
	oooIdx int
}

// DS destructures a sequence positionally. At most one Ooo/Rest marker may
// appear; a second one panics at pattern construction time.
func DS(pats ...interface{}) Pattern {
	d := dsPattern{pats: asPatterns(pats), oooIdx: -1}
	for i, p := range d.pats {
		if _, ok := p.(oooPattern); ok {
			if d.oooIdx >= 0 {
				panic("match: DS accepts at most one Ooo/Rest marker")
			}
			d.oooIdx = i
		}
	}
	return d
}

func (d dsPattern) matchPattern(subject interface{}, depth int32, ctx *Context) bool {
	seq, ok := asSequence(subject)
	if !ok {
		return false
	}
	n := len(d.pats)
	l := seq.Len()

	if d.oooIdx < 0 {
		if l != n {
			return false
		}
		for i, p := range d.pats {
			if !runPattern(seq.At(i), p, depth+1, ctx) {
				return false
			}
		}
		return true
	}

	if l < n-1 {
		return false
	}
	restLen := l - (n - 1)
	k := d.oooIdx
	for i := 0; i < k; i++ {
		if !runPattern(seq.At(i), d.pats[i], depth+1, ctx) {
			return false
		}
	}
	// The rest binder sees the subrange at the enclosing depth so that it
	// survives as long as sibling bindings do.
	marker := d.pats[k].(oooPattern)
	if marker.binder != nil {
		sub := NewSubrange(seq, k, k+restLen)
		if !runPattern(sub, marker.binder, depth, ctx) {
			return false
		}
	}
	for j := k + 1; j < n; j++ {
		if !runPattern(seq.At(l-n+j), d.pats[j], depth+1, ctx) {
			return false
		}
	}
	return true
}

func (d dsPattern) processID(depth int32, op idProcess) {
	for _, p := range d.pats {
		if _, ok := p.(oooPattern); ok {
			p.processID(depth, op)
			continue
		}
		p.processID(depth+1, op)
	}
}
