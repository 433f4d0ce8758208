package msgpack

import (
	"bytes"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/funvibe/matchpack/match"
)

// Packer accumulates the encoding of a sequence of values. The first failure
// makes it sticky: subsequent calls do nothing, and Err reports the failure
// after the batch.
type Packer struct {
	buf bytes.Buffer
	err error
}

// NewPacker returns an empty Packer.
func NewPacker() *Packer {
	return &Packer{}
}

// Bytes returns the serialized output accumulated so far.
func (p *Packer) Bytes() []byte {
	return p.buf.Bytes()
}

// Err returns the first error encountered, or nil.
func (p *Packer) Err() error {
	return p.err
}

// Reset discards the buffer and clears any sticky error.
func (p *Packer) Reset() {
	p.buf.Reset()
	p.err = nil
}

// Pack serializes each value in order. See PackValue for the accepted types.
func (p *Packer) Pack(values ...interface{}) {
	for _, v := range values {
		p.packValue(v)
	}
}

// Process implements Processor. Packable aggregates pass pointers to their
// fields; the Packer dereferences and serializes them.
func (p *Packer) Process(fields ...interface{}) {
	p.Pack(fields...)
}

func (p *Packer) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *Packer) writeByte(b byte) {
	p.buf.WriteByte(b)
}

// writeUintBytes appends the low n bytes of v, big-endian.
func (p *Packer) writeUintBytes(v uint64, n int) {
	for i := n; i > 0; i-- {
		p.buf.WriteByte(byte(v >> (8 * (i - 1))))
	}
}

// PackNil appends the nil object.
func (p *Packer) PackNil() {
	if p.err != nil {
		return
	}
	p.writeByte(formatNil)
}

// PackBool appends a boolean object.
func (p *Packer) PackBool(v bool) {
	if p.err != nil {
		return
	}
	if v {
		p.writeByte(formatTrue)
	} else {
		p.writeByte(formatFalse)
	}
}

// PackInt appends a signed integer in its shortest encoding: fixint where
// the value allows it, then the narrowest of int8/16/32/64 whose range
// contains the value.
func (p *Packer) PackInt(v int64) {
	if p.err != nil {
		return
	}
	match.Exec(v,
		match.Do(match.And(match.Ge(-32), match.Le(127)), func() {
			p.writeByte(byte(v))
		}),
		match.Do(match.And(match.Ge(math.MinInt8), match.Le(math.MaxInt8)), func() {
			p.writeByte(formatInt8)
			p.writeUintBytes(uint64(v), 1)
		}),
		match.Do(match.And(match.Ge(math.MinInt16), match.Le(math.MaxInt16)), func() {
			p.writeByte(formatInt16)
			p.writeUintBytes(uint64(v), 2)
		}),
		match.Do(match.And(match.Ge(math.MinInt32), match.Le(math.MaxInt32)), func() {
			p.writeByte(formatInt32)
			p.writeUintBytes(uint64(v), 4)
		}),
		match.Do(match.Any, func() {
			p.writeByte(formatInt64)
			p.writeUintBytes(uint64(v), 8)
		}),
	)
}

// PackUint appends an unsigned integer in its shortest encoding.
func (p *Packer) PackUint(v uint64) {
	if p.err != nil {
		return
	}
	match.Exec(v,
		match.Do(match.Le(127), func() {
			p.writeByte(byte(v))
		}),
		match.Do(match.Le(math.MaxUint8), func() {
			p.writeByte(formatUint8)
			p.writeUintBytes(v, 1)
		}),
		match.Do(match.Le(math.MaxUint16), func() {
			p.writeByte(formatUint16)
			p.writeUintBytes(v, 2)
		}),
		match.Do(match.Le(math.MaxUint32), func() {
			p.writeByte(formatUint32)
			p.writeUintBytes(v, 4)
		}),
		match.Do(match.Any, func() {
			p.writeByte(formatUint64)
			p.writeUintBytes(v, 8)
		}),
	)
}

// PackFloat64 appends a floating point object. Integral values re-enter the
// integer path and take its shorter encodings; everything else is stored as
// an IEEE-754 binary64 assembled digit by digit from sign, exponent and
// mantissa.
func (p *Packer) PackFloat64(v float64) {
	if p.err != nil {
		return
	}
	if integral, frac := math.Modf(v); frac == 0 &&
		!math.IsInf(v, 0) &&
		integral >= math.MinInt64 && integral < math.MaxInt64 {
		p.PackInt(int64(integral))
		return
	}
	p.writeByte(formatFloat64)
	p.writeUintBytes(ieee754Bits64(v), 8)
}

// PackFloat32 appends a floating point object in binary32 when the value is
// not integral.
func (p *Packer) PackFloat32(v float32) {
	if p.err != nil {
		return
	}
	if integral, frac := math.Modf(float64(v)); frac == 0 &&
		!math.IsInf(float64(v), 0) &&
		integral >= math.MinInt64 && integral < math.MaxInt64 {
		p.PackInt(int64(integral))
		return
	}
	p.writeByte(formatFloat32)
	p.writeUintBytes(uint64(ieee754Bits32(v)), 4)
}

// PackString appends a UTF-8 string object: fixstr below 32 bytes, then
// str8/16/32 by length.
func (p *Packer) PackString(s string) {
	if p.err != nil {
		return
	}
	n := len(s)
	match.Exec(n,
		match.Do(match.Lt(32), func() {
			p.writeByte(fixstrPrefix | byte(n))
		}),
		match.Do(match.Le(math.MaxUint8), func() {
			p.writeByte(formatStr8)
			p.writeUintBytes(uint64(n), 1)
		}),
		match.Do(match.Le(math.MaxUint16), func() {
			p.writeByte(formatStr16)
			p.writeUintBytes(uint64(n), 2)
		}),
		match.Do(match.Le(uint64(math.MaxUint32)), func() {
			p.writeByte(formatStr32)
			p.writeUintBytes(uint64(n), 4)
		}),
		match.Do(match.Any, func() {
			p.fail(LengthError)
		}),
	)
	if p.err != nil {
		return
	}
	p.buf.WriteString(s)
}

// PackBinary appends a raw byte blob: bin8/16/32 by length, no fix form.
func (p *Packer) PackBinary(b []byte) {
	if p.err != nil {
		return
	}
	n := len(b)
	match.Exec(n,
		match.Do(match.Le(math.MaxUint8), func() {
			p.writeByte(formatBin8)
			p.writeUintBytes(uint64(n), 1)
		}),
		match.Do(match.Le(math.MaxUint16), func() {
			p.writeByte(formatBin16)
			p.writeUintBytes(uint64(n), 2)
		}),
		match.Do(match.Le(uint64(math.MaxUint32)), func() {
			p.writeByte(formatBin32)
			p.writeUintBytes(uint64(n), 4)
		}),
		match.Do(match.Any, func() {
			p.fail(LengthError)
		}),
	)
	if p.err != nil {
		return
	}
	p.buf.Write(b)
}

// PackArrayHeader appends an array header; the caller packs the n elements
// that follow.
func (p *Packer) PackArrayHeader(n int) {
	if p.err != nil {
		return
	}
	match.Exec(n,
		match.Do(match.Lt(16), func() {
			p.writeByte(fixarrayPrefix | byte(n))
		}),
		match.Do(match.Le(math.MaxUint16), func() {
			p.writeByte(formatArray16)
			p.writeUintBytes(uint64(n), 2)
		}),
		match.Do(match.Le(uint64(math.MaxUint32)), func() {
			p.writeByte(formatArray32)
			p.writeUintBytes(uint64(n), 4)
		}),
		match.Do(match.Any, func() {
			p.fail(LengthError)
		}),
	)
}

// PackMapHeader appends a map header; the caller packs the n key/value pairs
// that follow.
func (p *Packer) PackMapHeader(n int) {
	if p.err != nil {
		return
	}
	match.Exec(n,
		match.Do(match.Lt(16), func() {
			p.writeByte(fixmapPrefix | byte(n))
		}),
		match.Do(match.Le(math.MaxUint16), func() {
			p.writeByte(formatMap16)
			p.writeUintBytes(uint64(n), 2)
		}),
		match.Do(match.Le(uint64(math.MaxUint32)), func() {
			p.writeByte(formatMap32)
			p.writeUintBytes(uint64(n), 4)
		}),
		match.Do(match.Any, func() {
			p.fail(LengthError)
		}),
	)
}

// PackTime appends a time value as its nanosecond tick count since the Unix
// epoch.
func (p *Packer) PackTime(t time.Time) {
	p.PackInt(t.UnixNano())
}

// PackValue serializes one dynamic value.
func (p *Packer) PackValue(v interface{}) {
	p.packValue(v)
}

func (p *Packer) packValue(value interface{}) {
	if p.err != nil {
		return
	}
	switch v := value.(type) {
	case nil:
		p.PackNil()
	case bool:
		p.PackBool(v)
	case int:
		p.PackInt(int64(v))
	case int8:
		p.PackInt(int64(v))
	case int16:
		p.PackInt(int64(v))
	case int32:
		p.PackInt(int64(v))
	case int64:
		p.PackInt(v)
	case uint:
		p.PackUint(uint64(v))
	case uint8:
		p.PackUint(uint64(v))
	case uint16:
		p.PackUint(uint64(v))
	case uint32:
		p.PackUint(uint64(v))
	case uint64:
		p.PackUint(v)
	case float32:
		p.PackFloat32(v)
	case float64:
		p.PackFloat64(v)
	case string:
		p.PackString(v)
	case []byte:
		p.PackBinary(v)
	case time.Time:
		p.PackTime(v)
	case []interface{}:
		p.PackArrayHeader(len(v))
		for _, el := range v {
			p.packValue(el)
		}
	case map[string]interface{}:
		// Keys are sorted so equal maps encode identically.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		p.PackMapHeader(len(v))
		for _, k := range keys {
			p.PackString(k)
			p.packValue(v[k])
		}
	case Packable:
		p.packNested(v)
	default:
		p.packReflected(value)
	}
}

// packNested serializes an aggregate into its own buffer and embeds the
// result as a binary blob, keeping it self-delimiting on the wire.
func (p *Packer) packNested(v Packable) {
	nested := NewPacker()
	v.Pack(nested)
	if nested.err != nil {
		p.fail(nested.err)
		return
	}
	p.PackBinary(nested.Bytes())
}

// packReflected covers pointers and the typed slices, arrays and maps the
// fast-path switch does not enumerate.
func (p *Packer) packReflected(value interface{}) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			p.PackNil()
			return
		}
		p.packValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		p.PackArrayHeader(rv.Len())
		for i := 0; i < rv.Len(); i++ {
			p.packValue(rv.Index(i).Interface())
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			p.fail(UnsupportedType)
			return
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		p.PackMapHeader(rv.Len())
		for _, k := range keys {
			p.PackString(k)
			p.packValue(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
		}
	default:
		p.fail(UnsupportedType)
	}
}

// ieee754Bits64 assembles the binary64 representation arithmetically: the
// exponent comes from Ilogb, the 52 mantissa bits from repeated doubling of
// the implied fraction.
func ieee754Bits64(v float64) uint64 {
	var bits uint64
	if math.Signbit(v) {
		bits = 1 << 63
	}
	if math.IsInf(v, 0) {
		return bits | 0x7FF<<52
	}
	if math.IsNaN(v) {
		return bits | 0x7FF<<52 | 1<<51
	}
	exponent := math.Ilogb(v)
	implied := math.Abs(v/math.Ldexp(1, exponent)) - 1
	var mantissa uint64
	for i := 52; i > 0; i-- {
		implied *= 2
		integral, frac := math.Modf(implied)
		implied = frac
		if integral == 1 {
			mantissa |= uint64(1) << (i - 1)
		}
	}
	return bits | uint64(exponent+1023)<<52 | mantissa
}

func ieee754Bits32(v float32) uint32 {
	var bits uint32
	if math.Signbit(float64(v)) {
		bits = 1 << 31
	}
	if math.IsInf(float64(v), 0) {
		return bits | 0xFF<<23
	}
	if v != v {
		return bits | 0xFF<<23 | 1<<22
	}
	exponent := math.Ilogb(float64(v))
	implied := math.Abs(float64(v)/math.Ldexp(1, exponent)) - 1
	var mantissa uint32
	for i := 23; i > 0; i-- {
		implied *= 2
		integral, frac := math.Modf(implied)
		implied = frac
		if integral == 1 {
			mantissa |= uint32(1) << (i - 1)
		}
	}
	return bits | uint32(exponent+127)<<23 | mantissa
}
