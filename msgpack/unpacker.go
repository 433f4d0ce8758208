package msgpack

import (
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/funvibe/matchpack/match"
)

// Unpacker decodes MessagePack objects from a byte slice it does not own.
// Like the Packer it is sticky: after the first error the cursor stops
// moving and every destination is left at its zero value.
type Unpacker struct {
	data []byte
	pos  int
	err  error
}

// NewUnpacker returns an Unpacker positioned at the start of data.
func NewUnpacker(data []byte) *Unpacker {
	return &Unpacker{data: data}
}

// SetData repoints the Unpacker at new input and clears its state.
func (u *Unpacker) SetData(data []byte) {
	u.data = data
	u.pos = 0
	u.err = nil
}

// Err returns the first error encountered, or nil.
func (u *Unpacker) Err() error {
	return u.err
}

// Process implements Processor: each field must be a pointer, populated from
// the input in order.
func (u *Unpacker) Process(fields ...interface{}) {
	for _, f := range fields {
		u.unpackValue(f)
	}
}

func (u *Unpacker) fail(err error) {
	if u.err == nil {
		u.err = err
	}
}

// need reports whether n more bytes are available, failing with OutOfRange
// otherwise. The cursor does not move on failure.
func (u *Unpacker) need(n int) bool {
	if u.err != nil {
		return false
	}
	if u.pos+n > len(u.data) {
		u.fail(OutOfRange)
		return false
	}
	return true
}

func (u *Unpacker) peek() (byte, bool) {
	if !u.need(1) {
		return 0, false
	}
	return u.data[u.pos], true
}

// readUintBytes consumes n big-endian bytes. Availability must already have
// been checked.
func (u *Unpacker) readUintBytes(n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(u.data[u.pos])
		u.pos++
	}
	return v
}

func isSignedIntTag(tag byte) bool {
	return tag >= formatInt8 && tag <= formatInt64
}

func isUnsignedIntTag(tag byte) bool {
	return tag >= formatUint8 && tag <= formatUint64
}

// intWidth maps an integer tag to its payload width in bytes.
func intWidth(tag byte) (int, bool) {
	w, err := match.Eval[int](tag,
		match.Case(match.Or(formatInt64, formatUint64), func() int { return 8 }),
		match.Case(match.Or(formatInt32, formatUint32), func() int { return 4 }),
		match.Case(match.Or(formatInt16, formatUint16), func() int { return 2 }),
		match.Case(match.Or(formatInt8, formatUint8), func() int { return 1 }),
	)
	return w, err == nil
}

// readInt decodes one integer object into a signed destination of destBits.
// A payload wider than the destination is IntegerOverflow regardless of its
// value; signed payloads narrower than the destination sign-extend.
func (u *Unpacker) readInt(destBits int) int64 {
	tag, ok := u.peek()
	if !ok {
		return 0
	}
	if tag&0x80 == 0 {
		u.pos++
		return int64(tag)
	}
	if tag&0xE0 == negFixintPrefix {
		u.pos++
		return int64(int8(tag))
	}
	nbytes, ok := intWidth(tag)
	if !ok {
		u.fail(DataNotMatchType)
		return 0
	}
	if destBits < nbytes*8 {
		u.fail(IntegerOverflow)
		return 0
	}
	if !u.need(1 + nbytes) {
		return 0
	}
	u.pos++
	raw := u.readUintBytes(nbytes)
	if isSignedIntTag(tag) {
		shift := uint(64 - nbytes*8)
		return int64(raw<<shift) >> shift
	}
	if nbytes == 8 && raw > math.MaxInt64 {
		u.fail(IntegerOverflow)
		return 0
	}
	return int64(raw)
}

// readUint decodes one integer object into an unsigned destination. Negative
// data is DataNotMatchType rather than a reinterpreted bit pattern.
func (u *Unpacker) readUint(destBits int) uint64 {
	tag, ok := u.peek()
	if !ok {
		return 0
	}
	if tag&0x80 == 0 {
		u.pos++
		return uint64(tag)
	}
	if tag&0xE0 == negFixintPrefix {
		u.fail(DataNotMatchType)
		return 0
	}
	nbytes, ok := intWidth(tag)
	if !ok {
		u.fail(DataNotMatchType)
		return 0
	}
	if destBits < nbytes*8 {
		u.fail(IntegerOverflow)
		return 0
	}
	if !u.need(1 + nbytes) {
		return 0
	}
	u.pos++
	raw := u.readUintBytes(nbytes)
	if isSignedIntTag(tag) {
		shift := uint(64 - nbytes*8)
		signed := int64(raw<<shift) >> shift
		if signed < 0 {
			u.fail(DataNotMatchType)
			return 0
		}
		return uint64(signed)
	}
	return raw
}

// UnpackNil consumes a nil object.
func (u *Unpacker) UnpackNil() {
	tag, ok := u.peek()
	if !ok {
		return
	}
	if tag != formatNil {
		u.fail(DataNotMatchType)
		return
	}
	u.pos++
}

// UnpackBool consumes a boolean object.
func (u *Unpacker) UnpackBool() bool {
	tag, ok := u.peek()
	if !ok {
		return false
	}
	switch tag {
	case formatTrue:
		u.pos++
		return true
	case formatFalse:
		u.pos++
		return false
	}
	u.fail(DataNotMatchType)
	return false
}

// readBlobSize consumes a str or bin header and returns the payload length.
func (u *Unpacker) readBlobSize() int {
	tag, ok := u.peek()
	if !ok {
		return 0
	}
	if tag&0xE0 == fixstrPrefix {
		u.pos++
		return int(tag & 0x1F)
	}
	nbytes, err := match.Eval[int](tag,
		match.Case(match.Or(formatStr32, formatBin32), func() int { return 4 }),
		match.Case(match.Or(formatStr16, formatBin16), func() int { return 2 }),
		match.Case(match.Or(formatStr8, formatBin8), func() int { return 1 }),
	)
	if err != nil {
		u.fail(DataNotMatchType)
		return 0
	}
	if !u.need(1 + nbytes) {
		return 0
	}
	u.pos++
	return int(u.readUintBytes(nbytes))
}

// UnpackString consumes a string object. Binary headers are accepted too:
// the two families share a payload shape.
func (u *Unpacker) UnpackString() string {
	size := u.readBlobSize()
	if !u.need(size) {
		return ""
	}
	s := string(u.data[u.pos : u.pos+size])
	u.pos += size
	return s
}

// UnpackBinary consumes a binary object into a fresh slice.
func (u *Unpacker) UnpackBinary() []byte {
	size := u.readBlobSize()
	if !u.need(size) {
		return nil
	}
	b := make([]byte, size)
	copy(b, u.data[u.pos:u.pos+size])
	u.pos += size
	return b
}

// readContainerSize consumes an array or map header, selected by wantMap.
func (u *Unpacker) readContainerSize(wantMap bool) int {
	tag, ok := u.peek()
	if !ok {
		return 0
	}
	fixPrefix := byte(fixarrayPrefix)
	tag16, tag32 := byte(formatArray16), byte(formatArray32)
	if wantMap {
		fixPrefix = fixmapPrefix
		tag16, tag32 = formatMap16, formatMap32
	}
	if tag&0xF0 == fixPrefix {
		u.pos++
		return int(tag & 0x0F)
	}
	nbytes, err := match.Eval[int](tag,
		match.Case(tag32, func() int { return 4 }),
		match.Case(tag16, func() int { return 2 }),
	)
	if err != nil {
		u.fail(DataNotMatchType)
		return 0
	}
	if !u.need(1 + nbytes) {
		return 0
	}
	u.pos++
	return int(u.readUintBytes(nbytes))
}

// readFloat decodes one floating point object. The payload width follows the
// tag, not the destination; integer-tagged data converts as a fallback.
func (u *Unpacker) readFloat() float64 {
	tag, ok := u.peek()
	if !ok {
		return 0
	}
	switch tag {
	case formatFloat64:
		if !u.need(9) {
			return 0
		}
		u.pos++
		return decodeFloat64(u.readUintBytes(8))
	case formatFloat32:
		if !u.need(5) {
			return 0
		}
		u.pos++
		return decodeFloat32(uint32(u.readUintBytes(4)))
	}
	return float64(u.readInt(64))
}

// UnpackAny decodes the next object into a dynamic value tree: nil, bool,
// int64, uint64, float64, string, []byte, []interface{} or
// map[string]interface{}.
func (u *Unpacker) UnpackAny() interface{} {
	tag, ok := u.peek()
	if !ok {
		return nil
	}
	switch {
	case tag == formatNil:
		u.pos++
		return nil
	case tag == formatTrue, tag == formatFalse:
		return u.UnpackBool()
	case tag&0x80 == 0, tag&0xE0 == negFixintPrefix, isSignedIntTag(tag):
		return u.readInt(64)
	case isUnsignedIntTag(tag):
		return u.readUint(64)
	case tag == formatFloat32, tag == formatFloat64:
		return u.readFloat()
	case tag&0xE0 == fixstrPrefix, tag == formatStr8, tag == formatStr16, tag == formatStr32:
		return u.UnpackString()
	case tag == formatBin8, tag == formatBin16, tag == formatBin32:
		return u.UnpackBinary()
	case tag&0xF0 == fixarrayPrefix, tag == formatArray16, tag == formatArray32:
		size := u.readContainerSize(false)
		out := make([]interface{}, 0, minInt(size, 1024))
		for i := 0; i < size && u.err == nil; i++ {
			out = append(out, u.UnpackAny())
		}
		return out
	case tag&0xF0 == fixmapPrefix, tag == formatMap16, tag == formatMap32:
		size := u.readContainerSize(true)
		out := make(map[string]interface{}, minInt(size, 1024))
		for i := 0; i < size && u.err == nil; i++ {
			key, isString := u.UnpackAny().(string)
			if u.err != nil {
				break
			}
			if !isString {
				u.fail(DataNotMatchType)
				break
			}
			out[key] = u.UnpackAny()
		}
		return out
	}
	u.fail(DataNotMatchType)
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (u *Unpacker) unpackValue(dest interface{}) {
	if u.err != nil {
		return
	}
	switch d := dest.(type) {
	case *bool:
		*d = u.UnpackBool()
	case *int:
		*d = int(u.readInt(strconv.IntSize))
	case *int8:
		*d = int8(u.readInt(8))
	case *int16:
		*d = int16(u.readInt(16))
	case *int32:
		*d = int32(u.readInt(32))
	case *int64:
		*d = u.readInt(64)
	case *uint:
		*d = uint(u.readUint(strconv.IntSize))
	case *uint8:
		*d = uint8(u.readUint(8))
	case *uint16:
		*d = uint16(u.readUint(16))
	case *uint32:
		*d = uint32(u.readUint(32))
	case *uint64:
		*d = u.readUint(64)
	case *float32:
		*d = float32(u.readFloat())
	case *float64:
		*d = u.readFloat()
	case *string:
		*d = u.UnpackString()
	case *[]byte:
		*d = u.UnpackBinary()
	case *time.Time:
		*d = time.Unix(0, u.readInt(64))
	case *interface{}:
		*d = u.UnpackAny()
	case *[]interface{}:
		size := u.readContainerSize(false)
		out := make([]interface{}, 0, minInt(size, 1024))
		for i := 0; i < size && u.err == nil; i++ {
			out = append(out, u.UnpackAny())
		}
		*d = out
	case *map[string]interface{}:
		v, isMap := u.UnpackAny().(map[string]interface{})
		if u.err == nil && !isMap {
			u.fail(DataNotMatchType)
			return
		}
		*d = v
	case Packable:
		u.unpackNested(d)
	default:
		u.unpackReflected(dest)
	}
}

// unpackNested reads the aggregate's binary blob and replays its fields
// through a child Unpacker.
func (u *Unpacker) unpackNested(dest Packable) {
	blob := u.UnpackBinary()
	if u.err != nil {
		return
	}
	nested := NewUnpacker(blob)
	dest.Pack(nested)
	if nested.err != nil {
		u.fail(nested.err)
	}
}

// unpackReflected covers typed slice, fixed-size array and map destinations.
func (u *Unpacker) unpackReflected(dest interface{}) {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		u.fail(DataNotMatchType)
		return
	}
	elem := rv.Elem()
	switch elem.Kind() {
	case reflect.Slice:
		size := u.readContainerSize(false)
		if u.err != nil {
			return
		}
		out := reflect.MakeSlice(elem.Type(), size, size)
		for i := 0; i < size && u.err == nil; i++ {
			u.unpackValue(out.Index(i).Addr().Interface())
		}
		if u.err == nil {
			elem.Set(out)
		}
	case reflect.Array:
		size := u.readContainerSize(false)
		if u.err != nil {
			return
		}
		if size != elem.Len() {
			u.fail(BadStdArraySize)
			return
		}
		for i := 0; i < size && u.err == nil; i++ {
			u.unpackValue(elem.Index(i).Addr().Interface())
		}
	case reflect.Map:
		size := u.readContainerSize(true)
		if u.err != nil {
			return
		}
		out := reflect.MakeMapWithSize(elem.Type(), size)
		for i := 0; i < size && u.err == nil; i++ {
			key := reflect.New(elem.Type().Key())
			val := reflect.New(elem.Type().Elem())
			u.unpackValue(key.Interface())
			u.unpackValue(val.Interface())
			if u.err == nil {
				out.SetMapIndex(key.Elem(), val.Elem())
			}
		}
		if u.err == nil {
			elem.Set(out)
		}
	default:
		u.fail(DataNotMatchType)
	}
}

// decodeFloat64 rebuilds the value arithmetically: each set mantissa bit
// contributes its negative power of two, then Ldexp applies the unbiased
// exponent.
func decodeFloat64(bits uint64) float64 {
	sign := bits>>63 == 1
	expBits := int(bits >> 52 & 0x7FF)
	mantBits := bits & (1<<52 - 1)
	if expBits == 0x7FF {
		if mantBits != 0 {
			return math.NaN()
		}
		if sign {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	mantissa := 1.0
	for i := 52; i > 0; i-- {
		if mantBits>>(i-1)&1 == 1 {
			mantissa += 1.0 / float64(uint64(1)<<(53-i))
		}
	}
	if sign {
		mantissa = -mantissa
	}
	return math.Ldexp(mantissa, expBits-1023)
}

func decodeFloat32(bits uint32) float64 {
	sign := bits>>31 == 1
	expBits := int(bits >> 23 & 0xFF)
	mantBits := bits & (1<<23 - 1)
	if expBits == 0xFF {
		if mantBits != 0 {
			return math.NaN()
		}
		if sign {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	mantissa := 1.0
	for i := 23; i > 0; i-- {
		if mantBits>>(i-1)&1 == 1 {
			mantissa += 1.0 / float64(uint32(1)<<(24-i))
		}
	}
	if sign {
		mantissa = -mantissa
	}
	return math.Ldexp(mantissa, expBits-127)
}
