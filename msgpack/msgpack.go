// Package msgpack implements a MessagePack codec: a Packer that serializes
// Go values into the compact binary wire format and an Unpacker that decodes
// them back into typed destinations. Both carry a sticky error in place of
// panics or per-call error returns; callers check once at the end of a batch.
//
// Aggregates participate through the Packable interface, whose single Pack
// method serves both directions: the same field list read by a Packer is
// written by an Unpacker.
package msgpack

// Format tag bytes. The fix forms carry their payload or length inside the
// tag itself: positive fixint 0x00-0x7F, fixmap 0x80-0x8F, fixarray
// 0x90-0x9F, fixstr 0xA0-0xBF, negative fixint 0xE0-0xFF.
const (
	formatNil       = 0xC0
	formatFalse     = 0xC2
	formatTrue      = 0xC3
	formatBin8      = 0xC4
	formatBin16     = 0xC5
	formatBin32     = 0xC6
	formatFloat32   = 0xCA
	formatFloat64   = 0xCB
	formatUint8     = 0xCC
	formatUint16    = 0xCD
	formatUint32    = 0xCE
	formatUint64    = 0xCF
	formatInt8      = 0xD0
	formatInt16     = 0xD1
	formatInt32     = 0xD2
	formatInt64     = 0xD3
	formatStr8      = 0xD9
	formatStr16     = 0xDA
	formatStr32     = 0xDB
	formatArray16   = 0xDC
	formatArray32   = 0xDD
	formatMap16     = 0xDE
	formatMap32     = 0xDF
	fixmapPrefix    = 0x80
	fixarrayPrefix  = 0x90
	fixstrPrefix    = 0xA0
	negFixintPrefix = 0xE0
)

// Processor is the direction-neutral field visitor. Packer serializes the
// fields it is handed; Unpacker populates them. Packable implementations
// pass pointers so one method covers both:
//
//	func (s *Session) Pack(p msgpack.Processor) {
//		p.Process(&s.User, &s.Start, &s.Tags)
//	}
type Processor interface {
	Process(fields ...interface{})
}

// Packable is implemented by aggregates that serialize themselves field by
// field. On the wire an aggregate travels as a self-delimiting binary blob
// holding its fields' concatenated encoding, so nesting needs no schema.
type Packable interface {
	Pack(p Processor)
}

// Pack serializes one Packable and returns its encoding.
func Pack(v Packable) ([]byte, error) {
	p := NewPacker()
	v.Pack(p)
	return p.Bytes(), p.Err()
}

// Unpack decodes data into one Packable.
func Unpack(data []byte, v Packable) error {
	u := NewUnpacker(data)
	v.Pack(u)
	return u.Err()
}

// PackValue serializes a dynamic value tree: nil, bool, integers, floats,
// strings, []byte, []interface{} and map[string]interface{}.
func PackValue(v interface{}) ([]byte, error) {
	p := NewPacker()
	p.Pack(v)
	return p.Bytes(), p.Err()
}

// UnpackValue decodes one object into a dynamic value tree mirroring what
// PackValue accepts.
func UnpackValue(data []byte) (interface{}, error) {
	u := NewUnpacker(data)
	v := u.UnpackAny()
	return v, u.Err()
}
