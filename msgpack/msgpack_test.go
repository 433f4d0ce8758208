package msgpack

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The canonical example from the MessagePack spec: {"compact":true,
// "schema":false} in 18 bytes.
var compactSchema = []byte{
	0x82,
	0xA7, 'c', 'o', 'm', 'p', 'a', 'c', 't', 0xC3,
	0xA6, 's', 'c', 'h', 'e', 'm', 'a', 0xC2,
}

func TestCompactSchemaExample(t *testing.T) {
	data, err := PackValue(map[string]interface{}{
		"compact": true,
		"schema":  false,
	})
	require.NoError(t, err)
	assert.Equal(t, compactSchema, data)

	v, err := UnpackValue(compactSchema)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"compact": true, "schema": false}, v)
}

func TestTruncatedInputIsSafe(t *testing.T) {
	for cut := 1; cut < len(compactSchema); cut++ {
		_, err := UnpackValue(compactSchema[:cut])
		assert.ErrorIs(t, err, OutOfRange, "cut at %d", cut)
	}
}

func TestShortestIntegerEncoding(t *testing.T) {
	tests := []struct {
		name string
		pack func(p *Packer)
		want []byte
	}{
		{"zero", func(p *Packer) { p.PackInt(0) }, []byte{0x00}},
		{"pos fixint max", func(p *Packer) { p.PackInt(127) }, []byte{0x7F}},
		{"neg fixint min", func(p *Packer) { p.PackInt(-32) }, []byte{0xE0}},
		{"minus one", func(p *Packer) { p.PackInt(-1) }, []byte{0xFF}},
		{"int8", func(p *Packer) { p.PackInt(-33) }, []byte{0xD0, 0xDF}},
		{"int8 min", func(p *Packer) { p.PackInt(-128) }, []byte{0xD0, 0x80}},
		{"int16 from positive", func(p *Packer) { p.PackInt(128) }, []byte{0xD1, 0x00, 0x80}},
		{"int16 negative", func(p *Packer) { p.PackInt(-129) }, []byte{0xD1, 0xFF, 0x7F}},
		{"int16 max", func(p *Packer) { p.PackInt(32767) }, []byte{0xD1, 0x7F, 0xFF}},
		{"int32", func(p *Packer) { p.PackInt(-40000) }, []byte{0xD2, 0xFF, 0xFF, 0x63, 0xC0}},
		{"int64", func(p *Packer) { p.PackInt(1 << 40) }, []byte{0xD3, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"uint fixint", func(p *Packer) { p.PackUint(127) }, []byte{0x7F}},
		{"uint8", func(p *Packer) { p.PackUint(255) }, []byte{0xCC, 0xFF}},
		{"uint16", func(p *Packer) { p.PackUint(256) }, []byte{0xCD, 0x01, 0x00}},
		{"uint32", func(p *Packer) { p.PackUint(1 << 16) }, []byte{0xCE, 0x00, 0x01, 0x00, 0x00}},
		{"uint64", func(p *Packer) { p.PackUint(1 << 32) }, []byte{0xCF, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPacker()
			tt.pack(p)
			require.NoError(t, p.Err())
			assert.Equal(t, tt.want, p.Bytes())
		})
	}
}

func TestSignExtensionOnDecode(t *testing.T) {
	// -5 encoded as int32; a wider destination must see -5, not a
	// zero-extended bit pattern.
	data := []byte{0xD2, 0xFF, 0xFF, 0xFF, 0xFB}
	var v int64
	u := NewUnpacker(data)
	u.Process(&v)
	require.NoError(t, u.Err())
	assert.Equal(t, int64(-5), v)
}

func TestIntegerOverflowByWidth(t *testing.T) {
	// An int32 payload does not fit an int16 destination even when the
	// value itself would.
	data := []byte{0xD2, 0x00, 0x00, 0x00, 0x05}
	var v int16
	u := NewUnpacker(data)
	u.Process(&v)
	assert.ErrorIs(t, u.Err(), IntegerOverflow)
	assert.Zero(t, v)
}

func TestNegativeIntoUnsigned(t *testing.T) {
	var v uint64

	u := NewUnpacker([]byte{0xFF}) // -1 as negative fixint
	u.Process(&v)
	assert.ErrorIs(t, u.Err(), DataNotMatchType)

	u = NewUnpacker([]byte{0xD0, 0xFB}) // -5 as int8
	u.Process(&v)
	assert.ErrorIs(t, u.Err(), DataNotMatchType)

	// A non-negative value under a signed tag is fine.
	u = NewUnpacker([]byte{0xD1, 0x01, 0x00})
	u.Process(&v)
	require.NoError(t, u.Err())
	assert.Equal(t, uint64(256), v)
}

func TestWrongTagForDestination(t *testing.T) {
	var b bool
	u := NewUnpacker([]byte{0x05})
	u.Process(&b)
	assert.ErrorIs(t, u.Err(), DataNotMatchType)

	var s string
	u = NewUnpacker([]byte{0xC3})
	u.Process(&s)
	assert.ErrorIs(t, u.Err(), DataNotMatchType)

	var n int
	u = NewUnpacker([]byte{0xA1, 'x'})
	u.Process(&n)
	assert.ErrorIs(t, u.Err(), DataNotMatchType)
}

func TestStickyErrorStopsEverything(t *testing.T) {
	u := NewUnpacker([]byte{0x05})
	var a, b int
	u.Process(&a, &b)
	assert.ErrorIs(t, u.Err(), OutOfRange)
	assert.Equal(t, 5, a)
	assert.Zero(t, b)

	pos := u.pos
	var c int
	u.Process(&c)
	assert.Zero(t, c)
	assert.Equal(t, pos, u.pos)
	assert.ErrorIs(t, u.Err(), OutOfRange)

	p := NewPacker()
	p.PackString(string(make([]byte, 40)))
	n := len(p.Bytes())
	p.err = LengthError
	p.PackInt(7)
	assert.Len(t, p.Bytes(), n)
}

func TestScalarRoundTrip(t *testing.T) {
	p := NewPacker()
	p.Pack(nil, true, int64(-1234567), uint32(987654), 3.25, "hello καλημέρα", []byte{0, 1, 2})
	require.NoError(t, p.Err())

	u := NewUnpacker(p.Bytes())
	var (
		b   bool
		i   int64
		u32 uint32
		f   float64
		s   string
		raw []byte
	)
	u.UnpackNil()
	u.Process(&b, &i, &u32, &f, &s, &raw)
	require.NoError(t, u.Err())
	assert.True(t, b)
	assert.Equal(t, int64(-1234567), i)
	assert.Equal(t, uint32(987654), u32)
	assert.Equal(t, 3.25, f)
	assert.Equal(t, "hello καλημέρα", s)
	assert.Equal(t, []byte{0, 1, 2}, raw)
}

func TestStringTiers(t *testing.T) {
	p := NewPacker()
	p.PackString(string(make([]byte, 31)))
	assert.Equal(t, byte(0xBF), p.Bytes()[0])

	p.Reset()
	p.PackString(string(make([]byte, 32)))
	assert.Equal(t, []byte{0xD9, 32}, p.Bytes()[:2])

	p.Reset()
	p.PackString(string(make([]byte, 300)))
	assert.Equal(t, []byte{0xDA, 0x01, 0x2C}, p.Bytes()[:3])
}

func TestFloatEncoding(t *testing.T) {
	// Integral floats take the integer path.
	p := NewPacker()
	p.PackFloat64(42.0)
	assert.Equal(t, []byte{0x2A}, p.Bytes())

	p.Reset()
	p.PackFloat32(2.5)
	assert.Equal(t, []byte{0xCA, 0x40, 0x20, 0x00, 0x00}, p.Bytes())

	p.Reset()
	p.PackFloat64(3.25)
	require.NoError(t, p.Err())
	var f float64
	u := NewUnpacker(p.Bytes())
	u.Process(&f)
	require.NoError(t, u.Err())
	assert.Equal(t, 3.25, f)

	// A float destination accepts integer-tagged data.
	var g float64
	u = NewUnpacker([]byte{0xD0, 0xFB})
	u.Process(&g)
	require.NoError(t, u.Err())
	assert.Equal(t, -5.0, g)
}

func TestManualFloatMatchesHardwareBits(t *testing.T) {
	values := []float64{
		3.14, -3.14, 2.718281828459045, 1.0000000001, -0.0625,
		6.62607015e-34, 1.602176634e-19, 12345.6789, -9.87654321e18,
	}
	for _, v := range values {
		assert.Equal(t, math.Float64bits(v), ieee754Bits64(v), "encode %v", v)
		assert.Equal(t, v, decodeFloat64(math.Float64bits(v)), "decode %v", v)
	}

	f32s := []float32{2.5, -0.125, 3.14, 1.5e-3}
	for _, v := range f32s {
		assert.Equal(t, math.Float32bits(v), ieee754Bits32(v), "encode %v", v)
		assert.Equal(t, float64(v), decodeFloat32(math.Float32bits(v)), "decode %v", v)
	}
}

func TestFloatSpecials(t *testing.T) {
	p := NewPacker()
	p.PackFloat64(math.Inf(1))
	p.PackFloat64(math.Inf(-1))
	p.PackFloat64(math.NaN())
	require.NoError(t, p.Err())

	u := NewUnpacker(p.Bytes())
	var a, b, c float64
	u.Process(&a, &b, &c)
	require.NoError(t, u.Err())
	assert.True(t, math.IsInf(a, 1))
	assert.True(t, math.IsInf(b, -1))
	assert.True(t, math.IsNaN(c))
}

func TestTimeRoundTrip(t *testing.T) {
	want := time.Date(2024, 7, 15, 10, 30, 0, 123456789, time.UTC)
	p := NewPacker()
	p.PackTime(want)
	require.NoError(t, p.Err())

	var got time.Time
	u := NewUnpacker(p.Bytes())
	u.Process(&got)
	require.NoError(t, u.Err())
	assert.Equal(t, want.UnixNano(), got.UnixNano())
}

func TestTypedContainers(t *testing.T) {
	p := NewPacker()
	p.Pack([]int{10, 20, 30})
	require.NoError(t, p.Err())

	var s []int64
	u := NewUnpacker(p.Bytes())
	u.Process(&s)
	require.NoError(t, u.Err())
	assert.Equal(t, []int64{10, 20, 30}, s)

	var arr [3]int
	u = NewUnpacker(p.Bytes())
	u.Process(&arr)
	require.NoError(t, u.Err())
	assert.Equal(t, [3]int{10, 20, 30}, arr)

	var wrong [4]int
	u = NewUnpacker(p.Bytes())
	u.Process(&wrong)
	assert.ErrorIs(t, u.Err(), BadStdArraySize)

	p.Reset()
	p.Pack(map[string]int{"a": 1, "b": 2})
	require.NoError(t, p.Err())
	var m map[string]int
	u = NewUnpacker(p.Bytes())
	u.Process(&m)
	require.NoError(t, u.Err())
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, m)
}

func TestValueTreeRoundTrip(t *testing.T) {
	tree := map[string]interface{}{
		"name":  "example",
		"count": int64(42),
		"ratio": 0.125,
		"tags":  []interface{}{int64(1), "two", nil},
		"inner": map[string]interface{}{"ok": true},
	}
	data, err := PackValue(tree)
	require.NoError(t, err)
	got, err := UnpackValue(data)
	require.NoError(t, err)
	assert.Equal(t, tree, got)
}

type sessionRecord struct {
	User  string
	Seen  time.Time
	Score int64
	Peer  *peerRecord
}

type peerRecord struct {
	Host string
	Port uint16
}

func (p *peerRecord) Pack(proc Processor) {
	proc.Process(&p.Host, &p.Port)
}

func (s *sessionRecord) Pack(proc Processor) {
	if s.Peer == nil {
		s.Peer = &peerRecord{}
	}
	proc.Process(&s.User, &s.Seen, &s.Score, s.Peer)
}

func TestAggregateRoundTrip(t *testing.T) {
	in := sessionRecord{
		User:  "alice",
		Seen:  time.Unix(1700000000, 42),
		Score: -17,
		Peer:  &peerRecord{Host: "example.org", Port: 9000},
	}
	data, err := Pack(&in)
	require.NoError(t, err)

	// Top-level fields are serialized flat; only the nested aggregate
	// travels as a bin blob. The first field is the fixstr "alice", and
	// the blob starts after it, the int64 timestamp and the fixint score.
	assert.Equal(t, byte(0xA5), data[0])
	require.Greater(t, len(data), 17)
	assert.Equal(t, byte(0xC4), data[16])
	assert.Equal(t, byte(15), data[17])

	var out sessionRecord
	require.NoError(t, Unpack(data, &out))
	assert.Equal(t, in.User, out.User)
	assert.Equal(t, in.Seen.UnixNano(), out.Seen.UnixNano())
	assert.Equal(t, in.Score, out.Score)
	require.NotNil(t, out.Peer)
	assert.Equal(t, *in.Peer, *out.Peer)
}

func TestErrorTaxonomy(t *testing.T) {
	ce := OutOfRange.CodeError()
	assert.Equal(t, "out of range data-access during deserialization", ce.Message)
	assert.Contains(t, ce.Error(), "UNPACKER")

	pe := LengthError.CodeError()
	assert.Equal(t, "length of map, array, string or binary data exceeding 2^32 -1 elements", pe.Message)
	assert.Contains(t, pe.Error(), "PACKER")
}
