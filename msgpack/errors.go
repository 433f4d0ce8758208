package msgpack

import (
	"github.com/funvibe/matchpack/errors"
)

// UnpackerError enumerates the decode failure modes. The zero value means no
// error. An Unpacker goes sticky on the first one: every later operation is a
// no-op returning zero values.
type UnpackerError int

const (
	// OutOfRange means the decoder needed bytes past the end of the input.
	OutOfRange UnpackerError = iota + 1
	// IntegerOverflow means the encoded integer is wider than the
	// destination.
	IntegerOverflow
	// DataNotMatchType means the next tag does not belong to the
	// destination's format family.
	DataNotMatchType
	// BadStdArraySize means the encoded element count differs from the
	// fixed-size array destination.
	BadStdArraySize
)

func (e UnpackerError) Error() string {
	switch e {
	case OutOfRange:
		return "out of range data-access during deserialization"
	case IntegerOverflow:
		return "data overflows specified integer type"
	case DataNotMatchType:
		return "data does not match type of object"
	case BadStdArraySize:
		return "data has a different size than specified std::array object"
	}
	return "(unrecognized error)"
}

func (e UnpackerError) name() string {
	switch e {
	case OutOfRange:
		return "OUT_OF_RANGE"
	case IntegerOverflow:
		return "INTEGER_OVERFLOW"
	case DataNotMatchType:
		return "DATA_NOT_MATCH_TYPE"
	case BadStdArraySize:
		return "BAD_ARRAY_SIZE"
	}
	return "UNKNOWN"
}

// CodeError lifts the enum into the module error taxonomy.
func (e UnpackerError) CodeError() *errors.CodeError {
	return errors.New(errors.CategoryUnpacker, int(e), e.name(), e.Error())
}

// PackerError enumerates the encode failure modes, sticky in the same way.
type PackerError int

const (
	// LengthError means a map, array, string or binary payload exceeds
	// 2^32-1 elements.
	LengthError PackerError = iota + 1
	// UnsupportedType means PackValue was handed a Go value with no
	// MessagePack representation.
	UnsupportedType
)

func (e PackerError) Error() string {
	switch e {
	case LengthError:
		return "length of map, array, string or binary data exceeding 2^32 -1 elements"
	case UnsupportedType:
		return "value has no MessagePack representation"
	}
	return "(unrecognized error)"
}

func (e PackerError) name() string {
	switch e {
	case LengthError:
		return "LENGTH_ERROR"
	case UnsupportedType:
		return "UNSUPPORTED_TYPE"
	}
	return "UNKNOWN"
}

// CodeError lifts the enum into the module error taxonomy.
func (e PackerError) CodeError() *errors.CodeError {
	return errors.New(errors.CategoryPacker, int(e), e.name(), e.Error())
}
