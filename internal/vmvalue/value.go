// Package vmvalue defines the tagged value pair every expression in zeta
// evaluates to: a 64-bit word plus an 8-bit tag discriminating how to read
// it.
package vmvalue

import (
	"math"

	"github.com/iankronquist/zeta/internal/heap"
)

// Tag discriminates how a Value's Word should be interpreted.
type Tag uint8

const (
	// TagBool: Word is 0 (false) or 1 (true).
	TagBool Tag = iota
	// TagInt64: Word reinterpreted as a signed 64-bit integer.
	TagInt64
	// TagFloat64: Word reinterpreted as an IEEE-754 double. Never produced
	// by the core; kept for completeness
	// of the tag enum.
	TagFloat64
	// TagString: Word is a heap.Ref to an interned string.
	TagString
	// TagArray: Word is a heap.Ref to a heap array.
	TagArray
	// TagRawPtr: Word is a reference with no further type information
	// (used for cell references: an index into the evaluator's cell table).
	TagRawPtr
	// TagObject: Word is a heap.Ref to a shaped object.
	TagObject
	// TagClosure: Word is an index into the evaluator's closure table.
	TagClosure
	// TagRunError: reserved for a future non-fatal error value; never
	// constructed by this core.
	TagRunError
)

func (t Tag) String() string {
	switch t {
	case TagBool:
		return "Bool"
	case TagInt64:
		return "Int64"
	case TagFloat64:
		return "Float64"
	case TagString:
		return "String"
	case TagArray:
		return "Array"
	case TagRawPtr:
		return "RawPtr"
	case TagObject:
		return "Object"
	case TagClosure:
		return "Closure"
	case TagRunError:
		return "RunError"
	default:
		return "Unknown"
	}
}

// Value is the tagged (word, tag) pair. It is always passed by value: the
// Go struct itself plays the role of the 16-byte C value_t.
type Value struct {
	Word uint64
	Tag  Tag
}

// False and True are the two boolean constants, matching VAL_FALSE/VAL_TRUE.
var (
	False = Value{Word: 0, Tag: TagBool}
	True  = Value{Word: 1, Tag: TagBool}
)

// Bool constructs a boolean value.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Int64 constructs an integer value.
func Int64(v int64) Value {
	return Value{Word: uint64(v), Tag: TagInt64}
}

// Float64 constructs a float value. Unused by the core evaluator but kept
// so the tag is representable.
func Float64(v float64) Value {
	return Value{Word: math.Float64bits(v), Tag: TagFloat64}
}

// FromRef constructs a heap-pointer-tagged value for any of the reference
// tags (String, Array, RawPtr, Object, Closure).
func FromRef(tag Tag, ref heap.Ref) Value {
	return Value{Word: uint64(ref), Tag: tag}
}

// AsInt64 reinterprets Word as a signed 64-bit integer, regardless of Tag.
// Callers are expected to have already checked Tag; this mirrors the C
// union's unchecked word.int64 access.
func (v Value) AsInt64() int64 { return int64(v.Word) }

// AsBool reports the boolean carried by Word, for TagBool values.
func (v Value) AsBool() bool { return v.Word != 0 }

// AsRef reinterprets Word as a heap.Ref.
func (v Value) AsRef() heap.Ref { return heap.Ref(v.Word) }

// Equals implements the core's bitwise tagged equality: two values are
// equal iff both their tag and their word are identical. This is exactly
// `==`/`!=` in the source language: for strings this is
// correct only because of interning, not because
// contents are compared here.
func Equals(a, b Value) bool {
	return a.Tag == b.Tag && a.Word == b.Word
}
