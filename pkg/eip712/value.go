package eip712

import (
	"fmt"
	"maps"
	"math/big"

	"github.com/holiman/uint256"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindUint
	KindStruct
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindUint:
		return "uint"
	case KindStruct:
		return "struct"
	default:
		return "invalid"
	}
}

// Value is a node of the data tree being hashed: a string, an unsigned
// 256-bit integer, or a struct of named values. The zero Value is invalid.
type Value struct {
	kind   Kind
	str    string
	num    uint256.Int
	fields map[string]Value
}

// String returns a string value. It is used for string and address fields.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Uint returns an unsigned integer value.
func Uint(u uint64) Value {
	v := Value{kind: KindUint}
	v.num.SetUint64(u)
	return v
}

// BigUint returns an unsigned integer value from b.
// It fails if b is nil, negative or does not fit in 256 bits.
func BigUint(b *big.Int) (Value, error) {
	if b == nil {
		return Value{}, fmt.Errorf("%w: nil integer", ErrUintOverflow)
	}
	if b.Sign() < 0 {
		return Value{}, fmt.Errorf("%w: negative integer %s", ErrUintOverflow, b)
	}
	num, overflow := uint256.FromBig(b)
	if overflow {
		return Value{}, fmt.Errorf("%w: %s does not fit in 256 bits", ErrUintOverflow, b)
	}
	return Value{kind: KindUint, num: *num}, nil
}

// Struct returns a struct value holding a copy of fields.
func Struct(fields map[string]Value) Value {
	return Value{kind: KindStruct, fields: maps.Clone(fields)}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload; ok is false for non-string values.
func (v Value) Str() (s string, ok bool) {
	return v.str, v.kind == KindString
}

// Uint256 returns a copy of the integer payload; ok is false for non-integer values.
func (v Value) Uint256() (u *uint256.Int, ok bool) {
	if v.kind != KindUint {
		return nil, false
	}
	return new(uint256.Int).Set(&v.num), true
}

// Field returns the named member of a struct value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindStruct {
		return Value{}, false
	}
	f, ok := v.fields[name]
	return f, ok
}

// Without returns a copy of a struct value with the named member removed.
// Non-struct values are returned unchanged.
func (v Value) Without(name string) Value {
	if v.kind != KindStruct {
		return v
	}
	fields := maps.Clone(v.fields)
	delete(fields, name)
	return Value{kind: KindStruct, fields: fields}
}
