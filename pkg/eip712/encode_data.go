package eip712

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// EncodeData encodes v against the named schema: one 32-byte slot per
// field, in declaration order.
//
//   - string: hash of the UTF-8 bytes
//   - address: hex digits without 0x, left-padded with '0' to 64 characters
//   - uint256: big-endian, 32 bytes
//   - registered schema: struct hash of the nested value
//
// Under PolicyTolerant a field that is missing, has an unknown type or holds
// a value of the wrong kind emits no slot, and address text is copied as-is.
func (e *Encoder) EncodeData(name string, v Value) (EncodedData, error) {
	schema, ok := e.registry.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	if v.Kind() != KindStruct && e.policy == PolicyStrict {
		return "", fmt.Errorf("%w: %s expects a struct value, got %s", ErrTypeMismatch, name, v.Kind())
	}

	var sb strings.Builder
	for _, f := range schema.Fields {
		if !e.knownType(f.Type) {
			if e.policy == PolicyStrict {
				return "", fmt.Errorf("%w: %s.%s has type %s", ErrUnknownType, name, f.Name, f.Type)
			}
			continue
		}

		fv, ok := v.Field(f.Name)
		if !ok {
			if e.policy == PolicyStrict {
				return "", fmt.Errorf("%w: %s.%s", ErrMissingField, name, f.Name)
			}
			continue
		}

		slot, err := e.encodeField(f, fv)
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", name, f.Name, err)
		}
		sb.WriteString(slot)
	}

	return EncodedData(sb.String()), nil
}

// StructHash encodes v against the named schema and hashes it together with
// the schema's type signature.
func (e *Encoder) StructHash(name string, v Value) (Digest, error) {
	sig, err := e.EncodeType(name)
	if err != nil {
		return Digest{}, err
	}
	data, err := e.EncodeData(name, v)
	if err != nil {
		return Digest{}, err
	}
	return e.HashStruct(sig, data), nil
}

func (e *Encoder) knownType(typ string) bool {
	switch typ {
	case TypeString, TypeAddress, TypeUint256:
		return true
	default:
		return e.registry.Has(typ)
	}
}

// encodeField returns the hex text of one slot, or "" when the value is
// skipped under the tolerant policy.
func (e *Encoder) encodeField(f Field, v Value) (string, error) {
	switch f.Type {
	case TypeString:
		s, ok := v.Str()
		if !ok {
			return e.mismatch(f, v)
		}
		return hex.EncodeToString(e.hash([]byte(s))), nil

	case TypeAddress:
		s, ok := v.Str()
		if !ok {
			return e.mismatch(f, v)
		}
		if e.policy == PolicyStrict {
			if !common.IsHexAddress(s) {
				return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
			}
			return padSlot(hex.EncodeToString(common.HexToAddress(s).Bytes())), nil
		}
		return padSlot(trimHexPrefixes(s)), nil

	case TypeUint256:
		u, ok := v.Uint256()
		if !ok {
			return e.mismatch(f, v)
		}
		b := u.Bytes32()
		return hex.EncodeToString(b[:]), nil

	default:
		if v.Kind() != KindStruct {
			return e.mismatch(f, v)
		}
		sig, err := e.EncodeType(f.Type)
		if err != nil {
			return "", err
		}
		nested, err := e.EncodeData(f.Type, v)
		if err != nil {
			return "", err
		}
		d := e.HashStruct(sig, nested)
		return hex.EncodeToString(d[:]), nil
	}
}

func (e *Encoder) mismatch(f Field, v Value) (string, error) {
	if e.policy == PolicyStrict {
		return "", fmt.Errorf("%w: %s field got %s value", ErrTypeMismatch, f.Type, v.Kind())
	}
	return "", nil
}

// trimHexPrefixes strips every leading "0x", so "0x0xab" becomes "ab".
func trimHexPrefixes(s string) string {
	for strings.HasPrefix(s, "0x") {
		s = s[2:]
	}
	return s
}

// padSlot left-pads s with '0' to a full slot. Longer input is kept whole.
func padSlot(s string) string {
	const width = SlotSize * 2
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
