package eip712

import "errors"

var (
	// ErrUnknownType is returned for a schema name that is not registered, and
	// in strict mode for a field whose type is neither a supported scalar nor
	// a registered schema.
	ErrUnknownType = errors.New("unknown type")
	// ErrMissingField is returned in strict mode when a value lacks a field
	// declared by its schema.
	ErrMissingField = errors.New("missing field")
	// ErrTypeMismatch is returned in strict mode when a value's kind does not
	// fit the declared field type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrInvalidAddress is returned in strict mode for an address field that
	// is not 20 hex-encoded bytes.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrSchemaCycle is returned when schemas reference each other in a cycle
	// longer than a direct self-reference.
	ErrSchemaCycle = errors.New("schema cycle")
	// ErrUintOverflow is returned when building a uint256 value from a
	// negative or wider-than-256-bit integer.
	ErrUintOverflow = errors.New("uint256 overflow")
	// ErrDuplicateSchema is returned when a schema name is defined twice.
	ErrDuplicateSchema = errors.New("duplicate schema")
	// ErrRegistrySealed is returned when defining a schema after the registry
	// has been handed to an Encoder.
	ErrRegistrySealed = errors.New("registry is sealed")
)
