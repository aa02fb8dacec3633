package eip712

import (
	"fmt"
	"sort"
	"strings"
)

// Scalar field types understood by the encoder.
const (
	TypeString  = "string"
	TypeAddress = "address"
	TypeUint256 = "uint256"
)

// Policy decides how the encoder treats values that do not fit their schema.
type Policy uint8

const (
	// PolicyTolerant skips missing fields, unknown field types and
	// mismatched values without emitting a slot.
	PolicyTolerant Policy = iota
	// PolicyStrict reports each of those cases as an error.
	PolicyStrict
)

// String returns the string representation of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	default:
		return "tolerant"
	}
}

// ParsePolicy converts "strict" or "tolerant" into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "tolerant":
		return PolicyTolerant, nil
	case "strict":
		return PolicyStrict, nil
	default:
		return PolicyTolerant, fmt.Errorf("unknown encoding policy %q", s)
	}
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithHashFunc replaces the Keccak-256 primitive.
func WithHashFunc(h HashFunc) Option {
	return func(e *Encoder) {
		if h != nil {
			e.hash = h
		}
	}
}

// WithPolicy sets the encoding policy.
func WithPolicy(p Policy) Option {
	return func(e *Encoder) { e.policy = p }
}

// Encoder encodes and hashes values against a sealed Registry.
// It holds no mutable state and is safe for concurrent use.
type Encoder struct {
	registry *Registry
	hash     HashFunc
	policy   Policy
}

// NewEncoder seals reg and returns an encoder over it.
func NewEncoder(reg *Registry, opts ...Option) *Encoder {
	reg.seal()

	e := &Encoder{
		registry: reg,
		hash:     Keccak256,
		policy:   PolicyTolerant,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the encoder reads from.
func (e *Encoder) Registry() *Registry { return e.registry }

// Policy returns the encoding policy.
func (e *Encoder) Policy() Policy { return e.policy }

// EncodeType returns the type signature of the named schema: the schema
// itself as Name(type1 name1,...) followed by the signatures of the schemas
// its fields reference, sorted by name. A schema referencing itself is not
// expanded again; longer cycles fail with ErrSchemaCycle.
func (e *Encoder) EncodeType(name string) (string, error) {
	if !e.registry.Has(name) {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, name)
	}

	var sb strings.Builder
	if err := e.writeType(&sb, name, make(map[string]bool)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// TypeHash returns the hash of the named schema's type signature.
func (e *Encoder) TypeHash(name string) (Digest, error) {
	sig, err := e.EncodeType(name)
	if err != nil {
		return Digest{}, err
	}
	return digestOf(e.hash([]byte(sig))), nil
}

func (e *Encoder) writeType(sb *strings.Builder, name string, expanding map[string]bool) error {
	schema, _ := e.registry.Lookup(name)

	expanding[name] = true
	defer delete(expanding, name)

	sb.WriteString(name)
	sb.WriteByte('(')
	for i, f := range schema.Fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.Type)
		sb.WriteByte(' ')
		sb.WriteString(f.Name)
	}
	sb.WriteByte(')')

	for _, ref := range e.referencedTypes(schema) {
		if expanding[ref] {
			return fmt.Errorf("%w: %s references %s", ErrSchemaCycle, name, ref)
		}
		if err := e.writeType(sb, ref, expanding); err != nil {
			return err
		}
	}
	return nil
}

// referencedTypes lists the registered schemas named by the fields of s,
// excluding s itself, deduplicated and sorted byte-wise.
func (e *Encoder) referencedTypes(s Schema) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, f := range s.Fields {
		if f.Type == s.Name || seen[f.Type] || !e.registry.Has(f.Type) {
			continue
		}
		seen[f.Type] = true
		refs = append(refs, f.Type)
	}
	sort.Strings(refs)
	return refs
}
