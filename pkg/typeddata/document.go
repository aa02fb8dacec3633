// Package typeddata reads EIP-712 typed-data documents, the JSON shape
// wallets exchange through eth_signTypedData_v4, and turns them into an
// eip712 Registry and value trees.
package typeddata

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/erc7824/typedsigner/pkg/eip712"
)

// TypeField is one entry of a type definition.
type TypeField struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	Type string `json:"type" yaml:"type" validate:"required"`
}

// Document is a complete typed-data payload.
type Document struct {
	Types       map[string][]TypeField `json:"types" yaml:"types" validate:"required,dive,dive"`
	PrimaryType string                 `json:"primaryType" yaml:"primaryType" validate:"required"`
	Domain      map[string]any         `json:"domain" yaml:"domain"`
	Message     map[string]any         `json:"message" yaml:"message"`
}

var validate = validator.New()

// ParseJSON decodes and validates a JSON document. Numbers are kept exact.
func ParseJSON(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode typed data")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseYAML decodes and validates a YAML document.
func ParseYAML(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode typed data")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads a document from path, choosing YAML for .yaml and .yml files
// and JSON otherwise.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// Validate checks the document shape: every field has a name and a type,
// and both the domain type and the primary type are defined.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		return errors.Wrap(err, "invalid typed data")
	}
	if _, ok := d.Types[eip712.DomainType]; !ok {
		return errors.Errorf("invalid typed data: types must define %s", eip712.DomainType)
	}
	if _, ok := d.Types[d.PrimaryType]; !ok {
		return errors.Errorf("invalid typed data: primary type %s is not defined", d.PrimaryType)
	}
	return nil
}

// Registry builds a registry holding every type of the document.
func (d *Document) Registry() (*eip712.Registry, error) {
	names := make([]string, 0, len(d.Types))
	for name := range d.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	reg := eip712.NewRegistry()
	for _, name := range names {
		fields := make([]eip712.Field, len(d.Types[name]))
		for i, f := range d.Types[name] {
			fields[i] = eip712.Field{Type: f.Type, Name: f.Name}
		}
		if err := reg.Define(name, fields...); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Values converts the domain and message into value trees.
func (d *Document) Values() (domain, message eip712.Value, err error) {
	domain, err = d.convertStruct(eip712.DomainType, d.Domain)
	if err != nil {
		return eip712.Value{}, eip712.Value{}, errors.Wrap(err, "domain")
	}
	message, err = d.convertStruct(d.PrimaryType, d.Message)
	if err != nil {
		return eip712.Value{}, eip712.Value{}, errors.Wrap(err, "message")
	}
	return domain, message, nil
}

// Hash computes the domain separator, struct hash and signing digest.
func (d *Document) Hash(opts ...eip712.Option) (*eip712.TypedDataHash, error) {
	reg, err := d.Registry()
	if err != nil {
		return nil, err
	}
	domain, message, err := d.Values()
	if err != nil {
		return nil, err
	}

	enc := eip712.NewEncoder(reg, opts...)
	return enc.Assemble(eip712.DomainType, domain, d.PrimaryType, message)
}

// JSON renders the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

func (d *Document) String() string {
	b, err := d.JSON()
	if err != nil {
		return fmt.Sprintf("typeddata.Document{primaryType: %s}", d.PrimaryType)
	}
	return string(b)
}
