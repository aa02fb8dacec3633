// Package permit builds EIP-2612 permit approvals on top of the eip712
// encoder.
package permit

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/erc7824/typedsigner/pkg/eip712"
	"github.com/erc7824/typedsigner/pkg/typeddata"
)

// PrimaryType is the schema name of a permit message.
const PrimaryType = "Permit"

var (
	// DomainSchema is the four-field EIP712Domain used by EIP-2612 tokens.
	DomainSchema = []eip712.Field{
		{Type: eip712.TypeString, Name: "name"},
		{Type: eip712.TypeString, Name: "version"},
		{Type: eip712.TypeUint256, Name: "chainId"},
		{Type: eip712.TypeAddress, Name: "verifyingContract"},
	}

	PermitSchema = []eip712.Field{
		{Type: eip712.TypeAddress, Name: "owner"},
		{Type: eip712.TypeAddress, Name: "spender"},
		{Type: eip712.TypeUint256, Name: "value"},
		{Type: eip712.TypeUint256, Name: "nonce"},
		{Type: eip712.TypeUint256, Name: "deadline"},
	}
)

// USDCMainnet is the domain of the USD Coin contract on Ethereum mainnet.
var USDCMainnet = Domain{
	Name:              "USD Coin",
	Version:           "2",
	ChainID:           1,
	VerifyingContract: "0xA0b86a33E6441E6C7D3E4C7C5C6C8C8C8C8C8C8C",
}

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidPermit = errors.New("invalid permit")
)

var validate = validator.New()

// NewRegistry returns a registry holding EIP712Domain and Permit.
func NewRegistry() (*eip712.Registry, error) {
	reg := eip712.NewRegistry()
	if err := reg.Define(eip712.DomainType, DomainSchema...); err != nil {
		return nil, err
	}
	if err := reg.Define(PrimaryType, PermitSchema...); err != nil {
		return nil, err
	}
	return reg, nil
}

type Domain struct {
	Name              string `json:"name" validate:"required"`
	Version           string `json:"version" validate:"required"`
	ChainID           uint64 `json:"chainId" validate:"required"`
	VerifyingContract string `json:"verifyingContract" validate:"required,eth_addr"`
}

func (d Domain) Value() eip712.Value {
	return eip712.Struct(map[string]eip712.Value{
		"name":              eip712.String(d.Name),
		"version":           eip712.String(d.Version),
		"chainId":           eip712.Uint(d.ChainID),
		"verifyingContract": eip712.String(d.VerifyingContract),
	})
}

// Permit approves Spender to move Value of Owner's tokens until Deadline.
type Permit struct {
	Owner    string   `json:"owner" validate:"required,eth_addr"`
	Spender  string   `json:"spender" validate:"required,eth_addr"`
	Value    *big.Int `json:"value" validate:"required"`
	Nonce    *big.Int `json:"nonce"`
	Deadline uint64   `json:"deadline" validate:"required"`
}

func (p Permit) nonce() *big.Int {
	if p.Nonce == nil {
		return new(big.Int)
	}
	return p.Nonce
}

// Message converts the permit into a message value. Value and Nonce must fit
// in 256 bits.
func (p Permit) Message() (eip712.Value, error) {
	value, err := eip712.BigUint(p.Value)
	if err != nil {
		return eip712.Value{}, fmt.Errorf("value: %w", err)
	}
	nonce, err := eip712.BigUint(p.nonce())
	if err != nil {
		return eip712.Value{}, fmt.Errorf("nonce: %w", err)
	}

	return eip712.Struct(map[string]eip712.Value{
		"owner":    eip712.String(p.Owner),
		"spender":  eip712.String(p.Spender),
		"value":    value,
		"nonce":    nonce,
		"deadline": eip712.Uint(p.Deadline),
	}), nil
}

// Validate checks addresses and required fields of both the permit and its
// domain.
func Validate(d Domain, p Permit) error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: domain: %s", ErrInvalidPermit, err)
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPermit, err)
	}
	return nil
}

// Hash validates the permit and computes its signing digest under d.
func (p Permit) Hash(d Domain, opts ...eip712.Option) (*eip712.TypedDataHash, error) {
	if err := Validate(d, p); err != nil {
		return nil, err
	}

	reg, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	message, err := p.Message()
	if err != nil {
		return nil, err
	}

	enc := eip712.NewEncoder(reg, opts...)
	return enc.Assemble(eip712.DomainType, d.Value(), PrimaryType, message)
}

// TypedData renders the permit as a wallet-style typed-data document.
func (p Permit) TypedData(d Domain) *typeddata.Document {
	return &typeddata.Document{
		Types: map[string][]typeddata.TypeField{
			eip712.DomainType: toTypeFields(DomainSchema),
			PrimaryType:       toTypeFields(PermitSchema),
		},
		PrimaryType: PrimaryType,
		Domain: map[string]any{
			"name":              d.Name,
			"version":           d.Version,
			"chainId":           d.ChainID,
			"verifyingContract": d.VerifyingContract,
		},
		Message: map[string]any{
			"owner":    p.Owner,
			"spender":  p.Spender,
			"value":    bigString(p.Value),
			"nonce":    p.nonce().String(),
			"deadline": p.Deadline,
		},
	}
}

func toTypeFields(fields []eip712.Field) []typeddata.TypeField {
	out := make([]typeddata.TypeField, len(fields))
	for i, f := range fields {
		out[i] = typeddata.TypeField{Name: f.Name, Type: f.Type}
	}
	return out
}

func bigString(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// Amount converts a human-readable token amount into base units.
func Amount(amount decimal.Decimal, decimals uint8) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount)
	}

	shifted := amount.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amount, decimals)
	}
	return shifted.BigInt(), nil
}

// FormatAmount renders base units as a decimal token amount.
func FormatAmount(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}

// DeadlineIn returns the unix timestamp ttl after now.
func DeadlineIn(now time.Time, ttl time.Duration) uint64 {
	return uint64(now.Add(ttl).Unix())
}
