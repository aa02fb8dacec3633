package eip712_test

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erc7824/typedsigner/pkg/eip712"
)

const (
	ownerAddress   = "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"
	spenderAddress = "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"
	usdcContract   = "0xA0b86a33E6441E6C7D3E4C7C5C6C8C8C8C8C8C8C"
)

func permitRegistry(t *testing.T) *eip712.Registry {
	t.Helper()

	reg := eip712.NewRegistry()
	require.NoError(t, reg.Define(eip712.DomainType,
		eip712.Field{Type: "string", Name: "name"},
		eip712.Field{Type: "string", Name: "version"},
		eip712.Field{Type: "uint256", Name: "chainId"},
		eip712.Field{Type: "address", Name: "verifyingContract"},
	))
	require.NoError(t, reg.Define("Permit",
		eip712.Field{Type: "address", Name: "owner"},
		eip712.Field{Type: "address", Name: "spender"},
		eip712.Field{Type: "uint256", Name: "value"},
		eip712.Field{Type: "uint256", Name: "nonce"},
		eip712.Field{Type: "uint256", Name: "deadline"},
	))
	return reg
}

func permitDomain() eip712.Value {
	return eip712.Struct(map[string]eip712.Value{
		"name":              eip712.String("USD Coin"),
		"version":           eip712.String("2"),
		"chainId":           eip712.Uint(1),
		"verifyingContract": eip712.String(usdcContract),
	})
}

func permitMessage(deadline uint64) eip712.Value {
	return eip712.Struct(map[string]eip712.Value{
		"owner":    eip712.String(ownerAddress),
		"spender":  eip712.String(spenderAddress),
		"value":    eip712.Uint(1_000_000_000),
		"nonce":    eip712.Uint(0),
		"deadline": eip712.Uint(deadline),
	})
}

func mailRegistry(t *testing.T) *eip712.Registry {
	t.Helper()

	reg := eip712.NewRegistry()
	require.NoError(t, reg.Define(eip712.DomainType,
		eip712.Field{Type: "string", Name: "name"},
		eip712.Field{Type: "string", Name: "version"},
		eip712.Field{Type: "uint256", Name: "chainId"},
		eip712.Field{Type: "address", Name: "verifyingContract"},
	))
	require.NoError(t, reg.Define("Person",
		eip712.Field{Type: "string", Name: "name"},
		eip712.Field{Type: "address", Name: "wallet"},
	))
	require.NoError(t, reg.Define("Mail",
		eip712.Field{Type: "Person", Name: "from"},
		eip712.Field{Type: "Person", Name: "to"},
		eip712.Field{Type: "string", Name: "contents"},
	))
	return reg
}

func TestEncodeType(t *testing.T) {
	t.Run("Permit has no references", func(t *testing.T) {
		enc := eip712.NewEncoder(permitRegistry(t))

		sig, err := enc.EncodeType("Permit")
		require.NoError(t, err)
		assert.Equal(t, "Permit(address owner,address spender,uint256 value,uint256 nonce,uint256 deadline)", sig)
	})

	t.Run("Referenced type appended once", func(t *testing.T) {
		enc := eip712.NewEncoder(mailRegistry(t))

		sig, err := enc.EncodeType("Mail")
		require.NoError(t, err)
		assert.Equal(t, "Mail(Person from,Person to,string contents)Person(string name,address wallet)", sig)
	})

	t.Run("References sorted by name", func(t *testing.T) {
		reg := eip712.NewRegistry()
		require.NoError(t, reg.Define("Order",
			eip712.Field{Type: "Zone", Name: "zone"},
			eip712.Field{Type: "Asset", Name: "asset"},
			eip712.Field{Type: "Zone", Name: "fallback"},
		))
		require.NoError(t, reg.Define("Zone", eip712.Field{Type: "string", Name: "id"}))
		require.NoError(t, reg.Define("Asset", eip712.Field{Type: "address", Name: "token"}))
		enc := eip712.NewEncoder(reg)

		sig, err := enc.EncodeType("Order")
		require.NoError(t, err)
		assert.Equal(t, "Order(Zone zone,Asset asset,Zone fallback)Asset(address token)Zone(string id)", sig)
	})

	t.Run("Self reference not expanded", func(t *testing.T) {
		reg := eip712.NewRegistry()
		require.NoError(t, reg.Define("Node",
			eip712.Field{Type: "string", Name: "label"},
			eip712.Field{Type: "Node", Name: "next"},
		))
		enc := eip712.NewEncoder(reg)

		sig, err := enc.EncodeType("Node")
		require.NoError(t, err)
		assert.Equal(t, "Node(string label,Node next)", sig)
	})

	t.Run("Two-hop cycle", func(t *testing.T) {
		reg := eip712.NewRegistry()
		require.NoError(t, reg.Define("A", eip712.Field{Type: "B", Name: "b"}))
		require.NoError(t, reg.Define("B", eip712.Field{Type: "A", Name: "a"}))
		enc := eip712.NewEncoder(reg)

		_, err := enc.EncodeType("A")
		assert.ErrorIs(t, err, eip712.ErrSchemaCycle)

		_, err = enc.StructHash("A", eip712.Struct(map[string]eip712.Value{
			"b": eip712.Struct(map[string]eip712.Value{}),
		}))
		assert.ErrorIs(t, err, eip712.ErrSchemaCycle)
	})

	t.Run("Unknown schema", func(t *testing.T) {
		enc := eip712.NewEncoder(permitRegistry(t))

		_, err := enc.EncodeType("Transfer")
		assert.ErrorIs(t, err, eip712.ErrUnknownType)
	})

	t.Run("Deterministic", func(t *testing.T) {
		enc := eip712.NewEncoder(mailRegistry(t))

		first, err := enc.EncodeType("Mail")
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := enc.EncodeType("Mail")
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
}

func TestEncodeData(t *testing.T) {
	enc := eip712.NewEncoder(permitRegistry(t))

	t.Run("One slot per field", func(t *testing.T) {
		data, err := enc.EncodeData("Permit", permitMessage(1_700_003_600))
		require.NoError(t, err)
		assert.Len(t, data.Bytes(), 5*eip712.SlotSize)
		assert.Equal(t, 5, data.Slots())
	})

	t.Run("Address padding", func(t *testing.T) {
		data, err := enc.EncodeData("Permit", permitMessage(0))
		require.NoError(t, err)

		ownerSlot := string(data)[:64]
		assert.Equal(t, strings.Repeat("0", 24)+strings.TrimPrefix(ownerAddress, "0x"), ownerSlot)
	})

	t.Run("uint256 formatting", func(t *testing.T) {
		data, err := enc.EncodeData("Permit", permitMessage(0))
		require.NoError(t, err)

		valueSlot := string(data)[2*64 : 3*64]
		assert.Equal(t, fmt.Sprintf("%064x", 1_000_000_000), valueSlot)
		assert.Equal(t, "000000000000000000000000000000000000000000000000000000003b9aca00", valueSlot)
	})

	t.Run("String field is hashed", func(t *testing.T) {
		data, err := enc.EncodeData(eip712.DomainType, permitDomain())
		require.NoError(t, err)

		nameSlot := string(data)[:64]
		assert.Equal(t, fmt.Sprintf("%x", eip712.Keccak256([]byte("USD Coin"))), nameSlot)
	})

	t.Run("Full-width uint256", func(t *testing.T) {
		maxUint := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
		v, err := eip712.BigUint(maxUint)
		require.NoError(t, err)

		msg := permitMessage(0).Without("value")
		fields := map[string]eip712.Value{"value": v}
		for _, name := range []string{"owner", "spender", "nonce", "deadline"} {
			fv, ok := msg.Field(name)
			require.True(t, ok)
			fields[name] = fv
		}

		data, err := enc.EncodeData("Permit", eip712.Struct(fields))
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("f", 64), string(data)[2*64:3*64])
	})
}

func TestEncodeData_TolerantPolicy(t *testing.T) {
	enc := eip712.NewEncoder(permitRegistry(t))
	complete := permitMessage(1_700_003_600)

	t.Run("Missing field emits no slot", func(t *testing.T) {
		data, err := enc.EncodeData("Permit", complete.Without("nonce"))
		require.NoError(t, err)
		assert.Len(t, data.Bytes(), 4*eip712.SlotSize)

		full, err := enc.FinalDigest(eip712.DomainType, permitDomain(), "Permit", complete)
		require.NoError(t, err)
		short, err := enc.FinalDigest(eip712.DomainType, permitDomain(), "Permit", complete.Without("nonce"))
		require.NoError(t, err)
		assert.NotEqual(t, full, short)
	})

	t.Run("Mismatched kind emits no slot", func(t *testing.T) {
		msg := eip712.Struct(map[string]eip712.Value{
			"owner": eip712.Uint(7),
			"value": eip712.String("1000"),
		})
		data, err := enc.EncodeData("Permit", msg)
		require.NoError(t, err)
		assert.Empty(t, string(data))
	})

	t.Run("Unknown field type emits no slot", func(t *testing.T) {
		reg := eip712.NewRegistry()
		require.NoError(t, reg.Define("Vote",
			eip712.Field{Type: "bool", Name: "support"},
			eip712.Field{Type: "uint256", Name: "proposal"},
		))
		enc := eip712.NewEncoder(reg)

		data, err := enc.EncodeData("Vote", eip712.Struct(map[string]eip712.Value{
			"support":  eip712.String("true"),
			"proposal": eip712.Uint(3),
		}))
		require.NoError(t, err)
		assert.Equal(t, 1, data.Slots())
	})

	t.Run("Repeated 0x prefixes are all stripped", func(t *testing.T) {
		reg := eip712.NewRegistry()
		require.NoError(t, reg.Define("Target", eip712.Field{Type: "address", Name: "to"}))
		enc := eip712.NewEncoder(reg)

		single, err := enc.EncodeData("Target", eip712.Struct(map[string]eip712.Value{
			"to": eip712.String(ownerAddress),
		}))
		require.NoError(t, err)
		repeated, err := enc.EncodeData("Target", eip712.Struct(map[string]eip712.Value{
			"to": eip712.String("0x0x" + ownerAddress[2:]),
		}))
		require.NoError(t, err)
		assert.Equal(t, single, repeated)
	})

	t.Run("Malformed address hashes an empty sequence", func(t *testing.T) {
		reg := eip712.NewRegistry()
		require.NoError(t, reg.Define("Target", eip712.Field{Type: "address", Name: "to"}))
		enc := eip712.NewEncoder(reg)

		d, err := enc.StructHash("Target", eip712.Struct(map[string]eip712.Value{
			"to": eip712.String("0xnot-an-address"),
		}))
		require.NoError(t, err)
		assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", d.Hex())
	})
}

func TestEncodeData_StrictPolicy(t *testing.T) {
	enc := eip712.NewEncoder(permitRegistry(t), eip712.WithPolicy(eip712.PolicyStrict))

	tcs := []struct {
		name        string
		schema      string
		value       eip712.Value
		expectedErr error
	}{
		{
			name:        "missing field",
			schema:      "Permit",
			value:       permitMessage(0).Without("nonce"),
			expectedErr: eip712.ErrMissingField,
		},
		{
			name:   "string in uint256 field",
			schema: "Permit",
			value: eip712.Struct(map[string]eip712.Value{
				"owner":    eip712.String(ownerAddress),
				"spender":  eip712.String(spenderAddress),
				"value":    eip712.String("1000"),
				"nonce":    eip712.Uint(0),
				"deadline": eip712.Uint(0),
			}),
			expectedErr: eip712.ErrTypeMismatch,
		},
		{
			name:   "short address",
			schema: "Permit",
			value: eip712.Struct(map[string]eip712.Value{
				"owner":    eip712.String("0x1234"),
				"spender":  eip712.String(spenderAddress),
				"value":    eip712.Uint(1),
				"nonce":    eip712.Uint(0),
				"deadline": eip712.Uint(0),
			}),
			expectedErr: eip712.ErrInvalidAddress,
		},
		{
			name:        "non-struct value",
			schema:      "Permit",
			value:       eip712.String("permit"),
			expectedErr: eip712.ErrTypeMismatch,
		},
		{
			name:        "unknown schema",
			schema:      "Transfer",
			value:       eip712.Struct(nil),
			expectedErr: eip712.ErrUnknownType,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := enc.EncodeData(tc.schema, tc.value)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.expectedErr), "unexpected error: %v", err)
		})
	}

	t.Run("unknown field type", func(t *testing.T) {
		reg := eip712.NewRegistry()
		require.NoError(t, reg.Define("Vote", eip712.Field{Type: "bool", Name: "support"}))
		enc := eip712.NewEncoder(reg, eip712.WithPolicy(eip712.PolicyStrict))

		_, err := enc.EncodeData("Vote", eip712.Struct(map[string]eip712.Value{
			"support": eip712.String("true"),
		}))
		assert.ErrorIs(t, err, eip712.ErrUnknownType)
	})

	t.Run("uppercase 0X address", func(t *testing.T) {
		fields := map[string]eip712.Value{
			"owner":    eip712.String("0X" + ownerAddress[2:]),
			"spender":  eip712.String(spenderAddress),
			"value":    eip712.Uint(1_000_000_000),
			"nonce":    eip712.Uint(0),
			"deadline": eip712.Uint(1),
		}

		got, err := enc.StructHash("Permit", eip712.Struct(fields))
		require.NoError(t, err)
		expected, err := enc.StructHash("Permit", permitMessage(1))
		require.NoError(t, err)
		assert.Equal(t, expected, got)

		data, err := enc.EncodeData("Permit", eip712.Struct(fields))
		require.NoError(t, err)
		assert.Len(t, data.Bytes(), 5*eip712.SlotSize)
	})

	t.Run("complete value", func(t *testing.T) {
		data, err := enc.EncodeData("Permit", permitMessage(1))
		require.NoError(t, err)
		assert.Equal(t, 5, data.Slots())
	})
}

func TestParsePolicy(t *testing.T) {
	p, err := eip712.ParsePolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, eip712.PolicyStrict, p)

	p, err = eip712.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, eip712.PolicyTolerant, p)

	_, err = eip712.ParsePolicy("lenient")
	assert.Error(t, err)
}
