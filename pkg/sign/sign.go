package sign

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Signer signs 32-byte hashes.
type Signer interface {
	PublicKey() PublicKey
	// Sign expects a hash, not the raw message.
	Sign(hash []byte) (Signature, error)
}

// AddressRecoverer recovers the signing address from a message and signature.
type AddressRecoverer interface {
	RecoverAddress(message []byte, signature Signature) (Address, error)
}

// PublicKey is the public half of a signing key.
type PublicKey interface {
	Address() Address
	Bytes() []byte
}

// Address identifies a key on chain.
type Address interface {
	fmt.Stringer

	Equals(other Address) bool
}

// SignatureLength is the size of an r || s || v signature.
const SignatureLength = 65

// Signature is r (32 bytes) || s (32 bytes) || v (1 byte).
type Signature []byte

// R returns the r component as 0x-prefixed hex.
func (s Signature) R() string { return s.component(0, 32) }

// S returns the s component as 0x-prefixed hex.
func (s Signature) S() string { return s.component(32, 64) }

// V returns the recovery byte as 0x-prefixed hex.
func (s Signature) V() string { return s.component(64, 65) }

func (s Signature) component(from, to int) string {
	if len(s) != SignatureLength {
		return ""
	}
	return hexutil.Encode(s[from:to])
}

// MarshalJSON encodes the signature as a hex string.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a hex string.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	decoded, err := hexutil.Decode(hexStr)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

func (s Signature) String() string {
	return hexutil.Encode(s)
}
