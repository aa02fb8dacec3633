package eip712

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SlotSize is the width in bytes of one encoded field.
const SlotSize = 32

// HashFunc is the hash primitive used for type hashes, string fields,
// struct hashes and the final digest. It must be stateless and return 32 bytes.
type HashFunc func(data ...[]byte) []byte

// Keccak256 is the default HashFunc.
func Keccak256(data ...[]byte) []byte {
	return crypto.Keccak256(data...)
}

// Digest is a 32-byte hash output.
type Digest [32]byte

func digestOf(b []byte) Digest {
	var d Digest
	copy(d[:], b)
	return d
}

// Bytes returns the digest as a byte slice.
func (d Digest) Bytes() []byte { return d[:] }

// Hex returns the digest as a lowercase 0x-prefixed hex string.
func (d Digest) Hex() string { return hexutil.Encode(d[:]) }

// String implements the fmt.Stringer interface.
func (d Digest) String() string { return d.Hex() }

// EncodedData is the hex text of a struct's concatenated field slots,
// without separators or a 0x prefix.
type EncodedData string

// Bytes decodes the slots. Malformed hex decodes to an empty slice.
func (e EncodedData) Bytes() []byte {
	return decodeHexOrEmpty(string(e))
}

// Slots returns the number of complete 32-byte slots.
func (e EncodedData) Slots() int {
	return len(e.Bytes()) / SlotSize
}

func decodeHexOrEmpty(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		return []byte{}
	}
	return b
}

// HashStruct hashes the type hash of signature concatenated with the
// encoded field data. If the combined hex does not decode, the hash is
// taken over an empty byte sequence instead of failing.
func (e *Encoder) HashStruct(signature string, data EncodedData) Digest {
	typeHash := e.hash([]byte(signature))
	combined := decodeHexOrEmpty(hex.EncodeToString(typeHash) + string(data))
	return digestOf(e.hash(combined))
}
