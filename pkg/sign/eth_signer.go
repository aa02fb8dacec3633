package sign

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	_ Signer           = (*EthereumSigner)(nil)
	_ AddressRecoverer = (*EthereumAddressRecoverer)(nil)
	_ PublicKey        = EthereumPublicKey{}
	_ Address          = EthereumAddress{}
)

// EthereumAddress is a 20-byte account address.
type EthereumAddress struct{ common.Address }

// NewEthereumAddressFromHex parses hexAddr without validating it.
func NewEthereumAddressFromHex(hexAddr string) EthereumAddress {
	return EthereumAddress{common.HexToAddress(hexAddr)}
}

// String returns the EIP-55 checksummed form.
func (a EthereumAddress) String() string { return a.Address.Hex() }

func (a EthereumAddress) Equals(other Address) bool {
	if o, ok := other.(EthereumAddress); ok {
		return a.Address == o.Address
	}
	return strings.EqualFold(a.String(), other.String())
}

// EthereumPublicKey is a secp256k1 public key.
type EthereumPublicKey struct{ *ecdsa.PublicKey }

func (p EthereumPublicKey) Address() Address {
	return EthereumAddress{ethcrypto.PubkeyToAddress(*p.PublicKey)}
}

// Bytes returns the uncompressed 65-byte encoding.
func (p EthereumPublicKey) Bytes() []byte { return ethcrypto.FromECDSAPub(p.PublicKey) }

// EthereumSigner signs with a secp256k1 private key held in memory.
type EthereumSigner struct {
	privateKey *ecdsa.PrivateKey
	publicKey  EthereumPublicKey
}

// NewEthereumSigner parses a hex private key, with or without 0x.
func NewEthereumSigner(privateKeyHex string) (*EthereumSigner, error) {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("could not parse ethereum private key: %w", err)
	}
	return &EthereumSigner{
		privateKey: key,
		publicKey:  EthereumPublicKey{&key.PublicKey},
	}, nil
}

func (s *EthereumSigner) PublicKey() PublicKey { return s.publicKey }

// Sign returns r || s || v with v shifted to 27/28.
func (s *EthereumSigner) Sign(hash []byte) (Signature, error) {
	sig, err := ethcrypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, err
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return Signature(sig), nil
}

// EthereumAddressRecoverer recovers addresses from Keccak-256 hashed messages.
type EthereumAddressRecoverer struct{}

func (r *EthereumAddressRecoverer) RecoverAddress(message []byte, signature Signature) (Address, error) {
	return RecoverAddressFromHash(ethcrypto.Keccak256(message), signature)
}

// RecoverAddressFromHash recovers the signer of a precomputed hash.
// sig is not modified.
func RecoverAddressFromHash(hash []byte, sig Signature) (Address, error) {
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("invalid signature length: got %d, want %d", len(sig), SignatureLength)
	}
	local := make([]byte, SignatureLength)
	copy(local, sig)
	if local[64] >= 27 {
		local[64] -= 27
	}

	pubKey, err := ethcrypto.SigToPub(hash, local)
	if err != nil {
		return nil, fmt.Errorf("signature recovery failed: %w", err)
	}
	return EthereumAddress{ethcrypto.PubkeyToAddress(*pubKey)}, nil
}
