package sign

import (
	"strings"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrivKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAddress = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

func setupSigner(t *testing.T) *EthereumSigner {
	t.Helper()
	signer, err := NewEthereumSigner(testPrivKey)
	require.NoError(t, err)
	return signer
}

func TestEthereumSigner(t *testing.T) {
	t.Run("With 0x prefix", func(t *testing.T) {
		signer := setupSigner(t)
		assert.True(t, strings.EqualFold(testAddress, signer.PublicKey().Address().String()))
	})

	t.Run("Without 0x prefix", func(t *testing.T) {
		signer, err := NewEthereumSigner(strings.TrimPrefix(testPrivKey, "0x"))
		require.NoError(t, err)
		assert.True(t, strings.EqualFold(testAddress, signer.PublicKey().Address().String()))
	})

	t.Run("Invalid key", func(t *testing.T) {
		_, err := NewEthereumSigner("0xinvalidkey")
		assert.Error(t, err)
	})

	t.Run("Public key bytes", func(t *testing.T) {
		pub := setupSigner(t).PublicKey().Bytes()
		assert.Len(t, pub, 65)
		assert.Equal(t, byte(0x04), pub[0])
	})

	t.Run("Address equality", func(t *testing.T) {
		addr := setupSigner(t).PublicKey().Address()
		assert.True(t, addr.Equals(NewEthereumAddressFromHex(strings.ToLower(testAddress))))
		assert.True(t, addr.Equals(&MockAddress{id: strings.ToLower(testAddress)}))
		assert.False(t, addr.Equals(NewEthereumAddressFromHex("0x0000000000000000000000000000000000000001")))
	})
}

func TestSignAndRecover(t *testing.T) {
	signer := setupSigner(t)
	message := []byte("test message for signing")
	hash := ethcrypto.Keccak256(message)

	sig, err := signer.Sign(hash)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)
	assert.Contains(t, []byte{27, 28}, sig[64])

	recovered, err := RecoverAddressFromHash(hash, sig)
	require.NoError(t, err)
	assert.True(t, recovered.Equals(signer.PublicKey().Address()))
	assert.Contains(t, []byte{27, 28}, sig[64], "recovery must not modify the signature")

	viaRecoverer, err := (&EthereumAddressRecoverer{}).RecoverAddress(message, sig)
	require.NoError(t, err)
	assert.True(t, viaRecoverer.Equals(signer.PublicKey().Address()))
}

func TestRecoveryErrors(t *testing.T) {
	signer := setupSigner(t)
	hash := ethcrypto.Keccak256([]byte("some data to sign"))
	sig, err := signer.Sign(hash)
	require.NoError(t, err)

	t.Run("Invalid length", func(t *testing.T) {
		_, err := RecoverAddressFromHash(hash, sig[:64])
		assert.ErrorContains(t, err, "invalid signature length")
	})

	t.Run("Malformed signature", func(t *testing.T) {
		malformed := make(Signature, len(sig))
		copy(malformed, sig)
		malformed[30] = ^malformed[30]

		recovered, err := RecoverAddressFromHash(hash, malformed)
		if err == nil {
			assert.False(t, recovered.Equals(signer.PublicKey().Address()))
		}
	})
}

func TestSignatureComponents(t *testing.T) {
	sig := make(Signature, SignatureLength)
	sig[0] = 0xaa
	sig[32] = 0xbb
	sig[64] = 0x1c

	assert.Equal(t, "0xaa"+strings.Repeat("00", 31), sig.R())
	assert.Equal(t, "0xbb"+strings.Repeat("00", 31), sig.S())
	assert.Equal(t, "0x1c", sig.V())

	short := Signature{0x01}
	assert.Empty(t, short.R())
	assert.Equal(t, "0x01", short.String())

	raw, err := sig.MarshalJSON()
	require.NoError(t, err)

	var decoded Signature
	require.NoError(t, decoded.UnmarshalJSON(raw))
	assert.Equal(t, sig, decoded)
}

func TestMockSigner(t *testing.T) {
	signer := NewMockSigner("test-id")

	sig, err := signer.Sign([]byte("test data"))
	require.NoError(t, err)
	assert.Equal(t, Signature("test data-signed-by-test-id"), sig)
	assert.Equal(t, "test-id", signer.PublicKey().Address().String())
	assert.Equal(t, []byte("test-id"), signer.PublicKey().Bytes())
	assert.True(t, signer.PublicKey().Address().Equals(&MockAddress{id: "test-id"}))

	_, err = signer.FailWith(assert.AnError).Sign([]byte("x"))
	assert.ErrorIs(t, err, assert.AnError)
}
