package sign

import "fmt"

var (
	_ Signer    = (*MockSigner)(nil)
	_ PublicKey = (*MockPublicKey)(nil)
	_ Address   = (*MockAddress)(nil)
)

// MockSigner returns predictable signatures: the input followed by
// "-signed-by-<id>". It is meant for tests.
type MockSigner struct {
	publicKey *MockPublicKey
	err       error
}

// NewMockSigner creates a MockSigner whose address is id.
func NewMockSigner(id string) *MockSigner {
	return &MockSigner{publicKey: &MockPublicKey{id: id}}
}

// FailWith makes every subsequent Sign call return err.
func (m *MockSigner) FailWith(err error) *MockSigner {
	m.err = err
	return m
}

func (m *MockSigner) Sign(data []byte) (Signature, error) {
	if m.err != nil {
		return nil, m.err
	}
	sig := append([]byte{}, data...)
	sig = append(sig, fmt.Sprintf("-signed-by-%s", m.publicKey.id)...)
	return Signature(sig), nil
}

func (m *MockSigner) PublicKey() PublicKey { return m.publicKey }

// MockPublicKey uses its id as both key bytes and address.
type MockPublicKey struct {
	id string
}

func (m *MockPublicKey) Address() Address { return &MockAddress{id: m.id} }
func (m *MockPublicKey) Bytes() []byte    { return []byte(m.id) }

// MockAddress is a plain string address.
type MockAddress struct {
	id string
}

func (m *MockAddress) String() string            { return m.id }
func (m *MockAddress) Equals(other Address) bool { return m.id == other.String() }
