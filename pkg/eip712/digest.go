package eip712

// DomainType is the conventional name of the domain schema.
const DomainType = "EIP712Domain"

// digestPrefix is the EIP-191 version byte pair for structured data.
var digestPrefix = []byte{0x19, 0x01}

// TypedDataHash is the result of hashing a domain and a message together.
type TypedDataHash struct {
	DomainType      string
	PrimaryType     string
	DomainSeparator Digest
	StructHash      Digest
	// Digest is the value handed to a signer.
	Digest Digest
}

// Assemble hashes domain against domainType and message against
// primaryType, then combines them into the signing digest
// hash(0x1901 || domainSeparator || structHash).
func (e *Encoder) Assemble(domainType string, domain Value, primaryType string, message Value) (*TypedDataHash, error) {
	domainSeparator, err := e.StructHash(domainType, domain)
	if err != nil {
		return nil, err
	}
	structHash, err := e.StructHash(primaryType, message)
	if err != nil {
		return nil, err
	}

	return &TypedDataHash{
		DomainType:      domainType,
		PrimaryType:     primaryType,
		DomainSeparator: domainSeparator,
		StructHash:      structHash,
		Digest:          e.combine(domainSeparator, structHash),
	}, nil
}

// FinalDigest is Assemble without the intermediate hashes.
func (e *Encoder) FinalDigest(domainType string, domain Value, primaryType string, message Value) (Digest, error) {
	h, err := e.Assemble(domainType, domain, primaryType, message)
	if err != nil {
		return Digest{}, err
	}
	return h.Digest, nil
}

// Preimage returns 0x1901 || domainSeparator || structHash, the bytes
// Digest is the hash of. Signers that hash on their side take this instead.
func (h *TypedDataHash) Preimage() []byte {
	return preimage(h.DomainSeparator, h.StructHash)
}

func preimage(domainSeparator, structHash Digest) []byte {
	input := make([]byte, 0, len(digestPrefix)+2*len(Digest{}))
	input = append(input, digestPrefix...)
	input = append(input, domainSeparator[:]...)
	return append(input, structHash[:]...)
}

func (e *Encoder) combine(domainSeparator, structHash Digest) Digest {
	return digestOf(e.hash(preimage(domainSeparator, structHash)))
}
