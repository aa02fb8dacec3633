package sign

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/erc7824/typedsigner/pkg/log"
)

// PayloadEncoding says how SignRawPayloadRequest.Payload is turned into bytes.
type PayloadEncoding string

const (
	PayloadEncodingHexadecimal PayloadEncoding = "PAYLOAD_ENCODING_HEXADECIMAL"
	PayloadEncodingTextUTF8    PayloadEncoding = "PAYLOAD_ENCODING_TEXT_UTF8"
)

// ParsePayloadEncoding accepts the full constant or its short form
// ("hexadecimal", "text_utf8").
func ParsePayloadEncoding(s string) (PayloadEncoding, error) {
	switch strings.TrimPrefix(strings.ToUpper(s), "PAYLOAD_ENCODING_") {
	case "HEXADECIMAL", "HEX":
		return PayloadEncodingHexadecimal, nil
	case "TEXT_UTF8", "TEXT":
		return PayloadEncodingTextUTF8, nil
	default:
		return "", fmt.Errorf("unknown payload encoding %q", s)
	}
}

// HashFunction is applied to the decoded payload before signing.
type HashFunction string

const (
	// HashFunctionNoOp signs the payload as is; it must be 32 bytes.
	HashFunctionNoOp      HashFunction = "HASH_FUNCTION_NO_OP"
	HashFunctionKeccak256 HashFunction = "HASH_FUNCTION_KECCAK256"
)

// ParseHashFunction accepts the full constant or its short form
// ("noop", "keccak256").
func ParseHashFunction(s string) (HashFunction, error) {
	switch strings.TrimPrefix(strings.ToUpper(s), "HASH_FUNCTION_") {
	case "NO_OP", "NOOP":
		return HashFunctionNoOp, nil
	case "KECCAK256":
		return HashFunctionKeccak256, nil
	default:
		return "", fmt.Errorf("unknown hash function %q", s)
	}
}

var (
	ErrSignerMismatch = errors.New("sign_with does not match the signing key")
	ErrInvalidPayload = errors.New("invalid payload")
)

// SignRawPayloadRequest asks for a signature over Payload by the key SignWith.
type SignRawPayloadRequest struct {
	// RequestID is generated when empty.
	RequestID    string          `json:"requestId" validate:"omitempty,uuid"`
	SignWith     string          `json:"signWith" validate:"required"`
	Payload      string          `json:"payload" validate:"required"`
	Encoding     PayloadEncoding `json:"encoding" validate:"required,oneof=PAYLOAD_ENCODING_HEXADECIMAL PAYLOAD_ENCODING_TEXT_UTF8"`
	HashFunction HashFunction    `json:"hashFunction" validate:"required,oneof=HASH_FUNCTION_NO_OP HASH_FUNCTION_KECCAK256"`
}

// SignRawPayloadResult carries the signature split into its components.
type SignRawPayloadResult struct {
	RequestID string      `json:"requestId"`
	SignedBy  string      `json:"signedBy"`
	Hash      common.Hash `json:"hash"`
	Signature Signature   `json:"signature"`
	R         string      `json:"r"`
	S         string      `json:"s"`
	V         string      `json:"v"`
}

// RawPayloadSigner signs raw payloads on behalf of a caller.
type RawPayloadSigner interface {
	SignRawPayload(ctx context.Context, req SignRawPayloadRequest) (*SignRawPayloadResult, error)
}

var _ RawPayloadSigner = (*LocalSigner)(nil)

// LocalSigner serves SignRawPayload with an in-process Signer.
type LocalSigner struct {
	signer   Signer
	logger   log.Logger
	validate *validator.Validate
}

// NewLocalSigner wraps signer. A nil logger discards output.
func NewLocalSigner(signer Signer, logger log.Logger) *LocalSigner {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &LocalSigner{
		signer:   signer,
		logger:   logger.WithName("sign"),
		validate: validator.New(),
	}
}

// Address returns the address of the wrapped key.
func (s *LocalSigner) Address() Address {
	return s.signer.PublicKey().Address()
}

func (s *LocalSigner) SignRawPayload(ctx context.Context, req SignRawPayloadRequest) (*SignRawPayloadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid sign request: %w", err)
	}

	logger := s.logger.WithKV("requestID", req.RequestID)

	addr := s.Address()
	if !strings.EqualFold(addr.String(), req.SignWith) {
		logger.Warn("sign request for foreign key", "signWith", req.SignWith, "address", addr.String())
		return nil, fmt.Errorf("%w: %s", ErrSignerMismatch, req.SignWith)
	}

	payload, err := decodePayload(req.Payload, req.Encoding)
	if err != nil {
		return nil, err
	}
	hash, err := hashPayload(payload, req.HashFunction)
	if err != nil {
		return nil, err
	}

	sig, err := s.signer.Sign(hash)
	if err != nil {
		logger.Error("failed to sign payload", "error", err)
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}
	logger.Debug("payload signed", "hash", hexutil.Encode(hash), "encoding", req.Encoding, "hashFunction", req.HashFunction)

	return &SignRawPayloadResult{
		RequestID: req.RequestID,
		SignedBy:  addr.String(),
		Hash:      common.BytesToHash(hash),
		Signature: sig,
		R:         sig.R(),
		S:         sig.S(),
		V:         sig.V(),
	}, nil
}

func decodePayload(payload string, enc PayloadEncoding) ([]byte, error) {
	switch enc {
	case PayloadEncodingTextUTF8:
		return []byte(payload), nil
	case PayloadEncodingHexadecimal:
		if !strings.HasPrefix(payload, "0x") && !strings.HasPrefix(payload, "0X") {
			payload = "0x" + payload
		}
		b, err := hexutil.Decode(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unsupported encoding %s", ErrInvalidPayload, enc)
	}
}

func hashPayload(payload []byte, fn HashFunction) ([]byte, error) {
	switch fn {
	case HashFunctionKeccak256:
		return ethcrypto.Keccak256(payload), nil
	case HashFunctionNoOp:
		if len(payload) != common.HashLength {
			return nil, fmt.Errorf("%w: no-op hashing needs %d bytes, got %d", ErrInvalidPayload, common.HashLength, len(payload))
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("%w: unsupported hash function %s", ErrInvalidPayload, fn)
	}
}
