package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"

	"github.com/erc7824/typedsigner/pkg/eip712"
	"github.com/erc7824/typedsigner/pkg/log"
	"github.com/erc7824/typedsigner/pkg/permit"
	"github.com/erc7824/typedsigner/pkg/sign"
	"github.com/erc7824/typedsigner/pkg/typeddata"
	"github.com/erc7824/typedsigner/storage"
)

const (
	usdcDecimals        = 6
	defaultPermitAmount = "1000"
	defaultPermitTTL    = time.Hour
	defaultSpender      = "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"
	defaultMessage      = "Hello, world!"
)

var ErrDigestMismatch = errors.New("signed hash does not match digest")

// App runs CLI commands. The signer and the journal are opened on first use.
type App struct {
	conf   *Config
	logger log.Logger
	out    io.Writer
	now    func() time.Time

	signer *sign.LocalSigner
	store  *storage.Storage
}

func NewApp(conf *Config, logger log.Logger, out io.Writer) *App {
	return &App{
		conf:   conf,
		logger: logger,
		out:    out,
		now:    time.Now,
	}
}

func (a *App) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close storage", "error", err)
	}
	a.store = nil
}

func (a *App) getSigner() (*sign.LocalSigner, error) {
	if a.signer != nil {
		return a.signer, nil
	}
	signer, err := a.conf.NewSigner(a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Info("signer initialized", "address", signer.Address().String())
	a.signer = signer
	return signer, nil
}

func (a *App) getStore() (*storage.Storage, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := storage.NewStorage(a.conf.DBPath)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

func (a *App) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	return t
}

// hashDocument returns the encoder used together with the hashes so callers
// can print type signatures.
func (a *App) hashDocument(doc *typeddata.Document) (*eip712.Encoder, *eip712.TypedDataHash, error) {
	reg, err := doc.Registry()
	if err != nil {
		return nil, nil, err
	}
	domain, message, err := doc.Values()
	if err != nil {
		return nil, nil, err
	}

	enc := eip712.NewEncoder(reg, a.conf.EncoderOptions()...)
	h, err := enc.Assemble(eip712.DomainType, domain, doc.PrimaryType, message)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("typed data hashed", "primaryType", doc.PrimaryType, "policy", enc.Policy(), "digest", h.Digest.Hex())
	return enc, h, nil
}

func (a *App) renderHash(enc *eip712.Encoder, h *eip712.TypedDataHash) error {
	t := a.newTable()
	t.AppendHeader(table.Row{"Item", "Value"})
	t.AppendSeparator()

	for _, name := range []string{h.DomainType, h.PrimaryType} {
		sig, err := enc.EncodeType(name)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{name + " type", sig})
	}
	t.AppendRow(table.Row{"Domain separator", h.DomainSeparator.Hex()})
	t.AppendRow(table.Row{"Struct hash", h.StructHash.Hex()})
	t.AppendRow(table.Row{"Digest", h.Digest.Hex()})
	t.Render()
	return nil
}

func (a *App) renderSignature(dto *storage.SignatureDTO) {
	t := a.newTable()
	t.AppendHeader(table.Row{"Item", "Value"})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Request ID", dto.RequestID})
	t.AppendRow(table.Row{"Signer", dto.Signer})
	t.AppendRow(table.Row{"Digest", dto.Digest})
	t.AppendRow(table.Row{"r", dto.R})
	t.AppendRow(table.Row{"s", dto.S})
	t.AppendRow(table.Row{"v", dto.V})
	t.Render()
}

// signTypedData signs h with the configured key and records the signature.
// With the no-op hash function the digest itself is sent, otherwise the
// preimage is sent and the signer hashes it.
func (a *App) signTypedData(h *eip712.TypedDataHash) (*storage.SignatureDTO, error) {
	signer, err := a.getSigner()
	if err != nil {
		return nil, err
	}
	fn, err := a.conf.TypedDataHashFunction()
	if err != nil {
		return nil, err
	}

	payload := h.Digest.Hex()
	if fn == sign.HashFunctionKeccak256 {
		payload = hexutil.Encode(h.Preimage())
	}

	ctx := log.SetContextLogger(context.Background(), a.logger.WithKV("primaryType", h.PrimaryType))
	res, err := signer.SignRawPayload(ctx, sign.SignRawPayloadRequest{
		SignWith:     signer.Address().String(),
		Payload:      payload,
		Encoding:     sign.PayloadEncodingHexadecimal,
		HashFunction: fn,
	})
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(res.Hash.Bytes(), h.Digest.Bytes()) {
		return nil, fmt.Errorf("%w: signed %s, expected %s", ErrDigestMismatch, res.Hash.Hex(), h.Digest.Hex())
	}

	return a.record(ctx, h.PrimaryType, payload, res)
}

// record verifies res against the signer's address and journals it.
func (a *App) record(ctx context.Context, primaryType, payload string, res *sign.SignRawPayloadResult) (*storage.SignatureDTO, error) {
	recovered, err := sign.RecoverAddressFromHash(res.Hash.Bytes(), res.Signature)
	if err != nil {
		return nil, err
	}
	if !recovered.Equals(a.signer.Address()) {
		return nil, fmt.Errorf("%w: recovered %s", sign.ErrSignerMismatch, recovered)
	}

	store, err := a.getStore()
	if err != nil {
		return nil, err
	}
	dto, err := store.AddSignature(primaryType, payload, res)
	if err != nil {
		return nil, err
	}
	log.FromContext(ctx).Info("signature recorded", "id", dto.ID, "requestID", dto.RequestID, "digest", dto.Digest)
	return dto, nil
}

func (a *App) loadDocument(args []string) (*typeddata.Document, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected a single typed-data file, got %d arguments", len(args))
	}
	return typeddata.Load(args[0])
}

func (a *App) runHash(args []string) error {
	doc, err := a.loadDocument(args)
	if err != nil {
		return err
	}
	enc, h, err := a.hashDocument(doc)
	if err != nil {
		return err
	}
	return a.renderHash(enc, h)
}

func (a *App) runSign(args []string) error {
	doc, err := a.loadDocument(args)
	if err != nil {
		return err
	}
	enc, h, err := a.hashDocument(doc)
	if err != nil {
		return err
	}
	if err := a.renderHash(enc, h); err != nil {
		return err
	}

	dto, err := a.signTypedData(h)
	if err != nil {
		return err
	}
	a.renderSignature(dto)
	return nil
}

func (a *App) runPermit(args []string) error {
	fs := flag.NewFlagSet("permit", flag.ContinueOnError)
	fs.SetOutput(a.out)
	spender := fs.String("spender", defaultSpender, "address allowed to spend the tokens")
	amountStr := fs.String("amount", defaultPermitAmount, "amount in USDC")
	nonce := fs.Uint64("nonce", 0, "permit nonce of the owner")
	ttl := fs.Duration("ttl", defaultPermitTTL, "time until the permit expires")
	if err := fs.Parse(args); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(*amountStr)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be greater than zero: %s", amount)
	}
	rawAmount, err := permit.Amount(amount, usdcDecimals)
	if err != nil {
		return err
	}

	signer, err := a.getSigner()
	if err != nil {
		return err
	}

	p := permit.Permit{
		Owner:    signer.Address().String(),
		Spender:  *spender,
		Value:    rawAmount,
		Nonce:    new(big.Int).SetUint64(*nonce),
		Deadline: permit.DeadlineIn(a.now(), *ttl),
	}
	domain := permit.USDCMainnet

	docJSON, err := p.TypedData(domain).JSON()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Permit for %s USDC:\n%s\n", permit.FormatAmount(rawAmount, usdcDecimals), docJSON)

	h, err := p.Hash(domain, a.conf.EncoderOptions()...)
	if err != nil {
		return err
	}
	reg, err := permit.NewRegistry()
	if err != nil {
		return err
	}
	if err := a.renderHash(eip712.NewEncoder(reg), h); err != nil {
		return err
	}

	dto, err := a.signTypedData(h)
	if err != nil {
		return err
	}
	a.renderSignature(dto)
	return nil
}

func (a *App) runSignMessage(args []string) error {
	message := defaultMessage
	switch len(args) {
	case 0:
	case 1:
		message = args[0]
	default:
		return fmt.Errorf("expected a single message, got %d arguments", len(args))
	}

	enc, err := a.conf.MessageEncoding()
	if err != nil {
		return err
	}
	signer, err := a.getSigner()
	if err != nil {
		return err
	}

	ctx := log.SetContextLogger(context.Background(), a.logger.WithKV("encoding", enc))
	res, err := signer.SignRawPayload(ctx, sign.SignRawPayloadRequest{
		SignWith:     signer.Address().String(),
		Payload:      message,
		Encoding:     enc,
		HashFunction: sign.HashFunctionKeccak256,
	})
	if err != nil {
		return err
	}

	dto, err := a.record(ctx, "", message, res)
	if err != nil {
		return err
	}
	a.renderSignature(dto)
	return nil
}

func (a *App) runHistory(args []string) error {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = n
	}

	store, err := a.getStore()
	if err != nil {
		return err
	}
	sigs, err := store.ListSignatures(limit)
	if err != nil {
		return err
	}

	t := a.newTable()
	t.AppendHeader(table.Row{"Created", "Signer", "Type", "Digest", "V"})
	t.AppendSeparator()
	for _, sig := range sigs {
		primaryType := sig.PrimaryType
		if primaryType == "" {
			primaryType = "message"
		}
		t.AppendRow(table.Row{sig.CreatedAt.Format(time.RFC3339), sig.Signer, primaryType, sig.Digest, sig.V})
	}
	t.Render()
	return nil
}
