// Package sign defines the signing collaborator that turns a digest into
// an (r, s, v) signature.
//
// Signer, PublicKey and Address are curve-agnostic interfaces;
// EthereumSigner implements them over a secp256k1 key.
//
// RawPayloadSigner is the request-level contract: a caller hands over a
// payload together with how it is encoded and which hash function the
// signer must apply before signing, and receives the signature components.
// LocalSigner fulfils that contract with an in-process Signer.
//
//	signer, err := sign.NewEthereumSigner(privateKeyHex)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	local := sign.NewLocalSigner(signer, logger)
//	res, err := local.SignRawPayload(ctx, sign.SignRawPayloadRequest{
//	    SignWith:     signer.PublicKey().Address().String(),
//	    Payload:      digest.Hex(),
//	    Encoding:     sign.PayloadEncodingHexadecimal,
//	    HashFunction: sign.HashFunctionNoOp,
//	})
//
// Private key material never leaves a Signer.
package sign
