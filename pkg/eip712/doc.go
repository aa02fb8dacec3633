// Package eip712 computes EIP-712 structured-data digests.
//
// The package is split the way the digest is built:
//
//   - Registry: named struct schemas, each an ordered list of (type, name) fields
//   - Value: a tagged value tree (string, unsigned integer or struct) to hash
//   - Encoder: type signatures, field-wise data encoding, struct hashes and
//     the final 0x1901-prefixed signing digest
//
// A Registry is built once and sealed by NewEncoder; after that it is
// read-only and an Encoder may be shared between goroutines.
//
// # Supported types
//
// Only the scalar types string, address and uint256 are encoded, plus
// references to other registered schemas. Arrays and other numeric widths
// are not supported.
//
// # Encoding policy
//
// The default PolicyTolerant mirrors what most hand-rolled encoders do: a
// field missing from the value, a field with an unknown type, or a value of
// the wrong kind simply contributes no slot to the encoded data. That yields
// a digest that no standard wallet will reproduce, so PolicyStrict turns each
// of those cases into an error.
//
// # Usage
//
//	reg := eip712.NewRegistry()
//	_ = reg.Define("EIP712Domain",
//	    eip712.Field{Type: "string", Name: "name"},
//	    eip712.Field{Type: "uint256", Name: "chainId"},
//	)
//	_ = reg.Define("Greeting", eip712.Field{Type: "string", Name: "text"})
//
//	enc := eip712.NewEncoder(reg, eip712.WithPolicy(eip712.PolicyStrict))
//	digest, err := enc.FinalDigest(
//	    "EIP712Domain", eip712.Struct(map[string]eip712.Value{
//	        "name":    eip712.String("demo"),
//	        "chainId": eip712.Uint(1),
//	    }),
//	    "Greeting", eip712.Struct(map[string]eip712.Value{
//	        "text": eip712.String("hello"),
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(digest.Hex())
package eip712
