package kernel

import "github.com/gagliardetto/solana-go"

// Identity is a 32-byte account identifier, the same compact representation
// the original program used for every signer and PDA. We reuse solana.PublicKey
// purely as a base58-codec'd [32]byte value; no cluster or RPC semantics apply.
type Identity = solana.PublicKey

// ZeroIdentity is the unset/zero Identity value.
var ZeroIdentity Identity

func isZeroIdentity(id Identity) bool {
	return id == ZeroIdentity
}

// ParseIdentity decodes a base58-encoded Identity, the wire representation
// used in query paths and config.
func ParseIdentity(s string) (Identity, error) {
	return solana.PublicKeyFromBase58(s)
}
