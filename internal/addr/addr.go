// Package addr derives deterministic record addresses from a market's seeds,
// the same way the original program derived program-derived addresses (PDAs)
// for each account it owned. There is no live program or cluster here: an
// Address is just sha256(seeds...), truncated/encoded the way the rest of the
// kernel expects identifiers to look (32 bytes, base58-printable).
package addr

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Address is a 32-byte deterministic record identifier.
type Address = solana.PublicKey

func derive(seeds ...[]byte) Address {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	var out Address
	copy(out[:], h.Sum(nil))
	return out
}

func u64LE(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func u8(v uint8) []byte { return []byte{v} }

// ConfigAddress derives the singleton protocol Config record address.
func ConfigAddress(namespace []byte) Address {
	return derive([]byte("config"), namespace)
}

// MarketAddress derives a Market record address from its numeric ID.
func MarketAddress(namespace []byte, marketID uint64) Address {
	return derive([]byte("market"), namespace, u64LE(marketID))
}

// MarketVaultAddress derives the escrow address a market's locked currency is
// held under.
func MarketVaultAddress(namespace []byte, marketID uint64) Address {
	return derive([]byte("market-vault"), namespace, u64LE(marketID))
}

// PositionAddress derives an owner's Position record address within a market.
func PositionAddress(namespace []byte, marketID uint64, owner Address) Address {
	return derive([]byte("position"), namespace, u64LE(marketID), owner[:])
}

// OrderAddress derives an Order record address from its market and a
// caller-supplied nonce (e.g. the owner's next sequence number).
func OrderAddress(namespace []byte, marketID uint64, owner Address, nonce uint64) Address {
	return derive([]byte("order"), namespace, u64LE(marketID), owner[:], u64LE(nonce))
}

// OracleProposalAddress derives the OracleProposal record address for a
// market; a market has at most one live proposal at a time.
func OracleProposalAddress(namespace []byte, marketID uint64) Address {
	return derive([]byte("oracle-proposal"), namespace, u64LE(marketID))
}

// OutcomeMintAddress derives the legacy V1 per-outcome mint address. Kept
// only so a TokenLedger migration implementation has somewhere to derive
// accounts from; no V2 code path calls it.
func OutcomeMintAddress(namespace []byte, marketID uint64, outcome uint8) Address {
	return derive([]byte("outcome-mint"), namespace, u64LE(marketID), u8(outcome))
}

// MustParse panics if s is not a valid base58-encoded Address, mirroring the
// teacher's MustDerive* helpers used for values baked in at startup.
func MustParse(s string) Address {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}
