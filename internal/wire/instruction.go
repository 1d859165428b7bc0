// Package wire implements the borsh wire format the kernel's instructions
// are exchanged in (account records are stored by internal/store, not
// encoded here), mirroring how the original on-chain
// program's account layouts and anchor-style instruction discriminators were
// encoded. cmd/kernel-node accepts instructions in this format over HTTP
// instead of as Solana transactions, but the byte layout itself is unchanged
// so existing tooling built against the original wire format still parses it.
package wire

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/binary"
)

// Tag identifies an instruction variant. Numbering follows the original
// program's instruction bands so error messages and logs referencing a tag
// number stay meaningful across both implementations.
type Tag uint8

const (
	// Init (0-9)
	TagInitialize Tag = 0
	TagReinitializeConfig Tag = 1

	// Market management (10-29)
	TagCreateMarket   Tag = 10
	TagActivateMarket Tag = 11
	TagPauseMarket    Tag = 12
	TagResumeMarket   Tag = 13
	TagCancelMarket   Tag = 14
	TagFlagMarket     Tag = 15
	TagBeginResolving Tag = 16

	// Complete set (30-39)
	TagMintCompleteSet   Tag = 30
	TagRedeemCompleteSet Tag = 31

	// Orders (40-59)
	TagPlaceOrder  Tag = 40
	TagCancelOrder Tag = 41
	TagMatchMint   Tag = 42
	TagMatchBurn   Tag = 43
	TagExecuteTrade Tag = 44
	TagExpireOrder Tag = 45

	// Oracle (60-79)
	TagProposeResult   Tag = 60
	TagChallengeResult Tag = 61
	TagFinalizeResult  Tag = 62
	TagResolveDispute  Tag = 63

	// Settlement (80-89)
	TagClaimWinnings         Tag = 80
	TagRefundCancelledMarket Tag = 81

	// Admin (90-99)
	TagUpdateAdmin          Tag = 90
	TagUpdateOracleAdmin    Tag = 91
	TagSetPaused            Tag = 92
	TagUpdateOracleConfig   Tag = 93
	TagAddAuthorizedCaller  Tag = 94
	TagRemoveAuthorizedCaller Tag = 95

	// Relayer variants (200-255): a base instruction with tag 0-55 has a
	// relayer counterpart at Tag+200, identical account semantics but signed
	// by an authorized caller acting on behalf of another owner. Tag is a
	// uint8, so base tags above 55 have no such counterpart. Rather than
	// duplicating every payload type, dispatch subtracts RelayerTagOffset from
	// a relayer tag, and for every tag resolves the Envelope's OnBehalfOf
	// field through Config.ResolveActingAs.
	RelayerTagOffset Tag = 200
)

// Envelope wraps an encoded instruction body with its tag and the signer
// metadata needed to authenticate and, for relayer variants, resolve who the
// call is acting on behalf of.
type Envelope struct {
	Tag        Tag
	Signer     [32]byte
	OnBehalfOf [32]byte // zero value: not a relayer call
	Body       []byte
}

// Encode serializes payload with borsh and wraps it in an Envelope.
func Encode(tag Tag, signer [32]byte, onBehalfOf [32]byte, payload interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := binary.NewBorshEncoder(&buf)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("wire: encode payload: %w", err)
	}
	env := Envelope{Tag: tag, Signer: signer, OnBehalfOf: onBehalfOf, Body: buf.Bytes()}
	var envBuf bytes.Buffer
	envEnc := binary.NewBorshEncoder(&envBuf)
	if err := envEnc.Encode(env); err != nil {
		return nil, fmt.Errorf("wire: encode envelope: %w", err)
	}
	return envBuf.Bytes(), nil
}

// DecodeEnvelope parses the outer Envelope without touching its Body.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	dec := binary.NewBorshDecoder(data)
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("wire: decode envelope: %w", err)
	}
	return &env, nil
}

// DecodeBody unmarshals an Envelope's Body into dst.
func DecodeBody(body []byte, dst interface{}) error {
	dec := binary.NewBorshDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("wire: decode body: %w", err)
	}
	return nil
}

// Discriminator computes the 8-byte anchor-style instruction discriminator
// (sha256("global:<name>")[:8]) used to tag account/instruction kinds on the
// original wire format; kept for compatibility with tooling that filters
// accounts by discriminator rather than by this package's Tag.
func Discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

// CreateMarketPayload is the borsh body of TagCreateMarket.
type CreateMarketPayload struct {
	MarketID       uint64
	OutcomeCount   uint8
	CreatorFeeBps  uint16
	ResolutionTime int64
}

// PlaceOrderPayload is the borsh body of TagPlaceOrder.
type PlaceOrderPayload struct {
	MarketID  uint64
	Outcome   uint8
	Side      uint8
	Price     uint64
	Amount    uint64
	ExpiresAt int64
}

// MintCompleteSetPayload is the borsh body of TagMintCompleteSet and
// TagRedeemCompleteSet.
type MintCompleteSetPayload struct {
	MarketID uint64
	Amount   uint64
}

// ProposeResultPayload is the borsh body of TagProposeResult.
type ProposeResultPayload struct {
	MarketID uint64
	Outcome  uint8
	Void     bool
}

// ResolveDisputePayload is the borsh body of TagResolveDispute.
type ResolveDisputePayload struct {
	MarketID         uint64
	FinalOutcome     uint8
	FinalVoid        bool
	ProposerWasRight bool
}

// FlagMarketPayload is the borsh body of TagFlagMarket.
type FlagMarketPayload struct {
	MarketID uint64
}

// MarketIDPayload is the borsh body of the instructions whose only argument
// is the target market: TagBeginResolving, TagChallengeResult,
// TagFinalizeResult, TagClaimWinnings and TagRefundCancelledMarket.
type MarketIDPayload struct {
	MarketID uint64
}

// OrderIDPayload is the borsh body of TagCancelOrder and TagExpireOrder.
type OrderIDPayload struct {
	OrderID []byte
}

// MatchOrdersPayload is the borsh body of TagMatchMint and TagMatchBurn: two
// resting orders on complementary outcomes settled against each other.
type MatchOrdersPayload struct {
	MarketID uint64
	OrderA   []byte
	OrderB   []byte
	Amount   uint64
}

// ExecuteTradePayload is the borsh body of TagExecuteTrade: a resting Buy and
// a resting Sell on the same outcome, settled at the maker's price.
type ExecuteTradePayload struct {
	MarketID  uint64
	BuyOrder  []byte
	SellOrder []byte
	Amount    uint64
}

// UpdateAdminPayload is the borsh body of TagUpdateAdmin.
type UpdateAdminPayload struct {
	NewAdmin [32]byte
}

// UpdateOracleAdminPayload is the borsh body of TagUpdateOracleAdmin.
type UpdateOracleAdminPayload struct {
	NewOracleAdmin [32]byte
}

// UpdateOracleConfigPayload is the borsh body of TagUpdateOracleConfig.
type UpdateOracleConfigPayload struct {
	ProposerBond                uint64
	ChallengerBond              uint64
	ChallengeWindowSeconds      int64
	FinalizationDeadlineSeconds int64
}

// AuthorizedCallerPayload is the borsh body of TagAddAuthorizedCaller and
// TagRemoveAuthorizedCaller.
type AuthorizedCallerPayload struct {
	Caller [32]byte
}

// ReinitializeConfigPayload is the borsh body of TagReinitializeConfig.
type ReinitializeConfigPayload struct {
	VaultProgram                [32]byte
	FundProgram                 [32]byte
	ProtocolFeeBps              uint16
	ProposerBond                uint64
	ChallengerBond              uint64
	ChallengeWindowSeconds      int64
	FinalizationDeadlineSeconds int64
}
