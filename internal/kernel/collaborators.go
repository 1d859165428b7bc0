package kernel

import "context"

// VaultCollaborator is the custody program the kernel invokes to move base
// currency in and out of escrow. It is an external collaborator: this package
// only declares the interface the kernel calls through (the spec's CPI
// boundary), never an implementation. internal/vaultsim provides an in-memory
// one for tests and internal/node's default runtime.
type VaultCollaborator interface {
	// Lock escrows amount of the market's base currency on behalf of owner,
	// debiting owner's external balance.
	Lock(ctx context.Context, marketID []byte, owner Identity, amount uint64) error
	// Unlock reverses a prior Lock, crediting owner's external balance.
	Unlock(ctx context.Context, marketID []byte, owner Identity, amount uint64) error
	// Settle pays amount out of a market's escrow directly to recipient,
	// without crediting it back to any locked balance first (used by
	// ClaimWinnings and RefundCancelledMarket).
	Settle(ctx context.Context, marketID []byte, recipient Identity, amount uint64) error
}

// FundCollaborator receives protocol fees collected at trade/mint/redeem time.
// Complete-set mint/redeem fees, ExecuteTrade fees and the MatchMint price
// gap are all paid in through ReceiveFee; none of them pass through the Vault
// collaborator.
type FundCollaborator interface {
	ReceiveFee(ctx context.Context, marketID []byte, amount uint64) error
}

// TokenLedger is the V1 SPL-token-mirrored accounting interface: each outcome
// had a real mint and holders held real token accounts. V2 drops per-outcome
// mints in favor of Position records, so TokenLedger is not used by any
// current operation; it is kept only as a migration seam documented in
// DESIGN.md.
type TokenLedger interface {
	Mint(ctx context.Context, marketID []byte, outcome uint8, owner Identity, amount uint64) error
	Burn(ctx context.Context, marketID []byte, outcome uint8, owner Identity, amount uint64) error
}
