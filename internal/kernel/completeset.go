package kernel

import "context"

// completeSetFeeBps returns the combined protocol+creator fee rate applied to
// complete-set mints and redemptions on market, under cfg.
func completeSetFeeBps(cfg *Config, market *Market) uint16 {
	return cfg.ProtocolFeeBps + market.CreatorFeeBps
}

// MintCompleteSet implements MintCompleteSet: locks amount units of base
// currency from caller, deducts the protocol+creator fee and routes it to
// fund, then credits the post-fee amount of every outcome token to pos.
func MintCompleteSet(ctx context.Context, market *Market, cfg *Config, pos *Position, vault VaultCollaborator, fund FundCollaborator, caller Identity, amount uint64, now int64) error {
	if err := market.RequireActive(); err != nil {
		return err
	}
	if amount == 0 {
		return newErr("MintCompleteSet", CodeInvalidCompleteSetAmount)
	}
	if err := vault.Lock(ctx, market.MarketID, caller, amount); err != nil {
		return wrapErr("MintCompleteSet", CodeVaultCallFailed, err)
	}
	feeBps := completeSetFeeBps(cfg, market)
	fee := CalculateFee(amount, feeBps)
	net := AmountAfterFee(amount, feeBps)
	if err := pos.CreditAll(net); err != nil {
		return err
	}
	outstanding, err := AddU64(market.OutstandingCompleteSets, net)
	if err != nil {
		return err
	}
	market.OutstandingCompleteSets = outstanding
	if fee > 0 {
		if err := fund.ReceiveFee(ctx, market.MarketID, fee); err != nil {
			return wrapErr("MintCompleteSet", CodeFundCallFailed, err)
		}
	}
	return market.RecordVolume(amount)
}

// RedeemCompleteSet implements RedeemCompleteSet: debits amount of every
// outcome token from pos, deducts the protocol+creator fee and routes it to
// fund, then releases the post-fee amount of base currency back to caller.
// Valid any time the market is not yet resolved or cancelled (those use
// ClaimWinnings/RefundCancelledMarket instead).
func RedeemCompleteSet(ctx context.Context, market *Market, cfg *Config, pos *Position, vault VaultCollaborator, fund FundCollaborator, caller Identity, amount uint64) error {
	if market.Status == MarketResolved || market.Status == MarketCancelled {
		return newErr("RedeemCompleteSet", CodeMarketAlreadyResolved)
	}
	if amount == 0 {
		return newErr("RedeemCompleteSet", CodeInvalidCompleteSetAmount)
	}
	if err := pos.DebitAll(amount); err != nil {
		return err
	}
	if market.OutstandingCompleteSets < amount {
		return newErr("RedeemCompleteSet", CodeInsufficientCompleteSets)
	}
	market.OutstandingCompleteSets -= amount
	feeBps := completeSetFeeBps(cfg, market)
	fee := CalculateFee(amount, feeBps)
	net := AmountAfterFee(amount, feeBps)
	if err := vault.Unlock(ctx, market.MarketID, caller, net); err != nil {
		return wrapErr("RedeemCompleteSet", CodeVaultCallFailed, err)
	}
	if fee > 0 {
		if err := fund.ReceiveFee(ctx, market.MarketID, fee); err != nil {
			return wrapErr("RedeemCompleteSet", CodeFundCallFailed, err)
		}
	}
	return market.RecordVolume(amount)
}
