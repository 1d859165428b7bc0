package kernel

import "context"

// ClaimWinnings implements ClaimWinnings: pays a resolved market's winning
// balance out of escrow to its owner, exactly once per position.
func ClaimWinnings(ctx context.Context, market *Market, pos *Position, vault VaultCollaborator, caller Identity) (uint64, error) {
	if market.Status != MarketResolved {
		return 0, newErr("ClaimWinnings", CodeMarketNotResolving)
	}
	if pos.Owner != caller {
		return 0, newErr("ClaimWinnings", CodeUnauthorized)
	}
	if pos.Claimed {
		return 0, newErr("ClaimWinnings", CodePositionAlreadyClaimed)
	}
	if market.Result == nil {
		return 0, newErr("ClaimWinnings", CodePositionNotSettled)
	}
	amount := pos.WinningBalance(*market.Result)
	pos.Claimed = true
	if amount == 0 {
		return 0, nil
	}
	if err := vault.Settle(ctx, market.MarketID, caller, amount); err != nil {
		return 0, wrapErr("ClaimWinnings", CodeVaultCallFailed, err)
	}
	return amount, nil
}

// RefundCancelledMarket implements RefundCancelledMarket: a cancelled
// market's position is refunded one currency unit per complete set it still
// represents, i.e. the lowest owned balance across outcomes. Tokens held
// beyond that floor on individual outcomes are not refunded.
func RefundCancelledMarket(ctx context.Context, market *Market, pos *Position, vault VaultCollaborator, caller Identity) (uint64, error) {
	if market.Status != MarketCancelled {
		return 0, newErr("RefundCancelledMarket", CodeMarketNotResolving)
	}
	if pos.Owner != caller {
		return 0, newErr("RefundCancelledMarket", CodeUnauthorized)
	}
	if pos.Claimed {
		return 0, newErr("RefundCancelledMarket", CodePositionAlreadyClaimed)
	}
	amount := completeSetFloor(pos.Owned)
	pos.Claimed = true
	if amount == 0 {
		return 0, nil
	}
	if err := vault.Settle(ctx, market.MarketID, caller, amount); err != nil {
		return 0, wrapErr("RefundCancelledMarket", CodeVaultCallFailed, err)
	}
	return amount, nil
}

// completeSetFloor returns the largest amount refundable 1:1 per complete set
// represented across balances, i.e. the minimum owned balance across all
// outcomes (any outcome tokens held beyond that are residue from partial
// fills and are not refunded, per the cancelled-market settlement rule).
func completeSetFloor(owned []uint64) uint64 {
	if len(owned) == 0 {
		return 0
	}
	min := owned[0]
	for _, v := range owned[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
