package kernel

import "context"

// MatchMint settles two complementary resting Buy orders (one per outcome, on
// a binary market: Yes against No) by minting a complete set directly from
// their already-escrowed collateral, rather than trading against each other's
// tokens. The combined price must be at or below PricePrecision; whatever
// slack remains after paying for the minted set is forwarded to the fund
// collaborator as matching-engine revenue.
func MatchMint(ctx context.Context, market *Market, buyA, buyB *Order, posA, posB *Position, fund FundCollaborator, amount uint64) error {
	if err := market.RequireActive(); err != nil {
		return err
	}
	if buyA.Side != Buy || buyB.Side != Buy {
		return newErr("MatchMint", CodeInvalidInstruction)
	}
	if buyA.Outcome == buyB.Outcome {
		return newErr("MatchMint", CodeSelfTrade)
	}
	if err := market.ValidateOutcomeIndex(buyA.Outcome); err != nil {
		return err
	}
	if err := market.ValidateOutcomeIndex(buyB.Outcome); err != nil {
		return err
	}
	if amount == 0 || amount > buyA.Remaining() || amount > buyB.Remaining() {
		return newErr("MatchMint", CodeInvalidOrderAmount)
	}
	if err := ValidatePriceSumForMint([]uint64{buyA.Price, buyB.Price}); err != nil {
		return err
	}

	costA := CalculateBuyCost(amount, buyA.Price)
	costB := CalculateBuyCost(amount, buyB.Price)
	totalLocked, err := AddU64(costA, costB)
	if err != nil {
		return err
	}
	if totalLocked > amount {
		// Guarded by ValidatePriceSumForMint, but defend against rounding.
		return newErr("MatchMint", CodePriceSumInvalid)
	}
	slack := amount - totalLocked

	if err := applyFill(buyA, amount); err != nil {
		return err
	}
	if err := applyFill(buyB, amount); err != nil {
		return err
	}
	if err := posA.Credit(int(buyA.Outcome), amount); err != nil {
		return err
	}
	if err := posB.Credit(int(buyB.Outcome), amount); err != nil {
		return err
	}
	if err := market.RecordVolume(amount); err != nil {
		return err
	}
	if slack > 0 {
		if err := fund.ReceiveFee(ctx, market.MarketID, slack); err != nil {
			return wrapErr("MatchMint", CodeFundCallFailed, err)
		}
	}
	return nil
}

// MatchBurn settles two complementary resting Sell orders by burning a
// complete set across the two sellers' positions (one unit of each outcome)
// and releasing its escrowed value back to them, pro-rata to their limit
// prices. The combined price must be at or above PricePrecision; the payout
// is normalized so the two sellers never draw more than one complete set's
// worth of escrow in total.
func MatchBurn(ctx context.Context, market *Market, sellA, sellB *Order, posA, posB *Position, vault VaultCollaborator, amount uint64) error {
	if err := market.RequireActive(); err != nil {
		return err
	}
	if sellA.Side != Sell || sellB.Side != Sell {
		return newErr("MatchBurn", CodeInvalidInstruction)
	}
	if sellA.Outcome == sellB.Outcome {
		return newErr("MatchBurn", CodeSelfTrade)
	}
	if amount == 0 || amount > sellA.Remaining() || amount > sellB.Remaining() {
		return newErr("MatchBurn", CodeInvalidOrderAmount)
	}
	if err := ValidatePriceSumForBurn([]uint64{sellA.Price, sellB.Price}); err != nil {
		return err
	}

	if err := posA.Release(int(sellA.Outcome), amount); err != nil {
		return err
	}
	if err := posB.Release(int(sellB.Outcome), amount); err != nil {
		return err
	}
	if err := posA.Debit(int(sellA.Outcome), amount); err != nil {
		return err
	}
	if err := posB.Debit(int(sellB.Outcome), amount); err != nil {
		return err
	}

	priceSum := sellA.Price + sellB.Price
	payoutA := mulDivFloor(amount, sellA.Price, priceSum)
	payoutB := amount - payoutA

	if err := applyFill(sellA, amount); err != nil {
		return err
	}
	if err := applyFill(sellB, amount); err != nil {
		return err
	}
	if payoutA > 0 {
		if err := vault.Settle(ctx, market.MarketID, sellA.Owner, payoutA); err != nil {
			return wrapErr("MatchBurn", CodeVaultCallFailed, err)
		}
	}
	if payoutB > 0 {
		if err := vault.Settle(ctx, market.MarketID, sellB.Owner, payoutB); err != nil {
			return wrapErr("MatchBurn", CodeVaultCallFailed, err)
		}
	}
	return market.RecordVolume(amount)
}

// ExecuteTrade settles a direct Buy/Sell match on the same outcome at the
// resting (maker) price: the buyer's escrowed currency is paid to the seller,
// the seller's reserved tokens move to the buyer's position.
func ExecuteTrade(ctx context.Context, market *Market, buy, sell *Order, buyerPos, sellerPos *Position, vault VaultCollaborator, fund FundCollaborator, cfg *Config, amount uint64) error {
	if err := market.RequireActive(); err != nil {
		return err
	}
	if buy.Side != Buy || sell.Side != Sell {
		return newErr("ExecuteTrade", CodeInvalidInstruction)
	}
	if buy.Outcome != sell.Outcome {
		return newErr("ExecuteTrade", CodeInvalidInstruction)
	}
	if buy.Owner == sell.Owner {
		return newErr("ExecuteTrade", CodeSelfTrade)
	}
	if amount == 0 || amount > buy.Remaining() || amount > sell.Remaining() {
		return newErr("ExecuteTrade", CodeInvalidOrderAmount)
	}
	if sell.Price > buy.Price {
		return newErr("ExecuteTrade", CodeInvalidOrderPrice)
	}

	execPrice := sell.Price // resting maker order sets the execution price
	grossCost := CalculateBuyCost(amount, execPrice)
	fee := CalculateFee(grossCost, cfg.ProtocolFeeBps)
	netToSeller := grossCost - fee

	if err := sellerPos.Release(int(sell.Outcome), amount); err != nil {
		return err
	}
	if err := sellerPos.Debit(int(sell.Outcome), amount); err != nil {
		return err
	}
	if err := buyerPos.Credit(int(buy.Outcome), amount); err != nil {
		return err
	}

	// The buyer locked at their own (possibly higher) limit price; refund the
	// improvement between their limit and the maker's execution price.
	buyerLockedCost := CalculateBuyCost(amount, buy.Price)
	improvement := uint64(0)
	if buyerLockedCost > grossCost {
		improvement = buyerLockedCost - grossCost
	}
	if improvement > 0 {
		if err := vault.Unlock(ctx, market.MarketID, buy.Owner, improvement); err != nil {
			return wrapErr("ExecuteTrade", CodeVaultCallFailed, err)
		}
	}
	if err := vault.Settle(ctx, market.MarketID, sell.Owner, netToSeller); err != nil {
		return wrapErr("ExecuteTrade", CodeVaultCallFailed, err)
	}
	if fee > 0 {
		if err := fund.ReceiveFee(ctx, market.MarketID, fee); err != nil {
			return wrapErr("ExecuteTrade", CodeFundCallFailed, err)
		}
	}

	if err := applyFill(buy, amount); err != nil {
		return err
	}
	if err := applyFill(sell, amount); err != nil {
		return err
	}
	return market.RecordVolume(amount)
}

// MatchMintMulti generalizes MatchMint to an N-outcome market: one Buy order
// per outcome, all filled by the same amount, minting one complete set.
func MatchMintMulti(ctx context.Context, market *Market, orders []*Order, positions []*Position, fund FundCollaborator, amount uint64) error {
	if err := market.RequireActive(); err != nil {
		return err
	}
	if len(orders) != int(market.OutcomeCount) || len(positions) != len(orders) {
		return newErr("MatchMintMulti", CodeInvalidOutcomeCount)
	}
	seen := make(map[uint8]bool, len(orders))
	prices := make([]uint64, len(orders))
	var totalLocked uint64
	for i, o := range orders {
		if o.Side != Buy {
			return newErr("MatchMintMulti", CodeInvalidInstruction)
		}
		if seen[o.Outcome] {
			return newErr("MatchMintMulti", CodeSelfTrade)
		}
		seen[o.Outcome] = true
		if amount == 0 || amount > o.Remaining() {
			return newErr("MatchMintMulti", CodeInvalidOrderAmount)
		}
		prices[i] = o.Price
		cost := CalculateBuyCost(amount, o.Price)
		sum, err := AddU64(totalLocked, cost)
		if err != nil {
			return err
		}
		totalLocked = sum
	}
	if err := ValidatePriceSumForMint(prices); err != nil {
		return err
	}
	if totalLocked > amount {
		return newErr("MatchMintMulti", CodePriceSumInvalid)
	}
	slack := amount - totalLocked

	for i, o := range orders {
		if err := applyFill(o, amount); err != nil {
			return err
		}
		if err := positions[i].Credit(int(o.Outcome), amount); err != nil {
			return err
		}
	}
	if err := market.RecordVolume(amount); err != nil {
		return err
	}
	if slack > 0 {
		if err := fund.ReceiveFee(ctx, market.MarketID, slack); err != nil {
			return wrapErr("MatchMintMulti", CodeFundCallFailed, err)
		}
	}
	return nil
}

// MatchBurnMulti generalizes MatchBurn to an N-outcome market: one Sell order
// per outcome, burning a complete set and splitting its escrowed value
// pro-rata to the sellers' limit prices.
func MatchBurnMulti(ctx context.Context, market *Market, orders []*Order, positions []*Position, vault VaultCollaborator, amount uint64) error {
	if err := market.RequireActive(); err != nil {
		return err
	}
	if len(orders) != int(market.OutcomeCount) || len(positions) != len(orders) {
		return newErr("MatchBurnMulti", CodeInvalidOutcomeCount)
	}
	seen := make(map[uint8]bool, len(orders))
	prices := make([]uint64, len(orders))
	var priceSum uint64
	for i, o := range orders {
		if o.Side != Sell {
			return newErr("MatchBurnMulti", CodeInvalidInstruction)
		}
		if seen[o.Outcome] {
			return newErr("MatchBurnMulti", CodeSelfTrade)
		}
		seen[o.Outcome] = true
		if amount == 0 || amount > o.Remaining() {
			return newErr("MatchBurnMulti", CodeInvalidOrderAmount)
		}
		prices[i] = o.Price
		priceSum += o.Price
	}
	if err := ValidatePriceSumForBurn(prices); err != nil {
		return err
	}

	for i, o := range orders {
		if err := positions[i].Release(int(o.Outcome), amount); err != nil {
			return err
		}
		if err := positions[i].Debit(int(o.Outcome), amount); err != nil {
			return err
		}
	}

	var distributed uint64
	for i, o := range orders {
		var payout uint64
		if i == len(orders)-1 {
			payout = amount - distributed
		} else {
			payout = mulDivFloor(amount, o.Price, priceSum)
			distributed += payout
		}
		if err := applyFill(o, amount); err != nil {
			return err
		}
		if payout > 0 {
			if err := vault.Settle(ctx, market.MarketID, o.Owner, payout); err != nil {
				return wrapErr("MatchBurnMulti", CodeVaultCallFailed, err)
			}
		}
	}
	return market.RecordVolume(amount)
}
