package kernel

import "context"

// OrderSide is Buy (acquire outcome tokens) or Sell (dispose of outcome
// tokens) for a single outcome index within a market.
type OrderSide uint8

const (
	Buy OrderSide = iota
	Sell
)

// OrderStatus tracks an order through the matching engine.
type OrderStatus uint8

const (
	OrderOpen OrderStatus = iota
	OrderPartiallyFilled
	OrderFilled
	OrderCancelled
	OrderExpired
)

// Order is a resting limit order against a single outcome of a market. Price
// is fixed-point, PricePrecision-scaled.
type Order struct {
	OrderID     []byte
	MarketID    []byte
	Owner       Identity
	Outcome     uint8
	Side        OrderSide
	Price       uint64
	Amount      uint64
	Filled      uint64
	Status      OrderStatus
	CreatedAt   int64
	ExpiresAt   int64
}

// Remaining returns the unfilled portion of the order.
func (o *Order) Remaining() uint64 {
	if o.Filled >= o.Amount {
		return 0
	}
	return o.Amount - o.Filled
}

// IsExpired reports whether now is at or past the order's expiry, if any
// (ExpiresAt == 0 means the order never expires).
func (o *Order) IsExpired(now int64) bool {
	return o.ExpiresAt != 0 && now >= o.ExpiresAt
}

// PlaceOrder implements PlaceOrder: validates the order, reserves collateral
// (a currency lock for Buy, an outcome-token reservation for Sell) and
// returns the resting Order.
func PlaceOrder(ctx context.Context, market *Market, pos *Position, vault VaultCollaborator, orderID []byte, owner Identity, outcome uint8, side OrderSide, price, amount uint64, now, expiresAt int64) (*Order, error) {
	if err := market.RequireActive(); err != nil {
		return nil, err
	}
	if err := market.ValidateOutcomeIndex(outcome); err != nil {
		return nil, err
	}
	if err := ValidatePrice(price); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, newErr("PlaceOrder", CodeInvalidOrderAmount)
	}
	if expiresAt != 0 && expiresAt <= now {
		return nil, newErr("PlaceOrder", CodeOrderExpired)
	}

	switch side {
	case Buy:
		cost := CalculateBuyCost(amount, price)
		if err := vault.Lock(ctx, market.MarketID, owner, cost); err != nil {
			return nil, wrapErr("PlaceOrder", CodeVaultCallFailed, err)
		}
	case Sell:
		if err := pos.Reserve(int(outcome), amount); err != nil {
			return nil, err
		}
	default:
		return nil, newErr("PlaceOrder", CodeInvalidInstruction)
	}

	return &Order{
		OrderID:   orderID,
		MarketID:  market.MarketID,
		Owner:     owner,
		Outcome:   outcome,
		Side:      side,
		Price:     price,
		Amount:    amount,
		Status:    OrderOpen,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}, nil
}

// CancelOrder implements CancelOrder: releases whatever collateral remains
// locked behind the unfilled portion of the order.
func CancelOrder(ctx context.Context, order *Order, pos *Position, vault VaultCollaborator, caller Identity, now int64) error {
	if caller != order.Owner {
		return newErr("CancelOrder", CodeUnauthorized)
	}
	if order.Status != OrderOpen && order.Status != OrderPartiallyFilled {
		return newErr("CancelOrder", CodeOrderNotOpen)
	}
	remaining := order.Remaining()
	if err := releaseOrderCollateral(ctx, order, pos, vault, remaining); err != nil {
		return err
	}
	if order.IsExpired(now) {
		order.Status = OrderExpired
	} else {
		order.Status = OrderCancelled
	}
	return nil
}

// ExpireOrder is the permissionless counterpart to CancelOrder used by the
// keeper daemon: anyone may flag a past-expiry order, releasing its
// collateral back to its owner.
func ExpireOrder(ctx context.Context, order *Order, pos *Position, vault VaultCollaborator, now int64) error {
	if order.Status != OrderOpen && order.Status != OrderPartiallyFilled {
		return newErr("ExpireOrder", CodeOrderNotOpen)
	}
	if !order.IsExpired(now) {
		return newErr("ExpireOrder", CodeOrderNotOpen)
	}
	remaining := order.Remaining()
	if err := releaseOrderCollateral(ctx, order, pos, vault, remaining); err != nil {
		return err
	}
	order.Status = OrderExpired
	return nil
}

func releaseOrderCollateral(ctx context.Context, order *Order, pos *Position, vault VaultCollaborator, remaining uint64) error {
	if remaining == 0 {
		return nil
	}
	switch order.Side {
	case Buy:
		cost := CalculateBuyCost(remaining, order.Price)
		if err := vault.Unlock(ctx, order.MarketID, order.Owner, cost); err != nil {
			return wrapErr("releaseOrderCollateral", CodeVaultCallFailed, err)
		}
	case Sell:
		if err := pos.Release(int(order.Outcome), remaining); err != nil {
			return err
		}
	}
	return nil
}

// applyFill advances an order's fill accounting and status.
func applyFill(order *Order, amount uint64) error {
	if amount > order.Remaining() {
		return newErr("applyFill", CodeInvalidOrderAmount)
	}
	order.Filled += amount
	if order.Filled == order.Amount {
		order.Status = OrderFilled
	} else {
		order.Status = OrderPartiallyFilled
	}
	return nil
}
