package kernel

// Position tracks one owner's outcome-token balances within one market. Owned
// and Reserved are parallel slices indexed by outcome; Reserved tracks tokens
// locked behind open sell orders so they cannot be double-spent across
// multiple resting orders.
type Position struct {
	Owner    Identity
	MarketID []byte
	Owned    []uint64
	Reserved []uint64
	Claimed  bool
}

// NewPosition allocates a zeroed Position for owner in a market with the
// given outcome count.
func NewPosition(owner Identity, marketID []byte, outcomeCount uint8) *Position {
	return &Position{
		Owner:    owner,
		MarketID: marketID,
		Owned:    make([]uint64, outcomeCount),
		Reserved: make([]uint64, outcomeCount),
	}
}

func (p *Position) checkIndex(idx int) error {
	if idx < 0 || idx >= len(p.Owned) {
		return newErr("Position", CodeOutcomeIndexOutOfRange)
	}
	return nil
}

// Credit increases the owned balance of outcome idx by amount.
func (p *Position) Credit(idx int, amount uint64) error {
	if err := p.checkIndex(idx); err != nil {
		return err
	}
	v, err := AddU64(p.Owned[idx], amount)
	if err != nil {
		return err
	}
	p.Owned[idx] = v
	return nil
}

// Debit decreases the owned balance of outcome idx by amount, failing with
// InsufficientPosition if the balance would go negative.
func (p *Position) Debit(idx int, amount uint64) error {
	if err := p.checkIndex(idx); err != nil {
		return err
	}
	if p.Owned[idx] < amount {
		return newErr("Debit", CodeInsufficientPosition)
	}
	p.Owned[idx] -= amount
	return nil
}

// AvailableBalance returns the owned balance not currently reserved behind a
// resting sell order.
func (p *Position) AvailableBalance(idx int) (uint64, error) {
	if err := p.checkIndex(idx); err != nil {
		return 0, err
	}
	if p.Reserved[idx] > p.Owned[idx] {
		return 0, nil
	}
	return p.Owned[idx] - p.Reserved[idx], nil
}

// Reserve locks amount of outcome idx's owned balance behind a resting order.
func (p *Position) Reserve(idx int, amount uint64) error {
	avail, err := p.AvailableBalance(idx)
	if err != nil {
		return err
	}
	if avail < amount {
		return newErr("Reserve", CodeInsufficientPosition)
	}
	p.Reserved[idx] += amount
	return nil
}

// Release frees a previously-reserved amount, e.g. on order cancellation.
func (p *Position) Release(idx int, amount uint64) error {
	if err := p.checkIndex(idx); err != nil {
		return err
	}
	if p.Reserved[idx] < amount {
		return newErr("Release", CodeInsufficientPosition)
	}
	p.Reserved[idx] -= amount
	return nil
}

// CreditAll credits every outcome by amount, the effect of minting one
// complete set.
func (p *Position) CreditAll(amount uint64) error {
	for i := range p.Owned {
		if err := p.Credit(i, amount); err != nil {
			return err
		}
	}
	return nil
}

// DebitAll debits every outcome by amount, the effect of redeeming one
// complete set.
func (p *Position) DebitAll(amount uint64) error {
	for i := range p.Owned {
		if p.Owned[i] < amount {
			return newErr("DebitAll", CodeInsufficientCompleteSets)
		}
	}
	for i := range p.Owned {
		p.Owned[i] -= amount
	}
	return nil
}

// WinningBalance returns the owned balance of the market's winning outcome,
// or, if the market resolved void, the same complete-set floor
// RefundCancelledMarket pays out: the minimum owned balance across outcomes,
// since a void result carries no winning side to pay in full.
func (p *Position) WinningBalance(result MarketResult) uint64 {
	if result.Void {
		return completeSetFloor(p.Owned)
	}
	if int(result.WinningOutcome) >= len(p.Owned) {
		return 0
	}
	return p.Owned[result.WinningOutcome]
}
