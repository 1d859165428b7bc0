package kernel

// MarketStatus tracks the market lifecycle from creation through settlement.
type MarketStatus uint8

const (
	MarketPending MarketStatus = iota
	MarketActive
	MarketPaused
	MarketResolving
	MarketResolved
	MarketCancelled
	MarketUnderReview
)

// MinOutcomes and MaxOutcomes bound N-outcome markets; 2 is the binary case.
const (
	MinOutcomes = 2
	MaxOutcomes = 16

	// minResolutionLeadSeconds is the minimum gap between market creation and
	// its resolution time, guarding against markets that expire before anyone
	// can trade them.
	minResolutionLeadSeconds int64 = 60
)

// MarketResult records the oracle's finalized outcome, if any.
type MarketResult struct {
	WinningOutcome uint8
	Void           bool
}

// Market is the per-market state record: its outcome structure, custody
// references, lifecycle status and accumulated volume.
type Market struct {
	MarketID             []byte
	// NumericID is the sequential id a kernel-node assigned this market at
	// creation. Every instruction that targets an existing market addresses
	// it by this number rather than by MarketID's derived bytes, since a
	// client only ever learns MarketID as the output of CreateMarket.
	NumericID            uint64
	Creator              Identity
	BaseCurrency         Identity
	OutcomeCount         uint8
	MarketVault          Identity
	Status               MarketStatus
	Result               *MarketResult
	CreatedAt            int64
	ResolutionTime       int64
	FinalizationDeadline int64
	CreatorFeeBps        uint16
	CumulativeVolume     uint64
	OutstandingCompleteSets uint64
}

// NewMarket implements CreateMarket.
func NewMarket(marketID []byte, creator, baseCurrency, marketVault Identity, outcomeCount uint8, creatorFeeBps uint16, createdAt, resolutionTime int64) (*Market, error) {
	if outcomeCount < MinOutcomes || outcomeCount > MaxOutcomes {
		return nil, newErr("CreateMarket", CodeInvalidOutcomeCount)
	}
	if resolutionTime <= createdAt+minResolutionLeadSeconds {
		return nil, newErr("CreateMarket", CodeInvalidResolutionTime)
	}
	if creatorFeeBps > uint16(FeeDenominatorBps) {
		return nil, newErr("CreateMarket", CodeInvalidOrderAmount)
	}
	return &Market{
		MarketID:       marketID,
		Creator:        creator,
		BaseCurrency:   baseCurrency,
		MarketVault:    marketVault,
		OutcomeCount:   outcomeCount,
		Status:         MarketPending,
		CreatedAt:      createdAt,
		ResolutionTime: resolutionTime,
		// FinalizationDeadline is set when resolution begins (BeginResolving),
		// relative to the oracle's configured finalization deadline.
		CreatorFeeBps: creatorFeeBps,
	}, nil
}

// ValidateOutcomeIndex checks idx is within [0, OutcomeCount).
func (m *Market) ValidateOutcomeIndex(idx uint8) error {
	if idx >= m.OutcomeCount {
		return newErr("ValidateOutcomeIndex", CodeOutcomeIndexOutOfRange)
	}
	return nil
}

// Activate implements ActivateMarket: moves a Pending market into Active so
// it can accept complete-set mints and orders. Admin only.
func (m *Market) Activate(caller Identity, cfg *Config) error {
	if err := cfg.requireAdmin(caller, "ActivateMarket"); err != nil {
		return err
	}
	if m.Status != MarketPending {
		return newErr("ActivateMarket", CodeMarketAlreadyActive)
	}
	m.Status = MarketActive
	return nil
}

// Pause implements PauseMarket: halts new orders and mints without affecting
// existing positions. Admin only.
func (m *Market) Pause(caller Identity, cfg *Config) error {
	if err := cfg.requireAdmin(caller, "PauseMarket"); err != nil {
		return err
	}
	if m.Status != MarketActive {
		return newErr("PauseMarket", CodeMarketNotActive)
	}
	m.Status = MarketPaused
	return nil
}

// Resume implements ResumeMarket, the inverse of Pause. Admin only.
func (m *Market) Resume(caller Identity, cfg *Config) error {
	if err := cfg.requireAdmin(caller, "ResumeMarket"); err != nil {
		return err
	}
	if m.Status != MarketPaused {
		return newErr("ResumeMarket", CodeMarketNotActive)
	}
	m.Status = MarketActive
	return nil
}

// Cancel implements CancelMarket: an admin-level escape hatch that lets every
// holder reclaim their complete-set collateral via RefundCancelledMarket.
func (m *Market) Cancel(caller Identity, cfg *Config) error {
	if err := cfg.requireAdmin(caller, "CancelMarket"); err != nil {
		return err
	}
	if m.Status == MarketResolved || m.Status == MarketCancelled {
		return newErr("CancelMarket", CodeMarketAlreadyResolved)
	}
	m.Status = MarketCancelled
	return nil
}

// Flag implements FlagMarket: the oracle admin can mark a market under review,
// freezing new orders while a dispute over its integrity is investigated.
func (m *Market) Flag(caller Identity, cfg *Config) error {
	if err := cfg.requireOracleAdmin(caller, "FlagMarket"); err != nil {
		return err
	}
	if m.Status == MarketResolved || m.Status == MarketCancelled {
		return newErr("FlagMarket", CodeMarketAlreadyResolved)
	}
	m.Status = MarketUnderReview
	return nil
}

// BeginResolving transitions an Active/Paused market into Resolving once its
// ResolutionTime has passed, computing the deadline by which FinalizeResult
// must be called before ResolveDispute becomes the only path forward:
// now + finalizationDeadlineSeconds (OracleParams.FinalizationDeadlineSeconds).
func (m *Market) BeginResolving(now int64, finalizationDeadlineSeconds int64) error {
	if m.Status != MarketActive && m.Status != MarketPaused {
		return newErr("BeginResolving", CodeMarketNotActive)
	}
	if now < m.ResolutionTime {
		return newErr("BeginResolving", CodeInvalidResolutionTime)
	}
	m.Status = MarketResolving
	m.FinalizationDeadline = now + finalizationDeadlineSeconds
	return nil
}

// Resolve implements FinalizeResult: the terminal lifecycle transition.
func (m *Market) Resolve(result MarketResult) error {
	if m.Status != MarketResolving {
		return newErr("FinalizeResult", CodeMarketNotResolving)
	}
	if !result.Void {
		if err := m.ValidateOutcomeIndex(result.WinningOutcome); err != nil {
			return newErr("FinalizeResult", CodeInvalidWinningOutcome)
		}
	}
	m.Result = &result
	m.Status = MarketResolved
	return nil
}

// RequireActive returns an error unless the market can currently accept new
// orders or complete-set mints.
func (m *Market) RequireActive() error {
	if m.Status != MarketActive {
		return newErr("RequireActive", CodeMarketNotActive)
	}
	return nil
}

// RecordVolume adds amount to the market's cumulative traded volume, used for
// fee accounting and off-chain analytics.
func (m *Market) RecordVolume(amount uint64) error {
	v, err := AddU64(m.CumulativeVolume, amount)
	if err != nil {
		return err
	}
	m.CumulativeVolume = v
	return nil
}
