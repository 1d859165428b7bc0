// Package matchsim drives the kernel's full instruction surface in-process
// against the vaultsim collaborators, with no kernel-node HTTP hop: it exists
// to exercise and demonstrate the settlement kernel end to end (market
// creation through claim) without standing up a server or a database.
package matchsim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/gagliardetto/solana-go"

	"github.com/1024market/kernel/internal/config"
	"github.com/1024market/kernel/internal/kernel"
	"github.com/1024market/kernel/internal/vaultsim"
)

// Service runs one simulated pass over cfg.MarketCount markets and exits;
// it has no Run loop of its own, unlike kernel-node and keeperd.
type Service struct {
	cfg    config.MatchSimConfig
	logger *slog.Logger
}

func New(cfg config.MatchSimConfig, logger *slog.Logger) (*Service, error) {
	if cfg.MarketCount <= 0 {
		return nil, fmt.Errorf("matchsim: MarketCount must be positive")
	}
	if cfg.TradersPerMarket < 2 {
		return nil, fmt.Errorf("matchsim: TradersPerMarket must be at least 2")
	}
	return &Service{cfg: cfg, logger: logger}, nil
}

// Run builds a fresh protocol Config and vaultsim collaborators, then
// simulates cfg.MarketCount independent markets one after another.
func (s *Service) Run(ctx context.Context) error {
	rng := rand.New(rand.NewSource(s.cfg.Seed))
	vault := vaultsim.New()
	fund := vaultsim.NewFund()

	admin := randomIdentity(rng)
	oracleAdmin := randomIdentity(rng)
	baseCurrency := randomIdentity(rng)
	vaultProgram := randomIdentity(rng)
	fundProgram := randomIdentity(rng)

	cfg, err := kernel.NewConfig(admin, oracleAdmin, baseCurrency, vaultProgram, fundProgram, 50, kernel.OracleParams{
		ProposerBond:                1_000,
		ChallengerBond:              1_000,
		ChallengeWindowSeconds:      60,
		FinalizationDeadlineSeconds: 3_600,
	})
	if err != nil {
		return fmt.Errorf("build config: %w", err)
	}

	now := int64(1_700_000_000)
	var totalVolume, totalFees, totalClaimed uint64

	for i := 0; i < s.cfg.MarketCount; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result, err := s.simulateMarket(ctx, rng, cfg, vault, fund, now)
		if err != nil {
			s.logger.Warn("market simulation failed", "market_index", i, "err", err)
			continue
		}
		totalVolume += result.volume
		totalFees += result.fees
		totalClaimed += result.claimed
		s.logger.Info("market simulated",
			"market_index", i,
			"outcome_count", result.outcomeCount,
			"traders", result.traders,
			"orders_placed", result.ordersPlaced,
			"orders_matched", result.ordersMatched,
			"winning_outcome", result.winningOutcome,
			"volume", result.volume,
			"fees", result.fees,
			"claimed", result.claimed,
		)
	}

	s.logger.Info("matchsim run complete",
		"markets", s.cfg.MarketCount,
		"total_volume", totalVolume,
		"total_fees", totalFees,
		"total_claimed", totalClaimed,
	)
	return nil
}

type marketResult struct {
	outcomeCount   uint8
	traders        int
	ordersPlaced   int
	ordersMatched  int
	winningOutcome uint8
	volume         uint64
	fees           uint64
	claimed        uint64
}

func (s *Service) simulateMarket(ctx context.Context, rng *rand.Rand, cfg *kernel.Config, vault *vaultsim.Vault, fund *vaultsim.Fund, now int64) (marketResult, error) {
	creator := randomIdentity(rng)
	marketID := randomBytes(rng, 32)
	outcomeCount := uint8(kernel.MinOutcomes + rng.Intn(3)) // 2..4, keeps pairwise matching simple
	resolutionTime := now + 3_600

	m, err := kernel.NewMarket(marketID, creator, cfg.BaseCurrency, randomIdentity(rng), outcomeCount, 100, now, resolutionTime)
	if err != nil {
		return marketResult{}, fmt.Errorf("create market: %w", err)
	}
	if err := m.Activate(cfg.Admin, cfg); err != nil {
		return marketResult{}, fmt.Errorf("activate market: %w", err)
	}

	traders := make([]kernel.Identity, s.cfg.TradersPerMarket)
	positions := make([]*kernel.Position, s.cfg.TradersPerMarket)
	for t := range traders {
		traders[t] = randomIdentity(rng)
		positions[t] = kernel.NewPosition(traders[t], marketID, outcomeCount)
		vault.Credit(traders[t], 1_000_000)
		if err := kernel.MintCompleteSet(ctx, m, cfg, positions[t], vault, fund, traders[t], 1_000, now); err != nil {
			return marketResult{}, fmt.Errorf("mint complete set for trader %d: %w", t, err)
		}
	}

	var buys, sells []*kernel.Order
	ordersPlaced := 0
	for t := range traders {
		outcome := uint8(rng.Intn(int(outcomeCount)))
		side := kernel.Buy
		if rng.Intn(2) == 1 {
			side = kernel.Sell
		}
		price := kernel.MinPrice + uint64(rng.Int63n(int64(kernel.MaxPrice-kernel.MinPrice)))
		amount := uint64(10 + rng.Intn(50))
		orderID := randomBytes(rng, 16)

		o, err := kernel.PlaceOrder(ctx, m, positions[t], vault, orderID, traders[t], outcome, side, price, amount, now, 0)
		if err != nil {
			// Sell orders routinely fail for traders without enough of that
			// outcome's tokens reserved; skip and keep simulating.
			continue
		}
		ordersPlaced++
		if side == kernel.Buy {
			buys = append(buys, o)
		} else {
			sells = append(sells, o)
		}
	}

	ordersMatched := 0
	var volume uint64

	// Pair up complementary-outcome buys via match-via-mint.
	for len(buys) >= 2 {
		a, b := buys[0], buys[1]
		if a.Outcome == b.Outcome {
			buys = buys[1:]
			continue
		}
		amount := a.Remaining()
		if b.Remaining() < amount {
			amount = b.Remaining()
		}
		posA := positionFor(traders, positions, a.Owner)
		posB := positionFor(traders, positions, b.Owner)
		if err := kernel.MatchMint(ctx, m, a, b, posA, posB, fund, amount); err == nil {
			ordersMatched += 2
			volume += amount
		}
		buys = buys[2:]
	}

	// Pair up complementary-outcome sells via match-via-burn.
	for len(sells) >= 2 {
		a, b := sells[0], sells[1]
		if a.Outcome == b.Outcome {
			sells = sells[1:]
			continue
		}
		amount := a.Remaining()
		if b.Remaining() < amount {
			amount = b.Remaining()
		}
		posA := positionFor(traders, positions, a.Owner)
		posB := positionFor(traders, positions, b.Owner)
		if err := kernel.MatchBurn(ctx, m, a, b, posA, posB, vault, amount); err == nil {
			ordersMatched += 2
			volume += amount
		}
		sells = sells[2:]
	}

	winningOutcome := uint8(rng.Intn(int(outcomeCount)))
	resolveAt := resolutionTime + 1
	if err := m.BeginResolving(resolveAt, cfg.Oracle.FinalizationDeadlineSeconds); err != nil {
		return marketResult{}, fmt.Errorf("begin resolving: %w", err)
	}
	proposer := traders[0]
	vault.Credit(proposer, cfg.Oracle.ProposerBond)
	proposal, err := kernel.ProposeResult(ctx, m, cfg, vault, proposer, winningOutcome, false, resolveAt)
	if err != nil {
		return marketResult{}, fmt.Errorf("propose result: %w", err)
	}
	finalizeAt := proposal.ChallengeDeadline + 1
	if err := kernel.FinalizeResult(ctx, m, proposal, vault, finalizeAt); err != nil {
		return marketResult{}, fmt.Errorf("finalize result: %w", err)
	}

	var claimed uint64
	for t := range traders {
		amount, err := kernel.ClaimWinnings(ctx, m, positions[t], vault, traders[t])
		if err != nil {
			continue
		}
		claimed += amount
	}

	return marketResult{
		outcomeCount:   outcomeCount,
		traders:        len(traders),
		ordersPlaced:   ordersPlaced,
		ordersMatched:  ordersMatched,
		winningOutcome: winningOutcome,
		volume:         m.CumulativeVolume,
		fees:           fund.ReceivedByMarket(marketID),
		claimed:        claimed,
	}, nil
}

func positionFor(traders []kernel.Identity, positions []*kernel.Position, owner kernel.Identity) *kernel.Position {
	for i, t := range traders {
		if t == owner {
			return positions[i]
		}
	}
	return nil
}

func randomIdentity(rng *rand.Rand) kernel.Identity {
	return solana.PublicKeyFromBytes(randomBytes(rng, 32))
}

func randomBytes(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	rng.Read(b)
	return b
}
