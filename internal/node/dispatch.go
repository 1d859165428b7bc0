package node

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/1024market/kernel/internal/addr"
	"github.com/1024market/kernel/internal/kernel"
	"github.com/1024market/kernel/internal/wire"
)

// Dispatch decodes, authenticates and executes a single instruction envelope,
// the off-chain counterpart of the original program's process_instruction
// entrypoint. sig is the ed25519 signature over env.Body.
func (s *Service) Dispatch(ctx context.Context, raw, sig []byte) (any, error) {
	env, err := wire.DecodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if err := VerifyEnvelope(env, sig); err != nil {
		return nil, err
	}

	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()

	signer := kernel.Identity(env.Signer)
	onBehalfOf := kernel.Identity(env.OnBehalfOf)
	caller, err := s.reg.cfg.ResolveActingAs(signer, onBehalfOf)
	if err != nil {
		return nil, err
	}

	baseTag := env.Tag
	if baseTag >= wire.RelayerTagOffset {
		baseTag -= wire.RelayerTagOffset
	}

	switch baseTag {
	case wire.TagCreateMarket:
		return s.handleCreateMarket(ctx, env.Body, caller)
	case wire.TagActivateMarket:
		return s.handleActivateMarket(ctx, env.Body, caller)
	case wire.TagPauseMarket:
		return s.handlePauseMarket(ctx, env.Body, caller)
	case wire.TagResumeMarket:
		return s.handleResumeMarket(ctx, env.Body, caller)
	case wire.TagCancelMarket:
		return s.handleCancelMarket(ctx, env.Body, caller)
	case wire.TagFlagMarket:
		return s.handleFlagMarket(ctx, env.Body, caller)
	case wire.TagBeginResolving:
		return s.handleBeginResolving(ctx, env.Body)
	case wire.TagMatchMint:
		return s.handleMatchMint(ctx, env.Body)
	case wire.TagMatchBurn:
		return s.handleMatchBurn(ctx, env.Body)
	case wire.TagExecuteTrade:
		return s.handleExecuteTrade(ctx, env.Body)
	case wire.TagMintCompleteSet:
		return s.handleMintCompleteSet(ctx, env.Body, caller)
	case wire.TagRedeemCompleteSet:
		return s.handleRedeemCompleteSet(ctx, env.Body, caller)
	case wire.TagPlaceOrder:
		return s.handlePlaceOrder(ctx, env.Body, caller)
	case wire.TagCancelOrder:
		return s.handleCancelOrder(ctx, env.Body, caller)
	case wire.TagExpireOrder:
		return s.handleExpireOrder(ctx, env.Body)
	case wire.TagProposeResult:
		return s.handleProposeResult(ctx, env.Body, caller)
	case wire.TagChallengeResult:
		return s.handleChallengeResult(ctx, env.Body, caller)
	case wire.TagFinalizeResult:
		return s.handleFinalizeResult(ctx, env.Body)
	case wire.TagResolveDispute:
		return s.handleResolveDispute(ctx, env.Body, caller)
	case wire.TagClaimWinnings:
		return s.handleClaimWinnings(ctx, env.Body, caller)
	case wire.TagRefundCancelledMarket:
		return s.handleRefundCancelledMarket(ctx, env.Body, caller)
	case wire.TagSetPaused:
		return s.handleSetPaused(ctx, env.Body, caller)
	case wire.TagUpdateAdmin:
		return s.handleUpdateAdmin(ctx, env.Body, caller)
	case wire.TagUpdateOracleAdmin:
		return s.handleUpdateOracleAdmin(ctx, env.Body, caller)
	case wire.TagUpdateOracleConfig:
		return s.handleUpdateOracleConfig(ctx, env.Body, caller)
	case wire.TagAddAuthorizedCaller:
		return s.handleAddAuthorizedCaller(ctx, env.Body, caller)
	case wire.TagRemoveAuthorizedCaller:
		return s.handleRemoveAuthorizedCaller(ctx, env.Body, caller)
	case wire.TagReinitializeConfig:
		return s.handleReinitializeConfig(ctx, env.Body, caller)
	default:
		return nil, fmt.Errorf("node: unknown instruction tag %d", env.Tag)
	}
}

var marketSeq atomic.Uint64

func (s *Service) handleCreateMarket(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.CreateMarketPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	id := marketSeq.Add(1)
	marketID := addr.MarketAddress([]byte(s.namespace), id)
	vaultAddr := addr.MarketVaultAddress([]byte(s.namespace), id)
	now := s.clock()

	m, err := kernel.NewMarket(marketID[:], caller, s.reg.cfg.BaseCurrency, vaultAddr, p.OutcomeCount, p.CreatorFeeBps, now, p.ResolutionTime)
	if err != nil {
		return nil, err
	}
	m.NumericID = id
	s.reg.markets[marketKey(marketID[:])] = m
	if err := s.store.SaveMarket(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) lookupMarket(marketID uint64) (*kernel.Market, []byte, error) {
	id := addr.MarketAddress([]byte(s.namespace), marketID)
	m, ok := s.reg.getMarket(id[:])
	if !ok {
		return nil, nil, fmt.Errorf("node: unknown market %d", marketID)
	}
	return m, id[:], nil
}

func (s *Service) handleActivateMarket(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p marketIDOnly
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, _, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	if err := m.Activate(caller, s.reg.cfg); err != nil {
		return nil, err
	}
	return m, s.store.SaveMarket(ctx, m)
}

func (s *Service) handlePauseMarket(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p marketIDOnly
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, _, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	if err := m.Pause(caller, s.reg.cfg); err != nil {
		return nil, err
	}
	return m, s.store.SaveMarket(ctx, m)
}

func (s *Service) handleResumeMarket(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p marketIDOnly
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, _, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	if err := m.Resume(caller, s.reg.cfg); err != nil {
		return nil, err
	}
	return m, s.store.SaveMarket(ctx, m)
}

func (s *Service) handleCancelMarket(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p marketIDOnly
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, _, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	if err := m.Cancel(caller, s.reg.cfg); err != nil {
		return nil, err
	}
	return m, s.store.SaveMarket(ctx, m)
}

func (s *Service) handleMintCompleteSet(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.MintCompleteSetPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, marketAddr, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	pos := s.reg.getOrCreatePosition(marketAddr, caller, m.OutcomeCount)
	if err := kernel.MintCompleteSet(ctx, m, s.reg.cfg, pos, s.vault, s.fund, caller, p.Amount, s.clock()); err != nil {
		return nil, err
	}
	if err := s.store.SaveMarket(ctx, m); err != nil {
		return nil, err
	}
	return pos, s.store.SavePosition(ctx, pos)
}

func (s *Service) handleRedeemCompleteSet(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.MintCompleteSetPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, marketAddr, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	pos := s.reg.getOrCreatePosition(marketAddr, caller, m.OutcomeCount)
	if err := kernel.RedeemCompleteSet(ctx, m, s.reg.cfg, pos, s.vault, s.fund, caller, p.Amount); err != nil {
		return nil, err
	}
	if err := s.store.SaveMarket(ctx, m); err != nil {
		return nil, err
	}
	return pos, s.store.SavePosition(ctx, pos)
}

var orderSeq atomic.Uint64

func (s *Service) handlePlaceOrder(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.PlaceOrderPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, marketAddr, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	pos := s.reg.getOrCreatePosition(marketAddr, caller, m.OutcomeCount)
	nonce := orderSeq.Add(1)
	orderID := addr.OrderAddress([]byte(s.namespace), p.MarketID, caller, nonce)

	now := s.clock()
	o, err := kernel.PlaceOrder(ctx, m, pos, s.vault, orderID[:], caller, p.Outcome, kernel.OrderSide(p.Side), p.Price, p.Amount, now, p.ExpiresAt)
	if err != nil {
		return nil, err
	}
	s.reg.orders[string(o.OrderID)] = o
	if err := s.store.SavePosition(ctx, pos); err != nil {
		return nil, err
	}
	return o, s.store.SaveOrder(ctx, o)
}

type orderIDBody struct{ OrderID []byte }

func (s *Service) handleCancelOrder(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p orderIDBody
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	o, ok := s.reg.getOrder(p.OrderID)
	if !ok {
		return nil, fmt.Errorf("node: unknown order")
	}
	m, marketAddr, err := s.lookupMarketByAddress(o.MarketID)
	if err != nil {
		return nil, err
	}
	pos := s.reg.getOrCreatePosition(marketAddr, o.Owner, m.OutcomeCount)
	if err := kernel.CancelOrder(ctx, o, pos, s.vault, caller, s.clock()); err != nil {
		return nil, err
	}
	if err := s.store.SavePosition(ctx, pos); err != nil {
		return nil, err
	}
	return o, s.store.SaveOrder(ctx, o)
}

func (s *Service) lookupMarketByAddress(marketAddr []byte) (*kernel.Market, []byte, error) {
	m, ok := s.reg.getMarket(marketAddr)
	if !ok {
		return nil, nil, fmt.Errorf("node: unknown market")
	}
	return m, marketAddr, nil
}

func (s *Service) handleProposeResult(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.ProposeResultPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, marketAddr, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	proposal, err := kernel.ProposeResult(ctx, m, s.reg.cfg, s.vault, caller, p.Outcome, p.Void, s.clock())
	if err != nil {
		return nil, err
	}
	s.reg.proposals[marketKey(marketAddr)] = proposal
	return proposal, s.store.SaveOracleProposal(ctx, proposal)
}

type marketIDOnly struct{ MarketID uint64 }

func (s *Service) handleChallengeResult(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p marketIDOnly
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	_, marketAddr, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	proposal, ok := s.reg.getProposal(marketAddr)
	if !ok {
		return nil, fmt.Errorf("node: no proposal for market")
	}
	if err := kernel.ChallengeResult(ctx, proposal, s.reg.cfg, s.vault, caller, s.clock()); err != nil {
		return nil, err
	}
	return proposal, s.store.SaveOracleProposal(ctx, proposal)
}

func (s *Service) handleFinalizeResult(ctx context.Context, body []byte) (any, error) {
	var p marketIDOnly
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, marketAddr, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	proposal, ok := s.reg.getProposal(marketAddr)
	if !ok {
		return nil, fmt.Errorf("node: no proposal for market")
	}
	if err := kernel.FinalizeResult(ctx, m, proposal, s.vault, s.clock()); err != nil {
		return nil, err
	}
	if err := s.store.SaveMarket(ctx, m); err != nil {
		return nil, err
	}
	return m, s.store.SaveOracleProposal(ctx, proposal)
}

func (s *Service) handleResolveDispute(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.ResolveDisputePayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, marketAddr, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	proposal, ok := s.reg.getProposal(marketAddr)
	if !ok {
		return nil, fmt.Errorf("node: no proposal for market")
	}
	if err := kernel.ResolveDispute(ctx, m, proposal, s.reg.cfg, s.vault, caller, p.FinalOutcome, p.FinalVoid, p.ProposerWasRight, s.clock()); err != nil {
		return nil, err
	}
	if err := s.store.SaveMarket(ctx, m); err != nil {
		return nil, err
	}
	return m, s.store.SaveOracleProposal(ctx, proposal)
}

func (s *Service) handleClaimWinnings(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p marketIDOnly
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, marketAddr, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	pos := s.reg.getOrCreatePosition(marketAddr, caller, m.OutcomeCount)
	amount, err := kernel.ClaimWinnings(ctx, m, pos, s.vault, caller)
	if err != nil {
		return nil, err
	}
	if err := s.store.SavePosition(ctx, pos); err != nil {
		return nil, err
	}
	return map[string]uint64{"amount": amount}, nil
}

func (s *Service) handleRefundCancelledMarket(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p marketIDOnly
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, marketAddr, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	pos := s.reg.getOrCreatePosition(marketAddr, caller, m.OutcomeCount)
	amount, err := kernel.RefundCancelledMarket(ctx, m, pos, s.vault, caller)
	if err != nil {
		return nil, err
	}
	if err := s.store.SavePosition(ctx, pos); err != nil {
		return nil, err
	}
	return map[string]uint64{"amount": amount}, nil
}

func (s *Service) handleSetPaused(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p struct{ Paused bool }
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	if err := s.reg.cfg.SetPaused(caller, p.Paused); err != nil {
		return nil, err
	}
	return s.reg.cfg, s.store.SaveConfig(ctx, s.reg.cfg)
}

func (s *Service) handleFlagMarket(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.FlagMarketPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, _, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	if err := m.Flag(caller, s.reg.cfg); err != nil {
		return nil, err
	}
	return m, s.store.SaveMarket(ctx, m)
}

// handleBeginResolving is permissionless: anyone may push a market past its
// resolution time into Resolving, opening the window for ProposeResult.
func (s *Service) handleBeginResolving(ctx context.Context, body []byte) (any, error) {
	var p wire.MarketIDPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, _, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	if err := m.BeginResolving(s.clock(), s.reg.cfg.Oracle.FinalizationDeadlineSeconds); err != nil {
		return nil, err
	}
	return m, s.store.SaveMarket(ctx, m)
}

// handleExpireOrder is the permissionless counterpart to CancelOrder: the
// caller need not be the order's owner, only the expiry itself matters.
func (s *Service) handleExpireOrder(ctx context.Context, body []byte) (any, error) {
	var p orderIDBody
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	o, ok := s.reg.getOrder(p.OrderID)
	if !ok {
		return nil, fmt.Errorf("node: unknown order")
	}
	m, marketAddr, err := s.lookupMarketByAddress(o.MarketID)
	if err != nil {
		return nil, err
	}
	pos := s.reg.getOrCreatePosition(marketAddr, o.Owner, m.OutcomeCount)
	if err := kernel.ExpireOrder(ctx, o, pos, s.vault, s.clock()); err != nil {
		return nil, err
	}
	if err := s.store.SavePosition(ctx, pos); err != nil {
		return nil, err
	}
	return o, s.store.SaveOrder(ctx, o)
}

// orderAndPosition looks up a resting order and the position backing it.
func (s *Service) orderAndPosition(marketAddr []byte, outcomeCount uint8, orderID []byte) (*kernel.Order, *kernel.Position, error) {
	o, ok := s.reg.getOrder(orderID)
	if !ok {
		return nil, nil, fmt.Errorf("node: unknown order")
	}
	pos := s.reg.getOrCreatePosition(marketAddr, o.Owner, outcomeCount)
	return o, pos, nil
}

func (s *Service) handleMatchMint(ctx context.Context, body []byte) (any, error) {
	var p wire.MatchOrdersPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, marketAddr, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	orderA, posA, err := s.orderAndPosition(marketAddr, m.OutcomeCount, p.OrderA)
	if err != nil {
		return nil, err
	}
	orderB, posB, err := s.orderAndPosition(marketAddr, m.OutcomeCount, p.OrderB)
	if err != nil {
		return nil, err
	}
	if err := kernel.MatchMint(ctx, m, orderA, orderB, posA, posB, s.fund, p.Amount); err != nil {
		return nil, err
	}
	if err := s.store.SavePosition(ctx, posA); err != nil {
		return nil, err
	}
	if err := s.store.SavePosition(ctx, posB); err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(ctx, orderA); err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(ctx, orderB); err != nil {
		return nil, err
	}
	return m, s.store.SaveMarket(ctx, m)
}

func (s *Service) handleMatchBurn(ctx context.Context, body []byte) (any, error) {
	var p wire.MatchOrdersPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, marketAddr, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	orderA, posA, err := s.orderAndPosition(marketAddr, m.OutcomeCount, p.OrderA)
	if err != nil {
		return nil, err
	}
	orderB, posB, err := s.orderAndPosition(marketAddr, m.OutcomeCount, p.OrderB)
	if err != nil {
		return nil, err
	}
	if err := kernel.MatchBurn(ctx, m, orderA, orderB, posA, posB, s.vault, p.Amount); err != nil {
		return nil, err
	}
	if err := s.store.SavePosition(ctx, posA); err != nil {
		return nil, err
	}
	if err := s.store.SavePosition(ctx, posB); err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(ctx, orderA); err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(ctx, orderB); err != nil {
		return nil, err
	}
	return m, s.store.SaveMarket(ctx, m)
}

func (s *Service) handleExecuteTrade(ctx context.Context, body []byte) (any, error) {
	var p wire.ExecuteTradePayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	m, marketAddr, err := s.lookupMarket(p.MarketID)
	if err != nil {
		return nil, err
	}
	buyOrder, buyerPos, err := s.orderAndPosition(marketAddr, m.OutcomeCount, p.BuyOrder)
	if err != nil {
		return nil, err
	}
	sellOrder, sellerPos, err := s.orderAndPosition(marketAddr, m.OutcomeCount, p.SellOrder)
	if err != nil {
		return nil, err
	}
	if err := kernel.ExecuteTrade(ctx, m, buyOrder, sellOrder, buyerPos, sellerPos, s.vault, s.fund, s.reg.cfg, p.Amount); err != nil {
		return nil, err
	}
	if err := s.store.SavePosition(ctx, buyerPos); err != nil {
		return nil, err
	}
	if err := s.store.SavePosition(ctx, sellerPos); err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(ctx, buyOrder); err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(ctx, sellOrder); err != nil {
		return nil, err
	}
	return m, s.store.SaveMarket(ctx, m)
}

func (s *Service) handleUpdateAdmin(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.UpdateAdminPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	if err := s.reg.cfg.UpdateAdmin(caller, kernel.Identity(p.NewAdmin)); err != nil {
		return nil, err
	}
	return s.reg.cfg, s.store.SaveConfig(ctx, s.reg.cfg)
}

func (s *Service) handleUpdateOracleAdmin(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.UpdateOracleAdminPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	if err := s.reg.cfg.UpdateOracleAdmin(caller, kernel.Identity(p.NewOracleAdmin)); err != nil {
		return nil, err
	}
	return s.reg.cfg, s.store.SaveConfig(ctx, s.reg.cfg)
}

func (s *Service) handleUpdateOracleConfig(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.UpdateOracleConfigPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	oracle := kernel.OracleParams{
		ProposerBond:                p.ProposerBond,
		ChallengerBond:              p.ChallengerBond,
		ChallengeWindowSeconds:      p.ChallengeWindowSeconds,
		FinalizationDeadlineSeconds: p.FinalizationDeadlineSeconds,
	}
	if err := s.reg.cfg.UpdateOracleConfig(caller, oracle); err != nil {
		return nil, err
	}
	return s.reg.cfg, s.store.SaveConfig(ctx, s.reg.cfg)
}

func (s *Service) handleAddAuthorizedCaller(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.AuthorizedCallerPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	if err := s.reg.cfg.AddAuthorizedCaller(caller, kernel.Identity(p.Caller)); err != nil {
		return nil, err
	}
	return s.reg.cfg, s.store.SaveConfig(ctx, s.reg.cfg)
}

func (s *Service) handleRemoveAuthorizedCaller(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.AuthorizedCallerPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	if err := s.reg.cfg.RemoveAuthorizedCaller(caller, kernel.Identity(p.Caller)); err != nil {
		return nil, err
	}
	return s.reg.cfg, s.store.SaveConfig(ctx, s.reg.cfg)
}

func (s *Service) handleReinitializeConfig(ctx context.Context, body []byte, caller kernel.Identity) (any, error) {
	var p wire.ReinitializeConfigPayload
	if err := wire.DecodeBody(body, &p); err != nil {
		return nil, err
	}
	oracle := kernel.OracleParams{
		ProposerBond:                p.ProposerBond,
		ChallengerBond:              p.ChallengerBond,
		ChallengeWindowSeconds:      p.ChallengeWindowSeconds,
		FinalizationDeadlineSeconds: p.FinalizationDeadlineSeconds,
	}
	if err := s.reg.cfg.Reinitialize(caller, kernel.Identity(p.VaultProgram), kernel.Identity(p.FundProgram), p.ProtocolFeeBps, oracle); err != nil {
		return nil, err
	}
	return s.reg.cfg, s.store.SaveConfig(ctx, s.reg.cfg)
}
