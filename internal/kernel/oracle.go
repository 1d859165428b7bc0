package kernel

import "context"

// ProposalStatus tracks an optimistic-oracle result proposal through its
// propose/challenge/finalize/dispute lifecycle.
type ProposalStatus uint8

const (
	ProposalProposed ProposalStatus = iota
	ProposalChallenged
	ProposalFinalized
	ProposalDisputeResolved
)

// OracleProposal is the bonded claim about a market's outcome, open to
// challenge for ChallengeWindowSeconds before it can be finalized.
type OracleProposal struct {
	MarketID        []byte
	MarketNumericID uint64
	Proposer        Identity
	ProposedOutcome uint8
	Void            bool
	ProposerBond    uint64
	Status          ProposalStatus
	Challenger      Identity
	ChallengerBond  uint64
	ProposedAt      int64
	ChallengeDeadline int64
}

// ProposeResult implements ProposeResult: opens a bonded proposal once a
// market has entered Resolving.
func ProposeResult(ctx context.Context, market *Market, cfg *Config, vault VaultCollaborator, proposer Identity, outcome uint8, void bool, now int64) (*OracleProposal, error) {
	if market.Status != MarketResolving {
		return nil, newErr("ProposeResult", CodeMarketNotResolving)
	}
	if !void {
		if err := market.ValidateOutcomeIndex(outcome); err != nil {
			return nil, newErr("ProposeResult", CodeInvalidWinningOutcome)
		}
	}
	if cfg.Oracle.ProposerBond > 0 {
		if err := vault.Lock(ctx, market.MarketID, proposer, cfg.Oracle.ProposerBond); err != nil {
			return nil, wrapErr("ProposeResult", CodeVaultCallFailed, err)
		}
	}
	return &OracleProposal{
		MarketID:          market.MarketID,
		MarketNumericID:   market.NumericID,
		Proposer:          proposer,
		ProposedOutcome:   outcome,
		Void:              void,
		ProposerBond:      cfg.Oracle.ProposerBond,
		Status:            ProposalProposed,
		ProposedAt:        now,
		ChallengeDeadline: now + cfg.Oracle.ChallengeWindowSeconds,
	}, nil
}

// ChallengeResult implements ChallengeResult: any bonded challenger may
// dispute a proposal before its challenge window closes.
func ChallengeResult(ctx context.Context, proposal *OracleProposal, cfg *Config, vault VaultCollaborator, challenger Identity, now int64) error {
	if proposal.Status != ProposalProposed {
		return newErr("ChallengeResult", CodeChallengeWindowClosed)
	}
	if now >= proposal.ChallengeDeadline {
		return newErr("ChallengeResult", CodeChallengeWindowClosed)
	}
	if challenger == proposal.Proposer {
		return newErr("ChallengeResult", CodeSelfTrade)
	}
	if cfg.Oracle.ChallengerBond > 0 {
		if err := vault.Lock(ctx, proposal.MarketID, challenger, cfg.Oracle.ChallengerBond); err != nil {
			return wrapErr("ChallengeResult", CodeVaultCallFailed, err)
		}
	}
	proposal.Challenger = challenger
	proposal.ChallengerBond = cfg.Oracle.ChallengerBond
	proposal.Status = ProposalChallenged
	return nil
}

// FinalizeResult implements FinalizeResult: once the challenge window has
// elapsed without a challenge, anyone may finalize the proposal, returning
// the proposer's bond and resolving the market.
func FinalizeResult(ctx context.Context, market *Market, proposal *OracleProposal, vault VaultCollaborator, now int64) error {
	if proposal.Status != ProposalProposed {
		return newErr("FinalizeResult", CodeChallengeWindowOpen)
	}
	if now < proposal.ChallengeDeadline {
		return newErr("FinalizeResult", CodeChallengeWindowOpen)
	}
	if now > market.FinalizationDeadline {
		return newErr("FinalizeResult", CodeFinalizationDeadlinePassed)
	}
	if proposal.ProposerBond > 0 {
		if err := vault.Unlock(ctx, market.MarketID, proposal.Proposer, proposal.ProposerBond); err != nil {
			return wrapErr("FinalizeResult", CodeVaultCallFailed, err)
		}
	}
	if err := market.Resolve(MarketResult{WinningOutcome: proposal.ProposedOutcome, Void: proposal.Void}); err != nil {
		return err
	}
	proposal.Status = ProposalFinalized
	return nil
}

// ResolveDispute implements ResolveDispute: the oracle admin adjudicates a
// Challenged proposal, awarding the loser's bond to the winner and resolving
// the market to the adjudicated outcome.
func ResolveDispute(ctx context.Context, market *Market, proposal *OracleProposal, cfg *Config, vault VaultCollaborator, caller Identity, finalOutcome uint8, finalVoid bool, proposerWasRight bool, now int64) error {
	if err := cfg.requireOracleAdmin(caller, "ResolveDispute"); err != nil {
		return err
	}
	if proposal.Status != ProposalChallenged {
		return newErr("ResolveDispute", CodeNoDisputeInProgress)
	}
	if !finalVoid {
		if err := market.ValidateOutcomeIndex(finalOutcome); err != nil {
			return newErr("ResolveDispute", CodeInvalidWinningOutcome)
		}
	}

	winner, loser := proposal.Challenger, proposal.Proposer
	winnerBond, loserBond := proposal.ChallengerBond, proposal.ProposerBond
	if proposerWasRight {
		winner, loser = proposal.Proposer, proposal.Challenger
		winnerBond, loserBond = proposal.ProposerBond, proposal.ChallengerBond
	}
	payout, err := AddU64(winnerBond, loserBond)
	if err != nil {
		return err
	}
	if payout > 0 {
		if err := vault.Settle(ctx, market.MarketID, winner, payout); err != nil {
			return wrapErr("ResolveDispute", CodeVaultCallFailed, err)
		}
	}
	_ = loser

	if err := market.Resolve(MarketResult{WinningOutcome: finalOutcome, Void: finalVoid}); err != nil {
		return err
	}
	proposal.Status = ProposalDisputeResolved
	return nil
}
