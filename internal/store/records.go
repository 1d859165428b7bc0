package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/1024market/kernel/internal/kernel"
)

// ErrNotFound is returned by the Load* methods when no row matches.
var ErrNotFound = errors.New("store: record not found")

func marketIDKey(marketID []byte) string { return string(marketID) }

// SaveConfig upserts the singleton protocol Config row.
func (s *Store) SaveConfig(ctx context.Context, cfg *kernel.Config) error {
	callers, err := json.Marshal(identitiesToStrings(cfg.AuthorizedCallers))
	if err != nil {
		return fmt.Errorf("marshal authorized callers: %w", err)
	}
	_, err = s.db.exec(ctx, `
		INSERT INTO config (id, admin, oracle_admin, base_currency, vault_program, fund_program, paused,
			protocol_fee_bps, proposer_bond, challenger_bond, challenge_window_seconds,
			finalization_deadline_seconds, authorized_callers)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			admin = EXCLUDED.admin, oracle_admin = EXCLUDED.oracle_admin,
			base_currency = EXCLUDED.base_currency, vault_program = EXCLUDED.vault_program,
			fund_program = EXCLUDED.fund_program, paused = EXCLUDED.paused,
			protocol_fee_bps = EXCLUDED.protocol_fee_bps, proposer_bond = EXCLUDED.proposer_bond,
			challenger_bond = EXCLUDED.challenger_bond,
			challenge_window_seconds = EXCLUDED.challenge_window_seconds,
			finalization_deadline_seconds = EXCLUDED.finalization_deadline_seconds,
			authorized_callers = EXCLUDED.authorized_callers`,
		cfg.Admin.String(), cfg.OracleAdmin.String(), cfg.BaseCurrency.String(),
		cfg.VaultProgram.String(), cfg.FundProgram.String(), cfg.Paused,
		cfg.ProtocolFeeBps, cfg.Oracle.ProposerBond, cfg.Oracle.ChallengerBond,
		cfg.Oracle.ChallengeWindowSeconds, cfg.Oracle.FinalizationDeadlineSeconds, callers)
	return err
}

// LoadConfig fetches the singleton protocol Config row.
func (s *Store) LoadConfig(ctx context.Context) (*kernel.Config, error) {
	row := s.db.queryRow(ctx, `SELECT admin, oracle_admin, base_currency, vault_program, fund_program,
		paused, protocol_fee_bps, proposer_bond, challenger_bond, challenge_window_seconds,
		finalization_deadline_seconds, authorized_callers FROM config WHERE id = 1`)

	var admin, oracleAdmin, baseCurrency, vaultProgram, fundProgram string
	var callersRaw []byte
	cfg := &kernel.Config{}
	if err := row.Scan(&admin, &oracleAdmin, &baseCurrency, &vaultProgram, &fundProgram,
		&cfg.Paused, &cfg.ProtocolFeeBps, &cfg.Oracle.ProposerBond, &cfg.Oracle.ChallengerBond,
		&cfg.Oracle.ChallengeWindowSeconds, &cfg.Oracle.FinalizationDeadlineSeconds, &callersRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var err error
	if cfg.Admin, err = solana.PublicKeyFromBase58(admin); err != nil {
		return nil, err
	}
	if cfg.OracleAdmin, err = solana.PublicKeyFromBase58(oracleAdmin); err != nil {
		return nil, err
	}
	if cfg.BaseCurrency, err = solana.PublicKeyFromBase58(baseCurrency); err != nil {
		return nil, err
	}
	if cfg.VaultProgram, err = solana.PublicKeyFromBase58(vaultProgram); err != nil {
		return nil, err
	}
	if cfg.FundProgram, err = solana.PublicKeyFromBase58(fundProgram); err != nil {
		return nil, err
	}
	var callerStrs []string
	if err := json.Unmarshal(callersRaw, &callerStrs); err != nil {
		return nil, err
	}
	cfg.AuthorizedCallers, err = stringsToIdentities(callerStrs)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveMarket upserts a Market row.
func (s *Store) SaveMarket(ctx context.Context, m *kernel.Market) error {
	var winningOutcome any
	var void bool
	if m.Result != nil {
		winningOutcome = m.Result.WinningOutcome
		void = m.Result.Void
	}
	_, err := s.db.exec(ctx, `
		INSERT INTO markets (market_id, creator, base_currency, market_vault, outcome_count, status,
			winning_outcome, is_void, created_at, resolution_time, finalization_deadline,
			creator_fee_bps, cumulative_volume, outstanding_complete_sets)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (market_id) DO UPDATE SET
			status = EXCLUDED.status, winning_outcome = EXCLUDED.winning_outcome,
			is_void = EXCLUDED.is_void, finalization_deadline = EXCLUDED.finalization_deadline,
			cumulative_volume = EXCLUDED.cumulative_volume,
			outstanding_complete_sets = EXCLUDED.outstanding_complete_sets`,
		marketIDKey(m.MarketID), m.Creator.String(), m.BaseCurrency.String(), m.MarketVault.String(),
		m.OutcomeCount, m.Status, winningOutcome, void, m.CreatedAt, m.ResolutionTime,
		m.FinalizationDeadline, m.CreatorFeeBps, m.CumulativeVolume, m.OutstandingCompleteSets)
	return err
}

// LoadMarket fetches a Market row by its ID.
func (s *Store) LoadMarket(ctx context.Context, marketID []byte) (*kernel.Market, error) {
	row := s.db.queryRow(ctx, `SELECT creator, base_currency, market_vault, outcome_count, status,
		winning_outcome, is_void, created_at, resolution_time, finalization_deadline, creator_fee_bps,
		cumulative_volume, outstanding_complete_sets FROM markets WHERE market_id = ?`, marketIDKey(marketID))

	var creator, baseCurrency, marketVault string
	var winningOutcome sql.NullInt16
	var void bool
	m := &kernel.Market{MarketID: marketID}
	if err := row.Scan(&creator, &baseCurrency, &marketVault, &m.OutcomeCount, &m.Status,
		&winningOutcome, &void, &m.CreatedAt, &m.ResolutionTime, &m.FinalizationDeadline,
		&m.CreatorFeeBps, &m.CumulativeVolume, &m.OutstandingCompleteSets); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var err error
	if m.Creator, err = solana.PublicKeyFromBase58(creator); err != nil {
		return nil, err
	}
	if m.BaseCurrency, err = solana.PublicKeyFromBase58(baseCurrency); err != nil {
		return nil, err
	}
	if m.MarketVault, err = solana.PublicKeyFromBase58(marketVault); err != nil {
		return nil, err
	}
	if winningOutcome.Valid || void {
		m.Result = &kernel.MarketResult{WinningOutcome: uint8(winningOutcome.Int16), Void: void}
	}
	return m, nil
}

// SavePosition upserts a Position row.
func (s *Store) SavePosition(ctx context.Context, p *kernel.Position) error {
	owned, err := json.Marshal(p.Owned)
	if err != nil {
		return err
	}
	reserved, err := json.Marshal(p.Reserved)
	if err != nil {
		return err
	}
	_, err = s.db.exec(ctx, `
		INSERT INTO positions (market_id, owner, owned, reserved, claimed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (market_id, owner) DO UPDATE SET
			owned = EXCLUDED.owned, reserved = EXCLUDED.reserved, claimed = EXCLUDED.claimed`,
		marketIDKey(p.MarketID), p.Owner.String(), owned, reserved, p.Claimed)
	return err
}

// LoadPosition fetches a Position row by (market, owner).
func (s *Store) LoadPosition(ctx context.Context, marketID []byte, owner solana.PublicKey) (*kernel.Position, error) {
	row := s.db.queryRow(ctx, `SELECT owned, reserved, claimed FROM positions WHERE market_id = ? AND owner = ?`,
		marketIDKey(marketID), owner.String())

	var ownedRaw, reservedRaw []byte
	p := &kernel.Position{MarketID: marketID, Owner: owner}
	if err := row.Scan(&ownedRaw, &reservedRaw, &p.Claimed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(ownedRaw, &p.Owned); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(reservedRaw, &p.Reserved); err != nil {
		return nil, err
	}
	return p, nil
}

// SaveOrder upserts an Order row.
func (s *Store) SaveOrder(ctx context.Context, o *kernel.Order) error {
	_, err := s.db.exec(ctx, `
		INSERT INTO orders (order_id, market_id, owner, outcome, side, price, amount, filled, status,
			created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (order_id) DO UPDATE SET
			filled = EXCLUDED.filled, status = EXCLUDED.status`,
		string(o.OrderID), marketIDKey(o.MarketID), o.Owner.String(), o.Outcome, o.Side,
		o.Price, o.Amount, o.Filled, o.Status, o.CreatedAt, o.ExpiresAt)
	return err
}

// ListOpenOrders returns every order in Open/PartiallyFilled status. keeperd
// and kernel-node do not call it: keeperd asks kernel-node's keeper endpoints,
// and kernel-node does not reload orders from the store at startup.
func (s *Store) ListOpenOrders(ctx context.Context) ([]*kernel.Order, error) {
	rows, err := s.db.query(ctx, `SELECT order_id, market_id, owner, outcome, side, price, amount, filled,
		status, created_at, expires_at FROM orders WHERE status IN (?, ?)`,
		kernel.OrderOpen, kernel.OrderPartiallyFilled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*kernel.Order
	for rows.Next() {
		o := &kernel.Order{}
		var orderID, marketID, owner string
		if err := rows.Scan(&orderID, &marketID, &owner, &o.Outcome, &o.Side, &o.Price, &o.Amount,
			&o.Filled, &o.Status, &o.CreatedAt, &o.ExpiresAt); err != nil {
			return nil, err
		}
		o.OrderID = []byte(orderID)
		o.MarketID = []byte(marketID)
		if o.Owner, err = solana.PublicKeyFromBase58(owner); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// SaveOracleProposal upserts an OracleProposal row.
func (s *Store) SaveOracleProposal(ctx context.Context, p *kernel.OracleProposal) error {
	var challenger any
	if p.Challenger != (solana.PublicKey{}) {
		challenger = p.Challenger.String()
	}
	_, err := s.db.exec(ctx, `
		INSERT INTO oracle_proposals (market_id, proposer, proposed_outcome, is_void, proposer_bond,
			status, challenger, challenger_bond, proposed_at, challenge_deadline)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (market_id) DO UPDATE SET
			status = EXCLUDED.status, challenger = EXCLUDED.challenger,
			challenger_bond = EXCLUDED.challenger_bond`,
		marketIDKey(p.MarketID), p.Proposer.String(), p.ProposedOutcome, p.Void, p.ProposerBond,
		p.Status, challenger, p.ChallengerBond, p.ProposedAt, p.ChallengeDeadline)
	return err
}

// LoadOracleProposal fetches the OracleProposal row for a market, if any.
func (s *Store) LoadOracleProposal(ctx context.Context, marketID []byte) (*kernel.OracleProposal, error) {
	row := s.db.queryRow(ctx, `SELECT proposer, proposed_outcome, is_void, proposer_bond, status,
		challenger, challenger_bond, proposed_at, challenge_deadline FROM oracle_proposals WHERE market_id = ?`,
		marketIDKey(marketID))

	var proposer string
	var challenger sql.NullString
	p := &kernel.OracleProposal{MarketID: marketID}
	if err := row.Scan(&proposer, &p.ProposedOutcome, &p.Void, &p.ProposerBond, &p.Status,
		&challenger, &p.ChallengerBond, &p.ProposedAt, &p.ChallengeDeadline); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var err error
	if p.Proposer, err = solana.PublicKeyFromBase58(proposer); err != nil {
		return nil, err
	}
	if challenger.Valid {
		if p.Challenger, err = solana.PublicKeyFromBase58(challenger.String); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func identitiesToStrings(ids []solana.PublicKey) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stringsToIdentities(raw []string) ([]solana.PublicKey, error) {
	out := make([]solana.PublicKey, len(raw))
	var err error
	for i, s := range raw {
		out[i], err = solana.PublicKeyFromBase58(s)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
