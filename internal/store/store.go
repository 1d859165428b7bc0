// Package store persists kernel records (Config, Market, Order, Position,
// OracleProposal) to Postgres via pgx, the same DB/Tx wrapper and ad-hoc
// placeholder rebinding the teacher's indexer used over its own tables.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps *sql.DB with the `?`-placeholder rebinding convenience every query
// in this package relies on.
type DB struct {
	sqlDB *sql.DB
}

// Tx wraps *sql.Tx with the same rebinding convenience.
type Tx struct {
	sqlTx *sql.Tx
}

// Store is the kernel's persistence layer: one Postgres connection pool plus
// the migration that creates its tables on first connect.
type Store struct {
	db *DB
}

// New opens dbDSN, tunes the connection pool and runs migrations.
func New(ctx context.Context, dbDSN string) (*Store, error) {
	sqlDB, err := sql.Open("pgx", dbDSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB.SetConnMaxIdleTime(30 * time.Second)
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetMaxOpenConns(16)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db := &DB{sqlDB: sqlDB}
	if err := migrate(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.sqlDB.Close()
}

// rebindPostgresPlaceholders converts `?` placeholders to pgx's `$1, $2, ...`
// style, skipping `?` characters that appear inside single-quoted string
// literals (and their `''`-escaped quotes).
func rebindPostgresPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	inString := false
	argN := 0
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			if inString && i+1 < len(query) && query[i+1] == '\'' {
				b.WriteByte(c)
				b.WriteByte(query[i+1])
				i++
				continue
			}
			inString = !inString
			b.WriteByte(c)
		case c == '?' && !inString:
			argN++
			fmt.Fprintf(&b, "$%d", argN)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.sqlDB.ExecContext(ctx, rebindPostgresPlaceholders(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.sqlDB.QueryContext(ctx, rebindPostgresPlaceholders(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.sqlDB.QueryRowContext(ctx, rebindPostgresPlaceholders(query), args...)
}

func (tx *Tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tx.sqlTx.ExecContext(ctx, rebindPostgresPlaceholders(query), args...)
}

func (tx *Tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return tx.sqlTx.QueryRowContext(ctx, rebindPostgresPlaceholders(query), args...)
}

// WithTx runs fn inside a transaction, rolling back on error or panic and
// committing otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := s.db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	tx := &Tx{sqlTx: sqlTx}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
			return
		}
		err = sqlTx.Commit()
	}()
	return fn(tx)
}

func migrate(ctx context.Context, db *DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS config (
			id SMALLINT PRIMARY KEY DEFAULT 1,
			admin TEXT NOT NULL,
			oracle_admin TEXT NOT NULL,
			base_currency TEXT NOT NULL,
			vault_program TEXT NOT NULL,
			fund_program TEXT NOT NULL,
			paused BOOLEAN NOT NULL DEFAULT FALSE,
			protocol_fee_bps INTEGER NOT NULL,
			proposer_bond BIGINT NOT NULL,
			challenger_bond BIGINT NOT NULL,
			challenge_window_seconds BIGINT NOT NULL,
			finalization_deadline_seconds BIGINT NOT NULL,
			authorized_callers JSONB NOT NULL DEFAULT '[]',
			CHECK (id = 1)
		)`,
		`CREATE TABLE IF NOT EXISTS markets (
			market_id TEXT PRIMARY KEY,
			creator TEXT NOT NULL,
			base_currency TEXT NOT NULL,
			market_vault TEXT NOT NULL,
			outcome_count SMALLINT NOT NULL,
			status SMALLINT NOT NULL,
			winning_outcome SMALLINT,
			is_void BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL,
			resolution_time BIGINT NOT NULL,
			finalization_deadline BIGINT NOT NULL DEFAULT 0,
			creator_fee_bps INTEGER NOT NULL,
			cumulative_volume BIGINT NOT NULL DEFAULT 0,
			outstanding_complete_sets BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_markets_status ON markets(status)`,
		`CREATE TABLE IF NOT EXISTS positions (
			market_id TEXT NOT NULL REFERENCES markets(market_id),
			owner TEXT NOT NULL,
			owned JSONB NOT NULL,
			reserved JSONB NOT NULL,
			claimed BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (market_id, owner)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			market_id TEXT NOT NULL REFERENCES markets(market_id),
			owner TEXT NOT NULL,
			outcome SMALLINT NOT NULL,
			side SMALLINT NOT NULL,
			price BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			filled BIGINT NOT NULL DEFAULT 0,
			status SMALLINT NOT NULL,
			created_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_market_status ON orders(market_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_owner ON orders(owner)`,
		`CREATE TABLE IF NOT EXISTS oracle_proposals (
			market_id TEXT PRIMARY KEY REFERENCES markets(market_id),
			proposer TEXT NOT NULL,
			proposed_outcome SMALLINT NOT NULL,
			is_void BOOLEAN NOT NULL DEFAULT FALSE,
			proposer_bond BIGINT NOT NULL,
			status SMALLINT NOT NULL,
			challenger TEXT,
			challenger_bond BIGINT NOT NULL DEFAULT 0,
			proposed_at BIGINT NOT NULL,
			challenge_deadline BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id BIGSERIAL PRIMARY KEY,
			market_id TEXT,
			op TEXT NOT NULL,
			caller TEXT NOT NULL,
			detail JSONB NOT NULL DEFAULT '{}',
			occurred_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_market ON audit_log(market_id)`,
	}
	for _, stmt := range statements {
		if _, err := db.exec(ctx, stmt); err != nil {
			return fmt.Errorf("exec migration statement: %w", err)
		}
	}
	return nil
}

// RecordAudit appends one entry (market, operation, caller, JSON detail) to
// the audit_log table. internal/node's dispatch does not call it.
func (s *Store) RecordAudit(ctx context.Context, marketID, op, caller string, detail any, occurredAt int64) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}
	_, err = s.db.exec(ctx,
		`INSERT INTO audit_log (market_id, op, caller, detail, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		nullableText(marketID), op, caller, payload, occurredAt)
	return err
}

func nullableText(v string) any {
	if v == "" {
		return nil
	}
	return v
}
