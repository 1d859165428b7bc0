// Package keeperd implements the permissionless tick-loop daemon that keeps
// a kernel-node instance moving forward without relying on any single
// operator: it flags orders past their expiry and finalizes oracle proposals
// whose challenge window has closed, exactly the actions anyone is entitled
// to take once the required deadline has passed. It plays the role a
// Solana keeper bot played for the original program, polling RPC for stale
// state and submitting the idle-cleanup transaction; here it polls a
// kernel-node's query endpoints over HTTP and submits signed instruction
// envelopes the same way any other client would.
package keeperd

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gagliardetto/binary"

	"github.com/1024market/kernel/internal/config"
	"github.com/1024market/kernel/internal/wire"
)

// Service is the keeperd tick loop.
type Service struct {
	cfg    config.KeeperdConfig
	logger *slog.Logger
	http   *http.Client

	priv ed25519.PrivateKey
	pub  [32]byte
}

// New builds a keeperd Service. It mints its own throwaway ed25519 keypair
// on startup: every action keeperd takes is permissionless, so its identity
// need not be registered with the kernel ahead of time, only valid.
func New(cfg config.KeeperdConfig, logger *slog.Logger) (*Service, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate keeper identity: %w", err)
	}
	var pubArr [32]byte
	copy(pubArr[:], pub)

	return &Service{
		cfg:    cfg,
		logger: logger,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		priv:   priv,
		pub:    pubArr,
	}, nil
}

// Run polls the configured kernel-node on cfg.PollInterval until ctx is
// cancelled, executing one tick immediately on startup.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("keeperd started",
		"kernel_node_url", s.cfg.KernelNodeURL,
		"poll_interval", s.cfg.PollInterval,
		"identity", hex.EncodeToString(s.pub[:]),
	)

	if err := s.tick(ctx); err != nil {
		s.logger.Error("keeperd tick failed", "err", err)
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("keeperd stopped")
			return nil
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				s.logger.Error("keeperd tick failed", "err", err)
			}
		}
	}
}

func (s *Service) tick(ctx context.Context) error {
	now := time.Now().Unix()

	markets, err := s.fetchResolvableMarkets(ctx, now)
	if err != nil {
		return fmt.Errorf("fetch resolvable markets: %w", err)
	}
	orders, err := s.fetchExpiredOrders(ctx, now)
	if err != nil {
		return fmt.Errorf("fetch expired orders: %w", err)
	}
	proposals, err := s.fetchFinalizableProposals(ctx, now)
	if err != nil {
		return fmt.Errorf("fetch finalizable proposals: %w", err)
	}

	resolved, expired, finalized, failed := 0, 0, 0, 0
	remaining := s.cfg.MaxActionsPerTick

	for _, m := range markets {
		if remaining <= 0 {
			break
		}
		remaining--
		if err := s.beginResolving(ctx, m.NumericID); err != nil {
			failed++
			s.logger.Warn("begin resolving failed", "market_numeric_id", m.NumericID, "err", err)
			continue
		}
		resolved++
	}

	for _, o := range orders {
		if remaining <= 0 {
			break
		}
		remaining--
		if err := s.expireOrder(ctx, o.OrderID); err != nil {
			failed++
			s.logger.Warn("expire order failed", "order_id", hex.EncodeToString(o.OrderID), "err", err)
			continue
		}
		expired++
	}

	for _, p := range proposals {
		if remaining <= 0 {
			break
		}
		remaining--
		if err := s.finalizeResult(ctx, p.MarketNumericID); err != nil {
			failed++
			s.logger.Warn("finalize result failed", "market_numeric_id", p.MarketNumericID, "err", err)
			continue
		}
		finalized++
	}

	s.logger.Info("keeperd tick complete",
		"resolvable_markets", len(markets),
		"expired_orders", len(orders),
		"finalizable_proposals", len(proposals),
		"resolved", resolved,
		"expired", expired,
		"finalized", finalized,
		"failed", failed,
	)
	return nil
}

type marketDTO struct {
	NumericID uint64
}

type orderDTO struct {
	OrderID []byte
}

type proposalDTO struct {
	MarketNumericID uint64
}

func (s *Service) fetchResolvableMarkets(ctx context.Context, now int64) ([]marketDTO, error) {
	var out []marketDTO
	err := s.getJSON(ctx, fmt.Sprintf("/v1/keeper/resolvable-markets?now=%d", now), &out)
	return out, err
}

func (s *Service) fetchExpiredOrders(ctx context.Context, now int64) ([]orderDTO, error) {
	var out []orderDTO
	err := s.getJSON(ctx, fmt.Sprintf("/v1/keeper/expired-orders?now=%d", now), &out)
	return out, err
}

func (s *Service) fetchFinalizableProposals(ctx context.Context, now int64) ([]proposalDTO, error) {
	var out []proposalDTO
	err := s.getJSON(ctx, fmt.Sprintf("/v1/keeper/finalizable-proposals?now=%d", now), &out)
	return out, err
}

func (s *Service) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.KernelNodeURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (s *Service) beginResolving(ctx context.Context, marketNumericID uint64) error {
	return s.dispatch(ctx, wire.TagBeginResolving, wire.MarketIDPayload{MarketID: marketNumericID})
}

func (s *Service) expireOrder(ctx context.Context, orderID []byte) error {
	return s.dispatch(ctx, wire.TagExpireOrder, wire.OrderIDPayload{OrderID: orderID})
}

func (s *Service) finalizeResult(ctx context.Context, marketNumericID uint64) error {
	return s.dispatch(ctx, wire.TagFinalizeResult, wire.MarketIDPayload{MarketID: marketNumericID})
}

type instructionRequest struct {
	Envelope  string `json:"envelope"`
	Signature string `json:"signature"`
}

func (s *Service) dispatch(ctx context.Context, tag wire.Tag, payload any) error {
	var buf bytes.Buffer
	enc := binary.NewBorshEncoder(&buf)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	body := buf.Bytes()
	sig := ed25519.Sign(s.priv, body)

	envelope, err := wire.Encode(tag, s.pub, [32]byte{}, payload)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	reqBody, err := json.Marshal(instructionRequest{
		Envelope:  hex.EncodeToString(envelope),
		Signature: hex.EncodeToString(sig),
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.KernelNodeURL+"/v1/instructions", bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("kernel-node rejected instruction: %s", errResp.Error)
	}
	return nil
}
