// Package node is the kernel-node daemon: it owns the live Market/Order/
// Position/OracleProposal state, dispatches signed instruction envelopes
// against internal/kernel, persists every mutation through internal/store
// and serves queries (including a push event feed) over HTTP. It plays the
// role the original on-chain program's runtime played for free: receiving
// transactions, checking signers, and running the state transition.
package node

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/1024market/kernel/internal/config"
	"github.com/1024market/kernel/internal/kernel"
	"github.com/1024market/kernel/internal/store"
	"github.com/1024market/kernel/internal/vaultsim"
)

// Service is the kernel-node HTTP daemon.
type Service struct {
	cfg    config.KernelNodeConfig
	logger *slog.Logger
	store  *store.Store

	namespace string
	reg       *registry
	vault     *vaultsim.Vault
	fund      *vaultsim.Fund
	clock     func() int64

	allowAllOrigins  bool
	allowedOriginSet map[string]struct{}

	events *eventHub
}

// New builds a kernel-node Service, loading (or bootstrapping) the protocol
// Config from store and wiring the default vaultsim collaborators.
func New(ctx context.Context, cfg config.KernelNodeConfig, logger *slog.Logger) (*Service, error) {
	st, err := store.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	kcfg, err := st.LoadConfig(ctx)
	if errors.Is(err, store.ErrNotFound) {
		kcfg, err = kernel.NewConfig(cfg.Admin, cfg.OracleAdmin, cfg.BaseCurrency, cfg.VaultProgram, cfg.FundProgram,
			cfg.ProtocolFeeBps, kernel.OracleParams{
				ProposerBond:                cfg.ProposerBond,
				ChallengerBond:              cfg.ChallengerBond,
				ChallengeWindowSeconds:      int64(cfg.ChallengeWindow.Seconds()),
				FinalizationDeadlineSeconds: int64(cfg.FinalizationWindow.Seconds()),
			})
		if err != nil {
			return nil, fmt.Errorf("bootstrap config: %w", err)
		}
		if err := st.SaveConfig(ctx, kcfg); err != nil {
			return nil, fmt.Errorf("persist bootstrap config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	allowAllOrigins := false
	allowedOriginSet := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowAllOrigins = true
			continue
		}
		allowedOriginSet[trimmed] = struct{}{}
	}
	if len(allowedOriginSet) == 0 && !allowAllOrigins {
		allowAllOrigins = true
	}

	return &Service{
		cfg:              cfg,
		logger:           logger,
		store:            st,
		namespace:        cfg.Namespace,
		reg:              newRegistry(kcfg),
		vault:            vaultsim.New(),
		fund:             vaultsim.NewFund(),
		clock:            func() int64 { return time.Now().Unix() },
		allowAllOrigins:  allowAllOrigins,
		allowedOriginSet: allowedOriginSet,
		events:           newEventHub(),
	}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("failed to close store", "err", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/instructions", s.handleInstruction)
	mux.HandleFunc("/v1/markets/", s.handleMarket)
	mux.HandleFunc("/v1/positions/", s.handlePosition)
	mux.HandleFunc("/v1/orders/", s.handleOrder)
	mux.HandleFunc("/v1/oracle-proposals/", s.handleOracleProposal)
	mux.HandleFunc("/v1/keeper/resolvable-markets", s.handleKeeperResolvableMarkets)
	mux.HandleFunc("/v1/keeper/expired-orders", s.handleKeeperExpiredOrders)
	mux.HandleFunc("/v1/keeper/finalizable-proposals", s.handleKeeperFinalizableProposals)
	mux.HandleFunc("/ws", s.handleWebsocket)

	handler := s.withCORS(mux)
	server := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()

	s.logger.Info("kernel-node started",
		"listen_addr", s.cfg.ListenAddr,
		"namespace", s.namespace,
		"allowed_origins", strings.Join(s.cfg.AllowedOrigins, ","),
	)

	select {
	case <-ctx.Done():
		s.logger.Info("kernel-node stopping")
		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutdown kernel-node: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type instructionRequest struct {
	Envelope  string `json:"envelope"` // hex-encoded borsh Envelope
	Signature string `json:"signature"` // hex-encoded ed25519 signature
}

func (s *Service) handleInstruction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondMethodNotAllowed(w)
		return
	}
	var req instructionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	raw, err := hex.DecodeString(req.Envelope)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid envelope encoding")
		return
	}
	sig, err := hex.DecodeString(req.Signature)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid signature encoding")
		return
	}

	result, err := s.Dispatch(r.Context(), raw, sig)
	if err != nil {
		s.logger.Warn("instruction dispatch failed", "err", err)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.events.broadcast(eventMessage{Type: "instruction", Data: result, TS: s.clock()})
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Service) handleMarket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}
	idHex := strings.TrimPrefix(r.URL.Path, "/v1/markets/")
	marketID, err := hex.DecodeString(idHex)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	s.reg.mu.Lock()
	m, ok := s.reg.getMarket(marketID)
	s.reg.mu.Unlock()
	if !ok {
		s.respondError(w, http.StatusNotFound, "market not found")
		return
	}
	s.respondJSON(w, http.StatusOK, m)
}

func (s *Service) handlePosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/positions/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		s.respondError(w, http.StatusBadRequest, "expected /v1/positions/{market_id}/{owner}")
		return
	}
	marketID, err := hex.DecodeString(parts[0])
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	owner, err := kernel.ParseIdentity(parts[1])
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid owner")
		return
	}
	s.reg.mu.Lock()
	m, ok := s.reg.getMarket(marketID)
	if !ok {
		s.reg.mu.Unlock()
		s.respondError(w, http.StatusNotFound, "market not found")
		return
	}
	pos := s.reg.getOrCreatePosition(marketID, owner, m.OutcomeCount)
	s.reg.mu.Unlock()
	s.respondJSON(w, http.StatusOK, pos)
}

func (s *Service) handleOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}
	orderIDHex := strings.TrimPrefix(r.URL.Path, "/v1/orders/")
	orderID, err := hex.DecodeString(orderIDHex)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	s.reg.mu.Lock()
	o, ok := s.reg.getOrder(orderID)
	s.reg.mu.Unlock()
	if !ok {
		s.respondError(w, http.StatusNotFound, "order not found")
		return
	}
	s.respondJSON(w, http.StatusOK, o)
}

func (s *Service) handleOracleProposal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}
	idHex := strings.TrimPrefix(r.URL.Path, "/v1/oracle-proposals/")
	marketID, err := hex.DecodeString(idHex)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	s.reg.mu.Lock()
	p, ok := s.reg.getProposal(marketID)
	s.reg.mu.Unlock()
	if !ok {
		s.respondError(w, http.StatusNotFound, "no proposal for market")
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

// handleKeeperResolvableMarkets lists markets past their resolution time that
// still need BeginResolving dispatched, keeperd's first-stage work queue.
func (s *Service) handleKeeperResolvableMarkets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}
	now := s.queryNow(r)
	s.reg.mu.Lock()
	markets := s.reg.resolvableMarkets(now)
	s.reg.mu.Unlock()
	s.respondJSON(w, http.StatusOK, markets)
}

// handleKeeperExpiredOrders lists orders past their expiry, the work queue
// keeperd drains by dispatching TagExpireOrder for each.
func (s *Service) handleKeeperExpiredOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}
	now := s.queryNow(r)
	s.reg.mu.Lock()
	orders := s.reg.expiredOrders(now)
	s.reg.mu.Unlock()
	s.respondJSON(w, http.StatusOK, orders)
}

// handleKeeperFinalizableProposals lists proposals whose challenge window has
// closed, the work queue keeperd drains by dispatching TagFinalizeResult.
func (s *Service) handleKeeperFinalizableProposals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondMethodNotAllowed(w)
		return
	}
	now := s.queryNow(r)
	s.reg.mu.Lock()
	proposals := s.reg.finalizableProposals(now)
	s.reg.mu.Unlock()
	s.respondJSON(w, http.StatusOK, proposals)
}

func (s *Service) queryNow(r *http.Request) int64 {
	if raw := strings.TrimSpace(r.URL.Query().Get("now")); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	}
	return s.clock()
}

func (s *Service) isOriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	if s.allowAllOrigins {
		return true
	}
	_, ok := s.allowedOriginSet[origin]
	return ok
}

func (s *Service) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" && s.isOriginAllowed(origin) {
			if s.allowAllOrigins {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "300")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) respondMethodNotAllowed(w http.ResponseWriter) {
	s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (s *Service) respondError(w http.ResponseWriter, code int, message string) {
	s.respondJSON(w, code, errorResponse{Error: message})
}

func (s *Service) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to write JSON response", "err", err)
	}
}

// eventMessage is pushed to every websocket subscriber on a state mutation:
// fills, mints, redeems, proposals and settlements all fire one.
type eventMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
	TS   int64  `json:"ts"`
}

// eventHub fans out eventMessages to every connected websocket client. It is
// the push counterpart to the GET endpoints above, standing in for the
// original program's emitted logs/events a client would otherwise have to
// poll an indexer for.
type eventHub struct {
	mu      sync.Mutex
	clients map[chan eventMessage]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[chan eventMessage]struct{})}
}

func (h *eventHub) subscribe() chan eventMessage {
	ch := make(chan eventMessage, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *eventHub) unsubscribe(ch chan eventMessage) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *eventHub) broadcast(msg eventMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			// slow consumer: drop rather than block the dispatcher.
		}
	}
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *Service) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocketUpgrader
	upgrader.CheckOrigin = func(req *http.Request) bool {
		return s.isOriginAllowed(strings.TrimSpace(req.Header.Get("Origin")))
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ch := s.events.subscribe()
	defer s.events.unsubscribe(ch)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
