package keeperd

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1024market/kernel/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewMintsDistinctIdentities(t *testing.T) {
	cfg := config.KeeperdConfig{KernelNodeURL: "http://example.invalid", RequestTimeout: time.Second, MaxActionsPerTick: 10}

	a, err := New(cfg, testLogger())
	require.NoError(t, err)
	b, err := New(cfg, testLogger())
	require.NoError(t, err)

	assert.NotEqual(t, a.pub, b.pub)
}

func TestTickDispatchesAllThreeWorkQueues(t *testing.T) {
	var dispatched []string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/keeper/resolvable-markets", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]marketDTO{{NumericID: 1}})
	})
	mux.HandleFunc("/v1/keeper/expired-orders", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]orderDTO{{OrderID: []byte("order-1")}})
	})
	mux.HandleFunc("/v1/keeper/finalizable-proposals", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]proposalDTO{{MarketNumericID: 2}})
	})
	mux.HandleFunc("/v1/instructions", func(w http.ResponseWriter, r *http.Request) {
		var req instructionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		dispatched = append(dispatched, req.Envelope)
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.KeeperdConfig{
		KernelNodeURL:     srv.URL,
		RequestTimeout:    5 * time.Second,
		MaxActionsPerTick: 10,
	}
	svc, err := New(cfg, testLogger())
	require.NoError(t, err)

	require.NoError(t, svc.tick(context.Background()))
	assert.Len(t, dispatched, 3)
}

func TestTickRespectsMaxActionsPerTick(t *testing.T) {
	var instructionCount int

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/keeper/resolvable-markets", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]marketDTO{{NumericID: 1}, {NumericID: 2}})
	})
	mux.HandleFunc("/v1/keeper/expired-orders", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]orderDTO{{OrderID: []byte("o1")}})
	})
	mux.HandleFunc("/v1/keeper/finalizable-proposals", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]proposalDTO{{MarketNumericID: 3}})
	})
	mux.HandleFunc("/v1/instructions", func(w http.ResponseWriter, r *http.Request) {
		instructionCount++
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.KeeperdConfig{
		KernelNodeURL:     srv.URL,
		RequestTimeout:    5 * time.Second,
		MaxActionsPerTick: 1,
	}
	svc, err := New(cfg, testLogger())
	require.NoError(t, err)

	require.NoError(t, svc.tick(context.Background()))
	assert.Equal(t, 1, instructionCount)
}

func TestTickSurfacesFetchErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/keeper/resolvable-markets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.KeeperdConfig{KernelNodeURL: srv.URL, RequestTimeout: 5 * time.Second, MaxActionsPerTick: 10}
	svc, err := New(cfg, testLogger())
	require.NoError(t, err)

	assert.Error(t, svc.tick(context.Background()))
}
