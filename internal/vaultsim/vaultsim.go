// Package vaultsim provides an in-memory implementation of the kernel's
// external collaborator interfaces (Vault, Fund) so kernel-node
// and matchsim can run without a real custody program behind them. It is the
// default wiring, not a mock: balances are held for the life of the process
// exactly like a real collaborator would hold them, just without persistence.
package vaultsim

import (
	"context"
	"fmt"
	"sync"

	"github.com/1024market/kernel/internal/kernel"
)

// Vault is a process-local ledger of external balances and per-market escrow,
// implementing kernel.VaultCollaborator.
type Vault struct {
	mu       sync.Mutex
	balances map[string]uint64 // owner -> available external balance
	escrow   map[string]uint64 // market|owner -> locked balance
}

// New returns an empty Vault. Call Credit to seed test/demo balances before
// any Lock call, since there is no external bank behind this simulator.
func New() *Vault {
	return &Vault{balances: map[string]uint64{}, escrow: map[string]uint64{}}
}

func ownerKey(owner kernel.Identity) string { return owner.String() }

func escrowKey(marketID []byte, owner kernel.Identity) string {
	return string(marketID) + "|" + owner.String()
}

// Credit adds amount to owner's external balance, the simulator's stand-in
// for a deposit into the custody program.
func (v *Vault) Credit(owner kernel.Identity, amount uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[ownerKey(owner)] += amount
}

// BalanceOf returns owner's current unescrowed external balance.
func (v *Vault) BalanceOf(owner kernel.Identity) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances[ownerKey(owner)]
}

// Lock implements kernel.VaultCollaborator.
func (v *Vault) Lock(ctx context.Context, marketID []byte, owner kernel.Identity, amount uint64) error {
	if amount == 0 {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	key := ownerKey(owner)
	if v.balances[key] < amount {
		return fmt.Errorf("vaultsim: insufficient balance for %s: have %d, need %d", key, v.balances[key], amount)
	}
	v.balances[key] -= amount
	v.escrow[escrowKey(marketID, owner)] += amount
	return nil
}

// Unlock implements kernel.VaultCollaborator.
func (v *Vault) Unlock(ctx context.Context, marketID []byte, owner kernel.Identity, amount uint64) error {
	if amount == 0 {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	key := escrowKey(marketID, owner)
	if v.escrow[key] < amount {
		return fmt.Errorf("vaultsim: insufficient escrow for %s: have %d, need %d", key, v.escrow[key], amount)
	}
	v.escrow[key] -= amount
	v.balances[ownerKey(owner)] += amount
	return nil
}

// Settle implements kernel.VaultCollaborator: pays amount directly to
// recipient's external balance. The caller is responsible for having already
// reduced whatever escrow backed the payout (e.g. via Debit on a Position);
// Settle itself does not require the payout to come from the recipient's own
// locked balance, since claims and trade proceeds are frequently paid out of
// a counterparty's escrow.
func (v *Vault) Settle(ctx context.Context, marketID []byte, recipient kernel.Identity, amount uint64) error {
	if amount == 0 {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[ownerKey(recipient)] += amount
	return nil
}

// Fund is a process-local accumulator of protocol fee revenue, implementing
// kernel.FundCollaborator.
type Fund struct {
	mu       sync.Mutex
	received map[string]uint64 // market -> cumulative fees
}

// NewFund returns an empty Fund.
func NewFund() *Fund {
	return &Fund{received: map[string]uint64{}}
}

// ReceiveFee implements kernel.FundCollaborator.
func (f *Fund) ReceiveFee(ctx context.Context, marketID []byte, amount uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received[string(marketID)] += amount
	return nil
}

// ReceivedByMarket returns the cumulative fees collected for marketID.
func (f *Fund) ReceivedByMarket(marketID []byte) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.received[string(marketID)]
}
