package node

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1024market/kernel/internal/kernel"
)

func testRegistryIdentity(seed byte) kernel.Identity {
	var pk solana.PublicKey
	pk[0] = seed
	return pk
}

func TestRegistryResolvableMarkets(t *testing.T) {
	admin := testRegistryIdentity(1)
	cfg := &kernel.Config{Admin: admin}
	reg := newRegistry(cfg)

	active, err := kernel.NewMarket([]byte("m-active-due"), testRegistryIdentity(1), testRegistryIdentity(2), testRegistryIdentity(3), 2, 100, 1_000, 2_000)
	require.NoError(t, err)
	require.NoError(t, active.Activate(admin, cfg))
	reg.markets[marketKey(active.MarketID)] = active

	notDue, err := kernel.NewMarket([]byte("m-active-not-due"), testRegistryIdentity(1), testRegistryIdentity(2), testRegistryIdentity(3), 2, 100, 1_000, 50_000)
	require.NoError(t, err)
	require.NoError(t, notDue.Activate(admin, cfg))
	reg.markets[marketKey(notDue.MarketID)] = notDue

	pending, err := kernel.NewMarket([]byte("m-pending"), testRegistryIdentity(1), testRegistryIdentity(2), testRegistryIdentity(3), 2, 100, 1_000, 2_000)
	require.NoError(t, err)
	reg.markets[marketKey(pending.MarketID)] = pending

	due := reg.resolvableMarkets(2_000)
	require.Len(t, due, 1)
	assert.Equal(t, active.MarketID, due[0].MarketID)
}

func TestRegistryExpiredOrders(t *testing.T) {
	reg := newRegistry(&kernel.Config{})

	open := &kernel.Order{OrderID: []byte("o1"), Status: kernel.OrderOpen, ExpiresAt: 1_000}
	reg.orders[string(open.OrderID)] = open

	notExpired := &kernel.Order{OrderID: []byte("o2"), Status: kernel.OrderOpen, ExpiresAt: 5_000}
	reg.orders[string(notExpired.OrderID)] = notExpired

	noExpiry := &kernel.Order{OrderID: []byte("o3"), Status: kernel.OrderOpen, ExpiresAt: 0}
	reg.orders[string(noExpiry.OrderID)] = noExpiry

	cancelled := &kernel.Order{OrderID: []byte("o4"), Status: kernel.OrderCancelled, ExpiresAt: 1_000}
	reg.orders[string(cancelled.OrderID)] = cancelled

	expired := reg.expiredOrders(2_000)
	require.Len(t, expired, 1)
	assert.Equal(t, []byte("o1"), expired[0].OrderID)
}

func TestRegistryFinalizableProposals(t *testing.T) {
	reg := newRegistry(&kernel.Config{})

	ready := &kernel.OracleProposal{MarketID: []byte("m1"), Status: kernel.ProposalProposed, ChallengeDeadline: 1_000}
	reg.proposals[marketKey(ready.MarketID)] = ready

	notYet := &kernel.OracleProposal{MarketID: []byte("m2"), Status: kernel.ProposalProposed, ChallengeDeadline: 5_000}
	reg.proposals[marketKey(notYet.MarketID)] = notYet

	finalized := &kernel.OracleProposal{MarketID: []byte("m3"), Status: kernel.ProposalFinalized, ChallengeDeadline: 1_000}
	reg.proposals[marketKey(finalized.MarketID)] = finalized

	out := reg.finalizableProposals(1_000)
	require.Len(t, out, 1)
	assert.Equal(t, []byte("m1"), out[0].MarketID)
}

func TestRegistryGetOrCreatePosition(t *testing.T) {
	reg := newRegistry(&kernel.Config{})
	owner := testRegistryIdentity(9)

	p1 := reg.getOrCreatePosition([]byte("m1"), owner, 3)
	p2 := reg.getOrCreatePosition([]byte("m1"), owner, 3)
	assert.Same(t, p1, p2)
}
