package vaultsim

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlockRoundtrip(t *testing.T) {
	ctx := context.Background()
	v := New()
	var owner solana.PublicKey
	owner[0] = 7
	marketID := []byte("m1")

	v.Credit(owner, 100)
	require.NoError(t, v.Lock(ctx, marketID, owner, 40))
	assert.Equal(t, uint64(60), v.BalanceOf(owner))

	require.NoError(t, v.Unlock(ctx, marketID, owner, 40))
	assert.Equal(t, uint64(100), v.BalanceOf(owner))
}

func TestLockInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	v := New()
	var owner solana.PublicKey
	owner[0] = 7

	assert.Error(t, v.Lock(ctx, []byte("m1"), owner, 10))
}

func TestSettlePaysRecipient(t *testing.T) {
	ctx := context.Background()
	v := New()
	var recipient solana.PublicKey
	recipient[0] = 9

	require.NoError(t, v.Settle(ctx, []byte("m1"), recipient, 25))
	assert.Equal(t, uint64(25), v.BalanceOf(recipient))
}

func TestFundAccumulatesFeesPerMarket(t *testing.T) {
	ctx := context.Background()
	f := NewFund()
	require.NoError(t, f.ReceiveFee(ctx, []byte("m1"), 5))
	require.NoError(t, f.ReceiveFee(ctx, []byte("m1"), 3))
	require.NoError(t, f.ReceiveFee(ctx, []byte("m2"), 10))

	assert.Equal(t, uint64(8), f.ReceivedByMarket([]byte("m1")))
	assert.Equal(t, uint64(10), f.ReceivedByMarket([]byte("m2")))
}
