package kernel

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// fakeVault is an in-memory VaultCollaborator used across the package's
// tests. It tracks per-(market,owner) locked balances and a market-level
// escrow total so tests can assert on conservation of funds.
type fakeVault struct {
	locked map[string]uint64
	escrow map[string]uint64
	fail   bool
}

func newFakeVault() *fakeVault {
	return &fakeVault{locked: map[string]uint64{}, escrow: map[string]uint64{}}
}

func vaultKey(marketID []byte, owner Identity) string {
	return string(marketID) + "|" + owner.String()
}

func (v *fakeVault) Lock(ctx context.Context, marketID []byte, owner Identity, amount uint64) error {
	if v.fail {
		return errFake
	}
	v.locked[vaultKey(marketID, owner)] += amount
	v.escrow[string(marketID)] += amount
	return nil
}

func (v *fakeVault) Unlock(ctx context.Context, marketID []byte, owner Identity, amount uint64) error {
	if v.fail {
		return errFake
	}
	v.locked[vaultKey(marketID, owner)] -= amount
	v.escrow[string(marketID)] -= amount
	return nil
}

func (v *fakeVault) Settle(ctx context.Context, marketID []byte, recipient Identity, amount uint64) error {
	if v.fail {
		return errFake
	}
	v.escrow[string(marketID)] -= amount
	return nil
}

type fakeFund struct {
	received uint64
}

func (f *fakeFund) ReceiveFee(ctx context.Context, marketID []byte, amount uint64) error {
	f.received += amount
	return nil
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errFake = fakeErr("fake vault failure")

func testIdentity(seed byte) Identity {
	var pk solana.PublicKey
	pk[0] = seed
	return pk
}
