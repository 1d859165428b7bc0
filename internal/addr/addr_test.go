package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivationIsDeterministic(t *testing.T) {
	ns := []byte("test-namespace")
	a1 := MarketAddress(ns, 42)
	a2 := MarketAddress(ns, 42)
	assert.Equal(t, a1, a2)

	a3 := MarketAddress(ns, 43)
	assert.NotEqual(t, a1, a3)
}

func TestDerivationIsNamespaced(t *testing.T) {
	a1 := MarketAddress([]byte("ns-a"), 1)
	a2 := MarketAddress([]byte("ns-b"), 1)
	assert.NotEqual(t, a1, a2)
}

func TestPositionAddressIncludesOwner(t *testing.T) {
	ns := []byte("ns")
	owner1 := MarketAddress(ns, 1) // any distinct 32-byte value works as a stand-in owner
	owner2 := MarketAddress(ns, 2)
	assert.NotEqual(t, PositionAddress(ns, 10, owner1), PositionAddress(ns, 10, owner2))
}
