package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddU64Overflow(t *testing.T) {
	_, err := AddU64(1, ^uint64(0))
	require.Error(t, err)
	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, CodeArithmeticOverflow, code)

	v, err := AddU64(2, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)
}

func TestSubU64Underflow(t *testing.T) {
	_, err := SubU64(1, 2)
	require.Error(t, err)

	v, err := SubU64(5, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
}

func TestMulU64Overflow(t *testing.T) {
	_, err := MulU64(^uint64(0), 2)
	require.Error(t, err)

	v, err := MulU64(6, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)
}

func TestDivU64ByZero(t *testing.T) {
	_, err := DivU64(10, 0)
	require.Error(t, err)
	code, _ := CodeOf(err)
	assert.Equal(t, CodeArithmeticOverflow, code)

	v, err := DivU64(10, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
}

func TestCalculateFee(t *testing.T) {
	assert.Equal(t, uint64(10), CalculateFee(1000, 100)) // 1% of 1000
	assert.Equal(t, uint64(0), CalculateFee(9, 100))      // floors to zero
	assert.Equal(t, uint64(995), AmountAfterFee(1000, 50))
}

func TestCalculateBuyCostAndTokens(t *testing.T) {
	cost := CalculateBuyCost(100, PricePrecision/2)
	assert.Equal(t, uint64(50), cost)
	assert.Equal(t, cost, CalculateSellProceeds(100, PricePrecision/2))

	assert.Equal(t, uint64(0), CalculateTokensForCurrency(100, 0))
	assert.Equal(t, uint64(200), CalculateTokensForCurrency(100, PricePrecision/2))
}

func TestValidatePrice(t *testing.T) {
	assert.NoError(t, ValidatePrice(MinPrice))
	assert.NoError(t, ValidatePrice(MaxPrice))
	assert.Error(t, ValidatePrice(MinPrice-1))
	assert.Error(t, ValidatePrice(MaxPrice+1))
}

func TestValidatePricePair(t *testing.T) {
	assert.NoError(t, ValidatePricePair(PricePrecision/2, PricePrecision/2))
	assert.Error(t, ValidatePricePair(100_000, 100_000)) // sums to 0.2, far below band
	assert.Error(t, ValidatePricePair(600_000, 600_000)) // sums to 1.2, above band
}

func TestValidatePriceSumForMintAndBurn(t *testing.T) {
	assert.NoError(t, ValidatePriceSumForMint([]uint64{300_000, 300_000, 300_000}))
	assert.Error(t, ValidatePriceSumForMint([]uint64{400_000, 400_000, 400_000}))

	assert.NoError(t, ValidatePriceSumForBurn([]uint64{400_000, 400_000, 400_000}))
	assert.Error(t, ValidatePriceSumForBurn([]uint64{200_000, 200_000, 200_000}))
}
