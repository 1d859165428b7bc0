package kernel

import "math/big"

// Fixed-point price scale. A price of PricePrecision represents 1.00.
const (
	PricePrecision uint64 = 1_000_000
	MinPrice       uint64 = 10_000  // 0.01
	MaxPrice       uint64 = 990_000 // 0.99

	// FeeDenominatorBps is the denominator used when interpreting a fee rate
	// expressed in basis points (1 bps == 1/10000).
	FeeDenominatorBps uint64 = 10_000

	// priceSumToleranceNumLow/High bound the complementary-price band a
	// binary order pair must fall within: [0.95, 1.05] of PricePrecision.
	priceSumToleranceNumLow  uint64 = 95
	priceSumToleranceNumHigh uint64 = 105
	priceSumToleranceDenom   uint64 = 100
)

// AddU64 returns a+b, or ArithmeticOverflow if it would wrap.
func AddU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, newErr("AddU64", CodeArithmeticOverflow)
	}
	return sum, nil
}

// SubU64 returns a-b, or ArithmeticOverflow if b > a.
func SubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, newErr("SubU64", CodeArithmeticOverflow)
	}
	return a - b, nil
}

// MulU64 returns a*b, or ArithmeticOverflow on overflow.
func MulU64(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/a != b {
		return 0, newErr("MulU64", CodeArithmeticOverflow)
	}
	return product, nil
}

// DivU64 returns a/b. Division by zero is reported as ArithmeticOverflow,
// matching the original program's treatment of checked_div failures.
func DivU64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, newErr("DivU64", CodeArithmeticOverflow)
	}
	return a / b, nil
}

// mulDivFloor computes floor(a*b/denom) with 128-bit intermediate precision.
func mulDivFloor(a, b, denom uint64) uint64 {
	if denom == 0 {
		return 0
	}
	prod := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	prod.Div(prod, new(big.Int).SetUint64(denom))
	return prod.Uint64()
}

// CalculateFee returns floor(amount * feeBps / 10000).
func CalculateFee(amount uint64, feeBps uint16) uint64 {
	return mulDivFloor(amount, uint64(feeBps), FeeDenominatorBps)
}

// AmountAfterFee returns amount minus its fee, saturating at zero.
func AmountAfterFee(amount uint64, feeBps uint16) uint64 {
	fee := CalculateFee(amount, feeBps)
	if fee > amount {
		return 0
	}
	return amount - fee
}

// CalculateBuyCost returns the currency cost of buying amount outcome tokens
// at price (fixed-point, PricePrecision-scaled).
func CalculateBuyCost(amount, price uint64) uint64 {
	return mulDivFloor(amount, price, PricePrecision)
}

// CalculateSellProceeds is an alias of CalculateBuyCost: selling amount tokens
// at price returns the same quantity as buying them would cost.
func CalculateSellProceeds(amount, price uint64) uint64 {
	return CalculateBuyCost(amount, price)
}

// CalculateTokensForCurrency returns floor(currencyAmount * PricePrecision / price).
// A zero price returns 0 rather than an error, matching the original program.
func CalculateTokensForCurrency(currencyAmount, price uint64) uint64 {
	if price == 0 {
		return 0
	}
	return mulDivFloor(currencyAmount, PricePrecision, price)
}

// ValidatePrice checks that price falls within [MinPrice, MaxPrice].
func ValidatePrice(price uint64) error {
	if price < MinPrice || price > MaxPrice {
		return newErr("ValidatePrice", CodeInvalidOrderPrice)
	}
	return nil
}

// ValidatePricePair checks that a binary yes/no price pair sums to within
// [0.95, 1.05] x PricePrecision.
func ValidatePricePair(yesPrice, noPrice uint64) error {
	sum := yesPrice + noPrice
	minSum := PricePrecision * priceSumToleranceNumLow / priceSumToleranceDenom
	maxSum := PricePrecision * priceSumToleranceNumHigh / priceSumToleranceDenom
	if sum < minSum || sum > maxSum {
		return newErr("ValidatePricePair", CodeInvalidOrderPrice)
	}
	return nil
}

// ValidatePriceSumForMint checks that N-outcome prices sum to at most
// PricePrecision, the condition under which a match-via-mint can be funded
// from a single complete-set mint.
func ValidatePriceSumForMint(prices []uint64) error {
	var sum uint64
	for _, p := range prices {
		sum += p
	}
	if sum > PricePrecision {
		return newErr("ValidatePriceSumForMint", CodePriceSumInvalid)
	}
	return nil
}

// ValidatePriceSumForBurn checks that N-outcome prices sum to at least
// PricePrecision, the condition under which a match-via-burn releases at
// least one complete set of currency.
func ValidatePriceSumForBurn(prices []uint64) error {
	var sum uint64
	for _, p := range prices {
		sum += p
	}
	if sum < PricePrecision {
		return newErr("ValidatePriceSumForBurn", CodePriceSumInvalid)
	}
	return nil
}
