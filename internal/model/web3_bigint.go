package model

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Web3BigInt is an amount in the smallest unit together with the token decimals.
type Web3BigInt struct {
	Value   string `json:"value"`
	Decimal int    `json:"decimal"`
}

// ParseUnits scales a human readable amount ("1.5") to the smallest unit of a token.
// Amounts with more fractional digits than the token supports are rejected.
func ParseUnits(amount string, decimals int) (*Web3BigInt, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %q", amount)
	}
	if d.IsNegative() {
		return nil, errors.Errorf("amount %q must not be negative", amount)
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, errors.Errorf("amount %q has more than %d decimals", amount, decimals)
	}

	return &Web3BigInt{
		Value:   scaled.BigInt().String(),
		Decimal: decimals,
	}, nil
}

func NewWeb3BigInt(v *big.Int, decimals int) *Web3BigInt {
	return &Web3BigInt{
		Value:   v.String(),
		Decimal: decimals,
	}
}

func (w *Web3BigInt) BigInt() (*big.Int, bool) {
	return new(big.Int).SetString(w.Value, 10)
}

// String renders the amount in whole token units without float rounding.
func (w *Web3BigInt) String() string {
	v, ok := w.BigInt()
	if !ok {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(w.Decimal)).String()
}

func (w *Web3BigInt) ToFloat() float64 {
	v, ok := w.BigInt()
	if !ok {
		return 0
	}
	f, _ := decimal.NewFromBigInt(v, -int32(w.Decimal)).Float64()
	return f
}

func (w *Web3BigInt) Add(number *Web3BigInt) *Web3BigInt {
	num1, _ := w.BigInt()
	num2, _ := number.BigInt()
	if num1 == nil {
		num1 = new(big.Int)
	}
	if num2 == nil {
		num2 = new(big.Int)
	}

	return NewWeb3BigInt(new(big.Int).Add(num1, num2), w.Decimal)
}
