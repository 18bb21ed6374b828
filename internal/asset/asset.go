// Package asset implements the chain's fixed-point amount type.
//
// An Asset is a signed 64-bit integer of minor units at a fixed scale of
// 5 fractional digits (1.00000 TEST == 100000 minor units). All arithmetic
// is checked: overflow, underflow and divide-by-zero return a sentinel
// error instead of wrapping or panicking, because amounts are hashed into
// transaction ids and block headers and must never silently misbehave.
package asset

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Decimals is the fixed number of fractional digits every amount carries.
const Decimals = 5

// Scale is 10^Decimals, the number of minor units per whole unit.
const Scale int64 = 100000

var (
	// ErrOverflow is returned by any operation whose mathematically exact
	// result does not fit in an Asset.
	ErrOverflow = errors.New("asset: overflow")
	// ErrDivideByZero is returned by Div with a zero divisor.
	ErrDivideByZero = errors.New("asset: divide by zero")
	// ErrInvalidFormat is returned by Parse for malformed input.
	ErrInvalidFormat = errors.New("asset: invalid format")
)

// Asset is a signed fixed-point amount in minor units.
type Asset int64

// New constructs an Asset directly from a minor-unit count.
func New(minorUnits int64) Asset {
	return Asset(minorUnits)
}

// Zero is the additive identity.
const Zero Asset = 0

// Add returns a+b, or ErrOverflow if the exact sum does not fit in an int64.
func (a Asset) Add(b Asset) (Asset, error) {
	sum := int64(a) + int64(b)
	// Overflow happens iff operands share a sign and the result's sign differs.
	if (int64(a) > 0 && int64(b) > 0 && sum < 0) ||
		(int64(a) < 0 && int64(b) < 0 && sum > 0) {
		return 0, ErrOverflow
	}
	return Asset(sum), nil
}

// Sub returns a-b, or ErrOverflow if the exact difference does not fit.
func (a Asset) Sub(b Asset) (Asset, error) {
	diff := int64(a) - int64(b)
	if (int64(b) < 0 && diff < int64(a)) || (int64(b) > 0 && diff > int64(a)) {
		return 0, ErrOverflow
	}
	return Asset(diff), nil
}

// Mul returns a*b rescaled back to Decimals fractional digits, using a
// 128-bit intermediate so the multiply itself never overflows.
func (a Asset) Mul(b Asset) (Asset, error) {
	product := new(big.Int).Mul(big.NewInt(int64(a)), big.NewInt(int64(b)))
	product.Quo(product, big.NewInt(Scale))
	return fromBigInt(product)
}

// Div returns a/b at Decimals fractional digits, scaling the numerator up
// before dividing so fractional precision survives the integer division.
func (a Asset) Div(b Asset) (Asset, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	numerator := new(big.Int).Mul(big.NewInt(int64(a)), big.NewInt(Scale))
	numerator.Quo(numerator, big.NewInt(int64(b)))
	return fromBigInt(numerator)
}

// Pow raises a to an integer exponent via square-and-multiply on an
// arbitrary-precision intermediate, rescaling once at the end. exp==0
// yields 1.00000 regardless of base; a zero base with exp>0 yields zero.
func (a Asset) Pow(exp uint16) (Asset, error) {
	if exp == 0 {
		return Asset(Scale), nil
	}
	if a == 0 {
		return 0, nil
	}

	// result accumulates a^exp in minor units without intermediate
	// rescaling; we divide out the extra Scale factors only at the end.
	result := big.NewInt(1)
	base := big.NewInt(int64(a))
	e := exp
	for e > 0 {
		if e&1 == 1 {
			result.Mul(result, base)
		}
		base.Mul(base, base)
		e >>= 1
	}

	// result == a^exp in minor-unit terms, i.e. scaled by Scale^exp; we
	// want it scaled by Scale^1, so divide by Scale^(exp-1).
	divisor := new(big.Int).Exp(big.NewInt(Scale), big.NewInt(int64(exp-1)), nil)
	result.Quo(result, divisor)
	return fromBigInt(result)
}

func fromBigInt(v *big.Int) (Asset, error) {
	if !v.IsInt64() {
		return 0, ErrOverflow
	}
	return Asset(v.Int64()), nil
}

// Cmp returns -1, 0 or 1 as a is less than, equal to, or greater than b.
func (a Asset) Cmp(b Asset) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Negative reports whether the amount is below zero.
func (a Asset) Negative() bool {
	return a < 0
}

// MinorUnits returns the raw signed minor-unit count.
func (a Asset) MinorUnits() int64 {
	return int64(a)
}

// String formats the amount with exactly Decimals fractional digits and
// no symbol, e.g. "10.00000".
func (a Asset) String() string {
	neg := a < 0
	units := int64(a)
	if neg {
		units = -units
	}
	whole := units / Scale
	frac := units % Scale
	s := fmt.Sprintf("%d.%0*d", whole, Decimals, frac)
	if neg {
		s = "-" + s
	}
	return s
}

// Parse decodes "<amount> <symbol>" (e.g. "10.00000 TEST") into an Asset.
// The fractional part must carry exactly Decimals digits and the trailing
// symbol must match the chain's asset symbol exactly.
func Parse(s, chainSymbol string) (Asset, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, ErrInvalidFormat
	}
	if fields[1] != chainSymbol {
		return 0, ErrInvalidFormat
	}
	return parseAmount(fields[0])
}

func parseAmount(amount string) (Asset, error) {
	neg := strings.HasPrefix(amount, "-")
	if neg {
		amount = amount[1:]
	}

	parts := strings.SplitN(amount, ".", 2)
	if len(parts) != 2 {
		return 0, ErrInvalidFormat
	}
	if len(parts[1]) != Decimals {
		return 0, ErrInvalidFormat
	}
	if parts[0] == "" {
		return 0, ErrInvalidFormat
	}

	whole, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, ErrInvalidFormat
	}
	frac, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, ErrInvalidFormat
	}

	units := whole*Scale + frac
	if whole < 0 {
		return 0, ErrInvalidFormat
	}
	if neg {
		units = -units
	}
	return Asset(units), nil
}
