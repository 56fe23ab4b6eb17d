package carpet

import (
	"math/big"
	"sync"
)

// Decimal is an arbitrary-precision fixed-point number: unscaled *
// 10^-scale. It is the Go value type that DECIMAL(p,s) leaves are
// shredded from and assembled into.
//
// carpet uses math/big for the arithmetic itself (rescaling is exact
// integer multiplication/division with controlled rounding); none of
// the example repos carry a decimal library, so this is the one
// component of carpet built on the standard library by necessity — see
// DESIGN.md.
type Decimal struct {
	Unscaled *big.Int
	Scale    int
}

// RoundingMode controls how a Decimal is rescaled to fewer digits of
// scale, per spec.md's `rounding(mode)` field annotation and
// `decimal_rounding` writer option.
type RoundingMode int8

const (
	// RoundUnnecessary forbids lossy rescaling: Rescale returns a
	// *ConversionError with Reason "InvalidRescaling" if the value does
	// not already fit the target scale exactly.
	RoundUnnecessary RoundingMode = iota
	RoundHalfUp
	RoundDown
	RoundUp
	RoundFloor
	RoundCeiling
)

var (
	pow10Mu    sync.Mutex
	pow10Cache = map[int]*big.Int{}
)

func pow10(n int) *big.Int {
	pow10Mu.Lock()
	defer pow10Mu.Unlock()
	if v, ok := pow10Cache[n]; ok {
		return v
	}
	v := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	pow10Cache[n] = v
	return v
}

// Rescale returns d converted to targetScale under mode. It is the
// shared implementation behind both the write-path rescale-on-emit rule
// (shred.go) and the DECIMAL case of Conversion.ConvertValue
// (convert.go); the Assembler itself does not rescale decimals.
func Rescale(d Decimal, targetScale int, mode RoundingMode) (Decimal, error) {
	if d.Scale == targetScale {
		return d, nil
	}
	if targetScale > d.Scale {
		factor := pow10(targetScale - d.Scale)
		unscaled := new(big.Int).Mul(d.Unscaled, factor)
		return Decimal{Unscaled: unscaled, Scale: targetScale}, nil
	}

	// targetScale < d.Scale: dropping digits, needs rounding.
	factor := pow10(d.Scale - targetScale)
	quotient, remainder := new(big.Int).QuoRem(d.Unscaled, factor, new(big.Int))
	if remainder.Sign() == 0 {
		return Decimal{Unscaled: quotient, Scale: targetScale}, nil
	}
	if mode == RoundUnnecessary {
		return Decimal{}, &ConversionError{Reason: "InvalidRescaling", Detail: "decimal rescale would lose precision and no rounding mode is configured"}
	}
	adjusted := roundQuotient(quotient, remainder, factor, mode)
	return Decimal{Unscaled: adjusted, Scale: targetScale}, nil
}

func roundQuotient(quotient, remainder, factor *big.Int, mode RoundingMode) *big.Int {
	neg := remainder.Sign() < 0
	absRemainder := new(big.Int).Abs(remainder)
	absFactor := new(big.Int).Abs(factor)

	switch mode {
	case RoundDown:
		return quotient
	case RoundUp:
		return bumpAwayFromZero(quotient, neg)
	case RoundFloor:
		if neg {
			return bumpAwayFromZero(quotient, true)
		}
		return quotient
	case RoundCeiling:
		if !neg {
			return bumpAwayFromZero(quotient, false)
		}
		return quotient
	default: // RoundHalfUp
		twice := new(big.Int).Lsh(absRemainder, 1)
		if twice.Cmp(absFactor) >= 0 {
			return bumpAwayFromZero(quotient, neg)
		}
		return quotient
	}
}

func bumpAwayFromZero(quotient *big.Int, neg bool) *big.Int {
	one := big.NewInt(1)
	if neg {
		return new(big.Int).Sub(quotient, one)
	}
	return new(big.Int).Add(quotient, one)
}

// FitsPrecision reports whether d's unscaled magnitude fits within
// precision decimal digits, the check DECIMAL leaves run before a value
// is shredded (Invariant 4 is a schema-time check; this is the
// companion value-time check).
func FitsPrecision(d Decimal, precision int) bool {
	limit := pow10(precision)
	abs := new(big.Int).Abs(d.Unscaled)
	return abs.Cmp(limit) < 0
}
