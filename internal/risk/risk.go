// Package risk sizes entry proposals and rejects the ones whose protective
// price makes no sense. Exits never pass through here: the engine routes
// only entry proposals into the validator, so a take-profit exit carrying
// no stop level cannot be misread as a broken entry.
package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRisk rejects a proposal whose per-unit risk is non-positive or
// undefined: the stop is on the wrong side of the entry, missing and
// misread as zero, or one of the inputs is not a finite positive number.
var ErrInvalidRisk = errors.New("invalid per-unit risk")

// ErrRiskTooLarge rejects a proposal whose stop distance exceeds the
// configured fraction of the reference price (fat-finger guard).
var ErrRiskTooLarge = errors.New("per-unit risk exceeds ceiling")

// Validator holds the sizing knobs for one run. It is a pure value: every
// Validate call is a computation over its inputs with no side effects.
type Validator struct {
	// RiskFraction is the fraction of equity risked on each entry.
	RiskFraction float64
	// MaxRiskFraction caps per-unit risk as a fraction of the reference
	// price. Zero disables the ceiling.
	MaxRiskFraction float64
	// MinIncrement is the instrument's smallest tradable quantity. The
	// computed size is floored to a multiple of it.
	MinIncrement float64
}

// Sizing is the successful outcome of validation.
type Sizing struct {
	PerUnitRisk float64
	Size        float64
}

// Validate checks an entry proposal and derives the position size implied
// by the risk budget: size = equity * RiskFraction / perUnitRisk, floored
// to MinIncrement. long selects which side of the reference the stop must
// sit on.
func (v Validator) Validate(equity, ref, stop float64, long bool) (Sizing, error) {
	if !isFinite(ref) || ref <= 0 || !isFinite(stop) || !isFinite(equity) {
		return Sizing{}, fmt.Errorf("%w: ref=%v stop=%v equity=%v", ErrInvalidRisk, ref, stop, equity)
	}

	perUnit := ref - stop
	if !long {
		perUnit = stop - ref
	}
	if perUnit <= 0 {
		return Sizing{}, fmt.Errorf("%w: ref=%.8f stop=%.8f long=%t", ErrInvalidRisk, ref, stop, long)
	}
	if v.MaxRiskFraction > 0 && perUnit/ref > v.MaxRiskFraction {
		return Sizing{}, fmt.Errorf("%w: %.4f%% of reference, ceiling %.4f%%",
			ErrRiskTooLarge, perUnit/ref*100, v.MaxRiskFraction*100)
	}

	size := equity * v.RiskFraction / perUnit
	if v.MinIncrement > 0 {
		size = math.Floor(size/v.MinIncrement) * v.MinIncrement
	}
	if size <= 0 {
		return Sizing{}, fmt.Errorf("%w: budget sizes below minimum increment %.8f", ErrInvalidRisk, v.MinIncrement)
	}
	return Sizing{PerUnitRisk: perUnit, Size: size}, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
