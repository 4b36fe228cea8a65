// Package strategy hosts the decision logic that turns bars into signals.
package strategy

import (
	"strings"

	sig "trendback-go/internal/signal"
)

// Strategy defines behaviour shared by strategy implementations driven by
// the engine. Decide receives the bar index and the series up to and
// including that bar; it must return exactly one signal per call.
type Strategy interface {
	// Decide inspects bars[:i+1] and declares the desired action for bar i.
	Decide(i int, bars []sig.Bar) sig.Signal
	// Requires lists the indicator columns Decide reads. Bars missing any
	// of them are skipped for signal generation (data gap).
	Requires() []string
	Name() string
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	VolMultiplier     float64 `yaml:"vol_multiplier"`
	ATRStopMultiplier float64 `yaml:"atr_stop_multiplier"`
	AllowShort        bool    `yaml:"allow_short"`
	RSIBuyThreshold   float64 `yaml:"rsi_buy_threshold"`
	RSIResetThreshold float64 `yaml:"rsi_reset_threshold"`
	RSIExitThreshold  float64 `yaml:"rsi_exit_threshold"`
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, params Params) Strategy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "npattern", "n_pattern":
		return NewNPattern(params.VolMultiplier, params.ATRStopMultiplier, params.AllowShort)
	case "rsi", "rsi_dip":
		return NewRSIDip(params.RSIBuyThreshold, params.RSIResetThreshold, params.RSIExitThreshold, params.ATRStopMultiplier)
	default:
		return NewNPattern(params.VolMultiplier, params.ATRStopMultiplier, params.AllowShort)
	}
}
