package strategy

import (
	sig "trendback-go/internal/signal"
)

// RSIDip buys oversold dips in an uptrend and exits on overbought
// readings. The exit carries no protective price: it is a close request,
// not an entry, and the engine treats it that way. A reset level prevents
// re-buying until RSI has recovered between dips.
type RSIDip struct {
	buyThreshold   float64
	resetThreshold float64
	exitThreshold  float64
	atrMult        float64
	waitReset      bool
}

// NewRSIDip builds the dip-buying strategy; zero thresholds fall back to
// the classic 30/50/70 levels.
func NewRSIDip(buyThreshold, resetThreshold, exitThreshold, atrStopMultiplier float64) *RSIDip {
	if buyThreshold <= 0 {
		buyThreshold = 30
	}
	if resetThreshold <= 0 {
		resetThreshold = 50
	}
	if exitThreshold <= 0 {
		exitThreshold = 70
	}
	if atrStopMultiplier <= 0 {
		atrStopMultiplier = 3.0
	}
	return &RSIDip{
		buyThreshold:   buyThreshold,
		resetThreshold: resetThreshold,
		exitThreshold:  exitThreshold,
		atrMult:        atrStopMultiplier,
	}
}

// Name returns the configured identifier for logging.
func (r *RSIDip) Name() string { return "RSIDip" }

// Requires lists the indicator columns the decision logic reads.
func (r *RSIDip) Requires() []string {
	return []string{sig.IndTrend, sig.IndRSI, sig.IndATR}
}

// Decide evaluates the RSI state machine for bar i.
func (r *RSIDip) Decide(i int, bars []sig.Bar) sig.Signal {
	bar := bars[i]
	trend, _ := bar.Indicator(sig.IndTrend)
	rsi, _ := bar.Indicator(sig.IndRSI)
	atr, _ := bar.Indicator(sig.IndATR)

	if trend < 0 {
		r.waitReset = false
		return sig.None()
	}

	if rsi > r.exitThreshold {
		// Overbought: take profit. No-op when nothing is open.
		return sig.Exit(bar.Time, bar.Close, "rsi_overbought")
	}

	if r.waitReset {
		if rsi > r.resetThreshold {
			r.waitReset = false
		}
		return sig.None()
	}

	if rsi < r.buyThreshold {
		entry := bar.Close
		stop := entry - atr*r.atrMult
		if stop >= entry {
			return sig.None()
		}
		r.waitReset = true
		return sig.Enter(sig.ActionEnterLong, bar.Time, entry, stop, "rsi_dip")
	}
	return sig.None()
}
