package strategy

import (
	sig "trendback-go/internal/signal"
)

type npState int

const (
	npIdle npState = iota
	npWatching
)

// NPattern trades breakout continuations: a high-volume impulse candle
// (C1), then a watch phase that fails if price breaks below C1's open and
// fires when price clears C1's high while C1 already sits above the
// Keltner upper band. The stop is an ATR multiple below the entry. Shorts
// mirror the long rules and are gated off by default. A trend-EMA column
// keeps entries aligned with the prevailing direction and, on a flip
// against an assumed position, an exit is declared (a no-op when flat).
type NPattern struct {
	volMult    float64
	atrMult    float64
	allowShort bool

	longState  npState
	c1Long     sig.Bar
	shortState npState
	c1Short    sig.Bar
	lastTrend  float64
}

// NewNPattern builds the breakout strategy with its volume and ATR knobs.
func NewNPattern(volMultiplier, atrStopMultiplier float64, allowShort bool) *NPattern {
	if volMultiplier < 0 {
		volMultiplier = 0
	}
	if atrStopMultiplier <= 0 {
		atrStopMultiplier = 3.0
	}
	return &NPattern{volMult: volMultiplier, atrMult: atrStopMultiplier, allowShort: allowShort}
}

// Name returns the configured identifier for logging.
func (n *NPattern) Name() string { return "NPattern" }

// Requires lists the indicator columns the decision logic reads.
func (n *NPattern) Requires() []string {
	return []string{sig.IndTrend, sig.IndATR, sig.IndKeltnerUpper, sig.IndKeltnerLower, sig.IndVolumeAvg}
}

// Decide runs both side state machines for bar i.
func (n *NPattern) Decide(i int, bars []sig.Bar) sig.Signal {
	bar := bars[i]
	trend, _ := bar.Indicator(sig.IndTrend)
	atr, _ := bar.Indicator(sig.IndATR)
	flipped := trend < 0 && n.lastTrend >= 0
	n.lastTrend = trend

	if trend < 0 {
		n.resetLong()
		if n.allowShort {
			return n.decideShort(bar, atr)
		}
		if flipped {
			// Trend turned against the long book: close whatever is open.
			return sig.Exit(bar.Time, bar.Close, "trend_flip")
		}
		return sig.None()
	}

	n.resetShort()
	return n.decideLong(bar, atr)
}

func (n *NPattern) decideLong(bar sig.Bar, atr float64) sig.Signal {
	kcUpper, _ := bar.Indicator(sig.IndKeltnerUpper)

	if n.longState == npIdle {
		if n.isImpulse(bar, true) {
			n.longState = npWatching
			n.c1Long = bar
		}
		return sig.None()
	}

	// Failure: price broke below the impulse candle's open.
	if bar.Low < n.c1Long.Open {
		n.resetLong()
		return sig.None()
	}

	// Breakout above the impulse high, confirmed outside the channel.
	if bar.High > n.c1Long.High {
		accelerating := n.c1Long.High > kcUpper
		entry := n.c1Long.High
		stop := entry - atr*n.atrMult
		n.resetLong()
		if !accelerating || stop >= entry {
			return sig.None()
		}
		return sig.Enter(sig.ActionEnterLong, bar.Time, entry, stop, "n_pattern_breakout")
	}

	// A fresh impulse during the watch phase restarts the pattern.
	if n.isImpulse(bar, true) {
		n.c1Long = bar
	}
	return sig.None()
}

func (n *NPattern) decideShort(bar sig.Bar, atr float64) sig.Signal {
	kcLower, _ := bar.Indicator(sig.IndKeltnerLower)

	if n.shortState == npIdle {
		if n.isImpulse(bar, false) {
			n.shortState = npWatching
			n.c1Short = bar
		}
		return sig.None()
	}

	if bar.High > n.c1Short.Open {
		n.resetShort()
		return sig.None()
	}

	if bar.Low < n.c1Short.Low {
		accelerating := n.c1Short.Low < kcLower
		entry := n.c1Short.Low
		stop := entry + atr*n.atrMult
		n.resetShort()
		if !accelerating || stop <= entry {
			return sig.None()
		}
		return sig.Enter(sig.ActionEnterShort, bar.Time, entry, stop, "n_pattern_breakdown")
	}

	if n.isImpulse(bar, false) {
		n.c1Short = bar
	}
	return sig.None()
}

// isImpulse checks for a directional candle on above-average volume.
func (n *NPattern) isImpulse(bar sig.Bar, bullish bool) bool {
	directional := bar.Close > bar.Open
	if !bullish {
		directional = bar.Close < bar.Open
	}
	if !directional {
		return false
	}
	if n.volMult == 0 {
		return true
	}
	volAvg, _ := bar.Indicator(sig.IndVolumeAvg)
	return bar.Volume > volAvg*n.volMult
}

func (n *NPattern) resetLong() {
	n.longState = npIdle
	n.c1Long = sig.Bar{}
}

func (n *NPattern) resetShort() {
	n.shortState = npIdle
	n.c1Short = sig.Bar{}
}
