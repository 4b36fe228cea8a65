// Package signal standardizes the bar and signal payloads shared between
// data ingestion, strategy, and engine layers.
package signal

import (
	"fmt"
	"time"
)

// Action enumerates the closed set of intents a strategy may express.
// The engine never re-infers intent from incidental field values; the
// action decided here is final.
type Action string

const (
	// ActionNone means the strategy wants nothing done this bar.
	ActionNone Action = "NONE"
	// ActionEnterLong proposes opening a long position.
	ActionEnterLong Action = "ENTER_LONG"
	// ActionEnterShort proposes opening a short position.
	ActionEnterShort Action = "ENTER_SHORT"
	// ActionExit closes whatever position is open, if any.
	ActionExit Action = "EXIT"
)

// Names of the precomputed indicator columns strategies may require on a Bar.
const (
	IndVolumeAvg    = "volume_avg"
	IndRSI          = "rsi"
	IndATR          = "atr"
	IndKeltnerUpper = "keltner_upper"
	IndKeltnerLower = "keltner_lower"
	IndTrend        = "trend" // +1 above trend EMA, -1 below
)

// Bar is one OHLCV sample plus any precomputed indicator columns.
// Indicator keys are absent (not zero) for warm-up rows where the
// underlying lookback has not yet filled.
type Bar struct {
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	Indicators map[string]float64
}

// Indicator looks up a named indicator column, reporting whether it is
// defined for this bar.
func (b Bar) Indicator(name string) (float64, bool) {
	v, ok := b.Indicators[name]
	return v, ok
}

// Signal is a strategy's per-bar declaration of desired action. Stop is
// meaningful only when StopSet is true: an absent protective price is
// semantically distinct from a zero one, and the engine treats them
// differently (entries require one, exits ignore it).
type Signal struct {
	Action  Action
	Price   float64 // intended fill/reference price
	Stop    float64 // protective price, meaningful iff StopSet
	StopSet bool
	Reason  string // audit/logging only, no behavioral effect
	Time    time.Time
}

// None returns the do-nothing signal.
func None() Signal { return Signal{Action: ActionNone} }

// Enter builds an entry proposal carrying a protective price.
func Enter(action Action, ts time.Time, price, stop float64, reason string) Signal {
	return Signal{Action: action, Price: price, Stop: stop, StopSet: true, Reason: reason, Time: ts}
}

// Exit builds a close request. Exits never carry a protective price.
func Exit(ts time.Time, price float64, reason string) Signal {
	return Signal{Action: ActionExit, Price: price, Reason: reason, Time: ts}
}

func (s Signal) String() string {
	stop := "absent"
	if s.StopSet {
		stop = fmt.Sprintf("%.4f", s.Stop)
	}
	return fmt.Sprintf("SIGNAL [%s] @ %.4f | stop: %s | reason: %s", s.Action, s.Price, stop, s.Reason)
}
