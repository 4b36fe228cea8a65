// Package engine advances a simulated portfolio through historical bars:
// it routes strategy signals through risk validation, drives the position
// state machine, and keeps the ledger honest bar by bar.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"trendback-go/internal/metrics"
	"trendback-go/internal/risk"
	"trendback-go/internal/signal"
	"trendback-go/internal/strategy"
)

// Tiebreak selects which protective level wins when one bar's range
// crosses both the stop and the take-profit. Intrabar ordering is
// unresolvable from OHLC, so the policy is explicit rather than inferred.
type Tiebreak string

const (
	// TiebreakStop assumes the worst case for the trader (default).
	TiebreakStop Tiebreak = "stop"
	// TiebreakTakeProfit assumes the favorable ordering; exposed for tests.
	TiebreakTakeProfit Tiebreak = "take_profit"
)

// Config is the engine's per-run configuration surface.
type Config struct {
	Symbol          string
	StartingCash    float64
	RiskFraction    float64 // fraction of equity risked per entry
	MaxRiskFraction float64 // ceiling for the fat-finger guard
	MinIncrement    float64 // smallest tradable quantity
	RRMultiplier    float64 // take-profit distance in risk multiples; 0 arms none
	FeeRate         float64 // proportional fee per leg
	Tiebreak        Tiebreak
	ForceCloseAtEnd bool
}

func (c Config) tiebreak() Tiebreak {
	if c.Tiebreak == TiebreakTakeProfit {
		return TiebreakTakeProfit
	}
	return TiebreakStop
}

// Summary counts what happened during a run. Recoverable rejections are
// tallied here and logged; they are never silently swallowed.
type Summary struct {
	Bars         int
	Signals      int
	InvalidRisk  int
	RiskTooLarge int
	DataGaps     int
}

// Result is the completed run handed to the reporting layer, read-only.
type Result struct {
	Trades      []Trade
	EquityCurve []EquityPoint
	Summary     Summary
	FinalEquity float64
}

// Engine owns one run: one strategy instance, one ledger, one position.
// It is strictly sequential; parallel sweeps construct independent engines.
type Engine struct {
	cfg       Config
	strat     strategy.Strategy
	ledger    *Ledger
	validator risk.Validator
	log       zerolog.Logger
	summary   Summary
	lastBar   signal.Bar
	seen      bool
}

// New wires an engine from its configuration and strategy.
func New(cfg Config, strat strategy.Strategy, log zerolog.Logger) *Engine {
	l := log.With().Str("symbol", cfg.Symbol).Str("strategy", strat.Name()).Logger()
	return &Engine{
		cfg:    cfg,
		strat:  strat,
		ledger: NewLedger(cfg.StartingCash, cfg.FeeRate, l),
		validator: risk.Validator{
			RiskFraction:    cfg.RiskFraction,
			MaxRiskFraction: cfg.MaxRiskFraction,
			MinIncrement:    cfg.MinIncrement,
		},
		log: l,
	}
}

// Ledger exposes the run's ledger for incremental (streaming) callers.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// Run drives the full series in order and returns the completed result.
func (e *Engine) Run(bars []signal.Bar) (*Result, error) {
	for i := range bars {
		if err := e.Step(i, bars); err != nil {
			return nil, err
		}
	}
	e.Finish()
	return e.Result(), nil
}

// Step processes bars[i]: ordering and price checks, the intrabar
// stop/take-profit sweep against the position open at the start of the
// bar, the strategy's decision over data up to and including this bar,
// signal routing, and the equity mark. Streaming callers invoke it once
// per appended bar.
func (e *Engine) Step(i int, bars []signal.Bar) error {
	bar := bars[i]

	if e.seen && !bar.Time.After(e.lastBar.Time) {
		return fmt.Errorf("%w: bar %d (%s) after %s", ErrOutOfOrderBar,
			i, bar.Time, e.lastBar.Time)
	}
	for _, px := range [4]float64{bar.Open, bar.High, bar.Low, bar.Close} {
		if px < 0 || math.IsNaN(px) || math.IsInf(px, 0) {
			return fmt.Errorf("%w: bar %d (%s) ohlc=%v/%v/%v/%v", ErrBadPrice,
				i, bar.Time, bar.Open, bar.High, bar.Low, bar.Close)
		}
	}
	e.lastBar = bar
	e.seen = true
	e.summary.Bars++
	metrics.BarsTotal.WithLabelValues(e.cfg.Symbol).Inc()

	// Protective levels fire before this bar's signal is even requested.
	e.checkProtectiveExits(bar)

	if gap := e.missingIndicator(bar); gap != "" {
		e.summary.DataGaps++
		metrics.DataGaps.WithLabelValues(e.cfg.Symbol).Inc()
		e.log.Debug().Int("bar", i).Time("ts", bar.Time).Str("indicator", gap).Msg("data gap, bar skipped for signal generation")
		e.ledger.MarkBar(bar.Time, bar.Close)
		return nil
	}

	// The strategy only ever sees data up to and including this bar.
	sig := e.strat.Decide(i, bars[:i+1])
	if err := e.route(i, bar, sig); err != nil {
		return err
	}

	e.ledger.MarkBar(bar.Time, bar.Close)
	return nil
}

// Finish force-closes anything still open at the end of the series so the
// trade log accounts for every position opened.
func (e *Engine) Finish() {
	if !e.cfg.ForceCloseAtEnd || !e.seen || e.ledger.Position().Flat() {
		return
	}
	trade := e.ledger.Close(e.lastBar.Time, e.lastBar.Close, "end_of_data")
	metrics.TradesClosed.WithLabelValues(e.cfg.Symbol, trade.Reason).Inc()
}

// Result snapshots the run for reporting. Final equity is recomputed from
// the ledger rather than read off the curve: Finish books the end-of-data
// close (and its fees) after the last bar was already marked, so the last
// curve point can be stale by the final trade's fees.
func (e *Engine) Result() *Result {
	final := e.ledger.Cash()
	if e.seen {
		final = e.ledger.Equity(e.lastBar.Close)
	}
	return &Result{
		Trades:      e.ledger.Trades(),
		EquityCurve: e.ledger.EquityCurve(),
		Summary:     e.summary,
		FinalEquity: final,
	}
}

// missingIndicator returns the first indicator the strategy requires that
// this bar does not define, or "" when all are present.
func (e *Engine) missingIndicator(bar signal.Bar) string {
	for _, name := range e.strat.Requires() {
		if _, ok := bar.Indicator(name); !ok {
			return name
		}
	}
	return ""
}

// checkProtectiveExits sweeps the bar's range over the open position's
// stop and take-profit. When both are crossed the configured tie-break
// decides; stop-wins is the conservative default.
func (e *Engine) checkProtectiveExits(bar signal.Bar) {
	pos := e.ledger.Position()
	if pos.Flat() {
		return
	}

	var stopHit, tpHit bool
	switch pos.Side {
	case SideLong:
		stopHit = bar.Low <= pos.Stop
		tpHit = pos.HasTP && bar.High >= pos.TakeProfit
	case SideShort:
		stopHit = bar.High >= pos.Stop
		tpHit = pos.HasTP && bar.Low <= pos.TakeProfit
	}

	var price float64
	var reason string
	switch {
	case stopHit && tpHit:
		if e.cfg.tiebreak() == TiebreakTakeProfit {
			price, reason = pos.TakeProfit, "take_profit"
		} else {
			price, reason = pos.Stop, "stop_loss"
		}
	case stopHit:
		price, reason = pos.Stop, "stop_loss"
	case tpHit:
		price, reason = pos.TakeProfit, "take_profit"
	default:
		return
	}

	trade := e.ledger.Close(bar.Time, price, reason)
	metrics.TradesClosed.WithLabelValues(e.cfg.Symbol, trade.Reason).Inc()
}

// route advances the position state machine with one signal. Only entry
// proposals reach the risk validator; exits are processed unconditionally
// against whatever is open. That routing rule is structural: an exit
// carrying no stop level must never be able to trip a risk rejection and
// silently leave the position open.
func (e *Engine) route(i int, bar signal.Bar, sig signal.Signal) error {
	switch sig.Action {
	case signal.ActionNone:
		return nil

	case signal.ActionExit:
		e.summary.Signals++
		metrics.SignalsTotal.WithLabelValues(e.cfg.Symbol, string(sig.Action)).Inc()
		if e.ledger.Position().Flat() {
			e.log.Debug().Int("bar", i).Str("reason", sig.Reason).Msg("exit with nothing open, no-op")
			return nil
		}
		price := sig.Price
		if price <= 0 {
			price = bar.Close
		}
		trade := e.ledger.Close(bar.Time, price, exitReason(sig.Reason))
		metrics.TradesClosed.WithLabelValues(e.cfg.Symbol, trade.Reason).Inc()
		return nil

	case signal.ActionEnterLong, signal.ActionEnterShort:
		e.summary.Signals++
		metrics.SignalsTotal.WithLabelValues(e.cfg.Symbol, string(sig.Action)).Inc()
		return e.applyEntry(i, bar, sig)

	default:
		return &MalformedSignalError{Index: i, Time: bar.Time, Signal: sig}
	}
}

func (e *Engine) applyEntry(i int, bar signal.Bar, sig signal.Signal) error {
	// An entry without a protective price is a strategy bug, not a
	// default to be guessed; abort with full context.
	if !sig.StopSet {
		return &MalformedSignalError{Index: i, Time: bar.Time, Signal: sig}
	}

	side := SideLong
	if sig.Action == signal.ActionEnterShort {
		side = SideShort
	}

	pos := e.ledger.Position()
	switch {
	case pos.Side == side:
		// No pyramiding: entering the side already held is a no-op.
		e.log.Debug().Int("bar", i).Str("side", string(side)).Msg("already positioned, entry ignored")
		return nil
	case !pos.Flat():
		// Reverse: close first, then open. Two sub-steps, never netted.
		// Sizing the new side needs post-close equity, so the close is
		// committed before validation; when the validator then rejects the
		// new entry the run stays flat, the old position is not reopened.
		trade := e.ledger.Close(bar.Time, sig.Price, "reverse")
		metrics.TradesClosed.WithLabelValues(e.cfg.Symbol, trade.Reason).Inc()
	}

	equity := e.ledger.Equity(bar.Close)
	sz, err := e.validator.Validate(equity, sig.Price, sig.Stop, side == SideLong)
	if err != nil {
		reason := "invalid_risk"
		switch {
		case errors.Is(err, risk.ErrRiskTooLarge):
			e.summary.RiskTooLarge++
			reason = "risk_too_large"
		case errors.Is(err, risk.ErrInvalidRisk):
			e.summary.InvalidRisk++
		default:
			return fmt.Errorf("validate entry at bar %d (%s): %w", i, bar.Time, err)
		}
		metrics.EntriesRejected.WithLabelValues(e.cfg.Symbol, reason).Inc()
		e.log.Warn().Int("bar", i).Time("ts", bar.Time).Err(err).Str("signal", sig.String()).Msg("entry rejected")
		return nil
	}

	tp, hasTP := 0.0, false
	if e.cfg.RRMultiplier > 0 {
		hasTP = true
		if side == SideLong {
			tp = sig.Price + sz.PerUnitRisk*e.cfg.RRMultiplier
		} else {
			tp = sig.Price - sz.PerUnitRisk*e.cfg.RRMultiplier
		}
	}

	e.ledger.Open(bar.Time, side, sz.Size, sig.Price, sig.Stop, tp, hasTP, sig.Reason)
	return nil
}

func exitReason(reason string) string {
	if reason == "" {
		return "signal"
	}
	return reason
}
