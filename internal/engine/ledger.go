package engine

import (
	"time"

	"github.com/rs/zerolog"
)

// EquityPoint is one mark-to-market observation on the equity curve.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// Trade is one completed round-trip, recorded exactly once at close.
type Trade struct {
	Side       Side      `json:"side"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Size       float64   `json:"size"`
	GrossPnL   float64   `json:"gross_pnl"`
	Fees       float64   `json:"fees"`
	NetPnL     float64   `json:"net_pnl"`
	ReturnPct  float64   `json:"return_pct"`
	Reason     string    `json:"exit_reason"`
	Tag        string    `json:"entry_tag"`
}

// Ledger owns the cash balance, the open position, the equity curve, and
// the trade log for one run. It is mutated only through the engine's state
// transitions and is never shared between runs: parallel parameter sweeps
// each construct their own.
type Ledger struct {
	cash         float64
	startingCash float64
	feeRate      float64 // proportional fee on entry and exit notional
	pos          Position
	curve        []EquityPoint
	trades       []Trade
	log          zerolog.Logger
}

// NewLedger builds a flat ledger holding the starting cash.
func NewLedger(startingCash, feeRate float64, log zerolog.Logger) *Ledger {
	return &Ledger{
		cash:         startingCash,
		startingCash: startingCash,
		feeRate:      feeRate,
		pos:          Position{Side: SideFlat},
		log:          log,
	}
}

// Position returns the current position value.
func (l *Ledger) Position() Position { return l.pos }

// Cash returns the realized balance.
func (l *Ledger) Cash() float64 { return l.cash }

// StartingCash returns the initial balance of the run.
func (l *Ledger) StartingCash() float64 { return l.startingCash }

// Equity is cash plus the open position's mark-to-market value.
func (l *Ledger) Equity(mark float64) float64 {
	return l.cash + l.pos.Value(mark)
}

// Open records a freshly validated entry. The caller guarantees the ledger
// is flat; opening over an existing position is a programming error.
func (l *Ledger) Open(ts time.Time, side Side, size, price, stop, takeProfit float64, hasTP bool, tag string) {
	l.pos = Position{
		Side:       side,
		Size:       size,
		EntryPrice: price,
		Stop:       stop,
		TakeProfit: takeProfit,
		HasTP:      hasTP,
		EntryTime:  ts,
		Tag:        tag,
	}
	l.log.Info().
		Str("side", string(side)).
		Float64("size", size).
		Float64("entry", price).
		Float64("stop", stop).
		Bool("take_profit_armed", hasTP).
		Str("tag", tag).
		Time("ts", ts).
		Msg("position opened")
}

// Close realizes the open position at the given price, applies fees on
// both legs, books the trade, and resets to flat. Fees are proportional
// on entry notional and exit notional, both charged at close.
func (l *Ledger) Close(ts time.Time, price float64, reason string) Trade {
	pos := l.pos
	gross := pos.Value(price)
	entryCost := pos.Size * pos.EntryPrice
	exitValue := pos.Size * price
	fees := (entryCost + exitValue) * l.feeRate
	net := gross - fees

	retPct := 0.0
	if entryCost > 0 {
		retPct = net / entryCost * 100
	}

	trade := Trade{
		Side:       pos.Side,
		EntryTime:  pos.EntryTime,
		ExitTime:   ts,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		Size:       pos.Size,
		GrossPnL:   gross,
		Fees:       fees,
		NetPnL:     net,
		ReturnPct:  retPct,
		Reason:     reason,
		Tag:        pos.Tag,
	}
	l.trades = append(l.trades, trade)
	l.cash += net
	l.pos = Position{Side: SideFlat}

	l.log.Info().
		Str("side", string(trade.Side)).
		Float64("exit", price).
		Float64("net_pnl", net).
		Float64("balance", l.cash).
		Str("reason", reason).
		Time("ts", ts).
		Msg("position closed")
	return trade
}

// MarkBar appends one equity observation for the bar's close.
func (l *Ledger) MarkBar(ts time.Time, close float64) {
	l.curve = append(l.curve, EquityPoint{Time: ts, Equity: l.Equity(close)})
}

// EquityCurve exposes the accumulated curve, read-only by convention.
func (l *Ledger) EquityCurve() []EquityPoint { return l.curve }

// Trades exposes the closed-trade log, read-only by convention.
func (l *Ledger) Trades() []Trade { return l.trades }
