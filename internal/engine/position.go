package engine

import "time"

// Side is the state of the single simulated position.
type Side string

const (
	SideFlat  Side = "flat"
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Position tracks the one open position per instrument. Size is zero iff
// the side is flat; price levels are meaningful only while open.
type Position struct {
	Side       Side
	Size       float64
	EntryPrice float64
	Stop       float64
	TakeProfit float64
	HasTP      bool // no take-profit is armed when false
	EntryTime  time.Time
	Tag        string // strategy reason captured at entry, audit only
}

// Flat reports whether there is nothing open.
func (p Position) Flat() bool { return p.Side == SideFlat }

// direction maps the side onto a PnL sign: +1 long, -1 short, 0 flat.
func (p Position) direction() float64 {
	switch p.Side {
	case SideLong:
		return 1
	case SideShort:
		return -1
	default:
		return 0
	}
}

// Value is the position's mark-to-market value at the given price: the
// unrealized PnL relative to entry. Flat positions are worth zero.
func (p Position) Value(mark float64) float64 {
	return p.direction() * p.Size * (mark - p.EntryPrice)
}
