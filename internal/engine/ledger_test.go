package engine

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLedgerEquityBalancesEveryBar(t *testing.T) {
	l := NewLedger(10000, 0, zerolog.Nop())
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	marks := []float64{100, 102, 98, 101}
	l.Open(ts, SideLong, 40, 100, 95, 0, false, "test")
	for i, mark := range marks {
		l.MarkBar(ts.Add(time.Duration(i)*time.Hour), mark)
		equity := l.Equity(mark)
		if math.Abs(l.Cash()+l.Position().Value(mark)-equity) > 1e-9 {
			t.Fatalf("bar %d: cash %.4f + value %.4f != equity %.4f",
				i, l.Cash(), l.Position().Value(mark), equity)
		}
	}

	curve := l.EquityCurve()
	if len(curve) != len(marks) {
		t.Fatalf("expected %d curve points, got %d", len(marks), len(curve))
	}
	// 10000 + 40 * (102 - 100) = 10080
	if math.Abs(curve[1].Equity-10080) > 1e-9 {
		t.Fatalf("expected marked equity 10080, got %.4f", curve[1].Equity)
	}
}

func TestLedgerRoundTripZeroPnL(t *testing.T) {
	l := NewLedger(10000, 0, zerolog.Nop())
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	l.Open(ts, SideLong, 40, 100, 95, 0, false, "test")
	trade := l.Close(ts, 100, "signal")

	if trade.NetPnL != 0 {
		t.Fatalf("same-price round trip must yield zero PnL, got %.6f", trade.NetPnL)
	}
	if l.Cash() != 10000 {
		t.Fatalf("cash must return to start, got %.4f", l.Cash())
	}
	if !l.Position().Flat() {
		t.Fatalf("position must be flat after close")
	}
}

func TestLedgerRoundTripWithFees(t *testing.T) {
	l := NewLedger(10000, 0.001, zerolog.Nop())
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	l.Open(ts, SideLong, 40, 100, 95, 0, false, "test")
	trade := l.Close(ts, 100, "signal")

	// fees = (4000 + 4000) * 0.001 = 8, charged on both legs at close
	if math.Abs(trade.Fees-8) > 1e-9 {
		t.Fatalf("expected fees 8, got %.4f", trade.Fees)
	}
	if math.Abs(trade.NetPnL+8) > 1e-9 {
		t.Fatalf("expected net -8, got %.4f", trade.NetPnL)
	}
	if math.Abs(l.Cash()-9992) > 1e-9 {
		t.Fatalf("expected cash 9992, got %.4f", l.Cash())
	}
}

func TestLedgerShortPnL(t *testing.T) {
	l := NewLedger(10000, 0, zerolog.Nop())
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	l.Open(ts, SideShort, 10, 100, 105, 0, false, "test")
	trade := l.Close(ts.Add(time.Hour), 90, "signal")

	// short 10 units from 100 to 90 → +100
	if math.Abs(trade.GrossPnL-100) > 1e-9 {
		t.Fatalf("expected gross +100, got %.4f", trade.GrossPnL)
	}
	if math.Abs(l.Cash()-10100) > 1e-9 {
		t.Fatalf("expected cash 10100, got %.4f", l.Cash())
	}
}

func TestLedgerTradeRecordedExactlyOnce(t *testing.T) {
	l := NewLedger(10000, 0, zerolog.Nop())
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	l.Open(ts, SideLong, 40, 100, 95, 0, false, "tag")
	l.Close(ts.Add(time.Hour), 101, "signal")

	trades := l.Trades()
	if len(trades) != 1 {
		t.Fatalf("expected exactly one trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.Tag != "tag" || tr.Reason != "signal" {
		t.Fatalf("trade must carry entry tag and exit reason, got %+v", tr)
	}
	if tr.EntryPrice != 100 || tr.ExitPrice != 101 || tr.Size != 40 {
		t.Fatalf("unexpected trade fields: %+v", tr)
	}
}
