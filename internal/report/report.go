// Package report turns a completed run into performance statistics.
package report

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"trendback-go/internal/engine"
)

// Report summarizes one completed backtest.
type Report struct {
	TotalTrades     int
	WinRatePct      float64
	AvgWinPct       float64
	AvgLossPct      float64
	ProfitLossRatio float64
	LongTrades      int
	ShortTrades     int
	TotalReturnPct  float64
	BuyHoldPct      float64
	MaxDrawdownPct  float64
	SharpeRatio     float64
}

// Evaluate computes the report from the run result. firstClose/lastClose
// anchor the buy-and-hold comparison.
func Evaluate(res *engine.Result, startingCash, firstClose, lastClose float64) Report {
	r := Report{TotalTrades: len(res.Trades)}

	var wins int
	var winSum, lossSum float64
	var lossCount int
	for _, t := range res.Trades {
		switch t.Side {
		case engine.SideLong:
			r.LongTrades++
		case engine.SideShort:
			r.ShortTrades++
		}
		// Break-even round-trips belong to neither bucket; counting them
		// as losses would pull AvgLossPct toward zero and inflate the ratio.
		if t.NetPnL > 0 {
			wins++
			winSum += t.ReturnPct
		} else if t.NetPnL < 0 {
			lossCount++
			lossSum += t.ReturnPct
		}
	}
	if r.TotalTrades > 0 {
		r.WinRatePct = float64(wins) / float64(r.TotalTrades) * 100
	}
	if wins > 0 {
		r.AvgWinPct = winSum / float64(wins)
	}
	if lossCount > 0 {
		r.AvgLossPct = lossSum / float64(lossCount)
	}
	if r.AvgLossPct != 0 {
		r.ProfitLossRatio = math.Abs(r.AvgWinPct / r.AvgLossPct)
	}

	if startingCash > 0 {
		r.TotalReturnPct = (res.FinalEquity/startingCash - 1) * 100
	}
	if firstClose > 0 {
		r.BuyHoldPct = (lastClose/firstClose - 1) * 100
	}
	r.MaxDrawdownPct = maxDrawdown(res.EquityCurve) * 100
	r.SharpeRatio = sharpe(res.EquityCurve)
	return r
}

// Log writes the report as one structured event.
func (r Report) Log(log zerolog.Logger) {
	log.Info().
		Int("trades", r.TotalTrades).
		Int("long", r.LongTrades).
		Int("short", r.ShortTrades).
		Float64("win_rate_pct", r.WinRatePct).
		Float64("avg_win_pct", r.AvgWinPct).
		Float64("avg_loss_pct", r.AvgLossPct).
		Float64("profit_loss_ratio", r.ProfitLossRatio).
		Float64("total_return_pct", r.TotalReturnPct).
		Float64("buy_hold_pct", r.BuyHoldPct).
		Float64("max_drawdown_pct", r.MaxDrawdownPct).
		Float64("sharpe", r.SharpeRatio).
		Msg("backtest report")
}

func maxDrawdown(curve []engine.EquityPoint) float64 {
	var peak, maxDD float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpe annualizes from the curve's own bar spacing.
func sharpe(curve []engine.EquityPoint) float64 {
	if len(curve) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			continue
		}
		returns = append(returns, curve[i].Equity/prev-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	dt := curve[1].Time.Sub(curve[0].Time)
	if dt <= 0 {
		return 0
	}
	periodsPerYear := float64(365*24*time.Hour) / float64(dt)
	return mean * periodsPerYear / (std * math.Sqrt(periodsPerYear))
}
