package data

import (
	talib "github.com/markcheno/go-talib"

	"trendback-go/internal/signal"
)

// IndicatorConfig sizes the precomputed columns. Zero fields take the
// defaults the source strategies were tuned against.
type IndicatorConfig struct {
	VolumeAvgPeriod   int     `yaml:"volume_avg_period"`
	RSIPeriod         int     `yaml:"rsi_period"`
	ATRPeriod         int     `yaml:"atr_period"`
	KeltnerPeriod     int     `yaml:"keltner_period"`
	KeltnerMultiplier float64 `yaml:"keltner_multiplier"`
	TrendEMAPeriod    int     `yaml:"trend_ema_period"`
}

func (c IndicatorConfig) withDefaults() IndicatorConfig {
	if c.VolumeAvgPeriod <= 0 {
		c.VolumeAvgPeriod = 20
	}
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = 14
	}
	if c.ATRPeriod <= 0 {
		c.ATRPeriod = 14
	}
	if c.KeltnerPeriod <= 0 {
		c.KeltnerPeriod = 20
	}
	if c.KeltnerMultiplier <= 0 {
		c.KeltnerMultiplier = 2.0
	}
	if c.TrendEMAPeriod <= 0 {
		c.TrendEMAPeriod = 200
	}
	return c
}

// Enrich computes the indicator columns over the series and attaches them
// to each bar. Rows inside an indicator's warm-up window simply lack that
// key; the engine reads absence as a data gap rather than trusting a zero.
func Enrich(bars []signal.Bar, cfg IndicatorConfig) []signal.Bar {
	cfg = cfg.withDefaults()
	n := len(bars)
	if n == 0 {
		return bars
	}

	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		highs[i], lows[i], closes[i], volumes[i] = b.High, b.Low, b.Close, b.Volume
	}

	var volAvg, rsi, atr, kcMid, kcATR, trendEMA []float64
	if n > cfg.VolumeAvgPeriod {
		volAvg = talib.Sma(volumes, cfg.VolumeAvgPeriod)
	}
	if n > cfg.RSIPeriod {
		rsi = talib.Rsi(closes, cfg.RSIPeriod)
	}
	if n > cfg.ATRPeriod {
		atr = talib.Atr(highs, lows, closes, cfg.ATRPeriod)
	}
	if n > cfg.KeltnerPeriod {
		kcMid = talib.Ema(closes, cfg.KeltnerPeriod)
		kcATR = talib.Atr(highs, lows, closes, cfg.KeltnerPeriod)
	}
	if n > cfg.TrendEMAPeriod {
		trendEMA = talib.Ema(closes, cfg.TrendEMAPeriod)
	}

	for i := range bars {
		ind := make(map[string]float64)
		if volAvg != nil && i >= cfg.VolumeAvgPeriod {
			ind[signal.IndVolumeAvg] = volAvg[i]
		}
		if rsi != nil && i >= cfg.RSIPeriod {
			ind[signal.IndRSI] = rsi[i]
		}
		if atr != nil && i >= cfg.ATRPeriod {
			ind[signal.IndATR] = atr[i]
		}
		if kcMid != nil && kcATR != nil && i >= cfg.KeltnerPeriod {
			ind[signal.IndKeltnerUpper] = kcMid[i] + cfg.KeltnerMultiplier*kcATR[i]
			ind[signal.IndKeltnerLower] = kcMid[i] - cfg.KeltnerMultiplier*kcATR[i]
		}
		if trendEMA != nil && i >= cfg.TrendEMAPeriod {
			if closes[i] > trendEMA[i] {
				ind[signal.IndTrend] = 1
			} else {
				ind[signal.IndTrend] = -1
			}
		}
		bars[i].Indicators = ind
	}
	return bars
}
