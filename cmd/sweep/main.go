// Command sweep runs one series across a grid of risk settings in
// parallel. Every variant gets its own engine and ledger, so runs never
// share mutable state.
package main

import (
	"flag"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"trendback-go/internal/config"
	"trendback-go/internal/data"
	"trendback-go/internal/engine"
	"trendback-go/internal/report"
	"trendback-go/internal/signal"
	"trendback-go/internal/strategy"
	"trendback-go/internal/util"
)

type variant struct {
	riskFraction float64
	rrMultiplier float64
}

type outcome struct {
	variant variant
	report  report.Report
	err     error
}

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	riskList := flag.String("risk", "0.01,0.02,0.05", "comma-separated risk fractions")
	rrList := flag.String("rr", "1.5,2,3", "comma-separated take-profit RR multiples")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := util.NewConsoleLogger("info")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := util.NewConsoleLogger(cfg.App.LogLevel)

	bars, err := data.LoadGlob(cfg.Data.CSVGlob)
	if err != nil {
		log.Fatal().Err(err).Str("glob", cfg.Data.CSVGlob).Msg("load bars")
	}
	bars = data.Enrich(bars, cfg.Data.Indicators)

	risks, err := parseFloats(*riskList)
	if err != nil {
		log.Fatal().Err(err).Msg("parse -risk")
	}
	rrs, err := parseFloats(*rrList)
	if err != nil {
		log.Fatal().Err(err).Msg("parse -rr")
	}

	var variants []variant
	for _, risk := range risks {
		for _, rr := range rrs {
			variants = append(variants, variant{riskFraction: risk, rrMultiplier: rr})
		}
	}
	log.Info().Int("bars", len(bars)).Int("variants", len(variants)).Msg("sweep started")

	outcomes := make([]outcome, len(variants))
	var wg sync.WaitGroup
	for i, v := range variants {
		wg.Add(1)
		go func(i int, v variant) {
			defer wg.Done()
			outcomes[i] = runVariant(cfg, v, bars)
		}(i, v)
	}
	wg.Wait()

	sort.Slice(outcomes, func(a, b int) bool {
		return outcomes[a].report.TotalReturnPct > outcomes[b].report.TotalReturnPct
	})
	for _, o := range outcomes {
		if o.err != nil {
			log.Error().Err(o.err).
				Float64("risk", o.variant.riskFraction).
				Float64("rr", o.variant.rrMultiplier).
				Msg("variant failed")
			continue
		}
		log.Info().
			Float64("risk", o.variant.riskFraction).
			Float64("rr", o.variant.rrMultiplier).
			Int("trades", o.report.TotalTrades).
			Float64("return_pct", o.report.TotalReturnPct).
			Float64("win_rate_pct", o.report.WinRatePct).
			Float64("max_drawdown_pct", o.report.MaxDrawdownPct).
			Float64("sharpe", o.report.SharpeRatio).
			Msg("variant done")
	}
}

func runVariant(cfg *config.Config, v variant, bars []signal.Bar) outcome {
	ecfg := engine.Config{
		Symbol:          cfg.Data.Symbol,
		StartingCash:    cfg.Engine.StartingCash,
		RiskFraction:    v.riskFraction,
		MaxRiskFraction: cfg.Engine.MaxRiskFraction,
		MinIncrement:    cfg.Engine.MinIncrement,
		RRMultiplier:    v.rrMultiplier,
		FeeRate:         cfg.Engine.FeeRate,
		Tiebreak:        engine.Tiebreak(cfg.Engine.Tiebreak),
		ForceCloseAtEnd: cfg.Engine.ForceCloseAtEnd,
	}
	// Strategies hold per-run state, so each variant builds its own.
	strat := strategy.Build(cfg.Strategy.Mode, cfg.Strategy.Params)
	eng := engine.New(ecfg, strat, util.NewLogger("warn"))

	res, err := eng.Run(bars)
	if err != nil {
		return outcome{variant: v, err: err}
	}
	rep := report.Evaluate(res, cfg.Engine.StartingCash, bars[0].Close, bars[len(bars)-1].Close)
	return outcome{variant: v, report: rep}
}

func parseFloats(list string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", part, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}
