package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"

	"trendback-go/internal/config"
	"trendback-go/internal/data"
	"trendback-go/internal/engine"
	"trendback-go/internal/report"
	"trendback-go/internal/strategy"
	"trendback-go/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	tradesPath := flag.String("trades", "", "JSONL trade log path (overrides config)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := util.NewConsoleLogger("info")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := util.NewConsoleLogger(cfg.App.LogLevel)

	glob := cfg.Data.CSVGlob
	if v := os.Getenv("DATA_CSV_GLOB"); v != "" {
		glob = v
	}

	bars, err := data.LoadGlob(glob)
	if err != nil {
		log.Fatal().Err(err).Str("glob", glob).Msg("load bars")
	}
	bars = data.Enrich(bars, cfg.Data.Indicators)
	log.Info().Int("bars", len(bars)).Str("symbol", cfg.Data.Symbol).
		Time("from", bars[0].Time).Time("to", bars[len(bars)-1].Time).Msg("series loaded")

	strat := strategy.Build(cfg.Strategy.Mode, cfg.Strategy.Params)
	eng := engine.New(engineConfig(cfg), strat, log)

	res, err := eng.Run(bars)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest aborted")
	}
	log.Info().
		Int("bars", res.Summary.Bars).
		Int("signals", res.Summary.Signals).
		Int("invalid_risk", res.Summary.InvalidRisk).
		Int("risk_too_large", res.Summary.RiskTooLarge).
		Int("data_gaps", res.Summary.DataGaps).
		Msg("run complete")

	rep := report.Evaluate(res, cfg.Engine.StartingCash, bars[0].Close, bars[len(bars)-1].Close)
	rep.Log(log)

	out := cfg.Report.TradesPath
	if *tradesPath != "" {
		out = *tradesPath
	}
	if out != "" {
		rec, err := report.NewJSONLRecorder(out)
		if err != nil {
			log.Fatal().Err(err).Str("path", out).Msg("open trade log")
		}
		rec.RecordAll(res.Trades)
		if err := rec.Close(); err != nil {
			log.Error().Err(err).Msg("close trade log")
		}
		log.Info().Int("trades", len(res.Trades)).Str("path", out).Msg("trades recorded")
	}
}

// engineConfig maps the YAML surface onto the engine's runtime config.
func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		Symbol:          cfg.Data.Symbol,
		StartingCash:    cfg.Engine.StartingCash,
		RiskFraction:    cfg.Engine.RiskFraction,
		MaxRiskFraction: cfg.Engine.MaxRiskFraction,
		MinIncrement:    cfg.Engine.MinIncrement,
		RRMultiplier:    cfg.Engine.RRMultiplier,
		FeeRate:         cfg.Engine.FeeRate,
		Tiebreak:        engine.Tiebreak(cfg.Engine.Tiebreak),
		ForceCloseAtEnd: cfg.Engine.ForceCloseAtEnd,
	}
}
