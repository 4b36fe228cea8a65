// Command stream runs the engine in paper mode against a live bar feed.
// Closed bars are appended to a rolling window, indicators are recomputed
// over the window, and the engine advances one step per bar. A report is
// printed on shutdown.
package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"trendback-go/internal/config"
	"trendback-go/internal/data"
	"trendback-go/internal/engine"
	"trendback-go/internal/feed"
	"trendback-go/internal/metrics"
	"trendback-go/internal/report"
	"trendback-go/internal/signal"
	"trendback-go/internal/strategy"
	"trendback-go/internal/util"
)

// maxWindow bounds the in-memory bar history. It must comfortably exceed
// the longest indicator warm-up (the trend EMA) so the strategy always
// sees fully defined columns once the window fills.
const maxWindow = 1000

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := util.NewConsoleLogger("info")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	src := feed.NewFeed(cfg.Feed.Provider, cfg.Feed.Symbol, cfg.Feed.Interval, log)
	barCh := make(chan signal.Bar, 256)

	go func() {
		if err := src.Run(ctx, barCh); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()

	strat := strategy.Build(cfg.Strategy.Mode, cfg.Strategy.Params)
	eng := engine.New(engine.Config{
		Symbol:          cfg.Feed.Symbol,
		StartingCash:    cfg.Engine.StartingCash,
		RiskFraction:    cfg.Engine.RiskFraction,
		MaxRiskFraction: cfg.Engine.MaxRiskFraction,
		MinIncrement:    cfg.Engine.MinIncrement,
		RRMultiplier:    cfg.Engine.RRMultiplier,
		FeeRate:         cfg.Engine.FeeRate,
		Tiebreak:        engine.Tiebreak(cfg.Engine.Tiebreak),
		ForceCloseAtEnd: cfg.Engine.ForceCloseAtEnd,
	}, strat, log)

	log.Info().Str("provider", cfg.Feed.Provider).Str("symbol", cfg.Feed.Symbol).
		Str("interval", cfg.Feed.Interval).Msg("paper engine started")

	var raw []signal.Bar
	var first, last float64
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			eng.Finish()
			res := eng.Result()
			if res.Summary.Bars > 0 {
				report.Evaluate(res, cfg.Engine.StartingCash, first, last).Log(log)
			}
			return

		case bar := <-barCh:
			raw = append(raw, bar)
			if len(raw) > maxWindow {
				raw = raw[len(raw)-maxWindow:]
			}
			if first == 0 {
				first = bar.Close
			}
			last = bar.Close

			enriched := data.Enrich(raw, cfg.Data.Indicators)
			if err := eng.Step(len(enriched)-1, enriched); err != nil {
				log.Error().Err(err).Msg("engine halted")
				cancel()
				continue
			}
			pos := eng.Ledger().Position()
			log.Debug().Time("ts", bar.Time).Float64("close", bar.Close).
				Str("position", string(pos.Side)).
				Float64("equity", eng.Ledger().Equity(bar.Close)).
				Msg("bar processed")
		}
	}
}
