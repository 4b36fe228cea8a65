// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trendback-go/internal/data"
	"trendback-go/internal/strategy"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Data locates the historical series and sizes the indicator precompute.
type Data struct {
	Symbol     string               `yaml:"symbol"`
	CSVGlob    string               `yaml:"csv_glob"`
	Indicators data.IndicatorConfig `yaml:"indicators"`
}

// Engine is the simulation's risk and execution surface.
type Engine struct {
	StartingCash    float64 `yaml:"starting_cash"`
	RiskFraction    float64 `yaml:"risk_fraction_per_trade"`
	MaxRiskFraction float64 `yaml:"max_risk_fraction"`
	MinIncrement    float64 `yaml:"min_trade_increment"`
	RRMultiplier    float64 `yaml:"rr_multiplier"`
	FeeRate         float64 `yaml:"fee_rate"`
	Tiebreak        string  `yaml:"stop_takeprofit_tiebreak"`
	ForceCloseAtEnd bool    `yaml:"force_close_at_end"`
}

// Strategy specifies which strategy is active along with the parameter bundle.
type Strategy struct {
	Mode   string          `yaml:"mode"`
	Params strategy.Params `yaml:"params"`
}

// Feed configures the streaming bar source for paper mode.
type Feed struct {
	Provider string `yaml:"provider"` // stub | binance
	Symbol   string `yaml:"symbol"`
	Interval string `yaml:"interval"` // e.g. "1m"
}

// Report controls where run artifacts land.
type Report struct {
	TradesPath string `yaml:"trades_path"` // JSONL trade log, empty disables
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Data     Data     `yaml:"data"`
	Engine   Engine   `yaml:"engine"`
	Strategy Strategy `yaml:"strategy"`
	Feed     Feed     `yaml:"feed"`
	Report   Report   `yaml:"report"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
