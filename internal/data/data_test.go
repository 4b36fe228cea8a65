package data

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trendback-go/internal/signal"
)

func writeKlines(t *testing.T, dir, name string, start int64, rows int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()
	for i := 0; i < rows; i++ {
		ts := start + int64(i)*3600_000
		px := 100.0 + float64(i)
		fmt.Fprintf(f, "%d,%.2f,%.2f,%.2f,%.2f,%.2f,%d,0,0,0,0,0\n",
			ts, px, px+1, px-1, px+0.5, 10.0, ts+3599_999)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeKlines(t, dir, "BTCUSDT-1h-2024-01.csv", 1704067200000, 5)

	bars, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV returned error: %v", err)
	}
	if len(bars) != 5 {
		t.Fatalf("expected 5 bars, got %d", len(bars))
	}
	if !bars[0].Time.Equal(time.UnixMilli(1704067200000).UTC()) {
		t.Fatalf("unexpected first timestamp: %s", bars[0].Time)
	}
	if bars[0].Open != 100 || bars[0].High != 101 || bars[0].Low != 99 || bars[0].Close != 100.5 {
		t.Fatalf("unexpected first bar: %+v", bars[0])
	}
}

func TestLoadCSVMicrosecondTimestamps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "klines.csv")
	// 2025 spot dumps carry microsecond open times
	row := "1735689600000000,100,101,99,100.5,10,1735693199999,0,0,0,0,0\n"
	if err := os.WriteFile(path, []byte(row), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	bars, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV returned error: %v", err)
	}
	if !bars[0].Time.Equal(time.UnixMilli(1735689600000).UTC()) {
		t.Fatalf("microseconds not normalized: %s", bars[0].Time)
	}
}

func TestLoadGlobDedupsAndSorts(t *testing.T) {
	dir := t.TempDir()
	// second file overlaps the first by starting at the same open time
	writeKlines(t, dir, "BTCUSDT-1h-2024-01.csv", 1704067200000, 40)
	writeKlines(t, dir, "BTCUSDT-1h-2024-02.csv", 1704067200000+20*3600_000, 40)

	bars, err := LoadGlob(filepath.Join(dir, "BTCUSDT-1h-*.csv"))
	if err != nil {
		t.Fatalf("LoadGlob returned error: %v", err)
	}
	if len(bars) != 60 {
		t.Fatalf("expected 60 deduped bars, got %d", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			t.Fatalf("bars not strictly increasing at %d", i)
		}
	}
}

func TestLoadGlobTooFewBars(t *testing.T) {
	dir := t.TempDir()
	writeKlines(t, dir, "BTCUSDT-1h-2024-01.csv", 1704067200000, 10)
	if _, err := LoadGlob(filepath.Join(dir, "*.csv")); err == nil {
		t.Fatalf("expected error for short series")
	}
}

func TestLoadGlobNoMatches(t *testing.T) {
	if _, err := LoadGlob(filepath.Join(t.TempDir(), "*.csv")); err == nil {
		t.Fatalf("expected error when nothing matches")
	}
}

func TestEnrichWarmupGaps(t *testing.T) {
	bars := make([]signal.Bar, 250)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		px := 100 + 10*math.Sin(float64(i)/10)
		bars[i] = signal.Bar{
			Time: start.Add(time.Duration(i) * time.Hour),
			Open: px, High: px + 2, Low: px - 2, Close: px + 1,
			Volume: 50,
		}
	}

	cfg := IndicatorConfig{} // defaults: 20/14/14/20/2.0/200
	bars = Enrich(bars, cfg)

	if _, ok := bars[5].Indicator(signal.IndRSI); ok {
		t.Fatalf("warm-up bar must not define RSI")
	}
	if _, ok := bars[5].Indicator(signal.IndATR); ok {
		t.Fatalf("warm-up bar must not define ATR")
	}
	if _, ok := bars[30].Indicator(signal.IndRSI); !ok {
		t.Fatalf("bar 30 must define RSI")
	}
	if _, ok := bars[30].Indicator(signal.IndVolumeAvg); !ok {
		t.Fatalf("bar 30 must define volume average")
	}
	if _, ok := bars[199].Indicator(signal.IndTrend); ok {
		t.Fatalf("bar inside trend warm-up must not define trend")
	}
	trend, ok := bars[220].Indicator(signal.IndTrend)
	if !ok || (trend != 1 && trend != -1) {
		t.Fatalf("trend must be +1 or -1, got %v (ok=%t)", trend, ok)
	}

	upper, okU := bars[220].Indicator(signal.IndKeltnerUpper)
	lower, okL := bars[220].Indicator(signal.IndKeltnerLower)
	if !okU || !okL || upper <= lower {
		t.Fatalf("keltner bands malformed: upper=%v lower=%v", upper, lower)
	}
}
