// Package data implements the historical-data collaborator: kline CSV
// loading and indicator precompute. Indicator values at any row use only
// that row and earlier ones, so downstream consumers cannot see the future.
package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"trendback-go/internal/signal"
)

// MinBars is the smallest series worth running; shorter ones are almost
// all indicator warm-up.
const MinBars = 50

// LoadCSV reads one binance public-kline CSV (headerless, twelve columns,
// millisecond open time) into bars.
func LoadCSV(path string) ([]signal.Bar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open klines: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read klines %s: %w", path, err)
	}

	bars := make([]signal.Bar, 0, len(records))
	for n, rec := range records {
		if len(rec) < 6 {
			return nil, fmt.Errorf("%s row %d: expected at least 6 columns, got %d", path, n+1, len(rec))
		}
		bar, err := parseKline(rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, n+1, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// LoadGlob loads every file matching the pattern, then dedups by timestamp
// and sorts. It fails when the merged series is too short to backtest.
func LoadGlob(pattern string) ([]signal.Bar, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no kline files match %q", pattern)
	}
	sort.Strings(paths)

	var bars []signal.Bar
	for _, path := range paths {
		chunk, err := LoadCSV(path)
		if err != nil {
			return nil, err
		}
		bars = append(bars, chunk...)
	}

	bars = dedupSort(bars)
	if len(bars) < MinBars {
		return nil, fmt.Errorf("not enough bars: %d (need %d)", len(bars), MinBars)
	}
	return bars, nil
}

func parseKline(rec []string) (signal.Bar, error) {
	ts, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return signal.Bar{}, fmt.Errorf("open time: %w", err)
	}
	// Spot kline dumps switched to microsecond timestamps in 2025.
	if ts > 1e15 {
		ts /= 1000
	}

	fields := make([]float64, 5)
	for i := 0; i < 5; i++ {
		fields[i], err = strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return signal.Bar{}, fmt.Errorf("column %d: %w", i+1, err)
		}
	}
	return signal.Bar{
		Time:   time.UnixMilli(ts).UTC(),
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}

func dedupSort(bars []signal.Bar) []signal.Bar {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for i, b := range bars {
		if i > 0 && b.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, b)
	}
	return out
}
