package feed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trendback-go/internal/signal"
)

func TestStubFeedEmitsBars(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f := NewFeed(ProviderStub, "BTCUSDT", "1m", zerolog.Nop(), WithStubPeriod(10*time.Millisecond))
	out := make(chan signal.Bar, 4)
	go func() { _ = f.Run(ctx, out) }()

	var bars []signal.Bar
	for len(bars) < 3 {
		select {
		case b := <-out:
			bars = append(bars, b)
		case <-ctx.Done():
			t.Fatalf("timed out waiting for stub bars")
		}
	}

	for i, b := range bars {
		if b.High < b.Low || b.Close <= 0 {
			t.Fatalf("bar %d has nonsense prices: %+v", i, b)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			t.Fatalf("bar %d not after bar %d", i, i-1)
		}
	}
}

func TestBinanceKlineToBar(t *testing.T) {
	k := binanceKline{
		StartTime: 1700000000000,
		Open:      "100.5", High: "101.0", Low: "99.9", Close: "100.8", Volume: "12.5",
		Closed: true,
	}
	bar, err := k.toBar()
	if err != nil {
		t.Fatalf("toBar returned error: %v", err)
	}
	if bar.Open != 100.5 || bar.High != 101.0 || bar.Low != 99.9 || bar.Close != 100.8 {
		t.Fatalf("unexpected bar prices: %+v", bar)
	}
	if bar.Volume != 12.5 {
		t.Fatalf("unexpected volume: %.2f", bar.Volume)
	}

	k.Close = "not-a-number"
	if _, err := k.toBar(); err == nil {
		t.Fatalf("expected parse error for bad close")
	}
}
