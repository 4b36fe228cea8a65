package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"trendback-go/internal/signal"
)

type binanceKlineEvent struct {
	Kline binanceKline `json:"k"`
}

type binanceKline struct {
	StartTime int64  `json:"t"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"`
}

func (f *Feed) runBinance(ctx context.Context, out chan<- signal.Bar) error {
	if f.symbol == "" {
		return fmt.Errorf("binance feed requires a symbol")
	}

	url := fmt.Sprintf("wss://stream.binance.com:9443/ws/%s@kline_%s",
		strings.ToLower(f.symbol), f.interval)
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consumeBinanceStream(ctx, url, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Msg("binance feed disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (f *Feed) consumeBinanceStream(ctx context.Context, url string, out chan<- signal.Bar) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.log.Info().Str("provider", ProviderBinance).Str("symbol", f.symbol).Str("interval", f.interval).Msg("connected bar feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("binance ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event binanceKlineEvent
		if err := json.Unmarshal(message, &event); err != nil {
			f.log.Warn().Err(err).Msg("failed to decode binance message")
			continue
		}
		// Only completed klines become bars; partial updates would let the
		// engine act on a close that can still change.
		if !event.Kline.Closed {
			continue
		}

		bar, err := event.Kline.toBar()
		if err != nil {
			f.log.Warn().Err(err).Msg("invalid kline from binance")
			continue
		}

		select {
		case out <- bar:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (k binanceKline) toBar() (signal.Bar, error) {
	fields := [5]string{k.Open, k.High, k.Low, k.Close, k.Volume}
	parsed := [5]float64{}
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return signal.Bar{}, fmt.Errorf("kline field %d: %w", i, err)
		}
		parsed[i] = v
	}
	return signal.Bar{
		Time:   time.UnixMilli(k.StartTime).UTC(),
		Open:   parsed[0],
		High:   parsed[1],
		Low:    parsed[2],
		Close:  parsed[3],
		Volume: parsed[4],
	}, nil
}
