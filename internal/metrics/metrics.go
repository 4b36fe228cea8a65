package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bars_total", Help: "Bars processed by the engine"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Actionable signals routed through the engine"},
		[]string{"symbol", "action"},
	)
	EntriesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "entries_rejected_total", Help: "Entry proposals rejected or skipped, by reason"},
		[]string{"symbol", "reason"},
	)
	TradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_closed_total", Help: "Round-trips booked to the trade log, by exit reason"},
		[]string{"symbol", "reason"},
	)
	DataGaps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "data_gaps_total", Help: "Bars skipped for signal generation due to missing indicator columns"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(BarsTotal, SignalsTotal, EntriesRejected, TradesClosed, DataGaps)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
