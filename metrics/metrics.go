// Package metrics provides Prometheus metrics for the stock advisor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set 汇总核心流水线的计数指标。
type Set struct {
	TicksTotal          *prometheus.CounterVec
	BarsClosedTotal     *prometheus.CounterVec
	GapsTotal           *prometheus.CounterVec
	GapMissingTotal     *prometheus.CounterVec
	UnroutedTicksTotal  prometheus.Counter
	StrategyPanicsTotal *prometheus.CounterVec
	PublishErrorsTotal  *prometheus.CounterVec
}

// New 创建并注册指标。reg 为 nil 时只创建不注册（便于测试）。
func New(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)
	return &Set{
		TicksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_ticks_total",
			Help: "Ticks received per symbol.",
		}, []string{"symbol"}),
		BarsClosedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_bars_closed_total",
			Help: "Closed OHLCV bars per symbol.",
		}, []string{"symbol"}),
		GapsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_serial_gaps_total",
			Help: "Detected serial-number gaps per symbol.",
		}, []string{"symbol"}),
		GapMissingTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_serial_missing_total",
			Help: "Missing serial numbers accumulated per symbol.",
		}, []string{"symbol"}),
		UnroutedTicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "advisor_unrouted_ticks_total",
			Help: "Ticks for symbols without an aggregator state.",
		}),
		StrategyPanicsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_strategy_panics_total",
			Help: "Recovered panics per strategy.",
		}, []string{"strategy"}),
		PublishErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_publish_errors_total",
			Help: "Outbound publish failures per topic.",
		}, []string{"topic"}),
	}
}

// StartMetricsServer 启动Prometheus指标服务器
func StartMetricsServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}
