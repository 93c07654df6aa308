// Package metrics agrupa los collectors de Prometheus del bot.
//
// Labels con cardinalidad acotada: nombre de comando (tabla fija), outcome,
// operación del gateway. Nunca ids de usuario o canal.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK         = "ok"
	OutcomeIgnored    = "ignored"
	OutcomeDenied     = "denied"
	OutcomeCooldown   = "cooldown"
	OutcomeInputError = "input_error"
	OutcomeError      = "error"
	OutcomePanic      = "panic"
)

var (
	Commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vouchbot_commands_total",
			Help: "Commands processed by name and outcome.",
		},
		[]string{"command", "outcome"},
	)

	CommandLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vouchbot_command_duration_seconds",
			Help:    "Time spent handling a command.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// filas escritas por operación del ledger (grant, bulk, remove, restore, transfer)
	LedgerRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vouchbot_ledger_rows_total",
			Help: "Vouch rows written by ledger operation.",
		},
		[]string{"op"},
	)

	GatewayFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vouchbot_gateway_failures_total",
			Help: "Outbound chat calls that failed and were swallowed.",
		},
		[]string{"op"},
	)

	StickyRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vouchbot_sticky_refresh_total",
			Help: "Sticky notice refreshes by result.",
		},
		[]string{"result"},
	)

	PagerViews = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vouchbot_pager_views_active",
			Help: "Paginated views still accepting input.",
		},
	)
)

func init() {
	prometheus.MustRegister(Commands, CommandLatency, LedgerRows, GatewayFailures, StickyRefreshes, PagerViews)
}
