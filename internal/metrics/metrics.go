// Package metrics holds the Prometheus instruments shared by the loader, the
// Vault expander, and the diagnostics listener.  All collectors are
// registered with the global registry, so serving promhttp.Handler() is
// enough to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Vault fetch results.
const (
	VaultHit   = "hit"
	VaultMiss  = "miss"
	VaultError = "error"
)

var (
	ConfigLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netpulse_config_loads_total",
			Help: "Configuration load attempts by outcome.",
		}, []string{"outcome"})

	ConfigErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netpulse_config_errors_total",
			Help: "Configuration errors reported by kind.",
		}, []string{"kind"})

	ConfigFields = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netpulse_config_fields",
			Help: "Number of fields in the published configuration.",
		})

	ConfigLoadedTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netpulse_config_loaded_timestamp_seconds",
			Help: "Unix time of the last successful configuration load.",
		})

	VaultFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netpulse_vault_fetch_total",
			Help: "Vault secret lookups by result.",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		ConfigLoadsTotal,
		ConfigErrorsTotal,
		ConfigFields,
		ConfigLoadedTimestamp,
		VaultFetchTotal,
	)
}
