package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbesTotal tracks endpoint liveness probes by outcome
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upgradewatch_endpoint_probes_total",
			Help: "Total number of endpoint liveness probes",
		},
		[]string{"outcome"},
	)

	// RegistryFetchesTotal tracks chain-registry document lookups
	RegistryFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upgradewatch_registry_fetches_total",
			Help: "Total number of chain-registry document lookups",
		},
		[]string{"result"},
	)

	// HeightQueriesTotal tracks RPC /status height queries
	HeightQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upgradewatch_height_queries_total",
			Help: "Total number of latest-block-height queries",
		},
		[]string{"result"},
	)

	// UpgradeQueriesTotal tracks REST upgrade-data queries per source
	UpgradeQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upgradewatch_upgrade_queries_total",
			Help: "Total number of upgrade-plan queries",
		},
		[]string{"source", "result"},
	)

	// UpgradesDetected tracks accepted upgrades by source
	UpgradesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upgradewatch_upgrades_detected_total",
			Help: "Total number of forward-looking upgrades detected",
		},
		[]string{"source"},
	)

	// ScanDuration tracks how long one network scan takes
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upgradewatch_network_scan_duration_seconds",
			Help:    "Duration of a full per-network scan in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
