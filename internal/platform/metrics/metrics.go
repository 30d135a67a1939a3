package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersCreated        prometheus.Counter
	KYCBootstrapSkipped prometheus.Counter
	StatusRefreshes     *prometheus.CounterVec
	BridgeCalls         *prometheus.CounterVec
	BridgeLatency       *prometheus.HistogramVec
	WalletsCreated      prometheus.Counter
	LiquidationCreated  prometheus.Counter
	RequestLatency      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vaultbridge_users_created_total",
			Help: "Total number of users created in the system",
		}),
		KYCBootstrapSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vaultbridge_kyc_bootstrap_skipped_total",
			Help: "Signups that completed without a KYC link due to provider failure",
		}),
		StatusRefreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultbridge_status_refreshes_total",
			Help: "KYC status refresh attempts by outcome",
		}, []string{"outcome"}),
		BridgeCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultbridge_bridge_calls_total",
			Help: "Custody provider API calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		BridgeLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vaultbridge_bridge_call_duration_seconds",
			Help:    "Custody provider API call latency by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		WalletsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vaultbridge_wallets_created_total",
			Help: "Custody wallets provisioned through the provider",
		}),
		LiquidationCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vaultbridge_liquidation_addresses_created_total",
			Help: "Liquidation addresses provisioned through the provider",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vaultbridge_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// The increment helpers are nil-safe so unit tests can pass a nil *Metrics
// without registering collectors on the default registry.

// ObserveBridgeCall records one provider call.
func (m *Metrics) ObserveBridgeCall(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BridgeCalls.WithLabelValues(operation, outcome).Inc()
	m.BridgeLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) IncUsersCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}

func (m *Metrics) IncKYCBootstrapSkipped() {
	if m != nil {
		m.KYCBootstrapSkipped.Inc()
	}
}

func (m *Metrics) IncStatusRefresh(outcome string) {
	if m != nil {
		m.StatusRefreshes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncWalletsCreated() {
	if m != nil {
		m.WalletsCreated.Inc()
	}
}

func (m *Metrics) IncLiquidationCreated() {
	if m != nil {
		m.LiquidationCreated.Inc()
	}
}

func (m *Metrics) ObserveRequest(route, status string, elapsed time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, status).Observe(elapsed.Seconds())
	}
}
