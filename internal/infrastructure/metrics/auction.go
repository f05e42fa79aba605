package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type AuctionMetrics struct {
	operations  *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	activeLoans prometheus.Gauge
	escrowed    prometheus.Gauge
	feeBalance  prometheus.Gauge
	published   *prometheus.CounterVec
}

var (
	auctionOnce     sync.Once
	auctionRegistry *AuctionMetrics
)

// Auction returns the process-wide collectors, registering them on first use.
func Auction() *AuctionMetrics {
	auctionOnce.Do(func() {
		auctionRegistry = newAuctionMetrics()
		prometheus.MustRegister(auctionRegistry.collectors()...)
	})
	return auctionRegistry
}

// NewAuctionMetrics registers a fresh set of collectors on reg.
func NewAuctionMetrics(reg prometheus.Registerer) *AuctionMetrics {
	m := newAuctionMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

func newAuctionMetrics() *AuctionMetrics {
	return &AuctionMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nftloan_operations_total",
			Help: "Committed loan operations by type.",
		}, []string{"op"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nftloan_rejections_total",
			Help: "Rejected loan operations by type and error kind.",
		}, []string{"op", "kind"}),
		activeLoans: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nftloan_active_loans",
			Help: "Loans listed and not yet repaid, defaulted or delisted.",
		}),
		escrowed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nftloan_escrowed_wei",
			Help: "Value held in escrow for outstanding bids (lossy float).",
		}),
		feeBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nftloan_protocol_fee_balance_wei",
			Help: "Accumulated protocol fees not yet withdrawn (lossy float).",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nftloan_events_published_total",
			Help: "Loan events handed to publishers by name and outcome.",
		}, []string{"event", "outcome"}),
	}
}

func (m *AuctionMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.operations, m.rejections, m.activeLoans, m.escrowed, m.feeBalance, m.published}
}

func (m *AuctionMetrics) ObserveOperation(op string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op).Inc()
}

func (m *AuctionMetrics) ObserveRejection(op, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.rejections.WithLabelValues(op, kind).Inc()
}

// SetBook records the engine's aggregate balances after a change.
func (m *AuctionMetrics) SetBook(active int, escrowed, fees float64) {
	if m == nil {
		return
	}
	m.activeLoans.Set(float64(active))
	m.escrowed.Set(escrowed)
	m.feeBalance.Set(fees)
}

func (m *AuctionMetrics) ObservePublish(event string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.published.WithLabelValues(event, outcome).Inc()
}
