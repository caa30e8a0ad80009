package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll-cycle metrics, registered on the default registry.
var (
	PollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nayax_poll_cycles_total",
		Help: "Completed poll cycles.",
	})
	PollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nayax_poll_failures_total",
		Help: "Poll cycles aborted by a transient API failure.",
	})
	NewSales = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nayax_sales_new_total",
		Help: "Newly observed transactions.",
	})
	UpdatedSales = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nayax_sales_updated_total",
		Help: "Stored transactions overwritten because a tracked field changed.",
	})
	PurgedTransactions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nayax_transactions_purged_total",
		Help: "Transactions removed by age-based cleanup.",
	})
	APIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nayax_api_errors_total",
		Help: "Vendor API errors by kind.",
	}, []string{"kind"})
	MachineCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nayax_machines",
		Help: "Machines in the current roster.",
	})
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nayax_poll_cycle_seconds",
		Help:    "Wall time of a full poll cycle.",
		Buckets: prometheus.DefBuckets,
	})
)

// RegisterMetrics registers Prometheus handler in provided mux
func RegisterMetrics(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
