package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusSink exposes the running lb/ub gauges and a cumulative
// incumbent-improvement counter on a registry of its own, the same
// self-contained-registry pattern used for custom metrics elsewhere in
// the pack (InitMetrics-style registration, one definition, reused
// across calls).
type PrometheusSink struct {
	registry *prometheus.Registry
	lb       prometheus.Gauge
	ub       prometheus.Gauge
	improved prometheus.Counter
}

// NewPrometheusSink builds a sink with its own registry so embedding it
// in a process never collides with default-registry metrics.
func NewPrometheusSink() *PrometheusSink {
	s := &PrometheusSink{
		registry: prometheus.NewRegistry(),
		lb: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pmaxsat_lb_cost",
			Help: "Current lower bound on the optimum cost.",
		}),
		ub: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pmaxsat_ub_cost",
			Help: "Current upper bound (best incumbent cost found).",
		}),
		improved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pmaxsat_incumbent_improvements_total",
			Help: "Number of times the incumbent upper bound improved.",
		}),
	}
	s.registry.MustRegister(s.lb, s.ub, s.improved)
	return s
}

// Observe pushes the counters' latest bounds into the gauges, and
// increments the improvement counter if the latest recorded ub is
// below the one recorded before it.
func (s *PrometheusSink) Observe(c *Counters) {
	s.lb.Set(float64(c.LastLB()))
	hist := c.UBHistory()
	if len(hist) >= 2 && hist[len(hist)-1] < hist[len(hist)-2] {
		s.improved.Inc()
	}
	s.ub.Set(float64(c.LastUB()))
}

// Handler returns the HTTP handler to mount at the `--metrics-addr`
// flag's listener (§6.3).
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
