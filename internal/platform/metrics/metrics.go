package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codecollab_executions_total",
			Help: "Code execution requests by outcome.",
		},
		[]string{"outcome"},
	)

	JudgeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codecollab_judge_request_duration_seconds",
			Help:    "Round-trip latency of requests to the external judge.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	InvitationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codecollab_invitations_total",
			Help: "Invitation lifecycle events.",
		},
		[]string{"event"},
	)
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(ExecutionsTotal, JudgeRequestDuration, InvitationsTotal)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
