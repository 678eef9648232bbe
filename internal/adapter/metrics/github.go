package metrics

import "github.com/prometheus/client_golang/prometheus"

// GitHubMetrics covers REST calls and webhook deliveries.
type GitHubMetrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Retries         *prometheus.CounterVec
	Deliveries      *prometheus.CounterVec
}

func NewGitHubMetrics(reg prometheus.Registerer) *GitHubMetrics {
	m := &GitHubMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "github",
			Name:      "requests_total",
			Help:      "GitHub API requests, by operation and status code.",
		}, []string{"operation", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "github",
			Name:      "request_duration_seconds",
			Help:      "GitHub API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "github",
			Name:      "retries_total",
			Help:      "Retried GitHub API calls, by operation.",
		}, []string{"operation"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "github",
			Name:      "webhook_deliveries_total",
			Help:      "Webhook deliveries, by event and result.",
		}, []string{"event", "result"}),
	}

	reg.MustRegister(m.Requests, m.RequestDuration, m.Retries, m.Deliveries)
	return m
}
