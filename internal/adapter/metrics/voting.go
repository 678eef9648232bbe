package metrics

import "github.com/prometheus/client_golang/prometheus"

// VotingMetrics covers the proposal lifecycle.
type VotingMetrics struct {
	Evaluations        *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	Transitions        *prometheus.CounterVec
	Decisions          *prometheus.CounterVec
	MergeRetries       prometheus.Counter
	Proposals          prometheus.Gauge
	Endorsers          prometheus.Gauge
	Refreshes          *prometheus.CounterVec
	Announcements      *prometheus.CounterVec
}

func NewVotingMetrics(reg prometheus.Registerer) *VotingMetrics {
	m := &VotingMetrics{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Proposal evaluations, by outcome.",
		}, []string{"outcome"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of a single proposal evaluation, including GitHub calls.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Lifecycle transitions, by target state.",
		}, []string{"state"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Rendered verdicts, by result.",
		}, []string{"result"}),
		MergeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_retries_total",
			Help:      "Merge attempts postponed because mergeability was not yet known.",
		}),
		Proposals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_proposals",
			Help:      "Open proposals in the cache.",
		}),
		Endorsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "endorsers",
			Help:      "Size of the current endorser set.",
		}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Background refreshes, by kind and result.",
		}, []string{"kind", "result"}),
		Announcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_total",
			Help:      "Announcements sent, by kind and result.",
		}, []string{"kind", "result"}),
	}

	reg.MustRegister(m.Evaluations, m.EvaluationDuration, m.Transitions, m.Decisions,
		m.MergeRetries, m.Proposals, m.Endorsers, m.Refreshes, m.Announcements)
	return m
}
