package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "credit_aggregator"

var (
	ExplorerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "explorer_requests_total",
		Help:      "Explorer API requests by chain, action and outcome.",
	}, []string{"chain_id", "action", "outcome"})

	ChainFetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chain_fetch_failures_total",
		Help:      "Chains dropped from an assessment because no data could be collected.",
	}, []string{"chain_id"})

	ProtocolFetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "protocol_fetch_failures_total",
		Help:      "Failed protocol position or history reads by protocol, chain and kind.",
	}, []string{"protocol", "chain_id", "kind"})

	AssessmentDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assessment_duration_seconds",
		Help:      "Wall time of a full credit assessment.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
	})

	CreditScores = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "credit_score",
		Help:      "Distribution of computed credit scores.",
		Buckets:   prometheus.LinearBuckets(300, 50, 12),
	})
)

var registerOnce sync.Once

// MustRegister registers the collectors with the default registry once.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ExplorerRequests,
			ChainFetchFailures,
			ProtocolFetchFailures,
			AssessmentDuration,
			CreditScores,
		)
	})
}
