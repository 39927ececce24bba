package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queriesExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerchat_queries_executed_total",
			Help: "Total number of SQL queries executed, by outcome.",
		},
		[]string{"status"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledgerchat_query_duration_seconds",
			Help:    "SQL query execution latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
	validationRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerchat_validation_rejections_total",
			Help: "Total number of SQL statements rejected by the safety validator.",
		},
	)
	queryTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerchat_query_timeouts_total",
			Help: "Total number of queries abandoned after exceeding the execution timeout.",
		},
	)
	poolExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerchat_pool_exhausted_total",
			Help: "Total number of queries refused because no connection slot was available.",
		},
	)
	chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerchat_chat_requests_total",
			Help: "Total number of chat messages handled, by conversation path.",
		},
		[]string{"path"},
	)
	retrievalFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerchat_retrieval_failures_total",
			Help: "Total number of schema retrieval attempts that degraded to empty context.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		queriesExecutedTotal,
		queryDurationSeconds,
		validationRejectionsTotal,
		queryTimeoutsTotal,
		poolExhaustedTotal,
		chatRequestsTotal,
		retrievalFailuresTotal,
	)
}

func ObserveQuery(status string, elapsed time.Duration) {
	queriesExecutedTotal.WithLabelValues(status).Inc()
	queryDurationSeconds.Observe(elapsed.Seconds())
	switch status {
	case "timeout":
		queryTimeoutsTotal.Inc()
	case "pool_exhausted":
		poolExhaustedTotal.Inc()
	}
}

func IncrementValidationRejection() {
	validationRejectionsTotal.Inc()
}

func IncrementChatRequest(path string) {
	chatRequestsTotal.WithLabelValues(path).Inc()
}

func IncrementRetrievalFailure() {
	retrievalFailuresTotal.Inc()
}
