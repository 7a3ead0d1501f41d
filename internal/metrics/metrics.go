package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earningbee_recommendation_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"}, // ok | empty | invalid | error
	)

	RecommendationResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "earningbee_recommendation_results",
			Help:    "Number of matches returned per recommendation request",
			Buckets: prometheus.LinearBuckets(0, 1, 7),
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earningbee_recommendation_cache_lookups_total",
			Help: "Recommendation cache lookups by result",
		},
		[]string{"result"}, // hit | miss | error
	)

	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earningbee_logins_total",
			Help: "Face logins by outcome",
		},
		[]string{"outcome"}, // new | returning | error
	)

	AssistantCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earningbee_assistant_commands_total",
			Help: "Voice assistant commands by resolved action",
		},
		[]string{"action"},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "earningbee_sessions_expired_total",
			Help: "Sessions removed by the cleanup worker",
		},
	)
)
