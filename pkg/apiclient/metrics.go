package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apiclient_requests_total",
		Help: "Total outbound requests by method and outcome.",
	}, []string{"method", "outcome"})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apiclient_cache_hits_total",
		Help: "Responses served from the GET response cache.",
	})

	dedupJoinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apiclient_dedup_joins_total",
		Help: "Callers that joined an in-flight identical request.",
	})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apiclient_retries_total",
		Help: "Retry attempts after a retryable failure.",
	})
)
