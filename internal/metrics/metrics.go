package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration tracks HTTP request latency per route
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// VotesCast counts votes recorded on claims
	VotesCast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insurance_votes_cast_total",
		Help: "Total number of votes cast on claims",
	})

	// ClaimsFinalized counts finalized claims by outcome
	ClaimsFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insurance_claims_finalized_total",
		Help: "Total number of claims finalized, by outcome",
	}, []string{"outcome"})

	// Distributions counts executed vault distributions by kind
	Distributions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insurance_distributions_total",
		Help: "Total number of vault distributions executed, by kind",
	}, []string{"kind"})

	// ChainRPCFailures counts RPC calls that exhausted their retries
	ChainRPCFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insurance_chain_rpc_failures_total",
		Help: "Total number of RPC operations that failed after retries",
	})
)

// Middleware records request duration per route template
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		RequestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus scrape endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
