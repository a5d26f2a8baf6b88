package metrics

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// httpRequests counts handled requests by route and status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comments_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// httpDuration tracks request latency
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "comments_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"method", "route"})

	// cacheLookups counts cache reads by namespace and result
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comments_cache_lookups_total",
		Help: "Cache lookups by namespace and result (hit, miss, error)",
	}, []string{"namespace", "result"})

	// cacheInvalidations counts whole-namespace invalidations
	cacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "comments_cache_invalidations_total",
		Help: "Total cache invalidations after writes",
	})

	// reactionCounterOps counts reaction counter mutations
	reactionCounterOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comments_reaction_counter_ops_total",
		Help: "Reaction counter mutations by reaction type and operation",
	}, []string{"reaction_type", "op"})
)

// Cache lookup results
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Reaction counter operations
const (
	CounterIncrement = "increment"
	CounterDecrement = "decrement"
)

// ObserveCacheLookup records one cache read
func ObserveCacheLookup(namespace, result string) {
	cacheLookups.WithLabelValues(namespace, result).Inc()
}

// ObserveCacheInvalidation records one invalidation
func ObserveCacheInvalidation() {
	cacheInvalidations.Inc()
}

// ObserveReactionCounter records one counter mutation
func ObserveReactionCounter(reactionType, op string) {
	reactionCounterOps.WithLabelValues(reactionType, op).Inc()
}

// Middleware records request count and latency per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// RegisterDBStats exposes connection pool statistics for db under name.
// Registering the same name twice is a no-op.
func RegisterDBStats(db *sql.DB, name string) error {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, name))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}
