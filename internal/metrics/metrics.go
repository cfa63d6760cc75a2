package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// analysisDuration measures one AnalyzeState call.
	// Labels: collection, status (ok, error)
	analysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tsumego",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Time to analyse a position",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"collection", "status"})

	// cacheLookups counts analysis cache lookups.
	// Labels: result (hit, miss, error)
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsumego",
		Subsystem: "analysis",
		Name:      "cache_lookups_total",
		Help:      "Analysis cache lookups by result",
	}, []string{"result"})

	verificationMismatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsumego",
		Subsystem: "verify",
		Name:      "mismatches_total",
		Help:      "Tsumegos whose solved bound differs from the recorded value",
	}, []string{"collection"})

	exploreSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tsumego",
		Subsystem: "explore",
		Name:      "sessions",
		Help:      "Open explore websocket sessions",
	})
)

func ObserveAnalysis(collection string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	analysisDuration.WithLabelValues(collection, status).Observe(time.Since(started).Seconds())
}

func CacheHit() {
	cacheLookups.WithLabelValues("hit").Inc()
}

func CacheMiss() {
	cacheLookups.WithLabelValues("miss").Inc()
}

func CacheError() {
	cacheLookups.WithLabelValues("error").Inc()
}

func VerificationMismatches(collection string, n int) {
	verificationMismatches.WithLabelValues(collection).Add(float64(n))
}

func ExploreOpened() {
	exploreSessions.Inc()
}

func ExploreClosed() {
	exploreSessions.Dec()
}
