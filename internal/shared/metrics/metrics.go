package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	uploadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "docs",
		Name:      "uploads_total",
		Help:      "Total documents accepted by the upload gateway.",
	})
	uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docs",
		Name:      "upload_rejected_total",
		Help:      "Total uploads rejected before any write.",
	}, []string{"reason"})
	classificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docs",
		Name:      "classifications_total",
		Help:      "Total classification runs by outcome.",
	}, []string{"outcome"})
	analysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docs",
		Name:      "analyses_total",
		Help:      "Total analysis runs by outcome.",
	}, []string{"outcome"})
	streamsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docs",
		Name:      "streams_total",
		Help:      "Total stream requests by outcome (ok, denied, missing).",
	}, []string{"outcome"})
	stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docs",
		Name:      "pipeline_stage_duration_seconds",
		Help:      "Duration of classify/analyze stages.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})
)

func init() {
	registry.MustRegister(
		uploadsTotal,
		uploadRejectedTotal,
		classificationsTotal,
		analysesTotal,
		streamsTotal,
		stageDuration,
	)
}

// IncUpload counts an accepted upload.
func IncUpload() { uploadsTotal.Inc() }

// IncUploadRejected counts a rejected upload by reason.
func IncUploadRejected(reason string) { uploadRejectedTotal.WithLabelValues(reason).Inc() }

// IncClassification counts a classification run by outcome.
func IncClassification(outcome string) { classificationsTotal.WithLabelValues(outcome).Inc() }

// IncAnalysis counts an analysis run by outcome.
func IncAnalysis(outcome string) { analysesTotal.WithLabelValues(outcome).Inc() }

// IncStream counts a stream request by outcome.
func IncStream(outcome string) { streamsTotal.WithLabelValues(outcome).Inc() }

// ObserveStageDuration records a pipeline stage duration in seconds.
func ObserveStageDuration(stage string, seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	stageDuration.WithLabelValues(stage).Observe(seconds)
}

// Handler exposes the registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
