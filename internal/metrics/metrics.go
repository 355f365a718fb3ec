// Package metrics exposes prometheus collectors for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UploadsTotal counts accepted uploads.
	UploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stitchd_uploads_total",
		Help: "Number of accepted image uploads.",
	})

	// UploadBytesTotal counts accepted upload bytes.
	UploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stitchd_upload_bytes_total",
		Help: "Total bytes of accepted image uploads.",
	})

	// JobsSubmitted counts jobs accepted by the scheduler, per kind.
	JobsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stitchd_jobs_submitted_total",
		Help: "Number of transformation jobs submitted.",
	}, []string{"kind"})

	// JobsCompleted counts jobs that reached the complete state.
	JobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stitchd_jobs_completed_total",
		Help: "Number of transformation jobs completed successfully.",
	}, []string{"kind"})

	// JobsFailed counts jobs that reached the error state.
	JobsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stitchd_jobs_failed_total",
		Help: "Number of transformation jobs that ended in error.",
	}, []string{"kind"})

	// TransformDuration observes wall-clock transform time.
	TransformDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stitchd_transform_duration_seconds",
		Help:    "Duration of external/in-process transformations.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"kind"})
)

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
