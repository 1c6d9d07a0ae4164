package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		mediaJobsTotal,
		mediaWebhooksTotal,
		storageUploadSeconds,
	)
}

var (
	mediaJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_jobs_total",
			Help: "Submitted editing jobs by kind (remove_object/inpaint).",
		},
		[]string{"kind"},
	)

	mediaWebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_webhooks_total",
			Help: "Completion webhooks by terminal status (completed/failed/unknown_track).",
		},
		[]string{"status"},
	)

	storageUploadSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storage_upload_seconds",
			Help:    "Object storage upload latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

func IncMediaJob(kind string) {
	mediaJobsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncMediaWebhook(status string) {
	mediaWebhooksTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveStorageUpload(seconds float64) {
	storageUploadSeconds.Observe(seconds)
}
