package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genmedia_webhook_deliveries_total",
			Help: "Provider webhook deliveries by outcome.",
		},
		[]string{"outcome"},
	)

	webhookDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "genmedia_webhook_duration_seconds",
		Help:    "Time spent handling a provider webhook.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	signatureChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genmedia_signature_checks_total",
			Help: "Webhook signature checks by result (valid, invalid, bypassed).",
		},
		[]string{"result"},
	)

	materializationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genmedia_materializations_total",
			Help: "Artifact materializations by artifact and result (stored, fallback).",
		},
		[]string{"artifact", "result"},
	)

	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genmedia_postprocess_dispatch_total",
			Help: "Post-processing dispatches by task and result.",
		},
		[]string{"task", "result"},
	)

	processingCallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genmedia_processing_callbacks_total",
			Help: "Processing service callbacks by processing type and status.",
		},
		[]string{"type", "status"},
	)
)

func WebhookHandled(outcome string, took time.Duration) {
	webhookDeliveriesTotal.WithLabelValues(outcome).Inc()
	webhookDuration.Observe(took.Seconds())
}

func SignatureChecked(result string) {
	signatureChecksTotal.WithLabelValues(result).Inc()
}

func Materialized(artifact string, stored bool) {
	result := "stored"
	if !stored {
		result = "fallback"
	}
	materializationsTotal.WithLabelValues(artifact, result).Inc()
}

func Dispatched(task string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	dispatchTotal.WithLabelValues(task, result).Inc()
}

func ProcessingCallback(processingType, status string) {
	processingCallbacksTotal.WithLabelValues(processingType, status).Inc()
}
