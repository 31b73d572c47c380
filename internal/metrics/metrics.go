// Package metrics exposes Prometheus collectors for the extraction pipeline and job queue.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var documentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "budget_documents_total",
	Help: "Documents processed, labelled by detected format and outcome",
}, []string{"format", "outcome"})

var stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "budget_stage_duration_seconds",
	Help:    "Time spent in each pipeline stage.",
	Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10, 30, 60},
}, []string{"stage"})

var itemsExtracted = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "budget_items_per_document",
	Help:    "Line items kept per document.",
	Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
})

var scannedDocuments = promauto.NewCounter(prometheus.CounterOpts{
	Name: "budget_scanned_documents_total",
	Help: "Documents detected as scanned",
})

var warningsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "budget_warnings_total",
	Help: "Warnings attached to extraction results",
})

var ocrPages = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "budget_ocr_pages_total",
	Help: "OCR pages, labelled by outcome",
}, []string{"outcome"})

var ocrConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "budget_ocr_confidence",
	Help:    "Mean OCR confidence per document (0-100).",
	Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
})

var jobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "budget_jobs_in_queue",
	Help: "Number of jobs waiting in the queue",
})

var activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "budget_active_workers",
	Help: "Number of workers currently processing a job",
})

var jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "budget_job_duration_seconds",
	Help:    "Total time spent on a queued job.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"status"})

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, elapsed time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// CaptureDocument records a finished document.
func CaptureDocument(format, outcome string, items, warnings int) {
	documentsTotal.WithLabelValues(format, outcome).Inc()
	if outcome == "ok" {
		itemsExtracted.Observe(float64(items))
		warningsTotal.Add(float64(warnings))
	}
}

func IncrementScanned() {
	scannedDocuments.Inc()
}

// CaptureOCR records page outcomes and the document confidence of an OCR batch.
func CaptureOCR(ok, failed int, confidence float64) {
	ocrPages.WithLabelValues("ok").Add(float64(ok))
	ocrPages.WithLabelValues("failed").Add(float64(failed))
	ocrConfidence.Observe(confidence)
}

func IncrementJobsInQueue() {
	jobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	jobsInQueue.Dec()
}

func IncrementActiveWorkers() {
	activeWorkers.Inc()
}

func DecrementActiveWorkers() {
	activeWorkers.Dec()
}

func CaptureJob(status string, elapsed time.Duration) {
	jobDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
