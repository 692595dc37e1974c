package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "meterdata_"

	// ResultSuccess labels a successful operation.
	ResultSuccess = "success"
	// ResultError labels a failed operation.
	ResultError = "error"
)

var (
	registerOnce sync.Once

	reconcileTotal   *prometheus.CounterVec
	reconcileLatency *prometheus.HistogramVec
	reconcilePeriods *prometheus.CounterVec
	reconcileDropped *prometheus.CounterVec

	ingestRequests *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec
	ingestReadings prometheus.Counter

	billExportTotal   *prometheus.CounterVec
	billExportLatency *prometheus.HistogramVec

	uploadTotal *prometheus.CounterVec
)

// Init registers observability metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		reconcileTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_total",
				Help: "Total reconciliation runs by utility and result",
			},
			[]string{"utility", "result"},
		)
		reconcileLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "reconcile_latency_seconds",
				Help:    "Reconciliation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"utility", "result"},
		)
		reconcilePeriods = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_periods_total",
				Help: "Total billing periods emitted by utility",
			},
			[]string{"utility"},
		)
		reconcileDropped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_dropped_total",
				Help: "Total reconciliation data points dropped by kind",
			},
			[]string{"kind"},
		)

		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total reading ingest requests by result",
			},
			[]string{"result"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Reading ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		ingestReadings = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_readings_total",
				Help: "Total interval readings accepted",
			},
		)

		billExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "bill_export_total",
				Help: "Total bill export operations by format and result",
			},
			[]string{"format", "result"},
		)
		billExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "bill_export_latency_seconds",
				Help:    "Bill export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		uploadTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "upload_total",
				Help: "Total upstream upload attempts by kind and result",
			},
			[]string{"kind", "result"},
		)

		prometheus.MustRegister(
			reconcileTotal,
			reconcileLatency,
			reconcilePeriods,
			reconcileDropped,
			ingestRequests,
			ingestLatency,
			ingestReadings,
			billExportTotal,
			billExportLatency,
			uploadTotal,
		)
	})
}

// ObserveReconcile records one reconciliation run.
func ObserveReconcile(utility, result string, periods int, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if reconcileTotal != nil {
		reconcileTotal.WithLabelValues(utility, result).Inc()
	}
	if reconcileLatency != nil {
		reconcileLatency.WithLabelValues(utility, result).Observe(duration.Seconds())
	}
	if reconcilePeriods != nil && periods > 0 {
		reconcilePeriods.WithLabelValues(utility).Add(float64(periods))
	}
}

// IncReconcileDropped counts a dropped data point by diagnostic kind.
func IncReconcileDropped(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if reconcileDropped != nil {
		reconcileDropped.WithLabelValues(kind).Inc()
	}
}

// ObserveIngest records one reading ingest request.
func ObserveIngest(result string, readings int, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if ingestReadings != nil && readings > 0 {
		ingestReadings.Add(float64(readings))
	}
}

// ObserveBillExport records one export render.
func ObserveBillExport(format, result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if billExportTotal != nil {
		billExportTotal.WithLabelValues(format, result).Inc()
	}
	if billExportLatency != nil {
		billExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncUpload counts an upstream upload attempt.
func IncUpload(kind, result string) {
	if result == "" {
		result = ResultSuccess
	}
	if uploadTotal != nil {
		uploadTotal.WithLabelValues(kind, result).Inc()
	}
}
