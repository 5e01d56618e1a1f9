package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	metricPrefix = "driver_ledger_"

	resultSuccess  = "success"
	resultRejected = "rejected"
	resultError    = "error"
)

var (
	registerOnce sync.Once

	recordWritesTotal   *prometheus.CounterVec
	recordWriteLatency  *prometheus.HistogramVec
	reportTotal         *prometheus.CounterVec
	reportLatency       *prometheus.HistogramVec
	exportTotal         *prometheus.CounterVec
	exportLatency       *prometheus.HistogramVec
	storeOperationTotal *prometheus.CounterVec
)

// RecordCounter reports the number of rows currently in the ledger.
type RecordCounter func(ctx context.Context) (int, error)

// Init registers ledger metrics. counter may be nil.
func Init(counter RecordCounter, log zerolog.Logger) {
	registerOnce.Do(func() {
		recordWritesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "record_writes_total",
				Help: "Total recorder submissions by activity and result",
			},
			[]string{"activity", "result"},
		)
		recordWriteLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "record_write_latency_seconds",
				Help:    "Recorder latency in seconds, including the store round-trip",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"activity"},
		)
		reportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_total",
				Help: "Total report computations by kind, window and result",
			},
			[]string{"report", "window", "result"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_latency_seconds",
				Help:    "Report computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"report"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		)
		storeOperationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_operations_total",
				Help: "Total ledger store operations by driver, operation and result",
			},
			[]string{"driver", "operation", "result"},
		)

		prometheus.MustRegister(
			recordWritesTotal,
			recordWriteLatency,
			reportTotal,
			reportLatency,
			exportTotal,
			exportLatency,
			storeOperationTotal,
		)

		if counter != nil {
			registerLedgerGauge(counter, log)
		}
	})
}

func registerLedgerGauge(counter RecordCounter, log zerolog.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "records",
			Help: "Rows currently in the ledger",
		},
		func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			count, err := counter(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("metrics ledger count failed")
				return 0
			}
			return float64(count)
		},
	))
}

// ObserveRecordWrite records a recorder submission.
func ObserveRecordWrite(activity, result string, duration time.Duration) {
	if activity == "" {
		activity = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if recordWritesTotal != nil {
		recordWritesTotal.WithLabelValues(activity, result).Inc()
	}
	if recordWriteLatency != nil {
		recordWriteLatency.WithLabelValues(activity).Observe(duration.Seconds())
	}
}

// ObserveReport records a report computation.
func ObserveReport(report, window, result string, duration time.Duration) {
	if window == "" {
		window = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportTotal != nil {
		reportTotal.WithLabelValues(report, window, result).Inc()
	}
	if reportLatency != nil {
		reportLatency.WithLabelValues(report).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format).Observe(duration.Seconds())
	}
}

// IncStoreOperation counts a ledger store round-trip.
func IncStoreOperation(driver, operation, result string) {
	if result == "" {
		result = resultSuccess
	}
	if storeOperationTotal != nil {
		storeOperationTotal.WithLabelValues(driver, operation, result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess  = resultSuccess
	ResultRejected = resultRejected
	ResultError    = resultError
)
