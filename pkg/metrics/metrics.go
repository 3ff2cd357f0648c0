package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Silo metrics
	SilosOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "siloscript_silos_open",
			Help: "Number of silos currently held open by in-flight runs",
		},
	)

	// Channel and question metrics
	ChannelsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "siloscript_channels_open",
			Help: "Number of control channels currently open",
		},
	)

	QuestionsPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "siloscript_questions_pending",
			Help: "Number of questions awaiting an answer across all channels",
		},
	)

	QuestionsAskedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "siloscript_questions_asked_total",
			Help: "Total number of questions asked of a human operator",
		},
	)

	QuestionsAnsweredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siloscript_questions_answered_total",
			Help: "Total number of questions answered, by outcome",
		},
		[]string{"outcome"},
	)

	// Run metrics
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siloscript_runs_total",
			Help: "Total number of script runs by outcome (ok or error)",
		},
		[]string{"status"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "siloscript_run_duration_seconds",
			Help:    "Time taken for a script run to complete in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RunsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "siloscript_runs_in_flight",
			Help: "Number of script runs currently executing",
		},
	)

	// Data façade metrics
	DataRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siloscript_data_requests_total",
			Help: "Total number of data façade requests by method and status",
		},
		[]string{"method", "status"},
	)

	DataRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "siloscript_data_request_duration_seconds",
			Help:    "Data façade request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// HTTP API metrics (shared by all three façades)
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siloscript_api_requests_total",
			Help: "Total number of API requests by façade, method and status",
		},
		[]string{"facade", "method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "siloscript_api_request_duration_seconds",
			Help:    "API request duration in seconds by façade",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"facade"},
	)

	// Store metrics
	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "siloscript_store_operation_duration_seconds",
			Help:    "Time taken for a store operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "backend"},
	)

	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siloscript_store_errors_total",
			Help: "Total number of store operation errors by backend and error kind",
		},
		[]string{"backend", "kind"},
	)

	// Crypto worker pool metrics
	CryptoQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "siloscript_crypto_queue_depth",
			Help: "Number of encrypt/decrypt jobs waiting on the crypto worker pool",
		},
	)

	CryptoOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "siloscript_crypto_operation_duration_seconds",
			Help:    "Time taken for an encrypt or decrypt operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(SilosOpen)
	prometheus.MustRegister(ChannelsOpen)
	prometheus.MustRegister(QuestionsPending)
	prometheus.MustRegister(QuestionsAskedTotal)
	prometheus.MustRegister(QuestionsAnsweredTotal)
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(RunsInFlight)
	prometheus.MustRegister(DataRequestsTotal)
	prometheus.MustRegister(DataRequestDuration)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(StoreOperationDuration)
	prometheus.MustRegister(StoreErrorsTotal)
	prometheus.MustRegister(CryptoQueueDepth)
	prometheus.MustRegister(CryptoOperationDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
