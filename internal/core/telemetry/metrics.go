package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type AppMetrics struct {
	requestDuration       *prometheus.HistogramVec
	requestTotal          *prometheus.CounterVec
	activeConnections     prometheus.Gauge
	memoryUsage           prometheus.Gauge
	goroutines            prometheus.Gauge
	rateLimitHits         *prometheus.CounterVec
	rateLimitAllowed      *prometheus.CounterVec
	jobDuration           *prometheus.HistogramVec
	jobOutcomes           *prometheus.CounterVec
	jobsEnqueued          *prometheus.CounterVec
	jobQueueDepth         *prometheus.GaugeVec
	notificationsPosted   *prometheus.CounterVec
	notificationsCanceled prometheus.Counter
	reminderArms          *prometheus.CounterVec
	signalsReceived       *prometheus.CounterVec
}

func NewAppMetrics(registry prometheus.Registerer) *AppMetrics {
	metrics := &AppMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		activeConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Number of active HTTP connections",
			},
		),
		memoryUsage: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "memory_usage_bytes",
				Help: "Memory usage in bytes",
			},
		),
		goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "goroutines_total",
				Help: "Number of goroutines",
			},
		),
		rateLimitHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"path", "key_type"},
		),
		rateLimitAllowed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limit_allowed_total",
				Help: "Total number of requests allowed by rate limiter",
			},
			[]string{"path", "key_type"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "job_duration_seconds",
				Help:    "Duration of background job executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		jobOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "job_outcomes_total",
				Help: "Total number of job executions by outcome",
			},
			[]string{"kind", "outcome"},
		),
		jobsEnqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobs_enqueued_total",
				Help: "Total number of jobs enqueued",
			},
			[]string{"kind"},
		),
		jobQueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "job_queue_depth",
				Help: "Number of jobs per state",
			},
			[]string{"state"},
		),
		notificationsPosted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_posted_total",
				Help: "Total number of notifications posted",
			},
			[]string{"type"},
		),
		notificationsCanceled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "notifications_cancelled_total",
				Help: "Total number of notifications cancelled",
			},
		),
		reminderArms: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminder_arm_total",
				Help: "Total number of reminder arm attempts by kind and result",
			},
			[]string{"kind", "result"},
		),
		signalsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signals_received_total",
				Help: "Total number of system signals dispatched",
			},
			[]string{"signal"},
		),
	}

	registry.MustRegister(
		metrics.requestDuration,
		metrics.requestTotal,
		metrics.activeConnections,
		metrics.memoryUsage,
		metrics.goroutines,
		metrics.rateLimitHits,
		metrics.rateLimitAllowed,
		metrics.jobDuration,
		metrics.jobOutcomes,
		metrics.jobsEnqueued,
		metrics.jobQueueDepth,
		metrics.notificationsPosted,
		metrics.notificationsCanceled,
		metrics.reminderArms,
		metrics.signalsReceived,
	)

	return metrics
}

func (m *AppMetrics) RecordRequest(ctx context.Context, method, path, status string, duration time.Duration) {
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, status).Inc()
}

func (m *AppMetrics) IncrementActiveConnections(ctx context.Context) {
	m.activeConnections.Inc()
}

func (m *AppMetrics) DecrementActiveConnections(ctx context.Context) {
	m.activeConnections.Dec()
}

func (m *AppMetrics) RecordRateLimitHit(ctx context.Context, path, keyType string) {
	m.rateLimitHits.WithLabelValues(path, keyType).Inc()
}

func (m *AppMetrics) RecordRateLimitAllowed(ctx context.Context, path, keyType string) {
	m.rateLimitAllowed.WithLabelValues(path, keyType).Inc()
}

func (m *AppMetrics) RecordJob(ctx context.Context, kind, outcome string, duration time.Duration) {
	m.jobDuration.WithLabelValues(kind).Observe(duration.Seconds())
	m.jobOutcomes.WithLabelValues(kind, outcome).Inc()
}

func (m *AppMetrics) RecordJobEnqueued(ctx context.Context, kind string) {
	m.jobsEnqueued.WithLabelValues(kind).Inc()
}

func (m *AppMetrics) SetJobQueueDepth(ctx context.Context, state string, depth int) {
	m.jobQueueDepth.WithLabelValues(state).Set(float64(depth))
}

func (m *AppMetrics) RecordNotificationPosted(ctx context.Context, notificationType string) {
	m.notificationsPosted.WithLabelValues(notificationType).Inc()
}

func (m *AppMetrics) RecordNotificationCancelled(ctx context.Context) {
	m.notificationsCanceled.Inc()
}

func (m *AppMetrics) RecordReminderArm(ctx context.Context, kind, result string) {
	m.reminderArms.WithLabelValues(kind, result).Inc()
}

func (m *AppMetrics) RecordSignal(ctx context.Context, signal string) {
	m.signalsReceived.WithLabelValues(signal).Inc()
}

func (m *AppMetrics) StartSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				var memStats runtime.MemStats
				runtime.ReadMemStats(&memStats)
				m.memoryUsage.Set(float64(memStats.Alloc))

				m.goroutines.Set(float64(runtime.NumGoroutine()))

			case <-ctx.Done():
				return
			}
		}
	}()
}
