package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP and domain collectors. A nil *Metrics is valid and
// records nothing, so services can run without instrumentation in tests.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	XPGranted            *prometheus.CounterVec
	LevelUps             prometheus.Counter
	Submissions          *prometheus.CounterVec
	SubmissionsGraded    prometheus.Counter
	GradesRecorded       prometheus.Counter
	ChallengeCompletions prometheus.Counter
	BadgesAwarded        prometheus.Counter
	EventPublishFailures *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		XPGranted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pelangi_xp_granted_total",
				Help: "Experience points granted to students",
			},
			[]string{"source"},
		),
		LevelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pelangi_level_ups_total",
			Help: "Number of student level changes",
		}),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pelangi_submissions_total",
				Help: "Assignment submissions by resulting status",
			},
			[]string{"status"},
		),
		SubmissionsGraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pelangi_submissions_graded_total",
			Help: "Assignment submissions graded",
		}),
		GradesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pelangi_grades_recorded_total",
			Help: "Grade entries recorded",
		}),
		ChallengeCompletions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pelangi_challenge_completions_total",
			Help: "Challenge participations marked completed",
		}),
		BadgesAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pelangi_badges_awarded_total",
			Help: "Badges awarded to students",
		}),
		EventPublishFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pelangi_event_publish_failures_total",
				Help: "Domain events that could not be published",
			},
			[]string{"type"},
		),
	}

	m.registry.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.XPGranted,
		m.LevelUps,
		m.Submissions,
		m.SubmissionsGraded,
		m.GradesRecorded,
		m.ChallengeCompletions,
		m.BadgesAwarded,
		m.EventPublishFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveXP(source string, amount int) {
	if m == nil || amount <= 0 {
		return
	}
	m.XPGranted.WithLabelValues(source).Add(float64(amount))
}

func (m *Metrics) IncLevelUp() {
	if m != nil {
		m.LevelUps.Inc()
	}
}

func (m *Metrics) IncSubmission(status string) {
	if m != nil {
		m.Submissions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncSubmissionGraded() {
	if m != nil {
		m.SubmissionsGraded.Inc()
	}
}

func (m *Metrics) IncGradeRecorded(n int) {
	if m != nil && n > 0 {
		m.GradesRecorded.Add(float64(n))
	}
}

func (m *Metrics) IncChallengeCompletion() {
	if m != nil {
		m.ChallengeCompletions.Inc()
	}
}

func (m *Metrics) IncBadgeAwarded() {
	if m != nil {
		m.BadgesAwarded.Inc()
	}
}

func (m *Metrics) IncEventPublishFailure(eventType string) {
	if m != nil {
		m.EventPublishFailures.WithLabelValues(eventType).Inc()
	}
}

// MetricsMiddleware records request count and latency per route template.
func (m *Metrics) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// PrometheusHandler exposes the registry in the text exposition format.
func (m *Metrics) PrometheusHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
