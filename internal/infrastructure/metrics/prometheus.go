package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
)

// CopilotMetrics holds the Prometheus metrics of the suggestion pipeline
type CopilotMetrics struct {
	GatewayCallsTotal  *prometheus.CounterVec
	GatewayCallSeconds *prometheus.HistogramVec
	RunsTotal          *prometheus.CounterVec
	RunSeconds         *prometheus.HistogramVec
	SuggestionsTotal   *prometheus.CounterVec
	ReviewsTotal       *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewCopilotMetrics registers the copilot metrics on reg
func NewCopilotMetrics(reg *prometheus.Registry) *CopilotMetrics {
	factory := promauto.With(reg)

	return &CopilotMetrics{
		GatewayCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_gateway_calls_total",
				Help: "Model gateway calls by outcome and attempts used",
			},
			[]string{"outcome", "attempts"},
		),
		GatewayCallSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "copilot_gateway_call_seconds",
				Help:    "Model gateway latency including retries",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_runs_total",
				Help: "Finalized copilot runs by mode and status",
			},
			[]string{"mode", "status"},
		),
		RunSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "copilot_run_seconds",
				Help:    "Copilot run duration",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
			},
			[]string{"mode"},
		),
		SuggestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_suggestions_total",
				Help: "Suggestions created or merged by type",
			},
			[]string{"type", "action"},
		),
		ReviewsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_reviews_total",
				Help: "Reviewer decisions on suggestions",
			},
			[]string{"action"},
		),
		gatherer: reg,
	}
}

func (m *CopilotMetrics) ObserveGatewayCall(outcome string, attempts int, elapsed time.Duration) {
	m.GatewayCallsTotal.WithLabelValues(outcome, strconv.Itoa(attempts)).Inc()
	m.GatewayCallSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *CopilotMetrics) ObserveRun(mode entities.RunMode, status entities.RunStatus, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(string(mode), string(status)).Inc()
	m.RunSeconds.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}

func (m *CopilotMetrics) AddSuggestions(t entities.SuggestionType, action string, n int) {
	if n <= 0 {
		return
	}
	m.SuggestionsTotal.WithLabelValues(string(t), action).Add(float64(n))
}

func (m *CopilotMetrics) ObserveReview(action string) {
	m.ReviewsTotal.WithLabelValues(action).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *CopilotMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
