package metrics

import "github.com/prometheus/client_golang/prometheus"

// AnalysisMetrics exposes counters/histograms for the analyze flow.
type AnalysisMetrics struct {
	outcomesTotal     *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec
	tokensTotal       *prometheus.CounterVec
	repairsTotal      *prometheus.CounterVec
	rateLimitedTotal  *prometheus.CounterVec
}

func NewAnalysisMetrics(reg prometheus.Registerer) *AnalysisMetrics {
	m := &AnalysisMetrics{
		outcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realitycheck",
			Subsystem: "analyzer",
			Name:      "outcomes_total",
			Help:      "Analyze calls by mode and outcome kind",
		}, []string{"mode", "outcome"}),
		generationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "realitycheck",
			Subsystem: "analyzer",
			Name:      "generation_latency_seconds",
			Help:      "Latency of outbound generation calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 30, 60},
		}, []string{"provider", "status"}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realitycheck",
			Subsystem: "analyzer",
			Name:      "tokens_total",
			Help:      "Tokens used by the generation provider",
		}, []string{"provider", "type"}), // type: input, output, total
		repairsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realitycheck",
			Subsystem: "analyzer",
			Name:      "repairs_total",
			Help:      "Structured results that needed repair or carried a banding mismatch",
		}, []string{"kind"}),
		rateLimitedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realitycheck",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}, []string{"backend"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.outcomesTotal, m.generationLatency, m.tokensTotal, m.repairsTotal, m.rateLimitedTotal)
	return m
}

func (m *AnalysisMetrics) ObserveOutcome(mode, outcome string) {
	if m == nil {
		return
	}
	m.outcomesTotal.WithLabelValues(mode, outcome).Inc()
}

func (m *AnalysisMetrics) ObserveGeneration(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.generationLatency.WithLabelValues(provider, status).Observe(seconds)
}

func (m *AnalysisMetrics) ObserveTokens(provider string, input, output, total int32) {
	if m == nil {
		return
	}
	if input > 0 {
		m.tokensTotal.WithLabelValues(provider, "input").Add(float64(input))
	}
	if output > 0 {
		m.tokensTotal.WithLabelValues(provider, "output").Add(float64(output))
	}
	if total > 0 {
		m.tokensTotal.WithLabelValues(provider, "total").Add(float64(total))
	}
}

// ObserveRepair counts a validator repair (e.g. "confidence" or "banding_mismatch").
func (m *AnalysisMetrics) ObserveRepair(kind string) {
	if m == nil {
		return
	}
	m.repairsTotal.WithLabelValues(kind).Inc()
}

func (m *AnalysisMetrics) ObserveRateLimited(backend string) {
	if m == nil {
		return
	}
	m.rateLimitedTotal.WithLabelValues(backend).Inc()
}
