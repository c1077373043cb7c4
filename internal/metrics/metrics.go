package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	shoppingWrites *prometheus.CounterVec
	imports        *prometheus.CounterVec
	llmTokens      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mealplan",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mealplan",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		shoppingWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mealplan",
			Name:      "shopping_list_writes_total",
			Help:      "Shopping list status updates by result.",
		}, []string{"result"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mealplan",
			Name:      "recipe_imports_total",
			Help:      "Recipe imports by extraction source and result.",
		}, []string{"source", "result"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mealplan",
			Name:      "llm_tokens_total",
			Help:      "Tokens spent on recipe extraction by kind.",
		}, []string{"model", "kind"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.shoppingWrites, m.imports, m.llmTokens,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ShoppingWrite counts a shopping list update.
func (m *Metrics) ShoppingWrite(err error) {
	m.shoppingWrites.WithLabelValues(result(err)).Inc()
}

// RecipeImport counts a recipe import; source is "jsonld" or "llm".
func (m *Metrics) RecipeImport(source string, err error) {
	m.imports.WithLabelValues(source, result(err)).Inc()
}

// LLMUsage adds the tokens of one model call.
func (m *Metrics) LLMUsage(model string, promptTokens, completionTokens int) {
	m.llmTokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	m.llmTokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
