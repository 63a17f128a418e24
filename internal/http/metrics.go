package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	stepupCodesSent   prometheus.Counter
	stepupVerifyTotal *prometheus.CounterVec
	stepupBlocksTotal prometheus.Counter
)

// RegisterMetrics inicializa las métricas y devuelve el handler para /metrics.
func RegisterMetrics(reg prometheus.Registerer) http.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		stepupCodesSent = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stepup_codes_sent_total",
			Help: "Códigos one-time emitidos",
		})

		stepupVerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepup_verify_total",
			Help: "Resultados de verificación de código",
		}, []string{"result"}) // success | invalid | blocked

		stepupBlocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stepup_blocks_created_total",
			Help: "Bloqueos creados por exceso de intentos",
		})

		reg.MustRegister(httpRequestsTotal, httpRequestDuration,
			stepupCodesSent, stepupVerifyTotal, stepupBlocksTotal)
	})

	return promhttp.Handler()
}

// IncCodeSent registra un código emitido.
func IncCodeSent() {
	if stepupCodesSent != nil {
		stepupCodesSent.Inc()
	}
}

// IncVerify registra el resultado de una verificación.
func IncVerify(result string) {
	if stepupVerifyTotal != nil {
		stepupVerifyTotal.WithLabelValues(result).Inc()
	}
}

// IncBlockCreated registra un bloqueo nuevo.
func IncBlockCreated() {
	if stepupBlocksTotal != nil {
		stepupBlocksTotal.Inc()
	}
}

// statusWriter captura el status code para las métricas HTTP.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// WithMetrics instrumenta requests con contadores y latencias.
func WithMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpRequestsTotal == nil {
			next.ServeHTTP(w, r)
			return
		}
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)

		// Patrón de ruta chi para no explotar cardinality con IDs
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
