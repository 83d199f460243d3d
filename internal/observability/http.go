package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const httpMeterName = "relief/http"

// HTTPInstrumentation records a request counter and a latency histogram for
// every request that reaches a route.
type HTTPInstrumentation struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewHTTPInstrumentation creates the HTTP instruments on mp, or on the global
// meter provider when mp is nil.
func NewHTTPInstrumentation(mp metric.MeterProvider) (*HTTPInstrumentation, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(httpMeterName)

	requests, err := meter.Int64Counter(
		"relief.http.requests",
		metric.WithDescription("Number of HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"relief.http.request.duration",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPInstrumentation{requests: requests, duration: duration}, nil
}

// Middleware wraps next and records method, route template and status code.
func (h *HTTPInstrumentation) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		attrs := metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", routeTemplate(r)),
			attribute.String("http.status_code", strconv.Itoa(rec.status)),
		)
		h.requests.Add(r.Context(), 1, attrs)
		h.duration.Record(r.Context(), time.Since(start).Seconds(), attrs)
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
