package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "buildwatch",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of API requests in seconds.",
	},
	[]string{"method", "route", "status"},
)

// RegisterMetrics registers the request collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	if err := reg.Register(requestDuration); err != nil {
		return fmt.Errorf("failed to register requestDuration metric: %w", err)
	}
	return nil
}

type statusCapturingWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusCapturingWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturing := &statusCapturingWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(capturing, r)
		took := time.Since(start)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(capturing.statusCode)).Observe(took.Seconds())

		event := log.Debug()
		if capturing.statusCode > 499 {
			event = log.Error()
		}
		event.Str("method", r.Method).Str("route", route).Int("status", capturing.statusCode).Dur("took", took).Msg("Responded")
	})
}
