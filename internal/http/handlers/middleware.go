package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

type DurationObserver interface {
	WithLabelValues(lvs ...string) prometheus.Observer
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Instrument logs one line per request, observes its duration by route, method
// and status code, and turns a panic into a 500. duration and panics may be nil.
func Instrument(log *slog.Logger, duration DurationObserver, panics prometheus.Counter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		defer func() {
			if p := recover(); p != nil {
				if panics != nil {
					panics.Inc()
				}
				log.Error("recovered from panic",
					slog.Any("panic", p),
					slog.String("stack", string(debug.Stack())),
				)
				if rec.status == 0 {
					http.Error(rec, ErrInternal, http.StatusInternalServerError)
				}
			}

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			elapsed := time.Since(start)

			// Pattern is filled in by the mux during dispatch.
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}

			log.Info("request handled",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", rec.status),
				slog.Duration("duration", elapsed),
			)

			if duration != nil {
				observe(r.Context(), duration.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)), elapsed.Seconds())
			}
		}()

		next.ServeHTTP(rec, r)
	})
}

func observe(ctx context.Context, obs prometheus.Observer, v float64) {
	if labels := exemplarFromContext(ctx); labels != nil {
		if eo, ok := obs.(prometheus.ExemplarObserver); ok {
			eo.ObserveWithExemplar(v, labels)
			return
		}
	}

	obs.Observe(v)
}

func exemplarFromContext(ctx context.Context) prometheus.Labels {
	if span := trace.SpanContextFromContext(ctx); span.IsSampled() {
		return prometheus.Labels{"traceID": span.TraceID().String()}
	}
	return nil
}
