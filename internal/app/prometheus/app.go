package prometheusapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BariVakhidov/eventboard/internal/lib/logger/sl"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	log    *slog.Logger
	port   int
	reg    *prometheus.Registry
	server *http.Server

	RequestDuration *prometheus.HistogramVec
	PanicsCounter   prometheus.Counter
	// Operations counts data service calls by operation and result (ok|error).
	Operations *prometheus.CounterVec
	Rejections *prometheus.CounterVec
}

func New(log *slog.Logger, port int) *App {
	reg := prometheus.NewRegistry()

	requestDuration := promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests by route, method and status code.",
		Buckets: []float64{0.001, 0.01, 0.1, 0.3, 0.6, 1, 3, 6, 9, 20, 30},
	}, []string{"route", "method", "code"})

	panicsTotal := promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "http_req_panics_recovered_total",
		Help: "Total number of HTTP requests recovered from internal panic.",
	})

	operations := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "data_service_operations_total",
		Help: "Total number of data service operations by result.",
	}, []string{"operation", "result"})

	rejections := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "form_validation_rejections_total",
		Help: "Total number of form submissions rejected by validation.",
	}, []string{"form"})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		reg,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics e.g. to support exemplars.
			EnableOpenMetrics: true,
		},
	))

	return &App{
		log:             log,
		port:            port,
		reg:             reg,
		server:          &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux},
		RequestDuration: requestDuration,
		PanicsCounter:   panicsTotal,
		Operations:      operations,
		Rejections:      rejections,
	}
}

func (a *App) MustRun() {
	err := a.Run()
	if errors.Is(err, http.ErrServerClosed) {
		a.log.Info("Prometheus server closed", sl.Err(err))
	} else if err != nil {
		a.log.Error("Failed to start Prometheus", sl.Err(err))
		panic(err)
	}
}

func (a *App) Run() error {
	const op = "prometheusapp.Run"
	log := a.log.With(slog.String("op", op), slog.Int("port", a.port))

	log.Info("exposing Prometheus metrics")

	return a.server.ListenAndServe()
}

func (a *App) Stop(ctx context.Context) error {
	const op = "prometheusapp.Stop"
	a.log.With(slog.String("op", op)).Info("stopping Prometheus server")

	return a.server.Shutdown(ctx)
}

// Handler serves the registry; it backs /metrics.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}
