package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/BariVakhidov/eventboard/internal/config"
)

type App struct {
	log    *slog.Logger
	server *http.Server
}

func New(log *slog.Logger, cfg config.HTTPConfig, handler http.Handler) *App {
	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{log: log, server: server}
}

// MustRun runs the HTTP server and panics if it fails for any reason other than shutdown.
func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

func (a *App) Run() error {
	const op = "httpapp.Run"
	log := a.log.With(slog.String("op", op), slog.String("addr", a.server.Addr))

	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("HTTP server is running", slog.String("addr", listener.Addr().String()))

	if err := a.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Stop waits for in-flight requests until ctx is done.
func (a *App) Stop(ctx context.Context) error {
	const op = "httpapp.Stop"

	a.log.With(slog.String("op", op), slog.String("addr", a.server.Addr)).
		Info("stopping HTTP server")

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
