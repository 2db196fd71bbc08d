package storageapp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BariVakhidov/eventboard/internal/config"
	"github.com/BariVakhidov/eventboard/internal/lib/logger/sl"
	"github.com/BariVakhidov/eventboard/internal/storage"
	"github.com/BariVakhidov/eventboard/internal/storage/postgres"
	"github.com/BariVakhidov/eventboard/internal/storage/postgrest"
	"github.com/BariVakhidov/eventboard/internal/storage/sqllite"
)

type App struct {
	Storage storage.Store
	log     *slog.Logger
	driver  string
}

// MustCreateApp opens the backend named by cfg.Driver and panics on failure.
func MustCreateApp(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) *App {
	a, err := New(ctx, cfg, log)
	if err != nil {
		panic(err)
	}

	return a
}

func New(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (*App, error) {
	s, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log.Info("storage opened", slog.String("driver", cfg.Driver))

	return &App{
		log:     log,
		Storage: s,
		driver:  cfg.Driver,
	}, nil
}

func open(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	const op = "storageapp.open"

	switch cfg.Driver {
	case config.DriverPostgREST:
		return postgrest.New(cfg.URL, cfg.Key, nil)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DSN)
	case config.DriverSQLite:
		return sqllite.New(cfg.DSN)
	}

	return nil, fmt.Errorf("%s: unknown driver %q", op, cfg.Driver)
}

func (a *App) Stop() {
	const op = "storageapp.Stop"
	log := a.log.With(slog.String("op", op), slog.String("driver", a.driver))

	log.Info("stopping storage app")
	if err := a.Storage.Close(); err != nil {
		log.Error("failed to close storage", sl.Err(err))
	}
}
