package redisapp

import (
	"log/slog"

	"github.com/BariVakhidov/eventboard/internal/config"
	"github.com/BariVakhidov/eventboard/internal/storage/redis"
)

type App struct {
	Storage *redis.Storage
	log     *slog.Logger
}

// New returns nil when no redis address is configured; the snapshot mirror is then off.
func New(log *slog.Logger, cfg config.RedisConfig) *App {
	if cfg.Addr == "" {
		return nil
	}

	redisStorage := redis.New(cfg.Addr, cfg.Password, cfg.DB, cfg.TTL)

	return &App{Storage: redisStorage, log: log}
}

func (a *App) Stop() error {
	if a == nil {
		return nil
	}

	const op = "redisapp.Stop"
	a.log.With(slog.String("op", op)).Info("stopping redis app")
	return a.Storage.Stop()
}
