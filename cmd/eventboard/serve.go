package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BariVakhidov/eventboard/internal/app"
	"github.com/BariVakhidov/eventboard/internal/config"
	"github.com/BariVakhidov/eventboard/internal/lib/logger/sl"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web app until SIGINT or SIGTERM",
	Args:  cobra.NoArgs,
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := config.MustLoad(configPath)

	logger := setupLogger(cfg.Env, os.Stdout)
	logger.Info("starting application",
		slog.String("env", cfg.Env),
		slog.String("driver", cfg.Storage.Driver),
		slog.String("addr", cfg.HTTP.Address),
	)

	application := app.New(logger, cfg)

	application.MustRun()

	//graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGTERM, syscall.SIGINT)

	sign := <-stopChan
	logger.Info("stopping application", slog.String("signal", sign.String()))
	if err := application.Stop(); err != nil {
		logger.Error("failed to stop application", slog.String("signal", sign.String()), sl.Err(err))
		return
	}
	logger.Info("application stopped", slog.String("signal", sign.String()))
}
