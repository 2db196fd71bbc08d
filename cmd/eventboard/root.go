package main

import (
	"io"
	"log/slog"

	"github.com/BariVakhidov/eventboard/internal/config"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "eventboard",
	Short: "Discover local events and RSVP to them",
	Long: `eventboard serves a small event discovery site backed by a hosted
data service.

  - serve    Run the web app, the metrics endpoint and the notification sender
  - events   Fetch the events once and print the filtered list`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (defaults to $CONFIG_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(eventsCmd)
}

func setupLogger(env string, w io.Writer) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case config.EnvLocal:
		logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDev:
		logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return logger
}
