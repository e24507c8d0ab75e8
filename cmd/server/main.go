// Package main is the entry point of the back-office HTTP service.
// It loads the configuration, builds the application and serves until
// SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/app"
	"pixelwerk.nl/backoffice/internal/config"
)

func main() {
	setupLogging()

	log.Info("=== Back-office starting ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	}

	// Cancelled on Ctrl+C or docker stop.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialise application")
	}
	defer application.Close()

	log.WithField("env", cfg.AppEnv).Info("=== Back-office ready ===")

	if err := application.Run(ctx); err != nil {
		log.WithError(err).Error("Server stopped with error")
		return
	}

	log.Info("=== Back-office stopped ===")
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}
