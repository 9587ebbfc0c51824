// Package main is the entry point for the countdown image server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"countdown/config"
	"countdown/internal/app"
	"countdown/internal/logging"
	"countdown/internal/version"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	configPath := flag.String("config", "", "Path to a YAML config file (default: $COUNTDOWN_CONFIG or ./config.yaml)")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logging is not configured yet
		logging.Setup(logging.FormatAuto, slog.LevelInfo)
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Log.Format, cfg.Log.LogLevel())

	slog.Info("starting countdown",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	application, err := app.New(context.Background(), app.Config{AppConfig: cfg})
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	// Handle graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		// Force exit if shutdown hangs
		timeout := cfg.Server.ShutdownTimeout
		force := time.AfterFunc(timeout, func() {
			slog.Error("forced shutdown after timeout", "timeout", timeout)
			os.Exit(1)
		})
		defer force.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := application.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	if err := application.Start(addr); err != nil {
		slog.Error("server failed", "error", err)
		_ = application.Shutdown(context.Background())
		os.Exit(1)
	}

	<-done
}
