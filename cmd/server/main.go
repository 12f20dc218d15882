package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/npezzotti/campus-courier/internal/api"
	"github.com/npezzotti/campus-courier/internal/config"
	"github.com/npezzotti/campus-courier/internal/database"
	"github.com/npezzotti/campus-courier/internal/server"
	"github.com/npezzotti/campus-courier/internal/stats"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = lvl

	return zc.Build()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelOpen()

	store, err := database.Open(openCtx, cfg.Store, cfg.DatabaseDSN, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("close store", zap.Error(err))
		}
	}()
	logger.Info("store ready", zap.String("store", cfg.Store))

	mux := chi.NewRouter()

	statsUpdater := stats.NewStatsUpdater(mux)
	statsUpdater.Run()

	hub := server.NewHub(logger.Named("hub"), statsUpdater)
	srv := api.NewCourierApp(mux, logger, hub, store, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigs:
		logger.Info("received signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(serveErr, fmt.Errorf("http server shutdown: %w", err))
	}

	if err := hub.Shutdown(shutdownCtx); err != nil {
		return errors.Join(serveErr, fmt.Errorf("hub shutdown: %w", err))
	}

	if serveErr != nil {
		return serveErr
	}

	// every connection has disconnected, nothing updates the counters anymore
	statsUpdater.Stop()

	logger.Info("shutdown complete")
	return nil
}
