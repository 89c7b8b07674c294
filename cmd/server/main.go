package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rpattn/trackgrid/internal/client"
	"github.com/rpattn/trackgrid/internal/config"
	"github.com/rpattn/trackgrid/internal/domain"
	"github.com/rpattn/trackgrid/internal/httpapi"
	"github.com/rpattn/trackgrid/internal/screen"
	"github.com/rpattn/trackgrid/internal/source"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "trackgrid server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := config.BuildLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	defs, err := config.LoadScreens(cfg.Screens.File)
	if err != nil {
		return err
	}
	api, err := client.New(cfg.API.BaseURL, client.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return err
	}
	fetcher := source.Router{Remote: api, Local: source.NewFiles("")}
	registry, err := screen.NewRegistry(defs, fetcher, screen.WithLogger(logger))
	if err != nil {
		return err
	}

	if cfg.Server.RefreshOnStart {
		if _, err := registry.RefreshAll(ctx, domain.FetchParams{}, 4); err != nil {
			logger.Warn("initial refresh failed", zap.Error(err))
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpapi.NewRouter(registry, logger, cfg.CORS.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr), zap.Strings("screens", registry.Names()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
