package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"pointsmarket/internal/config"
	"pointsmarket/internal/engine"
	"pointsmarket/internal/httpapi"
	"pointsmarket/internal/metrics"
	"pointsmarket/internal/store"
	"pointsmarket/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/server.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting market server",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// .env feeds the ${VAR} substitutions in the config file.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using process environment")
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"addr", cfg.Server.Addr,
		"data_dir", cfg.Storage.DataDir,
	)

	metrics.Init()

	st, err := store.Open(cfg.Storage.DataDir, logger)
	if err != nil {
		logger.Error("failed to open table store", "error", err)
		os.Exit(1)
	}

	eng := engine.New(st, logger)
	api := httpapi.New(cfg.Server, eng, logger)

	metricsServer := metrics.NewServer(cfg.Metrics.Port, func(ctx context.Context) error {
		// The store is the only dependency; loading the account
		// directory proves the data dir is readable.
		_, err := st.LoadAccounts()
		return err
	})

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api server listening", "addr", cfg.Server.Addr)
		return api.Listen()
	})

	g.Go(func() error {
		logger.Info("metrics server listening", "port", cfg.Metrics.Port)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := api.Shutdown(); err != nil {
			logger.Error("api shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("market server stopped")
}
