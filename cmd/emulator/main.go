package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"model-emulator/internal/adapter"
	"model-emulator/internal/config"
	"model-emulator/internal/provider"
	"model-emulator/internal/server"
	"model-emulator/internal/telemetry"
	"model-emulator/internal/tokenizer"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	configPath := "config/config.yaml"
	if p := os.Getenv("EMULATOR_CONFIG"); p != "" {
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if p := os.Getenv("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			logger.Error("invalid PORT value", "value", p)
			os.Exit(1)
		}
		cfg.Server.Port = port
	}

	store, err := config.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open data dir", "error", err, "dir", cfg.DataDir)
		os.Exit(1)
	}

	client := provider.NewClient(cfg.BackendBaseURL)
	counter := tokenizer.NewCounter()
	recorder := telemetry.NewRecorder(logger, func() config.Logging {
		return store.Snapshot().Logging
	})

	if store.ModelsCacheStale(config.ModelsCacheTTL) {
		if err := store.SaveModelsCache(provider.ListModels("")); err != nil {
			logger.Warn("failed to refresh models cache", "error", err)
		}
	}

	rt := store.Snapshot()
	logger.Info("loaded runtime configuration",
		"provider", rt.Provider,
		"model", rt.Model,
		"emulator_active", store.EmulatorActive(),
		"data_dir", filepath.Clean(cfg.DataDir),
	)

	core := adapter.NewHandler(client, store, recorder, counter)
	handler := server.NewHandler(core, client, store, recorder, logger, cfg.Server.Port)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	wrapped := server.Chain(mux,
		server.RequestID,
		server.Logger(logger),
		server.Recovery(logger),
		server.CORS,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           wrapped,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting model emulator", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server stopped")
}
