package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"noro_planning/pkg/api/planning"
	"noro_planning/pkg/core/config"
	"noro_planning/pkg/core/logging"
	"noro_planning/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	cfgPath := os.Getenv("NORO_CONFIG")
	if cfgPath == "" {
		cfgPath = config.DefaultPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Pretty)
	ctx := logger.WithContext(context.Background())

	backend, err := store.Open(ctx, cfg.StoreSettings())
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to open assumption store")
	}
	assumptions := store.NewAssumptionStore(backend)
	defer assumptions.Close()

	router := planning.NewRouter(logger, planning.NewHandler(assumptions))
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: planning.WithCORS(router, cfg.Server.AllowedOrigins),
	}

	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("backend", cfg.Storage.Backend).
			Msg("planning API starting")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server failed")
			assumptions.Close()
			os.Exit(1)
		}
	case <-shutdown:
		logger.Info().Msg("shutdown initiated")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
			server.Close()
		}
	}
}
