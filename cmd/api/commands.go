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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognigraph/cognigraph-backend/config"
	"github.com/cognigraph/cognigraph-backend/internal/bootstrap"
	"github.com/cognigraph/cognigraph-backend/pkg/logger"
)

const (
	serviceName     = "cognigraph-backend"
	shutdownTimeout = 10 * time.Second
	startupTimeout  = 30 * time.Second
)

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "CogniGraph backend API",
	Long: `CogniGraph stores learning topics and the links between them,
and extracts candidate topics from free text with an entity analyzer.

Configuration comes from the environment (and a .env file if present).`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the topic store schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, cancel := context.WithTimeout(cmd.Context(), startupTimeout)
		defer cancel()

		store, err := bootstrap.OpenStore(ctx, cfg, true, log)
		if err != nil {
			return fmt.Errorf("migrate %s store: %w", cfg.Store.Backend, err)
		}
		store.Close()

		log.Info("schema applied", zap.String("backend", store.Name))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.App.Environment, cfg.App.LogLevel); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger.Get(), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	bootstrap.SetGinMode(cfg.App.Environment)

	startCtx, cancel := context.WithTimeout(cmd.Context(), startupTimeout)
	defer cancel()

	store, err := bootstrap.OpenStore(startCtx, cfg, true, log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer store.Close()

	extractor, err := bootstrap.NewExtractor(startCtx, &cfg.NLP)
	if err != nil {
		// topic CRUD stays available without the analyzer
		log.Warn("entity analyzer unavailable; /api/parse-content disabled", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		StoreName:   store.Name,
		Store:       store.Store,
		StorePing:   store.Ping,
		Extractor:   extractor,
		Registry:    reg,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("store", store.Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
