package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/champtc/cyio-graph/internal/config"
	"github.com/champtc/cyio-graph/internal/graph"
	"github.com/champtc/cyio-graph/internal/graphdata"
	"github.com/champtc/cyio-graph/internal/logging"
	"github.com/champtc/cyio-graph/internal/positions"
	"github.com/champtc/cyio-graph/internal/repository"
	"github.com/champtc/cyio-graph/internal/server"
	"github.com/champtc/cyio-graph/internal/service"
	"github.com/champtc/cyio-graph/internal/telemetry"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Error("failed to initialise tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("flushing traces failed", "error", err)
		}
	}()

	graphClient, err := buildGraphClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	repo := repository.New(graphClient)

	store, err := positions.NewStore(ctx, positions.Options{
		Backend:   cfg.Positions.Backend,
		RedisURL:  cfg.Positions.RedisURL,
		KeyPrefix: cfg.Positions.KeyPrefix,
		TTL:       cfg.Positions.TTL,
	}, repo)
	if err != nil {
		logger.Error("failed to create positions store", "error", err)
		os.Exit(1)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	var writer *positions.Writer
	var queue service.PositionQueue
	if cfg.Positions.Debounce > 0 {
		writer = positions.NewWriter(store, cfg.Positions.Debounce, logger)
		queue = writer
	}

	graphService := service.NewGraphService(repo, store, queue, logger)
	graphService.WithIngestor(service.NewBulkIngestor(repo, cfg.Ingest.Workers, cfg.Ingest.BatchSize))
	if cfg.Engine.TranslationsFile != "" {
		translations, err := config.LoadTranslations(cfg.Engine.TranslationsFile)
		if err != nil {
			logger.Error("failed to load translations", "error", err)
			os.Exit(1)
		}
		graphService.WithTranslator(graphdata.MapTranslator(translations))
	}

	router := server.NewRouter(logger, server.RouterDependencies{
		Health: server.HealthChecks{
			server.GraphHealthService{Client: graphClient},
			server.PositionsHealthService{Store: store},
		},
		API:              server.NewAPIHandlers(logger, graphService),
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowCredentials: true,
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
		MaxBodyBytes:     cfg.HTTP.MaxBodyBytes,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if writer != nil {
		if err := writer.Close(shutdownCtx); err != nil {
			logger.Error("flushing pending positions failed", "error", err)
		}
	}
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, graph.ErrMissingURI
	}

	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
		MaxRetryTime:   cfg.Graph.MaxRetryTime,
	}
	return graph.NewNeo4jClient(ctx, opts)
}
