package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/champtc/cyio-graph/internal/config"
	"github.com/champtc/cyio-graph/internal/graph"
	"github.com/champtc/cyio-graph/internal/logging"
	"github.com/champtc/cyio-graph/internal/repository"
	"github.com/champtc/cyio-graph/internal/service"
)

// newGraphClient is replaced in tests.
var newGraphClient = func(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required for ingestion: %w", graph.ErrMissingURI)
	}
	client, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
		MaxRetryTime:   cfg.Graph.MaxRetryTime,
	})
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
}

func ingestCmd() *cobra.Command {
	var (
		containerID string
		entityType  string
		name        string
		input       string
		workers     int
		batchSize   int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Store records as members of a container in the graph store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("container", containerID); err != nil {
				return err
			}
			if err := requireFlag("input", input); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := logging.NewWithWriter(cfg.Logging, cmd.ErrOrStderr()).With("component", "ingest")

			objects, err := readObjects(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(objects) == 0 {
				return fmt.Errorf("%s contains no records", input)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			client, err := newGraphClient(ctx, logger, cfg)
			if err != nil {
				return fmt.Errorf("create graph client: %w", err)
			}
			defer func() {
				if err := client.Close(context.Background()); err != nil {
					logger.Warn("closing graph client failed", "error", err)
				}
			}()

			if workers <= 0 {
				workers = cfg.Ingest.Workers
			}
			if batchSize <= 0 {
				batchSize = cfg.Ingest.BatchSize
			}

			repo := repository.New(client)
			svc := service.NewGraphService(repo, nil, nil, logger)
			svc.WithIngestor(service.NewBulkIngestor(repo, workers, batchSize))

			start := time.Now()
			logger.Info("ingesting objects", "container", containerID, "count", len(objects), "workers", workers)
			if err := svc.IngestObjects(ctx, service.ContainerInput{
				ID:         containerID,
				EntityType: entityType,
				Name:       name,
			}, objects); err != nil {
				return fmt.Errorf("ingest %s: %w", containerID, err)
			}
			logger.Info("ingestion complete", "duration", time.Since(start).String(), "objects", len(objects))
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d records into %s\n", brand.Sprint("ingested"), len(objects), containerID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&containerID, "container", "c", "", "Container id (report, system...)")
	cmd.Flags().StringVar(&entityType, "entity-type", "Report", "Container entity type")
	cmd.Flags().StringVar(&name, "name", "", "Container display name")
	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file of records (- for stdin)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent ingestion workers (default from config)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Records per write (default from config)")
	return cmd
}
