package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/champtc/cyio-graph/internal/domain"
	"github.com/champtc/cyio-graph/internal/repository"
)

// TaskError accumulates multiple errors produced during bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return "multiple errors: " + strings.Join(parts, "; ")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

// ObjectWriter persists a batch of container members.
type ObjectWriter interface {
	UpsertObjects(ctx context.Context, containerID string, at repository.Placement, objects []domain.Object) error
}

// Defaults for BulkIngestor.
const (
	DefaultIngestWorkers   = 4
	DefaultIngestBatchSize = 250
)

// BulkIngestor writes large object sets in batches using a bounded pool of
// goroutines. A failing batch does not stop the others; failures are
// reported together as a *TaskError.
type BulkIngestor struct {
	repo      ObjectWriter
	workers   int
	batchSize int
	now       func() time.Time
}

// NewBulkIngestor creates a BulkIngestor; non-positive sizes use the defaults.
func NewBulkIngestor(repo ObjectWriter, workers, batchSize int) *BulkIngestor {
	if workers <= 0 {
		workers = DefaultIngestWorkers
	}
	if batchSize <= 0 {
		batchSize = DefaultIngestBatchSize
	}
	return &BulkIngestor{
		repo:      repo,
		workers:   workers,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// WithClock overrides the source of run stamps.
func (bi *BulkIngestor) WithClock(now func() time.Time) *BulkIngestor {
	if now != nil {
		bi.now = now
	}
	return bi
}

// IngestObjects stores objects in a container, batch by batch. Batches of
// one call share a run stamp and carry their offset in objects, so the
// container reads back in input order whichever batch lands first.
func (bi *BulkIngestor) IngestObjects(ctx context.Context, containerID string, objects []domain.Object) error {
	batches := chunk(objects, bi.batchSize)
	run := bi.now().UnixNano()
	return bi.run(ctx, len(batches), func(ctx context.Context, idx int) error {
		batch := batches[idx]
		at := repository.Placement{Run: run, Offset: idx * bi.batchSize}
		if err := bi.repo.UpsertObjects(ctx, containerID, at, batch); err != nil {
			ingestObjectsTotal.WithLabelValues("error").Add(float64(len(batch)))
			return fmt.Errorf("batch %d of container %s: %w", idx, containerID, err)
		}
		ingestObjectsTotal.WithLabelValues("ok").Add(float64(len(batch)))
		return nil
	})
}

func (bi *BulkIngestor) run(ctx context.Context, total int, task func(ctx context.Context, idx int) error) error {
	if total == 0 {
		return nil
	}

	var (
		g       errgroup.Group
		mu      sync.Mutex
		taskErr TaskError
	)
	g.SetLimit(bi.workers)

	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			break
		}
		idx := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := task(ctx, idx); err != nil {
				mu.Lock()
				taskErr.Errors = append(taskErr.Errors, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	for _, err := range taskErr.Errors {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}
	if len(taskErr.Errors) == 0 {
		return nil
	}
	return &taskErr
}

func chunk(objects []domain.Object, size int) [][]domain.Object {
	if len(objects) == 0 {
		return nil
	}
	batches := make([][]domain.Object, 0, (len(objects)+size-1)/size)
	for start := 0; start < len(objects); start += size {
		end := start + size
		if end > len(objects) {
			end = len(objects)
		}
		batches = append(batches, objects[start:end])
	}
	return batches
}
