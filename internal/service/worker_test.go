package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtc/cyio-graph/internal/domain"
)

func objectsN(n int) []domain.Object {
	out := make([]domain.Object, n)
	for i := range out {
		out[i] = domain.Object{ID: fmt.Sprintf("obj-%03d", i), EntityType: "Indicator"}
	}
	return out
}

func TestBulkIngestor_Batches(t *testing.T) {
	repo := newStubRepository()
	bi := NewBulkIngestor(repo, 3, 10)

	require.NoError(t, bi.IngestObjects(context.Background(), "c1", objectsN(95)))
	assert.Equal(t, 95, repo.count("c1"))
}

func TestBulkIngestor_AggregatesErrors(t *testing.T) {
	repo := newStubRepository()
	repo.failBatch = func(batch []domain.Object) bool {
		return batch[0].ID == "obj-000" || batch[0].ID == "obj-020"
	}
	bi := NewBulkIngestor(repo, 2, 10)

	err := bi.IngestObjects(context.Background(), "c1", objectsN(40))
	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Len(t, taskErr.Errors, 2)
	assert.Contains(t, err.Error(), "multiple errors")
	assert.Equal(t, 20, repo.count("c1"), "healthy batches are still written")
}

func TestBulkIngestor_ContextCancelled(t *testing.T) {
	repo := newStubRepository()
	bi := NewBulkIngestor(repo, 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bi.IngestObjects(ctx, "c1", objectsN(5))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, repo.count("c1"))
}

func TestBulkIngestor_PlacementFollowsInputOrder(t *testing.T) {
	repo := newStubRepository()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	bi := NewBulkIngestor(repo, 4, 2).WithClock(func() time.Time { return clock })

	input := []domain.Object{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}, {ID: "f"}}
	require.NoError(t, bi.IngestObjects(context.Background(), "c1", input))

	clock = clock.Add(time.Second)
	require.NoError(t, bi.IngestObjects(context.Background(), "c1", []domain.Object{{ID: "g"}, {ID: "h"}, {ID: "i"}}))

	placed := append([]placedObject(nil), repo.placed...)
	require.Len(t, placed, 9)
	sort.Slice(placed, func(i, j int) bool {
		if placed[i].run != placed[j].run {
			return placed[i].run < placed[j].run
		}
		return placed[i].seq < placed[j].seq
	})

	ids := make([]string, 0, len(placed))
	seen := map[[2]int64]bool{}
	for _, p := range placed {
		assert.Equal(t, "c1", p.container)
		ids = append(ids, p.id)
		key := [2]int64{p.run, int64(p.seq)}
		assert.False(t, seen[key], "duplicate position for %s", p.id)
		seen[key] = true
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}, ids)

	for i, p := range placed[:6] {
		assert.Equal(t, i, p.seq)
		assert.Equal(t, placed[0].run, p.run, "one run stamp per call")
	}
	assert.Greater(t, placed[6].run, placed[0].run)
}

func TestTaskErrorMessage(t *testing.T) {
	assert.Equal(t, "no errors", (&TaskError{}).Error())
	assert.Equal(t, "one", (&TaskError{Errors: []error{errors.New("one")}}).Error())
	assert.Equal(t, "multiple errors: one; two", (&TaskError{Errors: []error{errors.New("one"), errors.New("two")}}).Error())
}

func TestNoObjectsIsNoop(t *testing.T) {
	assert.NoError(t, NewBulkIngestor(newStubRepository(), 1, 1).IngestObjects(context.Background(), "c1", nil))
}
