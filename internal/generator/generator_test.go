package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtc/cyio-graph/internal/domain"
	"github.com/champtc/cyio-graph/internal/graphdata"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.NumObjects = 40
	cfg.NumRelationships = 60
	cfg.NumReports = 4
	return cfg
}

func TestGenerateIsDeterministic(t *testing.T) {
	first, err := New(smallConfig()).Generate(context.Background())
	require.NoError(t, err)
	second, err := New(smallConfig()).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	cfg := smallConfig()
	cfg.Seed = 7
	other, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Objects[0].ID, other.Objects[0].ID)
}

func TestGenerateShape(t *testing.T) {
	dataset, err := New(smallConfig()).Generate(context.Background())
	require.NoError(t, err)

	entities, relationships, reports := dataset.Counts()
	assert.Equal(t, 4, reports)
	assert.Equal(t, 60, relationships)
	assert.Equal(t, 40, entities)

	ids := make(map[string]struct{}, len(dataset.Objects))
	for _, obj := range dataset.Objects {
		require.NotEmpty(t, obj.ID)
		require.NotEmpty(t, obj.EntityType)
		assert.True(t, strings.Contains(obj.ID, "--"), obj.ID)
		_, dup := ids[obj.ID]
		assert.False(t, dup, "duplicate id %s", obj.ID)
		ids[obj.ID] = struct{}{}
	}
	for _, obj := range dataset.Objects {
		if !obj.IsRelationship() {
			continue
		}
		require.True(t, obj.HasEndpoints())
		assert.Contains(t, ids, obj.Source.ID)
		assert.Contains(t, ids, obj.Target.ID)
		assert.NotEqual(t, obj.Source.ID, obj.Target.ID)
	}
}

func TestGeneratedDatasetBuildsGraph(t *testing.T) {
	dataset, err := New(smallConfig()).Generate(context.Background())
	require.NoError(t, err)

	graph := graphdata.BuildGraphData(dataset.Objects, nil, nil)
	assert.Len(t, graph.Nodes, 44)
	assert.Len(t, graph.Links, 60)
	for _, n := range graph.Nodes {
		assert.NotEmpty(t, n.Name)
		assert.NotEmpty(t, n.Color)
	}
}

func TestGenerateErrors(t *testing.T) {
	_, err := New(Config{NumObjects: 1, NumRelationships: 3}).Generate(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(smallConfig()).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteDataset(t *testing.T) {
	dataset, err := New(smallConfig()).Generate(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "objects.json")
	require.NoError(t, WriteDataset(dataset, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []domain.Object
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, dataset.Objects, decoded)

	var buf bytes.Buffer
	require.NoError(t, EncodeDataset(Dataset{}, &buf))
	assert.Equal(t, "[]\n", buf.String())
}
