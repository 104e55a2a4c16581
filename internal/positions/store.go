// Package positions persists the pinned node coordinates of container graph
// views and coalesces the bursts of updates produced while nodes are dragged.
package positions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/champtc/cyio-graph/internal/domain"
	"github.com/champtc/cyio-graph/internal/graphdata"
)

// Store loads and replaces the saved positions of a container.
type Store interface {
	Load(ctx context.Context, containerID string) (domain.Positions, error)
	Save(ctx context.Context, containerID string, positions domain.Positions) error
}

// ErrUnknownBackend is returned by NewStore for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown positions backend")

// Backend names accepted by NewStore.
const (
	BackendGraph = "graph"
	BackendRedis = "redis"
)

// GraphDataRepository is the subset of the repository used by GraphStore.
type GraphDataRepository interface {
	LoadGraphData(ctx context.Context, containerID string) (string, error)
	SaveGraphData(ctx context.Context, containerID, encoded string) error
}

// Options selects and configures a Store backend.
type Options struct {
	Backend   string
	RedisURL  string
	KeyPrefix string
	TTL       time.Duration
}

// NewStore builds the Store selected by opts.Backend.
func NewStore(ctx context.Context, opts Options, repo GraphDataRepository) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendGraph:
		if repo == nil {
			return nil, errors.New("graph positions store requires a repository")
		}
		return NewGraphStore(repo), nil
	case BackendRedis:
		store, err := NewRedisStore(ctx, RedisOptions{
			URL:       opts.RedisURL,
			KeyPrefix: opts.KeyPrefix,
			TTL:       opts.TTL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// GraphStore keeps positions on the container node, in the same encoded
// form the graph view has always saved.
type GraphStore struct {
	repo GraphDataRepository
}

// NewGraphStore returns a Store backed by the graph repository.
func NewGraphStore(repo GraphDataRepository) *GraphStore {
	return &GraphStore{repo: repo}
}

func (s *GraphStore) Load(ctx context.Context, containerID string) (domain.Positions, error) {
	encoded, err := s.repo.LoadGraphData(ctx, containerID)
	if err != nil {
		return nil, err
	}
	return graphdata.DecodePositions(encoded), nil
}

func (s *GraphStore) Save(ctx context.Context, containerID string, positions domain.Positions) error {
	return s.repo.SaveGraphData(ctx, containerID, graphdata.EncodePositions(positions))
}
