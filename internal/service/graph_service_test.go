package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtc/cyio-graph/internal/domain"
	"github.com/champtc/cyio-graph/internal/repository"
)

type stubRepository struct {
	mu         sync.Mutex
	containers map[string]domain.Container
	objects    map[string][]domain.Object
	upsertErr  error
	failBatch  func(batch []domain.Object) bool
	listOpts   repository.ListContainersOptions
	listTotal  int64
	placed     []placedObject
}

type placedObject struct {
	container string
	run       int64
	seq       int
	id        string
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		containers: map[string]domain.Container{},
		objects:    map[string][]domain.Object{},
	}
}

func (s *stubRepository) UpsertContainer(_ context.Context, c domain.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containers[c.ID] = c
	return nil
}

func (s *stubRepository) UpsertObjects(_ context.Context, containerID string, at repository.Placement, objects []domain.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if s.failBatch != nil && s.failBatch(objects) {
		return errors.New("batch rejected")
	}
	s.objects[containerID] = append(s.objects[containerID], objects...)
	for i, obj := range objects {
		s.placed = append(s.placed, placedObject{container: containerID, run: at.Run, seq: at.Offset + i, id: obj.ID})
	}
	return nil
}

func (s *stubRepository) ContainerObjects(_ context.Context, containerID string) ([]domain.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	objects, ok := s.objects[containerID]
	if !ok {
		return nil, repository.ErrContainerNotFound
	}
	return objects, nil
}

func (s *stubRepository) GetContainer(_ context.Context, containerID string) (domain.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[containerID]
	if !ok {
		return domain.Container{}, repository.ErrContainerNotFound
	}
	return c, nil
}

func (s *stubRepository) DeleteContainer(_ context.Context, containerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[containerID]; !ok {
		return repository.ErrContainerNotFound
	}
	delete(s.containers, containerID)
	delete(s.objects, containerID)
	return nil
}

func (s *stubRepository) ListContainers(_ context.Context, opts repository.ListContainersOptions) ([]domain.ContainerSummary, int64, error) {
	s.listOpts = opts
	return []domain.ContainerSummary{{ID: "c1"}}, s.listTotal, nil
}

func (s *stubRepository) count(containerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects[containerID])
}

type stubStore struct {
	mu    sync.Mutex
	saved map[string]domain.Positions
	err   error
}

func (s *stubStore) Load(_ context.Context, id string) (domain.Positions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.saved[id]; ok {
		return p, nil
	}
	return domain.Positions{}, nil
}

func (s *stubStore) Save(_ context.Context, id string, p domain.Positions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = map[string]domain.Positions{}
	}
	s.saved[id] = p
	return nil
}

type stubQueue struct {
	store   *stubStore
	pending map[string]domain.Positions
	flushed []string
}

func (q *stubQueue) Queue(id string, p domain.Positions) error {
	if q.pending == nil {
		q.pending = map[string]domain.Positions{}
	}
	q.pending[id] = p
	return nil
}

func (q *stubQueue) Pending(id string) (domain.Positions, bool) {
	p, ok := q.pending[id]
	return p, ok
}

func (q *stubQueue) FlushContainer(ctx context.Context, id string) error {
	q.flushed = append(q.flushed, id)
	p, ok := q.pending[id]
	if !ok {
		return nil
	}
	delete(q.pending, id)
	return q.store.Save(ctx, id, p)
}

func fptr(v float64) *float64 { return &v }

func sampleObjects() []domain.Object {
	return []domain.Object{
		{ID: "a", EntityType: "Malware", Name: "Emotet", Created: "2021-06-01T00:00:00Z"},
		{ID: "b", EntityType: "Report", Name: "Q2", Created: "2021-06-02T00:00:00Z"},
		{ID: "r1", EntityType: "relationship", RelationshipType: "related-to",
			Source: &domain.Ref{ID: "a"}, Target: &domain.Ref{ID: "b"},
			ParentTypes: []string{domain.RelationshipParentType}},
	}
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *stubRepository, store *stubStore, queue PositionQueue) *GraphService {
	svc := NewGraphService(repo, store, queue, nil)
	svc.WithClock(func() time.Time { return fixedNow })
	return svc
}

func TestGraphService_Build(t *testing.T) {
	svc := newTestService(newStubRepository(), &stubStore{}, nil)

	view := svc.Build(context.Background(), BuildRequest{
		Objects: sampleObjects(),
		Filters: domain.FilterCriteria{TypesAllow: []string{"Malware"}},
	})
	require.Len(t, view.Nodes, 1)
	assert.Equal(t, "a", view.Nodes[0].ID)
	assert.Empty(t, view.Links)
	assert.Len(t, view.TimeRangeValues, 100)
	assert.Equal(t, time.Date(2021, 5, 31, 0, 0, 0, 0, time.UTC), view.TimeRange.Start)
}

func TestGraphService_ContainerGraph(t *testing.T) {
	repo := newStubRepository()
	repo.objects["c1"] = sampleObjects()
	store := &stubStore{saved: map[string]domain.Positions{"c1": {"a": {X: fptr(5), Y: fptr(6)}}}}
	svc := newTestService(repo, store, nil)
	svc.WithTranslator(func(key string) string { return "tr:" + key })

	view, err := svc.ContainerGraph(context.Background(), " c1 ", domain.FilterCriteria{})
	require.NoError(t, err)
	require.Len(t, view.Nodes, 2)
	require.Len(t, view.Links, 1)
	assert.Equal(t, "tr:relationship_related-to", view.Links[0].Label)
	require.NotNil(t, view.Nodes[0].Fx)
	assert.Equal(t, 5.0, *view.Nodes[0].Fx)

	_, err = svc.ContainerGraph(context.Background(), "missing", domain.FilterCriteria{})
	assert.ErrorIs(t, err, repository.ErrContainerNotFound)

	_, err = svc.ContainerGraph(context.Background(), "  ", domain.FilterCriteria{})
	assert.ErrorIs(t, err, ErrInvalidContainer)
}

func TestGraphService_ContainerGraphIgnoresPositionErrors(t *testing.T) {
	repo := newStubRepository()
	repo.objects["c1"] = sampleObjects()
	svc := newTestService(repo, &stubStore{err: errors.New("redis down")}, nil)

	view, err := svc.ContainerGraph(context.Background(), "c1", domain.FilterCriteria{})
	require.NoError(t, err)
	assert.Len(t, view.Nodes, 2)
	assert.Nil(t, view.Nodes[0].Fx)
}

func TestGraphService_ContainerCorrelation(t *testing.T) {
	repo := newStubRepository()
	reports := &domain.Connection{Edges: []domain.Edge{
		{Node: domain.Object{ID: "rep1", EntityType: "Report"}},
		{Node: domain.Object{ID: "rep2", EntityType: "Report"}},
	}}
	repo.objects["c1"] = []domain.Object{
		{ID: "ap", EntityType: "Attack-Pattern", Name: "Phishing", Reports: reports},
		{ID: "mw", EntityType: "Malware", Name: "Emotet", Reports: reports},
	}
	svc := newTestService(repo, &stubStore{}, nil)

	view, err := svc.ContainerCorrelation(context.Background(), "c1", domain.FilterCriteria{TypesExclude: []string{"Malware"}})
	require.NoError(t, err)

	ids := make([]string, 0, len(view.Nodes))
	for _, n := range view.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"ap", "rep1", "rep2"}, ids)
	assert.Len(t, view.Links, 2)
}

func TestGraphService_ContainerTimeRangeWithoutDates(t *testing.T) {
	repo := newStubRepository()
	repo.objects["c1"] = []domain.Object{{ID: "a"}}
	svc := newTestService(repo, &stubStore{}, nil)

	tr, err := svc.ContainerTimeRange(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(-24*time.Hour), tr.Start)
	assert.Equal(t, 23, tr.End.Hour())
	assert.Len(t, tr.Values, 100)
}

func TestGraphService_SavePositions(t *testing.T) {
	ctx := context.Background()
	store := &stubStore{}
	queue := &stubQueue{store: store}
	svc := newTestService(newStubRepository(), store, queue)

	layout := domain.Positions{"a": {X: fptr(1), Y: fptr(2)}}
	require.NoError(t, svc.SavePositions(ctx, "c1", layout, false))
	assert.Empty(t, store.saved, "debounced saves stay queued")

	got, err := svc.ContainerPositions(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, layout, got, "pending layout is visible before it is written")

	require.NoError(t, svc.SavePositions(ctx, "c1", layout, true))
	assert.Equal(t, layout, store.saved["c1"])
	assert.Equal(t, []string{"c1"}, queue.flushed)

	assert.ErrorIs(t, svc.SavePositions(ctx, "", layout, false), ErrInvalidContainer)
}

func TestGraphService_SavePositionsWithoutQueue(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(newStubRepository(), store, nil)

	require.NoError(t, svc.SavePositions(context.Background(), "c1", nil, false))
	assert.Equal(t, domain.Positions{}, store.saved["c1"])

	store.err = errors.New("down")
	assert.Error(t, svc.SavePositions(context.Background(), "c1", nil, false))
}

func TestGraphService_IngestObjects(t *testing.T) {
	repo := newStubRepository()
	svc := newTestService(repo, &stubStore{}, nil)
	svc.WithIngestor(NewBulkIngestor(repo, 2, 2))

	err := svc.IngestObjects(context.Background(), ContainerInput{ID: "c1", EntityType: "Report", Name: "Q2"}, sampleObjects())
	require.NoError(t, err)
	assert.Equal(t, 3, repo.count("c1"))
	assert.Equal(t, "Q2", repo.containers["c1"].Name)

	err = svc.IngestObjects(context.Background(), ContainerInput{}, sampleObjects())
	assert.ErrorIs(t, err, ErrInvalidContainer)
}

func TestGraphService_ListContainers(t *testing.T) {
	repo := newStubRepository()
	repo.listTotal = 101
	svc := newTestService(repo, &stubStore{}, nil)

	page, err := svc.ListContainers(context.Background(), ListContainersParams{Page: 3, PageSize: 20, Search: "q"})
	require.NoError(t, err)
	assert.Equal(t, 40, repo.listOpts.Offset)
	assert.Equal(t, 20, repo.listOpts.Limit)
	assert.Equal(t, PaginationMeta{Page: 3, PageSize: 20, TotalItems: 101, TotalPages: 6}, page.Pagination)
	assert.Len(t, page.Items, 1)
}
