package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/champtc/cyio-graph/internal/domain"
	"github.com/champtc/cyio-graph/internal/graphdata"
	"github.com/champtc/cyio-graph/internal/positions"
	"github.com/champtc/cyio-graph/internal/repository"
)

// ErrInvalidContainer is returned when a container id is missing or blank.
var ErrInvalidContainer = errors.New("invalid container id")

// ObjectRepository is the storage contract required by the graph service.
type ObjectRepository interface {
	UpsertContainer(ctx context.Context, c domain.Container) error
	UpsertObjects(ctx context.Context, containerID string, at repository.Placement, objects []domain.Object) error
	ContainerObjects(ctx context.Context, containerID string) ([]domain.Object, error)
	GetContainer(ctx context.Context, containerID string) (domain.Container, error)
	DeleteContainer(ctx context.Context, containerID string) error
	ListContainers(ctx context.Context, opts repository.ListContainersOptions) ([]domain.ContainerSummary, int64, error)
}

// PositionQueue buffers layout updates before they reach the store.
type PositionQueue interface {
	Queue(containerID string, positions domain.Positions) error
	Pending(containerID string) (domain.Positions, bool)
	FlushContainer(ctx context.Context, containerID string) error
}

// GraphService loads container data and runs it through the graph engine.
type GraphService struct {
	repo      ObjectRepository
	positions positions.Store
	queue     PositionQueue
	ingestor  *BulkIngestor
	translate graphdata.Translator
	nowFn     func() time.Time
	logger    *slog.Logger
}

// NewGraphService constructs a GraphService. queue may be nil, in which case
// position updates are written to the store synchronously.
func NewGraphService(repo ObjectRepository, store positions.Store, queue PositionQueue, logger *slog.Logger) *GraphService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphService{
		repo:      repo,
		positions: store,
		queue:     queue,
		ingestor:  NewBulkIngestor(repo, 0, 0),
		nowFn:     time.Now,
		logger:    logger.With("component", "graph_service"),
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *GraphService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// WithTranslator sets the localizer used for relationship labels.
func (s *GraphService) WithTranslator(t graphdata.Translator) {
	s.translate = t
}

// WithIngestor replaces the bulk ingestor used by IngestObjects.
func (s *GraphService) WithIngestor(ingestor *BulkIngestor) {
	if ingestor != nil {
		s.ingestor = ingestor
	}
}

// Build runs the engine over caller-supplied objects without touching storage.
func (s *GraphService) Build(ctx context.Context, req BuildRequest) GraphView {
	kind := "graph"
	if req.Correlation {
		kind = "correlation"
	}
	_, span := startSpan(ctx, "service.Build", "")
	defer span.End()
	span.SetAttributes(attribute.String("graph.kind", kind), attribute.Int("graph.objects", len(req.Objects)))

	view := s.buildView(kind, req.Objects, req.Positions, normalizeCriteria(req.Filters), req.Correlation)
	span.SetAttributes(attribute.Int("graph.nodes", len(view.Nodes)), attribute.Int("graph.links", len(view.Links)))
	return view
}

// ContainerGraph returns the filtered graph of a container with its saved
// layout applied.
func (s *GraphService) ContainerGraph(ctx context.Context, containerID string, criteria domain.FilterCriteria) (GraphView, error) {
	return s.containerView(ctx, "service.ContainerGraph", containerID, criteria, false)
}

// ContainerCorrelation returns the report co-occurrence graph of a container.
func (s *GraphService) ContainerCorrelation(ctx context.Context, containerID string, criteria domain.FilterCriteria) (GraphView, error) {
	return s.containerView(ctx, "service.ContainerCorrelation", containerID, criteria, true)
}

func (s *GraphService) containerView(ctx context.Context, op, containerID string, criteria domain.FilterCriteria, correlation bool) (GraphView, error) {
	containerID, err := normalizeContainerID(containerID)
	if err != nil {
		return GraphView{}, err
	}
	ctx, span := startSpan(ctx, op, containerID)
	defer span.End()

	objects, err := s.repo.ContainerObjects(ctx, containerID)
	if err != nil {
		recordSpanError(span, err)
		return GraphView{}, err
	}
	saved, err := s.ContainerPositions(ctx, containerID)
	if err != nil {
		// A missing layout must not hide the graph.
		s.logger.Warn("load positions failed", "container", containerID, "error", err)
		saved = domain.Positions{}
	}

	kind := "graph"
	if correlation {
		kind = "correlation"
	}
	view := s.buildView(kind, objects, saved, normalizeCriteria(criteria), correlation)
	span.SetAttributes(attribute.Int("graph.nodes", len(view.Nodes)), attribute.Int("graph.links", len(view.Links)))
	return view, nil
}

func (s *GraphService) buildView(kind string, objects []domain.Object, saved domain.Positions, criteria domain.FilterCriteria, correlation bool) GraphView {
	start := time.Now()
	defer func() {
		graphBuildDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()
	graphBuildTotal.WithLabelValues(kind).Inc()

	var graph domain.GraphData
	if correlation {
		graph = graphdata.BuildCorrelationData(objects, saved, s.translate, domain.CorrelationFilters{
			StixCoreObjectsTypes:      criteria.TypesAllow,
			MarkedBy:                  criteria.MarkedByAllow,
			CreatedBy:                 criteria.CreatedByAllow,
			SelectedTimeRangeInterval: criteria.TimeInterval,
		})
		// Type exclusion is not part of the correlation adjustments.
		if len(criteria.TypesExclude) > 0 {
			graph = graphdata.ApplyFilters(graph, domain.FilterCriteria{TypesExclude: criteria.TypesExclude})
		}
	} else {
		graph = graphdata.ApplyFilters(graphdata.BuildGraphData(objects, saved, s.translate), criteria)
	}

	interval := graphdata.ComputeTimeRangeInterval(objects, s.nowFn())
	graphNodes.Observe(float64(len(graph.Nodes)))
	return GraphView{
		Nodes:           graph.Nodes,
		Links:           graph.Links,
		TimeRange:       interval,
		TimeRangeValues: graphdata.ComputeTimeRangeValues(interval, objects),
	}
}

// ContainerTimeRange returns the slider bounds and histogram of a container.
func (s *GraphService) ContainerTimeRange(ctx context.Context, containerID string) (TimeRange, error) {
	containerID, err := normalizeContainerID(containerID)
	if err != nil {
		return TimeRange{}, err
	}
	ctx, span := startSpan(ctx, "service.ContainerTimeRange", containerID)
	defer span.End()

	objects, err := s.repo.ContainerObjects(ctx, containerID)
	if err != nil {
		recordSpanError(span, err)
		return TimeRange{}, err
	}
	interval := graphdata.ComputeTimeRangeInterval(objects, s.nowFn())
	return TimeRange{
		Start:  interval.Start,
		End:    interval.End,
		Values: graphdata.ComputeTimeRangeValues(interval, objects),
	}, nil
}

// ContainerPositions returns the latest layout of a container, including
// updates still waiting in the queue.
func (s *GraphService) ContainerPositions(ctx context.Context, containerID string) (domain.Positions, error) {
	containerID, err := normalizeContainerID(containerID)
	if err != nil {
		return nil, err
	}
	if s.queue != nil {
		if pending, ok := s.queue.Pending(containerID); ok {
			return pending, nil
		}
	}
	if s.positions == nil {
		return domain.Positions{}, nil
	}
	return s.positions.Load(ctx, containerID)
}

// SavePositions stores a container layout. Updates go through the debounce
// queue unless flush is set or no queue is configured.
func (s *GraphService) SavePositions(ctx context.Context, containerID string, layout domain.Positions, flush bool) error {
	containerID, err := normalizeContainerID(containerID)
	if err != nil {
		return err
	}
	ctx, span := startSpan(ctx, "service.SavePositions", containerID)
	defer span.End()

	if layout == nil {
		layout = domain.Positions{}
	}

	if s.queue == nil {
		if s.positions == nil {
			return errors.New("no positions store configured")
		}
		if err := s.positions.Save(ctx, containerID, layout); err != nil {
			recordSpanError(span, err)
			return fmt.Errorf("save positions %s: %w", containerID, err)
		}
		positionsSavedTotal.WithLabelValues("immediate").Inc()
		return nil
	}

	if err := s.queue.Queue(containerID, layout); err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("queue positions %s: %w", containerID, err)
	}
	if !flush {
		positionsSavedTotal.WithLabelValues("debounced").Inc()
		return nil
	}
	if err := s.queue.FlushContainer(ctx, containerID); err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("flush positions %s: %w", containerID, err)
	}
	positionsSavedTotal.WithLabelValues("immediate").Inc()
	return nil
}

// IngestObjects stores objects in a container, creating or refreshing the
// container metadata first.
func (s *GraphService) IngestObjects(ctx context.Context, container ContainerInput, objects []domain.Object) error {
	containerID, err := normalizeContainerID(container.ID)
	if err != nil {
		return err
	}
	ctx, span := startSpan(ctx, "service.IngestObjects", containerID)
	defer span.End()
	span.SetAttributes(attribute.Int("ingest.objects", len(objects)))

	if err := s.repo.UpsertContainer(ctx, domain.Container{
		ID:         containerID,
		EntityType: sanitizeString(container.EntityType),
		Name:       sanitizeString(container.Name),
	}); err != nil {
		recordSpanError(span, err)
		return err
	}
	if err := s.ingestor.IngestObjects(ctx, containerID, objects); err != nil {
		recordSpanError(span, err)
		return err
	}
	s.logger.Info("objects ingested", "container", containerID, "count", len(objects))
	return nil
}

// GetContainer returns the metadata of a container.
func (s *GraphService) GetContainer(ctx context.Context, containerID string) (domain.Container, error) {
	containerID, err := normalizeContainerID(containerID)
	if err != nil {
		return domain.Container{}, err
	}
	return s.repo.GetContainer(ctx, containerID)
}

// DeleteContainer removes a container together with the objects that no
// other container references.
func (s *GraphService) DeleteContainer(ctx context.Context, containerID string) error {
	containerID, err := normalizeContainerID(containerID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteContainer(ctx, containerID); err != nil {
		return err
	}
	s.logger.Info("container deleted", "container", containerID)
	return nil
}

// ListContainers retrieves paginated containers matching provided filters.
func (s *GraphService) ListContainers(ctx context.Context, params ListContainersParams) (ContainersPage, error) {
	page, pageSize := normalizePagination(params.Page, params.PageSize)
	items, total, err := s.repo.ListContainers(ctx, repository.ListContainersOptions{
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
		EntityType: params.EntityType,
		Search:     sanitizeString(params.Search),
		SortField:  params.SortField,
		SortOrder:  params.SortOrder,
	})
	if err != nil {
		return ContainersPage{}, err
	}
	if items == nil {
		items = []domain.ContainerSummary{}
	}
	return ContainersPage{
		Items:      items,
		Pagination: buildPaginationMeta(page, pageSize, total),
	}, nil
}

func normalizePagination(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

func buildPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
		if total > 0 && totalPages == 0 {
			totalPages = 1
		}
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
