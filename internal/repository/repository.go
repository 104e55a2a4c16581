package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/champtc/cyio-graph/internal/domain"
	"github.com/champtc/cyio-graph/internal/graph"
)

// ErrContainerNotFound is returned when a container id has no stored node.
var ErrContainerNotFound = errors.New("container not found")

// ListContainersOptions defines filters and pagination for container listing.
type ListContainersOptions struct {
	Offset     int
	Limit      int
	EntityType string
	Search     string
	SortField  string
	SortOrder  string
}

// Placement orders a batch of objects inside its container. Run identifies
// one ingestion run and sorts runs by age; Offset is the index of the batch's
// first object within that run. A zero Run is stamped from the repository
// clock.
type Placement struct {
	Run    int64
	Offset int
}

// Repository persists containers, their member objects and saved layouts in
// the graph store.
type Repository struct {
	client graph.Client
	now    func() time.Time
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client, now: time.Now}
}

// WithClock overrides the timestamp source used for updatedAt fields.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	if now != nil {
		r.now = now
	}
	return r
}

// UpsertContainer ensures a container node exists with the latest metadata.
// The saved layout is left untouched.
func (r *Repository) UpsertContainer(ctx context.Context, c domain.Container) error {
	if c.ID == "" {
		return errors.New("container id is required")
	}
	params := map[string]any{
		"id": c.ID,
		"props": map[string]any{
			"entityType": c.EntityType,
			"name":       c.Name,
			"updatedAt":  formatTime(r.now()),
		},
	}
	if _, err := r.client.ExecuteWrite(ctx, upsertContainerCypher, params); err != nil {
		return fmt.Errorf("upsert container %s: %w", c.ID, err)
	}
	return nil
}

// GetContainer loads a container's metadata and saved layout.
func (r *Repository) GetContainer(ctx context.Context, id string) (domain.Container, error) {
	res, err := r.client.ExecuteRead(ctx, getContainerCypher, map[string]any{"id": id})
	if err != nil {
		return domain.Container{}, fmt.Errorf("get container %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return domain.Container{}, fmt.Errorf("get container %s: %w", id, ErrContainerNotFound)
	}
	rec := res.Records[0]
	c := domain.Container{
		ID:         rec.String("id"),
		EntityType: rec.String("entityType"),
		Name:       rec.String("name"),
		GraphData:  rec.String("graphData"),
	}
	if ts, ok := rec.Time("updatedAt"); ok {
		c.UpdatedAt = ts
	}
	return c, nil
}

// ListContainers returns paginated containers matching the provided filters.
func (r *Repository) ListContainers(ctx context.Context, opts ListContainersOptions) ([]domain.ContainerSummary, int64, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	params := map[string]any{
		"entityType": strings.TrimSpace(opts.EntityType),
		"search":     strings.ToLower(strings.TrimSpace(opts.Search)),
		"skip":       offset,
		"limit":      limit,
	}

	query := fmt.Sprintf(listContainersCypherTemplate, containerFilterClause, containerOrderClause(opts.SortField, opts.SortOrder))
	res, err := r.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list containers query: %w", err)
	}

	items := make([]domain.ContainerSummary, 0, len(res.Records))
	for _, rec := range res.Records {
		item := domain.ContainerSummary{
			ID:          rec.String("id"),
			EntityType:  rec.String("entityType"),
			Name:        rec.String("name"),
			ObjectCount: rec.Int64("objectCount"),
		}
		if ts, ok := rec.Time("updatedAt"); ok {
			item.UpdatedAt = ts
		}
		items = append(items, item)
	}

	countRes, err := r.client.ExecuteRead(ctx, fmt.Sprintf(countContainersCypherTemplate, containerFilterClause), params)
	if err != nil {
		return nil, 0, fmt.Errorf("count containers query: %w", err)
	}
	var total int64
	if len(countRes.Records) > 0 {
		total = countRes.Records[0].Int64("total")
	}
	return items, total, nil
}

// UpsertObjects stores objects as members of a container, creating the
// container when needed. Membership keeps the position given by at, so
// batches written out of order still read back in input order. Relationship
// records with both endpoints also get a RELATES_TO edge between the endpoint
// nodes.
func (r *Repository) UpsertObjects(ctx context.Context, containerID string, at Placement, objects []domain.Object) error {
	if containerID == "" {
		return errors.New("container id is required")
	}
	if len(objects) == 0 {
		return nil
	}

	now := r.now()
	run := at.Run
	if run == 0 {
		run = now.UnixNano()
	}

	items := make([]map[string]any, 0, len(objects))
	for i, obj := range objects {
		if obj.ID == "" {
			return fmt.Errorf("upsert objects %s: object at index %d has no id", containerID, i)
		}
		payload, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("encode object %s: %w", obj.ID, err)
		}
		item := map[string]any{
			"id":               obj.ID,
			"entityType":       obj.EntityType,
			"relationshipType": obj.RelationshipType,
			"payload":          string(payload),
			"seq":              int64(at.Offset + i),
			"sourceId":         "",
			"targetId":         "",
		}
		if obj.HasEndpoints() {
			item["sourceId"] = obj.Source.ID
			item["targetId"] = obj.Target.ID
		}
		items = append(items, item)
	}

	params := map[string]any{
		"containerId": containerID,
		"updatedAt":   formatTime(now),
		"run":         run,
		"items":       items,
	}
	if _, err := r.client.ExecuteWrite(ctx, upsertObjectsCypher, params); err != nil {
		return fmt.Errorf("upsert objects %s: %w", containerID, err)
	}
	return nil
}

// ContainerObjects returns the member objects of a container in insertion
// order. Stored payloads that no longer decode are skipped.
func (r *Repository) ContainerObjects(ctx context.Context, containerID string) ([]domain.Object, error) {
	res, err := r.client.ExecuteRead(ctx, containerObjectsCypher, map[string]any{"containerId": containerID})
	if err != nil {
		return nil, fmt.Errorf("container objects %s: %w", containerID, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("container objects %s: %w", containerID, ErrContainerNotFound)
	}

	objects := make([]domain.Object, 0, len(res.Records))
	for _, rec := range res.Records {
		payload := rec.String("payload")
		if payload == "" {
			continue
		}
		var obj domain.Object
		if err := json.Unmarshal([]byte(payload), &obj); err != nil || obj.ID == "" {
			continue
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// SaveGraphData stores the encoded node positions of a container.
func (r *Repository) SaveGraphData(ctx context.Context, containerID, encoded string) error {
	res, err := r.client.ExecuteWrite(ctx, saveGraphDataCypher, map[string]any{
		"containerId": containerID,
		"graphData":   encoded,
		"updatedAt":   formatTime(r.now()),
	})
	if err != nil {
		return fmt.Errorf("save graph data %s: %w", containerID, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("save graph data %s: %w", containerID, ErrContainerNotFound)
	}
	return nil
}

// LoadGraphData returns the encoded node positions of a container, or "" when
// none were saved.
func (r *Repository) LoadGraphData(ctx context.Context, containerID string) (string, error) {
	c, err := r.GetContainer(ctx, containerID)
	if err != nil {
		return "", err
	}
	return c.GraphData, nil
}

// DeleteContainer removes a container and every object no other container
// references.
func (r *Repository) DeleteContainer(ctx context.Context, containerID string) error {
	res, err := r.client.ExecuteWrite(ctx, deleteContainerCypher, map[string]any{"containerId": containerID})
	if err != nil {
		return fmt.Errorf("delete container %s: %w", containerID, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("delete container %s: %w", containerID, ErrContainerNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func containerOrderClause(field, order string) string {
	dir := "DESC"
	if strings.EqualFold(order, "ASC") {
		dir = "ASC"
	}
	switch strings.ToLower(field) {
	case "name":
		return fmt.Sprintf("toLower(c.name) %s", dir)
	case "entitytype":
		return fmt.Sprintf("c.entityType %s", dir)
	case "objectcount":
		return fmt.Sprintf("objectCount %s", dir)
	default:
		return fmt.Sprintf("datetime(c.updatedAt) %s", dir)
	}
}

const upsertContainerCypher = `
MERGE (c:Container {id: $id})
SET c += $props
RETURN c.id AS id
`

const getContainerCypher = `
MATCH (c:Container {id: $id})
RETURN c.id AS id,
       c.entityType AS entityType,
       c.name AS name,
       coalesce(c.graphData, "") AS graphData,
       c.updatedAt AS updatedAt
`

const listContainersCypherTemplate = `
MATCH (c:Container)
%s
OPTIONAL MATCH (c)-[:CONTAINS]->(o:Object)
WITH c, count(o) AS objectCount
RETURN c.id AS id,
       c.entityType AS entityType,
       c.name AS name,
       c.updatedAt AS updatedAt,
       objectCount
ORDER BY %s
SKIP $skip
LIMIT $limit
`

const countContainersCypherTemplate = `
MATCH (c:Container)
%s
RETURN count(c) AS total
`

const containerFilterClause = `
WHERE ($entityType = "" OR c.entityType = $entityType)
  AND ($search = "" OR toLower(coalesce(c.name, "")) CONTAINS $search OR toLower(c.id) CONTAINS $search)
`

const upsertObjectsCypher = `
MERGE (c:Container {id: $containerId})
ON CREATE SET c.updatedAt = $updatedAt
WITH c
UNWIND $items AS item
MERGE (o:Object {id: item.id})
SET o.entityType = item.entityType,
    o.relationshipType = item.relationshipType,
    o.payload = item.payload,
    o.updatedAt = $updatedAt
MERGE (c)-[m:CONTAINS]->(o)
ON CREATE SET m.addedAt = $updatedAt, m.run = $run, m.seq = item.seq
WITH o, item
WHERE item.sourceId <> "" AND item.targetId <> ""
MERGE (s:Object {id: item.sourceId})
MERGE (t:Object {id: item.targetId})
MERGE (s)-[rel:RELATES_TO {id: item.id}]->(t)
SET rel.relationshipType = item.relationshipType
`

const containerObjectsCypher = `
MATCH (c:Container {id: $containerId})
OPTIONAL MATCH (c)-[m:CONTAINS]->(o:Object)
RETURN c.id AS containerId, o.payload AS payload
ORDER BY m.run, m.seq
`

const saveGraphDataCypher = `
MATCH (c:Container {id: $containerId})
SET c.graphData = $graphData,
    c.updatedAt = $updatedAt
RETURN c.id AS id
`

const deleteContainerCypher = `
MATCH (c:Container {id: $containerId})
OPTIONAL MATCH (c)-[:CONTAINS]->(o:Object)
WHERE NOT EXISTS {
	MATCH (other:Container)-[:CONTAINS]->(o)
	WHERE other.id <> $containerId
}
WITH c, c.id AS id, collect(o) AS orphans
FOREACH (n IN orphans | DETACH DELETE n)
DETACH DELETE c
RETURN id
`
