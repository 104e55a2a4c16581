package domain

import "time"

// GraphNode is a visualization-ready vertex.
type GraphNode struct {
	ID          string     `json:"id"`
	Val         int        `json:"val"`
	Name        string     `json:"name"`
	Label       string     `json:"label"`
	Img         string     `json:"img"`
	RawImg      string     `json:"rawImg"`
	Color       string     `json:"color"`
	EntityType  string     `json:"entity_type"`
	MarkedBy    []Marking  `json:"markedBy"`
	CreatedBy   Creator    `json:"createdBy"`
	Fx          *float64   `json:"fx"`
	Fy          *float64   `json:"fy"`
	DefaultDate *time.Time `json:"defaultDate"`
}

// GraphLink is a visualization-ready edge. SourceID and TargetID duplicate
// Source and Target so filters never depend on renderer-resolved endpoints.
type GraphLink struct {
	ID               string     `json:"id"`
	EntityType       string     `json:"entity_type"`
	RelationshipType string     `json:"relationship_type"`
	Source           string     `json:"source"`
	Target           string     `json:"target"`
	SourceID         string     `json:"source_id"`
	TargetID         string     `json:"target_id"`
	Label            string     `json:"label"`
	Name             string     `json:"name"`
	DefaultDate      *time.Time `json:"defaultDate"`
}

// GraphData is the node/link payload consumed by the force-graph renderer.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// NodeIDs returns the set of node ids in the graph.
func (g GraphData) NodeIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}
