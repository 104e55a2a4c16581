package domain

import "time"

// Container groups the objects rendered together in one graph view, such as a
// report or an information system.
type Container struct {
	ID         string `json:"id"`
	EntityType string `json:"entity_type"`
	Name       string `json:"name"`
	// GraphData is the encoded position blob saved with the view.
	GraphData string    `json:"graph_data,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContainerSummary is a lightweight listing row.
type ContainerSummary struct {
	ID          string    `json:"id"`
	EntityType  string    `json:"entity_type"`
	Name        string    `json:"name"`
	ObjectCount int64     `json:"object_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}
