package service

import (
	"time"

	"github.com/champtc/cyio-graph/internal/domain"
)

// BuildRequest is the input of a stateless graph build.
type BuildRequest struct {
	Objects     []domain.Object
	Positions   domain.Positions
	Filters     domain.FilterCriteria
	Correlation bool
}

// GraphView is a filtered graph together with its time-range slider data.
type GraphView struct {
	Nodes           []domain.GraphNode      `json:"nodes"`
	Links           []domain.GraphLink      `json:"links"`
	TimeRange       domain.TimeInterval     `json:"timeRange"`
	TimeRangeValues []domain.TimeRangeValue `json:"timeRangeValues"`
}

// TimeRange is the slider bounds and histogram of a container.
type TimeRange struct {
	Start  time.Time               `json:"start"`
	End    time.Time               `json:"end"`
	Values []domain.TimeRangeValue `json:"values"`
}

// ContainerInput carries container metadata supplied at ingestion.
type ContainerInput struct {
	ID         string
	EntityType string
	Name       string
}

// PaginationMeta captures pagination metadata returned to API clients.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// ContainersPage represents paginated containers with metadata.
type ContainersPage struct {
	Items      []domain.ContainerSummary `json:"items"`
	Pagination PaginationMeta            `json:"pagination"`
}

// ListContainersParams defines filters for listing containers.
type ListContainersParams struct {
	Page       int
	PageSize   int
	Search     string
	EntityType string
	SortField  string
	SortOrder  string
}
