package graphdata

import (
	"github.com/champtc/cyio-graph/internal/domain"
)

// ApplyNodeFilters returns the nodes passing every active criterion, in
// order: excluded types, allowed types, markings, creators, time interval.
// Nodes without markings or without a date are never rejected by the
// corresponding filter. The input slice is left untouched.
func ApplyNodeFilters(nodes []domain.GraphNode, criteria domain.FilterCriteria) []domain.GraphNode {
	exclude := toSet(criteria.TypesExclude)
	allow := toSet(criteria.TypesAllow)
	markings := toSet(criteria.MarkedByAllow)
	creators := toSet(criteria.CreatedByAllow)

	out := make([]domain.GraphNode, 0, len(nodes))
	for _, n := range nodes {
		if _, excluded := exclude[n.EntityType]; excluded {
			continue
		}
		if len(allow) > 0 {
			if _, ok := allow[n.EntityType]; !ok {
				continue
			}
		}
		if len(markings) > 0 && len(n.MarkedBy) > 0 && !anyMarking(n.MarkedBy, markings) {
			continue
		}
		if len(creators) > 0 {
			if _, ok := creators[n.CreatedBy.ID]; !ok {
				continue
			}
		}
		if criteria.TimeInterval != nil && n.DefaultDate != nil && !criteria.TimeInterval.Contains(*n.DefaultDate) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// ApplyFilters filters the nodes of graph and drops every link left with an
// endpoint outside the surviving node set.
func ApplyFilters(graph domain.GraphData, criteria domain.FilterCriteria) domain.GraphData {
	nodes := ApplyNodeFilters(graph.Nodes, criteria)
	result := domain.GraphData{Nodes: nodes}
	ids := result.NodeIDs()

	links := make([]domain.GraphLink, 0, len(graph.Links))
	for _, l := range graph.Links {
		if _, ok := ids[l.SourceID]; !ok {
			continue
		}
		if _, ok := ids[l.TargetID]; !ok {
			continue
		}
		links = append(links, l)
	}
	result.Links = links
	return result
}

func anyMarking(markings []domain.Marking, allowed map[string]struct{}) bool {
	for _, m := range markings {
		if _, ok := allowed[m.ID]; ok {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
