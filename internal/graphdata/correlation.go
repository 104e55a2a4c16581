package graphdata

import (
	"github.com/champtc/cyio-graph/internal/domain"
)

// ReportedInType is the relationship type of synthetic record-to-report links.
const ReportedInType = "reported-in"

// BuildCorrelationData builds the report co-occurrence view: records seen in
// more than one report are linked to each of those reports. Candidate records
// are filtered by type, marking, creator and time; the reports themselves
// only by marking, creator and time.
func BuildCorrelationData(objects []domain.Object, positions domain.Positions, translate Translator, adjust domain.CorrelationFilters) domain.GraphData {
	candidates := make([]domain.GraphNode, 0, len(objects))
	byID := make(map[string]domain.Object, len(objects))
	for _, obj := range objects {
		if obj.ID == "" || obj.Reports == nil {
			continue
		}
		if _, dup := byID[obj.ID]; dup {
			continue
		}
		byID[obj.ID] = obj
		candidates = append(candidates, buildNode(obj, positions, translate, true))
	}

	candidates = ApplyNodeFilters(candidates, domain.FilterCriteria{
		TypesAllow:     adjust.StixCoreObjectsTypes,
		MarkedByAllow:  adjust.MarkedBy,
		CreatedByAllow: adjust.CreatedBy,
		TimeInterval:   adjust.SelectedTimeRangeInterval,
	})

	linkNodes := make([]domain.GraphNode, 0, len(candidates))
	for _, n := range candidates {
		if len(byID[n.ID].ReportNodes()) > 1 {
			linkNodes = append(linkNodes, n)
		}
	}

	reports := make([]domain.GraphNode, 0)
	seenReports := make(map[string]struct{})
	for _, n := range linkNodes {
		for _, report := range byID[n.ID].ReportNodes() {
			if report.ID == "" {
				continue
			}
			if _, dup := seenReports[report.ID]; dup {
				continue
			}
			seenReports[report.ID] = struct{}{}
			reports = append(reports, buildNode(report, positions, translate, true))
		}
	}
	reports = ApplyNodeFilters(reports, domain.FilterCriteria{
		MarkedByAllow:  adjust.MarkedBy,
		CreatedByAllow: adjust.CreatedBy,
		TimeInterval:   adjust.SelectedTimeRangeInterval,
	})
	keptReports := make(map[string]struct{}, len(reports))
	for _, r := range reports {
		keptReports[r.ID] = struct{}{}
	}

	label := translate.apply("relationship_" + ReportedInType)
	links := make([]domain.GraphLink, 0)
	seenLinks := make(map[string]struct{})
	for _, n := range linkNodes {
		for _, report := range byID[n.ID].ReportNodes() {
			if _, ok := keptReports[report.ID]; !ok {
				continue
			}
			id := n.ID + report.ID
			if _, dup := seenLinks[id]; dup {
				continue
			}
			seenLinks[id] = struct{}{}
			links = append(links, domain.GraphLink{
				ID:               id,
				EntityType:       domain.RelationshipParentType,
				RelationshipType: ReportedInType,
				Source:           n.ID,
				Target:           report.ID,
				SourceID:         n.ID,
				TargetID:         report.ID,
				Label:            label,
				Name:             label,
			})
		}
	}

	nodes := make([]domain.GraphNode, 0, len(linkNodes)+len(reports))
	nodes = append(nodes, linkNodes...)
	for _, r := range reports {
		if containsNode(linkNodes, r.ID) {
			continue
		}
		nodes = append(nodes, r)
	}
	return domain.GraphData{Nodes: nodes, Links: links}
}

func containsNode(nodes []domain.GraphNode, id string) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}
