// Package graphdata turns STIX/OSCAL records into the node/link payload of the
// force-directed graph view and provides the filters and time-range
// computations that drive it. Every function is pure and never fails.
package graphdata

import (
	"github.com/champtc/cyio-graph/internal/domain"
	"github.com/champtc/cyio-graph/internal/registry"
)

// Translator localizes a message key. A nil Translator returns keys unchanged.
type Translator func(key string) string

func (t Translator) apply(key string) string {
	if t == nil {
		return key
	}
	return t(key)
}

// MapTranslator looks keys up in translations, falling back to the key.
func MapTranslator(translations map[string]string) Translator {
	if len(translations) == 0 {
		return nil
	}
	return func(key string) string {
		if v, ok := translations[key]; ok && v != "" {
			return v
		}
		return key
	}
}

const (
	nodeLabelLimit          = 20
	attackPatternLabelLimit = 30
	relationshipIconType    = "relationship"
)

// BuildGraphData maps records into graph nodes and links, restoring pinned
// coordinates from positions. Targets of relationship-to-relationship edges
// are suppressed from both sets.
func BuildGraphData(objects []domain.Object, positions domain.Positions, translate Translator) domain.GraphData {
	suppressed := NestedRelationshipTargets(objects)

	nodes := make([]domain.GraphNode, 0, len(objects))
	seenNodes := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		if obj.IsRelationship() || obj.ID == "" {
			continue
		}
		if _, skip := suppressed[obj.ID]; skip {
			continue
		}
		if _, dup := seenNodes[obj.ID]; dup {
			continue
		}
		seenNodes[obj.ID] = struct{}{}
		nodes = append(nodes, buildNode(obj, positions, translate, false))
	}

	links := make([]domain.GraphLink, 0)
	seenLinks := make(map[string]struct{})
	for _, obj := range objects {
		if !obj.HasEndpoints() {
			continue
		}
		if _, skip := suppressed[obj.ID]; skip {
			continue
		}
		if _, skip := suppressed[obj.Source.ID]; skip {
			continue
		}
		if _, skip := suppressed[obj.Target.ID]; skip {
			continue
		}
		if _, dup := seenLinks[obj.ID]; dup {
			continue
		}
		seenLinks[obj.ID] = struct{}{}
		links = append(links, buildLink(obj, translate))
	}

	return domain.GraphData{Nodes: nodes, Links: links}
}

// NestedRelationshipTargets returns the target ids of relationships whose
// source or target is itself a relationship. An endpoint counts as a
// relationship when the reference carries a relationship type or when its id
// belongs to a relationship record in objects.
func NestedRelationshipTargets(objects []domain.Object) map[string]struct{} {
	relationshipIDs := make(map[string]struct{})
	for _, obj := range objects {
		if obj.IsRelationship() && obj.ID != "" {
			relationshipIDs[obj.ID] = struct{}{}
		}
	}
	isRelationship := func(ref *domain.Ref) bool {
		if ref.RelationshipType != "" {
			return true
		}
		_, ok := relationshipIDs[ref.ID]
		return ok
	}

	suppressed := make(map[string]struct{})
	for _, obj := range objects {
		if !obj.IsRelationship() || !obj.HasEndpoints() {
			continue
		}
		if isRelationship(obj.Source) || isRelationship(obj.Target) {
			suppressed[obj.Target.ID] = struct{}{}
		}
	}
	return suppressed
}

func buildNode(obj domain.Object, positions domain.Positions, translate Translator, correlation bool) domain.GraphNode {
	date := defaultDatePtr(obj)

	iconType := obj.EntityType
	if obj.IsRelationship() {
		iconType = relationshipIconType
	}

	var label string
	switch {
	case obj.IsRelationship():
		label = translate.apply("relationship_" + obj.RelationshipType)
	case correlation && obj.EntityType == "Attack-Pattern":
		label = Truncate(DefaultValue(obj, true), attackPatternLabelLimit)
	case correlation:
		label = Truncate(DefaultValue(obj, true), nodeLabelLimit)
	default:
		label = Truncate(DefaultValue(obj, false), nodeLabelLimit)
	}

	node := domain.GraphNode{
		ID:          obj.ID,
		Val:         registry.Level(iconType),
		Name:        DefaultValue(obj, true) + "\n" + DateFormat(date),
		Label:       label,
		Img:         registry.Icon(iconType),
		RawImg:      registry.RawIcon(iconType),
		Color:       nodeColor(obj),
		EntityType:  obj.EntityType,
		MarkedBy:    obj.Markings(),
		CreatedBy:   obj.Author(),
		DefaultDate: date,
	}
	if pos, ok := positions[obj.ID]; ok && pos.Pinned() {
		x, y := *pos.X, *pos.Y
		node.Fx = &x
		node.Fy = &y
	}
	return node
}

func nodeColor(obj domain.Object) string {
	if obj.XOpenCTIColor != "" {
		return obj.XOpenCTIColor
	}
	if obj.Color != "" {
		return obj.Color
	}
	return registry.ItemColor(obj.EntityType, false)
}

func buildLink(obj domain.Object, translate Translator) domain.GraphLink {
	date := defaultDatePtr(obj)

	var label string
	if obj.RelationshipType != "" {
		label = translate.apply("relationship_" + obj.RelationshipType)
	} else {
		label = translate.apply(obj.EntityType)
	}

	return domain.GraphLink{
		ID:               obj.ID,
		EntityType:       obj.EntityType,
		RelationshipType: obj.RelationshipType,
		Source:           obj.Source.ID,
		Target:           obj.Target.ID,
		SourceID:         obj.Source.ID,
		TargetID:         obj.Target.ID,
		Label:            label,
		Name:             label + "\n" + DateFormat(date),
		DefaultDate:      date,
	}
}
