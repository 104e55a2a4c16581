package domain

// RelationshipParentType marks relationship pseudo-objects in parent_types.
const RelationshipParentType = "basic-relationship"

// Object is a STIX/OSCAL entity or relationship record as delivered by the
// upstream API. Every field is optional; decoding never fails on a field whose
// value has an unexpected shape.
type Object struct {
	ID               string `json:"id"`
	EntityType       string `json:"entity_type,omitempty"`
	RelationshipType string `json:"relationship_type,omitempty"`
	Source           *Ref   `json:"source,omitempty"`
	Target           *Ref   `json:"target,omitempty"`

	Name              string `json:"name,omitempty"`
	Label             string `json:"label,omitempty"`
	ObservableValue   string `json:"observable_value,omitempty"`
	ObservableName    string `json:"observableName,omitempty"`
	AttributeAbstract string `json:"attribute_abstract,omitempty"`
	Opinion           string `json:"opinion,omitempty"`
	Value             string `json:"value,omitempty"`
	Title             string `json:"title,omitempty"`
	Definition        string `json:"definition,omitempty"`
	SourceName        string `json:"source_name,omitempty"`
	SystemName        string `json:"system_name,omitempty"`
	PhaseName         string `json:"phase_name,omitempty"`
	XMitreID          string `json:"x_mitre_id,omitempty"`

	StartTime     string `json:"start_time,omitempty"`
	FirstSeen     string `json:"first_seen,omitempty"`
	FirstObserved string `json:"first_observed,omitempty"`
	ValidFrom     string `json:"valid_from,omitempty"`
	Published     string `json:"published,omitempty"`
	Created       string `json:"created,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`

	XOpenCTIColor string `json:"x_opencti_color,omitempty"`
	Color         string `json:"color,omitempty"`

	ObjectMarking *MarkingConnection `json:"objectMarking,omitempty"`
	CreatedBy     *Creator           `json:"createdBy,omitempty"`
	ParentTypes   []string           `json:"parent_types,omitempty"`

	// Objects holds the members of container-like records (reports, systems).
	Objects *Connection `json:"objects,omitempty"`
	// Reports lists the reports an entity appears in.
	Reports *Connection `json:"reports,omitempty"`
}

// Ref points at another record by id. Relationship endpoints arrive either as a
// nested object or as a bare id string.
type Ref struct {
	ID               string `json:"id"`
	EntityType       string `json:"entity_type,omitempty"`
	RelationshipType string `json:"relationship_type,omitempty"`
}

// Connection is a GraphQL-style edge list.
type Connection struct {
	Edges []Edge `json:"edges"`
}

// Edge wraps a single connection member.
type Edge struct {
	Node Object `json:"node"`
}

// MarkingConnection lists the markings applied to a record.
type MarkingConnection struct {
	Edges []MarkingEdge `json:"edges"`
}

// MarkingEdge wraps a single marking.
type MarkingEdge struct {
	Node Marking `json:"node"`
}

// Marking is an access or classification label such as a TLP level.
type Marking struct {
	ID         string `json:"id"`
	Definition string `json:"definition,omitempty"`
}

// Creator identifies the author of a record.
type Creator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnknownCreator is attributed to records that carry no createdBy reference.
var UnknownCreator = Creator{
	ID:   "0533fcc9-b9e8-4010-877c-174343cb24cd",
	Name: "Unknown",
}

// IsRelationship reports whether the record describes a relationship.
func (o Object) IsRelationship() bool {
	return o.RelationshipType != ""
}

// HasEndpoints reports whether both relationship endpoints carry an id.
func (o Object) HasEndpoints() bool {
	return o.Source != nil && o.Source.ID != "" && o.Target != nil && o.Target.ID != ""
}

// HasParentType reports whether parentType is listed in parent_types.
func (o Object) HasParentType(parentType string) bool {
	for _, pt := range o.ParentTypes {
		if pt == parentType {
			return true
		}
	}
	return false
}

// Markings returns the marking references of the record, skipping edges without an id.
func (o Object) Markings() []Marking {
	if o.ObjectMarking == nil {
		return []Marking{}
	}
	markings := make([]Marking, 0, len(o.ObjectMarking.Edges))
	for _, edge := range o.ObjectMarking.Edges {
		if edge.Node.ID == "" {
			continue
		}
		markings = append(markings, edge.Node)
	}
	return markings
}

// Author returns createdBy, or UnknownCreator when absent.
func (o Object) Author() Creator {
	if o.CreatedBy == nil || o.CreatedBy.ID == "" {
		return UnknownCreator
	}
	return *o.CreatedBy
}

// FirstMember returns the first nested member of a container-like record.
func (o Object) FirstMember() (Object, bool) {
	if o.Objects == nil || len(o.Objects.Edges) == 0 {
		return Object{}, false
	}
	return o.Objects.Edges[0].Node, true
}

// ReportNodes returns the reports the record appears in.
func (o Object) ReportNodes() []Object {
	if o.Reports == nil {
		return nil
	}
	nodes := make([]Object, 0, len(o.Reports.Edges))
	for _, edge := range o.Reports.Edges {
		nodes = append(nodes, edge.Node)
	}
	return nodes
}
