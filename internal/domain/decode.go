package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// UnmarshalJSON decodes an object field by field so that a single malformed
// attribute degrades to its zero value instead of rejecting the record.
// Non-object payloads decode to an empty Object.
func (o *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*o = Object{}
		return nil
	}

	*o = Object{
		ID:               decodeText(raw["id"]),
		EntityType:       decodeText(raw["entity_type"]),
		RelationshipType: decodeText(raw["relationship_type"]),
		Source:           decodeRef(raw["source"]),
		Target:           decodeRef(raw["target"]),

		Name:              decodeText(raw["name"]),
		Label:             decodeText(raw["label"]),
		ObservableValue:   decodeText(raw["observable_value"]),
		ObservableName:    decodeText(raw["observableName"]),
		AttributeAbstract: decodeText(raw["attribute_abstract"]),
		Opinion:           decodeText(raw["opinion"]),
		Value:             decodeText(raw["value"]),
		Title:             decodeText(raw["title"]),
		Definition:        decodeText(raw["definition"]),
		SourceName:        decodeText(raw["source_name"]),
		SystemName:        decodeText(raw["system_name"]),
		PhaseName:         decodeText(raw["phase_name"]),
		XMitreID:          decodeText(raw["x_mitre_id"]),

		StartTime:     decodeText(raw["start_time"]),
		FirstSeen:     decodeText(raw["first_seen"]),
		FirstObserved: decodeText(raw["first_observed"]),
		ValidFrom:     decodeText(raw["valid_from"]),
		Published:     decodeText(raw["published"]),
		Created:       decodeText(raw["created"]),
		CreatedAt:     decodeText(raw["created_at"]),

		XOpenCTIColor: decodeText(raw["x_opencti_color"]),
		Color:         decodeText(raw["color"]),

		ObjectMarking: decodeMarkings(raw["objectMarking"]),
		CreatedBy:     decodeCreator(raw["createdBy"]),
		ParentTypes:   decodeStrings(raw["parent_types"]),

		Objects: decodeConnection(raw["objects"]),
		Reports: decodeConnection(raw["reports"]),
	}
	return nil
}

// UnmarshalJSON accepts either a bare id string or an object carrying an id.
func (r *Ref) UnmarshalJSON(data []byte) error {
	if ref := decodeRef(data); ref != nil {
		*r = *ref
	} else {
		*r = Ref{}
	}
	return nil
}

// decodeText renders scalars as strings; objects, arrays and null yield "".
func decodeText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func decodeStrings(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] != '[' {
		if s := decodeText(raw); s != "" {
			return []string{s}
		}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := decodeText(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func decodeFields(raw json.RawMessage) map[string]json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func decodeRef(raw json.RawMessage) *Ref {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '"' {
		id := decodeText(raw)
		if id == "" {
			return nil
		}
		return &Ref{ID: id}
	}
	fields := decodeFields(raw)
	if fields == nil {
		return nil
	}
	return &Ref{
		ID:               decodeText(fields["id"]),
		EntityType:       decodeText(fields["entity_type"]),
		RelationshipType: decodeText(fields["relationship_type"]),
	}
}

func decodeCreator(raw json.RawMessage) *Creator {
	fields := decodeFields(raw)
	if fields == nil {
		return nil
	}
	return &Creator{
		ID:   decodeText(fields["id"]),
		Name: decodeText(fields["name"]),
	}
}

func decodeEdges(raw json.RawMessage) []json.RawMessage {
	fields := decodeFields(raw)
	if fields == nil {
		return nil
	}
	var edges []json.RawMessage
	if err := json.Unmarshal(fields["edges"], &edges); err != nil {
		return nil
	}
	nodes := make([]json.RawMessage, 0, len(edges))
	for _, edge := range edges {
		edgeFields := decodeFields(edge)
		if edgeFields == nil {
			continue
		}
		if node, ok := edgeFields["node"]; ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func decodeMarkings(raw json.RawMessage) *MarkingConnection {
	nodes := decodeEdges(raw)
	if nodes == nil {
		return nil
	}
	conn := &MarkingConnection{Edges: make([]MarkingEdge, 0, len(nodes))}
	for _, node := range nodes {
		fields := decodeFields(node)
		if fields == nil {
			continue
		}
		conn.Edges = append(conn.Edges, MarkingEdge{Node: Marking{
			ID:         decodeText(fields["id"]),
			Definition: decodeText(fields["definition"]),
		}})
	}
	return conn
}

func decodeConnection(raw json.RawMessage) *Connection {
	nodes := decodeEdges(raw)
	if nodes == nil {
		return nil
	}
	conn := &Connection{Edges: make([]Edge, 0, len(nodes))}
	for _, node := range nodes {
		var obj Object
		_ = obj.UnmarshalJSON(node)
		conn.Edges = append(conn.Edges, Edge{Node: obj})
	}
	return conn
}
