package graphdata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtc/cyio-graph/internal/domain"
	"github.com/champtc/cyio-graph/internal/registry"
)

func decodeObjects(t *testing.T, payload string) []domain.Object {
	t.Helper()
	var objects []domain.Object
	require.NoError(t, json.Unmarshal([]byte(payload), &objects))
	return objects
}

const malwareReportPayload = `[
	{"id":"a","entity_type":"Malware","created":"2021-06-01T00:00:00Z"},
	{"id":"b","entity_type":"Report","created":"2021-06-02T00:00:00Z"},
	{"id":"r1","entity_type":"relationship","relationship_type":"related-to","source":{"id":"a"},"target":{"id":"b"}}
]`

func TestBuildGraphDataScenario(t *testing.T) {
	objects := decodeObjects(t, malwareReportPayload)

	graph := BuildGraphData(objects, nil, nil)
	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, "a", graph.Nodes[0].ID)
	assert.Equal(t, "b", graph.Nodes[1].ID)
	require.Len(t, graph.Links, 1)
	assert.Equal(t, "r1", graph.Links[0].ID)
	assert.Equal(t, "a", graph.Links[0].Source)
	assert.Equal(t, "b", graph.Links[0].Target)
	assert.Equal(t, "a", graph.Links[0].SourceID)
	assert.Equal(t, "b", graph.Links[0].TargetID)

	filtered := ApplyFilters(graph, domain.FilterCriteria{TypesAllow: []string{"Malware"}})
	require.Len(t, filtered.Nodes, 1)
	assert.Equal(t, "a", filtered.Nodes[0].ID)
	assert.Empty(t, filtered.Links)
}

func TestBuildGraphDataNodeFields(t *testing.T) {
	objects := decodeObjects(t, `[
		{"id":"m1","entity_type":"Malware","name":"A very long malware family name","x_mitre_id":"S0001",
		 "created":"2021-06-01T00:00:00Z",
		 "objectMarking":{"edges":[{"node":{"id":"tlp-green","definition":"TLP:GREEN"}}]},
		 "createdBy":{"id":"org-1","name":"ACME"}},
		{"id":"n1","entity_type":"Note","attribute_abstract":"note","x_opencti_color":"#123456"}
	]`)
	x, y := 10.5, -3.0
	positions := domain.Positions{"m1": {X: &x, Y: &y}, "n1": {X: &x}}

	graph := BuildGraphData(objects, positions, nil)
	require.Len(t, graph.Nodes, 2)

	m := graph.Nodes[0]
	assert.Equal(t, registry.Level("Malware"), m.Val)
	assert.Equal(t, "[S0001] A very long malware family name\nJune 1, 2021", m.Name)
	assert.Equal(t, "A very long malware ...", m.Label)
	assert.Equal(t, registry.Icon("Malware"), m.Img)
	assert.Equal(t, registry.RawIcon("Malware"), m.RawImg)
	assert.Equal(t, registry.ItemColor("Malware", false), m.Color)
	assert.Equal(t, []domain.Marking{{ID: "tlp-green", Definition: "TLP:GREEN"}}, m.MarkedBy)
	assert.Equal(t, domain.Creator{ID: "org-1", Name: "ACME"}, m.CreatedBy)
	require.NotNil(t, m.Fx)
	require.NotNil(t, m.Fy)
	assert.Equal(t, 10.5, *m.Fx)
	assert.Equal(t, -3.0, *m.Fy)
	require.NotNil(t, m.DefaultDate)

	n := graph.Nodes[1]
	assert.Equal(t, "#123456", n.Color)
	assert.Equal(t, domain.UnknownCreator, n.CreatedBy)
	assert.Empty(t, n.MarkedBy)
	assert.Nil(t, n.Fx, "half-pinned positions are ignored")
	assert.Nil(t, n.Fy)
	assert.Nil(t, n.DefaultDate)
	assert.Equal(t, "note\n-", n.Name)
}

func TestBuildGraphDataLinkLabelsAreTranslated(t *testing.T) {
	objects := decodeObjects(t, malwareReportPayload)
	translate := func(key string) string { return "T(" + key + ")" }

	graph := BuildGraphData(objects, nil, translate)
	require.Len(t, graph.Links, 1)
	assert.Equal(t, "T(relationship_related-to)", graph.Links[0].Label)
	assert.Equal(t, "T(relationship_related-to)\n-", graph.Links[0].Name)
}

func TestBuildGraphDataIsIdempotent(t *testing.T) {
	objects := decodeObjects(t, malwareReportPayload)
	first := BuildGraphData(objects, domain.Positions{}, nil)
	second := BuildGraphData(objects, domain.Positions{}, nil)
	assert.Equal(t, first, second)
}

func TestBuildGraphDataDeduplicates(t *testing.T) {
	objects := decodeObjects(t, `[
		{"id":"a","entity_type":"Malware","name":"first"},
		{"id":"a","entity_type":"Malware","name":"second"},
		{"id":"","entity_type":"Malware","name":"anonymous"},
		{"id":"b","entity_type":"Tool"},
		{"id":"r1","relationship_type":"uses","source":"a","target":"b"},
		{"id":"r1","relationship_type":"uses","source":"a","target":"b"},
		{"id":"r2","relationship_type":"uses","source":{"id":"a"}}
	]`)

	graph := BuildGraphData(objects, nil, nil)
	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, "first", graph.Nodes[0].Label)
	require.Len(t, graph.Links, 1)
	assert.Equal(t, "r1", graph.Links[0].ID)
}

func TestBuildGraphDataSuppressesNestedRelationshipTargets(t *testing.T) {
	objects := decodeObjects(t, `[
		{"id":"a","entity_type":"Malware"},
		{"id":"b","entity_type":"Tool"},
		{"id":"x","entity_type":"Indicator"},
		{"id":"r1","entity_type":"relationship","relationship_type":"uses","source":{"id":"a"},"target":{"id":"b"}},
		{"id":"r2","entity_type":"relationship","relationship_type":"nested","source":{"id":"r1"},"target":{"id":"x"}}
	]`)

	suppressed := NestedRelationshipTargets(objects)
	assert.Contains(t, suppressed, "x")
	assert.NotContains(t, suppressed, "b")

	graph := BuildGraphData(objects, nil, nil)
	ids := graph.NodeIDs()
	assert.NotContains(t, ids, "x")
	assert.Contains(t, ids, "a")
	assert.Contains(t, ids, "b")
	for _, l := range graph.Links {
		assert.NotEqual(t, "r2", l.ID)
		assert.NotEqual(t, "x", l.TargetID)
	}
	require.Len(t, graph.Links, 1)
	assert.Equal(t, "r1", graph.Links[0].ID)
}

func TestNestedRelationshipDetectedFromRefType(t *testing.T) {
	objects := decodeObjects(t, `[
		{"id":"x","entity_type":"Indicator"},
		{"id":"r2","relationship_type":"nested","source":{"id":"r-ext","relationship_type":"uses"},"target":{"id":"x"}}
	]`)
	assert.Contains(t, NestedRelationshipTargets(objects), "x")
	assert.Empty(t, BuildGraphData(objects, nil, nil).Nodes)
}

func TestBuildGraphDataToleratesMalformedRecords(t *testing.T) {
	objects := decodeObjects(t, `[
		42,
		{"id":7,"entity_type":"Malware","name":{"nested":true},"created":"yesterday"},
		{"id":"r","relationship_type":"uses","source":[1,2],"target":null}
	]`)
	graph := BuildGraphData(objects, nil, nil)
	require.Len(t, graph.Nodes, 1)
	assert.Equal(t, "7", graph.Nodes[0].ID)
	assert.Equal(t, "Unknown", graph.Nodes[0].Label)
	assert.Empty(t, graph.Links)
}

func TestMapTranslator(t *testing.T) {
	assert.Nil(t, MapTranslator(nil))

	tr := MapTranslator(map[string]string{"relationship_uses": "utilise", "relationship_targets": ""})
	assert.Equal(t, "utilise", tr.apply("relationship_uses"))
	assert.Equal(t, "relationship_targets", tr.apply("relationship_targets"))
	assert.Equal(t, "relationship_unknown", tr.apply("relationship_unknown"))
}
