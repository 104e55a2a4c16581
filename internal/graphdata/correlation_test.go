package graphdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtc/cyio-graph/internal/domain"
)

const correlationPayload = `[
	{"id":"ap","entity_type":"Attack-Pattern","name":"Spearphishing Attachment via Service","x_mitre_id":"T1193",
	 "reports":{"edges":[
		{"node":{"id":"rep1","entity_type":"Report","name":"Q1","published":"2021-01-01T00:00:00Z"}},
		{"node":{"id":"rep2","entity_type":"Report","name":"Q2","published":"2021-04-01T00:00:00Z",
		         "objectMarking":{"edges":[{"node":{"id":"tlp-red"}}]}}}
	 ]}},
	{"id":"mw","entity_type":"Malware","name":"Emotet",
	 "reports":{"edges":[{"node":{"id":"rep1","entity_type":"Report","name":"Q1"}}]}},
	{"id":"tool","entity_type":"Tool","name":"Cobalt Strike",
	 "reports":{"edges":[
		{"node":{"id":"rep1","entity_type":"Report","name":"Q1"}},
		{"node":{"id":"rep3","entity_type":"Report","name":"Q3"}}
	 ]}},
	{"id":"plain","entity_type":"Malware","name":"no reports"}
]`

func TestBuildCorrelationData(t *testing.T) {
	objects := decodeObjects(t, correlationPayload)

	graph := BuildCorrelationData(objects, nil, nil, domain.CorrelationFilters{})

	assert.Equal(t, []string{"ap", "tool", "rep1", "rep2", "rep3"}, ids(graph.Nodes))
	require.Len(t, graph.Links, 4)

	linkIDs := make([]string, 0, len(graph.Links))
	for _, l := range graph.Links {
		linkIDs = append(linkIDs, l.ID)
		assert.Equal(t, domain.RelationshipParentType, l.EntityType)
		assert.Equal(t, ReportedInType, l.RelationshipType)
		assert.Equal(t, l.Source, l.SourceID)
		assert.Equal(t, l.Target, l.TargetID)
	}
	assert.Equal(t, []string{"aprep1", "aprep2", "toolrep1", "toolrep3"}, linkIDs)

	ap := graph.Nodes[0]
	assert.Equal(t, "[T1193] Spearphishing Attachme...", ap.Label)
	assert.Equal(t, "[T1193] Spearphishing Attachment via Service\n-", ap.Name)
	assert.Equal(t, "Cobalt Strike", graph.Nodes[1].Label)
}

func TestBuildCorrelationDataFilters(t *testing.T) {
	objects := decodeObjects(t, correlationPayload)

	graph := BuildCorrelationData(objects, nil, nil, domain.CorrelationFilters{
		StixCoreObjectsTypes: []string{"Attack-Pattern"},
		MarkedBy:             []string{"tlp-green"},
	})

	assert.Equal(t, []string{"ap", "rep1"}, ids(graph.Nodes), "marked report is filtered, report type is not")
	require.Len(t, graph.Links, 1)
	assert.Equal(t, "aprep1", graph.Links[0].ID)
}

func TestBuildCorrelationDataEmpty(t *testing.T) {
	graph := BuildCorrelationData(nil, nil, nil, domain.CorrelationFilters{})
	assert.Empty(t, graph.Nodes)
	assert.Empty(t, graph.Links)
}

func TestBuildCorrelationDataLabelsCarryMitreID(t *testing.T) {
	objects := decodeObjects(t, `[
		{"id":"tool","entity_type":"Tool","name":"Cobalt Strike Beacon","x_mitre_id":"S0154",
		 "reports":{"edges":[{"node":{"id":"r1","entity_type":"Report"}},{"node":{"id":"r2","entity_type":"Report"}}]}}
	]`)

	graph := BuildCorrelationData(objects, nil, nil, domain.CorrelationFilters{})

	require.NotEmpty(t, graph.Nodes)
	assert.Equal(t, "[S0154] Cobalt Strik...", graph.Nodes[0].Label)

	plain := BuildGraphData(objects, nil, nil)
	assert.Equal(t, "Cobalt Strike Beacon", plain.Nodes[0].Label)
}
