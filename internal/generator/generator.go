// Package generator synthesizes STIX-shaped datasets for load tests and demos.
package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/champtc/cyio-graph/internal/domain"
)

// Dataset contains the generated records in ingestion order: reports, then
// entities, then relationships.
type Dataset struct {
	Objects []domain.Object `json:"objects"`
}

// Counts tallies the records of a dataset by kind.
func (d Dataset) Counts() (entities, relationships, reports int) {
	for _, obj := range d.Objects {
		switch {
		case obj.IsRelationship():
			relationships++
		case obj.EntityType == "Report":
			reports++
		default:
			entities++
		}
	}
	return entities, relationships, reports
}

// Generator produces synthetic graph data shaped like the upstream API output.
// Output is fully determined by the configured seed.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	fragments nameFragments
	creators  []domain.Creator
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	defaults := DefaultConfig()
	if cfg.NumObjects <= 0 {
		cfg.NumObjects = defaults.NumObjects
	}
	if cfg.NumRelationships < 0 {
		cfg.NumRelationships = 0
	}
	if cfg.NumReports < 0 {
		cfg.NumReports = 0
	}
	if cfg.ReportShareChance <= 0 {
		cfg.ReportShareChance = defaults.ReportShareChance
	}
	if cfg.MarkingChance < 0 {
		cfg.MarkingChance = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = defaults.Seed
	}
	if cfg.Base.IsZero() {
		cfg.Base = defaults.Base
	}

	return &Generator{
		cfg:       cfg,
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		fragments: defaultNameFragments(),
	}
}

// Generate synthesises the dataset. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	g.creators = make([]domain.Creator, 0, len(g.fragments.organizations))
	for _, org := range g.fragments.organizations {
		g.creators = append(g.creators, domain.Creator{ID: g.stixID("identity"), Name: org})
	}

	reports := make([]domain.Object, 0, g.cfg.NumReports)
	for i := 0; i < g.cfg.NumReports; i++ {
		reports = append(reports, domain.Object{
			ID:            g.stixID("report"),
			EntityType:    "Report",
			Name:          fmt.Sprintf("%s activity report #%d", g.pick(g.fragments.adjectives), i+1),
			Published:     g.randomDate(),
			ObjectMarking: g.maybeMarking(),
			CreatedBy:     g.randomCreator(),
		})
	}

	entities := make([]domain.Object, 0, g.cfg.NumObjects)
	for i := 0; i < g.cfg.NumObjects; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		obj := g.randomEntity()
		obj.Reports = g.maybeReports(reports)
		entities = append(entities, obj)
	}

	relationships := make([]domain.Object, 0, g.cfg.NumRelationships)
	if len(entities) > 1 {
		for i := 0; i < g.cfg.NumRelationships; i++ {
			if err := ctx.Err(); err != nil {
				return Dataset{}, err
			}
			relationships = append(relationships, g.randomRelationship(entities))
		}
	} else if g.cfg.NumRelationships > 0 {
		return Dataset{}, errors.New("at least two objects are required to generate relationships")
	}

	objects := make([]domain.Object, 0, len(reports)+len(entities)+len(relationships))
	objects = append(objects, reports...)
	objects = append(objects, entities...)
	objects = append(objects, relationships...)
	return Dataset{Objects: objects}, nil
}

func (g *Generator) randomEntity() domain.Object {
	kind := g.fragments.entityTypes[g.rand.Intn(len(g.fragments.entityTypes))]
	obj := domain.Object{
		ID:            g.stixID(strings.ToLower(kind)),
		EntityType:    kind,
		Created:       g.randomDate(),
		ObjectMarking: g.maybeMarking(),
		CreatedBy:     g.randomCreator(),
	}

	switch kind {
	case "IPv4-Addr":
		obj.ObservableValue = fmt.Sprintf("10.%d.%d.%d", g.rand.Intn(256), g.rand.Intn(256), g.rand.Intn(256))
	case "Domain-Name":
		obj.ObservableValue = fmt.Sprintf("%s-%s.example", g.pick(g.fragments.nouns), g.pick(g.fragments.nouns))
	case "Attack-Pattern":
		obj.Name = fmt.Sprintf("%s %s", g.pick(g.fragments.adjectives), g.pick(g.fragments.techniques))
		obj.XMitreID = fmt.Sprintf("T%04d", 1000+g.rand.Intn(600))
	case "Indicator":
		obj.Name = fmt.Sprintf("[file:hashes.'SHA-256' = '%016x']", g.rand.Uint64())
		obj.ValidFrom = obj.Created
		obj.Created = ""
	case "Vulnerability":
		obj.Name = fmt.Sprintf("CVE-%d-%05d", 2015+g.rand.Intn(9), g.rand.Intn(50000))
	case "Campaign":
		obj.Name = fmt.Sprintf("Operation %s %s", g.pick(g.fragments.adjectives), g.pick(g.fragments.nouns))
		obj.FirstSeen = obj.Created
		obj.Created = ""
	default:
		obj.Name = fmt.Sprintf("%s%s", g.pick(g.fragments.adjectives), g.pick(g.fragments.nouns))
	}
	return obj
}

func (g *Generator) randomRelationship(entities []domain.Object) domain.Object {
	src := entities[g.rand.Intn(len(entities))]
	dst := entities[g.rand.Intn(len(entities))]
	for dst.ID == src.ID {
		dst = entities[g.rand.Intn(len(entities))]
	}
	return domain.Object{
		ID:               g.stixID("relationship"),
		EntityType:       "stix-core-relationship",
		RelationshipType: g.pick(g.fragments.relationshipTypes),
		ParentTypes:      []string{domain.RelationshipParentType, "stix-relationship"},
		Source:           &domain.Ref{ID: src.ID, EntityType: src.EntityType},
		Target:           &domain.Ref{ID: dst.ID, EntityType: dst.EntityType},
		StartTime:        g.randomDate(),
		ObjectMarking:    g.maybeMarking(),
		CreatedBy:        g.randomCreator(),
	}
}

func (g *Generator) maybeReports(reports []domain.Object) *domain.Connection {
	if len(reports) == 0 || g.rand.Float64() >= g.cfg.ReportShareChance {
		return nil
	}
	n := 1 + g.rand.Intn(min(3, len(reports)))
	picked := g.rand.Perm(len(reports))[:n]
	conn := &domain.Connection{Edges: make([]domain.Edge, 0, n)}
	for _, idx := range picked {
		report := reports[idx]
		conn.Edges = append(conn.Edges, domain.Edge{Node: domain.Object{
			ID:            report.ID,
			EntityType:    report.EntityType,
			Name:          report.Name,
			Published:     report.Published,
			ObjectMarking: report.ObjectMarking,
			CreatedBy:     report.CreatedBy,
		}})
	}
	return conn
}

func (g *Generator) maybeMarking() *domain.MarkingConnection {
	if g.rand.Float64() >= g.cfg.MarkingChance {
		return nil
	}
	marking := g.fragments.markings[g.rand.Intn(len(g.fragments.markings))]
	return &domain.MarkingConnection{Edges: []domain.MarkingEdge{{Node: marking}}}
}

func (g *Generator) randomCreator() *domain.Creator {
	if len(g.creators) == 0 || g.rand.Intn(5) == 0 {
		return nil
	}
	c := g.creators[g.rand.Intn(len(g.creators))]
	return &c
}

func (g *Generator) randomDate() string {
	offset := time.Duration(g.rand.Intn(365*24*60)) * time.Minute
	return g.cfg.Base.Add(-offset).UTC().Format(time.RFC3339)
}

// stixID derives a STIX identifier whose UUID part comes from the seeded source.
func (g *Generator) stixID(prefix string) string {
	id, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		id = uuid.New()
	}
	return prefix + "--" + id.String()
}

func (g *Generator) pick(values []string) string {
	return values[g.rand.Intn(len(values))]
}

type nameFragments struct {
	entityTypes       []string
	relationshipTypes []string
	adjectives        []string
	nouns             []string
	techniques        []string
	organizations     []string
	markings          []domain.Marking
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		entityTypes: []string{
			"Malware", "Attack-Pattern", "Intrusion-Set", "Threat-Actor", "Indicator",
			"Vulnerability", "Campaign", "Tool", "IPv4-Addr", "Domain-Name", "Software",
		},
		relationshipTypes: []string{"uses", "targets", "indicates", "related-to", "attributed-to", "mitigates"},
		adjectives:        []string{"Silent", "Crimson", "Hidden", "Rapid", "Frozen", "Golden", "Shadow", "Iron"},
		nouns:             []string{"Bear", "Panda", "Kitten", "Spider", "Falcon", "Lotus", "Dragon", "Viper"},
		techniques: []string{
			"Spearphishing Attachment", "Credential Dumping", "Process Injection",
			"Scheduled Task", "Exfiltration Over C2 Channel", "Valid Accounts",
		},
		organizations: []string{"ACME CERT", "Northwind SOC", "Contoso Threat Intel"},
		markings: []domain.Marking{
			{ID: "marking-definition--tlp-white", Definition: "TLP:WHITE"},
			{ID: "marking-definition--tlp-green", Definition: "TLP:GREEN"},
			{ID: "marking-definition--tlp-amber", Definition: "TLP:AMBER"},
			{ID: "marking-definition--tlp-red", Definition: "TLP:RED"},
		},
	}
}
