package generator

import "time"

// Config drives the synthetic data generator.
type Config struct {
	NumObjects        int
	NumRelationships  int
	NumReports        int
	ReportShareChance float64
	MarkingChance     float64
	Seed              int64
	// Base is the newest possible object date; dates spread over the year before it.
	Base time.Time
}

// DefaultConfig returns baseline settings for a mid-sized investigation.
func DefaultConfig() Config {
	return Config{
		NumObjects:        200,
		NumRelationships:  300,
		NumReports:        10,
		ReportShareChance: 0.4,
		MarkingChance:     0.5,
		Seed:              42,
		Base:              time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
