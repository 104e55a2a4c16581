package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtc/cyio-graph/internal/domain"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Q1 threat report", sanitizeString("  Q1\tthreat \n report "))
	assert.Equal(t, "", sanitizeString(" \t "))
}

func TestNormalizeContainerID(t *testing.T) {
	id, err := normalizeContainerID("  report--1 ")
	require.NoError(t, err)
	assert.Equal(t, "report--1", id)

	_, err = normalizeContainerID("   ")
	assert.ErrorIs(t, err, ErrInvalidContainer)
}

func TestNormalizeCriteria(t *testing.T) {
	start := time.Date(2021, 6, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

	got := normalizeCriteria(domain.FilterCriteria{
		TypesAllow:    []string{" Malware", "Malware", "", "Report "},
		TypesExclude:  []string{" "},
		MarkedByAllow: []string{"tlp-green"},
		TimeInterval:  &domain.TimeInterval{Start: start, End: end},
	})

	assert.Equal(t, []string{"Malware", "Report"}, got.TypesAllow)
	assert.Nil(t, got.TypesExclude)
	assert.Equal(t, []string{"tlp-green"}, got.MarkedByAllow)
	assert.Nil(t, got.CreatedByAllow)
	require.NotNil(t, got.TimeInterval)
	assert.Equal(t, end, got.TimeInterval.Start)
	assert.Equal(t, start, got.TimeInterval.End)
}
