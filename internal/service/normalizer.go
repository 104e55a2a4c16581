package service

import (
	"regexp"
	"strings"

	"github.com/champtc/cyio-graph/internal/domain"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

func normalizeContainerID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidContainer
	}
	return id, nil
}

// normalizeCriteria trims filter values and drops blanks and duplicates.
// A list left empty disables its filter.
func normalizeCriteria(criteria domain.FilterCriteria) domain.FilterCriteria {
	criteria.TypesAllow = normalizeList(criteria.TypesAllow)
	criteria.TypesExclude = normalizeList(criteria.TypesExclude)
	criteria.MarkedByAllow = normalizeList(criteria.MarkedByAllow)
	criteria.CreatedByAllow = normalizeList(criteria.CreatedByAllow)
	if criteria.TimeInterval != nil && criteria.TimeInterval.End.Before(criteria.TimeInterval.Start) {
		swapped := domain.TimeInterval{Start: criteria.TimeInterval.End, End: criteria.TimeInterval.Start}
		criteria.TimeInterval = &swapped
	}
	return criteria
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
