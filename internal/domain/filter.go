package domain

import "time"

// FilterCriteria is the active filter state owned by the caller. Empty slices
// disable the corresponding filter; a nil TimeInterval disables time filtering.
type FilterCriteria struct {
	TypesAllow     []string      `json:"types,omitempty"`
	TypesExclude   []string      `json:"exclude,omitempty"`
	MarkedByAllow  []string      `json:"markedBy,omitempty"`
	CreatedByAllow []string      `json:"createdBy,omitempty"`
	TimeInterval   *TimeInterval `json:"timeInterval,omitempty"`
}

// TimeInterval is a closed [Start, End] range.
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the interval, bounds included.
func (i TimeInterval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// TimeRangeValue is one histogram bucket of the time-range slider.
type TimeRangeValue struct {
	Time  time.Time `json:"time"`
	Index int       `json:"index"`
	Value int       `json:"value"`
}

// CorrelationFilters bundles the filters applied before expanding report
// co-occurrence links.
type CorrelationFilters struct {
	StixCoreObjectsTypes      []string      `json:"stixCoreObjectsTypes,omitempty"`
	MarkedBy                  []string      `json:"markedBy,omitempty"`
	CreatedBy                 []string      `json:"createdBy,omitempty"`
	SelectedTimeRangeInterval *TimeInterval `json:"selectedTimeRangeInterval,omitempty"`
}
