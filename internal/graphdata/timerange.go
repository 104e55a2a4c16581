package graphdata

import (
	"math"
	"sort"
	"time"

	"github.com/champtc/cyio-graph/internal/domain"
)

// TimeRangeBuckets is the number of histogram buckets behind the slider.
const TimeRangeBuckets = 100

const timeRangePadding = 24 * time.Hour

// ComputeTimeRangeInterval returns the slider bounds for objects: one day of
// padding around the earliest and latest dates, or the day ending now when
// no object carries a date.
func ComputeTimeRangeInterval(objects []domain.Object, now time.Time) domain.TimeInterval {
	dates := collectDates(objects, false)
	if len(dates) == 0 {
		now = now.UTC()
		endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
		return domain.TimeInterval{Start: now.Add(-timeRangePadding), End: endOfDay}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return domain.TimeInterval{
		Start: dates[0].Add(-timeRangePadding),
		End:   dates[len(dates)-1].Add(timeRangePadding),
	}
}

// ComputeTimeRangeValues counts object dates into TimeRangeBuckets buckets
// ending at interval.End. Relationship pseudo-objects are not counted. Each
// bucket covers [start, start+step] with step at least one minute.
func ComputeTimeRangeValues(interval domain.TimeInterval, objects []domain.Object) []domain.TimeRangeValue {
	dates := collectDates(objects, true)
	step := bucketStep(interval)

	values := make([]domain.TimeRangeValue, TimeRangeBuckets)
	for i := 0; i < TimeRangeBuckets; i++ {
		start := interval.End.Add(-time.Duration(TimeRangeBuckets-i) * step)
		end := start.Add(step)
		count := 0
		for _, d := range dates {
			if !d.Before(start) && !d.After(end) {
				count++
			}
		}
		values[i] = domain.TimeRangeValue{Time: start, Index: 1, Value: count}
	}
	return values
}

func bucketStep(interval domain.TimeInterval) time.Duration {
	minutes := interval.End.Sub(interval.Start).Minutes()
	stepMinutes := math.Ceil(minutes / TimeRangeBuckets)
	if stepMinutes < 1 || math.IsNaN(stepMinutes) {
		stepMinutes = 1
	}
	return time.Duration(stepMinutes) * time.Minute
}

func collectDates(objects []domain.Object, skipRelationships bool) []time.Time {
	dates := make([]time.Time, 0, len(objects))
	for _, obj := range objects {
		if skipRelationships && obj.HasParentType(domain.RelationshipParentType) {
			continue
		}
		if d, ok := DefaultDate(obj); ok {
			dates = append(dates, d)
		}
	}
	return dates
}
