package graphdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champtc/cyio-graph/internal/domain"
)

func TestComputeTimeRangeIntervalPadsDates(t *testing.T) {
	objects := decodeObjects(t, malwareReportPayload)
	interval := ComputeTimeRangeInterval(objects, time.Now())

	assert.Equal(t, time.Date(2021, 5, 31, 0, 0, 0, 0, time.UTC), interval.Start)
	assert.Equal(t, time.Date(2021, 6, 3, 0, 0, 0, 0, time.UTC), interval.End)
}

func TestComputeTimeRangeIntervalWithoutDates(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC)
	interval := ComputeTimeRangeInterval([]domain.Object{{ID: "a"}}, now)

	assert.Equal(t, now.Add(-24*time.Hour), interval.Start)
	assert.Equal(t, 2024, interval.End.Year())
	assert.Equal(t, time.March, interval.End.Month())
	assert.Equal(t, 10, interval.End.Day())
	assert.Equal(t, 23, interval.End.Hour())
	assert.Equal(t, 59, interval.End.Minute())
	assert.Equal(t, 59, interval.End.Second())
}

func TestComputeTimeRangeValuesBuckets(t *testing.T) {
	objects := decodeObjects(t, malwareReportPayload)
	interval := ComputeTimeRangeInterval(objects, time.Now())

	values := ComputeTimeRangeValues(interval, objects)
	require.Len(t, values, TimeRangeBuckets)

	total := 0
	for i, v := range values {
		assert.Equal(t, 1, v.Index)
		if i > 0 {
			assert.True(t, v.Time.After(values[i-1].Time), "buckets ascend")
		}
		total += v.Value
	}
	assert.GreaterOrEqual(t, total, 2)

	// 72h over 100 buckets rounds up to 44 minute steps ending at interval.End.
	step := 44 * time.Minute
	assert.Equal(t, interval.End.Add(-100*step), values[0].Time)
	assert.Equal(t, interval.End.Add(-step), values[TimeRangeBuckets-1].Time)
}

func TestComputeTimeRangeValuesSkipsRelationships(t *testing.T) {
	d := "2021-06-01T00:00:00Z"
	objects := []domain.Object{
		{ID: "a", Created: d},
		{ID: "r", Created: d, ParentTypes: []string{domain.RelationshipParentType, "stix-core-relationship"}},
	}
	interval := domain.TimeInterval{
		Start: time.Date(2021, 5, 31, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2021, 6, 2, 0, 0, 0, 0, time.UTC),
	}

	total := 0
	for _, v := range ComputeTimeRangeValues(interval, objects) {
		total += v.Value
	}
	assert.Equal(t, 1, total)
}

func TestComputeTimeRangeValuesDegenerateInterval(t *testing.T) {
	at := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	objects := []domain.Object{{ID: "a", Created: at.Format(time.RFC3339)}}

	values := ComputeTimeRangeValues(domain.TimeInterval{Start: at, End: at}, objects)
	require.Len(t, values, TimeRangeBuckets)
	assert.Equal(t, at.Add(-time.Minute), values[TimeRangeBuckets-1].Time)
	assert.Equal(t, 1, values[TimeRangeBuckets-1].Value)
}
