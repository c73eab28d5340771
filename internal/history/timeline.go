package history

import (
	"sort"
	"time"

	"buildwatch/internal/models"
)

const (
	// DefaultTimelinePoints controls how many dots we generate per pipeline.
	DefaultTimelinePoints = 80
	maxDetailsPerPoint    = 4
)

// BuildTimeline reduces health slices into points of equal width between start and end.
// Each point carries the green and red seconds overlapping it.
func BuildTimeline(slices []models.Slice, start, end time.Time, points int) []models.TimelinePoint {
	if points <= 0 {
		points = DefaultTimelinePoints
	}
	if !end.After(start) {
		end = start.Add(time.Minute)
	}

	sorted := make([]models.Slice, len(slices))
	copy(sorted, slices)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	bucketDuration := end.Sub(start) / time.Duration(points)
	if bucketDuration <= 0 {
		bucketDuration = time.Minute
	}

	output := make([]models.TimelinePoint, 0, points)
	cursor := 0
	for i := 0; i < points; i++ {
		bucketStart := start.Add(time.Duration(i) * bucketDuration)
		bucketEnd := bucketStart.Add(bucketDuration)
		if i == points-1 {
			bucketEnd = end
		}
		var overlapping []models.Slice
		overlapping, cursor = collectBucketSlices(sorted, bucketStart.Unix(), bucketEnd.Unix(), cursor)
		output = append(output, evaluateBucket(overlapping, bucketStart, bucketEnd))
	}
	return output
}

// collectBucketSlices returns the slices overlapping [start, end). The returned cursor
// skips only slices that end before start, since one slice may span several buckets.
func collectBucketSlices(slices []models.Slice, start, end int64, cursor int) ([]models.Slice, int) {
	for cursor < len(slices) && slices[cursor].End <= start {
		cursor++
	}
	j := cursor
	for j < len(slices) && slices[j].Start < end {
		j++
	}
	return slices[cursor:j], cursor
}

func evaluateBucket(slices []models.Slice, start, end time.Time) models.TimelinePoint {
	point := models.TimelinePoint{Start: start, End: end}
	lo, hi := start.Unix(), end.Unix()

	for _, s := range slices {
		overlap := min(s.End, hi) - max(s.Start, lo)
		if overlap <= 0 {
			continue
		}
		switch s.Result {
		case models.ResultSuccess:
			point.GreenSeconds += overlap
		case models.ResultFailure:
			point.RedSeconds += overlap
			if s.Start >= lo && len(point.Details) < maxDetailsPerPoint {
				point.Details = append(point.Details, models.TimelineDetail{
					Timestamp: time.Unix(s.Start, 0).UTC(),
					Result:    s.Result,
				})
			}
		}
	}

	switch {
	case point.RedSeconds > 0 && point.GreenSeconds > 0:
		point.ClassName, point.Label = "state-warning", "Unstable"
	case point.RedSeconds > 0:
		point.ClassName, point.Label = "state-error", "Failing"
	case point.GreenSeconds > 0:
		point.ClassName, point.Label = "state-success", "Passing"
	default:
		point.ClassName, point.Label = "state-missing", "No data"
	}
	return point
}
