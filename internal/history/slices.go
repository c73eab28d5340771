package history

import (
	"errors"
	"time"

	"buildwatch/internal/models"
)

// SentinelOffset is added to the highest build number to number the synthetic
// build that closes the last slice at the current time.
const SentinelOffset = 10000

// ErrNoBuilds is returned when slices are requested for an empty collection.
var ErrNoBuilds = errors.New("no builds to derive slices from")

// DeriveSlices converts builds into contiguous slices of pipeline health ending at now.
//
// A build whose result is neither SUCCESS nor FAILURE keeps the health of the build
// before it. The first build has nothing to inherit from, so its raw result is used
// even when it is still running or aborted.
func DeriveSlices(builds models.BuildCollection, now time.Time) ([]models.Slice, error) {
	if len(builds) == 0 {
		return nil, ErrNoBuilds
	}

	ordered := builds.Sorted()
	last := ordered[len(ordered)-1]
	ordered = append(ordered, models.Build{
		Number:    last.Number + SentinelOffset,
		Timestamp: now.UnixMilli(),
	})

	slices := make([]models.Slice, 0, len(ordered)-1)
	var previous models.Result
	for i := 0; i < len(ordered)-1; i++ {
		effective := ordered[i].Result
		if i > 0 && !effective.IsHealth() {
			effective = previous
		}
		previous = effective
		slices = append(slices, newSlice(ordered[i].Timestamp, ordered[i+1].Timestamp, effective))
	}
	return slices, nil
}

func newSlice(startMs, endMs int64, result models.Result) models.Slice {
	start := startMs / 1000
	end := endMs / 1000
	return models.Slice{
		Start:    start,
		End:      end,
		Duration: end - start,
		Result:   result,
	}
}
