package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildwatch/internal/history"
	"buildwatch/internal/models"
)

func TestBuildDashboard(t *testing.T) {

	pipeline := models.Pipeline{ID: "churro", Name: "Churro"}
	now := time.Date(2016, 9, 7, 18, 0, 0, 0, time.UTC)

	t.Run("AggregatesBuildHistory", func(t *testing.T) {

		builds := models.BuildCollection{
			{Number: 1, Timestamp: 1473261133000, Duration: 60000, Result: models.ResultFailure},
			{Number: 2, Timestamp: 1473262993000, Duration: 120000, Result: models.ResultSuccess},
		}

		// act
		d, err := BuildDashboard(pipeline, builds, now, time.UTC)

		require.NoError(t, err)
		require.NotNil(t, d.TimeData)
		assert.Equal(t, 2, len(d.TimeData.Slices))
		assert.Equal(t, int64(1860), d.TimeData.Red.TotalSeconds)
		assert.Equal(t, "Wednesday, 07 Sep 2016, at 15:12:13", d.Earliest)
		assert.Equal(t, WeekDays, len(d.Week))
		assert.Equal(t, []FailureCount{{Count: 1, Job: "Churro"}}, d.TopFailures)
		assert.Equal(t, BuildPercentages{Passing: 50, Failing: 50}, d.Percentages)
		assert.Equal(t, 2, d.TotalBuilds)
		assert.Equal(t, models.ResultSuccess, d.Light.Current)
		require.Len(t, d.Timeline, history.DefaultTimelinePoints)
		assert.Equal(t, "state-success", d.Timeline[len(d.Timeline)-1].ClassName)
		assert.Equal(t, time.Date(2016, 9, 1, 0, 0, 0, 0, time.UTC), d.Timeline[0].Start)
	})

	t.Run("OmitsTimeDataForEmptyPipeline", func(t *testing.T) {

		// act
		d, err := BuildDashboard(pipeline, nil, now, time.UTC)

		require.NoError(t, err)
		assert.Nil(t, d.TimeData)
		assert.Equal(t, "", d.Earliest)
		assert.Equal(t, WeekDays, len(d.Week))
	})

	t.Run("ListsOnlyNewestBuilds", func(t *testing.T) {

		var builds models.BuildCollection
		for i := 1; i <= 30; i++ {
			builds = append(builds, models.Build{Number: i, Timestamp: int64(i) * 1000, Result: models.ResultSuccess})
		}

		// act
		d, err := BuildDashboard(pipeline, builds, now, time.UTC)

		require.NoError(t, err)
		assert.Equal(t, DashboardBuilds, len(d.LatestBuilds))
		assert.Equal(t, 11, d.LatestBuilds[0].Number)
		assert.Equal(t, DashboardBuilds, len(d.BuildTimes))
	})
}
