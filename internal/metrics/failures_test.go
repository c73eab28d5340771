package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"buildwatch/internal/models"
)

func TestTopFailingJobs(t *testing.T) {

	t.Run("AttributesFailureToFailingSubBuild", func(t *testing.T) {

		builds := models.BuildCollection{
			{
				Number: 1,
				Result: models.ResultFailure,
				SubBuilds: []models.Build{
					{Result: models.ResultFailure, JobName: "job1", SubBuilds: nil},
					{Result: models.ResultSuccess, JobName: "job2"},
				},
			},
		}

		// act
		failures := TopFailingJobs(builds, "churro")

		assert.Equal(t, []FailureCount{{Count: 1, Job: "job1"}}, failures)
	})

	t.Run("AttributesFailureWithoutSubBuildsToPipeline", func(t *testing.T) {

		builds := models.BuildCollection{
			{Number: 1, Result: models.ResultFailure},
			{Number: 2, Result: models.ResultSuccess},
		}

		// act
		failures := TopFailingJobs(builds, "churro")

		assert.Equal(t, []FailureCount{{Count: 1, Job: "churro"}}, failures)
	})

	t.Run("WalksNestedBuildWrappers", func(t *testing.T) {

		builds := models.BuildCollection{
			{
				Number: 1,
				Result: models.ResultFailure,
				SubBuilds: []models.Build{
					{
						JobName: "stage",
						Result:  models.ResultFailure,
						Nested: &models.Build{
							SubBuilds: []models.Build{
								{JobName: "job3", Result: models.ResultFailure},
								{JobName: "job4", Result: models.ResultSuccess},
							},
						},
					},
				},
			},
		}

		// act
		failures := TopFailingJobs(builds, "churro")

		assert.Equal(t, []FailureCount{{Count: 1, Job: "job3"}}, failures)
	})

	t.Run("SortsByCountThenNameDescending", func(t *testing.T) {

		failing := func(jobs ...string) models.Build {
			b := models.Build{Result: models.ResultFailure}
			for _, j := range jobs {
				b.SubBuilds = append(b.SubBuilds, models.Build{JobName: j, Result: models.ResultFailure})
			}
			return b
		}
		builds := models.BuildCollection{
			failing("job1", "job3"),
			failing("job2"),
			failing("job2"),
		}

		// act
		failures := TopFailingJobs(builds, "churro")

		assert.Equal(t, []FailureCount{
			{Count: 2, Job: "job2"},
			{Count: 1, Job: "job3"},
			{Count: 1, Job: "job1"},
		}, failures)
	})

	t.Run("SkipsLeafFailuresWithoutJobName", func(t *testing.T) {

		builds := models.BuildCollection{
			{
				Result: models.ResultFailure,
				SubBuilds: []models.Build{
					{Result: models.ResultFailure},
					{Result: models.ResultFailure, JobName: "job1"},
				},
			},
		}

		// act
		failures := TopFailingJobs(builds, "churro")

		assert.Equal(t, []FailureCount{{Count: 1, Job: "job1"}}, failures)
	})

	t.Run("ReturnsEmptyListWithoutFailures", func(t *testing.T) {

		// act
		failures := TopFailingJobs(models.BuildCollection{{Result: models.ResultSuccess}}, "churro")

		assert.Empty(t, failures)
	})
}

func TestFailureTally(t *testing.T) {

	t.Run("AccumulatesIntoExistingMap", func(t *testing.T) {

		acc := map[string]int{"job3": 2}
		build := models.Build{
			Result: models.ResultFailure,
			SubBuilds: []models.Build{
				{JobName: "job3", Result: models.ResultFailure},
			},
		}

		// act
		FailureTally(build, acc)

		assert.Equal(t, 3, acc["job3"])
	})

	t.Run("IgnoresSuccessfulAggregate", func(t *testing.T) {

		build := models.Build{
			Result: models.ResultSuccess,
			SubBuilds: []models.Build{
				{JobName: "job3", Result: models.ResultFailure},
			},
		}

		// act
		acc := FailureTally(build, nil)

		assert.Empty(t, acc)
	})
}
