package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildwatch/internal/models"
)

func strPtr(s string) *string { return &s }

func sampleBuilds() models.BuildCollection {
	return models.BuildCollection{
		{
			Number:      11,
			URL:         "https://ci.example.com/job/churro/11/",
			Timestamp:   1473261133000,
			Duration:    1860000,
			Result:      models.ResultFailure,
			Description: strPtr("nightly"),
			SubBuilds: []models.Build{
				{JobName: "job1", Result: models.ResultFailure},
				{JobName: "stage", Result: models.ResultSuccess, Nested: &models.Build{
					SubBuilds: []models.Build{{JobName: "job2", Result: models.ResultSuccess}},
				}},
			},
		},
		{Number: 12, Timestamp: 1473262993000, Duration: 2195000, Result: models.ResultSuccess},
		{Number: 13, Timestamp: 1473265188000, Building: true},
	}
}

func TestFileStore(t *testing.T) {

	ctx := context.Background()

	t.Run("LoadReturnsEmptyCollectionForUnknownPipeline", func(t *testing.T) {

		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)

		// act
		builds, err := store.Load(ctx, "churro")

		assert.NoError(t, err)
		assert.Empty(t, builds)
	})

	t.Run("RoundTripsAllFieldsInOrder", func(t *testing.T) {

		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		want := sampleBuilds()
		require.NoError(t, store.ReplaceAll(ctx, "churro", want))

		// act
		got, err := store.Load(ctx, "churro")

		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("ReplaceAllOverwritesWholeCollection", func(t *testing.T) {

		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, store.ReplaceAll(ctx, "churro", sampleBuilds()))

		// act
		err = store.ReplaceAll(ctx, "churro", models.BuildCollection{{Number: 99, Result: models.ResultSuccess}})

		require.NoError(t, err)
		got, err := store.Load(ctx, "churro")
		require.NoError(t, err)
		assert.Equal(t, []int{99}, got.Numbers())
	})

	t.Run("KeepsPipelinesSeparate", func(t *testing.T) {

		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, store.ReplaceAll(ctx, "churro", sampleBuilds()))

		// act
		other, err := store.Load(ctx, "flan")

		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("LeavesNoTempFilesBehind", func(t *testing.T) {

		dir := t.TempDir()
		store, err := NewFileStore(dir)
		require.NoError(t, err)

		// act
		require.NoError(t, store.ReplaceAll(ctx, "churro", sampleBuilds()))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Equal(t, 1, len(entries))
		assert.Equal(t, "churro.builds.json", entries[0].Name())
	})

	t.Run("ReturnsErrorForCorruptFile", func(t *testing.T) {

		dir := t.TempDir()
		store, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "churro.builds.json"), []byte("{not json"), 0o644))

		// act
		_, err = store.Load(ctx, "churro")

		assert.Error(t, err)
	})

	t.Run("ReportsTruncatedFileAsCorrupt", func(t *testing.T) {

		dir := t.TempDir()
		store, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.ReplaceAll(ctx, "churro", sampleBuilds()))
		require.NoError(t, os.Truncate(filepath.Join(dir, "churro.builds.json"), 0))

		// act
		builds, err := store.Load(ctx, "churro")

		assert.ErrorIs(t, err, ErrCorruptBuilds)
		assert.Nil(t, builds)
	})

	t.Run("EmptyCollectionIsNotAnEmptyFile", func(t *testing.T) {

		dir := t.TempDir()
		store, err := NewFileStore(dir)
		require.NoError(t, err)

		// act
		require.NoError(t, store.ReplaceAll(ctx, "churro", nil))

		data, err := os.ReadFile(filepath.Join(dir, "churro.builds.json"))
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
		builds, err := store.Load(ctx, "churro")
		require.NoError(t, err)
		assert.Empty(t, builds)
	})

	t.Run("LoadOrdersBuildsByNumber", func(t *testing.T) {

		dir := t.TempDir()
		store, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "churro.builds.json"),
			[]byte(`[{"number":13,"timestamp":3},{"number":11,"timestamp":1},{"number":12,"timestamp":2}]`), 0o644))

		// act
		builds, err := store.Load(ctx, "churro")

		require.NoError(t, err)
		assert.Equal(t, []int{11, 12, 13}, builds.Numbers())
		found, ok := builds.Get(12)
		require.True(t, ok)
		assert.Equal(t, int64(2), found.Timestamp)
	})

	t.Run("RejectsUnsafePipelineID", func(t *testing.T) {

		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)

		// act
		err = store.ReplaceAll(ctx, "../escape", sampleBuilds())

		assert.ErrorIs(t, err, ErrInvalidPipelineID)
	})

	t.Run("ReadersSeeWholeCollectionsDuringReplace", func(t *testing.T) {

		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		small := models.BuildCollection{{Number: 1}}
		large := sampleBuilds()
		require.NoError(t, store.ReplaceAll(ctx, "churro", small))

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				next := small
				if i%2 == 0 {
					next = large
				}
				_ = store.ReplaceAll(ctx, "churro", next)
			}
		}()

		// act
		for i := 0; i < 50; i++ {
			got, err := store.Load(ctx, "churro")
			require.NoError(t, err)
			assert.Contains(t, []int{len(small), len(large)}, len(got))
		}
		wg.Wait()
	})
}
