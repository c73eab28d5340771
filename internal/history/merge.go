package history

import (
	"sort"

	"buildwatch/internal/models"
)

// Merge combines stored builds with freshly fetched ones. A fetched build replaces
// the stored build with the same number; stored builds upstream no longer lists are
// kept. The result is ordered by ascending build number.
func Merge(stored models.BuildCollection, fetched []models.Build) models.BuildCollection {
	byNumber := make(map[int]models.Build, len(stored)+len(fetched))
	for _, b := range stored {
		byNumber[b.Number] = b
	}
	for _, b := range fetched {
		byNumber[b.Number] = b
	}

	merged := make(models.BuildCollection, 0, len(byNumber))
	for _, b := range byNumber {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Number < merged[j].Number
	})
	return merged
}
