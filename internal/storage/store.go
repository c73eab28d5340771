package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"buildwatch/internal/models"
)

// ErrInvalidPipelineID is returned for pipeline IDs that cannot be used as storage keys.
var ErrInvalidPipelineID = errors.New("invalid pipeline id")

// ErrCorruptBuilds is returned when stored builds exist but cannot be read back whole.
var ErrCorruptBuilds = errors.New("stored builds are corrupt")

var pipelineIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// BuildStore persists the builds of each pipeline. The unit of mutation is the whole
// collection of a pipeline: ReplaceAll swaps it atomically, so readers observe either
// the old or the new collection. Load returns builds ordered by number.
type BuildStore interface {
	Load(ctx context.Context, pipelineID string) (models.BuildCollection, error)
	ReplaceAll(ctx context.Context, pipelineID string, builds models.BuildCollection) error
}

// ValidatePipelineID checks that id is usable as a file name and key segment.
func ValidatePipelineID(id string) error {
	if !pipelineIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidPipelineID, id)
	}
	return nil
}
