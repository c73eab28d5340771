package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"buildwatch/internal/models"
)

const buildsFileSuffix = ".builds.json"

// FileStore keeps one JSON file of builds per pipeline.
type FileStore struct {
	dir   string
	locks *KeyedMutex
}

// NewFileStore creates a file store rooted at dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}
	return &FileStore{dir: dir, locks: NewKeyedMutex()}, nil
}

// Load returns the stored builds of a pipeline ordered by number, or an empty
// collection when none were stored. An empty file is reported as ErrCorruptBuilds.
func (s *FileStore) Load(_ context.Context, pipelineID string) (models.BuildCollection, error) {
	if err := ValidatePipelineID(pipelineID); err != nil {
		return nil, err
	}
	s.locks.RLock(pipelineID)
	defer s.locks.RUnlock(pipelineID)

	data, err := os.ReadFile(s.path(pipelineID))
	if err != nil {
		if os.IsNotExist(err) {
			return models.BuildCollection{}, nil
		}
		return nil, fmt.Errorf("read builds of %s: %w", pipelineID, err)
	}
	// ReplaceAll always writes at least "[]", so an empty file is a torn write.
	if len(data) == 0 {
		return nil, fmt.Errorf("parse builds of %s: %w", pipelineID, ErrCorruptBuilds)
	}

	var builds models.BuildCollection
	if err := json.Unmarshal(data, &builds); err != nil {
		return nil, fmt.Errorf("parse builds of %s: %w", pipelineID, err)
	}
	return builds.Sorted(), nil
}

// ReplaceAll overwrites the stored builds of a pipeline. The new file is written
// next to the old one and renamed over it.
func (s *FileStore) ReplaceAll(_ context.Context, pipelineID string, builds models.BuildCollection) error {
	if err := ValidatePipelineID(pipelineID); err != nil {
		return err
	}
	if builds == nil {
		builds = models.BuildCollection{}
	}
	bytes, err := json.MarshalIndent(builds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode builds of %s: %w", pipelineID, err)
	}

	s.locks.Lock(pipelineID)
	defer s.locks.Unlock(pipelineID)

	target := s.path(pipelineID)
	tmpPath := fmt.Sprintf("%s.%d.tmp", target, time.Now().UnixNano())
	if err := writeSynced(tmpPath, bytes); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp builds of %s: %w", pipelineID, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace builds file of %s: %w", pipelineID, err)
	}
	return nil
}

func (s *FileStore) path(pipelineID string) string {
	return filepath.Join(s.dir, pipelineID+buildsFileSuffix)
}

// writeSynced writes data and flushes it to disk before returning.
func writeSynced(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
