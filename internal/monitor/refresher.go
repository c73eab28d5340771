package monitor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"buildwatch/internal/cache"
	"buildwatch/internal/history"
	"buildwatch/internal/models"
	"buildwatch/internal/storage"
)

// BuildSource supplies build listings and build details from a CI server.
type BuildSource interface {
	ListBuilds(ctx context.Context, pipelineURL string) ([]models.BuildRef, error)
	BuildDetail(ctx context.Context, buildURL string) (models.Build, error)
}

// Refresher reconciles a pipeline's stored builds with what the CI server reports.
type Refresher struct {
	source BuildSource
	store  storage.BuildStore
	cache  cache.DetailCache
}

// NewRefresher wires a refresher. detailCache may be nil to always fetch details.
func NewRefresher(source BuildSource, store storage.BuildStore, detailCache cache.DetailCache) *Refresher {
	return &Refresher{source: source, store: store, cache: detailCache}
}

// Refresh fetches every listed build, merges them into the stored collection and
// replaces the stored collection with the result. Nothing is written unless every
// fetch succeeded.
func (r *Refresher) Refresh(ctx context.Context, p models.Pipeline) (models.BuildCollection, error) {
	refs, err := r.source.ListBuilds(ctx, p.URL)
	if err != nil {
		return nil, err
	}

	stored, err := r.store.Load(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load stored builds: %w", err)
	}

	fetched := make([]models.Build, 0, len(refs))
	for _, ref := range refs {
		b, err := r.detail(ctx, ref)
		if err != nil {
			return nil, err
		}
		fetched = append(fetched, b)
	}

	merged := history.Merge(stored, fetched)
	if err := r.store.ReplaceAll(ctx, p.ID, merged); err != nil {
		return nil, fmt.Errorf("store builds: %w", err)
	}
	log.Debug().Str("pipeline", p.ID).Int("stored", len(stored)).Int("fetched", len(fetched)).Int("merged", len(merged)).Msg("Merged builds")
	return merged, nil
}

func (r *Refresher) detail(ctx context.Context, ref models.BuildRef) (models.Build, error) {
	if r.cache != nil {
		b, ok, err := r.cache.Get(ctx, ref.URL)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("url", ref.URL).Msg("Reading build detail cache failed")
		case ok:
			return b, nil
		}
	}

	b, err := r.source.BuildDetail(ctx, ref.URL)
	if err != nil {
		return models.Build{}, err
	}
	if b.Number == 0 {
		b.Number = ref.Number
	}

	if r.cache != nil && !b.Building {
		if _, err := r.cache.SetIfAbsent(ctx, ref.URL, b); err != nil {
			log.Warn().Err(err).Str("url", ref.URL).Msg("Writing build detail cache failed")
		}
	}
	return b, nil
}
