package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"buildwatch/internal/models"
	"buildwatch/internal/storage"
)

// Status describes the last refresh of a pipeline.
type Status struct {
	PipelineID  string     `json:"pipeline"`
	LastAttempt *time.Time `json:"lastAttempt"`
	LastSuccess *time.Time `json:"lastSuccess"`
	LastError   string     `json:"lastError,omitempty"`
	Builds      int        `json:"builds"`
}

// Monitor periodically refreshes every configured pipeline and serves reads
// from the store, falling back to the last collection it saw for a pipeline.
type Monitor struct {
	interval    time.Duration
	concurrency int
	pipelines   []models.Pipeline
	refresher   *Refresher
	store       storage.BuildStore

	mu       sync.RWMutex
	lastGood map[string]models.BuildCollection
	statuses map[string]Status

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	doneCh    chan struct{}
}

// New creates a monitor for the given pipelines and interval.
func New(interval time.Duration, concurrency int, pipelines []models.Pipeline, refresher *Refresher, store storage.BuildStore) *Monitor {
	if interval < time.Second {
		interval = time.Second
	}
	if concurrency < 1 {
		concurrency = 1
	}

	statuses := make(map[string]Status, len(pipelines))
	for _, p := range pipelines {
		statuses[p.ID] = Status{PipelineID: p.ID}
	}

	return &Monitor{
		interval:    interval,
		concurrency: concurrency,
		pipelines:   pipelines,
		refresher:   refresher,
		store:       store,
		lastGood:    make(map[string]models.BuildCollection),
		statuses:    statuses,
	}
}

// Start launches the refresh loop in a goroutine. Calling Start on a running
// monitor does nothing.
func (m *Monitor) Start() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if m.doneCh != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.doneCh = make(chan struct{})
	go m.run(ctx, m.doneCh)
}

// Stop cancels any in-flight refresh and waits until the loop is done.
func (m *Monitor) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if m.doneCh == nil {
		return
	}
	m.cancel()
	<-m.doneCh
	m.cancel = nil
	m.doneCh = nil
}

// IsRunning reports whether the refresh loop is active.
func (m *Monitor) IsRunning() bool {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	return m.doneCh != nil
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	if err := m.RunOnce(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial refresh failed")
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.RunOnce(ctx); err != nil {
				log.Warn().Err(err).Msg("Refresh cycle failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce refreshes every pipeline once. Pipelines are independent: one failure
// does not stop the others, and all failures are returned together.
func (m *Monitor) RunOnce(ctx context.Context) error {
	logger := log.With().Str("cycle", uuid.NewString()).Logger()
	start := time.Now()

	var (
		g      errgroup.Group
		mu     sync.Mutex
		result *multierror.Error
	)
	g.SetLimit(m.concurrency)

	for _, p := range m.pipelines {
		p := p
		g.Go(func() error {
			if err := m.refreshPipeline(ctx, logger, p); err != nil {
				mu.Lock()
				result = multierror.Append(result, fmt.Errorf("%s: %w", p.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	err := result.ErrorOrNil()
	logger.Info().Int("pipelines", len(m.pipelines)).Dur("took", time.Since(start)).Bool("failed", err != nil).Msg("Refresh cycle done")
	return err
}

func (m *Monitor) refreshPipeline(ctx context.Context, logger zerolog.Logger, p models.Pipeline) error {
	start := time.Now()
	builds, err := m.refresher.Refresh(ctx, p)
	observeRefresh(p.ID, time.Since(start).Seconds(), len(builds), err)

	attempt := time.Now().UTC()
	m.mu.Lock()
	status := m.statuses[p.ID]
	status.PipelineID = p.ID
	status.LastAttempt = &attempt
	if err != nil {
		status.LastError = err.Error()
	} else {
		status.LastSuccess = &attempt
		status.LastError = ""
		status.Builds = len(builds)
		m.lastGood[p.ID] = builds
	}
	m.statuses[p.ID] = status
	m.mu.Unlock()

	if err != nil {
		logger.Error().Err(err).Str("pipeline", p.ID).Msg("Refreshing pipeline failed")
		return err
	}
	logger.Debug().Str("pipeline", p.ID).Int("builds", len(builds)).Dur("took", time.Since(start)).Msg("Refreshed pipeline")
	return nil
}

// Pipelines returns the monitored pipelines in configuration order.
func (m *Monitor) Pipelines() []models.Pipeline {
	return m.pipelines
}

// Pipeline looks up a monitored pipeline by id.
func (m *Monitor) Pipeline(id string) (models.Pipeline, bool) {
	for _, p := range m.pipelines {
		if p.ID == id {
			return p, true
		}
	}
	return models.Pipeline{}, false
}

// Status returns the refresh status of a pipeline.
func (m *Monitor) Status(id string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statuses[id]
	return s, ok
}

// Builds loads the stored builds of a pipeline. When the store fails, the last
// collection seen in this process is returned with degraded set.
func (m *Monitor) Builds(ctx context.Context, id string) (models.BuildCollection, bool, error) {
	builds, err := m.store.Load(ctx, id)
	if err == nil {
		m.mu.Lock()
		m.lastGood[id] = builds
		m.mu.Unlock()
		return builds, false, nil
	}

	m.mu.RLock()
	cached, ok := m.lastGood[id]
	m.mu.RUnlock()
	if ok {
		log.Warn().Err(err).Str("pipeline", id).Msg("Store unavailable, serving last known builds")
		return cached, true, nil
	}
	return nil, false, fmt.Errorf("load builds of %s: %w", id, err)
}
