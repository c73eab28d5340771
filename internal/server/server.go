package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"buildwatch/internal/export"
	"buildwatch/internal/metrics"
	"buildwatch/internal/models"
	"buildwatch/internal/monitor"
)

// ErrUnknownPipeline is returned for pipelines that are not configured.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// BuildReader is the read side of the monitor.
type BuildReader interface {
	Pipelines() []models.Pipeline
	Pipeline(id string) (models.Pipeline, bool)
	Status(id string) (monitor.Status, bool)
	Builds(ctx context.Context, id string) (models.BuildCollection, bool, error)
}

// Server wraps HTTP serving of the build history API.
type Server struct {
	httpServer   *http.Server
	reader       BuildReader
	gatherer     prometheus.Gatherer
	location     *time.Location
	now          func() time.Time
	historyLimit int
}

// Option customizes a Server.
type Option func(*Server)

// WithLocation sets the time zone used for day boundaries and formatted times.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.location = loc }
}

// WithClock overrides the clock used to close the newest slice.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a configured HTTP server. gatherer backs /metrics and may be nil.
func New(addr string, reader BuildReader, gatherer prometheus.Gatherer, opts ...Option) *Server {
	s := &Server{
		reader:       reader,
		gatherer:     gatherer,
		location:     time.Local,
		now:          time.Now,
		historyLimit: 200,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(instrument)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pipelines", s.handleLights).Methods(http.MethodGet)
	api.HandleFunc("/pipelines/{pipeline}", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/pipelines/{pipeline}/builds", s.handleBuilds).Methods(http.MethodGet)
	api.HandleFunc("/pipelines/{pipeline}/builds/{number:[0-9]+}", s.handleBuild).Methods(http.MethodGet)
	api.HandleFunc("/pipelines/{pipeline}/csv", s.handleCSV).Methods(http.MethodGet)
	return r
}

type pipelineLight struct {
	metrics.BuildLight
	Status   monitor.Status `json:"status"`
	Degraded bool           `json:"degraded,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func (s *Server) handleLights(w http.ResponseWriter, r *http.Request) {
	pipelines := s.reader.Pipelines()
	lights := make([]metrics.BuildLight, 0, len(pipelines))
	extras := make(map[string]pipelineLight, len(pipelines))

	for _, p := range pipelines {
		entry := pipelineLight{}
		builds, degraded, err := s.reader.Builds(r.Context(), p.ID)
		if err != nil {
			entry.Error = err.Error()
		}
		entry.Degraded = degraded
		entry.Status, _ = s.reader.Status(p.ID)
		extras[p.ID] = entry
		lights = append(lights, metrics.Light(p, builds))
	}
	metrics.SortLights(lights)

	resp := make([]pipelineLight, 0, len(lights))
	for _, light := range lights {
		entry := extras[light.ID]
		entry.BuildLight = light
		resp = append(resp, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, builds, degraded, ok := s.load(w, r)
	if !ok {
		return
	}
	dashboard, err := metrics.BuildDashboard(p, builds, s.now(), s.location)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	dashboard.Degraded = degraded
	writeJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	_, builds, _, ok := s.load(w, r)
	if !ok {
		return
	}
	limit := parseLimit(r, s.historyLimit)
	writeJSON(w, http.StatusOK, builds.Last(limit))
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(mux.Vars(r)["number"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	_, builds, _, ok := s.load(w, r)
	if !ok {
		return
	}
	build, found := builds.Get(number)
	if !found {
		writeError(w, http.StatusNotFound, errors.New("unknown build"))
		return
	}
	writeJSON(w, http.StatusOK, build)
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	p, builds, _, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(p.ID)+`"`)
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, builds, s.location); err != nil {
		log.Error().Err(err).Str("pipeline", p.ID).Msg("Writing csv export failed")
	}
}

// load resolves the pipeline of the request and its builds, writing the error
// response itself when either is unavailable.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (models.Pipeline, models.BuildCollection, bool, bool) {
	id := mux.Vars(r)["pipeline"]
	p, found := s.reader.Pipeline(id)
	if !found {
		writeError(w, http.StatusNotFound, ErrUnknownPipeline)
		return models.Pipeline{}, nil, false, false
	}
	builds, degraded, err := s.reader.Builds(r.Context(), id)
	if err != nil {
		log.Warn().Err(err).Str("pipeline", id).Msg("Builds unavailable")
		writeError(w, http.StatusServiceUnavailable, err)
		return models.Pipeline{}, nil, false, false
	}
	return p, builds, degraded, true
}

func parseLimit(r *http.Request, fallback int) int {
	if fallback <= 0 {
		return fallback
	}
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > fallback {
		return fallback
	}
	return value
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
