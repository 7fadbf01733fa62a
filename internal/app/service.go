// Package service provides the core business service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/courtsight/courtsight/internal/adapters/mq/queue"
	workerpool "github.com/courtsight/courtsight/internal/adapters/mq/worker"
	"github.com/courtsight/courtsight/internal/adapters/repository"
	"github.com/courtsight/courtsight/internal/domain/dedupe"
	"github.com/courtsight/courtsight/internal/domain/fusion"
	"github.com/courtsight/courtsight/internal/domain/highlight"
	"github.com/courtsight/courtsight/internal/domain/identity"
	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/pkg/logger"
	"github.com/courtsight/courtsight/pkg/metrics"
)

// Analysis lifecycle states.
const (
	StateQueued  = "queued"
	StateRunning = "running"
	StateDone    = "done"
	StateFailed  = "failed"
)

// Status describes where an analysis is in its lifecycle.
type Status struct {
	AnalysisID string `json:"analysis_id"`
	State      string `json:"state"`
	EventCount int    `json:"event_count"`
	Error      string `json:"error,omitempty"`
}

// HighlightQuery narrows and shapes a highlight listing.
type HighlightQuery struct {
	Merge     bool
	Top       int
	TeamID    string
	PlayerID  string
	EventType string
}

// Service wires the fusion pipeline together and tracks analysis lifecycles.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	registry    dedupe.Registry
	jobs        jobqueue.Queue
	pool        *workerpool.Pool
	synthesizer *highlight.Synthesizer

	// Configuration
	workerCount   int
	queueSize     int
	registrySize  int
	shotWindow    float64
	trackMaxAge   float64
	reidWindow    float64
	preBuffer     float64
	postBuffer    float64
	minClip       float64
	mergeGap      float64
	maxTopClips   int
	enrichTimeout time.Duration
	fusionTimeout time.Duration
	frames        FrameSource
	reader        identity.DigitReader

	// State
	states  map[string]*Status
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRegistrySize bounds the submission idempotency registry.
func WithRegistrySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.registrySize = size
		}
	}
}

// WithShotWindow sets the minimum spacing between shot attempts in seconds.
func WithShotWindow(seconds float64) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.shotWindow = seconds
		}
	}
}

// WithTrackAges sets the identity track max age and re-identification window.
func WithTrackAges(maxAge, reidWindow float64) Option {
	return func(s *Service) {
		if maxAge > 0 {
			s.trackMaxAge = maxAge
		}
		if reidWindow > 0 {
			s.reidWindow = reidWindow
		}
	}
}

// WithClipSettings overrides the highlight clip construction parameters.
func WithClipSettings(pre, post, minDuration, mergeGap float64) Option {
	return func(s *Service) {
		if pre >= 0 && post >= 0 {
			s.preBuffer = pre
			s.postBuffer = post
		}
		if minDuration > 0 {
			s.minClip = minDuration
		}
		if mergeGap >= 0 {
			s.mergeGap = mergeGap
		}
	}
}

// WithMaxTopClips caps the top-N highlight query.
func WithMaxTopClips(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTopClips = n
		}
	}
}

// WithStageTimeouts overrides the enrichment and fusion stage deadlines.
func WithStageTimeouts(enrich, fusion time.Duration) Option {
	return func(s *Service) {
		if enrich > 0 {
			s.enrichTimeout = enrich
		}
		if fusion > 0 {
			s.fusionTimeout = fusion
		}
	}
}

// WithFrameSource supplies decoded frames for pixel-dependent enrichment.
func WithFrameSource(frames FrameSource) Option {
	return func(s *Service) {
		s.frames = frames
	}
}

// WithDigitReader injects a jersey OCR implementation.
func WithDigitReader(reader identity.DigitReader) Option {
	return func(s *Service) {
		s.reader = reader
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   1,
		queueSize:     64,
		registrySize:  100_000,
		shotWindow:    1.0,
		trackMaxAge:   10.0,
		reidWindow:    5.0,
		preBuffer:     3.0,
		postBuffer:    2.0,
		minClip:       10.0,
		mergeGap:      1.0,
		maxTopClips:   50,
		enrichTimeout: 30 * time.Second,
		fusionTimeout: 20 * time.Second,
		states:        make(map[string]*Status),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting analysis service...")

	s.store = repository.NewTimelineStore()
	s.registry = dedupe.NewRegistry(dedupe.WithMaxSize(s.registrySize))
	s.jobs = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.synthesizer = highlight.NewSynthesizer(
		highlight.WithBuffers(s.preBuffer, s.postBuffer),
		highlight.WithMinDuration(s.minClip),
		highlight.WithMergeGap(s.mergeGap),
	)

	engine := fusion.NewEngine(fusion.WithShotWindow(s.shotWindow))
	enrich := &enricher{
		frames:     s.frames,
		reader:     s.reader,
		maxAge:     s.trackMaxAge,
		reidWindow: s.reidWindow,
		log:        s.logger.Named("enricher"),
	}

	s.pool = workerpool.NewPool(s.workerCount, s.jobs, enrich, engine, s.synthesizer, s.store,
		workerpool.WithReporter(s),
		workerpool.WithStageTimeouts(s.enrichTimeout, s.fusionTimeout))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop gracefully shuts down the service, draining in-flight analyses.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping analysis service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "analysis service stopped")
}

// Submit registers a detection bundle for analysis. Submissions are
// idempotent on analysis id: resubmitting a known id reports duplicate=true
// without re-queueing. An empty id gets a generated one.
func (s *Service) Submit(ctx context.Context, analysisID string, bundle model.DetectionBundle) (id string, duplicate bool, err error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return "", false, ErrNotStarted
	}

	if analysisID == "" {
		analysisID = uuid.NewString()
	}

	if s.registry.SeenAndRecord(ctx, analysisID) {
		metrics.RecordAnalysisDuplicate()
		return analysisID, true, nil
	}

	s.setState(analysisID, StateQueued, "")
	if !s.jobs.Enqueue(ctx, jobqueue.Job{AnalysisID: analysisID, Bundle: bundle}) {
		// Roll back so a retry of the same id is possible.
		s.registry.Unrecord(ctx, analysisID)
		s.dropState(analysisID)
		return "", false, ErrQueueFull
	}

	metrics.RecordAnalysisSubmitted()
	s.logger.Info(ctx, "analysis submitted",
		logger.String("analysisID", analysisID),
		logger.Int("frames", len(bundle.Frames)),
		logger.Float64("duration", bundle.Duration),
	)
	return analysisID, false, nil
}

// AnalysisStarted implements worker.Reporter.
func (s *Service) AnalysisStarted(analysisID string) {
	s.setState(analysisID, StateRunning, "")
}

// AnalysisFinished implements worker.Reporter.
func (s *Service) AnalysisFinished(analysisID string, err error) {
	if err != nil {
		s.setState(analysisID, StateFailed, err.Error())
		return
	}
	s.setState(analysisID, StateDone, "")
}

// Status returns the lifecycle state of an analysis.
func (s *Service) Status(ctx context.Context, analysisID string) (Status, error) {
	s.mu.RLock()
	st, ok := s.states[analysisID]
	s.mu.RUnlock()
	if !ok {
		return Status{}, ErrUnknownAnalysis
	}

	out := *st
	if out.State == StateDone {
		out.EventCount = s.store.EventCount(ctx, analysisID)
	}
	return out, nil
}

// Events returns the fused timeline of a finished analysis.
func (s *Service) Events(ctx context.Context, analysisID string) ([]model.GameEvent, error) {
	if err := s.requireDone(analysisID); err != nil {
		return nil, err
	}
	return s.store.Events(ctx, analysisID)
}

// EventsInRange returns the timeline slice with from <= timestamp <= to.
func (s *Service) EventsInRange(ctx context.Context, analysisID string, from, to float64) ([]model.GameEvent, error) {
	if err := s.requireDone(analysisID); err != nil {
		return nil, err
	}
	return s.store.EventsInRange(ctx, analysisID, from, to)
}

// Highlights returns the highlight clips of a finished analysis, optionally
// filtered, merged, and ranked.
func (s *Service) Highlights(ctx context.Context, analysisID string, q HighlightQuery) ([]model.HighlightClip, error) {
	if err := s.requireDone(analysisID); err != nil {
		return nil, err
	}

	clips, err := s.store.Clips(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	clips = highlight.Filter(clips, q.TeamID, q.PlayerID, q.EventType)
	if q.Merge {
		clips = s.synthesizer.Merge(clips)
	}
	if q.Top > 0 {
		top := q.Top
		if top > s.maxTopClips {
			top = s.maxTopClips
		}
		clips = s.synthesizer.TopN(clips, top)
	}
	return clips, nil
}

// Ready reports whether the service can accept submissions.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// QueueDepth returns the current job backlog.
func (s *Service) QueueDepth(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return 0
	}
	return s.jobs.Len(ctx)
}

// requireDone gates result reads on lifecycle state.
func (s *Service) requireDone(analysisID string) error {
	s.mu.RLock()
	st, ok := s.states[analysisID]
	s.mu.RUnlock()

	switch {
	case !ok:
		return ErrUnknownAnalysis
	case st.State == StateQueued || st.State == StateRunning:
		return ErrResultPending
	case st.State == StateFailed:
		return fmt.Errorf("%w: %s", ErrAnalysisFailed, st.Error)
	}
	return nil
}

func (s *Service) setState(analysisID, state, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[analysisID]
	if !ok {
		st = &Status{AnalysisID: analysisID}
		s.states[analysisID] = st
	}
	st.State = state
	st.Error = errMsg
}

func (s *Service) dropState(analysisID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, analysisID)
}
