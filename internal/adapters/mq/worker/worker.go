// Package worker runs queued analyses through the fusion pipeline in the
// background.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/courtsight/courtsight/internal/adapters/mq/queue"
	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/pkg/logger"
	"github.com/courtsight/courtsight/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultEnrichTimeout = 30 * time.Second
	defaultFusionTimeout = 20 * time.Second

	poolShutdownTimeout = 30 * time.Second
)

// Enricher fills TeamID and PlayerID on a bundle's person detections.
type Enricher interface {
	Enrich(ctx context.Context, b *model.DetectionBundle) error
}

// Fuser turns an enriched bundle into an ordered event timeline.
type Fuser interface {
	Fuse(ctx context.Context, b model.DetectionBundle) []model.GameEvent
}

// Clipper cuts highlight clips from a timeline.
type Clipper interface {
	Clips(ctx context.Context, events []model.GameEvent, videoDuration float64) []model.HighlightClip
}

// Sink stores the finished result of an analysis.
type Sink interface {
	PutResult(ctx context.Context, analysisID string, events []model.GameEvent, clips []model.HighlightClip) error
}

// Reporter observes analysis lifecycle transitions. Implemented by the app
// layer to expose per-analysis status.
type Reporter interface {
	AnalysisStarted(analysisID string)
	AnalysisFinished(analysisID string, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes analysis jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing analysis jobs.
type InMemoryWorker struct {
	queue    Queue
	enricher Enricher
	fuser    Fuser
	clipper  Clipper
	sink     Sink
	reporter Reporter
	name     string

	enrichTimeout time.Duration
	fusionTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, enricher Enricher, fuser Fuser, clipper Clipper, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:         q,
		enricher:      enricher,
		fuser:         fuser,
		clipper:       clipper,
		sink:          sink,
		name:          "worker",
		enrichTimeout: defaultEnrichTimeout,
		fusionTimeout: defaultFusionTimeout,
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
		logger:        logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, j); err != nil {
				w.logger.Error(ctx, "error processing analysis",
					logger.String("analysisID", j.AnalysisID),
					logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob runs one analysis end to end. Stage timeouts never fail the
// analysis: a timed-out enrichment leaves detections unattributed and a
// timed-out fusion degrades to the duration-only fallback timeline.
func (w *InMemoryWorker) processJob(ctx context.Context, j queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if w.reporter != nil {
		w.reporter.AnalysisStarted(j.AnalysisID)
	}

	bundle := w.enrichStage(ctx, j)
	events := w.fuseStage(ctx, j.AnalysisID, bundle)
	clips := w.clipper.Clips(ctx, events, bundle.Duration)

	err := w.sink.PutResult(ctx, j.AnalysisID, events, clips)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "sink_error")
		err = fmt.Errorf("storing result for analysis %s: %w", j.AnalysisID, err)
	} else {
		metrics.RecordAnalysisCompleted()
	}

	if w.reporter != nil {
		w.reporter.AnalysisFinished(j.AnalysisID, err)
	}
	return err
}

// enrichStage runs team assignment and identity tracking under the enrichment
// timeout. The stage works on a copy so an abandoned run cannot race the rest
// of the pipeline.
func (w *InMemoryWorker) enrichStage(ctx context.Context, j queue.Job) model.DetectionBundle {
	if w.enricher == nil {
		return j.Bundle
	}

	enriched := copyBundle(j.Bundle)
	err := w.runStage(ctx, "enrichment", w.enrichTimeout, func(stageCtx context.Context) error {
		return w.enricher.Enrich(stageCtx, &enriched)
	})
	if err != nil {
		w.logger.Warn(ctx, "enrichment degraded, detections left unattributed",
			logger.String("analysisID", j.AnalysisID),
			logger.Error(err))
		return j.Bundle
	}
	return enriched
}

// fuseStage runs event fusion under the fusion timeout. On timeout the
// timeline is rebuilt from the duration-only fallback path.
func (w *InMemoryWorker) fuseStage(ctx context.Context, analysisID string, bundle model.DetectionBundle) []model.GameEvent {
	var events []model.GameEvent
	err := w.runStage(ctx, "fusion", w.fusionTimeout, func(stageCtx context.Context) error {
		events = w.fuser.Fuse(stageCtx, bundle)
		return nil
	})
	if err != nil {
		w.logger.Warn(ctx, "fusion degraded to fallback timeline",
			logger.String("analysisID", analysisID),
			logger.Error(err))
		return w.fuser.Fuse(ctx, model.DetectionBundle{
			Duration:  bundle.Duration,
			FrameRate: bundle.FrameRate,
		})
	}
	return events
}

// runStage executes fn under a stage deadline. A stage that overruns is
// abandoned and reported as ErrStageTimeout; its goroutine finishes on its
// own once it observes the canceled context.
func (w *InMemoryWorker) runStage(ctx context.Context, stage string, timeout time.Duration, fn func(context.Context) error) error {
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- fn(stageCtx)
	}()

	select {
	case err := <-errc:
		if err != nil {
			metrics.RecordErrorByComponent("worker", stage+"_error")
			return fmt.Errorf("%s stage: %w", stage, err)
		}
		return nil
	case <-stageCtx.Done():
		metrics.RecordStageTimeout(stage)
		return fmt.Errorf("%s stage: %w", stage, ErrStageTimeout)
	}
}

// copyBundle clones the person detection frames so enrichment can mutate them
// safely. The read-only streams are shared.
func copyBundle(b model.DetectionBundle) model.DetectionBundle {
	out := b
	out.Frames = make([]model.FrameDetectionSet, len(b.Frames))
	for i, f := range b.Frames {
		out.Frames[i] = f
		out.Frames[i].Detections = append([]model.PersonDetection(nil), f.Detections...)
	}
	return out
}

// Pool manages multiple workers draining the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a worker pool. Analyses are CPU-bound and independent, so
// the count defaults to one when not positive.
func NewPool(workerCount int, q Queue, enricher Enricher, fuser Fuser, clipper Clipper, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		named := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, enricher, fuser, clipper, sink, named...)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown gracefully shuts down the entire pool, closing the queue first so
// in-flight jobs drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
