package worker

import (
	"time"

	"github.com/courtsight/courtsight/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker's name, used for log attribution.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if log != nil {
			w.logger = log
		}
	}
}

// WithReporter registers a lifecycle observer for analysis status tracking.
func WithReporter(r Reporter) Option {
	return func(w *InMemoryWorker) {
		w.reporter = r
	}
}

// WithStageTimeouts overrides the enrichment and fusion stage deadlines.
// Non-positive values keep the defaults.
func WithStageTimeouts(enrich, fusion time.Duration) Option {
	return func(w *InMemoryWorker) {
		if enrich > 0 {
			w.enrichTimeout = enrich
		}
		if fusion > 0 {
			w.fusionTimeout = fusion
		}
	}
}
