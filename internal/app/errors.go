package service

import "errors"

// Service errors surfaced to the HTTP layer.
var (
	// ErrNotStarted is returned for operations on a stopped service.
	ErrNotStarted = errors.New("service not started")

	// ErrQueueFull is returned when a submission cannot be enqueued.
	ErrQueueFull = errors.New("analysis queue full")

	// ErrUnknownAnalysis is returned for ids never submitted.
	ErrUnknownAnalysis = errors.New("unknown analysis")

	// ErrResultPending is returned when results are requested for an
	// analysis that has not finished yet.
	ErrResultPending = errors.New("analysis still in progress")

	// ErrAnalysisFailed is returned when results are requested for an
	// analysis whose processing failed.
	ErrAnalysisFailed = errors.New("analysis failed")
)
