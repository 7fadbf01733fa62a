// Package repository stores fused analysis results for read access by the
// HTTP layer.
package repository

import (
	"context"

	"github.com/courtsight/courtsight/internal/domain/model"
)

// Store provides per-analysis access to fused timelines and highlight clips.
type Store interface {
	// PutResult stores the fused timeline and clips for an analysis,
	// replacing any previous result.
	PutResult(ctx context.Context, analysisID string, events []model.GameEvent, clips []model.HighlightClip) error

	// Events returns the full ordered timeline for an analysis.
	// Returns ErrNotFound for unknown ids.
	Events(ctx context.Context, analysisID string) ([]model.GameEvent, error)

	// EventsInRange returns the ordered events with from <= timestamp <= to.
	EventsInRange(ctx context.Context, analysisID string, from, to float64) ([]model.GameEvent, error)

	// Clips returns the highlight clips for an analysis.
	Clips(ctx context.Context, analysisID string) ([]model.HighlightClip, error)

	// EventCount returns the number of stored events, zero for unknown ids.
	EventCount(ctx context.Context, analysisID string) int

	// Drop discards all stored state for an analysis.
	Drop(ctx context.Context, analysisID string)
}
