// Package fusion merges the heterogeneous detection streams into one ordered
// timeline of game events. Every upstream stream except person detections is
// optional; missing or timed-out signal degrades to the next-best heuristic
// and never to an error.
package fusion

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/courtsight/courtsight/internal/domain/dedupe"
	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/pkg/logger"
	"github.com/courtsight/courtsight/pkg/metrics"
)

// Correlation windows and confidence profile. Scoreboard OCR is the most
// trusted signal, pose+ball correlation next, ball-motion-only heuristics
// after that, and possession inference last.
const (
	defaultShotWindow = 1.0 // seconds between shooting motion and ball proximity

	scoreboardConfidence = 0.95
	poseBaseConfidence   = 0.6
	poseBallBonus        = 0.2
	poseMaxConfidence    = 0.85
	ballMotionBase       = 0.5
	ballMotionCeiling    = 0.75
	possessionConfidence = 0.55
	visualScoreWithShot  = 0.7
	visualScoreAlone     = 0.55
)

// Engine is the single authority converting detection streams into events.
// It holds no per-video state between Fuse calls.
type Engine struct {
	log        logger.Logger
	ids        dedupe.Registry
	newID      func() string
	shotWindow float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithShotWindow overrides the shot correlation window in seconds.
func WithShotWindow(seconds float64) Option {
	return func(e *Engine) {
		if seconds > 0 {
			e.shotWindow = seconds
		}
	}
}

// WithIDGenerator overrides event id generation, mainly for tests.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithRegistry injects the id registry enforcing event-id uniqueness.
func WithRegistry(r dedupe.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.ids = r
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log:        logger.Get().Named("fusion"),
		ids:        dedupe.NewRegistry(),
		newID:      uuid.NewString,
		shotWindow: defaultShotWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fuse turns the detection bundle into an ordered event timeline. It never
// returns an empty slice: when all signals come up empty a bounded set of
// fallback events is synthesized so downstream consumers always have input.
// Near-duplicate events from different signals are intentionally kept
// distinct; source and type disambiguate them.
func (e *Engine) Fuse(ctx context.Context, b model.DetectionBundle) []model.GameEvent {
	attempts := e.shotAttempts(ctx, b)
	scores := e.scoreEvents(ctx, b, attempts)
	possession := e.possessionEvents(ctx, b, attempts, scores)

	events := make([]model.GameEvent, 0, len(attempts)+len(scores)+len(possession))
	events = append(events, attempts...)
	events = append(events, scores...)
	events = append(events, possession...)

	if len(events) == 0 {
		e.log.Warn(ctx, "no events from any signal, synthesizing fallback timeline",
			logger.Float64("duration", b.Duration))
		events = e.synthesizeFallback(ctx, b.Duration)
	}

	model.SortEvents(events)
	return events
}

// emit finalizes a candidate: allocates a unique id, validates the tagged
// union rules, and counts it by source. Invalid candidates are dropped with a
// log line rather than failing the fusion pass.
func (e *Engine) emit(ctx context.Context, ev model.GameEvent) (model.GameEvent, bool) {
	ev.ID = e.newID()
	for e.ids.SeenAndRecord(ctx, ev.ID) {
		ev.ID = e.newID()
	}

	out, err := model.NewGameEvent(ev)
	if err != nil {
		e.log.Warn(ctx, "dropping invalid candidate event",
			logger.String("type", string(ev.Type)),
			logger.String("source", ev.Source),
			logger.Error(err))
		return model.GameEvent{}, false
	}
	metrics.RecordEventFused(ev.Source)
	return out, true
}

// attribute finds team and player for a point in time and space by locating
// the temporally closest frame and the spatially nearest person detection in
// it. Empty strings mean no usable attribution.
func attribute(frames []model.FrameDetectionSet, ts, x, y float64) (teamID, playerID string) {
	var closest *model.FrameDetectionSet
	bestDT := math.MaxFloat64
	for i := range frames {
		if dt := math.Abs(frames[i].Timestamp - ts); dt < bestDT {
			bestDT = dt
			closest = &frames[i]
		}
	}
	if closest == nil {
		return "", ""
	}

	bestDist := math.MaxFloat64
	for _, det := range closest.Detections {
		dx := det.BBox.CenterX() - x
		dy := det.BBox.CenterY() - y
		if d := dx*dx + dy*dy; d < bestDist {
			bestDist = d
			teamID = det.TeamID
			playerID = det.PlayerID
		}
	}
	return teamID, playerID
}

// opposingTeam flips between the two team ids.
func opposingTeam(teamID string) string {
	if teamID == model.TeamA {
		return model.TeamB
	}
	return model.TeamA
}
