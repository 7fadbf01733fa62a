package fusion

import (
	"context"
	"math"

	"github.com/courtsight/courtsight/internal/domain/model"
)

// Possession inference constants. These candidates are the least trusted
// real signal: they exist to keep rebound statistics flowing when only shot
// attempts were observed.
const (
	missWindowSeconds = 2.5 // a score within this window converts the shot
	reboundLagSeconds = 1.5 // rebounds land about this long after a miss
)

// possessionEvents infers rebounds from unconverted shot attempts: a shot
// with no score event inside the miss window is treated as a miss whose
// board goes to the defending team.
func (e *Engine) possessionEvents(ctx context.Context, b model.DetectionBundle, attempts, scores []model.GameEvent) []model.GameEvent {
	var out []model.GameEvent
	for _, shot := range attempts {
		if shot.Type != model.EventShotAttempt {
			continue
		}
		if scoredWithin(scores, shot.TeamID, shot.Timestamp, missWindowSeconds) {
			continue
		}

		ts := math.Min(shot.Timestamp+reboundLagSeconds, b.Duration)
		ev, ok := e.emit(ctx, model.GameEvent{
			Type:       model.EventRebound,
			TeamID:     opposingTeam(shot.TeamID),
			Timestamp:  ts,
			Confidence: possessionConfidence,
			Source:     model.SourcePossession,
			Notes:      "inferred from unconverted shot attempt",
		})
		if ok {
			out = append(out, ev)
		}
	}
	return out
}

// scoredWithin reports whether the team scored within the window after ts.
func scoredWithin(scores []model.GameEvent, teamID string, ts, window float64) bool {
	for _, s := range scores {
		if s.TeamID != teamID {
			continue
		}
		if s.Timestamp >= ts && s.Timestamp-ts <= window {
			return true
		}
	}
	return false
}
