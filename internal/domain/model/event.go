package model

import (
	"errors"
	"fmt"
	"sort"
)

// EventType enumerates the fused game event kinds.
type EventType string

// Game event types.
const (
	EventScore        EventType = "score"
	EventShotAttempt  EventType = "shot_attempt"
	EventRebound      EventType = "rebound"
	EventTurnover     EventType = "turnover"
	EventSteal        EventType = "steal"
	EventBlock        EventType = "block"
	EventAssist       EventType = "assist"
	EventDunk         EventType = "dunk"
	EventThreePointer EventType = "three_pointer"
)

// Shot type values carried by scoring events.
const (
	ShotOnePoint   = "1pt"
	ShotTwoPoint   = "2pt"
	ShotThreePoint = "3pt"
)

// Event sources. Consumers use these provenance tags to weigh trust; the
// "fallback" tag marks synthesized events that carry no real evidence.
const (
	SourceScoreboard = "scoreboard_ocr"
	SourcePoseBall   = "pose_ball"
	SourceBallMotion = "ball_motion"
	SourceVisual     = "visual_score"
	SourcePossession = "possession"
	SourceFallback   = "fallback"
)

// Validation errors returned by NewGameEvent.
var (
	ErrEmptyEventID   = errors.New("event id must not be empty")
	ErrUnknownType    = errors.New("unknown event type")
	ErrEmptyTeam      = errors.New("team id must not be empty")
	ErrBadConfidence  = errors.New("confidence must be within [0,1]")
	ErrBadTimestamp   = errors.New("timestamp must not be negative")
	ErrBadScoreDelta  = errors.New("score delta only valid on scoring events")
	ErrUnknownShot    = errors.New("unknown shot type")
	ErrShotOnNonScore = errors.New("shot type only valid on scoring events")
)

// GameEvent is the canonical fused output. Events are immutable once emitted;
// construct them only through NewGameEvent so the per-type field rules hold.
type GameEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	TeamID     string    `json:"team_id"`
	PlayerID   string    `json:"player_id,omitempty"`
	Timestamp  float64   `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	ScoreDelta int       `json:"score_delta,omitempty"`
	ShotType   string    `json:"shot_type,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

var validTypes = map[EventType]bool{
	EventScore:        true,
	EventShotAttempt:  true,
	EventRebound:      true,
	EventTurnover:     true,
	EventSteal:        true,
	EventBlock:        true,
	EventAssist:       true,
	EventDunk:         true,
	EventThreePointer: true,
}

// scoringTypes are the types allowed to carry ScoreDelta and ShotType.
var scoringTypes = map[EventType]bool{
	EventScore:        true,
	EventDunk:         true,
	EventThreePointer: true,
}

// NewGameEvent validates and constructs a GameEvent.
func NewGameEvent(e GameEvent) (GameEvent, error) {
	switch {
	case e.ID == "":
		return GameEvent{}, ErrEmptyEventID
	case !validTypes[e.Type]:
		return GameEvent{}, fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	case e.TeamID == "":
		return GameEvent{}, ErrEmptyTeam
	case e.Confidence < 0 || e.Confidence > 1:
		return GameEvent{}, fmt.Errorf("%w: %v", ErrBadConfidence, e.Confidence)
	case e.Timestamp < 0:
		return GameEvent{}, fmt.Errorf("%w: %v", ErrBadTimestamp, e.Timestamp)
	}
	if e.ScoreDelta != 0 && !scoringTypes[e.Type] {
		return GameEvent{}, ErrBadScoreDelta
	}
	if e.ShotType != "" {
		if !scoringTypes[e.Type] {
			return GameEvent{}, ErrShotOnNonScore
		}
		switch e.ShotType {
		case ShotOnePoint, ShotTwoPoint, ShotThreePoint:
		default:
			return GameEvent{}, fmt.Errorf("%w: %q", ErrUnknownShot, e.ShotType)
		}
	}
	return e, nil
}

// SortEvents orders a timeline by timestamp, breaking ties by id so the
// ordering is stable across runs.
func SortEvents(events []GameEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].ID < events[j].ID
	})
}
