// Package highlight turns the fused event timeline into bounded,
// minimum-duration video segments.
package highlight

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/pkg/logger"
	"github.com/courtsight/courtsight/pkg/metrics"
)

// Clip construction defaults.
const (
	defaultPreBuffer   = 3.0
	defaultPostBuffer  = 2.0
	defaultMinDuration = 10.0
	defaultMergeGap    = 1.0

	minClipConfidence = 0.5
)

// highlightable are the event types worth clipping.
var highlightable = map[model.EventType]bool{
	model.EventScore:        true,
	model.EventBlock:        true,
	model.EventSteal:        true,
	model.EventAssist:       true,
	model.EventDunk:         true,
	model.EventThreePointer: true,
	model.EventRebound:      true,
	model.EventTurnover:     true,
	model.EventShotAttempt:  true,
}

// typePriority ranks event types for top-N selection. A plain score whose
// shot type is a three counts as a three-pointer.
var typePriority = map[model.EventType]int{
	model.EventDunk:         7,
	model.EventThreePointer: 6,
	model.EventBlock:        5,
	model.EventScore:        4,
	model.EventSteal:        3,
	model.EventAssist:       2,
	model.EventRebound:      1,
}

// Synthesizer builds highlight clips from game events.
type Synthesizer struct {
	log         logger.Logger
	preBuffer   float64
	postBuffer  float64
	minDuration float64
	mergeGap    float64
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithBuffers overrides the pre/post event buffers in seconds.
func WithBuffers(pre, post float64) Option {
	return func(s *Synthesizer) {
		if pre >= 0 && post >= 0 {
			s.preBuffer = pre
			s.postBuffer = post
		}
	}
}

// WithMinDuration overrides the minimum viewable clip duration in seconds.
func WithMinDuration(seconds float64) Option {
	return func(s *Synthesizer) {
		if seconds > 0 {
			s.minDuration = seconds
		}
	}
}

// WithMergeGap overrides the near-adjacency gap for clip merging in seconds.
func WithMergeGap(seconds float64) Option {
	return func(s *Synthesizer) {
		if seconds >= 0 {
			s.mergeGap = seconds
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Synthesizer) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSynthesizer creates a Synthesizer with the default buffers.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		log:         logger.Get().Named("highlight"),
		preBuffer:   defaultPreBuffer,
		postBuffer:  defaultPostBuffer,
		minDuration: defaultMinDuration,
		mergeGap:    defaultMergeGap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clips builds one clip per qualifying event. Clips shorter than the minimum
// duration are extended toward the minimum rather than truncated at the next
// event; clips that still cannot reach it inside the video are dropped with a
// diagnostic.
func (s *Synthesizer) Clips(ctx context.Context, events []model.GameEvent, videoDuration float64) []model.HighlightClip {
	if videoDuration <= 0 {
		return nil
	}

	qualifying := make([]model.GameEvent, 0, len(events))
	for _, ev := range events {
		if highlightable[ev.Type] && ev.Confidence >= minClipConfidence {
			qualifying = append(qualifying, ev)
		}
	}
	model.SortEvents(qualifying)

	clips := make([]model.HighlightClip, 0, len(qualifying))
	for _, ev := range qualifying {
		start := math.Max(0, ev.Timestamp-s.preBuffer)
		end := math.Min(videoDuration, ev.Timestamp+s.postBuffer)

		if end-start < s.minDuration {
			end = start + s.minDuration
			if end > videoDuration {
				// Slide the window back before giving up on the minimum.
				end = videoDuration
				start = math.Max(0, end-s.minDuration)
			}
		}

		if end-start < s.minDuration {
			s.log.Debug(ctx, "dropping clip below minimum duration",
				logger.String("eventID", ev.ID),
				logger.Float64("duration", end-start))
			metrics.RecordClipDropped()
			continue
		}

		clips = append(clips, model.HighlightClip{
			ID:        "clip-" + ev.ID,
			EventID:   ev.ID,
			EventType: string(clipType(ev)),
			TeamID:    ev.TeamID,
			PlayerID:  ev.PlayerID,
			StartTime: start,
			EndTime:   end,
			Duration:  end - start,
			Notes:     ev.Notes,
		})
		metrics.RecordClipProduced()
	}
	return clips
}

// Merge combines temporally overlapping or near-adjacent clips into
// composite clips covering the union of their ranges. Input must be
// start-time ordered, which Clips guarantees.
func (s *Synthesizer) Merge(clips []model.HighlightClip) []model.HighlightClip {
	if len(clips) < 2 {
		return clips
	}

	out := make([]model.HighlightClip, 0, len(clips))
	current := clips[0]
	for _, next := range clips[1:] {
		if next.StartTime-current.EndTime <= s.mergeGap {
			current.EndTime = math.Max(current.EndTime, next.EndTime)
			current.Duration = current.EndTime - current.StartTime
			current.ID = current.ID + "+" + strings.TrimPrefix(next.ID, "clip-")
			current.Notes = joinNotes(current.Notes, next.Notes)
			if current.TeamID != next.TeamID {
				current.TeamID = ""
			}
			if current.PlayerID != next.PlayerID {
				current.PlayerID = ""
			}
			metrics.RecordClipMerged()
			continue
		}
		out = append(out, current)
		current = next
	}
	return append(out, current)
}

// TopN ranks clips by event-type priority, breaking ties by earlier start,
// and returns the best n.
func (s *Synthesizer) TopN(clips []model.HighlightClip, n int) []model.HighlightClip {
	if n <= 0 || len(clips) == 0 {
		return nil
	}

	ranked := make([]model.HighlightClip, len(clips))
	copy(ranked, clips)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := clipPriority(ranked[i]), clipPriority(ranked[j])
		if pi != pj {
			return pi > pj
		}
		return ranked[i].StartTime < ranked[j].StartTime
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Filter returns the clips matching the non-empty criteria.
func Filter(clips []model.HighlightClip, teamID, playerID, eventType string) []model.HighlightClip {
	out := make([]model.HighlightClip, 0, len(clips))
	for _, c := range clips {
		if teamID != "" && c.TeamID != teamID {
			continue
		}
		if playerID != "" && c.PlayerID != playerID {
			continue
		}
		if eventType != "" && c.EventType != eventType {
			continue
		}
		out = append(out, c)
	}
	return out
}

func clipPriority(c model.HighlightClip) int {
	return typePriority[model.EventType(c.EventType)]
}

// clipType promotes a plain score with a three-point shot type to a
// three-pointer so ranking treats it accordingly.
func clipType(ev model.GameEvent) model.EventType {
	if ev.Type == model.EventScore && ev.ShotType == model.ShotThreePoint {
		return model.EventThreePointer
	}
	return ev.Type
}

func joinNotes(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "; " + b
	}
}
