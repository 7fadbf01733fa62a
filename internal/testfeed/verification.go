package testfeed

import (
	"context"
	"fmt"

	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/pkg/logger"
)

// verifyResults fetches and checks the timeline and highlights of every
// submitted analysis.
func verifyResults(ctx context.Context, config *Config, subs []Submission, stats *Stats) error {
	client := newHTTPClient(config.Timeout)

	for _, sub := range subs {
		events, err := fetchEvents(ctx, client, config.BaseURL, sub.AnalysisID)
		if err != nil {
			return fmt.Errorf("fetching events for %s: %w", sub.AnalysisID, err)
		}
		if err := verifyTimeline(sub, events); err != nil {
			return fmt.Errorf("timeline verification failed for %s: %w", sub.AnalysisID, err)
		}
		stats.EventsRetrieved += len(events)

		clips, err := fetchHighlights(ctx, client, config, sub.AnalysisID)
		if err != nil {
			return fmt.Errorf("fetching highlights for %s: %w", sub.AnalysisID, err)
		}
		if err := verifyClips(sub, clips, config.Top); err != nil {
			return fmt.Errorf("highlight verification failed for %s: %w", sub.AnalysisID, err)
		}
		stats.HighlightsRetrieved += len(clips)

		if config.Verbose {
			logger.Get().Info(ctx, "verified analysis",
				logger.String("analysisID", sub.AnalysisID),
				logger.Int("events", len(events)),
				logger.Int("highlights", len(clips)))
		}
	}

	logger.Get().Info(ctx, "verification passed",
		logger.Int("analyses", len(subs)),
		logger.Int("events", stats.EventsRetrieved),
		logger.Int("highlights", stats.HighlightsRetrieved))
	return nil
}

// verifyTimeline checks playback ordering and field sanity of a fused
// timeline.
func verifyTimeline(sub Submission, events []model.GameEvent) error {
	if len(events) == 0 {
		return fmt.Errorf("timeline is empty")
	}
	seen := make(map[string]bool, len(events))
	for i, e := range events {
		if e.ID == "" {
			return fmt.Errorf("event %d has no id", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("duplicate event id %s", e.ID)
		}
		seen[e.ID] = true
		if e.Timestamp < 0 || e.Timestamp > sub.Detections.Duration {
			return fmt.Errorf("event %s timestamp %.2f outside video bounds", e.ID, e.Timestamp)
		}
		if e.Confidence < 0 || e.Confidence > 1 {
			return fmt.Errorf("event %s confidence %.2f out of range", e.ID, e.Confidence)
		}
		if i > 0 && events[i].Timestamp < events[i-1].Timestamp {
			return fmt.Errorf("events out of playback order at index %d", i)
		}
	}
	return nil
}

// verifyClips checks that highlight clips stay within the video, carry
// positive durations, and respect the requested cap. Clips arrive in rank
// order, so playback ordering is not asserted here.
func verifyClips(sub Submission, clips []model.HighlightClip, top int) error {
	if top > 0 && len(clips) > top {
		return fmt.Errorf("got %d clips, requested at most %d", len(clips), top)
	}
	for _, c := range clips {
		if c.StartTime < 0 || c.EndTime > sub.Detections.Duration {
			return fmt.Errorf("clip %s [%.2f, %.2f] outside video bounds", c.ID, c.StartTime, c.EndTime)
		}
		if c.EndTime <= c.StartTime {
			return fmt.Errorf("clip %s has non-positive span", c.ID)
		}
		if c.Duration <= 0 {
			return fmt.Errorf("clip %s has non-positive duration", c.ID)
		}
	}
	return nil
}
