package fusion

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/pkg/logger"
)

// Score correlation windows.
const (
	scoreShotCorrelation  = 3.0 // seconds between a shot attempt and its score
	visualScoreCooldown   = 2.0 // min spacing between visual score triggers
	maxScoreDeltaPerEvent = 3
)

// scoreEvents produces score events, from scoreboard OCR delta tracking when
// reads exist and from ball-through-hoop correlation otherwise (amateur
// mode, no scoreboard crop configured).
func (e *Engine) scoreEvents(ctx context.Context, b model.DetectionBundle, attempts []model.GameEvent) []model.GameEvent {
	if len(b.ScoreReads) > 0 {
		return e.scoreboardEvents(ctx, b, attempts)
	}
	return e.visualScoreEvents(ctx, b, attempts)
}

// scoreboardEvents tracks numeral deltas across consecutive OCR reads. The
// scoreboard is authoritative: points come straight from the delta and the
// shot type from the increment size.
func (e *Engine) scoreboardEvents(ctx context.Context, b model.DetectionBundle, attempts []model.GameEvent) []model.GameEvent {
	reads := make([]model.ScoreboardRead, len(b.ScoreReads))
	copy(reads, b.ScoreReads)
	sort.Slice(reads, func(i, j int) bool { return reads[i].Timestamp < reads[j].Timestamp })

	var out []model.GameEvent
	var prevHome, prevAway int
	havePrev := false
	for _, read := range reads {
		home, away, ok := parseScoreText(read.Text)
		if !ok {
			e.log.Debug(ctx, "unparseable scoreboard read", logger.String("text", read.Text))
			continue
		}
		if !havePrev {
			prevHome, prevAway = home, away
			havePrev = true
			continue
		}

		for _, side := range []struct {
			delta  int
			teamID string
		}{
			{home - prevHome, model.TeamA},
			{away - prevAway, model.TeamB},
		} {
			if side.delta <= 0 {
				continue // clock resets and OCR glitches shrink, never score
			}
			if side.delta > maxScoreDeltaPerEvent {
				e.log.Debug(ctx, "implausible score jump, skipping",
					logger.Int("delta", side.delta),
					logger.Float64("timestamp", read.Timestamp))
				continue
			}

			playerID := correlatedShooter(attempts, side.teamID, read.Timestamp)
			ev, ok := e.emit(ctx, model.GameEvent{
				Type:       model.EventScore,
				TeamID:     side.teamID,
				PlayerID:   playerID,
				Timestamp:  read.Timestamp,
				Confidence: scoreboardConfidence,
				Source:     model.SourceScoreboard,
				ScoreDelta: side.delta,
				ShotType:   shotTypeForDelta(side.delta),
				Notes:      fmt.Sprintf("scoreboard %d-%d", home, away),
			})
			if ok {
				out = append(out, ev)
			}
		}
		prevHome, prevAway = home, away
	}
	return out
}

// visualScoreEvents detects the ball passing downward through the detected
// hoop and correlates it with a temporally near shot attempt.
func (e *Engine) visualScoreEvents(ctx context.Context, b model.DetectionBundle, attempts []model.GameEvent) []model.GameEvent {
	hoop, ok := bestHoop(b.Hoops)
	if !ok || len(b.Balls) < 2 {
		return nil
	}

	balls := make([]model.BallDetection, len(b.Balls))
	copy(balls, b.Balls)
	sort.Slice(balls, func(i, j int) bool { return balls[i].Timestamp < balls[j].Timestamp })

	var out []model.GameEvent
	lastTS := math.Inf(-1)
	for i := 1; i < len(balls); i++ {
		wasAbove := balls[i-1].BBox.CenterY() < hoop.BBox.Y
		inside := hoop.BBox.Contains(balls[i].BBox.CenterX(), balls[i].BBox.CenterY())
		if !wasAbove || !inside {
			continue
		}
		if balls[i].Timestamp-lastTS < visualScoreCooldown {
			continue
		}

		ts := balls[i].Timestamp
		teamID := ""
		playerID := ""
		conf := visualScoreAlone
		notes := "ball through hoop"
		if shot, found := nearestAttempt(attempts, ts, scoreShotCorrelation); found {
			teamID = shot.TeamID
			playerID = shot.PlayerID
			conf = visualScoreWithShot
			notes = "ball through hoop after shot attempt"
		} else {
			teamID, playerID = attribute(b.Frames, ts, balls[i].BBox.CenterX(), balls[i].BBox.CenterY())
		}
		if teamID == "" {
			continue
		}

		ev, ok := e.emit(ctx, model.GameEvent{
			Type:       model.EventScore,
			TeamID:     teamID,
			PlayerID:   playerID,
			Timestamp:  ts,
			Confidence: conf,
			Source:     model.SourceVisual,
			ScoreDelta: 2,
			ShotType:   model.ShotTwoPoint,
			Notes:      notes,
		})
		if !ok {
			continue
		}
		out = append(out, ev)
		lastTS = ts
	}
	return out
}

// parseScoreText extracts the first two numerals from a raw OCR reading such
// as "23-41", "23 : 41" or "HOME 23 AWAY 41".
func parseScoreText(text string) (home, away int, ok bool) {
	var numbers []int
	digits := ""
	flush := func() {
		if digits != "" {
			if n, err := strconv.Atoi(digits); err == nil {
				numbers = append(numbers, n)
			}
			digits = ""
		}
	}
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits += string(r)
			continue
		}
		flush()
	}
	flush()

	if len(numbers) < 2 {
		return 0, 0, false
	}
	return numbers[0], numbers[1], true
}

func shotTypeForDelta(delta int) string {
	switch delta {
	case 1:
		return model.ShotOnePoint
	case 2:
		return model.ShotTwoPoint
	default:
		return model.ShotThreePoint
	}
}

// bestHoop picks the highest-confidence hoop detection.
func bestHoop(hoops []model.HoopDetection) (model.HoopDetection, bool) {
	if len(hoops) == 0 {
		return model.HoopDetection{}, false
	}
	best := hoops[0]
	for _, h := range hoops[1:] {
		if h.Confidence > best.Confidence {
			best = h
		}
	}
	return best, true
}

// nearestAttempt finds the closest shot attempt within the window, searching
// backwards in preference since scores follow shots.
func nearestAttempt(attempts []model.GameEvent, ts, window float64) (model.GameEvent, bool) {
	var best model.GameEvent
	bestDT := window
	found := false
	for _, a := range attempts {
		if a.Type != model.EventShotAttempt {
			continue
		}
		if dt := math.Abs(a.Timestamp - ts); dt <= bestDT {
			bestDT = dt
			best = a
			found = true
		}
	}
	return best, found
}

// correlatedShooter returns the player of the nearest same-team shot attempt
// within the correlation window, or empty.
func correlatedShooter(attempts []model.GameEvent, teamID string, ts float64) string {
	var player string
	bestDT := scoreShotCorrelation
	for _, a := range attempts {
		if a.Type != model.EventShotAttempt || a.TeamID != teamID {
			continue
		}
		if dt := math.Abs(a.Timestamp - ts); dt <= bestDT {
			bestDT = dt
			player = a.PlayerID
		}
	}
	return player
}
