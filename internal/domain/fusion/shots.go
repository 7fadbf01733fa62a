package fusion

import (
	"context"
	"math"
	"sort"

	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/pkg/logger"
)

// Shot-motion heuristics. The elbow angle and wrist rise thresholds are
// deliberately low: either signal alone is informative but noisy, so ball
// proximity up-weights confidence instead of gating the candidate.
const (
	minElbowAngleDegrees = 100.0
	minWristRisePixels   = 5.0
	ballProximityPixels  = 150.0

	// Ball-motion fallback: upward displacement between consecutive sampled
	// frames must exceed this many pixels.
	minUpwardMotionPixels = 8.0
	upwardMotionScale     = 100.0 // pixels of rise that add 1.0 before capping

	// Minimum spacing between consecutive candidates from the same
	// heuristic, so one throw does not emit a burst of attempts.
	attemptCooldownSeconds = 1.0
)

// shotAttempts produces shot-attempt candidates, preferring pose-derived
// shooting motion and falling back to ball-motion analysis when pose data is
// absent or yields nothing.
func (e *Engine) shotAttempts(ctx context.Context, b model.DetectionBundle) []model.GameEvent {
	attempts := e.poseShotAttempts(ctx, b)
	if len(attempts) > 0 {
		return attempts
	}
	if len(b.Poses) > 0 {
		e.log.Info(ctx, "pose stream yielded no shot attempts, trying ball motion",
			logger.Int("poses", len(b.Poses)))
	}
	return e.ballMotionShotAttempts(ctx, b)
}

// poseShotAttempts correlates shooting motion with temporally near ball
// proximity inside the configured window.
func (e *Engine) poseShotAttempts(ctx context.Context, b model.DetectionBundle) []model.GameEvent {
	// The window is quantized to whole sampled frames when the sampling
	// rate is known.
	window := e.shotWindow
	if b.FrameRate > 0 {
		window = math.Max(1, math.Round(e.shotWindow*b.FrameRate)) / b.FrameRate
	}

	poses := make([]model.PoseDetection, len(b.Poses))
	copy(poses, b.Poses)
	sort.Slice(poses, func(i, j int) bool { return poses[i].Timestamp < poses[j].Timestamp })

	var out []model.GameEvent
	lastTS := math.Inf(-1)
	for _, pose := range poses {
		wrist, ok := shootingMotion(pose)
		if !ok {
			continue
		}
		if pose.Timestamp-lastTS < attemptCooldownSeconds {
			continue
		}

		conf := poseBaseConfidence
		notes := "shooting motion"
		if ballNear(b.Balls, pose.Timestamp, window, wrist.X, wrist.Y) {
			conf = math.Min(conf+poseBallBonus, poseMaxConfidence)
			notes = "shooting motion with ball proximity"
		}

		teamID, playerID := attribute(b.Frames, pose.Timestamp, pose.PersonBBox.CenterX(), pose.PersonBBox.CenterY())
		if teamID == "" {
			continue // nobody to attribute the attempt to
		}

		ev, ok := e.emit(ctx, model.GameEvent{
			Type:       model.EventShotAttempt,
			TeamID:     teamID,
			PlayerID:   playerID,
			Timestamp:  pose.Timestamp,
			Confidence: conf,
			Source:     model.SourcePoseBall,
			Notes:      notes,
		})
		if !ok {
			continue
		}
		out = append(out, ev)
		lastTS = pose.Timestamp
	}
	return out
}

// ballMotionShotAttempts detects upward ball displacement between
// consecutive sampled frames. Confidence scales with the magnitude of the
// rise but stays below the pose-based ceiling.
func (e *Engine) ballMotionShotAttempts(ctx context.Context, b model.DetectionBundle) []model.GameEvent {
	if len(b.Balls) < 2 {
		return nil
	}

	balls := make([]model.BallDetection, len(b.Balls))
	copy(balls, b.Balls)
	sort.Slice(balls, func(i, j int) bool { return balls[i].Timestamp < balls[j].Timestamp })

	var out []model.GameEvent
	lastTS := math.Inf(-1)
	for i := 1; i < len(balls); i++ {
		rise := balls[i-1].BBox.CenterY() - balls[i].BBox.CenterY()
		if rise <= minUpwardMotionPixels {
			continue
		}
		if balls[i].Timestamp-lastTS < attemptCooldownSeconds {
			continue
		}

		conf := math.Min(ballMotionBase+rise/upwardMotionScale, ballMotionCeiling)
		teamID, playerID := attribute(b.Frames, balls[i].Timestamp, balls[i].BBox.CenterX(), balls[i].BBox.CenterY())
		if teamID == "" {
			continue
		}

		ev, ok := e.emit(ctx, model.GameEvent{
			Type:       model.EventShotAttempt,
			TeamID:     teamID,
			PlayerID:   playerID,
			Timestamp:  balls[i].Timestamp,
			Confidence: conf,
			Source:     model.SourceBallMotion,
			Notes:      "upward ball motion",
		})
		if !ok {
			continue
		}
		out = append(out, ev)
		lastTS = balls[i].Timestamp
	}
	return out
}

// shootingMotion reports whether a pose shows an elevated shooting arm:
// wrist above shoulder with an open shoulder-elbow-wrist angle. Returns the
// wrist keypoint for spatial correlation with the ball.
func shootingMotion(pose model.PoseDetection) (model.Keypoint, bool) {
	shoulder, okS := pose.Keypoint("shoulder")
	elbow, okE := pose.Keypoint("elbow")
	wrist, okW := pose.Keypoint("wrist")
	if !okS || !okE || !okW {
		return model.Keypoint{}, false
	}

	// Image coordinates grow downward, so a raised wrist has smaller Y.
	if shoulder.Y-wrist.Y < minWristRisePixels {
		return model.Keypoint{}, false
	}
	if elbowAngle(shoulder, elbow, wrist) < minElbowAngleDegrees {
		return model.Keypoint{}, false
	}
	return wrist, true
}

// elbowAngle computes the angle at the elbow between the upper and lower arm
// segments, in degrees.
func elbowAngle(shoulder, elbow, wrist model.Keypoint) float64 {
	ux, uy := shoulder.X-elbow.X, shoulder.Y-elbow.Y
	vx, vy := wrist.X-elbow.X, wrist.Y-elbow.Y
	uLen := math.Hypot(ux, uy)
	vLen := math.Hypot(vx, vy)
	if uLen == 0 || vLen == 0 {
		return 0
	}
	cos := (ux*vx + uy*vy) / (uLen * vLen)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// ballNear reports whether any ball detection falls inside the temporal
// window and proximity radius of the given point.
func ballNear(balls []model.BallDetection, ts, window, x, y float64) bool {
	for _, ball := range balls {
		if math.Abs(ball.Timestamp-ts) > window {
			continue
		}
		if math.Hypot(ball.BBox.CenterX()-x, ball.BBox.CenterY()-y) <= ballProximityPixels {
			return true
		}
	}
	return false
}
