package testfeed

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/pkg/logger"
	"github.com/google/uuid"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
)

// Constants for the scripted game layout, in pixels unless noted.
const (
	playersPerTeam  = 5
	playerBoxWidth  = 60.0
	playerBoxHeight = 150.0
	playerBaseY     = 300.0
	positionJitter  = 20.0

	ballBoxSize   = 24.0
	ballRestY     = 420.0
	hoopY         = 140.0
	hoopBoxWidth  = 50.0
	hoopBoxHeight = 40.0
	hoopMargin    = 60.0

	shotIntervalSeconds = 20.0
	shotFlightSeconds   = 1.5
	arcPeakRise         = 180.0

	scoreReadIntervalSeconds = 5.0
	pointsPerMadeShot        = 2

	detectionConfidenceBase  = 0.75
	detectionConfidenceRange = 0.2
	ocrConfidence            = 0.9
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// jitter returns a random offset in [-amount, amount].
func jitter(amount float64) float64 {
	return (getRandomFloat()*2 - 1) * amount
}

// shotScript is one scripted shot attempt.
type shotScript struct {
	time    float64
	team    string // "left" attacks the left hoop
	shooter int    // index into that team's player slots
	made    bool
}

// generateSubmissions creates the configured number of analyses, each with a
// scripted detection bundle.
func generateSubmissions(ctx context.Context, config *Config, stats *Stats) ([]Submission, error) {
	logger.Get().Info(ctx, "generating detection bundles",
		logger.Int("analyses", config.Analyses),
		logger.Float64("duration", config.Duration),
		logger.Float64("frameRate", config.FrameRate))

	subs := make([]Submission, config.Analyses)
	for i := range subs {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during bundle generation: %w", ctx.Err())
		default:
		}
		subs[i] = Submission{
			AnalysisID: "feed_" + strconv.Itoa(i) + "_" + uuid.New().String(),
			Detections: GenerateBundle(config.Duration, config.FrameRate, config.FrameWidth),
		}
	}

	stats.BundlesGenerated = len(subs)
	logger.Get().Info(ctx, "generated bundles successfully", logger.Int("count", len(subs)))
	return subs, nil
}

// GenerateBundle synthesizes a detection bundle for a scripted half-court
// game: two teams of five, a ball that arcs toward a hoop on every scripted
// shot, shooter poses at release time, and scoreboard reads that tick up
// after each made shot.
func GenerateBundle(duration, frameRate, frameWidth float64) model.DetectionBundle {
	if frameRate <= 0 {
		frameRate = 2.0
	}
	if frameWidth <= 0 {
		frameWidth = 1280.0
	}

	shots := scriptShots(duration)
	bundle := model.DetectionBundle{
		Duration:   duration,
		FrameRate:  frameRate,
		FrameWidth: frameWidth,
	}

	leftBase, rightBase := playerBases(frameWidth)
	frameCount := int(duration * frameRate)
	for i := 0; i < frameCount; i++ {
		ts := float64(i) / frameRate
		bundle.Frames = append(bundle.Frames, frameAt(i, ts, leftBase, rightBase))
		bundle.Balls = append(bundle.Balls, ballAt(i, ts, shots, frameWidth))
	}

	for _, shot := range shots {
		base := leftBase
		if shot.team != "left" {
			base = rightBase
		}
		bundle.Poses = append(bundle.Poses, shooterPose(shot, base, frameRate))
	}

	bundle.ScoreReads = scoreboardReads(duration, shots)
	bundle.Hoops = hoopSightings(duration, frameWidth)
	return bundle
}

// scriptShots lays out alternating shot attempts, every other one made.
func scriptShots(duration float64) []shotScript {
	var shots []shotScript
	for t := shotIntervalSeconds; t+shotFlightSeconds < duration; t += shotIntervalSeconds {
		n := len(shots)
		team := "left"
		if n%2 == 1 {
			team = "right"
		}
		shots = append(shots, shotScript{
			time:    t,
			team:    team,
			shooter: n % playersPerTeam,
			made:    n%2 == 0,
		})
	}
	return shots
}

// playerBases returns the resting X positions of the two squads. The left
// squad holds the left half of the frame.
func playerBases(frameWidth float64) (left, right []float64) {
	half := frameWidth / 2
	spacing := (half - 2*hoopMargin) / playersPerTeam
	for i := 0; i < playersPerTeam; i++ {
		left = append(left, hoopMargin+spacing*float64(i))
		right = append(right, half+hoopMargin+spacing*float64(i))
	}
	return left, right
}

func frameAt(index int, ts float64, leftBase, rightBase []float64) model.FrameDetectionSet {
	set := model.FrameDetectionSet{FrameIndex: index, Timestamp: ts}
	for _, base := range [2][]float64{leftBase, rightBase} {
		for _, x := range base {
			set.Detections = append(set.Detections, model.PersonDetection{
				BBox: model.BBox{
					X: x + jitter(positionJitter),
					Y: playerBaseY + jitter(positionJitter),
					W: playerBoxWidth,
					H: playerBoxHeight,
				},
				Confidence: detectionConfidenceBase + getRandomFloat()*detectionConfidenceRange,
			})
		}
	}
	return set
}

// ballAt places the ball: parked near mid-court between shots, on a
// parabolic arc toward the attacked hoop while a shot is in flight.
func ballAt(index int, ts float64, shots []shotScript, frameWidth float64) model.BallDetection {
	ball := model.BallDetection{
		FrameIndex: index,
		Timestamp:  ts,
		BBox: model.BBox{
			X: frameWidth/2 + jitter(positionJitter),
			Y: ballRestY + jitter(positionJitter),
			W: ballBoxSize,
			H: ballBoxSize,
		},
		Confidence: detectionConfidenceBase + getRandomFloat()*detectionConfidenceRange,
	}

	for _, shot := range shots {
		if ts < shot.time || ts > shot.time+shotFlightSeconds {
			continue
		}
		progress := (ts - shot.time) / shotFlightSeconds
		startX, startY := frameWidth/2, ballRestY
		targetX := hoopMargin + hoopBoxWidth/2
		if shot.team != "left" {
			targetX = frameWidth - hoopMargin - hoopBoxWidth/2
		}
		x := startX + (targetX-startX)*progress
		// Parabola through the release point and the rim, peaking mid-flight.
		y := startY + (hoopY-startY)*progress - arcPeakRise*math.Sin(progress*math.Pi)
		ball.BBox.X = x
		ball.BBox.Y = y
		break
	}
	return ball
}

// shooterPose emits a release pose with the wrist above the shoulder.
func shooterPose(shot shotScript, base []float64, frameRate float64) model.PoseDetection {
	x := base[shot.shooter]
	return model.PoseDetection{
		FrameIndex: int(shot.time * frameRate),
		Timestamp:  shot.time,
		PersonBBox: model.BBox{X: x, Y: playerBaseY, W: playerBoxWidth, H: playerBoxHeight},
		Keypoints: []model.Keypoint{
			{Name: "right_wrist", X: x + playerBoxWidth/2, Y: playerBaseY - 30, Confidence: 0.9},
			{Name: "right_shoulder", X: x + playerBoxWidth/2, Y: playerBaseY + 20, Confidence: 0.9},
			{Name: "right_elbow", X: x + playerBoxWidth/2, Y: playerBaseY - 5, Confidence: 0.85},
		},
	}
}

// scoreboardReads produces periodic OCR reads tracking the made shots.
func scoreboardReads(duration float64, shots []shotScript) []model.ScoreboardRead {
	var reads []model.ScoreboardRead
	for t := 0.0; t < duration; t += scoreReadIntervalSeconds {
		left, right := 0, 0
		for _, shot := range shots {
			if !shot.made || shot.time+shotFlightSeconds > t {
				continue
			}
			if shot.team == "left" {
				left += pointsPerMadeShot
			} else {
				right += pointsPerMadeShot
			}
		}
		reads = append(reads, model.ScoreboardRead{
			Timestamp:  t,
			Text:       strconv.Itoa(left) + "-" + strconv.Itoa(right),
			Confidence: ocrConfidence,
		})
	}
	return reads
}

func hoopSightings(duration, frameWidth float64) []model.HoopDetection {
	var hoops []model.HoopDetection
	for t := 0.0; t < duration; t += scoreReadIntervalSeconds {
		for _, x := range [2]float64{hoopMargin, frameWidth - hoopMargin - hoopBoxWidth} {
			hoops = append(hoops, model.HoopDetection{
				Timestamp:  t,
				BBox:       model.BBox{X: x, Y: hoopY, W: hoopBoxWidth, H: hoopBoxHeight},
				Confidence: 0.95,
			})
		}
	}
	return hoops
}
