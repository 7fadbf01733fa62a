package teamcolor

import (
	"math"

	"github.com/courtsight/courtsight/internal/domain/model"
)

// Assigner maps person detections to the nearest team color centroid, with a
// court-side positional fallback when no clusters are available.
type Assigner struct {
	clusters   []model.TeamCluster
	frameWidth float64
}

// NewAssigner creates an Assigner. clusters may be empty, in which case every
// assignment uses the positional heuristic. frameWidth normalizes the court
// midpoint; a non-positive width disables the positional fallback entirely.
func NewAssigner(clusters []model.TeamCluster, frameWidth float64) *Assigner {
	return &Assigner{clusters: clusters, frameWidth: frameWidth}
}

// AssignTeams mutates TeamID on every detection in the frame set.
func (a *Assigner) AssignTeams(frame model.Frame, set *model.FrameDetectionSet) {
	for i := range set.Detections {
		a.assign(frame, set.FrameIndex, &set.Detections[i])
	}
}

func (a *Assigner) assign(frame model.Frame, frameIndex int, det *model.PersonDetection) {
	if len(a.clusters) >= 2 {
		samples := SampleTorso(frame, det.BBox, frameIndex)
		if len(samples) > 0 {
			det.TeamID = a.nearestTeam(samples)
			return
		}
	}
	a.assignPositional(det)
}

// nearestTeam averages the fresh samples and picks the closest centroid.
func (a *Assigner) nearestTeam(samples []model.ColorSample) string {
	var avg [3]float64
	for _, s := range samples {
		avg[0] += float64(s.R)
		avg[1] += float64(s.G)
		avg[2] += float64(s.B)
	}
	for ch := 0; ch < 3; ch++ {
		avg[ch] /= float64(len(samples))
	}

	best := a.clusters[0].TeamID
	bestDist := math.MaxFloat64
	for _, c := range a.clusters {
		var sum float64
		for ch := 0; ch < 3; ch++ {
			d := c.Centroid[ch] - avg[ch]
			sum += d * d
		}
		if sum < bestDist {
			bestDist = sum
			best = c.TeamID
		}
	}
	return best
}

// assignPositional is the coarse fallback: left half of the court is teamA.
// The midpoint is relative to the frame width, not a fixed pixel threshold.
func (a *Assigner) assignPositional(det *model.PersonDetection) {
	if a.frameWidth <= 0 {
		return
	}
	if det.BBox.CenterX() < a.frameWidth/2 {
		det.TeamID = model.TeamA
	} else {
		det.TeamID = model.TeamB
	}
}
