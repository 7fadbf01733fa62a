// Package model contains the domain types passed between pipeline layers.
package model

import "math"

// Team identifiers. Exactly two teams exist per analysis; the clusterer
// assigns "teamA" to the larger color cluster.
const (
	TeamA = "teamA"
	TeamB = "teamB"
)

// BBox is an axis-aligned bounding box in pixel coordinates.
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// CenterX returns the horizontal center of the box.
func (b BBox) CenterX() float64 { return b.X + b.W/2 }

// CenterY returns the vertical center of the box.
func (b BBox) CenterY() float64 { return b.Y + b.H/2 }

// CenterDistance returns the Euclidean distance between box centers.
func (b BBox) CenterDistance(o BBox) float64 {
	dx := b.CenterX() - o.CenterX()
	dy := b.CenterY() - o.CenterY()
	return math.Sqrt(dx*dx + dy*dy)
}

// Contains reports whether the point lies inside the box.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.X && x <= b.X+b.W && y >= b.Y && y <= b.Y+b.H
}

// PersonDetection is one detected person in one frame. TeamID and PlayerID
// start empty and are filled in by the team assigner and identity tracker as
// enrichment passes; the fusion engine never mutates them.
type PersonDetection struct {
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
	TeamID     string  `json:"team_id,omitempty"`
	PlayerID   string  `json:"player_id,omitempty"`
}

// FrameDetectionSet groups the person detections of one sampled frame.
type FrameDetectionSet struct {
	FrameIndex int               `json:"frame_index"`
	Timestamp  float64           `json:"timestamp"`
	Detections []PersonDetection `json:"detections"`
}

// ColorSample is a single torso color reading. Samples are produced and
// consumed within one clustering pass and not retained.
type ColorSample struct {
	R, G, B    uint8
	H          float64 // hue in [0,360)
	S, V       float64 // saturation/value in [0,1]
	FrameIndex int
	BBox       BBox
}

// TeamCluster is one of the two jersey color clusters.
type TeamCluster struct {
	Centroid [3]float64
	Samples  []ColorSample
	TeamID   string
}

// CentroidDistance returns the Euclidean RGB distance between centroids.
func (c TeamCluster) CentroidDistance(o TeamCluster) float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		d := c.Centroid[i] - o.Centroid[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Appearance is one sighting of a tracked player.
type Appearance struct {
	Timestamp  float64
	BBox       BBox
	Confidence float64
}

// Track lifecycle states.
const (
	TrackStateTracked = "tracked"
	TrackStateStale   = "stale"
)

// PlayerTrack accumulates sightings of one player identity across frames.
// Tracks are owned exclusively by the identity tracker for the duration of a
// single analysis and discarded afterwards.
type PlayerTrack struct {
	PlayerID    string
	TeamID      string
	State       string
	LastSeen    float64
	Appearances []Appearance
	AvgColor    [3]float64
	Height      float64
}

// BallDetection is one ball sighting.
type BallDetection struct {
	FrameIndex int     `json:"frame_index"`
	Timestamp  float64 `json:"timestamp"`
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

// Keypoint is one named body-pose landmark.
type Keypoint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// PoseDetection is the keypoint set of one person in one frame.
type PoseDetection struct {
	FrameIndex int        `json:"frame_index"`
	Timestamp  float64    `json:"timestamp"`
	PersonBBox BBox       `json:"person_bbox"`
	Keypoints  []Keypoint `json:"keypoints"`
}

// Keypoint returns the first keypoint whose name ends with suffix, so both
// plain ("wrist") and sided ("right_wrist") naming schemes resolve.
func (p PoseDetection) Keypoint(suffix string) (Keypoint, bool) {
	for _, kp := range p.Keypoints {
		if kp.Name == suffix || hasSuffix(kp.Name, "_"+suffix) {
			return kp, true
		}
	}
	return Keypoint{}, false
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// ScoreboardRead is one raw OCR reading of the scoreboard region. Text is the
// unparsed OCR output; the fusion engine extracts the two numerals.
type ScoreboardRead struct {
	Timestamp  float64 `json:"timestamp"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// HoopDetection is one detected hoop location, used for visual score
// correlation when no scoreboard is available.
type HoopDetection struct {
	Timestamp  float64 `json:"timestamp"`
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

// DetectionBundle is the complete detection input for one video. Person
// detections are required; every other stream may be empty.
type DetectionBundle struct {
	Frames     []FrameDetectionSet `json:"frames"`
	Balls      []BallDetection     `json:"balls,omitempty"`
	Poses      []PoseDetection     `json:"poses,omitempty"`
	ScoreReads []ScoreboardRead    `json:"score_reads,omitempty"`
	Hoops      []HoopDetection     `json:"hoops,omitempty"`
	Duration   float64             `json:"duration"`
	FrameRate  float64             `json:"frame_rate"`
	FrameWidth float64             `json:"frame_width"`
}

// HighlightClip is a bounded video segment anchored to one game event.
type HighlightClip struct {
	ID        string  `json:"id"`
	EventID   string  `json:"event_id"`
	EventType string  `json:"event_type"`
	TeamID    string  `json:"team_id"`
	PlayerID  string  `json:"player_id,omitempty"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`
	Notes     string  `json:"notes,omitempty"`
}
