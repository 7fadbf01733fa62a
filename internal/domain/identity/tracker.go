// Package identity maintains per-jersey-number player tracks across frames.
// Identity is resolved by jersey OCR first, visual re-identification second,
// and a synthetic identity when both fail, so every detection keeps some
// stable-ish identity at reduced confidence.
package identity

import (
	"context"
	"fmt"
	"math"

	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/pkg/logger"
	"github.com/courtsight/courtsight/pkg/metrics"
)

// Resolution thresholds and windows.
const (
	defaultMaxAgeSeconds = 10.0 // track garbage collection age
	defaultReidWindow    = 5.0  // max lastSeen gap for re-identification
	sweepInterval        = 30   // frames between stale-track sweeps

	ocrMinConfidence  = 0.5
	reidMinScore      = 0.6
	reidColorWeight   = 0.7
	reidHeightWeight  = 0.3
	reidColorNorm     = 120.0 // RGB distance at which color similarity hits 0
	reidHeightNorm    = 80.0  // height delta (px) at which similarity hits 0
	reidConfidence    = 0.5   // inferred identity, below any accepted OCR read
	unknownConfidence = 0.3

	// Jersey crop: vertically 20-50% of the bbox, centered 50% of its width.
	jerseyTop       = 0.2
	jerseyBottom    = 0.5
	jerseyWidthFrac = 0.5

	binarizeThreshold = 128
)

// DigitReader is the black-box digit OCR boundary. Implementations read a
// digit string from the given region of a (binarized) frame and report their
// own confidence in [0,1].
type DigitReader interface {
	ReadDigits(ctx context.Context, frame model.Frame, region model.BBox) (string, float64, error)
}

// Tracker resolves player identities and owns the track table for one
// analysis run. It is not safe for concurrent use; the pipeline runs it on a
// single worker.
type Tracker struct {
	reader DigitReader
	log    logger.Logger

	tracks     map[string]*model.PlayerTrack
	unknownSeq int

	framesSinceSweep int
	maxAge           float64
	reidWindow       float64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMaxAge overrides the track garbage-collection age in seconds.
func WithMaxAge(seconds float64) Option {
	return func(t *Tracker) {
		if seconds > 0 {
			t.maxAge = seconds
		}
	}
}

// WithReidWindow overrides the re-identification lastSeen window in seconds.
func WithReidWindow(seconds float64) Option {
	return func(t *Tracker) {
		if seconds > 0 {
			t.reidWindow = seconds
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// NewTracker creates a Tracker. reader may be nil, in which case the OCR path
// is skipped and identities come from re-identification or synthesis only.
func NewTracker(reader DigitReader, opts ...Option) *Tracker {
	t := &Tracker{
		reader:     reader,
		log:        logger.Get().Named("identity"),
		tracks:     make(map[string]*model.PlayerTrack),
		maxAge:     defaultMaxAgeSeconds,
		reidWindow: defaultReidWindow,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ProcessFrame resolves an identity for every detection in the frame set,
// mutating PlayerID in place, and periodically sweeps stale tracks.
func (t *Tracker) ProcessFrame(ctx context.Context, frame model.Frame, set *model.FrameDetectionSet) {
	for i := range set.Detections {
		t.resolve(ctx, frame, &set.Detections[i], set.Timestamp)
	}

	t.framesSinceSweep++
	if t.framesSinceSweep >= sweepInterval {
		t.sweep(set.Timestamp)
		t.framesSinceSweep = 0
	}
}

// Tracks returns the current track table.
func (t *Tracker) Tracks() []*model.PlayerTrack {
	out := make([]*model.PlayerTrack, 0, len(t.tracks))
	for _, tr := range t.tracks {
		out = append(out, tr)
	}
	return out
}

// Track returns the track for a player id, or nil.
func (t *Tracker) Track(playerID string) *model.PlayerTrack {
	return t.tracks[playerID]
}

// resolve applies the three-step identity resolution order.
func (t *Tracker) resolve(ctx context.Context, frame model.Frame, det *model.PersonDetection, ts float64) {
	features := extractFeatures(frame, det.BBox)

	if id, conf, ok := t.readJersey(ctx, frame, det.BBox); ok {
		t.record(id, det, ts, conf, features)
		det.PlayerID = id
		metrics.RecordOCRAccepted()
		return
	}

	if id, ok := t.reidentify(det.TeamID, features, ts); ok {
		t.record(id, det, ts, reidConfidence, features)
		det.PlayerID = id
		metrics.RecordReidMatch()
		return
	}

	t.unknownSeq++
	id := fmt.Sprintf("unknown-%d", t.unknownSeq)
	t.record(id, det, ts, unknownConfidence, features)
	det.PlayerID = id
	metrics.RecordSyntheticIdentity()
}

// readJersey runs the OCR path: crop the jersey sub-region, binarize it, and
// accept a 1-2 digit read above the confidence floor.
func (t *Tracker) readJersey(ctx context.Context, frame model.Frame, box model.BBox) (string, float64, bool) {
	if t.reader == nil || !frame.Valid() {
		return "", 0, false
	}

	region := jerseyRegion(box)
	crop := binarize(frame, region)
	text, conf, err := t.reader.ReadDigits(ctx, crop, region)
	if err != nil {
		t.log.Debug(ctx, "jersey ocr failed", logger.Error(err))
		metrics.RecordOCRRejected()
		return "", 0, false
	}
	if !isJerseyNumber(text) || conf <= ocrMinConfidence {
		metrics.RecordOCRRejected()
		return "", 0, false
	}
	return text, conf, true
}

// record creates or updates the track for id and appends an appearance.
// LastSeen never moves backwards.
func (t *Tracker) record(id string, det *model.PersonDetection, ts, conf float64, f visualFeatures) {
	tr, ok := t.tracks[id]
	if !ok {
		tr = &model.PlayerTrack{PlayerID: id, TeamID: det.TeamID}
		t.tracks[id] = tr
	}
	tr.State = model.TrackStateTracked
	if ts > tr.LastSeen {
		tr.LastSeen = ts
	}
	if tr.TeamID == "" {
		tr.TeamID = det.TeamID
	}
	if f.ok {
		tr.AvgColor = f.avgColor
		tr.Height = f.height
	}
	tr.Appearances = append(tr.Appearances, model.Appearance{
		Timestamp:  ts,
		BBox:       det.BBox,
		Confidence: conf,
	})
}

// reidentify searches existing tracks for the best visual+temporal match.
func (t *Tracker) reidentify(teamID string, f visualFeatures, ts float64) (string, bool) {
	if !f.ok {
		return "", false
	}

	bestID := ""
	bestScore := reidMinScore
	for id, tr := range t.tracks {
		if tr.TeamID != "" && teamID != "" && tr.TeamID != teamID {
			continue
		}
		if ts-tr.LastSeen > t.reidWindow || tr.LastSeen > ts {
			continue
		}
		if tr.Height == 0 && tr.AvgColor == ([3]float64{}) {
			continue // no visual features recorded yet
		}

		colorSim := similarity(rgbDistance(f.avgColor, tr.AvgColor), reidColorNorm)
		heightSim := similarity(math.Abs(f.height-tr.Height), reidHeightNorm)
		score := reidColorWeight*colorSim + reidHeightWeight*heightSim
		if score > bestScore {
			bestScore = score
			bestID = id
		}
	}
	return bestID, bestID != ""
}

// sweep walks the track table: tracked-but-overdue tracks turn stale, stale
// tracks are removed.
func (t *Tracker) sweep(now float64) {
	pruned := 0
	for id, tr := range t.tracks {
		if now-tr.LastSeen <= t.maxAge {
			continue
		}
		if tr.State == model.TrackStateStale {
			delete(t.tracks, id)
			pruned++
			continue
		}
		tr.State = model.TrackStateStale
	}
	if pruned > 0 {
		metrics.RecordTracksPruned(pruned)
	}
	metrics.UpdateActiveTracks(len(t.tracks))
}

// similarity maps a distance onto [0,1]: 1 at zero distance, 0 at or beyond
// the normalizer.
func similarity(distance, norm float64) float64 {
	return 1 - math.Min(distance/norm, 1)
}

func rgbDistance(a, b [3]float64) float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// isJerseyNumber accepts one or two digit strings.
func isJerseyNumber(s string) bool {
	if len(s) < 1 || len(s) > 2 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
