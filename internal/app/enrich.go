package service

import (
	"context"

	"github.com/courtsight/courtsight/internal/domain/identity"
	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/internal/domain/teamcolor"
	"github.com/courtsight/courtsight/pkg/logger"
)

// FrameSource supplies decoded video frames by index. Detection bundles carry
// geometry only, so pixel-dependent enrichment (torso color sampling, jersey
// OCR) needs a source; without one those paths degrade to positional team
// assignment and synthetic identities.
type FrameSource interface {
	FrameAt(ctx context.Context, frameIndex int) (model.Frame, bool)
}

// enricher assigns teams and resolves player identities on a bundle. A fresh
// identity tracker is built per analysis; tracks never leak across videos.
type enricher struct {
	frames     FrameSource
	reader     identity.DigitReader
	maxAge     float64
	reidWindow float64
	log        logger.Logger
}

func (e *enricher) Enrich(ctx context.Context, b *model.DetectionBundle) error {
	clusters := e.clusters(ctx, b)
	assigner := teamcolor.NewAssigner(clusters, b.FrameWidth)
	tracker := identity.NewTracker(e.reader,
		identity.WithMaxAge(e.maxAge),
		identity.WithReidWindow(e.reidWindow),
		identity.WithLogger(e.log))

	for i := range b.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame := e.frameAt(ctx, b.Frames[i].FrameIndex)
		assigner.AssignTeams(frame, &b.Frames[i])
		tracker.ProcessFrame(ctx, frame, &b.Frames[i])
	}
	return nil
}

// clusters runs k-means over all torso samples in the bundle, falling back to
// the default jersey colors when sampling yields too little signal.
func (e *enricher) clusters(ctx context.Context, b *model.DetectionBundle) []model.TeamCluster {
	samples := make([]model.ColorSample, 0)
	for _, set := range b.Frames {
		frame := e.frameAt(ctx, set.FrameIndex)
		if !frame.Valid() {
			continue
		}
		for _, det := range set.Detections {
			samples = append(samples, teamcolor.SampleTorso(frame, det.BBox, set.FrameIndex)...)
		}
	}

	if clusters := teamcolor.NewClusterer().Cluster(samples); clusters != nil {
		return clusters
	}
	e.log.Debug(ctx, "too few torso samples, using default team colors",
		logger.Int("samples", len(samples)))
	return teamcolor.DefaultClusters()
}

func (e *enricher) frameAt(ctx context.Context, frameIndex int) model.Frame {
	if e.frames == nil {
		return model.Frame{}
	}
	frame, ok := e.frames.FrameAt(ctx, frameIndex)
	if !ok {
		return model.Frame{}
	}
	return frame
}
