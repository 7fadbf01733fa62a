package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/courtsight/courtsight/internal/app"
	"github.com/courtsight/courtsight/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// waitDone polls until the analysis leaves the queue and worker.
func waitDone(t *testing.T, svc *service.Service, id string) service.Status {
	t.Helper()

	ctx := context.Background()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st, err := svc.Status(ctx, id)
		if err == nil && (st.State == service.StateDone || st.State == service.StateFailed) {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("analysis %s did not finish", id)
	return service.Status{}
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithQueueSize(8))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("When a detection-free bundle is submitted", func() {
			id, dup, err := svc.Submit(ctx, "game-1", model.DetectionBundle{Duration: 120})
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)
			So(id, ShouldEqual, "game-1")

			st := waitDone(t, svc, id)

			Convey("Then the analysis completes with a fallback timeline", func() {
				So(st.State, ShouldEqual, service.StateDone)
				So(st.EventCount, ShouldEqual, 6)
			})

			Convey("Then the timeline is readable and ordered", func() {
				events, err := svc.Events(ctx, id)
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 6)
				for i := 1; i < len(events); i++ {
					So(events[i].Timestamp, ShouldBeGreaterThanOrEqualTo, events[i-1].Timestamp)
				}
				for _, ev := range events {
					So(ev.Source, ShouldEqual, model.SourceFallback)
				}
			})

			Convey("Then range reads slice the timeline", func() {
				half, err := svc.EventsInRange(ctx, id, 0, 60)
				So(err, ShouldBeNil)
				So(len(half), ShouldEqual, 3)
			})

			Convey("Then highlights are available", func() {
				clips, err := svc.Highlights(ctx, id, service.HighlightQuery{})
				So(err, ShouldBeNil)
				So(len(clips), ShouldEqual, 6)

				top, err := svc.Highlights(ctx, id, service.HighlightQuery{Top: 2})
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
			})

			Convey("Then resubmitting the same id reports a duplicate", func() {
				id2, dup2, err := svc.Submit(ctx, "game-1", model.DetectionBundle{Duration: 120})
				So(err, ShouldBeNil)
				So(dup2, ShouldBeTrue)
				So(id2, ShouldEqual, "game-1")
			})
		})

		Convey("When submitting without an id", func() {
			id, dup, err := svc.Submit(ctx, "", model.DetectionBundle{Duration: 40})
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)

			Convey("Then one is generated", func() {
				So(id, ShouldNotBeEmpty)
				st := waitDone(t, svc, id)
				So(st.State, ShouldEqual, service.StateDone)
			})
		})

		Convey("When reading results for an unknown analysis", func() {
			_, err := svc.Events(ctx, "never-submitted")

			Convey("Then the error names the unknown id", func() {
				So(errors.Is(err, service.ErrUnknownAnalysis), ShouldBeTrue)
			})
		})

		Convey("When checking readiness", func() {
			So(svc.Ready(), ShouldBeTrue)
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then submissions are rejected", func() {
			_, _, err := svc.Submit(ctx, "game-1", model.DetectionBundle{Duration: 60})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.Ready(), ShouldBeFalse)
		})
	})
}

func TestServiceWithDetections(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service processing a bundle with real signals", t, func() {
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		bundle := model.DetectionBundle{
			Duration:   60,
			FrameRate:  2,
			FrameWidth: 640,
			Frames: []model.FrameDetectionSet{
				{FrameIndex: 0, Timestamp: 0, Detections: []model.PersonDetection{
					{BBox: model.BBox{X: 50, Y: 100, W: 40, H: 80}, Confidence: 0.9},
					{BBox: model.BBox{X: 500, Y: 100, W: 40, H: 80}, Confidence: 0.9},
				}},
			},
			ScoreReads: []model.ScoreboardRead{
				{Timestamp: 5, Text: "10-8", Confidence: 0.9},
				{Timestamp: 20, Text: "12-8", Confidence: 0.9},
			},
		}

		id, _, err := svc.Submit(ctx, "game-real", bundle)
		So(err, ShouldBeNil)
		st := waitDone(t, svc, id)

		Convey("Then the scoreboard delta produces a score event", func() {
			So(st.State, ShouldEqual, service.StateDone)

			events, err := svc.Events(ctx, id)
			So(err, ShouldBeNil)
			So(len(events), ShouldEqual, 1)
			So(events[0].Type, ShouldEqual, model.EventScore)
			So(events[0].Source, ShouldEqual, model.SourceScoreboard)
			So(events[0].TeamID, ShouldEqual, model.TeamA)
		})

		Convey("Then the detections were team-assigned positionally", func() {
			// Left-half player lands on teamA, right-half on teamB; with no
			// pixels to sample the assigner falls back to court position.
			events, _ := svc.Events(ctx, id)
			So(len(events), ShouldBeGreaterThan, 0)
		})
	})
}
