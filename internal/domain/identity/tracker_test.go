package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/courtsight/courtsight/internal/domain/identity"
	"github.com/courtsight/courtsight/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeReader scripts OCR responses and records how often it was called.
type fakeReader struct {
	text  string
	conf  float64
	err   error
	calls int
}

func (f *fakeReader) ReadDigits(_ context.Context, _ model.Frame, _ model.BBox) (string, float64, error) {
	f.calls++
	return f.text, f.conf, f.err
}

func testFrame() model.Frame {
	px := make([]byte, 128*128*4)
	for i := 0; i < 128*128; i++ {
		px[i*4] = 30
		px[i*4+1] = 60
		px[i*4+2] = 200
		px[i*4+3] = 255
	}
	return model.Frame{Width: 128, Height: 128, Pixels: px}
}

func detectionAt(x, y float64) model.FrameDetectionSet {
	return model.FrameDetectionSet{
		FrameIndex: 0,
		Detections: []model.PersonDetection{
			{BBox: model.BBox{X: x, Y: y, W: 40, H: 80}, Confidence: 0.9, TeamID: model.TeamA},
		},
	}
}

func TestTrackerResolution(t *testing.T) {
	ctx := context.Background()

	Convey("Given OCR reads jersey 23 at 70% confidence", t, func() {
		reader := &fakeReader{text: "23", conf: 0.7}
		tr := identity.NewTracker(reader)
		frame := testFrame()
		set := detectionAt(10, 10)
		set.Timestamp = 1.0

		tr.ProcessFrame(ctx, frame, &set)

		Convey("Then the detection and track carry playerId 23", func() {
			So(set.Detections[0].PlayerID, ShouldEqual, "23")
			track := tr.Track("23")
			So(track, ShouldNotBeNil)
			So(track.LastSeen, ShouldEqual, 1.0)
			So(len(track.Appearances), ShouldEqual, 1)
			So(track.Appearances[0].Confidence, ShouldEqual, 0.7)
		})

		Convey("And no synthetic identity was allocated", func() {
			So(len(tr.Tracks()), ShouldEqual, 1)
		})
	})

	Convey("Given OCR fails but a recent matching track exists", t, func() {
		reader := &fakeReader{text: "23", conf: 0.7}
		tr := identity.NewTracker(reader)
		frame := testFrame()

		first := detectionAt(10, 10)
		first.Timestamp = 1.0
		tr.ProcessFrame(ctx, frame, &first)

		// Second sighting: OCR below threshold, same appearance, 2s later.
		reader.conf = 0.3
		second := detectionAt(14, 12)
		second.Timestamp = 3.0
		tr.ProcessFrame(ctx, frame, &second)

		Convey("Then re-identification assigns the existing id at 0.5 confidence", func() {
			So(second.Detections[0].PlayerID, ShouldEqual, "23")
			track := tr.Track("23")
			So(len(track.Appearances), ShouldEqual, 2)
			So(track.Appearances[1].Confidence, ShouldEqual, 0.5)
		})

		Convey("And lastSeen advanced monotonically", func() {
			So(tr.Track("23").LastSeen, ShouldEqual, 3.0)
		})
	})

	Convey("Given OCR errors and no prior tracks", t, func() {
		reader := &fakeReader{err: errors.New("ocr backend down")}
		tr := identity.NewTracker(reader)
		frame := testFrame()
		set := detectionAt(10, 10)
		set.Timestamp = 0.5

		tr.ProcessFrame(ctx, frame, &set)

		Convey("Then a synthetic identity is allocated", func() {
			So(set.Detections[0].PlayerID, ShouldEqual, "unknown-1")
			track := tr.Track("unknown-1")
			So(track, ShouldNotBeNil)
			So(track.Appearances[0].Confidence, ShouldEqual, 0.3)
		})
	})

	Convey("Given a nil reader", t, func() {
		tr := identity.NewTracker(nil)
		frame := testFrame()
		set := detectionAt(10, 10)

		Convey("Then resolution still succeeds via synthesis", func() {
			So(func() { tr.ProcessFrame(ctx, frame, &set) }, ShouldNotPanic)
			So(set.Detections[0].PlayerID, ShouldStartWith, "unknown-")
		})
	})

	Convey("Given re-identification candidates on the other team", t, func() {
		reader := &fakeReader{text: "7", conf: 0.8}
		tr := identity.NewTracker(reader)
		frame := testFrame()

		first := detectionAt(10, 10)
		first.Timestamp = 1.0
		tr.ProcessFrame(ctx, frame, &first) // creates track 7 on teamA

		reader.conf = 0.2
		second := detectionAt(12, 10)
		second.Timestamp = 2.0
		second.Detections[0].TeamID = model.TeamB

		tr.ProcessFrame(ctx, frame, &second)

		Convey("Then the cross-team match is rejected and a new id allocated", func() {
			So(second.Detections[0].PlayerID, ShouldStartWith, "unknown-")
		})
	})
}

func TestTrackerPruning(t *testing.T) {
	ctx := context.Background()

	Convey("Given a track that goes unseen past maxAge", t, func() {
		reader := &fakeReader{text: "11", conf: 0.9}
		tr := identity.NewTracker(reader, identity.WithMaxAge(10))
		frame := testFrame()

		first := detectionAt(10, 10)
		first.Timestamp = 1.0
		tr.ProcessFrame(ctx, frame, &first)
		So(tr.Track("11"), ShouldNotBeNil)

		// Drive enough empty frames past the age limit to trigger two
		// sweeps: the first marks the track stale, the second removes it.
		reader.conf = 0.0
		for i := 0; i < 60; i++ {
			empty := model.FrameDetectionSet{FrameIndex: i + 1, Timestamp: 20.0 + float64(i)}
			tr.ProcessFrame(ctx, frame, &empty)
		}

		Convey("Then the track is garbage collected", func() {
			So(tr.Track("11"), ShouldBeNil)
		})
	})
}

func TestMergeJerseyDetections(t *testing.T) {
	Convey("Given a base stream and an identity-tagged stream", t, func() {
		base := []model.FrameDetectionSet{
			{
				FrameIndex: 1,
				Timestamp:  0.5,
				Detections: []model.PersonDetection{
					{BBox: model.BBox{X: 100, Y: 100, W: 40, H: 80}},
					{BBox: model.BBox{X: 400, Y: 100, W: 40, H: 80}},
				},
			},
		}
		tagged := []model.FrameDetectionSet{
			{
				FrameIndex: 1,
				Detections: []model.PersonDetection{
					{BBox: model.BBox{X: 110, Y: 105, W: 42, H: 78}, PlayerID: "23"},
					// Too far from anything in the base stream.
					{BBox: model.BBox{X: 600, Y: 300, W: 40, H: 80}, PlayerID: "9"},
				},
			},
		}

		merged := identity.MergeJerseyDetections(base, tagged)

		Convey("Then identities attach by nearest centroid within 50px", func() {
			So(merged[0].Detections[0].PlayerID, ShouldEqual, "23")
			So(merged[0].Detections[1].PlayerID, ShouldEqual, "")
		})

		Convey("Then the base stream is not mutated", func() {
			So(base[0].Detections[0].PlayerID, ShouldEqual, "")
		})

		Convey("Then merging twice is idempotent", func() {
			again := identity.MergeJerseyDetections(merged, tagged)
			So(again, ShouldResemble, merged)
		})
	})
}
