package teamcolor_test

import (
	"testing"

	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/internal/domain/teamcolor"
	. "github.com/smartystreets/goconvey/convey"
)

// solidFrame builds a frame filled with one RGBA color.
func solidFrame(w, h int, r, g, b uint8) model.Frame {
	px := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		px[i*4] = r
		px[i*4+1] = g
		px[i*4+2] = b
		px[i*4+3] = 255
	}
	return model.Frame{Width: w, Height: h, Pixels: px}
}

func TestSampleTorso(t *testing.T) {
	Convey("Given a frame of saturated blue", t, func() {
		frame := solidFrame(64, 64, 20, 40, 220)
		box := model.BBox{X: 8, Y: 8, W: 40, H: 48}

		Convey("Then torso sampling yields samples with HSV populated", func() {
			samples := teamcolor.SampleTorso(frame, box, 3)
			So(len(samples), ShouldBeGreaterThan, 0)
			So(samples[0].FrameIndex, ShouldEqual, 3)
			So(samples[0].B, ShouldEqual, 220)
			So(samples[0].S, ShouldBeGreaterThan, 0.1)
		})
	})

	Convey("Given frames that should be filtered out entirely", t, func() {
		box := model.BBox{X: 0, Y: 0, W: 32, H: 32}

		Convey("Near-black frames yield no samples", func() {
			So(teamcolor.SampleTorso(solidFrame(32, 32, 10, 10, 10), box, 0), ShouldBeEmpty)
		})

		Convey("Near-white frames yield no samples", func() {
			So(teamcolor.SampleTorso(solidFrame(32, 32, 250, 250, 250), box, 0), ShouldBeEmpty)
		})

		Convey("Desaturated gray frames yield no samples", func() {
			So(teamcolor.SampleTorso(solidFrame(32, 32, 128, 128, 130), box, 0), ShouldBeEmpty)
		})

		Convey("Skin-toned frames yield no samples", func() {
			So(teamcolor.SampleTorso(solidFrame(32, 32, 210, 170, 150), box, 0), ShouldBeEmpty)
		})

		Convey("Invalid frames yield no samples", func() {
			So(teamcolor.SampleTorso(model.Frame{}, box, 0), ShouldBeEmpty)
		})
	})
}

func TestAssigner(t *testing.T) {
	clusters := []model.TeamCluster{
		{Centroid: [3]float64{20, 40, 220}, TeamID: model.TeamA},
		{Centroid: [3]float64{220, 30, 30}, TeamID: model.TeamB},
	}

	Convey("Given well-formed clusters and a blue-jersey detection", t, func() {
		a := teamcolor.NewAssigner(clusters, 640)
		frame := solidFrame(64, 64, 25, 45, 210)
		set := model.FrameDetectionSet{
			FrameIndex: 1,
			Timestamp:  0.5,
			Detections: []model.PersonDetection{
				{BBox: model.BBox{X: 4, Y: 4, W: 40, H: 56}, Confidence: 0.9},
			},
		}

		Convey("Then the detection is assigned by nearest centroid", func() {
			a.AssignTeams(frame, &set)
			So(set.Detections[0].TeamID, ShouldEqual, model.TeamA)
		})
	})

	Convey("Given no clusters", t, func() {
		a := teamcolor.NewAssigner(nil, 640)
		frame := solidFrame(64, 64, 25, 45, 210)
		set := model.FrameDetectionSet{
			Detections: []model.PersonDetection{
				{BBox: model.BBox{X: 10, Y: 10, W: 40, H: 60}},  // center x = 30
				{BBox: model.BBox{X: 500, Y: 10, W: 40, H: 60}}, // center x = 520
			},
		}

		Convey("Then assignment falls back to court side relative to frame width", func() {
			a.AssignTeams(frame, &set)
			So(set.Detections[0].TeamID, ShouldEqual, model.TeamA)
			So(set.Detections[1].TeamID, ShouldEqual, model.TeamB)
		})
	})

	Convey("Given clusters but a frame whose pixels all fail the filter", t, func() {
		a := teamcolor.NewAssigner(clusters, 640)
		frame := solidFrame(64, 64, 5, 5, 5)
		set := model.FrameDetectionSet{
			Detections: []model.PersonDetection{
				{BBox: model.BBox{X: 400, Y: 0, W: 60, H: 60}},
			},
		}

		Convey("Then the positional fallback decides the team", func() {
			a.AssignTeams(frame, &set)
			So(set.Detections[0].TeamID, ShouldEqual, model.TeamB)
		})
	})
}
