package testfeed

import (
	"strconv"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerateBundle(t *testing.T) {
	Convey("Given a two minute scripted game", t, func() {
		bundle := GenerateBundle(120, 2, 1280)

		Convey("Then every sampled frame carries both squads", func() {
			So(len(bundle.Frames), ShouldEqual, 240)
			for _, frame := range bundle.Frames {
				So(len(frame.Detections), ShouldEqual, 2*playersPerTeam)
			}
		})

		Convey("Then the squads hold opposite halves of the frame", func() {
			frame := bundle.Frames[0]
			left, right := 0, 0
			for _, d := range frame.Detections {
				if d.BBox.CenterX() < 640 {
					left++
				} else {
					right++
				}
			}
			So(left, ShouldEqual, playersPerTeam)
			So(right, ShouldEqual, playersPerTeam)
		})

		Convey("Then the ball reaches the rim at the end of a shot flight", func() {
			// First scripted shot releases at 20s and lands at 21.5s,
			// which is frame index 43 at two frames per second.
			ball := bundle.Balls[43]
			So(ball.Timestamp, ShouldEqual, 21.5)
			So(ball.BBox.X, ShouldAlmostEqual, hoopMargin+hoopBoxWidth/2, 0.001)
			So(ball.BBox.Y, ShouldAlmostEqual, hoopY, 0.001)
		})

		Convey("Then a release pose accompanies every scripted shot", func() {
			So(len(bundle.Poses), ShouldEqual, 5)
			for _, pose := range bundle.Poses {
				wrist, ok := pose.Keypoint("wrist")
				So(ok, ShouldBeTrue)
				shoulder, ok := pose.Keypoint("shoulder")
				So(ok, ShouldBeTrue)
				So(wrist.Y, ShouldBeLessThan, shoulder.Y)
			}
		})

		Convey("Then scoreboard reads never decrease", func() {
			So(len(bundle.ScoreReads), ShouldEqual, 24)
			So(bundle.ScoreReads[0].Text, ShouldEqual, "0-0")
			prevLeft, prevRight := 0, 0
			for _, read := range bundle.ScoreReads {
				parts := strings.Split(read.Text, "-")
				So(len(parts), ShouldEqual, 2)
				left, err := strconv.Atoi(parts[0])
				So(err, ShouldBeNil)
				right, err := strconv.Atoi(parts[1])
				So(err, ShouldBeNil)
				So(left, ShouldBeGreaterThanOrEqualTo, prevLeft)
				So(right, ShouldBeGreaterThanOrEqualTo, prevRight)
				prevLeft, prevRight = left, right
			}
			So(prevLeft+prevRight, ShouldBeGreaterThan, 0)
		})

		Convey("Then both hoops appear in the sightings", func() {
			So(len(bundle.Hoops), ShouldEqual, 48)
			So(bundle.Hoops[0].BBox.X, ShouldEqual, hoopMargin)
			So(bundle.Hoops[1].BBox.X, ShouldEqual, 1280-hoopMargin-hoopBoxWidth)
		})
	})

	Convey("Given degenerate generation parameters", t, func() {
		Convey("When the frame rate and width are zero", func() {
			bundle := GenerateBundle(30, 0, 0)

			Convey("Then defaults keep the bundle usable", func() {
				So(bundle.FrameRate, ShouldEqual, 2.0)
				So(bundle.FrameWidth, ShouldEqual, 1280.0)
				So(len(bundle.Frames), ShouldEqual, 60)
			})
		})

		Convey("When the video is too short for a shot", func() {
			bundle := GenerateBundle(10, 2, 1280)

			Convey("Then no poses are scripted", func() {
				So(len(bundle.Poses), ShouldEqual, 0)
			})
		})
	})
}
