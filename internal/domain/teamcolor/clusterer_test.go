package teamcolor_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/internal/domain/teamcolor"
	. "github.com/smartystreets/goconvey/convey"
)

func sample(r, g, b uint8) model.ColorSample {
	return model.ColorSample{R: r, G: g, B: b}
}

func newDeterministicClusterer() *teamcolor.Clusterer {
	return teamcolor.NewClusterer(teamcolor.WithRand(rand.New(rand.NewSource(42))))
}

func TestClusterer(t *testing.T) {
	Convey("Given fewer than two color samples", t, func() {
		c := newDeterministicClusterer()

		Convey("Then clustering returns an empty list, not an error", func() {
			So(c.Cluster(nil), ShouldBeNil)
			So(c.Cluster([]model.ColorSample{sample(10, 20, 30)}), ShouldBeNil)
		})
	})

	Convey("Given two well separated jersey colors", t, func() {
		c := newDeterministicClusterer()
		var samples []model.ColorSample
		for i := 0; i < 5; i++ {
			d := uint8(i * 2)
			samples = append(samples, sample(d, 50+d, 200-d)) // blue-ish
			samples = append(samples, sample(200-d, d, 5+d))  // red-ish
		}

		clusters := c.Cluster(samples)

		Convey("Then exactly two clusters come back", func() {
			So(len(clusters), ShouldEqual, 2)
			So(clusters[0].TeamID, ShouldEqual, model.TeamA)
			So(clusters[1].TeamID, ShouldEqual, model.TeamB)
		})

		Convey("Then the centroids approximate the two input colors", func() {
			// One centroid close to blue-ish, the other to red-ish.
			blue := [3]float64{0, 50, 200}
			red := [3]float64{200, 0, 5}
			first, second := clusters[0].Centroid, clusters[1].Centroid
			if rgbDist(first, blue) > rgbDist(first, red) {
				first, second = second, first
			}
			So(rgbDist(first, blue), ShouldBeLessThan, 30)
			So(rgbDist(second, red), ShouldBeLessThan, 30)
		})

		Convey("Then the centroids satisfy the minimum distance invariant", func() {
			So(clusters[0].CentroidDistance(clusters[1]), ShouldBeGreaterThanOrEqualTo, 50)
		})

		Convey("Then every sample belongs to one of the clusters", func() {
			So(len(clusters[0].Samples)+len(clusters[1].Samples), ShouldEqual, len(samples))
		})
	})

	Convey("Given a degenerate single-color sample set", t, func() {
		c := newDeterministicClusterer()
		var samples []model.ColorSample
		for i := 0; i < 12; i++ {
			samples = append(samples, sample(120, 120, 120))
		}

		clusters := c.Cluster(samples)

		Convey("Then collision resolution still forces distinct team colors", func() {
			So(len(clusters), ShouldEqual, 2)
			So(clusters[0].CentroidDistance(clusters[1]), ShouldBeGreaterThanOrEqualTo, 50)
		})
	})

	Convey("Given the default fallback clusters", t, func() {
		clusters := teamcolor.DefaultClusters()

		Convey("Then they are two distinct teams at least 50 apart", func() {
			So(len(clusters), ShouldEqual, 2)
			So(clusters[0].TeamID, ShouldEqual, model.TeamA)
			So(clusters[1].TeamID, ShouldEqual, model.TeamB)
			So(clusters[0].CentroidDistance(clusters[1]), ShouldBeGreaterThanOrEqualTo, 50)
		})
	})
}

func rgbDist(a, b [3]float64) float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
