package teamcolor

import (
	"math"
	"math/rand"
	"time"

	"github.com/courtsight/courtsight/internal/domain/model"
)

// Clustering constants. Iterations are fixed rather than convergence-checked
// so a degenerate sample set cannot stall the pipeline.
const (
	clusterCount        = 2
	kmeansIterations    = 10
	minCentroidDistance = 50.0
)

// Default centroids substituted by callers when clustering is skipped or
// times out: a dark blue and a dark red jersey.
var defaultCentroids = [clusterCount][3]float64{
	{30, 50, 160},
	{170, 40, 40},
}

// Clusterer partitions color samples into two team clusters.
type Clusterer struct {
	rng *rand.Rand
}

// Option configures a Clusterer.
type Option func(*Clusterer)

// WithRand injects a random source for deterministic centroid seeding.
func WithRand(rng *rand.Rand) Option {
	return func(c *Clusterer) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// NewClusterer creates a Clusterer. Without WithRand, seeding is taken from
// the wall clock and repeated runs may pick different initial centroids.
func NewClusterer(opts ...Option) *Clusterer {
	c := &Clusterer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultClusters returns the two hardcoded fallback team clusters used when
// clustering yields nothing.
func DefaultClusters() []model.TeamCluster {
	return []model.TeamCluster{
		{Centroid: defaultCentroids[0], TeamID: model.TeamA},
		{Centroid: defaultCentroids[1], TeamID: model.TeamB},
	}
}

// Cluster runs fixed-iteration Lloyd's k-means (k=2) over the samples in RGB
// space. It never fails: with fewer than two samples it returns an empty
// list and the caller substitutes DefaultClusters. The larger cluster is
// teamA. Centroids closer than the minimum color distance are forced apart
// so the two teams stay visually distinguishable.
func (c *Clusterer) Cluster(samples []model.ColorSample) []model.TeamCluster {
	if len(samples) < clusterCount {
		return nil
	}

	// Seed centroids from two distinct random samples.
	i := c.rng.Intn(len(samples))
	j := c.rng.Intn(len(samples) - 1)
	if j >= i {
		j++
	}
	centroids := [clusterCount][3]float64{
		sampleRGB(samples[i]),
		sampleRGB(samples[j]),
	}

	assignments := make([]int, len(samples))
	for iter := 0; iter < kmeansIterations; iter++ {
		for si, s := range samples {
			assignments[si] = nearestCentroid(centroids[:], sampleRGB(s))
		}

		var sums [clusterCount][3]float64
		var counts [clusterCount]int
		for si, s := range samples {
			a := assignments[si]
			rgb := sampleRGB(s)
			for ch := 0; ch < 3; ch++ {
				sums[a][ch] += rgb[ch]
			}
			counts[a]++
		}
		for ci := 0; ci < clusterCount; ci++ {
			if counts[ci] == 0 {
				continue // keep previous centroid for an emptied cluster
			}
			for ch := 0; ch < 3; ch++ {
				centroids[ci][ch] = sums[ci][ch] / float64(counts[ci])
			}
		}
	}

	clusters := make([]model.TeamCluster, clusterCount)
	for ci := range clusters {
		clusters[ci].Centroid = centroids[ci]
	}
	for si, s := range samples {
		a := assignments[si]
		clusters[a].Samples = append(clusters[a].Samples, s)
	}

	// Larger cluster becomes teamA.
	if len(clusters[1].Samples) > len(clusters[0].Samples) {
		clusters[0], clusters[1] = clusters[1], clusters[0]
	}
	clusters[0].TeamID = model.TeamA
	clusters[1].TeamID = model.TeamB

	separateCentroids(&clusters[0], &clusters[1])
	return clusters
}

// separateCentroids enforces the minimum centroid distance by biasing one
// cluster toward blue and the other toward red along the dominant channel.
func separateCentroids(a, b *model.TeamCluster) {
	for a.CentroidDistance(*b) < minCentroidDistance {
		// Blue is channel 2, red is channel 0.
		a.Centroid[2] = clampChannel(a.Centroid[2] + minCentroidDistance/2)
		a.Centroid[0] = clampChannel(a.Centroid[0] - minCentroidDistance/4)
		b.Centroid[0] = clampChannel(b.Centroid[0] + minCentroidDistance/2)
		b.Centroid[2] = clampChannel(b.Centroid[2] - minCentroidDistance/4)

		// Degenerate case: both pinned at the channel limits. Fall back to
		// the default jersey colors, which satisfy the distance invariant.
		if a.CentroidDistance(*b) < minCentroidDistance &&
			a.Centroid[2] >= 255 && b.Centroid[0] >= 255 {
			a.Centroid = defaultCentroids[0]
			b.Centroid = defaultCentroids[1]
			return
		}
	}
}

func clampChannel(v float64) float64 {
	return math.Max(0, math.Min(255, v))
}

func sampleRGB(s model.ColorSample) [3]float64 {
	return [3]float64{float64(s.R), float64(s.G), float64(s.B)}
}

func nearestCentroid(centroids [][3]float64, rgb [3]float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for i, c := range centroids {
		var sum float64
		for ch := 0; ch < 3; ch++ {
			d := c[ch] - rgb[ch]
			sum += d * d
		}
		if sum < bestDist {
			bestDist = sum
			best = i
		}
	}
	return best
}
