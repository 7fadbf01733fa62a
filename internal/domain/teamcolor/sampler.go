// Package teamcolor clusters jersey colors into two teams and assigns each
// person detection to the nearest team.
package teamcolor

import (
	"math"

	"github.com/courtsight/courtsight/internal/domain/model"
)

// Sampling constants. Only the upper portion of a person box is sampled so
// readings come from the torso rather than shorts, legs or floor.
const (
	torsoFraction  = 0.6 // top 60% of the bbox
	sampleStride   = 4   // pixels between samples in both axes
	minValue       = 0.2
	maxValue       = 0.95
	minSaturation  = 0.1
	skinSaturation = 0.3
	skinHueLow     = 30.0
	skinHueHigh    = 330.0
)

// SampleTorso extracts filtered color samples from the torso region of the
// given person bbox. Skin tones, near-black/near-white pixels and grayscale
// noise are rejected. An invalid frame yields no samples.
func SampleTorso(frame model.Frame, box model.BBox, frameIndex int) []model.ColorSample {
	if !frame.Valid() || box.W <= 0 || box.H <= 0 {
		return nil
	}

	x0 := int(math.Max(box.X, 0))
	y0 := int(math.Max(box.Y, 0))
	x1 := int(math.Min(box.X+box.W, float64(frame.Width)))
	y1 := int(math.Min(box.Y+box.H*torsoFraction, float64(frame.Height)))

	var samples []model.ColorSample
	for y := y0; y < y1; y += sampleStride {
		for x := x0; x < x1; x += sampleStride {
			r, g, b, ok := frame.RGBAt(x, y)
			if !ok {
				continue
			}
			h, s, v := rgbToHSV(r, g, b)
			if !acceptable(h, s, v) {
				continue
			}
			samples = append(samples, model.ColorSample{
				R: r, G: g, B: b,
				H: h, S: s, V: v,
				FrameIndex: frameIndex,
				BBox:       box,
			})
		}
	}
	return samples
}

// acceptable implements the color pre-filter: reject skin-toned, too dark,
// too bright, and desaturated pixels.
func acceptable(h, s, v float64) bool {
	if v < minValue || v > maxValue {
		return false
	}
	if s < minSaturation {
		return false
	}
	if (h <= skinHueLow || h >= skinHueHigh) && s < skinSaturation {
		return false
	}
	return true
}

// rgbToHSV converts 8-bit RGB to hue [0,360), saturation and value [0,1].
func rgbToHSV(r, g, b uint8) (h, s, v float64) {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255

	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	delta := maxC - minC

	v = maxC
	if maxC > 0 {
		s = delta / maxC
	}
	if delta == 0 {
		return 0, s, v
	}

	switch maxC {
	case rf:
		h = 60 * math.Mod((gf-bf)/delta, 6)
	case gf:
		h = 60 * ((bf-rf)/delta + 2)
	default:
		h = 60 * ((rf-gf)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}
