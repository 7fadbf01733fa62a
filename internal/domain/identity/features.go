package identity

import (
	"math"

	"github.com/courtsight/courtsight/internal/domain/model"
)

// featureStride controls how coarsely the bbox is sampled for the mean color.
const featureStride = 6

// visualFeatures are the coarse appearance features used for
// re-identification: mean RGB over a strided sample of the bbox plus the bbox
// height in pixels.
type visualFeatures struct {
	avgColor [3]float64
	height   float64
	ok       bool
}

// extractFeatures samples the bbox on a fixed stride. Invalid frames or
// fully out-of-bounds boxes yield ok=false.
func extractFeatures(frame model.Frame, box model.BBox) visualFeatures {
	if !frame.Valid() || box.W <= 0 || box.H <= 0 {
		return visualFeatures{}
	}

	x0 := int(math.Max(box.X, 0))
	y0 := int(math.Max(box.Y, 0))
	x1 := int(math.Min(box.X+box.W, float64(frame.Width)))
	y1 := int(math.Min(box.Y+box.H, float64(frame.Height)))

	var sum [3]float64
	count := 0
	for y := y0; y < y1; y += featureStride {
		for x := x0; x < x1; x += featureStride {
			r, g, b, ok := frame.RGBAt(x, y)
			if !ok {
				continue
			}
			sum[0] += float64(r)
			sum[1] += float64(g)
			sum[2] += float64(b)
			count++
		}
	}
	if count == 0 {
		return visualFeatures{}
	}
	for i := 0; i < 3; i++ {
		sum[i] /= float64(count)
	}
	return visualFeatures{avgColor: sum, height: box.H, ok: true}
}

// jerseyRegion returns the crop read by the digit OCR: vertically 20-50% of
// the bbox height, horizontally the centered half of its width.
func jerseyRegion(box model.BBox) model.BBox {
	return model.BBox{
		X: box.X + box.W*(1-jerseyWidthFrac)/2,
		Y: box.Y + box.H*jerseyTop,
		W: box.W * jerseyWidthFrac,
		H: box.H * (jerseyBottom - jerseyTop),
	}
}

// binarize produces a copy of the frame where the crop region is reduced to
// black/white by a hard luma threshold, which is what digit OCR expects.
// Pixels outside the region are left untouched.
func binarize(frame model.Frame, region model.BBox) model.Frame {
	out := model.Frame{
		Width:  frame.Width,
		Height: frame.Height,
		Pixels: make([]byte, len(frame.Pixels)),
	}
	copy(out.Pixels, frame.Pixels)

	x0 := int(math.Max(region.X, 0))
	y0 := int(math.Max(region.Y, 0))
	x1 := int(math.Min(region.X+region.W, float64(frame.Width)))
	y1 := int(math.Min(region.Y+region.H, float64(frame.Height)))

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r, g, b, ok := frame.RGBAt(x, y)
			if !ok {
				continue
			}
			// Integer luma approximation of 0.299R + 0.587G + 0.114B.
			gray := (299*int(r) + 587*int(g) + 114*int(b)) / 1000
			var v byte
			if gray >= binarizeThreshold {
				v = 255
			}
			i := (y*out.Width + x) * 4
			out.Pixels[i] = v
			out.Pixels[i+1] = v
			out.Pixels[i+2] = v
			out.Pixels[i+3] = 255
		}
	}
	return out
}
