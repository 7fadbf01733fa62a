package model

// Frame is a decoded RGBA pixel buffer for one sampled video frame. Frames
// are supplied by the external frame-sampling component and read only by the
// color sampler and the jersey OCR crop.
type Frame struct {
	Width  int
	Height int
	Pixels []byte // RGBA, row-major, 4 bytes per pixel
}

// Valid reports whether the frame has sane dimensions and a complete buffer.
// Invalid frames are skipped, never fatal.
func (f Frame) Valid() bool {
	return f.Width > 0 && f.Height > 0 && len(f.Pixels) >= f.Width*f.Height*4
}

// RGBAt returns the color at (x, y). The second return is false when the
// coordinate is out of bounds or the frame is invalid.
func (f Frame) RGBAt(x, y int) (r, g, b uint8, ok bool) {
	if !f.Valid() || x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0, 0, 0, false
	}
	i := (y*f.Width + x) * 4
	return f.Pixels[i], f.Pixels[i+1], f.Pixels[i+2], true
}
