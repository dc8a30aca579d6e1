package timelapse

import (
	"image"

	"github.com/nfnt/resize"
)

// Normalize stretches frame to exactly width x height with bilinear
// interpolation. A frame that already has the target size is returned as-is.
func Normalize(frame *image.RGBA, width, height int) *image.RGBA {
	b := frame.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return frame
	}
	scaled := resize.Resize(uint(width), uint(height), frame, resize.Bilinear)
	return toRGBA(scaled)
}
