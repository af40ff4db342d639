package engine

import (
	"image"

	"github.com/disintegration/imaging"
)

// toNRGBA returns img as a zero-origin *image.NRGBA. NRGBA input is used as
// is; everything else goes through imaging.Clone, which is exact for opaque
// pixels.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
