package webp

import (
	"fmt"
	"image"
	"math"

	"github.com/AnyUserName/webpkit/internal/riff"
)

// MaxDimension is the largest width or height WebP can store.
const MaxDimension = riff.MaxDimension

// PixelBuffer is a raw row-major image. Bytes between Width*channels and
// Stride in each row are padding: encoders ignore them, decoders never
// produce them.
type PixelBuffer struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
	Layout Layout
}

// NewPixelBuffer allocates a zeroed, packed buffer.
func NewPixelBuffer(width, height int, layout Layout) PixelBuffer {
	stride := width * layout.Channels()
	return PixelBuffer{
		Pix:    make([]byte, stride*height),
		Width:  width,
		Height: height,
		Stride: stride,
		Layout: layout,
	}
}

// Validate checks the geometry invariants. Failures wrap ErrInvalidInput.
func (p PixelBuffer) Validate() error {
	ch := p.Layout.Channels()
	switch {
	case ch == 0:
		return fmt.Errorf("%w: unknown layout %d", ErrInvalidInput, int(p.Layout))
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("%w: dimensions %dx%d must be positive", ErrInvalidInput, p.Width, p.Height)
	case p.Width > MaxDimension || p.Height > MaxDimension:
		return fmt.Errorf("%w: dimensions %dx%d exceed %d", ErrInvalidInput, p.Width, p.Height, MaxDimension)
	case p.Stride < p.Width*ch:
		return fmt.Errorf("%w: stride %d < width*channels %d", ErrInvalidInput, p.Stride, p.Width*ch)
	case p.Stride > math.MaxInt/p.Height:
		return fmt.Errorf("%w: stride %d overflows", ErrInvalidInput, p.Stride)
	case len(p.Pix) < p.Stride*p.Height:
		return fmt.Errorf("%w: buffer holds %d bytes, need stride*height = %d", ErrInvalidInput, len(p.Pix), p.Stride*p.Height)
	}
	return nil
}

// Row returns the in-range bytes of row y, without padding.
func (p PixelBuffer) Row(y int) []byte {
	off := y * p.Stride
	return p.Pix[off : off+p.Width*p.Layout.Channels()]
}

// toNRGBA copies the in-range pixels into a new straight-alpha image.
// Gray expands to R=G=B, and missing alpha becomes 255.
func (p PixelBuffer) toNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		src := p.Row(y)
		dst := img.Pix[y*img.Stride : y*img.Stride+p.Width*4]
		switch p.Layout {
		case Gray:
			for x, v := range src {
				d := dst[x*4 : x*4+4 : x*4+4]
				d[0], d[1], d[2], d[3] = v, v, v, 0xff
			}
		case RGB:
			for x := 0; x < p.Width; x++ {
				s := src[x*3 : x*3+3 : x*3+3]
				d := dst[x*4 : x*4+4 : x*4+4]
				d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 0xff
			}
		case RGBA:
			copy(dst, src)
		}
	}
	return img
}

// fromNRGBA packs img into dst using layout. dst must hold
// width*height*channels bytes and img must have a zero origin.
func fromNRGBA(dst []byte, img *image.NRGBA, layout Layout) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	ch := layout.Channels()
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		row := dst[y*w*ch : (y+1)*w*ch]
		switch layout {
		case Gray:
			for x := range row {
				s := src[x*4 : x*4+3 : x*4+3]
				row[x] = luma(s[0], s[1], s[2])
			}
		case RGB:
			for x := 0; x < w; x++ {
				s := src[x*4 : x*4+3 : x*4+3]
				d := row[x*3 : x*3+3 : x*3+3]
				d[0], d[1], d[2] = s[0], s[1], s[2]
			}
		case RGBA:
			copy(row, src)
		}
	}
}

// luma is the BT.601 weighting used by image/color.GrayModel. It returns v
// unchanged for r == g == b == v.
func luma(r, g, b uint8) uint8 {
	return uint8((19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16)
}
