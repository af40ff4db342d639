//go:build cgo

package engine

import (
	"image"

	cwebp "github.com/chai2010/webp"
)

// LibwebpEngine links libwebp through cgo (github.com/chai2010/webp).
type LibwebpEngine struct{}

func (e *LibwebpEngine) Name() string    { return "libwebp" }
func (e *LibwebpEngine) Available() bool { return true }

// Decode uses the RGBA entry point. libwebp fills it with straight
// (non-premultiplied) samples even though the container type is image.RGBA.
func (e *LibwebpEngine) Decode(data []byte) (*image.NRGBA, error) {
	m, err := cwebp.DecodeRGBA(data)
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{
		Pix:    m.Pix,
		Stride: m.Stride,
		Rect:   image.Rect(0, 0, m.Rect.Dx(), m.Rect.Dy()),
	}, nil
}

func (e *LibwebpEngine) EncodeLossy(img *image.NRGBA, quality float32) ([]byte, error) {
	return cwebp.EncodeRGBA(asRGBA(img), quality)
}

func (e *LibwebpEngine) EncodeLossless(img *image.NRGBA) ([]byte, error) {
	return cwebp.EncodeLosslessRGBA(asRGBA(img))
}

// asRGBA relabels the NRGBA samples so they reach libwebp's RGBA importer
// without a premultiply pass.
func asRGBA(img *image.NRGBA) *image.RGBA {
	return &image.RGBA{Pix: img.Pix, Stride: img.Stride, Rect: img.Rect}
}
