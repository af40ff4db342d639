package webp

import (
	"fmt"
	"image"
	"math"
)

// Quality bounds for EncodeLossy. Values outside are rejected, not clamped.
const (
	MinQuality = 0
	MaxQuality = 100
)

// EncodeLossy compresses p with the lossy path. quality runs from 0
// (smallest) to 100 (best); larger values give larger streams in the usual
// case but that is not guaranteed for every image.
//
// Invalid geometry or quality fails with ErrInvalidInput before anything is
// allocated. Engine failures wrap ErrEncode. The caller owns and must Release
// the returned buffer.
func (c *Codec) EncodeLossy(p PixelBuffer, quality float32) (*Buffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(float64(quality)) || quality < MinQuality || quality > MaxQuality {
		return nil, fmt.Errorf("%w: quality %v outside [%d, %d]", ErrInvalidInput, quality, MinQuality, MaxQuality)
	}
	return c.encode(p, "lossy", func(img *image.NRGBA) ([]byte, error) {
		return c.engine.EncodeLossy(img, quality)
	})
}

// EncodeLossless compresses p so that decoding with the same layout gives
// back every in-range byte. Row padding is not kept.
func (c *Codec) EncodeLossless(p PixelBuffer) (*Buffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return c.encode(p, "lossless", c.engine.EncodeLossless)
}

func (c *Codec) encode(p PixelBuffer, mode string, fn func(*image.NRGBA) ([]byte, error)) (*Buffer, error) {
	if err := c.checkPixels(p.Width, p.Height); err != nil {
		return nil, err
	}
	img := p.toNRGBA()
	data, err := safeCall(func() ([]byte, error) { return fn(img) })
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrEncode, c.engine.Name(), mode, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s %s: empty output", ErrEncode, c.engine.Name(), mode)
	}
	return ownBuffer(data), nil
}
