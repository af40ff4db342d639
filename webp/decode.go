package webp

import (
	"fmt"
)

// Decode turns a WebP stream into a packed buffer in the requested layout.
//
// The layout is the caller's choice, not the stream's: RGBA from an opaque
// stream gets alpha 255, RGB drops alpha, Gray is the BT.601 luma of the
// colour. data is only read and may be reused once Decode returns.
//
// On success the caller owns the result and must Release it. On failure the
// error wraps ErrDecode (or ErrInvalidInput / ErrAlloc) and nothing is
// allocated.
func (c *Codec) Decode(data []byte, layout Layout) (*Decoded, error) {
	ch := layout.Channels()
	if ch == 0 {
		return nil, fmt.Errorf("%w: unknown layout %d", ErrInvalidInput, int(layout))
	}
	info, err := Probe(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if info.Animated {
		return nil, fmt.Errorf("%w: animated streams are not supported", ErrDecode)
	}
	if err := c.checkPixels(info.Width, info.Height); err != nil {
		return nil, err
	}

	img, err := c.decodeNRGBA(data, info)
	if err != nil {
		return nil, err
	}

	buf := newBuffer(info.Width * info.Height * ch)
	fromNRGBA(buf.data, img, layout)
	return &Decoded{
		PixelBuffer: PixelBuffer{
			Pix:    buf.data,
			Width:  info.Width,
			Height: info.Height,
			Stride: info.Width * ch,
			Layout: layout,
		},
		buf: buf,
	}, nil
}

// DecodeFunc decodes data, hands the pixels to fn and releases them when fn
// returns, whatever the outcome. fn must not retain p.Pix.
func (c *Codec) DecodeFunc(data []byte, layout Layout, fn func(p PixelBuffer) error) error {
	d, err := c.Decode(data, layout)
	if err != nil {
		return err
	}
	defer d.Release()
	return fn(d.PixelBuffer)
}
