// Package webp converts between WebP streams and raw pixel buffers.
//
// The bit-level codec is an external engine (libwebp through cgo, libwebp
// compiled to WASM, the cwebp/dwebp tools, or a pure-Go decoder plus
// lossless writer). This package owns what sits around it: header probing,
// geometry validation, the Gray/RGB/RGBA layouts, and the lifetime of every
// buffer it hands back.
//
// Buffers returned by Decode, EncodeLossy and EncodeLossless belong to the
// caller and are released exactly once:
//
//	out, err := webp.EncodeLossless(pix)
//	if err != nil {
//		return err
//	}
//	defer out.Release()
//	_, err = w.Write(out.Bytes())
package webp

import (
	"fmt"
	"image"
	"sync"

	"github.com/AnyUserName/webpkit/internal/engine"
)

// DefaultMaxPixels is the pixel budget when none is configured: the full
// WebP canvas.
const DefaultMaxPixels = MaxDimension * MaxDimension

// Codec binds an engine and limits. It holds no per-call state and is safe
// for concurrent use.
type Codec struct {
	engine    engine.Engine
	maxPixels int
}

type options struct {
	engine    string
	maxPixels int
}

// Option configures a Codec.
type Option func(*options)

// WithEngine selects an engine by name ("libwebp", "wasm", "cwebp",
// "native"). Empty or "auto" picks the most preferred available one.
func WithEngine(name string) Option {
	return func(o *options) { o.engine = name }
}

// WithMaxPixels caps width*height for every result. Larger requests fail
// with ErrAlloc before anything is allocated.
func WithMaxPixels(n int) Option {
	return func(o *options) { o.maxPixels = n }
}

var registry = sync.OnceValue(engine.NewRegistry)

// New creates a codec.
func New(opts ...Option) (*Codec, error) {
	o := options{maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxPixels <= 0 {
		return nil, fmt.Errorf("%w: max pixels %d must be positive", ErrInvalidInput, o.maxPixels)
	}
	e, err := registry().Resolve(o.engine)
	if err != nil {
		return nil, err
	}
	return &Codec{engine: e, maxPixels: o.maxPixels}, nil
}

// Engine returns the name of the engine in use.
func (c *Codec) Engine() string { return c.engine.Name() }

// Engines lists the engines available in this process, most preferred first.
func Engines() []string { return registry().Available() }

// checkPixels enforces the pixel budget.
func (c *Codec) checkPixels(width, height int) error {
	if width*height > c.maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds the %d pixel limit", ErrAlloc, width, height, c.maxPixels)
	}
	return nil
}

// decodeNRGBA runs the engine decoder and checks the result against the
// probed geometry.
func (c *Codec) decodeNRGBA(data []byte, info ImageInfo) (*image.NRGBA, error) {
	img, err := safeCall(func() (*image.NRGBA, error) { return c.engine.Decode(data) })
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, c.engine.Name(), err)
	}
	if img == nil || img.Rect.Dx() != info.Width || img.Rect.Dy() != info.Height {
		return nil, fmt.Errorf("%w: %s produced wrong geometry for %dx%d stream", ErrDecode, c.engine.Name(), info.Width, info.Height)
	}
	return img, nil
}

var defaultCodec = sync.OnceValues(func() (*Codec, error) { return New() })

// Decode decodes with the default codec. See Codec.Decode.
func Decode(data []byte, layout Layout) (*Decoded, error) {
	c, err := defaultCodec()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return c.Decode(data, layout)
}

// DecodeFunc decodes with the default codec. See Codec.DecodeFunc.
func DecodeFunc(data []byte, layout Layout, fn func(PixelBuffer) error) error {
	c, err := defaultCodec()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return c.DecodeFunc(data, layout, fn)
}

// EncodeLossy encodes with the default codec. See Codec.EncodeLossy.
func EncodeLossy(p PixelBuffer, quality float32) (*Buffer, error) {
	c, err := defaultCodec()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return c.EncodeLossy(p, quality)
}

// EncodeLossless encodes with the default codec. See Codec.EncodeLossless.
func EncodeLossless(p PixelBuffer) (*Buffer, error) {
	c, err := defaultCodec()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return c.EncodeLossless(p)
}
