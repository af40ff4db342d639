// Package engine wraps the external WebP codecs behind one interface.
//
// Every engine exchanges non-premultiplied 8-bit RGBA (*image.NRGBA) with
// the caller; layout conversion and buffer ownership live above this layer.
package engine

import (
	"errors"
	"image"
)

// ErrUnsupported is returned by engines that lack an operation.
var ErrUnsupported = errors.New("engine: operation not supported")

// Engine is a WebP codec implementation.
type Engine interface {
	// Name returns the engine identifier (e.g. "libwebp", "wasm", "cwebp").
	Name() string

	// Available returns true if the engine can be used in this process.
	// Engines backed by external binaries may not be installed.
	Available() bool

	// Decode decodes a complete WebP stream.
	Decode(data []byte) (*image.NRGBA, error)

	// EncodeLossy compresses img with the lossy path at quality 0-100.
	EncodeLossy(img *image.NRGBA, quality float32) ([]byte, error)

	// EncodeLossless compresses img so that decoding reproduces every pixel,
	// including the colour of fully transparent pixels.
	EncodeLossless(img *image.NRGBA) ([]byte, error)
}
