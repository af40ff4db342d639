//go:build !cgo

package engine

import (
	"fmt"
	"image"
)

// LibwebpEngine is unavailable without CGO.
type LibwebpEngine struct{}

func (e *LibwebpEngine) Name() string    { return "libwebp" }
func (e *LibwebpEngine) Available() bool { return false }

func (e *LibwebpEngine) Decode([]byte) (*image.NRGBA, error) {
	return nil, errNoCgo
}

func (e *LibwebpEngine) EncodeLossy(*image.NRGBA, float32) ([]byte, error) {
	return nil, errNoCgo
}

func (e *LibwebpEngine) EncodeLossless(*image.NRGBA) ([]byte, error) {
	return nil, errNoCgo
}

var errNoCgo = fmt.Errorf("%w: libwebp engine requires CGO (build with CGO_ENABLED=1)", ErrUnsupported)
