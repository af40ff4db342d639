package engine

import (
	"bytes"
	"fmt"
	"image"

	"github.com/HugoSmits86/nativewebp"
	xwebp "golang.org/x/image/webp"
)

// NativeEngine is pure Go: golang.org/x/image/webp decodes, and
// github.com/HugoSmits86/nativewebp writes VP8L. It has no lossy encoder.
type NativeEngine struct{}

func (e *NativeEngine) Name() string    { return "native" }
func (e *NativeEngine) Available() bool { return true }

func (e *NativeEngine) Decode(data []byte) (*image.NRGBA, error) {
	img, err := xwebp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return toNRGBA(img), nil
}

func (e *NativeEngine) EncodeLossy(*image.NRGBA, float32) ([]byte, error) {
	return nil, fmt.Errorf("%w: native engine has no lossy encoder", ErrUnsupported)
}

func (e *NativeEngine) EncodeLossless(img *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("native encode: %w", err)
	}
	return buf.Bytes(), nil
}
