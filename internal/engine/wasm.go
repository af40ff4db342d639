package engine

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/gen2brain/webp"
	"github.com/rs/zerolog/log"
)

// wasmMethod is the libwebp speed/size trade-off (0=fast, 6=best).
const wasmMethod = 4

// wasmMinQuality is the lowest quality passed to gen2brain/webp, which treats
// quality <= 0 as "use DefaultQuality".
const wasmMinQuality = 1

// WasmEngine runs libwebp compiled to WASM through github.com/gen2brain/webp.
// No CGO or system libraries are required; a system libwebp is picked up
// via purego when present.
type WasmEngine struct{}

func (e *WasmEngine) Name() string { return "wasm" }

func (e *WasmEngine) Available() bool {
	log.Debug().Bool("dynamic", webp.Dynamic() == nil).Msg("wasm engine backend")
	return true
}

// Decode goes through DecodeAll: webp.Decode hands still images back as
// YUV 4:2:0, while the frame path yields straight RGBA samples.
func (e *WasmEngine) Decode(data []byte) (*image.NRGBA, error) {
	anim, err := webp.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(anim.Image) == 0 {
		return nil, fmt.Errorf("wasm decode: no frames")
	}
	return frameToNRGBA(anim.Image[0]), nil
}

// EncodeLossy rounds quality to the integer scale the WASM build accepts.
func (e *WasmEngine) EncodeLossy(img *image.NRGBA, quality float32) ([]byte, error) {
	return e.encode(img, webp.Options{Quality: wasmQuality(quality), Method: wasmMethod})
}

func (e *WasmEngine) EncodeLossless(img *image.NRGBA) ([]byte, error) {
	return e.encode(img, webp.Options{Quality: 100, Lossless: true, Method: wasmMethod, Exact: true})
}

func (e *WasmEngine) encode(img *image.NRGBA, opts webp.Options) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(img.Pix) / 4)
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, fmt.Errorf("wasm encode: %w", err)
	}
	return buf.Bytes(), nil
}

func wasmQuality(quality float32) int {
	q := int(math.Round(float64(quality)))
	if q < wasmMinQuality {
		q = wasmMinQuality
	}
	return q
}

// frameToNRGBA copies a decoded frame out of the WASM memory view. Frames
// arrive as *image.RGBA holding straight samples, so they are relabeled
// rather than converted.
func frameToNRGBA(img image.Image) *image.NRGBA {
	m, ok := img.(*image.RGBA)
	if !ok {
		return toNRGBA(img)
	}
	w, h := m.Rect.Dx(), m.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		i := m.PixOffset(m.Rect.Min.X, m.Rect.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+w*4], m.Pix[i:i+w*4])
	}
	return out
}
