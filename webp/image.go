package webp

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

// DefaultQuality is the lossy quality used when Options is nil.
const DefaultQuality = 75

// Options controls EncodeImage.
type Options struct {
	Lossless bool
	Quality  float32 // ignored when Lossless is set
}

// FromImage converts m into a packed buffer with the given layout. The
// result does not alias m.
func FromImage(m image.Image, layout Layout) (PixelBuffer, error) {
	if layout.Channels() == 0 {
		return PixelBuffer{}, fmt.Errorf("%w: unknown layout %d", ErrInvalidInput, int(layout))
	}
	b := m.Bounds()
	if b.Empty() {
		return PixelBuffer{}, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	src, ok := m.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) {
		src = imaging.Clone(m)
	}
	p := NewPixelBuffer(b.Dx(), b.Dy(), layout)
	fromNRGBA(p.Pix, src, layout)
	return p, nil
}

// Image returns a copy of p as an image.Image: *image.Gray for Gray and
// *image.NRGBA otherwise.
func (p PixelBuffer) Image() (image.Image, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Layout == Gray {
		img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
		for y := 0; y < p.Height; y++ {
			copy(img.Pix[y*img.Stride:], p.Row(y))
		}
		return img, nil
	}
	return p.toNRGBA(), nil
}

// EncodeImage writes m to w as WebP using the default codec. A nil o means
// lossy at DefaultQuality. Gray images are encoded from their luma so that a
// lossless round trip through Decode(..., Gray) is exact.
func EncodeImage(w io.Writer, m image.Image, o *Options) error {
	if o == nil {
		o = &Options{Quality: DefaultQuality}
	}
	layout := RGBA
	if m.ColorModel() == color.GrayModel {
		layout = Gray
	}
	p, err := FromImage(m, layout)
	if err != nil {
		return err
	}
	var out *Buffer
	if o.Lossless {
		out, err = EncodeLossless(p)
	} else {
		out, err = EncodeLossy(p, o.Quality)
	}
	if err != nil {
		return err
	}
	defer out.Release()
	_, err = w.Write(out.Bytes())
	return err
}

// DecodeImage reads a whole WebP stream from r and returns it as
// *image.NRGBA. Opaque streams get alpha 255.
func DecodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var img image.Image
	err = DecodeFunc(data, RGBA, func(p PixelBuffer) error {
		img = p.toNRGBA()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// configHeaderSize covers the RIFF header plus the longest first chunk
// header that carries dimensions (VP8X).
const configHeaderSize = 30

// DecodeConfig returns the colour model and dimensions of a WebP stream
// after reading only its header.
func DecodeConfig(r io.Reader) (image.Config, error) {
	head := make([]byte, configHeaderSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return image.Config{}, fmt.Errorf("%w: %v", ErrNotWebP, err)
	}
	info, err := Probe(head[:n])
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      info.Width,
		Height:     info.Height,
	}, nil
}
