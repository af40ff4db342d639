package webp

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/webpkit/internal/engine"
)

// pattern fills p with a deterministic opaque texture.
func pattern(w, h int, layout Layout) PixelBuffer {
	p := NewPixelBuffer(w, h, layout)
	for y := 0; y < h; y++ {
		row := p.Row(y)
		for i := range row {
			row[i] = byte(i*31 + y*17 + (i*y)%7)
		}
		if layout == RGBA {
			for x := 0; x < w; x++ {
				row[x*4+3] = 0xff
			}
		}
	}
	return p
}

// padded copies p into a buffer with extra bytes at the end of every row.
func padded(p PixelBuffer, extra int) PixelBuffer {
	q := PixelBuffer{
		Width:  p.Width,
		Height: p.Height,
		Stride: p.Stride + extra,
		Layout: p.Layout,
	}
	q.Pix = bytes.Repeat([]byte{0xAB}, q.Stride*q.Height)
	for y := 0; y < p.Height; y++ {
		copy(q.Pix[y*q.Stride:], p.Row(y))
	}
	return q
}

func encodeLossless(t *testing.T, p PixelBuffer) []byte {
	t.Helper()
	out, err := EncodeLossless(p)
	require.NoError(t, err)
	data := bytes.Clone(out.Bytes())
	require.NoError(t, out.Release())
	return data
}

// eachEngine runs fn against a codec for every engine available on this
// machine.
func eachEngine(t *testing.T, fn func(t *testing.T, c *Codec)) {
	t.Helper()
	for _, name := range Engines() {
		t.Run(name, func(t *testing.T) {
			c, err := New(WithEngine(name))
			require.NoError(t, err)
			fn(t, c)
		})
	}
}

func encodeLosslessWith(t *testing.T, c *Codec, p PixelBuffer) []byte {
	t.Helper()
	out, err := c.EncodeLossless(p)
	require.NoError(t, err)
	data := bytes.Clone(out.Bytes())
	require.NoError(t, out.Release())
	return data
}

// encodeLossyWith skips the test on engines without a lossy encoder.
func encodeLossyWith(t *testing.T, c *Codec, p PixelBuffer, quality float32) []byte {
	t.Helper()
	out, err := c.EncodeLossy(p, quality)
	if errors.Is(err, engine.ErrUnsupported) {
		t.Skipf("%s: lossy encoding not supported", c.Engine())
	}
	require.NoError(t, err, "quality %v", quality)
	data := bytes.Clone(out.Bytes())
	require.NoError(t, out.Release())
	return data
}

func TestLosslessRoundTrip(t *testing.T) {
	eachEngine(t, func(t *testing.T, c *Codec) {
		for _, layout := range []Layout{Gray, RGB, RGBA} {
			for _, extra := range []int{0, 3} {
				t.Run(fmt.Sprintf("%s/pad%d", layout, extra), func(t *testing.T) {
					want := pattern(13, 5, layout)
					data := encodeLosslessWith(t, c, padded(want, extra))

					got, err := c.Decode(data, layout)
					require.NoError(t, err)
					defer got.Release()

					assert.Equal(t, want.Width, got.Width)
					assert.Equal(t, want.Height, got.Height)
					assert.Equal(t, want.Stride, got.Stride, "decoded output is packed")
					assert.Equal(t, want.Pix, got.Pix)
				})
			}
		}
	})
}

func TestLosslessRoundTripTranslucent(t *testing.T) {
	p := NewPixelBuffer(4, 3, RGBA)
	for i := 0; i < len(p.Pix); i += 4 {
		p.Pix[i], p.Pix[i+1], p.Pix[i+2], p.Pix[i+3] = byte(i), byte(255-i), byte(i*3), byte(32+i*4)
	}

	eachEngine(t, func(t *testing.T, c *Codec) {
		data := encodeLosslessWith(t, c, p)

		info, err := c.Probe(data)
		require.NoError(t, err)
		assert.True(t, info.HasAlpha)

		err = c.DecodeFunc(data, RGBA, func(got PixelBuffer) error {
			assert.Equal(t, p.Pix, got.Pix)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestFourColorSquare(t *testing.T) {
	in := PixelBuffer{
		Pix: []byte{
			255, 0, 0, 255, 0, 255, 0, 255,
			0, 0, 255, 255, 255, 255, 0, 255,
		},
		Width: 2, Height: 2, Stride: 8, Layout: RGBA,
	}

	eachEngine(t, func(t *testing.T, c *Codec) {
		data := encodeLosslessWith(t, c, in)

		info, err := c.Probe(data)
		require.NoError(t, err)
		assert.Equal(t, 2, info.Width)
		assert.Equal(t, 2, info.Height)

		got, err := c.Decode(data, RGBA)
		require.NoError(t, err)
		defer got.Release()
		assert.Len(t, got.Pix, 16)
		assert.Equal(t, in.Pix, got.Pix)
	})
}

func TestGrayRoundTrip(t *testing.T) {
	in := PixelBuffer{
		Pix:   []byte{0, 40, 80, 120, 160, 200, 240, 255, 10},
		Width: 3, Height: 3, Stride: 3, Layout: Gray,
	}
	eachEngine(t, func(t *testing.T, c *Codec) {
		got, err := c.Decode(encodeLosslessWith(t, c, in), Gray)
		require.NoError(t, err)
		defer got.Release()
		assert.Equal(t, in.Pix, got.Pix)
	})
}

func TestDecodeLayoutConversion(t *testing.T) {
	in := pattern(6, 4, RGB)

	eachEngine(t, func(t *testing.T, c *Codec) {
		data := encodeLosslessWith(t, c, in)

		rgba, err := c.Decode(data, RGBA)
		require.NoError(t, err)
		defer rgba.Release()
		gray, err := c.Decode(data, Gray)
		require.NoError(t, err)
		defer gray.Release()

		for i := 0; i < 6*4; i++ {
			r, g, b := in.Pix[i*3], in.Pix[i*3+1], in.Pix[i*3+2]
			assert.Equal(t, []byte{r, g, b, 0xff}, rgba.Pix[i*4:i*4+4])
			assert.Equal(t, luma(r, g, b), gray.Pix[i])
		}
	})
}

func TestAlphaSynthesis(t *testing.T) {
	eachEngine(t, func(t *testing.T, c *Codec) {
		data := encodeLossyWith(t, c, pattern(16, 16, RGB), 80)

		info, err := c.Probe(data)
		require.NoError(t, err)
		assert.False(t, info.HasAlpha)

		got, err := c.Decode(data, RGBA)
		require.NoError(t, err)
		defer got.Release()
		for i := 3; i < len(got.Pix); i += 4 {
			if got.Pix[i] != 0xff {
				t.Fatalf("alpha at pixel %d = %d, want 255", i/4, got.Pix[i])
			}
		}
	})
}

// noisy returns an opaque RGB texture whose lossy size tracks quality.
func noisy(w, h int) PixelBuffer {
	p := NewPixelBuffer(w, h, RGB)
	rng := rand.New(rand.NewPCG(1, 2))
	for i := range p.Pix {
		p.Pix[i] = byte(i/3%64*4) ^ byte(rng.IntN(32))
	}
	return p
}

func TestLossySizeTrend(t *testing.T) {
	p := noisy(64, 64)

	eachEngine(t, func(t *testing.T, c *Codec) {
		low := encodeLossyWith(t, c, p, 5)
		high := encodeLossyWith(t, c, p, 95)
		assert.Less(t, len(low), len(high))

		info, err := c.Probe(high)
		require.NoError(t, err)
		assert.Equal(t, 64, info.Width)
		assert.Equal(t, 64, info.Height)
	})
}

// TestLossyQualityExtremes pins quality 0 as the smallest setting: it must
// never come out larger than a mid or top quality encode.
func TestLossyQualityExtremes(t *testing.T) {
	p := noisy(64, 64)

	eachEngine(t, func(t *testing.T, c *Codec) {
		zero := encodeLossyWith(t, c, p, 0)
		mid := encodeLossyWith(t, c, p, 50)
		top := encodeLossyWith(t, c, p, 100)

		assert.LessOrEqual(t, len(zero), len(mid))
		assert.Less(t, len(zero), len(top))

		got, err := c.Decode(zero, RGB)
		require.NoError(t, err)
		defer got.Release()
		assert.Equal(t, 64, got.Width)
	})
}

func TestEncodeLossyQualityBounds(t *testing.T) {
	p := pattern(4, 4, RGB)
	for _, q := range []float32{-1, -0.01, 100.5, 101, float32(math.NaN()), float32(math.Inf(1))} {
		_, err := EncodeLossy(p, q)
		assert.ErrorIs(t, err, ErrInvalidInput, "quality %v", q)
	}
	for _, q := range []float32{0, 100} {
		out, err := EncodeLossy(p, q)
		require.NoError(t, err, "quality %v", q)
		assert.NoError(t, out.Release())
	}
}

func TestEncodeInvalidGeometry(t *testing.T) {
	tests := []struct {
		name string
		p    PixelBuffer
	}{
		{"zero width", PixelBuffer{Pix: make([]byte, 4), Width: 0, Height: 1, Stride: 4, Layout: RGBA}},
		{"negative height", PixelBuffer{Pix: make([]byte, 4), Width: 1, Height: -1, Stride: 4, Layout: RGBA}},
		{"too wide", PixelBuffer{Pix: make([]byte, 4), Width: MaxDimension + 1, Height: 1, Stride: (MaxDimension + 1) * 4, Layout: RGBA}},
		{"short stride", PixelBuffer{Pix: make([]byte, 16), Width: 2, Height: 2, Stride: 5, Layout: RGB}},
		{"short buffer", PixelBuffer{Pix: make([]byte, 15), Width: 2, Height: 2, Stride: 8, Layout: RGBA}},
		{"unknown layout", PixelBuffer{Pix: make([]byte, 16), Width: 2, Height: 2, Stride: 8, Layout: Layout(9)}},
		{"nil pix", PixelBuffer{Width: 1, Height: 1, Stride: 1, Layout: Gray}},
		{"overflowing stride", PixelBuffer{Pix: make([]byte, 1), Width: 1, Height: 2, Stride: math.MaxInt/2 + 1, Layout: Gray}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeLossless(tt.p)
			assert.ErrorIs(t, err, ErrInvalidInput)
			_, err = EncodeLossy(tt.p, 50)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestProbeIdempotent(t *testing.T) {
	data := encodeLossless(t, pattern(7, 9, RGBA))
	snapshot := bytes.Clone(data)

	a, err := Probe(data)
	require.NoError(t, err)
	b, err := Probe(data)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 7, a.Width)
	assert.Equal(t, 9, a.Height)
	assert.Equal(t, snapshot, data, "probe must not modify its input")
	assert.NotEqual(t, FormatUnknown, a.Format)
}

func TestProbeCorruptBody(t *testing.T) {
	data := encodeLossless(t, pattern(16, 16, RGB))
	require.Greater(t, len(data), 40)
	cut := data[:30]

	info, err := Probe(cut)
	require.NoError(t, err)
	assert.Equal(t, 16, info.Width)

	_, err = Decode(cut, RGB)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestRejectGarbage(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for n := 0; n <= 256; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(rng.UintN(256))
		}

		_, err := Probe(data)
		assert.ErrorIs(t, err, ErrNotWebP, "len %d", n)
		assert.False(t, Sniff(data))

		for _, layout := range []Layout{Gray, RGB, RGBA} {
			d, err := Decode(data, layout)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, ErrDecode, "len %d layout %s", n, layout)
			assert.NotErrorIs(t, err, ErrNotWebP)
		}
	}
}

func TestDecodeUnknownLayout(t *testing.T) {
	data := encodeLossless(t, pattern(2, 2, RGB))
	_, err := Decode(data, Layout(0))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecodeAnimatedRejected(t *testing.T) {
	// RIFF header plus a VP8X chunk with the animation flag and a 4x4 canvas.
	data := []byte{
		'R', 'I', 'F', 'F', 22, 0, 0, 0, 'W', 'E', 'B', 'P',
		'V', 'P', '8', 'X', 10, 0, 0, 0,
		0x02, 0, 0, 0, 3, 0, 0, 3, 0, 0,
	}
	info, err := Probe(data)
	require.NoError(t, err)
	assert.True(t, info.Animated)
	assert.Equal(t, FormatExtended, info.Format)

	_, err = Decode(data, RGBA)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestMaxPixels(t *testing.T) {
	c, err := New(WithMaxPixels(16))
	require.NoError(t, err)

	_, err = c.EncodeLossless(pattern(5, 4, RGB))
	assert.ErrorIs(t, err, ErrAlloc)
	_, err = c.EncodeLossy(pattern(5, 4, RGB), 50)
	assert.ErrorIs(t, err, ErrAlloc)

	data := encodeLossless(t, pattern(5, 4, RGB))
	_, err = c.Decode(data, RGB)
	assert.ErrorIs(t, err, ErrAlloc)

	out, err := c.EncodeLossless(pattern(4, 4, RGB))
	require.NoError(t, err)
	assert.NoError(t, out.Release())

	_, err = New(WithMaxPixels(0))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewUnknownEngine(t *testing.T) {
	_, err := New(WithEngine("nope"))
	assert.ErrorContains(t, err, `"nope" not available`)

	c, err := New(WithEngine("auto"))
	require.NoError(t, err)
	assert.Equal(t, Engines()[0], c.Engine())
}

func TestEveryEngineRoundTrips(t *testing.T) {
	want := pattern(5, 3, RGBA)
	for _, name := range Engines() {
		t.Run(name, func(t *testing.T) {
			c, err := New(WithEngine(name))
			require.NoError(t, err)
			out, err := c.EncodeLossless(want)
			require.NoError(t, err)
			defer out.Release()

			err = c.DecodeFunc(out.Bytes(), RGBA, func(got PixelBuffer) error {
				assert.Equal(t, want.Pix, got.Pix)
				return nil
			})
			assert.NoError(t, err)
		})
	}
}

func TestBufferRelease(t *testing.T) {
	out, err := EncodeLossless(pattern(3, 3, Gray))
	require.NoError(t, err)
	assert.Positive(t, out.Len())
	assert.False(t, out.Released())

	require.NoError(t, out.Release())
	assert.True(t, out.Released())
	assert.Nil(t, out.Bytes())
	assert.Zero(t, out.Len())
	assert.ErrorIs(t, out.Release(), ErrReleased)

	data := encodeLossless(t, pattern(3, 3, Gray))
	d, err := Decode(data, Gray)
	require.NoError(t, err)
	require.NoError(t, d.Release())
	assert.Nil(t, d.Pix)
	assert.ErrorIs(t, d.Release(), ErrReleased)

	var nilBuf *Buffer
	assert.ErrorIs(t, nilBuf.Release(), ErrReleased)
}

func TestBufferConcurrentRelease(t *testing.T) {
	out, err := EncodeLossless(pattern(3, 3, RGB))
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if out.Release() == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
}

func TestConcurrentCalls(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := pattern(8+i, 4, RGBA)
			out, err := EncodeLossless(in)
			if err != nil {
				errs <- err
				return
			}
			defer out.Release()
			errs <- DecodeFunc(out.Bytes(), RGBA, func(got PixelBuffer) error {
				if !bytes.Equal(in.Pix, got.Pix) {
					t.Errorf("worker %d: round trip mismatch", i)
				}
				return nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestDecodeFuncPropagatesError(t *testing.T) {
	data := encodeLossless(t, pattern(2, 2, Gray))
	sentinel := assert.AnError
	err := DecodeFunc(data, Gray, func(PixelBuffer) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestImageHelpers(t *testing.T) {
	src := image.NewNRGBA(image.Rect(2, 3, 5, 5))
	for y := 3; y < 5; y++ {
		for x := 2; x < 5; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 30), B: 9, A: 255})
		}
	}

	p, err := FromImage(src, RGBA)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Width)
	assert.Equal(t, 2, p.Height)
	assert.Equal(t, []byte{80, 90, 9, 255}, p.Pix[:4])

	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, src, &Options{Lossless: true}))

	cfg, err := DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Width)
	assert.Equal(t, 2, cfg.Height)

	img, err := DecodeImage(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 160, G: 120, B: 9, A: 255}, img.At(2, 1))

	back, err := p.Image()
	require.NoError(t, err)
	assert.Equal(t, img, back)

	_, err = FromImage(image.NewNRGBA(image.Rectangle{}), RGB)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = DecodeConfig(bytes.NewReader([]byte("nope")))
	assert.ErrorIs(t, err, ErrNotWebP)
}

func TestGrayImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 16)
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, src, &Options{Lossless: true}))

	err := DecodeFunc(buf.Bytes(), Gray, func(p PixelBuffer) error {
		img, err := p.Image()
		require.NoError(t, err)
		assert.Equal(t, src, img)
		return nil
	})
	require.NoError(t, err)
}

func TestLuma(t *testing.T) {
	for v := 0; v < 256; v++ {
		assert.Equal(t, uint8(v), luma(uint8(v), uint8(v), uint8(v)))
	}
	assert.Equal(t, uint8(76), luma(255, 0, 0))
}

func TestParseLayout(t *testing.T) {
	for in, want := range map[string]Layout{"gray": Gray, "GREY": Gray, "rgb": RGB, " RGBA ": RGBA} {
		got, err := ParseLayout(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, want, mustParse(t, got.String()))
	}
	_, err := ParseLayout("cmyk")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "layout(7)", Layout(7).String())
	assert.Zero(t, Layout(7).Channels())
}

func mustParse(t *testing.T, s string) Layout {
	t.Helper()
	l, err := ParseLayout(s)
	require.NoError(t, err)
	return l
}

func TestSafeCallRecovers(t *testing.T) {
	_, err := safeCall(func() (int, error) { panic("boom") })
	assert.ErrorContains(t, err, "engine panic: boom")
}

func FuzzDecode(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte("RIFF\x00\x00\x00\x00WEBPVP8L"))
	f.Add([]byte("RIFF\x1a\x00\x00\x00WEBPVP8L\x0d\x00\x00\x00\x2f\x00\x00\x00\x00"))

	c, err := New(WithMaxPixels(1 << 16))
	require.NoError(f, err)

	f.Fuzz(func(t *testing.T, data []byte) {
		d, err := c.Decode(data, RGBA)
		if err != nil {
			if !errors.Is(err, ErrDecode) && !errors.Is(err, ErrAlloc) {
				t.Fatalf("untyped error: %v", err)
			}
			return
		}
		defer d.Release()
		if len(d.Pix) != d.Width*d.Height*4 {
			t.Fatalf("pix len %d for %dx%d", len(d.Pix), d.Width, d.Height)
		}
	})
}
