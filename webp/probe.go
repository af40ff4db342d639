package webp

import (
	"fmt"

	"github.com/AnyUserName/webpkit/internal/riff"
)

// Format is the bitstream flavour announced by the container.
type Format int

const (
	FormatUnknown  Format = iota
	FormatLossy           // simple VP8
	FormatLossless        // simple VP8L
	FormatExtended        // VP8X with optional alpha, animation or metadata
)

func (f Format) String() string {
	switch f {
	case FormatLossy:
		return "lossy"
	case FormatLossless:
		return "lossless"
	case FormatExtended:
		return "extended"
	default:
		return "unknown"
	}
}

// ImageInfo describes a stream without decoding its pixels.
type ImageInfo struct {
	Width    int
	Height   int
	HasAlpha bool
	Animated bool
	Format   Format
}

// Probe reads the container header and reports the image geometry. It never
// allocates pixels and never looks at the compressed payload, so a stream
// with a valid header and a corrupt body still probes successfully.
func Probe(data []byte) (ImageInfo, error) {
	h, err := riff.Parse(data)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %w", ErrNotWebP, err)
	}
	info := ImageInfo{
		Width:    h.Width,
		Height:   h.Height,
		HasAlpha: h.HasAlpha,
		Animated: h.Animated,
	}
	switch h.Format {
	case riff.FormatLossy:
		info.Format = FormatLossy
	case riff.FormatLossless:
		info.Format = FormatLossless
	case riff.FormatExtended:
		info.Format = FormatExtended
	}
	return info, nil
}

// Probe is the package-level Probe; the codec configuration does not affect it.
func (c *Codec) Probe(data []byte) (ImageInfo, error) {
	return Probe(data)
}

// Sniff reports whether data starts with the WebP magic
// ("RIFF????WEBPVP8"). It is cheaper and looser than Probe.
func Sniff(data []byte) bool {
	return riff.Sniff(data)
}
