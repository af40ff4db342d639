// Package riff reads just enough of a WebP RIFF container to report the
// image geometry: the RIFF/WEBP preamble and the header of the first chunk.
// Container framing goes through golang.org/x/image/riff; only the VP8, VP8L
// and VP8X bit fields are decoded here. Compressed payloads are never touched.
package riff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	xriff "golang.org/x/image/riff"
)

const (
	// HeaderSize is "RIFF" + size + "WEBP".
	HeaderSize = 12
	// ChunkHeaderSize is fourcc + payload size.
	ChunkHeaderSize = 8

	vp8FrameHeaderSize  = 10
	vp8lFrameHeaderSize = 5
	vp8xChunkSize       = 10

	vp8Signature  = 0x9d012a
	vp8lMagicByte = 0x2f
	vp8lVersion   = 0

	alphaFlag     = 0x10
	animationFlag = 0x02

	// MaxDimension is the largest width or height a WebP bitstream can carry.
	MaxDimension = 16383
)

var (
	fourCCWEBP = xriff.FourCC{'W', 'E', 'B', 'P'}
	fourCCVP8  = xriff.FourCC{'V', 'P', '8', ' '}
	fourCCVP8L = xriff.FourCC{'V', 'P', '8', 'L'}
	fourCCVP8X = xriff.FourCC{'V', 'P', '8', 'X'}
)

var (
	ErrTruncated    = errors.New("riff: truncated header")
	ErrInvalidRIFF  = errors.New("riff: missing RIFF signature")
	ErrInvalidWebP  = errors.New("riff: missing WEBP signature")
	ErrUnknownChunk = errors.New("riff: unexpected first chunk")
	ErrBadBitstream = errors.New("riff: invalid bitstream header")
)

// Format identifies the first chunk of the container.
type Format int

const (
	FormatUnknown  Format = iota
	FormatLossy           // VP8
	FormatLossless        // VP8L
	FormatExtended        // VP8X
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

// Header is the geometry read from a container.
type Header struct {
	Width    int
	Height   int
	HasAlpha bool
	Animated bool
	Format   Format
}

// Sniff reports whether data starts with the RIFF????WEBPVP8 magic.
func Sniff(data []byte) bool {
	if len(data) < HeaderSize+4 {
		return false
	}
	return string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP" &&
		string(data[12:15]) == "VP8"
}

// Parse reads the container preamble and the first chunk header.
//
// The declared RIFF and chunk sizes bound what is read: a first chunk larger
// than the RIFF payload, or shorter than its fixed header, is ErrTruncated.
func Parse(data []byte) (Header, error) {
	if len(data) < HeaderSize+ChunkHeaderSize {
		return Header{}, ErrTruncated
	}
	formType, r, err := xriff.NewReader(bytes.NewReader(data))
	if err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrInvalidRIFF, err)
	}
	if formType != fourCCWEBP {
		return Header{}, fmt.Errorf("%w: form type %q", ErrInvalidWebP, formType[:])
	}

	id, _, chunk, err := r.Next()
	if err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	switch id {
	case fourCCVP8:
		payload, err := readHeader(chunk, vp8FrameHeaderSize)
		if err != nil {
			return Header{}, err
		}
		w, h, err := parseVP8(payload)
		if err != nil {
			return Header{}, err
		}
		return Header{Width: w, Height: h, Format: FormatLossy}, nil
	case fourCCVP8L:
		payload, err := readHeader(chunk, vp8lFrameHeaderSize)
		if err != nil {
			return Header{}, err
		}
		w, h, alpha, err := parseVP8L(payload)
		if err != nil {
			return Header{}, err
		}
		return Header{Width: w, Height: h, HasAlpha: alpha, Format: FormatLossless}, nil
	case fourCCVP8X:
		payload, err := readHeader(chunk, vp8xChunkSize)
		if err != nil {
			return Header{}, err
		}
		return parseVP8X(payload)
	default:
		return Header{}, fmt.Errorf("%w: %q", ErrUnknownChunk, id[:])
	}
}

// readHeader reads the fixed-size bitstream header at the start of a chunk.
func readHeader(chunk io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(chunk, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return buf, nil
}

// parseVP8 reads the 10-byte keyframe header of a lossy bitstream.
func parseVP8(data []byte) (width, height int, err error) {
	if len(data) < vp8FrameHeaderSize {
		return 0, 0, ErrTruncated
	}
	tag := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
	if tag&1 != 0 {
		return 0, 0, fmt.Errorf("%w: VP8 frame is not a keyframe", ErrBadBitstream)
	}
	sig := uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5])
	if sig != vp8Signature {
		return 0, 0, fmt.Errorf("%w: VP8 signature 0x%06x", ErrBadBitstream, sig)
	}
	width = int(binary.LittleEndian.Uint16(data[6:8]) & 0x3fff)
	height = int(binary.LittleEndian.Uint16(data[8:10]) & 0x3fff)
	if width == 0 || height == 0 {
		return 0, 0, fmt.Errorf("%w: zero VP8 dimension", ErrBadBitstream)
	}
	return width, height, nil
}

// parseVP8L reads the 5-byte lossless header: signature, 14-bit width-1,
// 14-bit height-1, alpha hint, 3-bit version.
func parseVP8L(data []byte) (width, height int, hasAlpha bool, err error) {
	if len(data) < vp8lFrameHeaderSize {
		return 0, 0, false, ErrTruncated
	}
	if data[0] != vp8lMagicByte {
		return 0, 0, false, fmt.Errorf("%w: VP8L signature 0x%02x", ErrBadBitstream, data[0])
	}
	bits := binary.LittleEndian.Uint32(data[1:5])
	width = int(bits&0x3fff) + 1
	height = int((bits>>14)&0x3fff) + 1
	hasAlpha = (bits>>28)&1 != 0
	if v := bits >> 29; v != vp8lVersion {
		return 0, 0, false, fmt.Errorf("%w: VP8L version %d", ErrBadBitstream, v)
	}
	if width > MaxDimension || height > MaxDimension {
		return 0, 0, false, fmt.Errorf("%w: VP8L size %dx%d exceeds %d", ErrBadBitstream, width, height, MaxDimension)
	}
	return width, height, hasAlpha, nil
}

// parseVP8X reads the extended-format canvas chunk.
func parseVP8X(data []byte) (Header, error) {
	if len(data) < vp8xChunkSize {
		return Header{}, ErrTruncated
	}
	flags := data[0]
	h := Header{
		Width:    1 + readLE24(data[4:7]),
		Height:   1 + readLE24(data[7:10]),
		HasAlpha: flags&alphaFlag != 0,
		Animated: flags&animationFlag != 0,
		Format:   FormatExtended,
	}
	if h.Width > MaxDimension || h.Height > MaxDimension {
		return Header{}, fmt.Errorf("%w: canvas %dx%d exceeds %d", ErrBadBitstream, h.Width, h.Height, MaxDimension)
	}
	return h, nil
}

func readLE24(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16
}
