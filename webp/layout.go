package webp

import (
	"fmt"
	"strings"
)

// Layout is the fixed pixel layout of a raw buffer.
type Layout int

const (
	Gray Layout = iota + 1 // 1 byte per pixel
	RGB                    // 3 bytes per pixel
	RGBA                   // 4 bytes per pixel, straight alpha
)

// Channels returns bytes per pixel, or 0 for an unknown layout.
func (l Layout) Channels() int {
	switch l {
	case Gray:
		return 1
	case RGB:
		return 3
	case RGBA:
		return 4
	default:
		return 0
	}
}

func (l Layout) String() string {
	switch l {
	case Gray:
		return "gray"
	case RGB:
		return "rgb"
	case RGBA:
		return "rgba"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// ParseLayout accepts "gray", "rgb" or "rgba" (case-insensitive).
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gray", "grey", "l":
		return Gray, nil
	case "rgb":
		return RGB, nil
	case "rgba":
		return RGBA, nil
	default:
		return 0, fmt.Errorf("%w: unknown layout %q", ErrInvalidInput, s)
	}
}
