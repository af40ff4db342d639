package webp

import (
	"errors"
	"fmt"
)

// Every failure returned by this package wraps exactly one of these.
var (
	// ErrNotWebP is returned by Probe when the input is not a WebP stream.
	ErrNotWebP = errors.New("webp: not a webp stream")
	// ErrDecode is returned by Decode for any stream it cannot turn into pixels.
	ErrDecode = errors.New("webp: decode failed")
	// ErrInvalidInput reports caller-supplied geometry or parameters out of range.
	ErrInvalidInput = errors.New("webp: invalid input")
	// ErrEncode reports a failure inside the codec engine while compressing.
	ErrEncode = errors.New("webp: encode failed")
	// ErrAlloc is returned when a result buffer would exceed the codec's pixel limit.
	ErrAlloc = errors.New("webp: allocation refused")
	// ErrReleased is returned by a second Release of the same buffer.
	ErrReleased = errors.New("webp: buffer already released")
)

// safeCall runs an engine call, turning a panic inside the engine into an
// error so that no input can crash the caller.
func safeCall[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return fn()
}
