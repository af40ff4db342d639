package webp

import (
	"sync"
	"sync/atomic"
)

// bufPool recycles released result buffers.
var bufPool = sync.Pool{New: func() any { return new([]byte) }}

// Buffer is a codec-allocated byte buffer. The caller owns it until Release,
// after which the memory goes back to the pool.
//
// Bytes must not be used after Release; slices obtained earlier alias memory
// that may be handed to another call.
type Buffer struct {
	data     []byte
	slot     *[]byte
	released atomic.Bool
}

// newBuffer takes an n-byte buffer from the pool.
func newBuffer(n int) *Buffer {
	slot := bufPool.Get().(*[]byte)
	if cap(*slot) < n {
		*slot = make([]byte, n)
	}
	return &Buffer{data: (*slot)[:n], slot: slot}
}

// ownBuffer wraps bytes produced by an engine.
func ownBuffer(data []byte) *Buffer {
	return &Buffer{data: data, slot: &data}
}

// Bytes returns the contents, or nil once the buffer has been released.
func (b *Buffer) Bytes() []byte {
	if b == nil || b.released.Load() {
		return nil
	}
	return b.data
}

// Len returns the number of bytes held, 0 after release.
func (b *Buffer) Len() int {
	return len(b.Bytes())
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool {
	return b == nil || b.released.Load()
}

// Release returns the buffer to the pool. Only the first call succeeds;
// later or concurrent calls get ErrReleased.
func (b *Buffer) Release() error {
	if b == nil || !b.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	bufPool.Put(b.slot)
	return nil
}

// Decoded is a packed pixel buffer produced by Decode.
type Decoded struct {
	PixelBuffer
	buf *Buffer
}

// Release frees the pixel memory. Pix is cleared on success.
func (d *Decoded) Release() error {
	if d == nil {
		return ErrReleased
	}
	if err := d.buf.Release(); err != nil {
		return err
	}
	d.Pix = nil
	return nil
}
