package binary

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrWindowOverrun is returned when a read crosses the end of a window while
// the underlying buffer still has bytes past it.
var ErrWindowOverrun = errors.New("read past end of window")

// Reader reads WASM primitives from a bounded window of a byte buffer.
// Positions are absolute offsets into the whole buffer.
type Reader struct {
	buf   []byte
	pos   int
	limit int
}

// NewReader creates a Reader over the whole of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, limit: len(buf)}
}

// Position returns the current absolute byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Limit returns the absolute end of the window.
func (r *Reader) Limit() int {
	return r.limit
}

// Len returns the number of unread bytes in the window.
func (r *Reader) Len() int {
	return r.limit - r.pos
}

// Buffer returns the full underlying buffer.
func (r *Reader) Buffer() []byte {
	return r.buf
}

func (r *Reader) overrun() error {
	if r.limit < len(r.buf) {
		return ErrWindowOverrun
	}
	return ErrTruncated
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= r.limit {
		return 0, r.overrun()
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes returns the next n bytes without copying.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > r.limit-r.pos {
		return nil, r.overrun()
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Window returns a Reader over the next n bytes and advances past them.
func (r *Reader) Window(n int) (*Reader, error) {
	if n < 0 || n > r.limit-r.pos {
		return nil, r.overrun()
	}
	w := &Reader{buf: r.buf, pos: r.pos, limit: r.pos + n}
	r.pos += n
	return w, nil
}

// ReadU32 reads an unsigned LEB128 encoded uint32.
func (r *Reader) ReadU32() (uint32, error) {
	v, err := DecodeU32(r.buf[:r.limit], &r.pos)
	if errors.Is(err, ErrTruncated) {
		return 0, r.overrun()
	}
	return v, err
}

// ReadU64 reads an unsigned LEB128 encoded uint64.
func (r *Reader) ReadU64() (uint64, error) {
	v, err := DecodeU64(r.buf[:r.limit], &r.pos)
	if errors.Is(err, ErrTruncated) {
		return 0, r.overrun()
	}
	return v, err
}

// ReadU32LE reads a little-endian uint32 (fixed 4 bytes).
func (r *Reader) ReadU32LE() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadF32 reads a little-endian IEEE 754 float32.
func (r *Reader) ReadF32() (float32, error) {
	bits, err := r.ReadU32LE()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// ReadRemaining returns the rest of the window.
func (r *Reader) ReadRemaining() []byte {
	b := r.buf[r.pos:r.limit]
	r.pos = r.limit
	return b
}
