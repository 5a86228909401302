// Package bitstream implements the bit-aligned and byte-aligned readers used
// to decode movie headers and tag payloads.
//
// Bit fields are read most-significant bit first. Byte-aligned integers are
// little-endian. Every structure read (RECT, MATRIX, CXFORM) consumes its
// fields and then re-aligns to the next byte, so callers never need to track
// alignment between structures.
package bitstream

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// Errors returned by Reader.
var (
	// ErrTruncatedInput is returned when a read would cross the end of the
	// buffer. The reader position is unchanged when it is returned.
	ErrTruncatedInput = errors.New("bitstream: truncated input")

	// ErrBitWidth is returned for bit counts outside the supported range.
	ErrBitWidth = errors.New("bitstream: invalid bit width")
)

// Reader is a cursor over a byte buffer.
// The zero value is an empty reader.
type Reader struct {
	data []byte
	base int  // absolute offset of data[0]
	pos  int  // current byte
	bit  uint // bits already consumed from data[pos], 0..7
}

// NewReader returns a reader over data. Offsets reported by the reader
// start at zero.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// NewReaderAt returns a reader over data whose first byte is reported at
// absolute offset base.
func NewReaderAt(data []byte, base int) *Reader {
	return &Reader{data: data, base: base}
}

// Offset returns the absolute byte offset of the cursor. A partially
// consumed byte counts as the current byte.
func (r *Reader) Offset() int { return r.base + r.pos }

// Len returns the number of whole bytes left after the cursor.
func (r *Reader) Len() int {
	n := len(r.data) - r.pos
	if r.bit > 0 {
		n--
	}
	if n < 0 {
		return 0
	}
	return n
}

// Aligned reports whether the cursor sits on a byte boundary.
func (r *Reader) Aligned() bool { return r.bit == 0 }

// Align skips the remaining bits of a partially consumed byte.
func (r *Reader) Align() {
	if r.bit != 0 {
		r.bit = 0
		r.pos++
	}
}

func (r *Reader) truncated(need int) error {
	return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedInput, need, r.Offset(), r.Len())
}

// bitsLeft returns how many unread bits remain.
func (r *Reader) bitsLeft() int {
	return (len(r.data)-r.pos)*8 - int(r.bit)
}

// ReadUB reads an n-bit unsigned field. Reading 0 bits returns 0 and does
// not consume input.
func (r *Reader) ReadUB(n uint) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if n > 32 {
		return 0, fmt.Errorf("%w: %d", ErrBitWidth, n)
	}
	if int(n) > r.bitsLeft() {
		return 0, fmt.Errorf("%w: need %d bits at offset %d", ErrTruncatedInput, n, r.Offset())
	}

	var v uint32
	for n > 0 {
		avail := 8 - r.bit
		take := avail
		if n < take {
			take = n
		}
		shift := avail - take
		chunk := (uint32(r.data[r.pos]) >> shift) & (1<<take - 1)
		v = v<<take | chunk
		n -= take
		r.bit += take
		if r.bit == 8 {
			r.bit = 0
			r.pos++
		}
	}
	return v, nil
}

// ReadSB reads an n-bit two's-complement field and sign-extends it.
func (r *Reader) ReadSB(n uint) (int32, error) {
	v, err := r.ReadUB(n)
	if err != nil || n == 0 {
		return 0, err
	}
	if n < 32 && v&(1<<(n-1)) != 0 {
		v |= ^uint32(0) << n
	}
	return int32(v), nil
}

// ReadFB reads an n-bit signed 16.16 fixed-point field.
func (r *Reader) ReadFB(n uint) (float64, error) {
	v, err := r.ReadSB(n)
	if err != nil {
		return 0, err
	}
	return float64(v) / 65536, nil
}

// ReadFlag reads a single bit.
func (r *Reader) ReadFlag() (bool, error) {
	v, err := r.ReadUB(1)
	return v == 1, err
}

// ReadFixed aligns to a byte and reads a little-endian signed fixed-point
// number with intBits integer bits and fracBits fractional bits. The total
// width must be 8, 16 or 32 bits, e.g. ReadFixed(8, 8) for a FIXED8.
func (r *Reader) ReadFixed(intBits, fracBits uint) (float64, error) {
	total := intBits + fracBits
	if total != 8 && total != 16 && total != 32 {
		return 0, fmt.Errorf("%w: fixed %d.%d", ErrBitWidth, intBits, fracBits)
	}
	r.Align()
	size := int(total / 8)
	if r.Len() < size {
		return 0, r.truncated(size)
	}
	var v uint32
	for i := 0; i < size; i++ {
		v |= uint32(r.data[r.pos+i]) << (8 * i)
	}
	r.pos += size
	if total < 32 && v&(1<<(total-1)) != 0 {
		v |= ^uint32(0) << total
	}
	return float64(int32(v)) / float64(uint64(1)<<fracBits), nil
}

// ReadU8 aligns and reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	r.Align()
	if r.pos >= len(r.data) {
		return 0, r.truncated(1)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadU16 aligns and reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	r.Align()
	if r.Len() < 2 {
		return 0, r.truncated(2)
	}
	v := uint16(r.data[r.pos]) | uint16(r.data[r.pos+1])<<8
	r.pos += 2
	return v, nil
}

// ReadU32 aligns and reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	r.Align()
	if r.Len() < 4 {
		return 0, r.truncated(4)
	}
	d := r.data[r.pos:]
	v := uint32(d[0]) | uint32(d[1])<<8 | uint32(d[2])<<16 | uint32(d[3])<<24
	r.pos += 4
	return v, nil
}

// ReadEncodedU32 reads a variable-length unsigned integer: 7 bits per byte,
// least significant group first, high bit set on every byte but the last.
// At most 5 bytes are consumed.
func (r *Reader) ReadEncodedU32() (uint32, error) {
	var v uint32
	for i := 0; i < 5; i++ {
		b, err := r.ReadU8()
		if err != nil {
			return 0, err
		}
		v |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			break
		}
	}
	return v, nil
}

// ReadBytes aligns and returns the next n bytes. The returned slice aliases
// the reader's buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	r.Align()
	if n < 0 || r.Len() < n {
		return nil, r.truncated(n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip aligns and discards n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.ReadBytes(n)
	return err
}

// Rest aligns and returns every remaining byte.
func (r *Reader) Rest() []byte {
	r.Align()
	b := r.data[r.pos:]
	r.pos = len(r.data)
	return b
}

// Sub returns a reader scoped to the next n bytes and advances past them.
// The sub-reader reports absolute offsets.
func (r *Reader) Sub(n int) (*Reader, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return &Reader{data: b, base: r.base + r.pos - n}, nil
}

// ReadCString reads a NUL-terminated string. Invalid UTF-8 sequences are
// replaced with U+FFFD.
func (r *Reader) ReadCString() (string, error) {
	r.Align()
	for i := r.pos; i < len(r.data); i++ {
		if r.data[i] != 0 {
			continue
		}
		raw := r.data[r.pos:i]
		r.pos = i + 1
		s, err := unicode.UTF8.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("bitstream: decode string at offset %d: %w", r.Offset(), err)
		}
		return string(s), nil
	}
	return "", fmt.Errorf("%w: unterminated string at offset %d", ErrTruncatedInput, r.Offset())
}
