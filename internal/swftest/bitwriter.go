// Package swftest builds movie byte streams for tests: a bit writer that
// mirrors bitstream.Reader and helpers that emit the tag records the
// decoder understands.
package swftest

import (
	"math"

	"github.com/gogpu/swf/geom"
)

// BitWriter accumulates bit fields (most significant bit first) and
// little-endian integers.
type BitWriter struct {
	buf  []byte
	cur  byte
	nbit uint
}

// WriteUB writes the low n bits of v.
func (w *BitWriter) WriteUB(v uint32, n uint) {
	for i := int(n) - 1; i >= 0; i-- {
		w.cur = w.cur<<1 | byte(v>>uint(i)&1)
		w.nbit++
		if w.nbit == 8 {
			w.buf = append(w.buf, w.cur)
			w.cur, w.nbit = 0, 0
		}
	}
}

// WriteSB writes v as an n-bit two's-complement field.
func (w *BitWriter) WriteSB(v int32, n uint) {
	w.WriteUB(uint32(v), n)
}

// WriteFlag writes one bit.
func (w *BitWriter) WriteFlag(b bool) {
	if b {
		w.WriteUB(1, 1)
	} else {
		w.WriteUB(0, 1)
	}
}

// Align pads the current byte with zero bits.
func (w *BitWriter) Align() {
	if w.nbit > 0 {
		w.buf = append(w.buf, w.cur<<(8-w.nbit))
		w.cur, w.nbit = 0, 0
	}
}

// U8 aligns and writes a byte.
func (w *BitWriter) U8(v uint8) {
	w.Align()
	w.buf = append(w.buf, v)
}

// U16 aligns and writes a little-endian uint16.
func (w *BitWriter) U16(v uint16) {
	w.Align()
	w.buf = append(w.buf, byte(v), byte(v>>8))
}

// U32 aligns and writes a little-endian uint32.
func (w *BitWriter) U32(v uint32) {
	w.Align()
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// Raw aligns and writes b verbatim.
func (w *BitWriter) Raw(b []byte) {
	w.Align()
	w.buf = append(w.buf, b...)
}

// CString writes s followed by a NUL byte.
func (w *BitWriter) CString(s string) {
	w.Raw([]byte(s))
	w.buf = append(w.buf, 0)
}

// EncodedU32 writes v as a 7-bit group varint.
func (w *BitWriter) EncodedU32(v uint32) {
	w.Align()
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			w.buf = append(w.buf, b|0x80)
			continue
		}
		w.buf = append(w.buf, b)
		return
	}
}

// Bytes aligns and returns the written bytes.
func (w *BitWriter) Bytes() []byte {
	w.Align()
	return w.buf
}

// SignedBits returns the smallest field width able to hold every value.
func SignedBits(values ...int32) uint {
	var n uint = 1
	for _, v := range values {
		for n < 32 && (v < -(1<<(n-1)) || v > 1<<(n-1)-1) {
			n++
		}
	}
	return n
}

func fixed16(v float64) int32 { return int32(math.Round(v * 65536)) }

// Rect writes a RECT record.
func (w *BitWriter) Rect(r geom.Rect) {
	w.Align()
	n := SignedBits(r.XMin, r.XMax, r.YMin, r.YMax)
	w.WriteUB(uint32(n), 5)
	w.WriteSB(r.XMin, n)
	w.WriteSB(r.XMax, n)
	w.WriteSB(r.YMin, n)
	w.WriteSB(r.YMax, n)
	w.Align()
}

// Matrix writes a MATRIX record, omitting identity scale and zero rotate
// terms. Translation is rounded to whole twips.
func (w *BitWriter) Matrix(m geom.Matrix) {
	w.Align()
	hasScale := m.A != 1 || m.E != 1
	w.WriteFlag(hasScale)
	if hasScale {
		a, e := fixed16(m.A), fixed16(m.E)
		n := SignedBits(a, e)
		w.WriteUB(uint32(n), 5)
		w.WriteSB(a, n)
		w.WriteSB(e, n)
	}
	hasRotate := m.B != 0 || m.D != 0
	w.WriteFlag(hasRotate)
	if hasRotate {
		d, b := fixed16(m.D), fixed16(m.B)
		n := SignedBits(d, b)
		w.WriteUB(uint32(n), 5)
		w.WriteSB(d, n)
		w.WriteSB(b, n)
	}
	tx, ty := int32(math.Round(m.C)), int32(math.Round(m.F))
	n := uint(0)
	if tx != 0 || ty != 0 {
		n = SignedBits(tx, ty)
	}
	w.WriteUB(uint32(n), 5)
	w.WriteSB(tx, n)
	w.WriteSB(ty, n)
	w.Align()
}

// ColorTransform writes a CXFORM, or CXFORMWITHALPHA when withAlpha is set.
func (w *BitWriter) ColorTransform(ct geom.ColorTransform, withAlpha bool) {
	w.Align()
	mul := []int32{
		int32(math.Round(ct.Mul.R * 256)), int32(math.Round(ct.Mul.G * 256)),
		int32(math.Round(ct.Mul.B * 256)), int32(math.Round(ct.Mul.A * 256)),
	}
	add := []int32{
		int32(math.Round(ct.Add.R * 255)), int32(math.Round(ct.Add.G * 255)),
		int32(math.Round(ct.Add.B * 255)), int32(math.Round(ct.Add.A * 255)),
	}
	if !withAlpha {
		mul, add = mul[:3], add[:3]
	}
	hasMul, hasAdd := false, false
	for _, v := range mul {
		hasMul = hasMul || v != 256
	}
	for _, v := range add {
		hasAdd = hasAdd || v != 0
	}
	var all []int32
	if hasMul {
		all = append(all, mul...)
	}
	if hasAdd {
		all = append(all, add...)
	}
	n := SignedBits(all...)
	w.WriteFlag(hasAdd)
	w.WriteFlag(hasMul)
	w.WriteUB(uint32(n), 4)
	if hasMul {
		for _, v := range mul {
			w.WriteSB(v, n)
		}
	}
	if hasAdd {
		for _, v := range add {
			w.WriteSB(v, n)
		}
	}
	w.Align()
}
