package swftest

import (
	"bytes"
	"image/color"

	"github.com/klauspost/compress/zlib"

	"github.com/gogpu/swf/geom"
)

// Tag codes used by the builders.
const (
	CodeEnd                 = 0
	CodeShowFrame           = 1
	CodeDefineShape         = 2
	CodePlaceObject         = 4
	CodeRemoveObject        = 5
	CodeSetBackgroundColor  = 9
	CodeDoAction            = 12
	CodeDefineBitsLossless  = 20
	CodeDefineShape3        = 32
	CodePlaceObject2        = 26
	CodeRemoveObject2       = 28
	CodeDefineBitsLossless2 = 36
	CodeDefineSprite        = 39
	CodeFrameLabel          = 43
	CodePlaceObject3        = 70
)

// Record encodes a tag record, using the short form when it fits.
func Record(code uint16, payload []byte) []byte {
	if len(payload) < 0x3F {
		return append(le16(code<<6|uint16(len(payload))), payload...)
	}
	return LongRecord(code, payload)
}

// LongRecord encodes a tag record in the long form regardless of size.
func LongRecord(code uint16, payload []byte) []byte {
	out := le16(code<<6 | 0x3F)
	n := uint32(len(payload))
	out = append(out, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	return append(out, payload...)
}

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

// Movie assembles a complete file.
type Movie struct {
	Version    uint8
	Compressed bool
	FrameSize  geom.Rect
	FrameRate  float64
	FrameCount uint16

	body []byte
}

// NewMovie returns an uncompressed movie with a 550x400 pixel stage.
func NewMovie(version uint8) *Movie {
	return &Movie{
		Version:   version,
		FrameSize: geom.Rect{XMax: 550 * 20, YMax: 400 * 20},
		FrameRate: 24,
	}
}

// Add appends encoded tag records.
func (m *Movie) Add(records ...[]byte) *Movie {
	for _, r := range records {
		m.body = append(m.body, r...)
	}
	return m
}

// Bytes returns the file, terminated by an End tag.
func (m *Movie) Bytes() []byte {
	var w BitWriter
	w.Rect(m.FrameSize)
	rate := uint16(m.FrameRate * 256)
	w.U16(rate)
	w.U16(m.FrameCount)
	body := append(w.Bytes(), m.body...)
	body = append(body, Record(CodeEnd, nil)...)

	total := uint32(8 + len(body))
	magic := byte('F')
	if m.Compressed {
		magic = 'C'
		body = Deflate(body)
	}
	out := []byte{magic, 'W', 'S', m.Version, byte(total), byte(total >> 8), byte(total >> 16), byte(total >> 24)}
	return append(out, body...)
}

// Deflate zlib-compresses b.
func Deflate(b []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write(b)
	_ = zw.Close()
	return buf.Bytes()
}

// ShowFrame returns a ShowFrame record.
func ShowFrame() []byte { return Record(CodeShowFrame, nil) }

// End returns an End record.
func End() []byte { return Record(CodeEnd, nil) }

// BitmapLossless returns a DefineBitsLossless2 record with format 5
// (premultiplied ARGB) filled with one color.
func BitmapLossless(id uint16, width, height int, c color.NRGBA) []byte {
	raw := make([]byte, 0, width*height*4)
	for i := 0; i < width*height; i++ {
		pm := func(v uint8) byte { return byte(uint32(v) * uint32(c.A) / 255) }
		raw = append(raw, c.A, pm(c.R), pm(c.G), pm(c.B))
	}
	return BitmapLosslessRaw(CodeDefineBitsLossless2, id, 5, width, height, -1, raw)
}

// BitmapLosslessRaw returns a lossless bitmap record whose zlib blob holds
// raw. tableSize is the palette size for format 3 and ignored when negative.
func BitmapLosslessRaw(code uint16, id uint16, format uint8, width, height, tableSize int, raw []byte) []byte {
	var w BitWriter
	w.U16(id)
	w.U8(format)
	w.U16(uint16(width))
	w.U16(uint16(height))
	if tableSize >= 0 {
		w.U8(uint8(tableSize - 1))
	}
	w.Raw(Deflate(raw))
	return Record(code, w.Bytes())
}

// BitmapShape returns a DefineShape3 record whose only fill style is a
// clipped bitmap fill of bitmapID using fill as the bitmap matrix.
func BitmapShape(id, bitmapID uint16, fill geom.Matrix) []byte {
	var w BitWriter
	w.U16(id)
	w.Rect(geom.Rect{XMax: 200, YMax: 200})
	w.U8(1)    // fill style count
	w.U8(0x41) // clipped bitmap
	w.U16(bitmapID)
	w.Matrix(fill)
	w.U8(0) // line style count
	w.WriteUB(1, 4)
	w.WriteUB(0, 4)
	w.WriteUB(0, 6) // end shape record
	return Record(CodeDefineShape3, w.Bytes())
}

// Place describes a PlaceObject2 record. Nil pointers and zero values are
// omitted from the record.
type Place struct {
	Depth       uint16
	CharacterID uint16
	Move        bool
	Matrix      *geom.Matrix
	Color       *geom.ColorTransform
	ClipDepth   uint16
	Name        string
}

// PlaceObject2 returns a PlaceObject2 record.
func PlaceObject2(p Place) []byte {
	var flags uint8
	if p.ClipDepth != 0 {
		flags |= 0x40
	}
	if p.Name != "" {
		flags |= 0x20
	}
	if p.Color != nil {
		flags |= 0x08
	}
	if p.Matrix != nil {
		flags |= 0x04
	}
	if p.CharacterID != 0 {
		flags |= 0x02
	}
	if p.Move {
		flags |= 0x01
	}

	var w BitWriter
	w.U8(flags)
	w.U16(p.Depth)
	if p.CharacterID != 0 {
		w.U16(p.CharacterID)
	}
	if p.Matrix != nil {
		w.Matrix(*p.Matrix)
	}
	if p.Color != nil {
		w.ColorTransform(*p.Color, true)
	}
	if p.Name != "" {
		w.CString(p.Name)
	}
	if p.ClipDepth != 0 {
		w.U16(p.ClipDepth)
	}
	return Record(CodePlaceObject2, w.Bytes())
}

// RemoveObject2 returns a RemoveObject2 record.
func RemoveObject2(depth uint16) []byte {
	return Record(CodeRemoveObject2, le16(depth))
}

// FrameLabel returns a FrameLabel record.
func FrameLabel(name string) []byte {
	var w BitWriter
	w.CString(name)
	return Record(CodeFrameLabel, w.Bytes())
}

// Sprite returns a DefineSprite record holding the given control records.
// An End record is appended.
func Sprite(id, frameCount uint16, records ...[]byte) []byte {
	var w BitWriter
	w.U16(id)
	w.U16(frameCount)
	for _, r := range records {
		w.Raw(r)
	}
	w.Raw(End())
	return Record(CodeDefineSprite, w.Bytes())
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
