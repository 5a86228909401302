package tag

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // DefineBitsJPEG2 may embed GIF data
	_ "image/jpeg"
	_ "image/png" // DefineBitsJPEG2 may embed PNG data
	"io"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/image/draw"

	"github.com/gogpu/swf/bitstream"
)

// Lossless bitmap formats.
const (
	bitmapColormap8 = 3
	bitmapRGB15     = 4
	bitmapRGB32     = 5
)

func parseLossless(h Header, r *bitstream.Reader) (Tag, error) {
	id, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	format, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	w16, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	h16, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	width, height := int(w16), int(h16)
	alpha := h.Code == CodeDefineBitsLossless2

	var tableSize int
	if format == bitmapColormap8 {
		n, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		tableSize = int(n) + 1
	}

	var img *image.NRGBA
	switch format {
	case bitmapColormap8:
		entry := 3
		if alpha {
			entry = 4
		}
		stride := (width + 3) &^ 3
		raw, err := inflate(r.Rest(), tableSize*entry+stride*height)
		if err != nil {
			return nil, fmt.Errorf("bitmap %d: %w", id, err)
		}
		img = decodeColormap(raw, width, height, tableSize, alpha)
	case bitmapRGB15:
		if alpha {
			return nil, fmt.Errorf("%w: bitmap %d uses 15-bit pixels with alpha", ErrCorruptBitmap, id)
		}
		stride := (width*2 + 3) &^ 3
		raw, err := inflate(r.Rest(), stride*height)
		if err != nil {
			return nil, fmt.Errorf("bitmap %d: %w", id, err)
		}
		img = decodeRGB15(raw, width, height)
	case bitmapRGB32:
		raw, err := inflate(r.Rest(), width*height*4)
		if err != nil {
			return nil, fmt.Errorf("bitmap %d: %w", id, err)
		}
		img = decodeRGB32(raw, width, height, alpha)
	default:
		return nil, fmt.Errorf("%w: bitmap %d has format %d", ErrCorruptBitmap, id, format)
	}
	return &DefineBits{Header: h, ID: id, Image: img}, nil
}

// maxBitmapBytes bounds the decompressed size of a single bitmap.
const maxBitmapBytes = 1 << 28

// inflate decompresses a zlib blob that must hold at least n bytes.
func inflate(data []byte, n int) ([]byte, error) {
	if n > maxBitmapBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds bitmap size limit", ErrCorruptBitmap, n)
	}
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptBitmap, err)
	}
	defer zr.Close()
	out := make([]byte, n)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("%w: inflate %d bytes: %w", ErrCorruptBitmap, n, err)
	}
	return out, nil
}

func decodeColormap(raw []byte, width, height, tableSize int, alpha bool) *image.NRGBA {
	entry := 3
	if alpha {
		entry = 4
	}
	palette := make([][4]uint8, tableSize)
	for i := range palette {
		c := raw[i*entry:]
		if alpha {
			palette[i] = unpremultiply(c[0], c[1], c[2], c[3])
		} else {
			palette[i] = [4]uint8{c[0], c[1], c[2], 0xFF}
		}
	}
	pixels := raw[tableSize*entry:]
	stride := (width + 3) &^ 3
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := pixels[y*stride:]
		for x := 0; x < width; x++ {
			idx := int(row[x])
			if idx >= tableSize {
				continue // out-of-range index stays transparent
			}
			c := palette[idx]
			copy(img.Pix[y*img.Stride+x*4:], c[:])
		}
	}
	return img
}

func decodeRGB15(raw []byte, width, height int) *image.NRGBA {
	stride := (width*2 + 3) &^ 3
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	expand := func(v uint16) uint8 {
		v &= 0x1F
		return uint8(v<<3 | v>>2)
	}
	for y := 0; y < height; y++ {
		row := raw[y*stride:]
		for x := 0; x < width; x++ {
			v := uint16(row[x*2])<<8 | uint16(row[x*2+1])
			p := img.Pix[y*img.Stride+x*4:]
			p[0] = expand(v >> 10)
			p[1] = expand(v >> 5)
			p[2] = expand(v)
			p[3] = 0xFF
		}
	}
	return img
}

func decodeRGB32(raw []byte, width, height int, alpha bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		s := raw[i*4 : i*4+4]
		var c [4]uint8
		if alpha {
			c = unpremultiply(s[1], s[2], s[3], s[0])
		} else {
			c = [4]uint8{s[1], s[2], s[3], 0xFF}
		}
		y, x := i/width, i%width
		copy(img.Pix[y*img.Stride+x*4:], c[:])
	}
	return img
}

// unpremultiply converts a premultiplied color to straight alpha.
func unpremultiply(r, g, b, a uint8) [4]uint8 {
	if a == 0 {
		return [4]uint8{}
	}
	if a == 0xFF {
		return [4]uint8{r, g, b, a}
	}
	div := func(c uint8) uint8 {
		v := (uint32(c)*255 + uint32(a)/2) / uint32(a)
		if v > 255 {
			v = 255
		}
		return uint8(v)
	}
	return [4]uint8{div(r), div(g), div(b), a}
}

// jpegErrorHeader is the bogus end/start marker pair older exporters put in
// front of the real image data.
var jpegErrorHeader = []byte{0xFF, 0xD9, 0xFF, 0xD8}

func parseJPEG(h Header, r *bitstream.Reader) (Tag, error) {
	id, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	var data, alpha []byte
	if h.Code == CodeDefineBitsJPEG3 {
		n, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if data, err = r.ReadBytes(int(n)); err != nil {
			return nil, err
		}
		alpha = r.Rest()
	} else {
		data = r.Rest()
	}
	data = bytes.TrimPrefix(data, jpegErrorHeader)

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: bitmap %d: %w", ErrCorruptBitmap, id, err)
	}
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)

	// Separate alpha only applies to JPEG data; embedded PNG and GIF carry
	// their own.
	if len(alpha) > 0 && format == "jpeg" {
		a, err := inflate(alpha, b.Dx()*b.Dy())
		if err != nil {
			return nil, fmt.Errorf("bitmap %d alpha: %w", id, err)
		}
		for i, v := range a {
			img.Pix[i*4+3] = v
		}
	}
	return &DefineBits{Header: h, ID: id, Image: img}, nil
}
