package tag

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/swf/bitstream"
	"github.com/gogpu/swf/diag"
)

// Errors returned by the decoder.
var (
	// ErrTagOverrun is returned when a tag parser reads past the length
	// declared in the record header.
	ErrTagOverrun = errors.New("tag: read past declared tag length")

	// ErrCorruptBitmap is returned when bitmap pixel data cannot be decoded.
	ErrCorruptBitmap = errors.New("tag: corrupt bitmap data")

	// ErrUnknownFilter is returned for a PlaceObject3 filter type that
	// cannot be skipped because its size is unknown.
	ErrUnknownFilter = errors.New("tag: unknown filter type")
)

// Decoder turns tag records into typed tags.
type Decoder struct {
	// Log receives UnknownTagCode warnings. It may be nil.
	Log *diag.Log

	// Logger receives per-tag debug records. It may be nil.
	Logger *slog.Logger
}

// Next decodes the record at the reader's cursor.
func (d *Decoder) Next(r *bitstream.Reader) (Tag, error) {
	offset := r.Offset()
	word, err := r.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("tag: record header at offset %d: %w", offset, err)
	}
	code := Code(word >> 6)
	length := int(word & 0x3F)
	if length == 0x3F {
		n, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("tag: long record header at offset %d: %w", offset, err)
		}
		if n > uint32(r.Len()) {
			return nil, fmt.Errorf("tag: %s at offset %d declares %d bytes, %d left: %w",
				code, offset, n, r.Len(), bitstream.ErrTruncatedInput)
		}
		length = int(n)
	}
	payload, err := r.Sub(length)
	if err != nil {
		return nil, fmt.Errorf("tag: %s at offset %d: %w", code, offset, err)
	}

	if d.Logger != nil {
		d.Logger.Debug("tag", "code", code.String(), "offset", offset, "length", length)
	}

	h := Header{Code: code, Offset: offset, Length: length}
	t, err := d.parse(h, payload)
	if err != nil {
		if errors.Is(err, bitstream.ErrTruncatedInput) {
			return nil, fmt.Errorf("tag: %s at offset %d (length %d): %w: %w", code, offset, length, ErrTagOverrun, err)
		}
		return nil, fmt.Errorf("tag: %s at offset %d: %w", code, offset, err)
	}
	return t, nil
}

// Decode reads tags until an End record or the end of input, whichever
// comes first. The End record is consumed but not returned.
func (d *Decoder) Decode(r *bitstream.Reader) ([]Tag, error) {
	var tags []Tag
	for r.Len() > 0 {
		t, err := d.Next(r)
		if err != nil {
			return nil, err
		}
		if _, ok := t.(*End); ok {
			return tags, nil
		}
		tags = append(tags, t)
	}
	if d.Logger != nil {
		d.Logger.Debug("tag stream ended without End record", "offset", r.Offset())
	}
	return tags, nil
}

func (d *Decoder) parse(h Header, r *bitstream.Reader) (Tag, error) {
	switch h.Code {
	case CodeEnd:
		return &End{Header: h}, nil
	case CodeShowFrame:
		return &ShowFrame{Header: h}, nil
	case CodePlaceObject:
		return parsePlaceObject(h, r)
	case CodePlaceObject2:
		return parsePlaceObject2(h, r)
	case CodePlaceObject3:
		return parsePlaceObject3(h, r)
	case CodeRemoveObject:
		return parseRemoveObject(h, r)
	case CodeRemoveObject2:
		return parseRemoveObject2(h, r)
	case CodeFrameLabel:
		return parseFrameLabel(h, r)
	case CodeSetBackgroundColor:
		c, err := r.ReadRGB()
		if err != nil {
			return nil, err
		}
		return &SetBackgroundColor{Header: h, Color: c}, nil
	case CodeFileAttributes:
		flags, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return &FileAttributes{Header: h, Flags: flags}, nil
	case CodeDefineShape, CodeDefineShape2, CodeDefineShape3, CodeDefineShape4:
		return parseDefineShape(h, r)
	case CodeDefineBitsLossless, CodeDefineBitsLossless2:
		return parseLossless(h, r)
	case CodeDefineBitsJPEG2, CodeDefineBitsJPEG3:
		return parseJPEG(h, r)
	case CodeDefineSprite:
		return d.parseSprite(h, r)
	}
	if h.Code.isOpaque() {
		return &Opaque{Header: h, Data: r.Rest()}, nil
	}
	if d.Log != nil {
		d.Log.Add(diag.UnknownTagCode, h.Offset, 0, "unsupported tag code %d (%d bytes)", uint16(h.Code), h.Length)
	}
	return &Unknown{Header: h}, nil
}

func (d *Decoder) parseSprite(h Header, r *bitstream.Reader) (Tag, error) {
	id, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	frames, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	tags, err := d.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("sprite %d: %w", id, err)
	}
	return &DefineSprite{Header: h, ID: id, FrameCount: frames, Tags: tags}, nil
}

func parseRemoveObject(h Header, r *bitstream.Reader) (Tag, error) {
	id, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	depth, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return &RemoveObject{Header: h, CharacterID: id, Depth: depth}, nil
}

func parseRemoveObject2(h Header, r *bitstream.Reader) (Tag, error) {
	depth, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return &RemoveObject{Header: h, Depth: depth}, nil
}

func parseFrameLabel(h Header, r *bitstream.Reader) (Tag, error) {
	name, err := r.ReadCString()
	if err != nil {
		return nil, err
	}
	t := &FrameLabel{Header: h, Name: name}
	if r.Len() > 0 {
		flag, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		t.Anchor = flag == 1
	}
	return t, nil
}
