package tag

import (
	"fmt"

	"github.com/gogpu/swf/bitstream"
	"github.com/gogpu/swf/geom"
)

func shapeVersion(c Code) int {
	switch c {
	case CodeDefineShape2:
		return 2
	case CodeDefineShape3:
		return 3
	case CodeDefineShape4:
		return 4
	default:
		return 1
	}
}

// parseDefineShape reads the character ID, bounds and the initial fill
// style array. Line styles and shape records carry no bitmap references
// and are left unread.
func parseDefineShape(h Header, r *bitstream.Reader) (Tag, error) {
	s := &DefineShape{Header: h, Version: shapeVersion(h.Code)}
	var err error
	if s.ID, err = r.ReadU16(); err != nil {
		return nil, err
	}
	if s.Bounds, err = r.ReadRect(); err != nil {
		return nil, err
	}
	if s.Version == 4 {
		if _, err = r.ReadRect(); err != nil { // edge bounds
			return nil, err
		}
		if _, err = r.ReadU8(); err != nil { // scaling strokes flags
			return nil, err
		}
	}
	if s.Fills, err = readFillStyles(r, s.Version); err != nil {
		return nil, err
	}
	return s, nil
}

func readFillStyles(r *bitstream.Reader, version int) ([]FillStyle, error) {
	n8, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	count := int(n8)
	if count == 0xFF && version >= 2 {
		n16, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		count = int(n16)
	}
	fills := make([]FillStyle, 0, count)
	for i := 0; i < count; i++ {
		f, err := readFillStyle(r, version)
		if err != nil {
			return nil, fmt.Errorf("fill style %d: %w", i, err)
		}
		fills = append(fills, f)
	}
	return fills, nil
}

func readFillStyle(r *bitstream.Reader, version int) (FillStyle, error) {
	kind, err := r.ReadU8()
	if err != nil {
		return FillStyle{}, err
	}
	f := FillStyle{Kind: FillKind(kind), Matrix: geom.Identity()}
	switch f.Kind {
	case FillSolid:
		if version >= 3 {
			f.Color, err = r.ReadRGBA()
		} else {
			f.Color, err = r.ReadRGB()
		}
		return f, err

	case FillLinearGradient, FillRadialGradient, FillFocalGradient:
		if f.Matrix, err = r.ReadMatrix(); err != nil {
			return f, err
		}
		if err = skipGradient(r, version, f.Kind == FillFocalGradient); err != nil {
			return f, err
		}
		return f, nil

	case FillRepeatingBitmap, FillClippedBitmap, FillNonSmoothedRepeating, FillNonSmoothedClipped:
		if f.BitmapID, err = r.ReadU16(); err != nil {
			return f, err
		}
		f.Matrix, err = r.ReadMatrix()
		return f, err
	}
	return f, fmt.Errorf("tag: unknown fill style type 0x%02x", kind)
}

func skipGradient(r *bitstream.Reader, version int, focal bool) error {
	b, err := r.ReadU8()
	if err != nil {
		return err
	}
	n := int(b & 0x0F)
	entry := 4 // ratio + RGB
	if version >= 3 {
		entry = 5 // ratio + RGBA
	}
	if err := r.Skip(n * entry); err != nil {
		return err
	}
	if focal {
		return r.Skip(2) // FIXED8 focal point
	}
	return nil
}
