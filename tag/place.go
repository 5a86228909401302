package tag

import (
	"fmt"

	"github.com/gogpu/swf/bitstream"
)

// PlaceObject2 flags.
const (
	placeHasClipActions = 1 << 7
	placeHasClipDepth   = 1 << 6
	placeHasName        = 1 << 5
	placeHasRatio       = 1 << 4
	placeHasColor       = 1 << 3
	placeHasMatrix      = 1 << 2
	placeHasCharacter   = 1 << 1
	placeMove           = 1 << 0
)

// Additional PlaceObject3 flags.
const (
	placeOpaqueBackground = 1 << 6
	placeHasVisible       = 1 << 5
	placeHasImage         = 1 << 4
	placeHasClassName     = 1 << 3
	placeCacheAsBitmap    = 1 << 2
	placeHasBlendMode     = 1 << 1
	placeHasFilterList    = 1 << 0
)

func parsePlaceObject(h Header, r *bitstream.Reader) (Tag, error) {
	id, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	depth, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	m, err := r.ReadMatrix()
	if err != nil {
		return nil, err
	}
	p := &PlaceObject{Header: h, Depth: depth, HasCharacter: true, CharacterID: id, Matrix: &m}
	if r.Len() > 0 {
		ct, err := r.ReadColorTransform(false)
		if err != nil {
			return nil, err
		}
		p.Color = &ct
	}
	return p, nil
}

func parsePlaceObject2(h Header, r *bitstream.Reader) (Tag, error) {
	flags, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	p := &PlaceObject{Header: h}
	if p.Depth, err = r.ReadU16(); err != nil {
		return nil, err
	}
	if err := readPlaceFields(p, r, flags, 0); err != nil {
		return nil, err
	}
	return p, nil
}

func parsePlaceObject3(h Header, r *bitstream.Reader) (Tag, error) {
	flags, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	flags3, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	p := &PlaceObject{Header: h}
	if p.Depth, err = r.ReadU16(); err != nil {
		return nil, err
	}
	if flags3&placeHasClassName != 0 || (flags3&placeHasImage != 0 && flags&placeHasCharacter != 0) {
		if p.ClassName, err = r.ReadCString(); err != nil {
			return nil, err
		}
	}
	if err := readPlaceFields(p, r, flags, flags3); err != nil {
		return nil, err
	}
	return p, nil
}

// readPlaceFields reads the optional fields shared by PlaceObject2 and
// PlaceObject3, followed by the PlaceObject3 extensions selected by flags3.
func readPlaceFields(p *PlaceObject, r *bitstream.Reader, flags, flags3 uint8) error {
	p.Move = flags&placeMove != 0
	if flags&placeHasCharacter != 0 {
		id, err := r.ReadU16()
		if err != nil {
			return err
		}
		p.HasCharacter = true
		p.CharacterID = id
	}
	if flags&placeHasMatrix != 0 {
		m, err := r.ReadMatrix()
		if err != nil {
			return err
		}
		p.Matrix = &m
	}
	if flags&placeHasColor != 0 {
		ct, err := r.ReadColorTransform(true)
		if err != nil {
			return err
		}
		p.Color = &ct
	}
	if flags&placeHasRatio != 0 {
		v, err := r.ReadU16()
		if err != nil {
			return err
		}
		p.Ratio = &v
	}
	if flags&placeHasName != 0 {
		s, err := r.ReadCString()
		if err != nil {
			return err
		}
		p.Name = &s
	}
	if flags&placeHasClipDepth != 0 {
		v, err := r.ReadU16()
		if err != nil {
			return err
		}
		p.ClipDepth = &v
	}

	if flags3&placeHasFilterList != 0 {
		p.HasFilters = true
		if err := skipFilters(r); err != nil {
			return err
		}
	}
	if flags3&placeHasBlendMode != 0 {
		v, err := r.ReadU8()
		if err != nil {
			return err
		}
		m := BlendMode(v)
		p.BlendMode = &m
	}
	if flags3&placeCacheAsBitmap != 0 {
		p.CacheAsBitmap = true
		// Some exporters set the flag without writing the byte.
		if r.Len() > 0 {
			if _, err := r.ReadU8(); err != nil {
				return err
			}
		}
	}
	if flags3&placeHasVisible != 0 {
		v, err := r.ReadU8()
		if err != nil {
			return err
		}
		visible := v != 0
		p.Visible = &visible
	}
	if flags3&placeOpaqueBackground != 0 {
		c, err := r.ReadRGBA()
		if err != nil {
			return err
		}
		p.Background = &c
	}

	// Clip actions are script event handlers; their bytes are left unread.
	p.HasClipActions = flags&placeHasClipActions != 0
	return nil
}

// skipFilters consumes a FILTERLIST.
func skipFilters(r *bitstream.Reader) error {
	count, err := r.ReadU8()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		id, err := r.ReadU8()
		if err != nil {
			return err
		}
		var n int
		switch id {
		case 0: // drop shadow
			n = 23
		case 1: // blur
			n = 9
		case 2: // glow
			n = 15
		case 3: // bevel
			n = 27
		case 4, 7: // gradient glow, gradient bevel
			colors, err := r.ReadU8()
			if err != nil {
				return err
			}
			n = int(colors)*5 + 19
		case 5: // convolution
			w, err := r.ReadU8()
			if err != nil {
				return err
			}
			h, err := r.ReadU8()
			if err != nil {
				return err
			}
			n = 4 + 4 + int(w)*int(h)*4 + 4 + 1
		case 6: // color matrix
			n = 20 * 4
		default:
			return fmt.Errorf("%w %d", ErrUnknownFilter, id)
		}
		if err := r.Skip(n); err != nil {
			return err
		}
	}
	return nil
}
