// Package library holds the character definitions of a movie keyed by
// character ID.
package library

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/swf/diag"
	"github.com/gogpu/swf/geom"
	"github.com/gogpu/swf/tag"
)

// ErrDuplicateDefinition is returned when a character ID is defined twice.
var ErrDuplicateDefinition = errors.New("library: duplicate character definition")

// noBitmap is the bitmap ID that marks a bitmap fill without a bitmap.
const noBitmap = 0xFFFF

// Definition is one character definition. The concrete types are *Bitmap,
// *Shape and *Timeline.
type Definition interface {
	definition()
}

// Bitmap is a decoded raster with straight alpha.
type Bitmap struct {
	ID    uint16
	Image *image.NRGBA
}

// Width returns the bitmap width in pixels.
func (b *Bitmap) Width() int { return b.Image.Rect.Dx() }

// Height returns the bitmap height in pixels.
func (b *Bitmap) Height() int { return b.Image.Rect.Dy() }

// Fill is a bitmap fill of a shape: the bitmap and the matrix that maps
// bitmap pixels into shape space.
type Fill struct {
	BitmapID uint16
	Matrix   geom.Matrix
}

// Shape is a vector shape reduced to its bitmap fills, in fill-style order.
type Shape struct {
	ID     uint16
	Bounds geom.Rect
	Fills  []Fill
}

// Timeline is a nested timeline (sprite).
type Timeline struct {
	ID         uint16
	FrameCount uint16
	Tags       []tag.Tag
}

func (*Bitmap) definition()   {}
func (*Shape) definition()    {}
func (*Timeline) definition() {}

// Library maps character IDs to definitions.
type Library struct {
	defs    map[uint16]Definition
	offsets map[uint16]int // byte offset of each definition tag
}

// New returns an empty library.
func New() *Library {
	return &Library{defs: make(map[uint16]Definition), offsets: make(map[uint16]int)}
}

// Register adds def under id. A definition registered this way is visible
// from every offset.
func (l *Library) Register(id uint16, def Definition) error {
	return l.RegisterAt(id, def, -1)
}

// RegisterAt adds def under id, defined by the tag at byte offset.
func (l *Library) RegisterAt(id uint16, def Definition, offset int) error {
	if _, ok := l.defs[id]; ok {
		return fmt.Errorf("%w: id %d", ErrDuplicateDefinition, id)
	}
	l.defs[id] = def
	l.offsets[id] = offset
	return nil
}

// Lookup returns the definition registered under id.
func (l *Library) Lookup(id uint16) (Definition, bool) {
	def, ok := l.defs[id]
	return def, ok
}

// LookupAt returns the definition registered under id unless its tag
// comes after byte offset. defined reports whether id is defined at all, so
// callers can tell a later definition from a missing one.
func (l *Library) LookupAt(id uint16, offset int) (def Definition, defined bool, ok bool) {
	def, defined = l.defs[id]
	if !defined || l.offsets[id] > offset {
		return nil, defined, false
	}
	return def, true, true
}

// Len returns the number of definitions.
func (l *Library) Len() int { return len(l.defs) }

// IDs returns the registered character IDs in ascending order.
func (l *Library) IDs() []uint16 {
	ids := make([]uint16, 0, len(l.defs))
	for id := range l.defs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Resolve returns the definition registered under id if it has type T.
// It returns false when id is not defined or is defined as another type.
func Resolve[T Definition](l *Library, id uint16) (T, bool) {
	def, ok := l.defs[id]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := def.(T)
	return t, ok
}

// Build registers every top-level definition tag in tags and returns the
// library together with the remaining control tags in their original
// order. Bitmap fills naming a character that is not a bitmap, or one
// defined after the shape, are reported to log, which may be nil; fills
// on a later bitmap are dropped.
func Build(tags []tag.Tag, log *diag.Log) (*Library, []tag.Tag, error) {
	l := New()
	control := make([]tag.Tag, 0, len(tags))
	var shapes []*tag.DefineShape
	for _, t := range tags {
		var (
			id  uint16
			def Definition
		)
		switch t := t.(type) {
		case *tag.DefineBits:
			id, def = t.ID, &Bitmap{ID: t.ID, Image: t.Image}
		case *tag.DefineShape:
			id, def = t.ID, shapeFromTag(t)
			shapes = append(shapes, t)
		case *tag.DefineSprite:
			id, def = t.ID, &Timeline{ID: t.ID, FrameCount: t.FrameCount, Tags: t.Tags}
		default:
			control = append(control, t)
			continue
		}
		if err := l.RegisterAt(id, def, tag.HeaderOf(t).Offset); err != nil {
			return nil, nil, fmt.Errorf("%w at offset %d", err, tag.HeaderOf(t).Offset)
		}
	}

	for _, t := range shapes {
		s, _ := Resolve[*Shape](l, t.ID)
		fills := s.Fills[:0]
		for _, f := range s.Fills {
			def, defined, ok := l.LookupAt(f.BitmapID, t.Offset)
			switch {
			case !defined:
				// reported when an instance needs it
			case !ok:
				warn(log, t.Offset, f.BitmapID, "shape %d fills with bitmap %d, defined after the shape", t.ID, f.BitmapID)
				continue
			default:
				if _, isBitmap := def.(*Bitmap); !isBitmap {
					warn(log, t.Offset, f.BitmapID, "shape %d fills with character %d, which is not a bitmap", t.ID, f.BitmapID)
				}
			}
			fills = append(fills, f)
		}
		s.Fills = fills
	}
	return l, control, nil
}

func warn(log *diag.Log, offset int, id uint16, format string, args ...any) {
	if log != nil {
		log.Add(diag.UnresolvedReference, offset, id, format, args...)
	}
}

func shapeFromTag(t *tag.DefineShape) *Shape {
	s := &Shape{ID: t.ID, Bounds: t.Bounds}
	for _, f := range t.Fills {
		if !f.Kind.IsBitmap() || f.BitmapID == noBitmap {
			continue
		}
		s.Fills = append(s.Fills, Fill{BitmapID: f.BitmapID, Matrix: f.Matrix})
	}
	return s
}
