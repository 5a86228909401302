// Package tag decodes the length-prefixed tag records of a movie into a
// closed set of typed tags.
//
// Every record is handed to its parser through a reader scoped to the
// record's declared length. Parsers may leave trailing bytes unread; reading
// past the end is ErrTagOverrun. Codes outside the supported set decode to
// *Unknown so that frame boundaries around them are preserved.
package tag

import (
	"image"

	"github.com/gogpu/swf/geom"
)

// Header locates a tag record in the file.
type Header struct {
	Code   Code
	Offset int // absolute offset of the record header
	Length int // payload length in bytes
}

func (h *Header) header() *Header { return h }

// Tag is one decoded tag record. The concrete types are:
// *End, *ShowFrame, *PlaceObject, *RemoveObject, *FrameLabel,
// *SetBackgroundColor, *FileAttributes, *DefineBits, *DefineShape,
// *DefineSprite, *Opaque and *Unknown.
type Tag interface {
	header() *Header
}

// HeaderOf returns the record header of t.
func HeaderOf(t Tag) Header { return *t.header() }

// End terminates the main tag stream or a sprite's control tags.
type End struct{ Header }

// ShowFrame marks a frame boundary.
type ShowFrame struct{ Header }

// PlaceObject is a PlaceObject, PlaceObject2 or PlaceObject3 record.
// Optional fields are nil when absent from the record.
type PlaceObject struct {
	Header
	Depth        uint16
	HasCharacter bool
	CharacterID  uint16
	// Move is set when the record modifies the object already at Depth.
	Move          bool
	Matrix        *geom.Matrix
	Color         *geom.ColorTransform
	Ratio         *uint16
	Name          *string
	ClipDepth     *uint16
	ClassName     string
	BlendMode     *BlendMode
	CacheAsBitmap bool
	Visible       *bool
	Background    *geom.RGBA
	// HasFilters and HasClipActions record data that was skipped.
	HasFilters     bool
	HasClipActions bool
}

// RemoveObject is a RemoveObject or RemoveObject2 record. CharacterID is
// only set by the former.
type RemoveObject struct {
	Header
	CharacterID uint16
	Depth       uint16
}

// FrameLabel names the frame it appears in.
type FrameLabel struct {
	Header
	Name   string
	Anchor bool
}

// SetBackgroundColor sets the stage color.
type SetBackgroundColor struct {
	Header
	Color geom.RGBA
}

// FileAttributes carries the movie's feature flags.
type FileAttributes struct {
	Header
	Flags uint32
}

// DefineBits is any raster definition (lossless or JPEG family) with its
// pixels decoded to straight-alpha RGBA.
type DefineBits struct {
	Header
	ID    uint16
	Image *image.NRGBA
}

// FillKind is a fill style type byte.
type FillKind uint8

// Fill style types.
const (
	FillSolid                FillKind = 0x00
	FillLinearGradient       FillKind = 0x10
	FillRadialGradient       FillKind = 0x12
	FillFocalGradient        FillKind = 0x13
	FillRepeatingBitmap      FillKind = 0x40
	FillClippedBitmap        FillKind = 0x41
	FillNonSmoothedRepeating FillKind = 0x42
	FillNonSmoothedClipped   FillKind = 0x43
)

// IsBitmap reports whether the fill samples a bitmap character.
func (k FillKind) IsBitmap() bool { return k >= FillRepeatingBitmap && k <= FillNonSmoothedClipped }

// FillStyle is one entry of a shape's fill style array. Gradient records
// are consumed but not kept.
type FillStyle struct {
	Kind     FillKind
	Color    geom.RGBA
	BitmapID uint16
	Matrix   geom.Matrix
}

// DefineShape is a DefineShape record of any version (1-4). Only the
// initial fill style array is decoded.
type DefineShape struct {
	Header
	ID      uint16
	Version int
	Bounds  geom.Rect
	Fills   []FillStyle
}

// DefineSprite is a nested timeline: its control tags up to, and not
// including, the terminating End.
type DefineSprite struct {
	Header
	ID         uint16
	FrameCount uint16
	Tags       []Tag
}

// Opaque is a recognised tag skipped without interpretation, such as
// script bytecode.
type Opaque struct {
	Header
	Data []byte
}

// Unknown stands in for a tag code the decoder does not support.
type Unknown struct{ Header }

// BlendMode is a PlaceObject3 blend mode.
type BlendMode uint8

// Blend modes.
const (
	BlendNormal BlendMode = iota + 1
	BlendLayer
	BlendMultiply
	BlendScreen
	BlendLighten
	BlendDarken
	BlendDifference
	BlendAdd
	BlendSubtract
	BlendInvert
	BlendAlpha
	BlendErase
	BlendOverlay
	BlendHardLight
)

// String returns a human-readable name for the blend mode.
func (m BlendMode) String() string {
	switch m {
	case 0, BlendNormal:
		return "Normal"
	case BlendLayer:
		return "Layer"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendLighten:
		return "Lighten"
	case BlendDarken:
		return "Darken"
	case BlendDifference:
		return "Difference"
	case BlendAdd:
		return "Add"
	case BlendSubtract:
		return "Subtract"
	case BlendInvert:
		return "Invert"
	case BlendAlpha:
		return "Alpha"
	case BlendErase:
		return "Erase"
	case BlendOverlay:
		return "Overlay"
	case BlendHardLight:
		return "HardLight"
	default:
		return "Unknown"
	}
}
