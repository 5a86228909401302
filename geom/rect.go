package geom

// Rect is an axis-aligned rectangle in twips as stored in the file.
type Rect struct {
	XMin, XMax int32
	YMin, YMax int32
}

// Width returns the width in twips.
func (r Rect) Width() int32 { return r.XMax - r.XMin }

// Height returns the height in twips.
func (r Rect) Height() int32 { return r.YMax - r.YMin }

// PixelSize returns the rectangle's size converted to pixels.
func (r Rect) PixelSize() (w, h float64) {
	return float64(r.Width()) / TwipsPerPixel, float64(r.Height()) / TwipsPerPixel
}

// IsEmpty returns true if the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.XMin >= r.XMax || r.YMin >= r.YMax
}
