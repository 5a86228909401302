package preview

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// stencil is an 8-bit stencil buffer with a coverage scratch image for
// mask quads.
type stencil struct {
	bounds  image.Rectangle
	values  []uint8
	cov     *image.Alpha
	covRect image.Rectangle
}

func newStencil(bounds image.Rectangle) *stencil {
	return &stencil{
		bounds: bounds,
		values: make([]uint8, bounds.Dx()*bounds.Dy()),
		cov:    image.NewAlpha(bounds),
	}
}

// cover rasterizes a quad's alpha into the coverage image. Only the quad's
// bounding box is touched.
func (s *stencil) cover(interp draw.Interpolator, m f64.Aff3, src image.Image, sr image.Rectangle) {
	for y := s.covRect.Min.Y; y < s.covRect.Max.Y; y++ {
		i := s.cov.PixOffset(s.covRect.Min.X, y)
		clear(s.cov.Pix[i : i+s.covRect.Dx()])
	}
	s.covRect = transformedBounds(m, sr).Intersect(s.bounds)
	interp.Transform(s.cov, m, src, sr, draw.Src, nil)
}

// step adds delta to every covered pixel whose value equals ref.
func (s *stencil) step(ref uint8, delta int) {
	r := s.covRect
	w := s.bounds.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if s.cov.Pix[s.cov.PixOffset(x, y)] == 0 {
				continue
			}
			i := (y-s.bounds.Min.Y)*w + (x - s.bounds.Min.X)
			if s.values[i] != ref {
				continue
			}
			switch {
			case delta > 0 && s.values[i] < 0xFF:
				s.values[i]++
			case delta < 0 && s.values[i] > 0:
				s.values[i]--
			}
		}
	}
}

// equal returns a clip mask that is opaque where the stencil equals ref.
func (s *stencil) equal(ref uint8) *image.Alpha {
	clip := image.NewAlpha(s.bounds)
	for i, v := range s.values {
		if v == ref {
			clip.Pix[i] = 0xFF
		}
	}
	return clip
}

// transformedBounds returns the integer bounds of sr mapped through m.
func transformedBounds(m f64.Aff3, sr image.Rectangle) image.Rectangle {
	corners := [4][2]float64{
		{float64(sr.Min.X), float64(sr.Min.Y)},
		{float64(sr.Max.X), float64(sr.Min.Y)},
		{float64(sr.Max.X), float64(sr.Max.Y)},
		{float64(sr.Min.X), float64(sr.Max.Y)},
	}
	var r image.Rectangle
	for i, c := range corners {
		x := m[0]*c[0] + m[1]*c[1] + m[2]
		y := m[3]*c[0] + m[4]*c[1] + m[5]
		px, py := int(math.Floor(x)), int(math.Floor(y))
		p := image.Rect(px, py, px+1, py+1)
		if i == 0 {
			r = p
		} else {
			r = r.Union(p)
		}
	}
	// Bilinear filtering reaches one pixel past the edges.
	return r.Inset(-1)
}
