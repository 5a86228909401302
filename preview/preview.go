// Package preview rasterizes baked frames on the CPU.
//
// It replays the draw groups of a bake.Frame the way a stencil renderer
// would, with an in-memory stencil buffer standing in for the GPU one, and
// is used to inspect conversions without a device.
package preview

import (
	"context"
	"image"
	"image/color"
	"math"
	"runtime"

	"github.com/remeh/sizedwaitgroup"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/swf/bake"
	"github.com/gogpu/swf/cache"
	"github.com/gogpu/swf/flatten"
	"github.com/gogpu/swf/geom"
	"github.com/gogpu/swf/library"
)

// DefaultCacheBudget bounds the bytes of color-transformed bitmaps kept
// between frames.
const DefaultCacheBudget = 64 << 20

// Renderer draws baked frames of one movie.
// A Renderer is safe for concurrent use.
type Renderer struct {
	lib        *library.Library
	width      int
	height     int
	background color.NRGBA
	interp     draw.Interpolator
	tints      *cache.Cache[tintKey, *image.NRGBA]
}

// Option configures a Renderer.
type Option func(*options)

type options struct {
	background geom.RGBA
	interp     draw.Interpolator
	budget     int64
}

// WithBackground sets the color frames are cleared to. Default is opaque
// white.
func WithBackground(c geom.RGBA) Option {
	return func(o *options) {
		o.background = c
	}
}

// WithInterpolator sets the bitmap sampling filter. Default is
// draw.ApproxBiLinear.
func WithInterpolator(interp draw.Interpolator) Option {
	return func(o *options) {
		if interp != nil {
			o.interp = interp
		}
	}
}

// WithCacheBudget sets how many bytes of color-transformed bitmaps are
// cached.
func WithCacheBudget(bytes int64) Option {
	return func(o *options) {
		o.budget = bytes
	}
}

// New returns a renderer of width × height pixel frames drawing bitmaps
// from lib.
func New(lib *library.Library, width, height int, opts ...Option) *Renderer {
	o := options{
		background: geom.White,
		interp:     draw.ApproxBiLinear,
		budget:     DefaultCacheBudget,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Renderer{
		lib:        lib,
		width:      max(width, 1),
		height:     max(height, 1),
		background: toNRGBA(o.background),
		interp:     o.interp,
		tints: cache.New[tintKey, *image.NRGBA](o.budget, tintKey.hash, func(img *image.NRGBA) int64 {
			return int64(len(img.Pix))
		}),
	}
}

// Bounds returns the frame rectangle.
func (r *Renderer) Bounds() image.Rectangle { return image.Rect(0, 0, r.width, r.height) }

// CacheStats returns the statistics of the color-transformed bitmap cache.
func (r *Renderer) CacheStats() cache.Stats { return r.tints.Stats() }

// Render draws one frame.
func (r *Renderer) Render(f *bake.Frame) *image.RGBA {
	canvas := image.NewRGBA(r.Bounds())
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(r.background), image.Point{}, draw.Src)

	s := newStencil(r.Bounds())
	refs := f.StencilReferences()
	for _, g := range f.Groups {
		var (
			clip    *image.Alpha
			clipRef uint8
		)
		for q := g.Start; q < g.Start+g.Count; q++ {
			ref := uint8(refs[q])
			if g.Role == flatten.Masked && (clip == nil || ref != clipRef) {
				clip, clipRef = s.equal(ref), ref
			}
			src, sr, m, ok := r.quad(f, q)
			if !ok {
				continue
			}
			switch g.Role {
			case flatten.Mask, flatten.MaskReset:
				s.cover(r.interp, m, src, sr)
				if g.Role == flatten.Mask {
					s.step(ref, 1)
				} else {
					s.step(ref, -1)
				}
			case flatten.Masked:
				r.interp.Transform(canvas, m, src, sr, draw.Over, &draw.Options{DstMask: clip})
			default:
				r.interp.Transform(canvas, m, src, sr, draw.Over, nil)
			}
		}
	}
	return canvas
}

// RenderAll draws frames using up to workers goroutines, or one per CPU
// when workers is zero or less. It stops early when ctx is done.
func (r *Renderer) RenderAll(ctx context.Context, frames []bake.Frame, workers int) ([]*image.RGBA, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make([]*image.RGBA, len(frames))
	wg := sizedwaitgroup.New(workers)
	for i := range frames {
		if err := wg.AddWithContext(ctx); err != nil {
			wg.Wait()
			return nil, err
		}
		go func(i int) {
			defer wg.Done()
			out[i] = r.Render(&frames[i])
		}(i)
	}
	wg.Wait()
	return out, ctx.Err()
}

// quad returns the color-transformed bitmap of quad q, its source
// rectangle and the transform from bitmap to frame pixels.
func (r *Renderer) quad(f *bake.Frame, q int) (*image.NRGBA, image.Rectangle, f64.Aff3, bool) {
	bmp, ok := library.Resolve[*library.Bitmap](r.lib, f.Bitmaps[q])
	if !ok || bmp.Image == nil {
		return nil, image.Rectangle{}, f64.Aff3{}, false
	}

	b := bmp.Image.Bounds()
	u0, v0 := bake.UnpackUV(f.UVs[2*q])
	u1, v1 := bake.UnpackUV(f.UVs[2*q+1])
	sr := image.Rect(
		b.Min.X+int(math.Round(u0*float64(b.Dx()))),
		b.Min.Y+int(math.Round(v0*float64(b.Dy()))),
		b.Min.X+int(math.Round(u1*float64(b.Dx()))),
		b.Min.Y+int(math.Round(v1*float64(b.Dy()))),
	)
	if sr.Empty() {
		return nil, sr, f64.Aff3{}, false
	}

	// Corners 0, 1 and 3 of the quad are the images of the source
	// rectangle's top-left, top-right and bottom-left corners.
	v := f.Vertices[8*q : 8*q+8]
	sw, sh := float64(sr.Dx()), float64(sr.Dy())
	a := (float64(v[2]) - float64(v[0])) / sw
	bb := (float64(v[3]) - float64(v[1])) / sw
	c := (float64(v[6]) - float64(v[0])) / sh
	d := (float64(v[7]) - float64(v[1])) / sh
	if math.Abs(a*d-bb*c) < 1e-12 {
		return nil, sr, f64.Aff3{}, false
	}
	x0, y0 := float64(sr.Min.X), float64(sr.Min.Y)
	m := f64.Aff3{
		a, c, float64(v[0]) - a*x0 - c*y0,
		bb, d, float64(v[1]) - bb*x0 - d*y0,
	}
	return r.tinted(bmp, f, q), sr, m, true
}

// tinted returns bmp with the color transform of quad q applied.
func (r *Renderer) tinted(bmp *library.Bitmap, f *bake.Frame, q int) *image.NRGBA {
	key := tintKey{
		id:  bmp.ID,
		mul: [2]uint32{f.Mul[2*q], f.Mul[2*q+1]},
		add: [2]uint32{f.Add[2*q], f.Add[2*q+1]},
	}
	if key.identity() {
		return bmp.Image
	}
	return r.tints.GetOrCreate(key, func() *image.NRGBA {
		return tint(bmp.Image, key.transform())
	})
}

func toNRGBA(c geom.RGBA) color.NRGBA {
	return color.NRGBA{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: channel(c.A)}
}

// channel converts a [0, 1] component to 8 bits, clamping.
func channel(v float64) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 1:
		return 0xFF
	}
	return uint8(math.Round(v * 0xFF))
}
