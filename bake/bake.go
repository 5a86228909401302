// Package bake turns flattened frames into renderer-ready buffers: quad
// vertices, packed texture coordinates and colors, and draw groups keyed by
// masking role and clip depth.
package bake

import (
	"github.com/gogpu/swf/flatten"
	"github.com/gogpu/swf/geom"
)

// DefaultAlphaThreshold is the alpha below which plain and masked
// instances are dropped.
const DefaultAlphaThreshold = 1.0 / 255

// UVRect is the region of a texture holding one bitmap.
type UVRect struct {
	U0, V0, U1, V1 float64
}

// FullRect covers a whole texture.
var FullRect = UVRect{U1: 1, V1: 1}

// UVSource locates bitmaps in the host's textures.
type UVSource interface {
	UV(bitmapID uint16) UVRect
}

// UVSourceFunc adapts a function to UVSource.
type UVSourceFunc func(bitmapID uint16) UVRect

// UV calls f.
func (f UVSourceFunc) UV(bitmapID uint16) UVRect { return f(bitmapID) }

// Group is a run of quads sharing a role and clip depth. Start and Count
// are in quads.
type Group struct {
	Role      flatten.Role
	ClipDepth int
	Start     int
	Count     int
}

// Frame is one baked frame. Quad i owns Vertices[8i:8i+8] (four x, y
// corners), UVs[2i:2i+2] (min and max corner), Mul[2i:2i+2] and
// Add[2i:2i+2] (RG and BA channel pairs), Bitmaps[i] and Stencil[i].
type Frame struct {
	Index    int
	Label    string
	Vertices []float32
	UVs      []uint32
	Mul      []uint32
	Add      []uint32
	Bitmaps  []uint16
	// Stencil holds the stencil reference of every quad; see
	// StencilReferences.
	Stencil []uint8
	Groups  []Group
}

// Quads returns the number of quads in the frame.
func (f *Frame) Quads() int { return len(f.Bitmaps) }

// Baker bakes flattened frames. The zero value uses the defaults.
type Baker struct {
	// AlphaThreshold drops plain and masked instances whose color maps
	// opaque white below this alpha. Zero selects DefaultAlphaThreshold;
	// use a negative value to keep every instance.
	AlphaThreshold float64
	// Scale converts stage units to output units. Zero selects 1/20,
	// twips to pixels.
	Scale float64
	// UVs locates bitmaps in textures. Nil maps every bitmap to FullRect.
	UVs UVSource
}

func (b *Baker) threshold() float64 {
	if b.AlphaThreshold == 0 {
		return DefaultAlphaThreshold
	}
	return b.AlphaThreshold
}

func (b *Baker) scale() float64 {
	if b.Scale == 0 {
		return 1.0 / geom.TwipsPerPixel
	}
	return b.Scale
}

// Visible reports whether an instance survives alpha filtering. Mask
// writers and resets only touch the stencil and are always kept.
func (b *Baker) Visible(in *flatten.Instance) bool {
	if in.Role == flatten.Mask || in.Role == flatten.MaskReset {
		return true
	}
	return in.Color.Apply(geom.White).A >= b.threshold()
}

// Bake bakes one frame.
func (b *Baker) Bake(f flatten.Frame) Frame {
	out := Frame{Index: f.Index, Label: f.Label}
	scale := b.scale()
	var levels stencilLevels

	for i := range f.Instances {
		in := &f.Instances[i]
		if !b.Visible(in) {
			continue
		}

		quad := len(out.Bitmaps)
		if n := len(out.Groups); n == 0 || out.Groups[n-1].Role != in.Role || out.Groups[n-1].ClipDepth != in.ClipDepth {
			out.Groups = append(out.Groups, Group{Role: in.Role, ClipDepth: in.ClipDepth, Start: quad})
		}
		out.Groups[len(out.Groups)-1].Count++

		w, h := float64(in.Width), float64(in.Height)
		for _, c := range [4][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}} {
			x, y := in.Matrix.TransformPoint(c[0], c[1])
			out.Vertices = append(out.Vertices, float32(x*scale), float32(y*scale))
		}

		uv := FullRect
		if b.UVs != nil {
			uv = b.UVs.UV(in.BitmapID)
		}
		out.UVs = append(out.UVs, PackUV(uv.U0, uv.V0), PackUV(uv.U1, uv.V1))

		mul, add := in.Color.Mul, in.Color.Add
		out.Mul = append(out.Mul, PackColor(mul.R, mul.G), PackColor(mul.B, mul.A))
		out.Add = append(out.Add, PackColor(add.R, add.G), PackColor(add.B, add.A))
		out.Bitmaps = append(out.Bitmaps, in.BitmapID)
		out.Stencil = append(out.Stencil, levels.next(in.Role, in.ClipDepth, in.Mask))
	}
	return out
}

// BakeAll bakes frames in order.
func (b *Baker) BakeAll(frames []flatten.Frame) []Frame {
	out := make([]Frame, len(frames))
	for i, f := range frames {
		out[i] = b.Bake(f)
	}
	return out
}
