package preview

import (
	"image"

	"github.com/gogpu/swf/bake"
	"github.com/gogpu/swf/cache"
	"github.com/gogpu/swf/geom"
)

// tintKey identifies a bitmap under one packed color transform.
type tintKey struct {
	id  uint16
	mul [2]uint32
	add [2]uint32
}

var identityMul = [2]uint32{bake.PackColor(1, 1), bake.PackColor(1, 1)}

func (k tintKey) identity() bool {
	return k.mul == identityMul && k.add == [2]uint32{}
}

func (k tintKey) hash() uint64 {
	h := uint64(k.id)
	for _, w := range [...]uint32{k.mul[0], k.mul[1], k.add[0], k.add[1]} {
		h = h*0x100000001b3 ^ uint64(w)
	}
	return cache.Uint64Hasher(h)
}

func (k tintKey) transform() geom.ColorTransform {
	var t geom.ColorTransform
	t.Mul.R, t.Mul.G = bake.UnpackColor(k.mul[0])
	t.Mul.B, t.Mul.A = bake.UnpackColor(k.mul[1])
	t.Add.R, t.Add.G = bake.UnpackColor(k.add[0])
	t.Add.B, t.Add.A = bake.UnpackColor(k.add[1])
	return t
}

// tint returns a copy of src with t applied to every straight-alpha pixel.
func tint(src *image.NRGBA, t geom.ColorTransform) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		si := src.PixOffset(b.Min.X, y)
		di := dst.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			p := src.Pix[si+4*x : si+4*x+4]
			c := t.Apply(geom.RGBA{
				R: float64(p[0]) / 0xFF,
				G: float64(p[1]) / 0xFF,
				B: float64(p[2]) / 0xFF,
				A: float64(p[3]) / 0xFF,
			})
			d := dst.Pix[di+4*x : di+4*x+4]
			d[0], d[1], d[2], d[3] = channel(c.R), channel(c.G), channel(c.B), channel(c.A)
		}
	}
	return dst
}
