package geom

// RGBA is a color or a per-channel factor with components nominally in
// [0, 1]. Color transform terms may leave that range.
type RGBA struct {
	R, G, B, A float64
}

// White is opaque white, the reference sample used for visibility tests.
var White = RGBA{R: 1, G: 1, B: 1, A: 1}

// ColorTransform maps a color c to c*Mul + Add, channel by channel.
type ColorTransform struct {
	Mul RGBA
	Add RGBA
}

// IdentityColor returns the color transform that leaves colors unchanged.
func IdentityColor() ColorTransform {
	return ColorTransform{
		Mul: RGBA{R: 1, G: 1, B: 1, A: 1},
	}
}

// Apply transforms a color. The result is not clamped.
func (t ColorTransform) Apply(c RGBA) RGBA {
	return RGBA{
		R: c.R*t.Mul.R + t.Add.R,
		G: c.G*t.Mul.G + t.Add.G,
		B: c.B*t.Mul.B + t.Add.B,
		A: c.A*t.Mul.A + t.Add.A,
	}
}

// Compose returns the transform that applies child first and then t.
// Multiply terms multiply together; the child's add terms are scaled by
// t's multiply terms before t's add terms are summed in:
//
//	mul = t.mul * child.mul
//	add = child.add * t.mul + t.add
func (t ColorTransform) Compose(child ColorTransform) ColorTransform {
	return ColorTransform{
		Mul: RGBA{
			R: t.Mul.R * child.Mul.R,
			G: t.Mul.G * child.Mul.G,
			B: t.Mul.B * child.Mul.B,
			A: t.Mul.A * child.Mul.A,
		},
		Add: RGBA{
			R: child.Add.R*t.Mul.R + t.Add.R,
			G: child.Add.G*t.Mul.G + t.Add.G,
			B: child.Add.B*t.Mul.B + t.Add.B,
			A: child.Add.A*t.Mul.A + t.Add.A,
		},
	}
}

// IsIdentity reports whether t leaves every color unchanged.
func (t ColorTransform) IsIdentity() bool {
	return t == IdentityColor()
}
