package bitstream

import "github.com/gogpu/swf/geom"

// ReadRect reads a RECT record: a 5-bit width followed by four signed
// fields of that width (xmin, xmax, ymin, ymax).
func (r *Reader) ReadRect() (geom.Rect, error) {
	r.Align()
	n, err := r.ReadUB(5)
	if err != nil {
		return geom.Rect{}, err
	}
	var v [4]int32
	for i := range v {
		if v[i], err = r.ReadSB(uint(n)); err != nil {
			return geom.Rect{}, err
		}
	}
	r.Align()
	return geom.Rect{XMin: v[0], XMax: v[1], YMin: v[2], YMax: v[3]}, nil
}

// ReadMatrix reads a MATRIX record. Absent scale terms default to 1 and
// absent rotate terms to 0. Translation stays in twips.
func (r *Reader) ReadMatrix() (geom.Matrix, error) {
	r.Align()
	m := geom.Identity()

	hasScale, err := r.ReadFlag()
	if err != nil {
		return m, err
	}
	if hasScale {
		n, err := r.ReadUB(5)
		if err != nil {
			return m, err
		}
		if m.A, err = r.ReadFB(uint(n)); err != nil {
			return m, err
		}
		if m.E, err = r.ReadFB(uint(n)); err != nil {
			return m, err
		}
	}

	hasRotate, err := r.ReadFlag()
	if err != nil {
		return m, err
	}
	if hasRotate {
		n, err := r.ReadUB(5)
		if err != nil {
			return m, err
		}
		if m.D, err = r.ReadFB(uint(n)); err != nil {
			return m, err
		}
		if m.B, err = r.ReadFB(uint(n)); err != nil {
			return m, err
		}
	}

	n, err := r.ReadUB(5)
	if err != nil {
		return m, err
	}
	tx, err := r.ReadSB(uint(n))
	if err != nil {
		return m, err
	}
	ty, err := r.ReadSB(uint(n))
	if err != nil {
		return m, err
	}
	m.C, m.F = float64(tx), float64(ty)

	r.Align()
	return m, nil
}

// ReadColorTransform reads a CXFORM record, or a CXFORMWITHALPHA record
// when withAlpha is set. Multiply terms are 8.8 fixed point; add terms are
// in 1/255 color units. Without alpha the alpha channel is identity.
func (r *Reader) ReadColorTransform(withAlpha bool) (geom.ColorTransform, error) {
	r.Align()
	ct := geom.IdentityColor()

	hasAdd, err := r.ReadFlag()
	if err != nil {
		return ct, err
	}
	hasMul, err := r.ReadFlag()
	if err != nil {
		return ct, err
	}
	n, err := r.ReadUB(4)
	if err != nil {
		return ct, err
	}

	channels := 3
	if withAlpha {
		channels = 4
	}
	readTerms := func(scale float64) ([4]float64, error) {
		var v [4]float64
		for i := 0; i < channels; i++ {
			x, err := r.ReadSB(uint(n))
			if err != nil {
				return v, err
			}
			v[i] = float64(x) / scale
		}
		return v, nil
	}

	if hasMul {
		v, err := readTerms(256)
		if err != nil {
			return ct, err
		}
		ct.Mul.R, ct.Mul.G, ct.Mul.B = v[0], v[1], v[2]
		if withAlpha {
			ct.Mul.A = v[3]
		}
	}
	if hasAdd {
		v, err := readTerms(255)
		if err != nil {
			return ct, err
		}
		ct.Add.R, ct.Add.G, ct.Add.B = v[0], v[1], v[2]
		if withAlpha {
			ct.Add.A = v[3]
		}
	}

	r.Align()
	return ct, nil
}

// ReadRGB reads three color bytes as an opaque color.
func (r *Reader) ReadRGB() (geom.RGBA, error) {
	b, err := r.ReadBytes(3)
	if err != nil {
		return geom.RGBA{}, err
	}
	return geom.RGBA{R: float64(b[0]) / 255, G: float64(b[1]) / 255, B: float64(b[2]) / 255, A: 1}, nil
}

// ReadRGBA reads four color bytes.
func (r *Reader) ReadRGBA() (geom.RGBA, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return geom.RGBA{}, err
	}
	return geom.RGBA{
		R: float64(b[0]) / 255, G: float64(b[1]) / 255,
		B: float64(b[2]) / 255, A: float64(b[3]) / 255,
	}, nil
}
