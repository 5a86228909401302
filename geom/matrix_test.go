package geom

import "testing"

func TestMultiplyOrder(t *testing.T) {
	// Scale then translate: the translation is not scaled.
	m := Translate(10, 20).Multiply(Scale(2, 3))
	x, y := m.TransformPoint(1, 1)
	if x != 12 || y != 23 {
		t.Errorf("TransformPoint(1, 1) = (%v, %v), want (12, 23)", x, y)
	}

	// Translate then scale: the translation is scaled.
	m = Scale(2, 3).Multiply(Translate(10, 20))
	x, y = m.TransformPoint(1, 1)
	if x != 22 || y != 63 {
		t.Errorf("TransformPoint(1, 1) = (%v, %v), want (22, 63)", x, y)
	}
}

func TestIsIdentity(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		want bool
	}{
		{"identity", Identity(), true},
		{"identity product", Identity().Multiply(Identity()), true},
		{"translation", Translate(1, 0), false},
		{"scale", Scale(2, 2), false},
		{"zero matrix", Matrix{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.IsIdentity(); got != tt.want {
				t.Errorf("Matrix%+v.IsIdentity() = %v, want %v", tt.m, got, tt.want)
			}
		})
	}
}

