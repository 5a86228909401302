//go:build !nogpu

package gpu

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/swf/bake"
)

// Interleaved vertex layout: position (float32x2), uv (float32x2),
// color multiply (float32x4), color add (float32x4).
const (
	// FloatsPerVertex is the number of float32 values of one vertex.
	FloatsPerVertex = 12
	// VertexStride is the byte stride of one vertex.
	VertexStride = FloatsPerVertex * 4

	// IndicesPerQuad is the number of indices of one quad, two triangles.
	IndicesPerQuad = 6
)

// UniformSize is the byte size of the uniform buffer.
// Layout: viewport (vec2<f32>) + padding (vec2<f32>) = 16 bytes.
const UniformSize = 16

// VertexLayout returns the vertex buffer layout of Expand's output.
func VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
				{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				{Format: gputypes.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 3},
			},
		},
	}
}

// Expand unpacks a baked frame into interleaved vertices and a triangle
// list index buffer. Quad i owns vertices 4i..4i+3 and indices
// 6i..6i+5. Corners run top-left, top-right, bottom-right, bottom-left in
// bitmap space.
func Expand(f *bake.Frame) (vertices []float32, indices []uint32) {
	n := f.Quads()
	vertices = make([]float32, 0, n*4*FloatsPerVertex)
	indices = make([]uint32, 0, n*IndicesPerQuad)

	for q := 0; q < n; q++ {
		u0, v0 := bake.UnpackUV(f.UVs[2*q])
		u1, v1 := bake.UnpackUV(f.UVs[2*q+1])
		mr, mg := bake.UnpackColor(f.Mul[2*q])
		mb, ma := bake.UnpackColor(f.Mul[2*q+1])
		ar, ag := bake.UnpackColor(f.Add[2*q])
		ab, aa := bake.UnpackColor(f.Add[2*q+1])

		uvs := [4][2]float64{{u0, v0}, {u1, v0}, {u1, v1}, {u0, v1}}
		for c := 0; c < 4; c++ {
			vertices = append(vertices,
				f.Vertices[8*q+2*c], f.Vertices[8*q+2*c+1],
				float32(uvs[c][0]), float32(uvs[c][1]),
				float32(mr), float32(mg), float32(mb), float32(ma),
				float32(ar), float32(ag), float32(ab), float32(aa),
			)
		}

		base := uint32(4 * q)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}
