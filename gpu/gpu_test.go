//go:build !nogpu

package gpu

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/swf/bake"
	"github.com/gogpu/swf/flatten"
	"github.com/gogpu/swf/geom"
)

// createNoopDevice creates a noop HAL device for testing.
func createNoopDevice(t *testing.T) (hal.Device, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, cleanup
}

// bakedFrame bakes instances with an identity scale so vertex positions
// equal bitmap corners in twips.
func bakedFrame(instances ...flatten.Instance) bake.Frame {
	b := bake.Baker{Scale: 1, AlphaThreshold: -1}
	return b.Bake(flatten.Frame{Instances: instances})
}

func instance(id uint16, role flatten.Role, clip int) flatten.Instance {
	return flatten.Instance{
		BitmapID:  id,
		Width:     2,
		Height:    3,
		Matrix:    geom.Identity(),
		Color:     geom.IdentityColor(),
		Role:      role,
		ClipDepth: clip,
	}
}

func TestCompileShader(t *testing.T) {
	code, err := CompileShader()
	if err != nil {
		t.Fatalf("CompileShader() error = %v", err)
	}
	if len(code) == 0 {
		t.Fatal("CompileShader() returned no words")
	}
	if code[0] != 0x07230203 {
		t.Errorf("SPIR-V magic = %#x, want 0x07230203", code[0])
	}
}

func TestShaderSourceEntryPoints(t *testing.T) {
	src := ShaderSource()
	for _, entry := range []string{VertexEntryPoint, FragmentEntryPoint, MaskEntryPoint} {
		if !strings.Contains(src, "fn "+entry+"(") {
			t.Errorf("shader has no entry point %q", entry)
		}
	}
}

func TestVertexLayout(t *testing.T) {
	layout := VertexLayout()
	if len(layout) != 1 {
		t.Fatalf("len(VertexLayout()) = %d, want 1", len(layout))
	}
	if layout[0].ArrayStride != VertexStride {
		t.Errorf("ArrayStride = %d, want %d", layout[0].ArrayStride, VertexStride)
	}
	var end uint64
	for i, a := range layout[0].Attributes {
		if a.ShaderLocation != uint32(i) {
			t.Errorf("attribute %d location = %d", i, a.ShaderLocation)
		}
		if a.Offset != end {
			t.Errorf("attribute %d offset = %d, want %d", i, a.Offset, end)
		}
		switch a.Format {
		case gputypes.VertexFormatFloat32x2:
			end += 8
		case gputypes.VertexFormatFloat32x4:
			end += 16
		}
	}
	if end != VertexStride {
		t.Errorf("attributes cover %d bytes, want %d", end, VertexStride)
	}
}

func TestExpand(t *testing.T) {
	in := instance(7, flatten.Group, 0)
	in.Color = geom.ColorTransform{
		Mul: geom.RGBA{R: 0.5, G: 1, B: 1, A: 0.25},
		Add: geom.RGBA{R: 0.125},
	}
	in2 := instance(8, flatten.Group, 0)
	in2.Matrix = geom.Translate(10, 0)
	f := bakedFrame(in, in2)

	vertices, indices := Expand(&f)
	if got, want := len(vertices), 2*4*FloatsPerVertex; got != want {
		t.Fatalf("len(vertices) = %d, want %d", got, want)
	}
	wantIdx := []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}
	if !slices.Equal(indices, wantIdx) {
		t.Errorf("indices = %v, want %v", indices, wantIdx)
	}

	// Third corner of the first quad: bottom-right, uv (1, 1).
	v := vertices[2*FloatsPerVertex : 3*FloatsPerVertex]
	want := []float32{2, 3, 1, 1, 0.5, 1, 1, 0.25, 0.125, 0, 0, 0}
	for i := range want {
		if math.Abs(float64(v[i]-want[i])) > 1e-3 {
			t.Errorf("vertex[%d] = %v, want %v", i, v[i], want[i])
		}
	}

	// First corner of the second quad is translated.
	if x := vertices[4*FloatsPerVertex]; x != 10 {
		t.Errorf("second quad x = %v, want 10", x)
	}
}

func TestExpandEmpty(t *testing.T) {
	var f bake.Frame
	vertices, indices := Expand(&f)
	if len(vertices) != 0 || len(indices) != 0 {
		t.Errorf("Expand(empty) = %d vertices, %d indices", len(vertices), len(indices))
	}
}

func TestStencilState(t *testing.T) {
	tests := []struct {
		role      flatten.Role
		compare   gputypes.CompareFunction
		pass      hal.StencilOperation
		writeMask uint32
		color     bool
	}{
		{flatten.Group, gputypes.CompareFunctionAlways, hal.StencilOperationKeep, 0, true},
		{flatten.Mask, gputypes.CompareFunctionEqual, hal.StencilOperationIncrementClamp, 0xFF, false},
		{flatten.Masked, gputypes.CompareFunctionEqual, hal.StencilOperationKeep, 0, true},
		{flatten.MaskReset, gputypes.CompareFunctionEqual, hal.StencilOperationDecrementClamp, 0xFF, false},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			s := StencilState(tt.role)
			if s.Format != StencilFormat {
				t.Errorf("Format = %v, want %v", s.Format, StencilFormat)
			}
			if s.StencilFront != s.StencilBack {
				t.Error("front and back faces differ")
			}
			if s.StencilFront.Compare != tt.compare {
				t.Errorf("Compare = %v, want %v", s.StencilFront.Compare, tt.compare)
			}
			if s.StencilFront.PassOp != tt.pass {
				t.Errorf("PassOp = %v, want %v", s.StencilFront.PassOp, tt.pass)
			}
			if s.StencilWriteMask != tt.writeMask {
				t.Errorf("StencilWriteMask = %#x, want %#x", s.StencilWriteMask, tt.writeMask)
			}

			target := ColorTarget(tt.role, gputypes.TextureFormatRGBA8Unorm)
			if target.Format != gputypes.TextureFormatRGBA8Unorm {
				t.Errorf("target format = %v", target.Format)
			}
			if got := target.WriteMask == gputypes.ColorWriteMaskAll; got != tt.color {
				t.Errorf("writes color = %v, want %v", got, tt.color)
			}
			if tt.color && target.Blend == nil {
				t.Error("color target has no blend state")
			}
		})
	}
}

func TestPlan(t *testing.T) {
	// Mask at depth 5 over two masked quads, then a plain quad.
	f := bakedFrame(
		instance(1, flatten.Mask, 5),
		instance(2, flatten.Masked, 1),
		instance(2, flatten.Masked, 1),
		instance(3, flatten.Masked, 1),
		instance(1, flatten.MaskReset, 5),
		instance(4, flatten.Group, 0),
	)

	want := []Draw{
		{Role: flatten.Mask, ClipDepth: 5, Reference: 0, BitmapID: 1, FirstIndex: 0, IndexCount: 6},
		{Role: flatten.Masked, ClipDepth: 1, Reference: 1, BitmapID: 2, FirstIndex: 6, IndexCount: 12},
		{Role: flatten.Masked, ClipDepth: 1, Reference: 1, BitmapID: 3, FirstIndex: 18, IndexCount: 6},
		{Role: flatten.MaskReset, ClipDepth: 5, Reference: 1, BitmapID: 1, FirstIndex: 24, IndexCount: 6},
		{Role: flatten.Group, ClipDepth: 0, Reference: 0, BitmapID: 4, FirstIndex: 30, IndexCount: 6},
	}
	if got := Plan(&f); !slices.Equal(got, want) {
		t.Errorf("Plan() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestPlanNestedMasks(t *testing.T) {
	f := bakedFrame(
		instance(1, flatten.Mask, 9),
		instance(2, flatten.Mask, 4),
		instance(3, flatten.Masked, 2),
		instance(2, flatten.MaskReset, 4),
		instance(3, flatten.Masked, 1),
		instance(1, flatten.MaskReset, 9),
	)
	var refs []uint32
	for _, d := range Plan(&f) {
		refs = append(refs, d.Reference)
	}
	want := []uint32{0, 1, 2, 2, 1, 1}
	if !slices.Equal(refs, want) {
		t.Errorf("references = %v, want %v", refs, want)
	}
}

func TestPlanTiedMasks(t *testing.T) {
	numbered := func(id uint16, role flatten.Role, clip, mask int) flatten.Instance {
		in := instance(id, role, clip)
		in.Mask = mask
		return in
	}
	// Masks 1 and 2 share clip depth 10 and reset in one group; mask 3
	// must start from an empty stencil again.
	f := bakedFrame(
		numbered(1, flatten.Mask, 10, 1),
		numbered(2, flatten.Masked, 1, 0),
		numbered(1, flatten.Mask, 10, 2),
		numbered(2, flatten.Masked, 2, 0),
		numbered(1, flatten.MaskReset, 10, 2),
		numbered(1, flatten.MaskReset, 10, 1),
		numbered(1, flatten.Mask, 15, 3),
		numbered(3, flatten.Masked, 1, 0),
	)
	var refs []uint32
	for _, d := range Plan(&f) {
		refs = append(refs, d.Reference)
	}
	want := []uint32{0, 1, 1, 2, 2, 1, 0, 1}
	if !slices.Equal(refs, want) {
		t.Errorf("references = %v, want %v", refs, want)
	}
}

func TestPlanUnbalancedReset(t *testing.T) {
	f := bakedFrame(instance(1, flatten.MaskReset, 3), instance(2, flatten.Masked, 1))
	for _, d := range Plan(&f) {
		if d.Reference != 0 {
			t.Errorf("%v reference = %d, want 0", d.Role, d.Reference)
		}
	}
}

func TestNewPipelines(t *testing.T) {
	device, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewPipelines(device, WithColorFormat(gputypes.TextureFormatRGBA8Unorm), WithSampleCount(4))
	if err != nil {
		t.Fatalf("NewPipelines() error = %v", err)
	}
	for _, role := range roles {
		if p.Pipeline(role) == nil {
			t.Errorf("Pipeline(%v) = nil", role)
		}
	}
	if p.Pipeline(flatten.Role(200)) == nil {
		t.Error("Pipeline(out of range) = nil, want the plain pipeline")
	}
	if p.BindGroupLayout() == nil || p.Sampler() == nil {
		t.Error("layout or sampler not created")
	}

	p.Destroy()
	p.Destroy()
	if p.Sampler() != nil || p.Pipeline(flatten.Group) != nil {
		t.Error("Destroy() left resources behind")
	}
}

// testDevice implements gpucontext.Device for testing.
type testDevice struct{}

func (*testDevice) Poll(bool) {}
func (*testDevice) Destroy()  {}

type testQueue struct{}

type testAdapter struct{}

// testProvider implements gpucontext.DeviceProvider without HAL access.
type testProvider struct {
	device hal.Device
	format gputypes.TextureFormat
}

func (*testProvider) Device() gpucontext.Device               { return &testDevice{} }
func (*testProvider) Queue() gpucontext.Queue                 { return &testQueue{} }
func (*testProvider) Adapter() gpucontext.Adapter             { return &testAdapter{} }
func (p *testProvider) SurfaceFormat() gputypes.TextureFormat { return p.format }
func (*testProvider) AdapterInfo() gpucontext.AdapterInfo     { return gpucontext.AdapterInfo{} }

// sharedProvider adds HAL access to testProvider.
type sharedProvider struct{ testProvider }

func (p *sharedProvider) HalDevice() any { return p.device }

func TestNewPipelinesFromProvider(t *testing.T) {
	device, cleanup := createNoopDevice(t)
	defer cleanup()

	tests := []struct {
		name       string
		provider   gpucontext.DeviceProvider
		opts       []PipelineOption
		wantFormat gputypes.TextureFormat
		wantErr    error
	}{
		{"nil", nil, nil, 0, ErrNilProvider},
		{"no hal", &testProvider{format: gputypes.TextureFormatRGBA8Unorm}, nil, 0, ErrNoHalDevice},
		{"nil hal device", &sharedProvider{}, nil, 0, ErrNoHalDevice},
		{
			"surface format",
			&sharedProvider{testProvider{device: device, format: gputypes.TextureFormatRGBA8Unorm}},
			nil, gputypes.TextureFormatRGBA8Unorm, nil,
		},
		{
			"format override",
			&sharedProvider{testProvider{device: device, format: gputypes.TextureFormatRGBA8Unorm}},
			[]PipelineOption{WithColorFormat(gputypes.TextureFormatBGRA8Unorm)},
			gputypes.TextureFormatBGRA8Unorm, nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPipelinesFromProvider(tt.provider, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewPipelinesFromProvider() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer p.Destroy()
			if got := p.ColorFormat(); got != tt.wantFormat {
				t.Errorf("ColorFormat() = %v, want %v", got, tt.wantFormat)
			}
			if p.Pipeline(flatten.Mask) == nil {
				t.Error("Pipeline(Mask) = nil")
			}
		})
	}
}

type fakePipeline struct{ role flatten.Role }

func (*fakePipeline) Destroy() {}

type fakeBindGroup struct{ id uint16 }

func (*fakeBindGroup) Destroy() {}

// recorder records the calls Encode makes.
type recorder struct {
	calls []string
}

func (r *recorder) SetPipeline(p hal.RenderPipeline) {
	r.calls = append(r.calls, "pipeline "+p.(*fakePipeline).role.String())
}

func (r *recorder) SetBindGroup(_ uint32, g hal.BindGroup, _ []uint32) {
	r.calls = append(r.calls, "bind "+string(rune('0'+g.(*fakeBindGroup).id)))
}

func (r *recorder) SetStencilReference(ref uint32) {
	r.calls = append(r.calls, "ref "+string(rune('0'+ref)))
}

func (r *recorder) DrawIndexed(count, _, first uint32, _ int32, _ uint32) {
	r.calls = append(r.calls, "draw "+string(rune('0'+first/6))+"+"+string(rune('0'+count/6)))
}

func TestEncode(t *testing.T) {
	p := &Pipelines{}
	for i, role := range roles {
		p.pipelines[i] = &fakePipeline{role: role}
	}
	groups := map[uint16]*fakeBindGroup{}
	bindGroup := func(id uint16) hal.BindGroup {
		if groups[id] == nil {
			groups[id] = &fakeBindGroup{id: id}
		}
		return groups[id]
	}

	f := bakedFrame(
		instance(1, flatten.Mask, 3),
		instance(2, flatten.Masked, 1),
		instance(2, flatten.Masked, 1),
		instance(1, flatten.MaskReset, 3),
		instance(1, flatten.Group, 0),
	)
	var rec recorder
	Encode(&rec, p, Plan(&f), bindGroup)

	want := []string{
		"pipeline mask-write", "bind 1", "ref 0", "draw 0+1",
		"pipeline masked", "bind 2", "ref 1", "draw 1+2",
		"pipeline mask-reset", "bind 1", "draw 3+1",
		"pipeline plain", "ref 0", "draw 4+1",
	}
	if !slices.Equal(rec.calls, want) {
		t.Errorf("calls =\n%q\nwant\n%q", rec.calls, want)
	}
}
