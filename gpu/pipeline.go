//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/swf/flatten"
)

// roles lists every role in pipeline order.
var roles = [...]flatten.Role{flatten.Group, flatten.Mask, flatten.Masked, flatten.MaskReset}

// Pipelines holds one render pipeline per draw role, sharing a shader, a
// bind group layout and a sampler.
//
// Bind group 0 layout:
//
//	Binding 0: uniforms (uniform buffer, vertex+fragment)
//	Binding 1: bitmap texture (texture_2d, fragment)
//	Binding 2: sampler (fragment)
type Pipelines struct {
	device hal.Device
	format gputypes.TextureFormat

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	sampler       hal.Sampler
	pipelines     [len(roles)]hal.RenderPipeline
}

// PipelineOption configures NewPipelines.
type PipelineOption func(*pipelineOptions)

type pipelineOptions struct {
	format      gputypes.TextureFormat
	sampleCount uint32
}

// WithColorFormat sets the color target format. Default is BGRA8Unorm.
func WithColorFormat(format gputypes.TextureFormat) PipelineOption {
	return func(o *pipelineOptions) {
		o.format = format
	}
}

// WithSampleCount sets the MSAA sample count. Default is 1.
func WithSampleCount(n uint32) PipelineOption {
	return func(o *pipelineOptions) {
		if n > 0 {
			o.sampleCount = n
		}
	}
}

// NewPipelines compiles the bitmap shader and creates the pipelines of
// every role on device. Partially created resources are released on
// error.
func NewPipelines(device hal.Device, opts ...PipelineOption) (*Pipelines, error) {
	o := pipelineOptions{format: gputypes.TextureFormatBGRA8Unorm, sampleCount: 1}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pipelines{device: device, format: o.format}
	if err := p.create(o); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *Pipelines) create(o pipelineOptions) error {
	code, err := CompileShader()
	if err != nil {
		return err
	}
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "swf_bitmap_shader",
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bitmap shader module: %w", err)
	}
	p.shader = shader

	uniformLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "swf_bitmap_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group layout: %w", err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "swf_bitmap_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "swf_bitmap_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("gpu: create sampler: %w", err)
	}
	p.sampler = sampler

	for i, role := range roles {
		entry := FragmentEntryPoint
		if !WritesColor(role) {
			entry = MaskEntryPoint
		}
		pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
			Label:  "swf_bitmap_" + role.String(),
			Layout: p.pipeLayout,
			Vertex: hal.VertexState{
				Module:     p.shader,
				EntryPoint: VertexEntryPoint,
				Buffers:    VertexLayout(),
			},
			Fragment: &hal.FragmentState{
				Module:     p.shader,
				EntryPoint: entry,
				Targets:    []gputypes.ColorTargetState{ColorTarget(role, o.format)},
			},
			DepthStencil: StencilState(role),
			Multisample: gputypes.MultisampleState{
				Count: o.sampleCount,
				Mask:  0xFFFFFFFF,
			},
			Primitive: gputypes.PrimitiveState{
				Topology: gputypes.PrimitiveTopologyTriangleList,
				CullMode: gputypes.CullModeNone,
			},
		})
		if err != nil {
			return fmt.Errorf("gpu: create %s pipeline: %w", role, err)
		}
		p.pipelines[i] = pipeline
	}
	return nil
}

// Pipeline returns the pipeline of a role.
func (p *Pipelines) Pipeline(role flatten.Role) hal.RenderPipeline {
	if int(role) >= len(p.pipelines) {
		return p.pipelines[flatten.Group]
	}
	return p.pipelines[role]
}

// ColorFormat returns the color target format the pipelines render to.
func (p *Pipelines) ColorFormat() gputypes.TextureFormat { return p.format }

// BindGroupLayout returns the layout bitmap bind groups must follow.
func (p *Pipelines) BindGroupLayout() hal.BindGroupLayout { return p.uniformLayout }

// Sampler returns the shared bitmap sampler.
func (p *Pipelines) Sampler() hal.Sampler { return p.sampler }

// Destroy releases all resources in reverse creation order. Safe to call
// more than once.
func (p *Pipelines) Destroy() {
	if p.device == nil {
		return
	}
	for i := len(p.pipelines) - 1; i >= 0; i-- {
		if p.pipelines[i] != nil {
			p.device.DestroyRenderPipeline(p.pipelines[i])
			p.pipelines[i] = nil
		}
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
