//go:build !nogpu

package gpu

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/swf/bake"
	"github.com/gogpu/swf/flatten"
)

// Draw is one indexed draw of a plan. Quads of one draw share a role, a
// stencil reference and a bitmap.
type Draw struct {
	Role       flatten.Role
	ClipDepth  int
	Reference  uint32
	BitmapID   uint16
	FirstIndex uint32
	IndexCount uint32
}

// Plan sequences the groups of a baked frame into draws with the
// references of bake.Frame.StencilReferences. Runs of quads of one group
// that share a bitmap and a reference are merged into one draw.
func Plan(f *bake.Frame) []Draw {
	var draws []Draw
	refs := f.StencilReferences()

	for _, g := range f.Groups {
		for q := g.Start; q < g.Start+g.Count; q++ {
			id, ref := f.Bitmaps[q], refs[q]
			if n := len(draws); n > 0 && q > g.Start && draws[n-1].BitmapID == id && draws[n-1].Reference == ref {
				draws[n-1].IndexCount += IndicesPerQuad
				continue
			}
			draws = append(draws, Draw{
				Role:       g.Role,
				ClipDepth:  g.ClipDepth,
				Reference:  ref,
				BitmapID:   id,
				FirstIndex: uint32(q * IndicesPerQuad),
				IndexCount: IndicesPerQuad,
			})
		}
	}
	return draws
}

// PassEncoder is the subset of hal.RenderPassEncoder used to replay a
// plan.
type PassEncoder interface {
	SetPipeline(pipeline hal.RenderPipeline)
	SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32)
	SetStencilReference(reference uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// Encode replays draws into a render pass whose vertex and index buffers
// hold Expand's output. bindGroup returns the bind group of a bitmap;
// state is only re-set when it changes between draws.
func Encode(pass PassEncoder, p *Pipelines, draws []Draw, bindGroup func(bitmapID uint16) hal.BindGroup) {
	var (
		pipeline hal.RenderPipeline
		group    hal.BindGroup
		ref      uint32
		first    = true
	)
	for _, d := range draws {
		if pl := p.Pipeline(d.Role); first || pl != pipeline {
			pass.SetPipeline(pl)
			pipeline = pl
		}
		if bg := bindGroup(d.BitmapID); first || bg != group {
			pass.SetBindGroup(0, bg, nil)
			group = bg
		}
		if first || d.Reference != ref {
			pass.SetStencilReference(d.Reference)
			ref = d.Reference
		}
		first = false
		pass.DrawIndexed(d.IndexCount, 1, d.FirstIndex, 0, 0)
	}
}
