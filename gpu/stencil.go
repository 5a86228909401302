//go:build !nogpu

package gpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/swf/flatten"
)

// StencilFormat is the depth/stencil format all pipelines render with.
const StencilFormat = gputypes.TextureFormatDepth24PlusStencil8

// StencilState returns the depth/stencil state of a role.
//
//   - Group: stencil ignored.
//   - Mask: pass where the stencil equals the reference, then increment.
//   - Masked: pass where the stencil equals the reference.
//   - MaskReset: pass where the stencil equals the reference, then decrement.
func StencilState(role flatten.Role) *hal.DepthStencilState {
	compare := gputypes.CompareFunctionEqual
	pass := hal.StencilOperationKeep
	var writeMask uint32 = 0xFF

	switch role {
	case flatten.Mask:
		pass = hal.StencilOperationIncrementClamp
	case flatten.MaskReset:
		pass = hal.StencilOperationDecrementClamp
	case flatten.Masked:
		writeMask = 0
	default:
		compare = gputypes.CompareFunctionAlways
		writeMask = 0
	}

	face := hal.StencilFaceState{
		Compare:     compare,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      pass,
	}
	return &hal.DepthStencilState{
		Format:            StencilFormat,
		DepthWriteEnabled: false,
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilFront:      face,
		StencilBack:       face,
		StencilReadMask:   0xFF,
		StencilWriteMask:  writeMask,
	}
}

// WritesColor reports whether a role draws into the color target.
func WritesColor(role flatten.Role) bool {
	return role == flatten.Group || role == flatten.Masked
}

// ColorTarget returns the color target state of a role. Mask writers and
// resets leave the color target untouched.
func ColorTarget(role flatten.Role, format gputypes.TextureFormat) gputypes.ColorTargetState {
	if !WritesColor(role) {
		return gputypes.ColorTargetState{
			Format:    format,
			WriteMask: gputypes.ColorWriteMaskNone,
		}
	}
	premulBlend := gputypes.BlendStatePremultiplied()
	return gputypes.ColorTargetState{
		Format:    format,
		Blend:     &premulBlend,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
}
