package bake

import "github.com/gogpu/swf/flatten"

// MaxStencilLevel is the deepest mask nesting an 8-bit stencil holds.
const MaxStencilLevel = 0xFF

// StencilReferences returns the stencil reference of every quad, for a
// renderer that nests masks as stencil levels:
//
//   - the quads of a mask draw where the stencil equals their reference
//     and increment it; once the mask is drawn its level is open;
//   - a Masked quad draws where the stencil equals its reference;
//   - the reset quads of a mask draw where the stencil equals their
//     reference and decrement it, closing the level.
//
// Group (plain) quads ignore the stencil and get reference 0. Frames that
// carry no per-quad references count every group as one mask.
func (f *Frame) StencilReferences() []uint32 {
	refs := make([]uint32, f.Quads())
	if len(f.Stencil) == len(refs) {
		for i, r := range f.Stencil {
			refs[i] = uint32(r)
		}
		return refs
	}
	var levels stencilLevels
	for i, g := range f.Groups {
		for q := g.Start; q < g.Start+g.Count && q < len(refs); q++ {
			refs[q] = uint32(levels.next(g.Role, g.ClipDepth, -i))
		}
	}
	return refs
}

// stencilLevels follows the stencil level over a run of quads. A mask is
// the run of consecutive Mask (or MaskReset) quads sharing a clip depth
// and mask number; its level change applies once the run ends.
type stencilLevels struct {
	level uint8
	open  bool
	role  flatten.Role
	clip  int
	mask  int
}

// next returns the reference of the following quad.
func (s *stencilLevels) next(role flatten.Role, clip, mask int) uint8 {
	if s.open && (role != s.role || clip != s.clip || mask != s.mask) {
		switch {
		case s.role == flatten.Mask && s.level < MaxStencilLevel:
			s.level++
		case s.role == flatten.MaskReset && s.level > 0:
			s.level--
		}
		s.open = false
	}
	switch role {
	case flatten.Group:
		return 0
	case flatten.Mask, flatten.MaskReset:
		s.open, s.role, s.clip, s.mask = true, role, clip, mask
	}
	return s.level
}
