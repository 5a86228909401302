// Package flatten walks a display list depth first and produces the flat,
// render-ordered list of bitmap instances for one frame.
//
// Matrices and color transforms are composed parent first. Every instance
// is tagged with a masking role and a clip-depth key; a mask opened by an
// object with a clip depth stays open for the following siblings up to that
// depth and is then closed by re-emitting its writers as MaskReset
// instances.
package flatten

import (
	"slices"

	"github.com/gogpu/swf/diag"
	"github.com/gogpu/swf/geom"
	"github.com/gogpu/swf/library"
	"github.com/gogpu/swf/timeline"
)

// Role is how an instance interacts with the stencil.
type Role uint8

const (
	// Group is an unmasked draw.
	Group Role = iota
	// Mask writes a mask shape into the stencil.
	Mask
	// Masked draws only where the active masks were written.
	Masked
	// MaskReset removes a mask shape from the stencil.
	MaskReset
)

// String returns the role name used in baked output.
func (r Role) String() string {
	switch r {
	case Group:
		return "plain"
	case Mask:
		return "mask-write"
	case Masked:
		return "masked"
	case MaskReset:
		return "mask-reset"
	default:
		return "unknown"
	}
}

// Instance is one bitmap draw.
type Instance struct {
	BitmapID uint16
	// Width and Height are the bitmap size in pixels.
	Width, Height int
	// Matrix maps bitmap pixels to stage twips.
	Matrix geom.Matrix
	Color  geom.ColorTransform
	Role   Role
	// ClipDepth is the grouping and stencil key of Mask, Masked and
	// MaskReset instances. It is zero for Group instances.
	ClipDepth int
	// Mask numbers the mask object a Mask or MaskReset instance belongs
	// to, from 1 within a frame. Every writer of one mask shares it. It is
	// zero for Group and Masked instances.
	Mask int
	// Depth is the depth of the object the instance came from, within its
	// own display list.
	Depth uint16
}

// Frame is the flattened form of one root timeline frame.
type Frame struct {
	Index     int
	Label     string
	Instances []Instance
}

// Flattener flattens frames of one movie.
type Flattener struct {
	Library *library.Library
	// Log receives UnresolvedReference warnings for bitmap fills whose
	// bitmap is missing. It may be nil.
	Log *diag.Log
}

// Flatten returns the instances of f in render order.
func (fl *Flattener) Flatten(f timeline.Frame) Frame {
	w := walker{Flattener: fl}
	out, _ := w.walk(f.List, geom.Identity(), geom.IdentityColor(), 0, 0)
	return Frame{Index: f.Index, Label: f.Label, Instances: out}
}

// walker is the state of one Flatten call.
type walker struct {
	*Flattener
	masks int // mask objects numbered so far
}

// selfMask is a mask opened by an object of the list being walked.
type selfMask struct {
	clipDepth uint16
	writers   []Instance
}

// walk flattens list. parentMasked counts the masks active in enclosing
// lists; parentMask is non-zero when list belongs to a mask object, in
// which case every instance is a mask writer and the writers are also
// returned so the enclosing list can close them.
func (w *walker) walk(list *timeline.DisplayList, parent geom.Matrix, parentColor geom.ColorTransform, parentMasked, parentMask int) (out, writers []Instance) {
	var masks []selfMask

	for _, o := range list.Objects() {
		var closed []selfMask
		masks, closed = closeMasks(masks, func(m selfMask) bool { return int(m.clipDepth) < int(o.Depth) })
		out = appendResets(out, closed)

		if !o.Visible {
			continue
		}

		matrix := parent.Multiply(o.Matrix)
		color := parentColor.Compose(o.Color)
		active := parentMasked + len(masks)

		role := Group
		var key int
		switch {
		case parentMask != 0 || o.ClipDepth != 0:
			role = Mask
		case active > 0:
			role = Masked
		}
		switch {
		case parentMask != 0:
			key = parentMask
		case o.ClipDepth != 0:
			key = int(o.ClipDepth)
		default:
			key = active
		}

		start := len(out)
		var own []Instance
		if o.Children != nil {
			childMask := parentMask
			if childMask == 0 {
				childMask = int(o.ClipDepth)
			}
			var childWriters []Instance
			own, childWriters = w.walk(o.Children, matrix, color, active, childMask)
			out = append(out, own...)
			own = childWriters
		} else {
			own = w.expand(o, matrix, color, role, key)
			out = append(out, own...)
		}

		switch {
		case parentMask != 0:
			writers = append(writers, own...)
		case o.ClipDepth != 0:
			w.masks++
			for i := start; i < len(out); i++ {
				out[i].Mask = w.masks
			}
			for i := range own {
				own[i].Mask = w.masks
			}
			masks = append(masks, selfMask{clipDepth: o.ClipDepth, writers: own})
		}
	}

	// Masks still open at the end of the list close here.
	_, closed := closeMasks(masks, func(selfMask) bool { return true })
	out = appendResets(out, closed)
	return out, writers
}

// closeMasks splits masks into those kept open and those to close, the
// latter ordered by ascending clip depth, ties latest opened first.
func closeMasks(masks []selfMask, done func(selfMask) bool) (open, closed []selfMask) {
	for _, m := range masks {
		if !done(m) {
			open = append(open, m)
		}
	}
	for i := len(masks) - 1; i >= 0; i-- {
		if done(masks[i]) {
			closed = append(closed, masks[i])
		}
	}
	slices.SortStableFunc(closed, func(a, b selfMask) int {
		return int(a.clipDepth) - int(b.clipDepth)
	})
	return open, closed
}

func appendResets(out []Instance, closed []selfMask) []Instance {
	for _, m := range closed {
		for _, w := range m.writers {
			w.Role = MaskReset
			out = append(out, w)
		}
	}
	return out
}

// expand returns the instances drawn by a bitmap or shape object.
func (fl *Flattener) expand(o *timeline.Object, matrix geom.Matrix, color geom.ColorTransform, role Role, key int) []Instance {
	def, ok := fl.Library.Lookup(o.CharacterID)
	if !ok {
		fl.warn(o.Offset, o.CharacterID, "character %d at depth %d is not defined", o.CharacterID, o.Depth)
		return nil
	}
	inst := Instance{Color: color, Role: role, ClipDepth: key, Depth: o.Depth}

	switch def := def.(type) {
	case *library.Bitmap:
		// A bitmap placed directly is drawn at one pixel per pixel.
		inst.BitmapID = def.ID
		inst.Width, inst.Height = def.Width(), def.Height()
		inst.Matrix = matrix.Multiply(geom.Scale(geom.TwipsPerPixel, geom.TwipsPerPixel))
		return []Instance{inst}

	case *library.Shape:
		var out []Instance
		for _, fill := range def.Fills {
			bmp, ok := library.Resolve[*library.Bitmap](fl.Library, fill.BitmapID)
			if !ok {
				fl.warn(o.Offset, fill.BitmapID, "shape %d fills with missing bitmap %d", def.ID, fill.BitmapID)
				continue
			}
			inst.BitmapID = bmp.ID
			inst.Width, inst.Height = bmp.Width(), bmp.Height()
			inst.Matrix = matrix.Multiply(fill.Matrix)
			out = append(out, inst)
		}
		return out
	}
	return nil
}

func (fl *Flattener) warn(offset int, id uint16, format string, args ...any) {
	if fl.Log != nil {
		fl.Log.Add(diag.UnresolvedReference, offset, id, format, args...)
	}
}
