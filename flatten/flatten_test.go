package flatten

import (
	"image"
	"slices"
	"testing"

	"github.com/gogpu/swf/diag"
	"github.com/gogpu/swf/geom"
	"github.com/gogpu/swf/library"
	"github.com/gogpu/swf/tag"
	"github.com/gogpu/swf/timeline"
)

func place(depth, id uint16) *tag.PlaceObject {
	return &tag.PlaceObject{Header: tag.Header{Code: tag.CodePlaceObject2}, Depth: depth, HasCharacter: true, CharacterID: id}
}

func mask(depth, id, clip uint16) *tag.PlaceObject {
	p := place(depth, id)
	p.ClipDepth = &clip
	return p
}

func show() *tag.ShowFrame { return &tag.ShowFrame{Header: tag.Header{Code: tag.CodeShowFrame}} }

func bitmap(id uint16, w, h int) *library.Bitmap {
	return &library.Bitmap{ID: id, Image: image.NewNRGBA(image.Rect(0, 0, w, h))}
}

func sprite(id uint16, tags ...tag.Tag) *library.Timeline {
	return &library.Timeline{ID: id, FrameCount: 1, Tags: append(tags, show())}
}

// flattenTags feeds tags followed by a ShowFrame and flattens the result.
func flattenTags(t *testing.T, defs []library.Definition, tags ...tag.Tag) (Frame, *diag.Log) {
	t.Helper()
	lib := library.New()
	for _, d := range defs {
		var id uint16
		switch d := d.(type) {
		case *library.Bitmap:
			id = d.ID
		case *library.Shape:
			id = d.ID
		case *library.Timeline:
			id = d.ID
		}
		if err := lib.Register(id, d); err != nil {
			t.Fatal(err)
		}
	}
	log := diag.NewLog(nil)
	exec := &timeline.Executor{Library: lib, Log: log}
	list := timeline.NewDisplayList(timeline.NewArena())
	for _, tg := range append(tags, show()) {
		exec.Feed(tg, list)
	}
	fl := &Flattener{Library: lib, Log: log}
	return fl.Flatten(timeline.Frame{List: list}), log
}

type roleKey struct {
	role Role
	key  int
	id   uint16
}

func summarize(f Frame) []roleKey {
	out := make([]roleKey, len(f.Instances))
	for i, in := range f.Instances {
		out[i] = roleKey{in.Role, in.ClipDepth, in.BitmapID}
	}
	return out
}

func TestMasking(t *testing.T) {
	defs := []library.Definition{bitmap(1, 4, 4), bitmap(2, 4, 4), bitmap(3, 4, 4)}
	tests := []struct {
		name string
		defs []library.Definition
		tags []tag.Tag
		want []roleKey
	}{
		{
			name: "closure",
			tags: []tag.Tag{mask(5, 1, 10), place(7, 2), place(12, 3)},
			want: []roleKey{{Mask, 10, 1}, {Masked, 1, 2}, {MaskReset, 10, 1}, {Group, 0, 3}},
		},
		{
			name: "closed at end of list",
			tags: []tag.Tag{mask(1, 1, 100), place(2, 2)},
			want: []roleKey{{Mask, 100, 1}, {Masked, 1, 2}, {MaskReset, 100, 1}},
		},
		{
			name: "close in clip depth order",
			tags: []tag.Tag{mask(2, 1, 9), mask(3, 2, 8), place(20, 3)},
			want: []roleKey{{Mask, 9, 1}, {Mask, 8, 2}, {MaskReset, 8, 2}, {MaskReset, 9, 1}, {Group, 0, 3}},
		},
		{
			name: "equal clip depths close latest first",
			tags: []tag.Tag{mask(2, 1, 10), mask(3, 2, 10), place(4, 3)},
			want: []roleKey{{Mask, 10, 1}, {Mask, 10, 2}, {Masked, 2, 3}, {MaskReset, 10, 2}, {MaskReset, 10, 1}},
		},
		{
			name: "mask covers its clip depth",
			tags: []tag.Tag{mask(1, 1, 3), place(3, 2), place(4, 3)},
			want: []roleKey{{Mask, 3, 1}, {Masked, 1, 2}, {MaskReset, 3, 1}, {Group, 0, 3}},
		},
		{
			name: "nested timeline as mask",
			defs: []library.Definition{sprite(50, place(1, 1), place(2, 2))},
			tags: []tag.Tag{mask(1, 50, 5), place(3, 3)},
			want: []roleKey{{Mask, 5, 1}, {Mask, 5, 2}, {Masked, 1, 3}, {MaskReset, 5, 1}, {MaskReset, 5, 2}},
		},
		{
			name: "nested timeline under mask",
			defs: []library.Definition{sprite(50, place(1, 2))},
			tags: []tag.Tag{mask(1, 1, 10), place(2, 50)},
			want: []roleKey{{Mask, 10, 1}, {Masked, 1, 2}, {MaskReset, 10, 1}},
		},
		{
			name: "mask inside masked timeline",
			defs: []library.Definition{sprite(50, mask(1, 2, 4), place(2, 3))},
			tags: []tag.Tag{mask(1, 1, 10), place(2, 50)},
			want: []roleKey{
				{Mask, 10, 1},
				{Mask, 4, 2}, {Masked, 2, 3}, {MaskReset, 4, 2},
				{MaskReset, 10, 1},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, log := flattenTags(t, append(append([]library.Definition{}, defs...), tt.defs...), tt.tags...)
			if got := summarize(f); !slices.Equal(got, tt.want) {
				t.Errorf("instances = %v, want %v", got, tt.want)
			}
			if log.Len() != 0 {
				t.Errorf("warnings = %v", log.Warnings())
			}
		})
	}
}

func TestMaskNumbers(t *testing.T) {
	defs := []library.Definition{
		bitmap(1, 4, 4), bitmap(2, 4, 4), bitmap(3, 4, 4),
		sprite(50, place(1, 1), place(2, 2)),
	}
	// Two masks tied at clip depth 10 with content between them, then a
	// sprite mask whose two writers form one mask.
	f, _ := flattenTags(t, defs,
		mask(1, 1, 10), place(2, 3), mask(3, 2, 10), place(4, 3),
		mask(12, 50, 15), place(13, 3),
	)
	type numbered struct {
		role Role
		id   uint16
		mask int
	}
	want := []numbered{
		{Mask, 1, 1}, {Masked, 3, 0}, {Mask, 2, 2}, {Masked, 3, 0},
		{MaskReset, 2, 2}, {MaskReset, 1, 1},
		{Mask, 1, 3}, {Mask, 2, 3}, {Masked, 3, 0},
		{MaskReset, 1, 3}, {MaskReset, 2, 3},
	}
	got := make([]numbered, len(f.Instances))
	for i, in := range f.Instances {
		got[i] = numbered{in.Role, in.BitmapID, in.Mask}
	}
	if !slices.Equal(got, want) {
		t.Errorf("instances = %v, want %v", got, want)
	}
}

func TestComposition(t *testing.T) {
	outer := place(1, 50)
	outer.Matrix = &geom.Matrix{A: 1, E: 1, C: 100}
	outer.Color = &geom.ColorTransform{
		Mul: geom.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 0.5},
		Add: geom.RGBA{R: 0.1, G: 0.1, B: 0.1, A: 0.1},
	}
	inner := place(1, 1)
	inner.Matrix = &geom.Matrix{A: 2, E: 2}
	inner.Color = &geom.ColorTransform{
		Mul: geom.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 0.5},
		Add: geom.RGBA{R: 0.2, G: 0.2, B: 0.2, A: 0.2},
	}
	f, _ := flattenTags(t, []library.Definition{bitmap(1, 3, 3), sprite(50, inner)}, outer)
	if len(f.Instances) != 1 {
		t.Fatalf("instances = %d, want 1", len(f.Instances))
	}
	in := f.Instances[0]
	want := geom.Matrix{A: 40, E: 40, C: 100}
	if in.Matrix != want {
		t.Errorf("matrix = %v, want %v", in.Matrix, want)
	}
	if in.Color.Mul.R != 0.25 {
		t.Errorf("mul = %v, want 0.25", in.Color.Mul.R)
	}
	if got := in.Color.Add.R; got < 0.2-1e-12 || got > 0.2+1e-12 {
		t.Errorf("add = %v, want 0.2", got)
	}
	if in.Width != 3 || in.Height != 3 || in.Role != Group {
		t.Errorf("instance = %+v", in)
	}
}

func TestShapeFills(t *testing.T) {
	shape := &library.Shape{ID: 7, Fills: []library.Fill{
		{BitmapID: 1, Matrix: geom.Scale(20, 20)},
		{BitmapID: 9, Matrix: geom.Identity()},
		{BitmapID: 2, Matrix: geom.Translate(5, 5)},
	}}
	p := place(1, 7)
	p.Matrix = ptrMatrix(geom.Translate(10, 0))
	p.Offset = 64
	f, log := flattenTags(t, []library.Definition{bitmap(1, 2, 2), bitmap(2, 8, 4), shape}, p)

	if len(f.Instances) != 2 {
		t.Fatalf("instances = %d, want 2", len(f.Instances))
	}
	if got, want := f.Instances[0].Matrix, geom.Translate(10, 0).Multiply(geom.Scale(20, 20)); got != want {
		t.Errorf("fill 0 matrix = %v, want %v", got, want)
	}
	if got := f.Instances[1]; got.BitmapID != 2 || got.Width != 8 || got.Height != 4 {
		t.Errorf("fill 2 instance = %+v", got)
	}
	ws := log.Warnings()
	if len(ws) != 1 || ws[0].Kind != diag.UnresolvedReference || ws[0].CharacterID != 9 || ws[0].Offset != 64 {
		t.Errorf("warnings = %v", ws)
	}
}

func TestInvisibleSkipped(t *testing.T) {
	hidden := place(1, 1)
	hidden.Visible = new(bool)
	f, _ := flattenTags(t, []library.Definition{bitmap(1, 2, 2)}, hidden, place(2, 1))
	if len(f.Instances) != 1 || f.Instances[0].Depth != 2 {
		t.Errorf("instances = %+v", f.Instances)
	}
}

func TestRoleString(t *testing.T) {
	tests := []struct {
		r    Role
		want string
	}{
		{Group, "plain"},
		{Mask, "mask-write"},
		{Masked, "masked"},
		{MaskReset, "mask-reset"},
		{Role(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("Role(%d).String() = %q, want %q", uint8(tt.r), got, tt.want)
		}
	}
}

func ptrMatrix(m geom.Matrix) *geom.Matrix { return &m }
