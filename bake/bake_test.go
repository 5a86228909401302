package bake

import (
	"bytes"
	"errors"
	"io"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/gogpu/swf/flatten"
	"github.com/gogpu/swf/geom"
)

func TestPackUVRoundTrip(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		u := float64(i) / 1000
		v := 1 - u
		gu, gv := UnpackUV(PackUV(u, v))
		if math.Abs(gu-u) >= 1.0/UVPrecision || math.Abs(gv-v) >= 1.0/UVPrecision {
			t.Fatalf("UnpackUV(PackUV(%v, %v)) = (%v, %v)", u, v, gu, gv)
		}
	}
}

func TestPackUVClamps(t *testing.T) {
	tests := []struct {
		u, v         float64
		wantU, wantV float64
	}{
		{-0.5, 2, 0, 1},
		{math.NaN(), 0.25, 0, 0.25},
	}
	for _, tt := range tests {
		u, v := UnpackUV(PackUV(tt.u, tt.v))
		if u != tt.wantU || v != tt.wantV {
			t.Errorf("UnpackUV(PackUV(%v, %v)) = (%v, %v), want (%v, %v)", tt.u, tt.v, u, v, tt.wantU, tt.wantV)
		}
	}
}

func TestPackColorRoundTrip(t *testing.T) {
	for i := -4000; i <= 4000; i++ {
		a := float64(i) / 997
		b := -a / 3
		ga, gb := UnpackColor(PackColor(a, b))
		if math.Abs(ga-a) >= 1.0/ColorPrecision || math.Abs(gb-b) >= 1.0/ColorPrecision {
			t.Fatalf("UnpackColor(PackColor(%v, %v)) = (%v, %v)", a, b, ga, gb)
		}
	}
	if a, _ := UnpackColor(PackColor(1000, 0)); a != float64(math.MaxInt16)/ColorPrecision {
		t.Errorf("large channel unpacked to %v, want clamp", a)
	}
}

func instance(role flatten.Role, clip int, id uint16) flatten.Instance {
	return flatten.Instance{
		BitmapID:  id,
		Width:     10,
		Height:    5,
		Matrix:    geom.Identity(),
		Color:     geom.IdentityColor(),
		Role:      role,
		ClipDepth: clip,
	}
}

func TestBakeGroups(t *testing.T) {
	f := flatten.Frame{Instances: []flatten.Instance{
		instance(flatten.Group, 0, 1),
		instance(flatten.Group, 0, 2),
		instance(flatten.Mask, 10, 3),
		instance(flatten.Masked, 1, 4),
		instance(flatten.Masked, 1, 5),
		instance(flatten.MaskReset, 10, 3),
		instance(flatten.Group, 0, 1),
	}}
	var b Baker
	got := b.Bake(f)
	want := []Group{
		{flatten.Group, 0, 0, 2},
		{flatten.Mask, 10, 2, 1},
		{flatten.Masked, 1, 3, 2},
		{flatten.MaskReset, 10, 5, 1},
		{flatten.Group, 0, 6, 1},
	}
	if len(got.Groups) != len(want) {
		t.Fatalf("groups = %+v, want %+v", got.Groups, want)
	}
	for i := range want {
		if got.Groups[i] != want[i] {
			t.Errorf("group %d = %+v, want %+v", i, got.Groups[i], want[i])
		}
	}
	if got.Quads() != 7 || len(got.Vertices) != 56 || len(got.UVs) != 14 || len(got.Mul) != 14 || len(got.Add) != 14 {
		t.Errorf("buffer sizes: quads %d vertices %d uvs %d mul %d add %d",
			got.Quads(), len(got.Vertices), len(got.UVs), len(got.Mul), len(got.Add))
	}
}

func TestBakeAlphaFilter(t *testing.T) {
	faded := func(role flatten.Role) flatten.Instance {
		in := instance(role, 0, 1)
		in.Color.Mul.A = 0
		return in
	}
	almost := instance(flatten.Group, 0, 2)
	almost.Color.Mul.A = 0
	almost.Color.Add.A = 2.0 / 255

	f := flatten.Frame{Instances: []flatten.Instance{
		faded(flatten.Group), faded(flatten.Masked), faded(flatten.Mask), faded(flatten.MaskReset), almost,
	}}
	tests := []struct {
		name      string
		threshold float64
		want      int
	}{
		{"default", 0, 3},
		{"keep all", -1, 5},
		{"strict", 0.5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Baker{AlphaThreshold: tt.threshold}
			baked := b.Bake(f)
			if got := baked.Quads(); got != tt.want {
				t.Errorf("quads = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBakeVertices(t *testing.T) {
	in := instance(flatten.Group, 0, 1)
	in.Matrix = geom.Translate(200, 400).Multiply(geom.Scale(20, 20))
	in.Color = geom.ColorTransform{
		Mul: geom.RGBA{R: 0.5, G: 1, B: 1.5, A: 1},
		Add: geom.RGBA{R: -0.25},
	}
	b := Baker{UVs: UVSourceFunc(func(uint16) UVRect { return UVRect{U0: 0.5, V0: 0, U1: 1, V1: 0.25} })}
	got := b.Bake(flatten.Frame{Instances: []flatten.Instance{in}})

	want := []float32{10, 20, 20, 20, 20, 25, 10, 25}
	for i := range want {
		if got.Vertices[i] != want[i] {
			t.Fatalf("vertices = %v, want %v", got.Vertices, want)
		}
	}
	if u, v := UnpackUV(got.UVs[0]); u != 0.5 || v != 0 {
		t.Errorf("uv min = (%v, %v)", u, v)
	}
	if u, v := UnpackUV(got.UVs[1]); u != 1 || v != 0.25 {
		t.Errorf("uv max = (%v, %v)", u, v)
	}
	if r, g := UnpackColor(got.Mul[0]); r != 0.5 || g != 1 {
		t.Errorf("mul rg = (%v, %v)", r, g)
	}
	if bl, a := UnpackColor(got.Mul[1]); bl != 1.5 || a != 1 {
		t.Errorf("mul ba = (%v, %v)", bl, a)
	}
	if r, _ := UnpackColor(got.Add[0]); r != -0.25 {
		t.Errorf("add r = %v", r)
	}
}

func sampleFrames() []flatten.Frame {
	a := instance(flatten.Group, 0, 1)
	a.Matrix = geom.Rotate(0.3).Multiply(geom.Scale(20, 20))
	return []flatten.Frame{
		{Index: 0, Label: "intro", Instances: []flatten.Instance{a, instance(flatten.Mask, 4, 2), instance(flatten.Masked, 1, 3)}},
		{Index: 1},
	}
}

func TestBakeIdempotent(t *testing.T) {
	var b Baker
	var first, second bytes.Buffer
	if err := WriteArchive(&first, b.BakeAll(sampleFrames())); err != nil {
		t.Fatal(err)
	}
	if err := WriteArchive(&second, b.BakeAll(sampleFrames())); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("baking twice produced different archives")
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	var b Baker
	frames := b.BakeAll(sampleFrames())
	var buf bytes.Buffer
	if err := WriteArchive(&buf, frames); err != nil {
		t.Fatal(err)
	}
	got, err := ReadArchive(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("frames = %d, want 2", len(got))
	}
	f, want := got[0], frames[0]
	if f.Label != "intro" || f.Quads() != 3 || len(f.Groups) != 3 {
		t.Fatalf("frame 0 = label %q quads %d groups %d", f.Label, f.Quads(), len(f.Groups))
	}
	for i := range want.Vertices {
		if f.Vertices[i] != want.Vertices[i] {
			t.Fatalf("vertex %d = %v, want %v", i, f.Vertices[i], want.Vertices[i])
		}
	}
	for i := range want.Groups {
		if f.Groups[i] != want.Groups[i] {
			t.Errorf("group %d = %+v, want %+v", i, f.Groups[i], want.Groups[i])
		}
	}
	if !slices.Equal(f.Stencil, want.Stencil) {
		t.Errorf("stencil = %v, want %v", f.Stencil, want.Stencil)
	}
	if got[1].Index != 1 || got[1].Quads() != 0 {
		t.Errorf("frame 1 = %+v", got[1])
	}
}

func TestReadArchiveRejectsGarbage(t *testing.T) {
	if _, err := ReadArchive(bytes.NewReader([]byte("not an archive"))); err == nil {
		t.Fatal("ReadArchive accepted garbage")
	}

	var buf bytes.Buffer
	if err := WriteArchive(&buf, nil); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if _, err := ReadArchive(bytes.NewReader(data)); err != nil {
		t.Fatalf("empty archive: %v", err)
	}
	var other bytes.Buffer
	if err := WriteArchive(&other, []Frame{{}}); err != nil {
		t.Fatal(err)
	}
	trunc := other.Bytes()[:other.Len()-4]
	if _, err := ReadArchive(bytes.NewReader(trunc)); err == nil {
		t.Error("ReadArchive accepted a truncated stream")
	}
}

func TestReadArchiveBadMagic(t *testing.T) {
	var buf bytes.Buffer
	aw := archiveWriter{w: &buf}
	aw.bytes([]byte("XXXX"))
	aw.put(uint16(archiveVersion))
	aw.put(uint32(0))

	var z bytes.Buffer
	if err := compress(&z, buf.Bytes()); err != nil {
		t.Fatal(err)
	}
	_, err := ReadArchive(&z)
	if !errors.Is(err, ErrBadArchive) {
		t.Fatalf("err = %v, want ErrBadArchive", err)
	}
}

func compress(w io.Writer, b []byte) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := enc.Write(b); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func masked(role flatten.Role, clip, mask int) flatten.Instance {
	in := instance(role, clip, 1)
	in.Mask = mask
	return in
}

func TestStencilReferences(t *testing.T) {
	tests := []struct {
		name      string
		instances []flatten.Instance
		want      []uint32
	}{
		{"plain", []flatten.Instance{masked(flatten.Group, 0, 0)}, []uint32{0}},
		{
			"single mask",
			[]flatten.Instance{
				masked(flatten.Mask, 5, 1), masked(flatten.Masked, 1, 0),
				masked(flatten.MaskReset, 5, 1), masked(flatten.Group, 0, 0),
			},
			[]uint32{0, 1, 1, 0},
		},
		{
			"nested",
			[]flatten.Instance{
				masked(flatten.Mask, 9, 1), masked(flatten.Mask, 4, 2), masked(flatten.Masked, 2, 0),
				masked(flatten.MaskReset, 4, 2), masked(flatten.Masked, 1, 0), masked(flatten.MaskReset, 9, 1),
			},
			[]uint32{0, 1, 2, 2, 1, 1},
		},
		{
			"writers of one mask share a level",
			[]flatten.Instance{
				masked(flatten.Mask, 5, 1), masked(flatten.Mask, 5, 1), masked(flatten.Masked, 1, 0),
				masked(flatten.MaskReset, 5, 1), masked(flatten.MaskReset, 5, 1), masked(flatten.Mask, 7, 2),
			},
			[]uint32{0, 0, 1, 1, 1, 0},
		},
		{
			// Two masks tied at clip depth 10 reset in one group, then a
			// later mask starts from an empty stencil.
			"tied clip depths",
			[]flatten.Instance{
				masked(flatten.Mask, 10, 1), masked(flatten.Masked, 1, 0),
				masked(flatten.Mask, 10, 2), masked(flatten.Masked, 2, 0),
				masked(flatten.MaskReset, 10, 2), masked(flatten.MaskReset, 10, 1),
				masked(flatten.Mask, 15, 3), masked(flatten.Masked, 1, 0),
			},
			[]uint32{0, 1, 1, 2, 2, 1, 0, 1},
		},
		{
			"adjacent tied masks",
			[]flatten.Instance{
				masked(flatten.Mask, 10, 1), masked(flatten.Mask, 10, 2), masked(flatten.Masked, 2, 0),
			},
			[]uint32{0, 1, 2},
		},
		{"unbalanced reset", []flatten.Instance{masked(flatten.MaskReset, 3, 1), masked(flatten.Masked, 1, 0)}, []uint32{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Baker{AlphaThreshold: -1}
			f := b.Bake(flatten.Frame{Instances: tt.instances})
			if got := f.StencilReferences(); !slices.Equal(got, tt.want) {
				t.Errorf("StencilReferences() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStencilReferencesWithoutStencil(t *testing.T) {
	// A frame assembled by hand counts every group as one mask.
	f := Frame{
		Bitmaps: make([]uint16, 5),
		Groups: []Group{
			{Role: flatten.Mask, ClipDepth: 9, Start: 0, Count: 2},
			{Role: flatten.Masked, ClipDepth: 1, Start: 2, Count: 1},
			{Role: flatten.MaskReset, ClipDepth: 9, Start: 3, Count: 1},
			{Role: flatten.Group, Start: 4, Count: 1},
		},
	}
	want := []uint32{0, 0, 1, 1, 0}
	if got := f.StencilReferences(); !slices.Equal(got, want) {
		t.Errorf("StencilReferences() = %v, want %v", got, want)
	}
}

func TestArchiveLongLabel(t *testing.T) {
	long := Frame{Label: strings.Repeat("x", 70000)}
	var buf bytes.Buffer
	if err := WriteArchive(&buf, []Frame{long}); err != nil {
		t.Fatal(err)
	}
	got, err := ReadArchive(&buf)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if got[0].Label != long.Label {
		t.Errorf("label length = %d, want %d", len(got[0].Label), len(long.Label))
	}

	huge := Frame{Label: strings.Repeat("x", maxArchiveLabel+1)}
	if err := WriteArchive(io.Discard, []Frame{huge}); !errors.Is(err, ErrBadArchive) {
		t.Errorf("oversized label err = %v, want ErrBadArchive", err)
	}
}
