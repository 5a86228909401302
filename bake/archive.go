package bake

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/gogpu/swf/flatten"
)

// ErrBadArchive is returned by ReadArchive for data it did not write.
var ErrBadArchive = errors.New("bake: malformed archive")

const (
	archiveMagic   = "SWFB"
	archiveVersion = 2

	maxArchiveLabel  = 1 << 20
	maxArchiveQuads  = 1 << 24
	maxArchiveGroups = 1 << 24
	maxArchiveFrames = 1 << 20
)

// WriteArchive writes frames to w as a zstd stream of little-endian
// records. The output depends only on frames. Labels longer than
// maxArchiveLabel bytes are rejected.
func WriteArchive(w io.Writer, frames []Frame) error {
	for i := range frames {
		if n := len(frames[i].Label); n > maxArchiveLabel {
			return fmt.Errorf("%w: frame %d label is %d bytes", ErrBadArchive, frames[i].Index, n)
		}
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return fmt.Errorf("bake: zstd writer: %w", err)
	}
	bw := bufio.NewWriter(enc)
	aw := archiveWriter{w: bw}

	aw.bytes([]byte(archiveMagic))
	aw.put(uint16(archiveVersion))
	aw.put(uint32(len(frames)))
	for i := range frames {
		aw.frame(&frames[i])
	}
	if aw.err == nil {
		aw.err = bw.Flush()
	}
	if aw.err != nil {
		enc.Close()
		return fmt.Errorf("bake: write archive: %w", aw.err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("bake: close archive: %w", err)
	}
	return nil
}

type archiveWriter struct {
	w   io.Writer
	err error
}

func (a *archiveWriter) put(v any) {
	if a.err == nil {
		a.err = binary.Write(a.w, binary.LittleEndian, v)
	}
}

func (a *archiveWriter) bytes(b []byte) {
	if a.err == nil {
		_, a.err = a.w.Write(b)
	}
}

func (a *archiveWriter) frame(f *Frame) {
	a.put(uint32(f.Index))
	a.put(uint32(len(f.Label)))
	a.bytes([]byte(f.Label))
	a.put(uint32(f.Quads()))
	a.put(f.Vertices)
	a.put(f.UVs)
	a.put(f.Mul)
	a.put(f.Add)
	a.put(f.Bitmaps)
	stencil := f.Stencil
	if len(stencil) != f.Quads() {
		stencil = make([]uint8, f.Quads())
		for i, r := range f.StencilReferences() {
			stencil[i] = uint8(r)
		}
	}
	a.put(stencil)
	a.put(uint32(len(f.Groups)))
	for _, g := range f.Groups {
		a.put(uint8(g.Role))
		a.put(int32(g.ClipDepth))
		a.put(uint32(g.Start))
		a.put(uint32(g.Count))
	}
}

// ReadArchive reads frames written by WriteArchive.
func ReadArchive(r io.Reader) ([]Frame, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("bake: zstd reader: %w", err)
	}
	defer dec.Close()
	ar := archiveReader{r: bufio.NewReader(dec)}

	magic := make([]byte, len(archiveMagic))
	ar.bytes(magic)
	var version uint16
	var count uint32
	ar.get(&version)
	ar.get(&count)
	if ar.err != nil {
		return nil, ar.fail()
	}
	if string(magic) != archiveMagic || version != archiveVersion || count > maxArchiveFrames {
		return nil, fmt.Errorf("%w: magic %q version %d frames %d", ErrBadArchive, magic, version, count)
	}

	frames := make([]Frame, count)
	for i := range frames {
		ar.frame(&frames[i])
		if ar.err != nil {
			return nil, ar.fail()
		}
	}
	return frames, nil
}

type archiveReader struct {
	r   io.Reader
	err error
}

func (a *archiveReader) get(v any) {
	if a.err == nil {
		a.err = binary.Read(a.r, binary.LittleEndian, v)
	}
}

func (a *archiveReader) bytes(b []byte) {
	if a.err == nil {
		_, a.err = io.ReadFull(a.r, b)
	}
}

func (a *archiveReader) fail() error {
	if errors.Is(a.err, io.EOF) || errors.Is(a.err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated: %w", ErrBadArchive, a.err)
	}
	if errors.Is(a.err, ErrBadArchive) {
		return a.err
	}
	return fmt.Errorf("bake: read archive: %w", a.err)
}

func (a *archiveReader) frame(f *Frame) {
	var index, labelLen, quads, groups uint32
	a.get(&index)
	a.get(&labelLen)
	if a.err == nil && labelLen > maxArchiveLabel {
		a.err = fmt.Errorf("%w: %d byte label", ErrBadArchive, labelLen)
	}
	if a.err != nil {
		return
	}
	label := make([]byte, labelLen)
	a.bytes(label)
	a.get(&quads)
	if a.err == nil && quads > maxArchiveQuads {
		a.err = fmt.Errorf("%w: %d quads", ErrBadArchive, quads)
	}
	if a.err != nil {
		return
	}
	f.Index = int(index)
	f.Label = string(label)
	f.Vertices = make([]float32, quads*8)
	f.UVs = make([]uint32, quads*2)
	f.Mul = make([]uint32, quads*2)
	f.Add = make([]uint32, quads*2)
	f.Bitmaps = make([]uint16, quads)
	f.Stencil = make([]uint8, quads)
	a.get(f.Vertices)
	a.get(f.UVs)
	a.get(f.Mul)
	a.get(f.Add)
	a.get(f.Bitmaps)
	a.get(f.Stencil)

	a.get(&groups)
	if a.err == nil && groups > maxArchiveGroups {
		a.err = fmt.Errorf("%w: %d groups", ErrBadArchive, groups)
	}
	if a.err != nil {
		return
	}
	if groups > 0 {
		f.Groups = make([]Group, groups)
	}
	for i := range f.Groups {
		var role uint8
		var clip int32
		var start, count uint32
		a.get(&role)
		a.get(&clip)
		a.get(&start)
		a.get(&count)
		if a.err == nil && (uint64(start)+uint64(count) > uint64(quads) || role > uint8(flatten.MaskReset)) {
			a.err = fmt.Errorf("%w: group %d out of range", ErrBadArchive, i)
		}
		f.Groups[i] = Group{Role: flatten.Role(role), ClipDepth: int(clip), Start: int(start), Count: int(count)}
	}
}
