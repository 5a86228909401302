package swf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/gogpu/swf/bitstream"
	"github.com/gogpu/swf/geom"
)

// MinVersion is the oldest supported format version. Strings are UTF-8
// from this version on.
const MinVersion = 6

// maxFileLength bounds the declared length of a compressed movie.
const maxFileLength = 1 << 30

// headerSize is the length of the signature, version and length fields.
const headerSize = 8

// Header is the movie header.
type Header struct {
	// Compressed is set for zlib-compressed ("CWS") files.
	Compressed bool
	Version    uint8
	// FileLength is the declared length of the uncompressed file.
	FileLength uint32
	// FrameSize is the stage rectangle in twips.
	FrameSize  geom.Rect
	FrameRate  float64
	FrameCount uint16
}

// readHeader parses the header of data and returns a reader positioned at
// the first tag. For compressed files the body is inflated first; offsets
// reported by the reader are those of the uncompressed file.
func readHeader(data []byte) (Header, *bitstream.Reader, error) {
	var h Header
	if len(data) < headerSize {
		return h, nil, fmt.Errorf("swf: %d byte file: %w", len(data), bitstream.ErrTruncatedInput)
	}
	switch string(data[:3]) {
	case "FWS":
	case "CWS":
		h.Compressed = true
	default:
		return h, nil, fmt.Errorf("%w: signature %q", ErrUnsupportedHeader, data[:3])
	}
	h.Version = data[3]
	if h.Version < MinVersion {
		return h, nil, fmt.Errorf("%w: version %d is older than %d", ErrUnsupportedHeader, h.Version, MinVersion)
	}
	h.FileLength = uint32(data[4]) | uint32(data[5])<<8 | uint32(data[6])<<16 | uint32(data[7])<<24

	body := data[headerSize:]
	if h.Compressed {
		var err error
		if body, err = inflateBody(body, h.FileLength); err != nil {
			return h, nil, err
		}
	}

	r := bitstream.NewReaderAt(body, headerSize)
	var err error
	if h.FrameSize, err = r.ReadRect(); err != nil {
		return h, nil, fmt.Errorf("swf: frame size: %w", err)
	}
	rate, err := r.ReadU16()
	if err != nil {
		return h, nil, fmt.Errorf("swf: frame rate: %w", err)
	}
	h.FrameRate = float64(rate) / 256 // unsigned 8.8
	if h.FrameCount, err = r.ReadU16(); err != nil {
		return h, nil, fmt.Errorf("swf: frame count: %w", err)
	}
	return h, r, nil
}

func inflateBody(body []byte, fileLength uint32) ([]byte, error) {
	if fileLength > maxFileLength {
		return nil, fmt.Errorf("%w: declared length %d", ErrUnsupportedHeader, fileLength)
	}
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("swf: inflate: %w", err)
	}
	defer zr.Close()

	want := int64(0)
	if fileLength > headerSize {
		want = int64(fileLength) - headerSize
	}
	out, err := io.ReadAll(io.LimitReader(zr, want))
	if err != nil {
		return nil, fmt.Errorf("swf: inflate: %w", err)
	}
	if int64(len(out)) < want {
		return nil, fmt.Errorf("swf: inflated %d of %d bytes: %w", len(out), want, bitstream.ErrTruncatedInput)
	}
	return out, nil
}
