package swf

import (
	"fmt"
	"os"

	"github.com/gogpu/swf/diag"
	"github.com/gogpu/swf/geom"
	"github.com/gogpu/swf/library"
	"github.com/gogpu/swf/tag"
)

// Movie is a decoded movie: its header, character library and root
// control tags.
type Movie struct {
	Header
	// Background is the first SetBackgroundColor color, opaque white if
	// there is none.
	Background geom.RGBA
	// Attributes holds the FileAttributes flags.
	Attributes uint32
	Library    *library.Library
	// Tags are the root control tags in file order.
	Tags []tag.Tag
	// Warnings found while decoding.
	Warnings []Warning
}

// Decode parses a complete movie file.
func Decode(data []byte) (*Movie, error) {
	log := diag.NewLog(Logger())
	m, err := decode(data, log)
	if err != nil {
		return nil, err
	}
	m.Warnings = log.Warnings()
	return m, nil
}

// DecodeFile reads and decodes the movie at path.
func DecodeFile(path string) (*Movie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("swf: %w", err)
	}
	return Decode(data)
}

func decode(data []byte, log *diag.Log) (*Movie, error) {
	h, r, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	logger := Logger()

	dec := &tag.Decoder{Log: log, Logger: logger}
	tags, err := dec.Decode(r)
	if err != nil {
		return nil, err
	}
	lib, control, err := library.Build(tags, log)
	if err != nil {
		return nil, err
	}

	m := &Movie{Header: h, Background: geom.White, Library: lib, Tags: control}
	background := false
	for _, t := range control {
		switch t := t.(type) {
		case *tag.SetBackgroundColor:
			if !background {
				m.Background = t.Color
				background = true
			}
		case *tag.FileAttributes:
			m.Attributes = t.Flags
		}
	}
	logger.Debug("swf: decoded",
		"version", h.Version,
		"compressed", h.Compressed,
		"tags", len(tags),
		"definitions", lib.Len())
	return m, nil
}
