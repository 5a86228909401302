package swf

import (
	"fmt"
	"os"

	"github.com/gogpu/swf/bake"
	"github.com/gogpu/swf/diag"
	"github.com/gogpu/swf/flatten"
	"github.com/gogpu/swf/timeline"
)

// Result is the output of Convert.
type Result struct {
	Movie *Movie
	// Frames are the flattened root frames.
	Frames []flatten.Frame
	// Baked holds one baked frame per entry of Frames.
	Baked []bake.Frame
	// Warnings lists every recoverable anomaly in report order.
	Warnings []Warning
}

// Convert decodes a movie file and runs its root timeline to the end,
// flattening and baking every frame. A fatal error anywhere aborts the
// conversion with no result.
func Convert(data []byte, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logger := Logger()
	log := diag.NewLog(logger)
	m, err := decode(data, log)
	if err != nil {
		return nil, err
	}

	exec := &timeline.Executor{Library: m.Library, Log: log, Logger: logger}
	player := timeline.NewPlayer(exec, m.Tags)
	fl := &flatten.Flattener{Library: m.Library, Log: log}
	baker := &bake.Baker{AlphaThreshold: o.alphaThreshold, Scale: o.scale, UVs: o.uvs}

	res := &Result{Movie: m}
	quads := 0
	for o.maxFrames <= 0 || len(res.Frames) < o.maxFrames {
		f, ok := player.NextFrame()
		if !ok {
			break
		}
		flat := fl.Flatten(f)
		baked := baker.Bake(flat)
		quads += baked.Quads()
		res.Frames = append(res.Frames, flat)
		res.Baked = append(res.Baked, baked)
	}
	if o.maxFrames <= 0 && len(res.Frames) != int(m.FrameCount) {
		logger.Debug("swf: frame count differs from header",
			"header", m.FrameCount,
			"frames", len(res.Frames))
	}

	res.Warnings = log.Warnings()
	m.Warnings = res.Warnings
	logger.Debug("swf: converted",
		"frames", len(res.Frames),
		"quads", quads,
		"warnings", len(res.Warnings))
	return res, nil
}

// ConvertFile reads and converts the movie at path.
func ConvertFile(path string, opts ...Option) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("swf: %w", err)
	}
	return Convert(data, opts...)
}
