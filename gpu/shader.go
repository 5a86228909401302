//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

//go:embed shaders/bitmap.wgsl
var bitmapShaderSource string

// Shader entry points.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
	// MaskEntryPoint is the fragment entry of mask writers and resets.
	MaskEntryPoint = "fs_mask"
)

// ShaderSource returns the WGSL source of the bitmap shader.
func ShaderSource() string { return bitmapShaderSource }

// CompileShader compiles the bitmap shader to SPIR-V words.
func CompileShader() ([]uint32, error) {
	spirvBytes, err := naga.Compile(bitmapShaderSource)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile bitmap shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}
