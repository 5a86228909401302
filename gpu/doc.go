// Package gpu maps baked frames onto WebGPU render state.
//
// The package does not own a device or a render pass. It provides the
// vertex layout and index expansion of baked quads, the stencil state of
// every draw role, the bitmap shader, and a draw plan that sequences the
// groups of a frame with their stencil references. Hosts create Pipelines
// on their own hal.Device and replay plans into their own render passes.
//
// Masks use nested stencil levels: a mask writer tests the enclosing level
// and increments it, masked draws test for equality with the current level,
// and a reset decrements back to the enclosing level.
package gpu
