// Package geom holds the small value types shared by every stage of the
// pipeline: the 2x3 affine Matrix, the ColorTransform applied to bitmap
// colors, and the twip-based Rect found in movie and shape headers.
//
// All types are plain values. Composition never mutates its operands.
package geom

// TwipsPerPixel is the number of twips (the native coordinate unit of the
// format) in one pixel.
const TwipsPerPixel = 20
