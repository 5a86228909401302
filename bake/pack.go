package bake

import "math"

// Quantisation steps of the packed UV and color words.
const (
	UVPrecision    = 16384
	ColorPrecision = 512
)

// PackUV packs a texture coordinate pair into one word, u in the high 16
// bits and v in the low 16 bits, each in steps of 1/UVPrecision. Inputs
// are clamped to [0, 1].
func PackUV(u, v float64) uint32 {
	return uint32(quantizeUV(u))<<16 | uint32(quantizeUV(v))
}

// UnpackUV reverses PackUV.
func UnpackUV(w uint32) (u, v float64) {
	return float64(w>>16) / UVPrecision, float64(w&0xFFFF) / UVPrecision
}

func quantizeUV(x float64) uint16 {
	if !(x > 0) { // also catches NaN
		return 0
	}
	if x > 1 {
		x = 1
	}
	return uint16(math.Round(x * UVPrecision))
}

// PackColor packs two color channels into one word as signed 16-bit
// values in steps of 1/ColorPrecision, a in the high half. Channels outside
// the representable range of about ±64 are clamped.
func PackColor(a, b float64) uint32 {
	return uint32(uint16(quantizeColor(a)))<<16 | uint32(uint16(quantizeColor(b)))
}

// UnpackColor reverses PackColor.
func UnpackColor(w uint32) (a, b float64) {
	return float64(int16(w>>16)) / ColorPrecision, float64(int16(w)) / ColorPrecision
}

func quantizeColor(c float64) int16 {
	v := math.Round(c * ColorPrecision)
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
