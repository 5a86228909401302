package swf

import "github.com/gogpu/swf/bake"

// Option configures a conversion.
//
// Example:
//
//	res, err := swf.Convert(data,
//	    swf.WithScale(1.0/20),
//	    swf.WithAlphaThreshold(0.01),
//	)
type Option func(*options)

// options holds the configuration of one Convert call.
type options struct {
	alphaThreshold float64
	scale          float64
	uvs            bake.UVSource
	maxFrames      int
}

// defaultOptions returns the default conversion options.
func defaultOptions() options {
	return options{
		alphaThreshold: bake.DefaultAlphaThreshold,
		scale:          1.0 / 20,
	}
}

// WithAlphaThreshold sets the alpha below which plain and masked instances
// are dropped while baking. A negative threshold keeps every instance.
func WithAlphaThreshold(a float64) Option {
	return func(o *options) {
		o.alphaThreshold = a
	}
}

// WithScale sets the factor applied to baked vertex positions. The
// default, 1/20, converts twips to pixels.
func WithScale(s float64) Option {
	return func(o *options) {
		if s != 0 {
			o.scale = s
		}
	}
}

// WithUVSource sets where baked texture coordinates come from, typically a
// texture atlas packed by the host. By default every bitmap covers its
// whole texture.
func WithUVSource(src bake.UVSource) Option {
	return func(o *options) {
		o.uvs = src
	}
}

// WithMaxFrames stops conversion after n root frames. Zero or less
// converts every frame.
func WithMaxFrames(n int) Option {
	return func(o *options) {
		o.maxFrames = n
	}
}
