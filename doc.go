// Package swf converts Flash movies into flattened, renderer-agnostic
// frame data.
//
// # Overview
//
// A movie is decoded in stages, each in its own package:
//
//	bytes -> bitstream -> tag -> library + control tags
//	      -> timeline -> flatten -> bake
//
// Decode runs the first stages and returns a Movie: the header, the
// character library and the root control tags. Convert additionally plays
// the root timeline frame by frame, flattens each display list into bitmap
// instances with composed transforms and masking roles, and bakes them into
// vertex, texture coordinate and color buffers grouped into draw calls.
//
// # Quick Start
//
//	res, err := swf.ConvertFile("intro.swf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range res.Baked {
//	    for _, g := range f.Groups {
//	        // g.Role and g.ClipDepth select stencil state;
//	        // quads g.Start..g.Start+g.Count share it.
//	    }
//	}
//
// # Units
//
// Stage coordinates are twips, 1/20 of a pixel. Baked vertices are scaled
// to pixels unless WithScale says otherwise.
//
// # Errors and warnings
//
// Truncated input, a tag parser reading past its record, a character
// defined twice and an unsupported header are fatal and abort the whole
// conversion. Unknown tags and references to missing characters are
// recoverable: they are reported as Warnings next to the result, and also
// logged at warn level through the logger set with SetLogger.
package swf
