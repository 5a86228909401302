// Command swfbake converts movies into baked frame archives.
//
// Usage:
//
//	swfbake [flags] movie.swf...
//
// Every input is decoded, played to its last root frame, flattened and
// baked. The frames are written to <out>/<name>.bake. With -png, each frame
// is also rendered on the CPU to <out>/<name>_NNNN.png.
//
// Flags override values from the -config INI file:
//
//	[run]
//	out = baked
//	workers = 4
//	verbose = false
//
//	[bake]
//	scale = 1.0
//	alpha_threshold = 0.0039
//	max_frames = 0
//
//	[preview]
//	enabled = true
//	filter = bilinear
//	cache_mb = 64
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "swfbake: %v\n", err)
		os.Exit(1)
	}
}
