package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/remeh/sizedwaitgroup"

	"github.com/gogpu/swf"
	"github.com/gogpu/swf/bake"
	"github.com/gogpu/swf/geom"
	"github.com/gogpu/swf/preview"
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

// report summarizes the conversion of one file.
type report struct {
	Path     string
	Frames   int
	Quads    int
	Warnings int
	Archive  string
	Bytes    int64
	PNGs     int
	Preview  *preview.Renderer
	Elapsed  time.Duration
}

func (r *report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s frames, %s quads, %d warnings -> %s (%s)",
		r.Path,
		humanize.Comma(int64(r.Frames)),
		humanize.Comma(int64(r.Quads)),
		r.Warnings,
		r.Archive,
		humanize.Bytes(uint64(r.Bytes)))
	if r.Preview != nil {
		st := r.Preview.CacheStats()
		fmt.Fprintf(&b, ", %d PNGs, bitmap cache %s at %.0f%% hits",
			r.PNGs, humanize.Bytes(uint64(st.Cost)), 100*st.HitRate())
	}
	fmt.Fprintf(&b, " in %s", durafmt.Parse(r.Elapsed).LimitFirstN(2).Format(shortUnits))
	return b.String()
}

// run converts every input named by args and prints one report line per
// file to stdout, in input order.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, inputs, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	swf.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return err
	}

	reports := make([]*report, len(inputs))
	errs := make([]error, len(inputs))
	wg := sizedwaitgroup.New(max(cfg.Workers, 1))
	for i, path := range inputs {
		if err := wg.AddWithContext(ctx); err != nil {
			break
		}
		go func(i int, path string) {
			defer wg.Done()
			reports[i], errs[i] = convertFile(ctx, cfg, path)
		}(i, path)
	}
	wg.Wait()

	for i, r := range reports {
		if errs[i] != nil {
			errs[i] = fmt.Errorf("%s: %w", inputs[i], errs[i])
			continue
		}
		if r != nil {
			fmt.Fprintln(stdout, r)
		}
	}
	return errors.Join(append(errs, ctx.Err())...)
}

// convertFile converts one movie and writes its outputs.
func convertFile(ctx context.Context, cfg config, path string) (*report, error) {
	start := time.Now()
	res, err := swf.ConvertFile(path,
		swf.WithScale(cfg.Scale/geom.TwipsPerPixel),
		swf.WithAlphaThreshold(cfg.AlphaThreshold),
		swf.WithMaxFrames(cfg.MaxFrames),
	)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	rep := &report{
		Path:     path,
		Frames:   len(res.Baked),
		Warnings: len(res.Warnings),
		Archive:  filepath.Join(cfg.Out, name+".bake"),
	}
	for i := range res.Baked {
		rep.Quads += res.Baked[i].Quads()
	}

	if rep.Bytes, err = writeArchive(rep.Archive, res.Baked); err != nil {
		return nil, err
	}

	if cfg.Preview {
		interp, err := interpolator(cfg.Filter)
		if err != nil {
			return nil, err
		}
		w, h := res.Movie.FrameSize.PixelSize()
		r := preview.New(res.Movie.Library,
			int(math.Ceil(w*cfg.Scale)), int(math.Ceil(h*cfg.Scale)),
			preview.WithBackground(res.Movie.Background),
			preview.WithInterpolator(interp),
			preview.WithCacheBudget(int64(cfg.CacheMB)<<20),
		)
		imgs, err := r.RenderAll(ctx, res.Baked, cfg.Workers)
		if err != nil {
			return nil, err
		}
		for i, img := range imgs {
			out := filepath.Join(cfg.Out, fmt.Sprintf("%s_%04d.png", name, i+1))
			if err := writePNG(out, img); err != nil {
				return nil, err
			}
		}
		rep.PNGs = len(imgs)
		rep.Preview = r
	}

	rep.Elapsed = time.Since(start)
	return rep, nil
}

// writeArchive writes frames to path and returns the file size.
func writeArchive(path string, frames []bake.Frame) (int64, error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(f)
	if err := bake.WriteArchive(bw, frames); err != nil {
		_ = f.Close()
		return 0, err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return 0, err
	}
	return info.Size(), f.Close()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
