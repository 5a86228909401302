package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/image/draw"
	"gopkg.in/ini.v1"

	"github.com/gogpu/swf/bake"
)

// errUsage marks command-line mistakes: no input, unknown flags or
// invalid flag values. main exits with status 2 for them.
var errUsage = errors.New("usage: swfbake [flags] movie.swf...")

// config is the resolved configuration of one run.
type config struct {
	Out     string
	Workers int
	Verbose bool

	// Scale is output pixels per stage pixel.
	Scale          float64
	AlphaThreshold float64
	MaxFrames      int

	Preview bool
	Filter  string
	CacheMB int
}

func defaultConfig() config {
	return config{
		Out:            ".",
		Workers:        runtime.NumCPU(),
		Scale:          1,
		AlphaThreshold: bake.DefaultAlphaThreshold,
		Filter:         "bilinear",
		CacheMB:        64,
	}
}

// iniKeys maps INI section and key names to the flags they stand for.
var iniKeys = []struct {
	section, key, flag string
}{
	{"run", "out", "out"},
	{"run", "workers", "workers"},
	{"run", "verbose", "v"},
	{"bake", "scale", "scale"},
	{"bake", "alpha_threshold", "alpha"},
	{"bake", "max_frames", "max-frames"},
	{"preview", "enabled", "png"},
	{"preview", "filter", "filter"},
	{"preview", "cache_mb", "cache-mb"},
}

// parseArgs resolves the configuration and input paths from the command
// line. Values come from defaults, then the -config file, then flags.
func parseArgs(args []string, stderr io.Writer) (config, []string, error) {
	cfg := defaultConfig()
	var cfgPath string

	fs := flag.NewFlagSet("swfbake", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfgPath, "config", "", "INI configuration file")
	fs.StringVar(&cfg.Out, "out", cfg.Out, "output directory")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "files and frames processed in parallel")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "log decoding details and warnings")
	fs.Float64Var(&cfg.Scale, "scale", cfg.Scale, "output pixels per stage pixel")
	fs.Float64Var(&cfg.AlphaThreshold, "alpha", cfg.AlphaThreshold, "drop instances below this alpha; negative keeps all")
	fs.IntVar(&cfg.MaxFrames, "max-frames", cfg.MaxFrames, "stop after this many frames; 0 converts all")
	fs.BoolVar(&cfg.Preview, "png", cfg.Preview, "render every frame to PNG")
	fs.StringVar(&cfg.Filter, "filter", cfg.Filter, "preview sampling: nearest, bilinear, smooth or catmullrom")
	fs.IntVar(&cfg.CacheMB, "cache-mb", cfg.CacheMB, "preview bitmap cache size in MiB")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return cfg, nil, err
		}
		return cfg, nil, fmt.Errorf("%w: %w", errUsage, err)
	}

	if cfgPath != "" {
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if err := applyINI(cfgPath, &cfg, set); err != nil {
			return cfg, nil, err
		}
	}

	if _, err := interpolator(cfg.Filter); err != nil {
		return cfg, nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if cfg.Scale <= 0 {
		return cfg, nil, fmt.Errorf("%w: scale must be positive, got %v", errUsage, cfg.Scale)
	}
	if fs.NArg() == 0 {
		return cfg, nil, errUsage
	}
	return cfg, fs.Args(), nil
}

// applyINI overlays the values of an INI file onto cfg, skipping keys
// whose flag was given on the command line.
func applyINI(path string, cfg *config, set map[string]bool) error {
	file, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveSections: true,
		InsensitiveKeys:     true,
	}, path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	for _, k := range iniKeys {
		if set[k.flag] || !file.Section(k.section).HasKey(k.key) {
			continue
		}
		key := file.Section(k.section).Key(k.key)
		switch k.flag {
		case "out":
			cfg.Out = key.String()
		case "filter":
			cfg.Filter = key.String()
		case "workers":
			cfg.Workers, err = key.Int()
		case "max-frames":
			cfg.MaxFrames, err = key.Int()
		case "cache-mb":
			cfg.CacheMB, err = key.Int()
		case "scale":
			cfg.Scale, err = key.Float64()
		case "alpha":
			cfg.AlphaThreshold, err = key.Float64()
		case "v":
			cfg.Verbose, err = key.Bool()
		case "png":
			cfg.Preview, err = key.Bool()
		}
		if err != nil {
			return fmt.Errorf("config [%s] %s: %w", k.section, k.key, err)
		}
	}
	return nil
}

// interpolator returns the preview filter of a name.
func interpolator(name string) (draw.Interpolator, error) {
	switch name {
	case "nearest":
		return draw.NearestNeighbor, nil
	case "bilinear":
		return draw.ApproxBiLinear, nil
	case "smooth":
		return draw.BiLinear, nil
	case "catmullrom":
		return draw.CatmullRom, nil
	}
	return nil, fmt.Errorf("unknown filter %q", name)
}
