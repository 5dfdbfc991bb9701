package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/katalvlaran/voxcut/config"
	"github.com/katalvlaran/voxcut/flow"
	"github.com/katalvlaran/voxcut/graphcut"
	"github.com/katalvlaran/voxcut/label"
	"github.com/katalvlaran/voxcut/seeds"
	"github.com/katalvlaran/voxcut/volio"
	"github.com/katalvlaran/voxcut/volume"
)

type segmentFlags struct {
	config      string
	volume      string
	seeds       string
	markers     string
	fgMarker    float64
	bgMarker    float64
	output      string
	region      string
	fullExtent  bool
	algorithm   string
	connect     int
	logLevel    string
	compression string
	progress    bool
}

func runSegment(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var f segmentFlags
	fs := pflag.NewFlagSet("segment", pflag.ContinueOnError)
	fs.StringVarP(&f.config, "config", "c", "", "YAML configuration file")
	fs.StringVar(&f.volume, "volume", "", "input grid container (required)")
	fs.StringVar(&f.seeds, "seeds", "", "seed set container")
	fs.StringVar(&f.markers, "markers", "", "marker grid container, an alternative to --seeds")
	fs.Float64Var(&f.fgMarker, "fg-marker", 1, "marker value of foreground seeds")
	fs.Float64Var(&f.bgMarker, "bg-marker", 2, "marker value of background seeds")
	fs.StringVarP(&f.output, "output", "o", "", "output label container (required)")
	fs.StringVar(&f.region, "region", "", "processed region as x,y,z,sx,sy,sz (default: full extent)")
	fs.BoolVar(&f.fullExtent, "full-extent", false, "write labels over the full extent, background outside the region")
	fs.StringVar(&f.algorithm, "algorithm", "", "max-flow algorithm: "+algorithmNames())
	fs.IntVar(&f.connect, "connectivity", 0, "neighborhood connectivity, 6 or 26")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&f.compression, "compression", "", "output compression: zstd, lz4 or none")
	fs.BoolVar(&f.progress, "progress", false, "print stage progress to stderr")
	if done, err := parse(fs, args, stderr); done || err != nil {
		return err
	}
	if f.volume == "" || f.output == "" {
		return fmt.Errorf("segment: --volume and --output are required")
	}
	if (f.seeds == "") == (f.markers == "") {
		return fmt.Errorf("segment: exactly one of --seeds and --markers is required")
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	f.apply(fs, cfg)
	log, err := newLogger(cfg.Runtime.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	params, err := cfg.Parameters()
	if err != nil {
		return err
	}
	opts, err := cfg.FilterOptions(log)
	if err != nil {
		return err
	}
	comp, err := volio.ParseCompression(cfg.Output.Compression)
	if err != nil {
		return err
	}
	if f.progress {
		opts = append(opts, graphcut.WithProgress(func(s graphcut.Stage, frac float64) {
			fmt.Fprintf(stderr, "%-15s %3.0f%%\n", s, 100*frac)
		}))
	}

	grid, err := volio.ReadFile(f.volume, volio.ReadGrid)
	if err != nil {
		return fmt.Errorf("segment: %s: %w", f.volume, err)
	}
	region := volume.RegionOf(grid.Extent)
	if f.region != "" {
		if region, err = parseRegion(f.region); err != nil {
			return err
		}
	}
	set, err := loadSeeds(f, grid.Extent, region)
	if err != nil {
		return err
	}
	log.Info("segmenting",
		zap.String("volume", f.volume),
		zap.Stringer("region", region),
		zap.Int("fg_seeds", len(set.Foreground)),
		zap.Int("bg_seeds", len(set.Background)),
		zap.Stringer("algorithm", params.Algorithm),
	)

	res, err := graphcut.New(params, opts...).Run(ctx, graphcut.Input{Grid: grid, Region: region, Seeds: set})
	if err != nil {
		return err
	}

	out := res.Labels
	if f.fullExtent {
		full := &label.Buffer[uint16]{Region: volume.RegionOf(grid.Extent), Data: make([]uint16, grid.Extent.Len())}
		for i := range full.Data {
			full.Data[i] = params.BackgroundLabel
		}
		if err = res.Labels.Paste(full.Data, grid.Extent); err != nil {
			return err
		}
		out = full
	}
	if err = volio.WriteFile(f.output, func(w io.Writer) error {
		return volio.WriteLabels(w, out, comp)
	}); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "flow=%g foreground=%d/%d solved=%t\n", res.Flow, res.Foreground, region.Len(), res.Solved)
	for _, t := range res.Timings {
		fmt.Fprintf(stdout, "  %-15s %s\n", t.Stage, t.Elapsed)
	}

	return nil
}

// apply overrides cfg with the flags set on the command line.
func (f *segmentFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("algorithm") {
		cfg.Solver.Algorithm = f.algorithm
	}
	if fs.Changed("connectivity") {
		cfg.Segmentation.Connectivity = f.connect
	}
	if fs.Changed("log-level") {
		cfg.Runtime.LogLevel = f.logLevel
	}
	if fs.Changed("compression") {
		cfg.Output.Compression = f.compression
	}
}

func loadSeeds(f segmentFlags, extent volume.Size, r volume.Region) (seeds.Set, error) {
	if f.seeds != "" {
		s, err := volio.ReadFile(f.seeds, volio.ReadSeeds)
		if err != nil {
			return s, fmt.Errorf("segment: %s: %w", f.seeds, err)
		}

		return s, nil
	}
	m, err := volio.ReadFile(f.markers, volio.ReadGrid)
	if err != nil {
		return seeds.Set{}, fmt.Errorf("segment: %s: %w", f.markers, err)
	}
	if m.Extent != extent {
		return seeds.Set{}, fmt.Errorf("segment: marker extent %v differs from volume extent %v", m.Extent, extent)
	}

	return seeds.FromMarkers(m.Extent, m.Data, r, f.fgMarker, f.bgMarker)
}

// parseRegion parses "x,y,z,sx,sy,sz".
func parseRegion(s string) (volume.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return volume.Region{}, fmt.Errorf("region %q: want x,y,z,sx,sy,sz", s)
	}
	var n [6]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return volume.Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		n[i] = v
	}

	return volume.Region{
		Origin: volume.Index{X: n[0], Y: n[1], Z: n[2]},
		Size:   volume.Size{X: n[3], Y: n[4], Z: n[5]},
	}, nil
}

func algorithmNames() string {
	names := make([]string, len(flow.Algorithms))
	for i, a := range flow.Algorithms {
		names[i] = a.String()
	}

	return strings.Join(names, ", ")
}
