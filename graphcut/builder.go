package graphcut

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/voxcut/boundary"
	"github.com/katalvlaran/voxcut/flow"
	"github.com/katalvlaran/voxcut/seeds"
	"github.com/katalvlaran/voxcut/volume"
)

// Graph is a flow network built from one grid region, together with the
// snapshot it was built from.
type Graph struct {
	*flow.Graph
	Region       volume.Region
	Neighborhood *volume.Neighborhood
	// K is the terminal capacity of hard seeds. It exceeds the n-link
	// capacity leaving any vertex, so a seed arc never saturates.
	K float64
	// Model holds the seed histograms; nil unless UseForegroundBackground.
	Model *seeds.Model
}

// BuildOptions tunes BuildGraph.
type BuildOptions struct {
	// Workers bounds the goroutines of the parallel phases (<= 0: GOMAXPROCS).
	Workers int
	// Progress receives a non-decreasing fraction in [0,1].
	Progress func(fraction float64)
	// Logger receives build diagnostics (default zap.NewNop()).
	Logger *zap.Logger
}

// EstimateGraphBytes returns the memory a run over r needs for features and
// the flow graph, used to refuse oversized regions before allocating.
func EstimateGraphBytes(g *volume.Grid, r volume.Region, conn volume.Connectivity) int64 {
	n := int64(r.Len())
	c := int64(g.Components)
	if c < 1 {
		c = 1
	}
	features := n * (c + 2) * 8

	return features + flow.EstimateBytes(r.Len(), int(conn))
}

// BuildGraph turns a grid region and resolved seeds into a flow graph.
//
// Steps:
//  1. Validate parameters and region; build the neighborhood for the
//     connectivity and spacing.
//  2. Extract region features in parallel (samples, magnitude, and the
//     gradient magnitude when UseGradientMagnitude).
//  3. When UseForegroundBackground, snapshot seed histograms (seeds.NewModel).
//  4. Allocate the graph with one arc slot per neighbor offset.
//  5. Over disjoint vertex spans in parallel, assign per vertex:
//     - t-links: (K, 0) for foreground seeds, (0, K) for background seeds,
//     λ·(−ln P(I|bg), −ln P(I|fg)) for free vertices with histograms,
//     (0, 0) otherwise;
//     - n-links: for each offset whose neighbor lies inside the region, the
//     boundary weight of v→u in slot k, paired with slot Opposite(k) of u.
//     Neighbors outside the region get no arc.
//
// Each goroutine writes only the slots and terminals of its own vertices.
//
// Complexity: O(N·K) time, O(N·K) memory, K = 6 or 26.
func BuildGraph(ctx context.Context, grid *volume.Grid, res *seeds.Resolved, p Parameters, opts BuildOptions) (*Graph, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := grid.ValidateRegion(res.Region); err != nil {
		return nil, classify(err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(float64) {}
	}
	workers := volume.Workers(opts.Workers)
	r := res.Region

	nb, err := volume.NewNeighborhood(p.Connectivity, grid.Spacing)
	if err != nil {
		return nil, classify(err)
	}
	feats, err := volume.ExtractFeatures(ctx, grid, r, volume.FeatureOptions{
		Workers:  workers,
		Gradient: p.UseGradientMagnitude,
	})
	if err != nil {
		return nil, classify(err)
	}
	out := &Graph{Region: r, Neighborhood: nb, K: 1 + nb.InverseDistanceSum()}
	if p.UseForegroundBackground {
		if out.Model, err = seeds.NewModel(ctx, feats.Magnitude, res, p.modelOptions(workers)); err != nil {
			return nil, classify(err)
		}
		log.Debug("seed statistics",
			zap.Int("bins", out.Model.Bins),
			zap.Float64("fg_mean", out.Model.ForegroundMean),
			zap.Float64("fg_std", out.Model.ForegroundStdDev),
			zap.Float64("bg_mean", out.Model.BackgroundMean),
			zap.Float64("bg_std", out.Model.BackgroundStdDev),
		)
	}
	progress(0.2)

	if out.Graph, err = flow.NewGraph(r.Len(), nb.Len()); err != nil {
		return nil, classify(err)
	}

	term := p.term()
	spans := volume.Split(r.Len(), workers*4)
	var (
		mu   sync.Mutex
		done int
	)
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, span := range spans {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			out.assign(span, res, feats, term, p.Lambda)
			mu.Lock()
			done++
			progress(0.2 + 0.8*float64(done)/float64(len(spans)))
			mu.Unlock()

			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		return nil, err
	}
	log.Debug("graph built",
		zap.Int("vertices", r.Len()),
		zap.Int("slots", nb.Len()),
		zap.Float64("k", out.K),
	)

	return out, nil
}

// assign fills the terminals and arc slots of the vertices in span.
func (g *Graph) assign(span volume.Span, res *seeds.Resolved, f *volume.Features, term boundary.Term, lambda float64) {
	r := g.Region
	nb := g.Neighborhood
	for v := span.Lo; v < span.Hi; v++ {
		switch res.Marks[v] {
		case seeds.Foreground:
			g.SetTerminal(v, g.K, 0)
		case seeds.Background:
			g.SetTerminal(v, 0, g.K)
		default:
			if g.Model != nil {
				src, snk := g.Model.Costs(f.Magnitude[v])
				g.SetTerminal(v, lambda*src, lambda*snk)
			}
		}

		idx := r.Unflatten(v)
		sv := sample(f, v)
		for k, off := range nb.Offsets {
			ni := idx.Add(off)
			if !r.Contains(ni) {
				continue
			}
			u := r.Flatten(ni)
			g.SetArc(v, k, u, nb.Opposite(k), term.Weight(sv, sample(f, u), nb.Distance[k]))
		}
	}
}

func sample(f *volume.Features, v int) boundary.Sample {
	s := boundary.Sample{Values: f.Value(v), Magnitude: f.Magnitude[v]}
	if f.Gradient != nil {
		s.Gradient = f.Gradient[v]
	}

	return s
}

// String summarizes the graph for logs.
func (g *Graph) String() string {
	return fmt.Sprintf("graph{region=%s vertices=%d slots=%d k=%.4g}", g.Region, g.Len(), g.Stride(), g.K)
}
