package seeds

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/voxcut/volume"
)

// Defaults for ModelOptions.
const (
	DefaultBins      = 32
	DefaultSmoothing = 2.0
	// probabilityFloor bounds -ln P at about 13.8 for unseen intensities.
	probabilityFloor = 1e-6
)

// ModelOptions tunes NewModel.
type ModelOptions struct {
	// Bins is the number of histogram bins per class (<= 0: DefaultBins).
	Bins int
	// Smoothing is the Gaussian kernel width in bins (< 0: DefaultSmoothing,
	// 0: none).
	Smoothing float64
	// Workers bounds the number of accumulation goroutines.
	Workers int
}

// Model is an immutable snapshot of the foreground and background intensity
// distributions, built once per solve before graph construction.
type Model struct {
	Bins   int
	Lo, Hi float64
	// Foreground and Background are normalized, smoothed bin probabilities.
	Foreground []float64
	Background []float64
	// Moments of the raw seed intensities, reported for diagnostics.
	ForegroundMean, ForegroundStdDev float64
	BackgroundMean, BackgroundStdDev float64

	dividers []float64
}

// NewModel accumulates per-class histograms of the scalar feature values
// (one per vertex) over the resolved seeds.
//
// Steps:
//  1. Require at least one seed of each class.
//  2. Find the feature range over the whole region so every vertex maps to a bin.
//  3. Per class, split the seed list into spans; each worker sorts its
//     values and fills a private stat.Histogram; partials are summed after
//     the group finishes.
//  4. Smooth each histogram with a Gaussian kernel across bins and normalize.
//
// Complexity: O(N/W + S log S) time, O(Bins·W + S) memory.
func NewModel(ctx context.Context, values []float64, r *Resolved, opts ModelOptions) (*Model, error) {
	if len(r.Foreground) == 0 {
		return nil, ErrNoForeground
	}
	if len(r.Background) == 0 {
		return nil, ErrNoBackground
	}
	bins := opts.Bins
	if bins <= 0 {
		bins = DefaultBins
	}
	smoothing := opts.Smoothing
	if smoothing < 0 {
		smoothing = DefaultSmoothing
	}
	workers := volume.Workers(opts.Workers)

	lo, hi, err := valueRange(ctx, values, workers)
	if err != nil {
		return nil, err
	}
	if hi <= lo {
		hi = lo + 1
	}
	m := &Model{Bins: bins, Lo: lo, Hi: hi, dividers: make([]float64, bins+1)}
	floats.Span(m.dividers, lo, hi)
	// stat.Histogram bins are half-open; nudge the top so hi itself is counted.
	m.dividers[bins] = math.Nextafter(hi, math.Inf(1))

	fgCounts, err := m.accumulate(ctx, values, r.Foreground, workers)
	if err != nil {
		return nil, err
	}
	bgCounts, err := m.accumulate(ctx, values, r.Background, workers)
	if err != nil {
		return nil, err
	}
	m.Foreground = normalize(smooth(fgCounts, smoothing))
	m.Background = normalize(smooth(bgCounts, smoothing))
	m.ForegroundMean, m.ForegroundStdDev = moments(values, r.Foreground)
	m.BackgroundMean, m.BackgroundStdDev = moments(values, r.Background)

	return m, nil
}

// Bin returns the bin of feature value x, clamped to [0, Bins).
func (m *Model) Bin(x float64) int {
	b := sort.Search(len(m.dividers), func(i int) bool { return m.dividers[i] > x }) - 1
	if b < 0 {
		return 0
	}
	if b >= m.Bins {
		return m.Bins - 1
	}

	return b
}

// Costs returns the regional penalties of x: source = -ln P(x | background),
// sink = -ln P(x | foreground). A value that looks like the foreground gets
// a large source capacity and a small sink capacity.
func (m *Model) Costs(x float64) (source, sink float64) {
	b := m.Bin(x)

	return penalty(m.Background[b]), penalty(m.Foreground[b])
}

// MaxCost is the largest value Costs can return.
func (m *Model) MaxCost() float64 {
	return penalty(0)
}

func penalty(p float64) float64 {
	if p < probabilityFloor {
		p = probabilityFloor
	}

	return -math.Log(p)
}

func (m *Model) accumulate(ctx context.Context, values []float64, vertices []int, workers int) ([]float64, error) {
	spans := volume.Split(len(vertices), workers)
	partials := make([][]float64, len(spans))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, span := range spans {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			x := make([]float64, 0, span.Hi-span.Lo)
			for _, v := range vertices[span.Lo:span.Hi] {
				x = append(x, values[v])
			}
			sort.Float64s(x)
			partials[i] = stat.Histogram(nil, m.dividers, x, nil)

			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	counts := make([]float64, m.Bins)
	for _, p := range partials {
		floats.Add(counts, p)
	}

	return counts, nil
}

func valueRange(ctx context.Context, values []float64, workers int) (lo, hi float64, err error) {
	spans := volume.Split(len(values), workers)
	mins := make([]float64, len(spans))
	maxs := make([]float64, len(spans))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, span := range spans {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			mins[i] = floats.Min(values[span.Lo:span.Hi])
			maxs[i] = floats.Max(values[span.Lo:span.Hi])

			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		return 0, 0, err
	}

	return floats.Min(mins), floats.Max(maxs), nil
}

// smooth convolves counts with a Gaussian of width sigma bins, truncated at 3σ.
func smooth(counts []float64, sigma float64) []float64 {
	if sigma == 0 {
		return counts
	}
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	out := make([]float64, len(counts))
	for b, c := range counts {
		if c == 0 {
			continue
		}
		for i, k := range kernel {
			t := b + i - radius
			if t >= 0 && t < len(out) {
				out[t] += c * k
			}
		}
	}

	return out
}

func normalize(h []float64) []float64 {
	if total := floats.Sum(h); total > 0 {
		floats.Scale(1/total, h)
	}

	return h
}

func moments(values []float64, vertices []int) (mean, std float64) {
	x := make([]float64, len(vertices))
	for i, v := range vertices {
		x[i] = values[v]
	}
	if len(x) < 2 {
		return x[0], 0
	}

	return stat.MeanStdDev(x, nil)
}
