package volume

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Features is a region-relative snapshot of the samples needed to build a
// flow graph. Entries are addressed by the vertex number Region.Flatten.
type Features struct {
	Region     Region
	Components int
	// Values holds Components samples per vertex.
	Values []float64
	// Magnitude holds the scalar feature per vertex: the sample itself for
	// scalar grids, the Euclidean norm for vector grids.
	Magnitude []float64
	// Gradient holds the gradient magnitude per vertex, nil unless requested.
	Gradient []float64
}

// FeatureOptions tunes ExtractFeatures.
type FeatureOptions struct {
	// Workers bounds the number of goroutines; <= 0 means GOMAXPROCS.
	Workers int
	// Gradient requests the gradient-magnitude channel.
	Gradient bool
}

// Span is a half-open range [Lo, Hi) of vertex numbers.
type Span struct {
	Lo, Hi int
}

// Split divides [0,n) into at most parts contiguous, non-empty spans.
// Complexity: O(parts).
func Split(n, parts int) []Span {
	if n <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	spans := make([]Span, 0, parts)
	step, rem := n/parts, n%parts
	lo := 0
	for i := 0; i < parts; i++ {
		hi := lo + step
		if i < rem {
			hi++
		}
		spans = append(spans, Span{Lo: lo, Hi: hi})
		lo = hi
	}

	return spans
}

// Workers resolves a worker count: w <= 0 means GOMAXPROCS.
func Workers(w int) int {
	if w <= 0 {
		return runtime.GOMAXPROCS(0)
	}

	return w
}

// ExtractFeatures copies the region's samples into vertex order and
// optionally computes the gradient magnitude. Work is split into disjoint
// vertex spans processed concurrently; each span writes only its own
// entries, so no locking is needed.
//
// Steps:
//  1. Validate the grid and region.
//  2. Split the region's vertices into spans, one goroutine per span.
//  3. Per vertex: copy samples, compute magnitude, and (if requested) the
//     central-difference gradient scaled by Spacing. Voxels just outside the
//     region but inside the grid take part in the differences; the grid
//     border falls back to one-sided differences.
//
// Complexity: O(N·C) time, O(N·C) memory.
func ExtractFeatures(ctx context.Context, g *Grid, r Region, opts FeatureOptions) (*Features, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := g.ValidateRegion(r); err != nil {
		return nil, err
	}
	n, c := r.Len(), g.components()
	f := &Features{
		Region:     r,
		Components: c,
		Values:     make([]float64, n*c),
		Magnitude:  make([]float64, n),
	}
	if opts.Gradient {
		f.Gradient = make([]float64, n)
	}

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(Workers(opts.Workers))
	for _, span := range Split(n, Workers(opts.Workers)*4) {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			for v := span.Lo; v < span.Hi; v++ {
				idx := r.Unflatten(v)
				src := g.Vector(idx)
				copy(f.Values[v*c:(v+1)*c], src)
				f.Magnitude[v] = norm(src)
				if f.Gradient != nil {
					f.Gradient[v] = g.gradientMagnitude(idx)
				}
			}

			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return f, nil
}

// Value returns the samples of vertex v. The slice aliases Values.
func (f *Features) Value(v int) []float64 {
	return f.Values[v*f.Components : (v+1)*f.Components]
}

// gradientMagnitude computes |∇I| at i with central differences, summed
// over components for vector grids.
func (g *Grid) gradientMagnitude(i Index) float64 {
	c := g.components()
	var sum float64
	axes := [3]struct {
		step    Offset
		spacing float64
	}{
		{Offset{X: 1}, g.Spacing.X},
		{Offset{Y: 1}, g.Spacing.Y},
		{Offset{Z: 1}, g.Spacing.Z},
	}
	for _, ax := range axes {
		fwd, bwd := i.Add(ax.step), i.Add(Offset{X: -ax.step.X, Y: -ax.step.Y, Z: -ax.step.Z})
		span := 2.0
		if !g.InBounds(fwd) {
			fwd, span = i, span-1
		}
		if !g.InBounds(bwd) {
			bwd, span = i, span-1
		}
		if span == 0 {
			continue
		}
		a, b := g.Vector(fwd), g.Vector(bwd)
		for k := 0; k < c; k++ {
			d := (a[k] - b[k]) / (span * ax.spacing)
			sum += d * d
		}
	}

	return math.Sqrt(sum)
}

func norm(v []float64) float64 {
	if len(v) == 1 {
		return v[0]
	}
	var s float64
	for _, x := range v {
		s += x * x
	}

	return math.Sqrt(s)
}
