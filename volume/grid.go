package volume

import (
	"fmt"
	"math"
)

// Grid is a dense voxel buffer. It is owned by the caller and treated as
// read-only by the engine for the duration of a solve.
//
// Data holds Components samples per voxel, voxel-interleaved, with voxels in
// row-major order over the full Extent (x fastest, then y, then z).
type Grid struct {
	Extent     Size
	Spacing    Spacing
	Components int
	Data       []float64
}

// NewGrid validates and wraps a scalar (single-component) buffer.
// Returns ErrEmptyExtent, ErrBadSpacing, ErrBufferSize or ErrNonFiniteSample.
// Complexity: O(N); the buffer is scanned but not copied.
func NewGrid(extent Size, spacing Spacing, data []float64) (*Grid, error) {
	return NewVectorGrid(extent, spacing, 1, data)
}

// NewVectorGrid validates and wraps a buffer with components samples per voxel.
// Complexity: O(N); the buffer is scanned but not copied.
func NewVectorGrid(extent Size, spacing Spacing, components int, data []float64) (*Grid, error) {
	g := &Grid{Extent: extent, Spacing: spacing, Components: components, Data: data}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	return g, nil
}

// Validate checks the grid's structural invariants.
func (g *Grid) Validate() error {
	if g.Extent.Len() == 0 {
		return ErrEmptyExtent
	}
	if !g.Spacing.valid() {
		return fmt.Errorf("%w: %+v", ErrBadSpacing, g.Spacing)
	}
	c := g.components()
	if c < 1 || len(g.Data) != g.Extent.Len()*c {
		return fmt.Errorf("%w: got %d samples, want %d×%d",
			ErrBufferSize, len(g.Data), g.Extent.Len(), c)
	}
	for i, x := range g.Data {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %g at voxel %d", ErrNonFiniteSample, x, i/c)
		}
	}

	return nil
}

// ValidateRegion checks that r is a non-empty box inside the grid extent.
func (g *Grid) ValidateRegion(r Region) error {
	if r.IsEmpty() {
		return ErrEmptyRegion
	}
	if !r.Within(g.Extent) {
		return fmt.Errorf("%w: %s not within %dx%dx%d",
			ErrRegionOutside, r, g.Extent.X, g.Extent.Y, g.Extent.Z)
	}

	return nil
}

// InBounds reports whether i lies within the grid extent.
// Complexity: O(1).
func (g *Grid) InBounds(i Index) bool {
	return i.X >= 0 && i.X < g.Extent.X &&
		i.Y >= 0 && i.Y < g.Extent.Y &&
		i.Z >= 0 && i.Z < g.Extent.Z
}

// Offset maps i to its row-major voxel number over the full extent.
// Complexity: O(1).
func (g *Grid) Offset(i Index) int {
	return (i.Z*g.Extent.Y+i.Y)*g.Extent.X + i.X
}

// Value returns the first component of voxel i.
func (g *Grid) Value(i Index) float64 {
	return g.Data[g.Offset(i)*g.components()]
}

// Vector returns the samples of voxel i. The slice aliases Data.
func (g *Grid) Vector(i Index) []float64 {
	c := g.components()
	o := g.Offset(i) * c

	return g.Data[o : o+c : o+c]
}

func (g *Grid) components() int {
	if g.Components == 0 {
		return 1
	}

	return g.Components
}
